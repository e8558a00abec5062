package traccar

import "time"

// Device represents a tracked device registered on the Traccar server.
type Device struct {
	ID         int       `json:"id"`
	Name       string    `json:"name"`
	UniqueID   string    `json:"uniqueId"`
	Status     string    `json:"status"`
	LastUpdate time.Time `json:"lastUpdate"`
	PositionID int       `json:"positionId"`
	GroupID    int       `json:"groupId"`
	Phone      string    `json:"phone,omitempty"`
	Model      string    `json:"model,omitempty"`
	Contact    string    `json:"contact,omitempty"`
	Category   string    `json:"category,omitempty"`
	Disabled   bool      `json:"disabled"`
}

// Position is a single raw GPS fix as reported by the Traccar server.
// Source ids are monotonically increasing with fix time per device.
type Position struct {
	ID         int64          `json:"id"`
	DeviceID   int            `json:"deviceId"`
	Protocol   string         `json:"protocol"`
	DeviceTime time.Time      `json:"deviceTime"`
	FixTime    time.Time      `json:"fixTime"`
	ServerTime time.Time      `json:"serverTime"`
	Latitude   float64        `json:"latitude"`
	Longitude  float64        `json:"longitude"`
	Altitude   float64        `json:"altitude"`
	Speed      float64        `json:"speed"`
	Course     float64        `json:"course"`
	Address    string         `json:"address,omitempty"`
	Accuracy   float64        `json:"accuracy"`
	Attributes map[string]any `json:"attributes"`
}

// Event is a server-side event, most relevantly geofence enter/exit
// transitions.
type Event struct {
	ID         int64          `json:"id"`
	Type       string         `json:"type"`
	EventTime  time.Time      `json:"eventTime"`
	ServerTime time.Time      `json:"serverTime"`
	DeviceID   int            `json:"deviceId"`
	PositionID int64          `json:"positionId"`
	GeofenceID int64          `json:"geofenceId"`
	Attributes map[string]any `json:"attributes"`
}

// Geofence is a named virtual boundary configured on the Traccar server.
type Geofence struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Area        string         `json:"area"`
	Attributes  map[string]any `json:"attributes"`
}

// Geofence event types reported by Traccar.
const (
	EventGeofenceEnter = "geofenceEnter"
	EventGeofenceExit  = "geofenceExit"
)
