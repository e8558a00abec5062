package datastore

import "time"

// RoutePosition is an analyzed GPS fix persisted in the route cache.
// SourceID is the position id assigned by the Traccar server; it is
// monotonically increasing with fix time per device, which the incremental
// cache update relies on.
type RoutePosition struct {
	ID            uint      `gorm:"primaryKey" json:"-"`
	DeviceID      int       `gorm:"index:idx_route_device_source,unique" json:"deviceId"`
	SourceID      int64     `gorm:"index:idx_route_device_source,unique" json:"id"`
	Protocol      string    `json:"protocol,omitempty"`
	FixTime       time.Time `gorm:"index" json:"fixTime"`
	Latitude      float64   `json:"latitude"`
	Longitude     float64   `json:"longitude"`
	Altitude      float64   `json:"altitude"`
	Speed         float64   `json:"speed"`
	Course        float64   `json:"course"`
	TotalDistance float64   `json:"totalDistance"`
}

// StandstillPeriod is a detected stay of at least the configured minimum
// duration. Key is derived deterministically from the centroid coordinates,
// making re-analysis over an overlapping window idempotent.
type StandstillPeriod struct {
	ID        uint      `gorm:"primaryKey" json:"-"`
	DeviceID  int       `gorm:"index:idx_stand_device_key,unique" json:"deviceId"`
	Key       string    `gorm:"index:idx_stand_device_key,unique" json:"key"`
	Von       time.Time `json:"von"`
	Bis       time.Time `json:"bis"`
	Period    int       `json:"period"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Country   string    `json:"country"`
	Address   string    `json:"address"`
}

// TravelPatch is a user-authored override for a detected travel, keyed by
// the address of the travel's farthest standstill.
type TravelPatch struct {
	ID         uint       `gorm:"primaryKey" json:"id"`
	AddressKey string     `gorm:"uniqueIndex" json:"addressKey"`
	Title      string     `json:"title,omitempty"`
	From       *time.Time `gorm:"column:from_time" json:"from,omitempty"`
	To         *time.Time `gorm:"column:to_time" json:"to,omitempty"`
	Exclude    bool       `json:"exclude"`
}

// StandstillAdjustment shifts a standstill's displayed start and end by a
// number of minutes, keyed by the standstill key.
type StandstillAdjustment struct {
	ID             uint   `gorm:"primaryKey" json:"id"`
	StandstillKey  string `gorm:"uniqueIndex" json:"standstillKey"`
	StartOffsetMin int    `json:"startOffsetMin"`
	EndOffsetMin   int    `json:"endOffsetMin"`
}

// ManualPOI is a user-authored point of interest shown alongside the
// detected standstills. Upserted by PoiKey, deleted by id.
type ManualPOI struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	PoiKey    string    `gorm:"uniqueIndex" json:"poiKey"`
	DeviceID  int       `json:"deviceId"`
	Latitude  float64   `json:"latitude"`
	Longitude float64   `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
	Address   string    `json:"address"`
	Country   string    `json:"country"`
}
