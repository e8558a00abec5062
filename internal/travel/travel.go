// Package travel detects journeys away from the home geofence by running a
// two-state machine over geofence enter/exit events and picking each
// journey's farthest standstill as its representative location.
package travel

import (
	"log/slog"
	"time"

	"github.com/phartmann/traveldiary/internal/analysis"
	"github.com/phartmann/traveldiary/internal/conf"
	"github.com/phartmann/traveldiary/internal/datastore"
	"github.com/phartmann/traveldiary/internal/geo"
	"github.com/phartmann/traveldiary/internal/logging"
	"github.com/phartmann/traveldiary/internal/traccar"
)

// A travel whose farthest standstill is within this distance of home never
// really left.
const minTravelDistanceKm = 1.0

// FarthestStandstill references the standstill that represents a travel.
type FarthestStandstill struct {
	Key      string  `json:"key"`
	Distance float64 `json:"distance"`
	Address  string  `json:"address"`
	Country  string  `json:"country"`
}

// Travel is a detected journey away from home. Not persisted, recomputed
// per request from events, standstills and patches.
type Travel struct {
	Title              string             `json:"title"`
	Von                time.Time          `json:"von"`
	Bis                time.Time          `json:"bis"`
	Distance           float64            `json:"distance"`
	FarthestStandstill FarthestStandstill `json:"farthestStandstill"`
}

// Analyzer detects travels for one device.
type Analyzer struct {
	homeGeofenceID int64
	home           geo.Point
	eventMinGap    int
	minDays        float64
	maxDays        float64
	matcher        *PatchMatcher
	logger         *slog.Logger
	now            func() time.Time
}

// NewAnalyzer creates a travel analyzer from the home and analysis settings
// and the loaded travel patches.
func NewAnalyzer(settings *conf.Settings, patches map[string]datastore.TravelPatch) *Analyzer {
	return &Analyzer{
		homeGeofenceID: settings.Home.GeofenceID,
		home: geo.Point{
			Latitude:  settings.Home.Latitude,
			Longitude: settings.Home.Longitude,
		},
		eventMinGap: settings.Analysis.EventMinGap,
		minDays:     settings.Analysis.MinDays,
		maxDays:     settings.Analysis.MaxDays,
		matcher:     NewPatchMatcher(patches),
		logger:      logging.ForService("travel"),
		now:         time.Now,
	}
}

// AnalyzeTravels runs the detection state machine over the event stream.
// Events not concerning the home geofence are ignored. An exit starts a
// travel, the next valid enter ends it; if the stream ends while still away
// the travel is closed open-ended at the current instant.
func (a *Analyzer) AnalyzeTravels(events []traccar.Event, standstills []datastore.StandstillPeriod) []Travel {
	geofenceEvents := make([]traccar.Event, 0, len(events))
	for _, e := range events {
		if e.GeofenceID == a.homeGeofenceID &&
			(e.Type == traccar.EventGeofenceEnter || e.Type == traccar.EventGeofenceExit) {
			geofenceEvents = append(geofenceEvents, e)
		}
	}

	travels := []Travel{}
	inTravel := false
	var exitTime time.Time

	for i := range geofenceEvents {
		event := &geofenceEvents[i]

		switch event.Type {
		case traccar.EventGeofenceExit:
			if !a.isExitValid(geofenceEvents, i) {
				continue
			}
			exitTime = event.ServerTime
			inTravel = true

		case traccar.EventGeofenceEnter:
			if !inTravel {
				continue
			}
			if !a.isReturnValid(geofenceEvents, i) {
				continue
			}

			enterTime := event.ServerTime
			if travel := a.createTravel(exitTime, enterTime, standstills); travel != nil {
				travels = append(travels, *travel)
			}
			inTravel = false
		}
	}

	// still away from home, close the travel at the current instant
	if inTravel {
		now := a.now()
		a.logger.Debug("still in travel", "exit", exitTime, "now", now)
		if travel := a.createTravel(exitTime, now, standstills); travel != nil {
			travels = append(travels, *travel)
		}
	}

	a.logger.Info("travel detection finished", "events", len(geofenceEvents), "travels", len(travels))
	return travels
}

// isExitValid rejects an exit that follows the previous kept event too
// closely; such pairs are geofence noise, not a departure.
func (a *Analyzer) isExitValid(events []traccar.Event, index int) bool {
	if index <= 0 {
		return true
	}

	gap := events[index].ServerTime.Sub(events[index-1].ServerTime).Seconds()
	if gap < float64(a.eventMinGap) {
		a.logger.Debug("skipping exit event, too close to predecessor",
			"index", index, "time", events[index].ServerTime, "gap_seconds", gap)
		return false
	}
	return true
}

// isReturnValid rejects an enter that is immediately followed by another
// event; the vehicle only brushed the geofence boundary.
func (a *Analyzer) isReturnValid(events []traccar.Event, index int) bool {
	if index >= len(events)-1 {
		return true
	}

	gap := events[index+1].ServerTime.Sub(events[index].ServerTime).Seconds()
	if gap < float64(a.eventMinGap) {
		a.logger.Debug("skipping return event, too close to successor",
			"index", index, "time", events[index].ServerTime, "gap_seconds", gap)
		return false
	}
	return true
}

// createTravel validates a [exit, enter] window and builds the Travel
// record, or returns nil if the window is rejected.
func (a *Analyzer) createTravel(exitTime, enterTime time.Time, standstills []datastore.StandstillPeriod) *Travel {
	durationDays := enterTime.Sub(exitTime).Hours() / 24

	if durationDays <= a.minDays || durationDays >= a.maxDays {
		a.logger.Debug("travel duration outside bounds",
			"days", durationDays, "min_days", a.minDays, "max_days", a.maxDays)
		return nil
	}

	travelStandstills := analysis.FilterByWindow(standstills, exitTime, enterTime)
	farthest, distance := a.findFarthestStandstill(travelStandstills)
	if farthest == nil || distance <= minTravelDistanceKm {
		a.logger.Debug("no standstill far enough from home", "distance_km", distance)
		return nil
	}

	travelKey := farthest.Address
	patch, found := a.matcher.Lookup(travelKey)
	if found && patch.Exclude {
		a.logger.Debug("travel excluded by patch", "key", travelKey)
		return nil
	}

	von := exitTime
	bis := enterTime
	if patch.From != nil {
		von = *patch.From
	}
	if patch.To != nil {
		bis = *patch.To
	}

	title := travelKey
	if patch.Title != "" {
		title = patch.Title
	}

	return &Travel{
		Title:    title,
		Von:      von,
		Bis:      bis,
		Distance: distance,
		FarthestStandstill: FarthestStandstill{
			Key:      farthest.Key,
			Distance: distance,
			Address:  farthest.Address,
			Country:  farthest.Country,
		},
	}
}

// findFarthestStandstill returns the standstill with the greatest
// great-circle distance from home, or nil for an empty input.
func (a *Analyzer) findFarthestStandstill(standstills []datastore.StandstillPeriod) (*datastore.StandstillPeriod, float64) {
	var farthest *datastore.StandstillPeriod
	maxDistance := 0.0

	for i := range standstills {
		d := geo.Distance(a.home, geo.Point{
			Latitude:  standstills[i].Latitude,
			Longitude: standstills[i].Longitude,
		})
		if farthest == nil || d > maxDistance {
			farthest = &standstills[i]
			maxDistance = d
		}
	}
	return farthest, maxDistance
}
