// Package analysis turns a raw, time-ordered GPS fix sequence into
// cumulative trip distance and detected standstill periods, and provides
// the cleaning steps applied before presentation.
package analysis

import (
	"context"
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/phartmann/traveldiary/internal/datastore"
	"github.com/phartmann/traveldiary/internal/geo"
	"github.com/phartmann/traveldiary/internal/geocoder"
	"github.com/phartmann/traveldiary/internal/logging"
	"github.com/phartmann/traveldiary/internal/traccar"
)

// A step shorter than this is treated as standing still.
const standstillStepKm = 0.1

// Geocoder resolves a coordinate to a location. Implementations never fail;
// see the geocoder package for the fallback contract.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lng float64) *geocoder.Location
}

// RouteAnalyzer scans position sequences for distance and standstills.
type RouteAnalyzer struct {
	geocoder Geocoder
	logger   *slog.Logger
}

func NewRouteAnalyzer(g Geocoder) *RouteAnalyzer {
	return &RouteAnalyzer{
		geocoder: g,
		logger:   logging.ForService("analysis"),
	}
}

// Analyze walks the ordered position sequence of one device in a single
// forward pass. Each position is stamped with the cumulative Haversine
// distance from the start of the sequence; stationary runs longer than
// standPeriodHours become StandstillPeriod records with the centroid of the
// stationary samples as their location.
//
// carryOver is the total distance of the last previously cached position
// and is added to every stamped distance, so an incremental batch continues
// the cached sequence seamlessly. Pass 0 for a fresh analysis.
func (a *RouteAnalyzer) Analyze(ctx context.Context, route []traccar.Position, standPeriodHours int, carryOver float64) ([]datastore.RoutePosition, []datastore.StandstillPeriod) {
	if len(route) == 0 {
		return []datastore.RoutePosition{}, []datastore.StandstillPeriod{}
	}

	positions := make([]datastore.RoutePosition, len(route))
	for i := range route {
		positions[i] = datastore.RoutePosition{
			DeviceID:  route[i].DeviceID,
			SourceID:  route[i].ID,
			Protocol:  route[i].Protocol,
			FixTime:   route[i].FixTime,
			Latitude:  route[i].Latitude,
			Longitude: route[i].Longitude,
			Altitude:  route[i].Altitude,
			Speed:     route[i].Speed,
			Course:    route[i].Course,
		}
	}

	var standstills []datastore.StandstillPeriod
	var samples []geo.Center
	var stop *traccar.Position
	totalDist := 0.0
	standstill := false

	for i := 0; i < len(route)-1; i++ {
		positions[i].TotalDistance = totalDist

		d := geo.Distance(
			geo.Point{Latitude: route[i].Latitude, Longitude: route[i].Longitude},
			geo.Point{Latitude: route[i+1].Latitude, Longitude: route[i+1].Longitude},
		)
		totalDist += d

		if d < standstillStepKm {
			if !standstill {
				standstill = true
				stop = &route[i]
			}
			samples = append(samples, geo.Center{Lat: route[i].Latitude, Lng: route[i].Longitude})
			continue
		}

		if standstill && stop != nil {
			standstill = false
			start := &route[i]
			elapsed := geo.TimeDiff(
				geo.Point{FixTime: stop.FixTime},
				geo.Point{FixTime: start.FixTime},
			)

			if elapsed > float64(standPeriodHours)*3600.0 {
				standstills = append(standstills, a.materializeStandstill(ctx, stop, start, samples, elapsed))
			}
			samples = nil
		}
	}

	// the scan stamps "from" points only, the final position gets the sum
	positions[len(positions)-1].TotalDistance = totalDist

	if carryOver != 0 {
		for i := range positions {
			positions[i].TotalDistance += carryOver
		}
	}

	if standstills == nil {
		standstills = []datastore.StandstillPeriod{}
	}
	return positions, standstills
}

func (a *RouteAnalyzer) materializeStandstill(ctx context.Context, stop, start *traccar.Position, samples []geo.Center, elapsed float64) datastore.StandstillPeriod {
	var plat, plng float64
	for _, s := range samples {
		plat += s.Lat
		plng += s.Lng
	}
	plat /= float64(len(samples))
	plng /= float64(len(samples))

	loc := a.geocoder.Reverse(ctx, plat, plng)

	period := datastore.StandstillPeriod{
		DeviceID:  stop.DeviceID,
		Key:       MarkerKey(plat, plng),
		Von:       stop.FixTime,
		Bis:       start.FixTime,
		Period:    int(math.Round(elapsed / 3600.0 / 10.0)),
		Latitude:  plat,
		Longitude: plng,
		Country:   loc.Country,
		Address:   loc.Address,
	}

	a.logger.Debug("detected standstill",
		"device_id", period.DeviceID,
		"key", period.Key,
		"von", period.Von,
		"bis", period.Bis,
		"address", period.Address)

	return period
}

// MarkerKey derives the stable identifier of a standstill from its centroid
// coordinates: the first seven characters of each coordinate's shortest
// decimal representation, with dots removed and a leading minus encoded as
// 'M'. Identical centroids always yield the identical key, which the cache
// upsert and the user-override matching depend on.
func MarkerKey(lat, lng float64) string {
	key := "marker" + prefix(formatCoord(lat), 7) + prefix(formatCoord(lng), 7)
	key = strings.ReplaceAll(key, ".", "")
	return strings.ReplaceAll(key, "-", "M")
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func prefix(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
