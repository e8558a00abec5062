package travel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phartmann/traveldiary/internal/analysis"
	"github.com/phartmann/traveldiary/internal/conf"
	"github.com/phartmann/traveldiary/internal/datastore"
	"github.com/phartmann/traveldiary/internal/geocoder"
	"github.com/phartmann/traveldiary/internal/traccar"
)

var t0 = time.Date(2023, 5, 22, 8, 0, 0, 0, time.UTC)

func testSettings() *conf.Settings {
	settings := &conf.Settings{}
	settings.Home.Latitude = 48.0
	settings.Home.Longitude = 11.0
	settings.Home.GeofenceID = 1
	settings.Analysis.EventMinGap = 3600
	settings.Analysis.MinDays = 2
	settings.Analysis.MaxDays = 170
	return settings
}

func event(typ string, geofenceID int64, at time.Time) traccar.Event {
	return traccar.Event{Type: typ, GeofenceID: geofenceID, DeviceID: 7, ServerTime: at}
}

// standAway is a standstill roughly 300 km north of the test home.
func standAway(von, bis time.Time) datastore.StandstillPeriod {
	return datastore.StandstillPeriod{
		DeviceID: 7, Key: "marker5071100",
		Von: von, Bis: bis, Period: 2,
		Latitude: 50.7, Longitude: 11.0,
		Country: "Germany", Address: "Jena, Deutschland",
	}
}

func TestAnalyzeTravelsBasic(t *testing.T) {
	analyzer := NewAnalyzer(testSettings(), nil)
	enter := t0.Add(60 * time.Hour)
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 1, t0),
		event(traccar.EventGeofenceEnter, 1, enter),
	}
	standstills := []datastore.StandstillPeriod{standAway(t0.Add(10*time.Hour), t0.Add(30*time.Hour))}

	travels := analyzer.AnalyzeTravels(events, standstills)

	require.Len(t, travels, 1)
	travel := travels[0]
	assert.Equal(t, "Jena, Deutschland", travel.Title)
	assert.Equal(t, t0, travel.Von)
	assert.Equal(t, enter, travel.Bis)
	assert.InDelta(t, 300.0, travel.Distance, 5.0)
	assert.Equal(t, "marker5071100", travel.FarthestStandstill.Key)
	assert.Equal(t, "Germany", travel.FarthestStandstill.Country)
}

func TestAnalyzeTravelsIgnoresOtherGeofences(t *testing.T) {
	analyzer := NewAnalyzer(testSettings(), nil)
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 99, t0),
		event(traccar.EventGeofenceEnter, 99, t0.Add(60*time.Hour)),
	}

	travels := analyzer.AnalyzeTravels(events, []datastore.StandstillPeriod{
		standAway(t0.Add(10*time.Hour), t0.Add(30*time.Hour)),
	})

	assert.Empty(t, travels)
}

func TestAnalyzeTravelsDurationBounds(t *testing.T) {
	tests := []struct {
		name  string
		enter time.Time
	}{
		{"too_short", t0.Add(24 * time.Hour)},
		{"exactly_min_days", t0.Add(48 * time.Hour)},
		{"too_long", t0.Add(200 * 24 * time.Hour)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := NewAnalyzer(testSettings(), nil)
			events := []traccar.Event{
				event(traccar.EventGeofenceExit, 1, t0),
				event(traccar.EventGeofenceEnter, 1, tt.enter),
			}

			travels := analyzer.AnalyzeTravels(events, []datastore.StandstillPeriod{
				standAway(t0.Add(10*time.Hour), t0.Add(30*time.Hour)),
			})

			assert.Empty(t, travels)
		})
	}
}

func TestAnalyzeTravelsNearHomeStandstillRejected(t *testing.T) {
	analyzer := NewAnalyzer(testSettings(), nil)
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 1, t0),
		event(traccar.EventGeofenceEnter, 1, t0.Add(60*time.Hour)),
	}
	// 0.005 degrees is roughly half a kilometer
	nearHome := datastore.StandstillPeriod{
		DeviceID: 7, Key: "markerhome",
		Von: t0.Add(10 * time.Hour), Bis: t0.Add(30 * time.Hour), Period: 2,
		Latitude: 48.005, Longitude: 11.0,
	}

	travels := analyzer.AnalyzeTravels(events, []datastore.StandstillPeriod{nearHome})

	assert.Empty(t, travels)
}

func TestAnalyzeTravelsNoisyExitSkipped(t *testing.T) {
	analyzer := NewAnalyzer(testSettings(), nil)
	enter := t0.Add(60 * time.Hour)
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 1, t0),
		// boundary jitter half an hour after the real departure
		event(traccar.EventGeofenceExit, 1, t0.Add(30*time.Minute)),
		event(traccar.EventGeofenceEnter, 1, enter),
	}

	travels := analyzer.AnalyzeTravels(events, []datastore.StandstillPeriod{
		standAway(t0.Add(10*time.Hour), t0.Add(30*time.Hour)),
	})

	require.Len(t, travels, 1)
	assert.Equal(t, t0, travels[0].Von, "the first exit must remain the travel start")
}

func TestAnalyzeTravelsNoisyReturnSkipped(t *testing.T) {
	analyzer := NewAnalyzer(testSettings(), nil)
	finalEnter := t0.Add(60 * time.Hour)
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 1, t0),
		// brushing the boundary mid-travel: enter immediately followed by exit
		event(traccar.EventGeofenceEnter, 1, t0.Add(20*time.Hour)),
		event(traccar.EventGeofenceExit, 1, t0.Add(20*time.Hour+10*time.Minute)),
		event(traccar.EventGeofenceEnter, 1, finalEnter),
	}

	travels := analyzer.AnalyzeTravels(events, []datastore.StandstillPeriod{
		standAway(t0.Add(10*time.Hour), t0.Add(30*time.Hour)),
	})

	require.Len(t, travels, 1)
	assert.Equal(t, finalEnter, travels[0].Bis)
}

func TestAnalyzeTravelsOpenEnded(t *testing.T) {
	analyzer := NewAnalyzer(testSettings(), nil)
	now := t0.Add(100 * time.Hour)
	analyzer.now = func() time.Time { return now }
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 1, t0),
	}

	travels := analyzer.AnalyzeTravels(events, []datastore.StandstillPeriod{
		standAway(t0.Add(10*time.Hour), t0.Add(30*time.Hour)),
	})

	require.Len(t, travels, 1)
	assert.Equal(t, t0, travels[0].Von)
	assert.Equal(t, now, travels[0].Bis)
}

func TestAnalyzeTravelsPatchExcludes(t *testing.T) {
	patches := map[string]datastore.TravelPatch{
		"Jena, Deutschland": {AddressKey: "Jena, Deutschland", Exclude: true},
	}
	analyzer := NewAnalyzer(testSettings(), patches)
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 1, t0),
		event(traccar.EventGeofenceEnter, 1, t0.Add(60*time.Hour)),
	}

	travels := analyzer.AnalyzeTravels(events, []datastore.StandstillPeriod{
		standAway(t0.Add(10*time.Hour), t0.Add(30*time.Hour)),
	})

	assert.Empty(t, travels)
}

func TestAnalyzeTravelsPatchOverrides(t *testing.T) {
	patchedFrom := t0.Add(-12 * time.Hour)
	patchedTo := t0.Add(72 * time.Hour)
	patches := map[string]datastore.TravelPatch{
		"Jena, Deutschland": {
			AddressKey: "Jena, Deutschland",
			Title:      "Thüringen im Mai",
			From:       &patchedFrom,
			To:         &patchedTo,
		},
	}
	analyzer := NewAnalyzer(testSettings(), patches)
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 1, t0),
		event(traccar.EventGeofenceEnter, 1, t0.Add(60*time.Hour)),
	}

	travels := analyzer.AnalyzeTravels(events, []datastore.StandstillPeriod{
		standAway(t0.Add(10*time.Hour), t0.Add(30*time.Hour)),
	})

	require.Len(t, travels, 1)
	assert.Equal(t, "Thüringen im Mai", travels[0].Title)
	assert.Equal(t, patchedFrom, travels[0].Von)
	assert.Equal(t, patchedTo, travels[0].Bis)
}

func TestPatchMatcher(t *testing.T) {
	patches := map[string]datastore.TravelPatch{
		"Krk, Croatia": {AddressKey: "Krk, Croatia", Title: "Krk"},
	}
	matcher := NewPatchMatcher(patches)

	patch, ok := matcher.Lookup("Krk, Croatia")
	require.True(t, ok)
	assert.Equal(t, "Krk", patch.Title)

	patch, ok = matcher.Lookup("2HCR+WM Krk, Croatia")
	require.True(t, ok, "Plus Code prefix must be stripped on fallback")
	assert.Equal(t, "Krk", patch.Title)

	_, ok = matcher.Lookup("Cres, Croatia")
	assert.False(t, ok)
}

func TestStripPlusCode(t *testing.T) {
	assert.Equal(t, "Krk, Croatia", StripPlusCode("2HCR+WM Krk, Croatia"))
	assert.Equal(t, "Lazise, Italien", StripPlusCode("8FPF+Q2X Lazise, Italien"))
	assert.Equal(t, "Gardasee, Italien", StripPlusCode("Gardasee, Italien"))
	// plus code embedded mid-address stays untouched
	assert.Equal(t, "Hotel 2HCR+WM Krk", StripPlusCode("Hotel 2HCR+WM Krk"))
}

type fixedGeocoder struct{}

func (fixedGeocoder) Reverse(ctx context.Context, lat, lng float64) *geocoder.Location {
	return &geocoder.Location{Country: "Germany", Address: "Jena, Deutschland"}
}

// Full pipeline: a trace standing 20 hours roughly 300 km from home must
// yield one standstill, and with a spanning exit/enter pair one travel of
// about 300 km.
func TestRouteToTravelPipeline(t *testing.T) {
	var trace []traccar.Position
	id := int64(1)
	appendFix := func(minutes int, lat, lng float64) {
		trace = append(trace, traccar.Position{
			ID: id, DeviceID: 7,
			FixTime:  t0.Add(time.Duration(minutes) * time.Minute),
			Latitude: lat, Longitude: lng,
		})
		id++
	}

	// drive north 300 km in 5 hours
	for i := 0; i <= 30; i++ {
		appendFix(i*10, 48.0+float64(i)*0.09, 11.0)
	}
	// stand still for 20 hours
	for h := 1; h <= 20; h++ {
		appendFix(5*60+h*60, 50.7, 11.0)
	}
	// drive back
	for i := 1; i <= 30; i++ {
		appendFix(25*60+i*10, 50.7-float64(i)*0.09, 11.0)
	}

	routeAnalyzer := analysis.NewRouteAnalyzer(fixedGeocoder{})
	positions, standstills := routeAnalyzer.Analyze(context.Background(), trace, 12, 0)

	require.Len(t, standstills, 1)
	assert.InDelta(t, 2*300.0, positions[len(positions)-1].TotalDistance, 10.0)

	travelAnalyzer := NewAnalyzer(testSettings(), nil)
	events := []traccar.Event{
		event(traccar.EventGeofenceExit, 1, t0),
		event(traccar.EventGeofenceEnter, 1, t0.Add(60*time.Hour)),
	}

	travels := travelAnalyzer.AnalyzeTravels(events, standstills)

	require.Len(t, travels, 1)
	assert.InDelta(t, 300.0, travels[0].Distance, 10.0)
	assert.Equal(t, "Jena, Deutschland", travels[0].Title)
}
