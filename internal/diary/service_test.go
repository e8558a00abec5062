package diary

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
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

var t0 = time.Date(2023, 5, 22, 6, 0, 0, 0, time.UTC)

type fakeClient struct {
	routes    map[int][]traccar.Position
	routeErrs map[int]error
	events    []traccar.Event
}

func (c *fakeClient) GetDevices(ctx context.Context) ([]traccar.Device, error) {
	return []traccar.Device{{ID: 7, Name: "Camper"}}, nil
}

func (c *fakeClient) GetEvents(ctx context.Context, deviceID int, from, to time.Time) ([]traccar.Event, error) {
	return c.events, nil
}

func (c *fakeClient) GetRoute(ctx context.Context, deviceID int, from, to time.Time) ([]traccar.Position, error) {
	if err := c.routeErrs[deviceID]; err != nil {
		return nil, err
	}
	var result []traccar.Position
	for _, p := range c.routes[deviceID] {
		if !p.FixTime.Before(from) && !p.FixTime.After(to) {
			result = append(result, p)
		}
	}
	return result, nil
}

func (c *fakeClient) GetGeofences(ctx context.Context) ([]traccar.Geofence, error) {
	return nil, nil
}

type stubGeocoder struct{}

func (stubGeocoder) Reverse(ctx context.Context, lat, lng float64) *geocoder.Location {
	return &geocoder.Location{
		Country: "Unknown",
		Address: fmt.Sprintf("%.6f, %.6f", lat, lng),
	}
}

func fix(id int64, minutes int, lat float64) traccar.Position {
	return traccar.Position{
		ID: id, DeviceID: 7,
		FixTime:  t0.Add(time.Duration(minutes) * time.Minute),
		Latitude: lat, Longitude: 11.0,
	}
}

func newTestService(t *testing.T, client *fakeClient) (*Service, datastore.Interface) {
	t.Helper()

	dir := t.TempDir()
	settings := &conf.Settings{}
	settings.Output.RouteCache.Path = filepath.Join(dir, "route.db")
	settings.Output.AppDB.Path = filepath.Join(dir, "app.db")
	settings.Analysis.StandPeriodHours = 12
	settings.Analysis.EventMinGap = 3600
	settings.Analysis.MinDays = 2
	settings.Analysis.MaxDays = 170
	settings.Analysis.StartDate = "2020-01-01T00:00:00Z"
	settings.Home.Latitude = 48.0
	settings.Home.Longitude = 11.0
	settings.Home.GeofenceID = 1

	store := datastore.New(settings)
	require.NoError(t, store.Open())
	t.Cleanup(func() {
		require.NoError(t, store.Close())
	})

	svc := NewService(settings, client, store, analysis.NewRouteAnalyzer(stubGeocoder{}))
	svc.now = func() time.Time { return t0.Add(48 * time.Hour) }
	return svc, store
}

func TestGetRouteDataPrefetchesEmptyCache(t *testing.T) {
	client := &fakeClient{routes: map[int][]traccar.Position{
		7: {fix(1, 0, 48.0), fix(2, 10, 48.1), fix(3, 20, 48.2)},
	}}
	svc, store := newTestService(t, client)

	positions, err := svc.GetRouteData(context.Background(), 7, t0, t0.Add(time.Hour))

	require.NoError(t, err)
	require.Len(t, positions, 3)
	assert.Zero(t, positions[0].TotalDistance)
	assert.InDelta(t, 2*11.12, positions[2].TotalDistance, 0.5)

	has, err := store.HasCachedData(7)
	require.NoError(t, err)
	assert.True(t, has)
}

func TestGetRouteDataIncrementalUpdate(t *testing.T) {
	client := &fakeClient{routes: map[int][]traccar.Position{
		7: {fix(1, 0, 48.0), fix(2, 10, 48.1)},
	}}
	svc, store := newTestService(t, client)

	// first call fills the cache
	_, err := svc.GetRouteData(context.Background(), 7, t0, t0.Add(time.Hour))
	require.NoError(t, err)

	// new fixes arrive upstream, overlapping the cached window
	client.routes[7] = append(client.routes[7], fix(3, 20, 48.2), fix(4, 30, 48.3))

	positions, err := svc.GetRouteData(context.Background(), 7, t0, t0.Add(time.Hour))

	require.NoError(t, err)
	require.Len(t, positions, 4)
	// the delta continues the cached running total
	assert.InDelta(t, 3*11.12, positions[3].TotalDistance, 0.5)

	count, err := store.CountPositions(7)
	require.NoError(t, err)
	assert.Equal(t, int64(4), count, "overlapping update must not duplicate rows")
}

func TestGetRouteDataUpdateFailureServesCache(t *testing.T) {
	client := &fakeClient{routes: map[int][]traccar.Position{
		7: {fix(1, 0, 48.0), fix(2, 10, 48.1)},
	}}
	svc, _ := newTestService(t, client)

	_, err := svc.GetRouteData(context.Background(), 7, t0, t0.Add(time.Hour))
	require.NoError(t, err)

	client.routeErrs = map[int]error{7: errors.New("upstream down")}

	positions, err := svc.GetRouteData(context.Background(), 7, t0, t0.Add(time.Hour))

	require.NoError(t, err, "a failed incremental update must not fail the request")
	assert.Len(t, positions, 2)
}

func TestPrefetchResult(t *testing.T) {
	client := &fakeClient{routes: map[int][]traccar.Position{
		7: {fix(1, 0, 48.0), fix(2, 10, 48.1), fix(3, 20, 48.2)},
	}}
	svc, _ := newTestService(t, client)

	result, err := svc.Prefetch(context.Background(), 7)

	require.NoError(t, err)
	assert.Equal(t, 3, result.Records)
	assert.GreaterOrEqual(t, result.Time, 0.0)
}

func TestClearCacheAndStatus(t *testing.T) {
	client := &fakeClient{routes: map[int][]traccar.Position{
		7: {fix(1, 0, 48.0), fix(2, 10, 48.1)},
	}}
	svc, _ := newTestService(t, client)

	_, err := svc.Prefetch(context.Background(), 7)
	require.NoError(t, err)

	status, err := svc.GetCacheStatus(7)
	require.NoError(t, err)
	assert.True(t, status.HasCache)
	assert.Equal(t, int64(2), status.Positions)

	require.NoError(t, svc.ClearCache(7))

	status, err = svc.GetCacheStatus(7)
	require.NoError(t, err)
	assert.False(t, status.HasCache)
	assert.Zero(t, status.Positions)
}

func TestSideTripsDegradePerDevice(t *testing.T) {
	client := &fakeClient{
		routes: map[int][]traccar.Position{
			11: {{ID: 1, DeviceID: 11, FixTime: t0, Latitude: 47.0, Longitude: 12.0}},
		},
		routeErrs: map[int]error{12: errors.New("device offline")},
	}
	svc, _ := newTestService(t, client)
	svc.Settings.SideTrips.Devices = []conf.SideTripDevice{
		{DeviceID: 11, DeviceName: "Bike", Color: "#0088FF", LineWeight: 2, Enabled: true},
		{DeviceID: 12, DeviceName: "Scooter", Color: "#FF8800", LineWeight: 2, Enabled: true},
		{DeviceID: 13, DeviceName: "Disabled", Enabled: false},
	}

	polylines, err := svc.SideTrips(context.Background(), t0, t0.Add(24*time.Hour))

	require.NoError(t, err, "a failing side-trip device must not fail the request")
	require.Len(t, polylines, 1)
	assert.Equal(t, "Bike", polylines[0].DeviceName)
	assert.Equal(t, "#0088FF", polylines[0].Color)
	require.Len(t, polylines[0].Path, 1)
	assert.InDelta(t, 47.0, polylines[0].Path[0].Lat, 0.0001)
}

func TestGetTravelsEndToEnd(t *testing.T) {
	// stand 300 km north for 20 hours inside the travel window
	var trace []traccar.Position
	id := int64(1)
	for i := 0; i <= 30; i++ {
		trace = append(trace, fix(id, i*10, 48.0+float64(i)*0.09))
		id++
	}
	for h := 1; h <= 20; h++ {
		trace = append(trace, fix(id, 5*60+h*60, 50.7))
		id++
	}
	for i := 1; i <= 30; i++ {
		trace = append(trace, fix(id, 25*60+i*10, 50.7-float64(i)*0.09))
		id++
	}

	client := &fakeClient{
		routes: map[int][]traccar.Position{7: trace},
		events: []traccar.Event{
			{Type: traccar.EventGeofenceExit, GeofenceID: 1, DeviceID: 7, ServerTime: t0},
			{Type: traccar.EventGeofenceEnter, GeofenceID: 1, DeviceID: 7, ServerTime: t0.Add(60 * time.Hour)},
		},
	}
	svc, _ := newTestService(t, client)
	svc.now = func() time.Time { return t0.Add(72 * time.Hour) }

	travels, err := svc.GetTravels(context.Background(), 7, t0, t0.Add(72*time.Hour))

	require.NoError(t, err)
	require.Len(t, travels, 1)
	assert.InDelta(t, 300.0, travels[0].Distance, 10.0)
}
