// Package diary orchestrates the travel diary pipeline: it keeps the route
// cache warm with a cache-first strategy, runs the analyzers, and serves
// the aggregated results the HTTP layer renders.
package diary

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/phartmann/traveldiary/internal/analysis"
	"github.com/phartmann/traveldiary/internal/conf"
	"github.com/phartmann/traveldiary/internal/datastore"
	"github.com/phartmann/traveldiary/internal/logging"
	"github.com/phartmann/traveldiary/internal/traccar"
	"github.com/phartmann/traveldiary/internal/travel"
)

// TraccarClient is the subset of the Traccar API the diary consumes.
type TraccarClient interface {
	GetDevices(ctx context.Context) ([]traccar.Device, error)
	GetEvents(ctx context.Context, deviceID int, from, to time.Time) ([]traccar.Event, error)
	GetRoute(ctx context.Context, deviceID int, from, to time.Time) ([]traccar.Position, error)
	GetGeofences(ctx context.Context) ([]traccar.Geofence, error)
}

// PrefetchResult reports how a prefetch run went.
type PrefetchResult struct {
	Records int     `json:"records"`
	Time    float64 `json:"time"`
}

// CacheStatus describes the route cache state of a device.
type CacheStatus struct {
	DeviceID  int   `json:"deviceId"`
	HasCache  bool  `json:"hasCache"`
	Positions int64 `json:"positions"`
}

// LatLng is a bare coordinate pair for polyline paths.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// DevicePolyline is a rendered route of one device within a window.
type DevicePolyline struct {
	DeviceID     int      `json:"deviceId"`
	DeviceName   string   `json:"deviceName"`
	Color        string   `json:"color"`
	LineWeight   int      `json:"lineWeight"`
	Path         []LatLng `json:"path"`
	IsMainDevice bool     `json:"isMainDevice"`
}

// Service is the diary's application core.
type Service struct {
	Settings *conf.Settings
	client   TraccarClient
	store    datastore.Interface
	analyzer *analysis.RouteAnalyzer
	logger   *slog.Logger
	now      func() time.Time
}

func NewService(settings *conf.Settings, client TraccarClient, store datastore.Interface, analyzer *analysis.RouteAnalyzer) *Service {
	return &Service{
		Settings: settings,
		client:   client,
		store:    store,
		analyzer: analyzer,
		logger:   logging.ForService("diary"),
		now:      time.Now,
	}
}

// GetRouteData returns the analyzed positions of a device for a time window,
// cache first: an empty cache triggers a full prefetch, otherwise the cache
// is extended incrementally before the window is read.
func (s *Service) GetRouteData(ctx context.Context, deviceID int, from, to time.Time) ([]datastore.RoutePosition, error) {
	if err := s.ensureCache(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.store.GetRoutePositions(deviceID, &from, &to)
}

// GetStandstills returns all cached standstill periods of a device, after
// bringing the cache up to date.
func (s *Service) GetStandstills(ctx context.Context, deviceID int) ([]datastore.StandstillPeriod, error) {
	if err := s.ensureCache(ctx, deviceID); err != nil {
		return nil, err
	}
	return s.store.GetStandstills(deviceID)
}

func (s *Service) ensureCache(ctx context.Context, deviceID int) error {
	hasCache, err := s.store.HasCachedData(deviceID)
	if err != nil {
		return err
	}
	if !hasCache {
		s.logger.Info("no cached data found, triggering prefetch", "device_id", deviceID)
		_, err := s.Prefetch(ctx, deviceID)
		return err
	}

	// an update failure leaves the existing cache usable
	if err := s.updateCache(ctx, deviceID); err != nil {
		s.logger.Error("cache update failed, serving existing cache", "device_id", deviceID, "error", err)
	}
	return nil
}

// updateCache extends the cache with positions newer than the last cached
// fix, continuing the cumulative distance from the cached value.
func (s *Service) updateCache(ctx context.Context, deviceID int) error {
	last, err := s.store.GetLastPosition(deviceID)
	if err != nil {
		return err
	}
	if last == nil {
		return nil
	}

	newPositions, err := s.client.GetRoute(ctx, deviceID, last.FixTime, s.now())
	if err != nil {
		return fmt.Errorf("fetching route delta: %w", err)
	}

	// anchor the batch on the last cached fix so the step from it to the
	// first new fix is counted; its row is re-upserted with the same values
	delta := make([]traccar.Position, 0, len(newPositions)+1)
	delta = append(delta, traccar.Position{
		ID:        last.SourceID,
		DeviceID:  last.DeviceID,
		Protocol:  last.Protocol,
		FixTime:   last.FixTime,
		Latitude:  last.Latitude,
		Longitude: last.Longitude,
		Altitude:  last.Altitude,
		Speed:     last.Speed,
		Course:    last.Course,
	})
	for _, p := range newPositions {
		if p.ID > last.SourceID {
			delta = append(delta, p)
		}
	}
	if len(delta) == 1 {
		s.logger.Debug("no new positions to add", "device_id", deviceID)
		return nil
	}

	positions, standstills := s.analyzer.Analyze(ctx, delta, s.Settings.Analysis.StandPeriodHours, last.TotalDistance)
	if err := s.store.SavePositions(positions); err != nil {
		return err
	}
	if err := s.store.SaveStandstills(standstills); err != nil {
		return err
	}

	s.logger.Info("cache updated",
		"device_id", deviceID,
		"new_positions", len(positions)-1,
		"new_standstills", len(standstills))
	return nil
}

// Prefetch fetches and analyzes the full history of a device from the
// configured start date and fills the cache with it.
func (s *Service) Prefetch(ctx context.Context, deviceID int) (*PrefetchResult, error) {
	started := s.now()

	startDate, err := time.Parse(time.RFC3339, s.Settings.Analysis.StartDate)
	if err != nil {
		return nil, fmt.Errorf("invalid analysis start date %q: %w", s.Settings.Analysis.StartDate, err)
	}

	s.logger.Info("prefetching route data", "device_id", deviceID, "from", startDate)

	raw, err := s.client.GetRoute(ctx, deviceID, startDate, s.now())
	if err != nil {
		return nil, fmt.Errorf("prefetching route: %w", err)
	}

	positions, standstills := s.analyzer.Analyze(ctx, raw, s.Settings.Analysis.StandPeriodHours, 0)
	if err := s.store.SavePositions(positions); err != nil {
		return nil, err
	}
	if err := s.store.SaveStandstills(standstills); err != nil {
		return nil, err
	}

	elapsed := s.now().Sub(started).Seconds()
	s.logger.Info("prefetch complete",
		"device_id", deviceID,
		"positions", len(positions),
		"standstills", len(standstills),
		"seconds", elapsed)

	return &PrefetchResult{Records: len(positions), Time: elapsed}, nil
}

// ClearCache drops all cached data of a device.
func (s *Service) ClearCache(deviceID int) error {
	return s.store.ClearDevice(deviceID)
}

// GetCacheStatus reports whether a device has cached data and how much.
func (s *Service) GetCacheStatus(deviceID int) (*CacheStatus, error) {
	count, err := s.store.CountPositions(deviceID)
	if err != nil {
		return nil, err
	}
	return &CacheStatus{
		DeviceID:  deviceID,
		HasCache:  count > 0,
		Positions: count,
	}, nil
}

// GetTravels detects the travels of a device within a window from the
// event stream, the cached standstills and the stored patches.
func (s *Service) GetTravels(ctx context.Context, deviceID int, from, to time.Time) ([]travel.Travel, error) {
	events, err := s.client.GetEvents(ctx, deviceID, from, to)
	if err != nil {
		return nil, fmt.Errorf("fetching events: %w", err)
	}

	standstills, err := s.GetStandstills(ctx, deviceID)
	if err != nil {
		return nil, err
	}

	patches, err := s.store.GetTravelPatches()
	if err != nil {
		return nil, err
	}

	return travel.NewAnalyzer(s.Settings, patches).AnalyzeTravels(events, standstills), nil
}

// GetEvents passes the raw event stream through to the caller.
func (s *Service) GetEvents(ctx context.Context, deviceID int, from, to time.Time) ([]traccar.Event, error) {
	return s.client.GetEvents(ctx, deviceID, from, to)
}

// GetDevices lists the devices known to the Traccar server.
func (s *Service) GetDevices(ctx context.Context) ([]traccar.Device, error) {
	return s.client.GetDevices(ctx)
}

// GetGeofences lists the geofences configured on the Traccar server.
func (s *Service) GetGeofences(ctx context.Context) ([]traccar.Geofence, error) {
	return s.client.GetGeofences(ctx)
}

// SideTrips fetches the routes of the enabled secondary devices in
// parallel, bypassing the cache. A failing device is logged and omitted,
// it never fails the whole request.
func (s *Service) SideTrips(ctx context.Context, from, to time.Time) ([]DevicePolyline, error) {
	devices := make([]conf.SideTripDevice, 0, len(s.Settings.SideTrips.Devices))
	for _, d := range s.Settings.SideTrips.Devices {
		if d.Enabled {
			devices = append(devices, d)
		}
	}
	if len(devices) == 0 {
		return []DevicePolyline{}, nil
	}

	results := make([]*DevicePolyline, len(devices))
	g, gctx := errgroup.WithContext(ctx)

	for i, device := range devices {
		g.Go(func() error {
			positions, err := s.client.GetRoute(gctx, device.DeviceID, from, to)
			if err != nil {
				s.logger.Warn("side trip fetch failed, omitting device",
					"device_id", device.DeviceID, "error", err)
				return nil
			}
			if len(positions) == 0 {
				s.logger.Debug("no side trip positions", "device_id", device.DeviceID)
				return nil
			}

			path := make([]LatLng, 0, len(positions))
			for _, p := range positions {
				path = append(path, LatLng{Lat: p.Latitude, Lng: p.Longitude})
			}

			results[i] = &DevicePolyline{
				DeviceID:   device.DeviceID,
				DeviceName: device.DeviceName,
				Color:      device.Color,
				LineWeight: device.LineWeight,
				Path:       path,
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	polylines := make([]DevicePolyline, 0, len(devices))
	for _, r := range results {
		if r != nil {
			polylines = append(polylines, *r)
		}
	}

	s.logger.Info("side trips loaded", "devices", len(devices), "loaded", len(polylines))
	return polylines, nil
}
