// Package geocoder resolves coordinates to human-readable addresses via a
// configurable reverse geocoding provider. Lookups never fail: when the
// provider is unavailable or returns nothing usable, a placeholder location
// built from the raw coordinates is returned instead.
package geocoder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/phartmann/traveldiary/internal/conf"
	"github.com/phartmann/traveldiary/internal/logging"
)

const (
	RequestTimeout = 10 * time.Second
	UserAgent      = "TravelDiary/1.0"
)

// Location is the resolved place of a coordinate pair.
type Location struct {
	Country string `json:"country"`
	Address string `json:"address"`
}

// Provider performs a single reverse geocoding lookup.
type Provider interface {
	Reverse(ctx context.Context, lat, lng float64) (*Location, error)
}

// Service wraps a Provider with an in-memory cache and the never-fail
// fallback contract.
type Service struct {
	provider Provider
	cache    *gocache.Cache
	logger   *slog.Logger
}

// NewService creates a geocoding service with the provider selected in the
// settings. Provider "none" skips lookups entirely and always yields the
// coordinate fallback.
func NewService(settings *conf.GeocoderSettings) (*Service, error) {
	var provider Provider

	switch settings.Provider {
	case "google":
		provider = NewGoogleProvider(settings)
	case "nominatim":
		provider = NewNominatimProvider(settings)
	case "none":
		provider = nil
	default:
		return nil, fmt.Errorf("invalid geocoder provider: %s", settings.Provider)
	}

	ttl := time.Duration(settings.CacheMinutes) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Service{
		provider: provider,
		cache:    gocache.New(ttl, 2*ttl),
		logger:   logging.ForService("geocoder"),
	}, nil
}

// Reverse resolves the given coordinates to a Location. The result is cached
// by rounded coordinates. Provider failures are logged and replaced by a
// placeholder so callers never have to handle geocoding errors.
func (s *Service) Reverse(ctx context.Context, lat, lng float64) *Location {
	key := fmt.Sprintf("%.5f,%.5f", lat, lng)
	if cached, found := s.cache.Get(key); found {
		return cached.(*Location)
	}

	loc := s.lookup(ctx, lat, lng)
	s.cache.Set(key, loc, gocache.DefaultExpiration)
	return loc
}

func (s *Service) lookup(ctx context.Context, lat, lng float64) *Location {
	if s.provider == nil {
		return fallbackLocation(lat, lng)
	}

	loc, err := s.provider.Reverse(ctx, lat, lng)
	if err != nil {
		s.logger.Warn("reverse geocoding failed, using coordinate fallback",
			"lat", lat, "lng", lng, "error", err)
		return fallbackLocation(lat, lng)
	}
	if loc.Country == "" {
		loc.Country = "Unknown"
	}
	if loc.Address == "" {
		loc.Address = fallbackAddress(lat, lng)
	}
	return loc
}

func fallbackLocation(lat, lng float64) *Location {
	return &Location{
		Country: "Unknown",
		Address: fallbackAddress(lat, lng),
	}
}

func fallbackAddress(lat, lng float64) string {
	return fmt.Sprintf("%.6f, %.6f", lat, lng)
}
