// Package traccar implements a minimal authenticated REST client for the
// Traccar tracking server, covering the report and entity endpoints the
// travel diary consumes.
package traccar

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/phartmann/traveldiary/internal/conf"
	"github.com/phartmann/traveldiary/internal/logging"
)

const (
	RequestTimeout = 100 * time.Second
	RetryDelay     = 2 * time.Second
	MaxRetries     = 3

	// Positions whose reported trip distance attribute reaches this value
	// are corrupt fixes and are dropped before analysis.
	maxTripDistance = 1000000.0
)

// Client is an authenticated Traccar REST API client.
type Client struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a Traccar client from the given settings.
func NewClient(settings *conf.TraccarSettings) *Client {
	return &Client{
		baseURL:  settings.URL,
		username: settings.Username,
		password: settings.Password,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
		logger: logging.ForService("traccar"),
	}
}

// get performs an authenticated GET against the given API path and decodes
// the JSON response into out. Transient failures are retried.
func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	u := c.baseURL + path
	if len(params) > 0 {
		u += "?" + params.Encode()
	}

	var lastErr error
	for i := 0; i < MaxRetries; i++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
		if err != nil {
			return fmt.Errorf("error creating request: %w", err)
		}
		req.SetBasicAuth(c.username, c.password)
		req.Header.Set("Accept", "application/json; charset=utf-8")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("error fetching %s: %w", path, err)
			time.Sleep(RetryDelay)
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			lastErr = fmt.Errorf("received non-200 response from %s: %d", path, resp.StatusCode)
			// Client errors will not get better on retry
			if resp.StatusCode >= 400 && resp.StatusCode < 500 {
				return lastErr
			}
			time.Sleep(RetryDelay)
			continue
		}

		body, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return fmt.Errorf("error reading response body: %w", err)
		}

		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("error unmarshaling response from %s: %w", path, err)
		}
		return nil
	}

	return lastErr
}

// GetDevices returns all devices visible to the configured account.
func (c *Client) GetDevices(ctx context.Context) ([]Device, error) {
	var devices []Device
	if err := c.get(ctx, "/api/devices", nil, &devices); err != nil {
		return nil, err
	}
	return devices, nil
}

// GetEvents returns the events reported for a device within [from, to].
func (c *Client) GetEvents(ctx context.Context, deviceID int, from, to time.Time) ([]Event, error) {
	params := url.Values{}
	params.Set("deviceId", strconv.Itoa(deviceID))
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", to.UTC().Format(time.RFC3339))

	var events []Event
	if err := c.get(ctx, "/api/reports/events", params, &events); err != nil {
		return nil, err
	}
	return events, nil
}

// GetRoute returns the raw position history of a device within [from, to].
// Corrupt fixes with an implausible trip distance attribute are dropped.
func (c *Client) GetRoute(ctx context.Context, deviceID int, from, to time.Time) ([]Position, error) {
	params := url.Values{}
	params.Set("deviceId", strconv.Itoa(deviceID))
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", to.UTC().Format(time.RFC3339))

	c.logger.Debug("fetching route report",
		"device_id", deviceID,
		"from", from.UTC().Format(time.RFC3339),
		"to", to.UTC().Format(time.RFC3339))

	var positions []Position
	if err := c.get(ctx, "/api/reports/route", params, &positions); err != nil {
		return nil, err
	}

	filtered := positions[:0]
	for _, p := range positions {
		if tripDistance(&p) < maxTripDistance {
			filtered = append(filtered, p)
		}
	}

	if dropped := len(positions) - len(filtered); dropped > 0 {
		c.logger.Info("dropped corrupt positions",
			"device_id", deviceID,
			"loaded", len(positions),
			"dropped", dropped)
	}

	return filtered, nil
}

// GetPositions returns current positions, optionally narrowed to a single
// position id.
func (c *Client) GetPositions(ctx context.Context, positionID int64) ([]Position, error) {
	params := url.Values{}
	if positionID > 0 {
		params.Set("id", strconv.FormatInt(positionID, 10))
	}

	var positions []Position
	if err := c.get(ctx, "/api/positions", params, &positions); err != nil {
		return nil, err
	}
	return positions, nil
}

// GetGeofences returns all geofences visible to the configured account.
func (c *Client) GetGeofences(ctx context.Context) ([]Geofence, error) {
	var geofences []Geofence
	if err := c.get(ctx, "/api/geofences", nil, &geofences); err != nil {
		return nil, err
	}
	return geofences, nil
}

func tripDistance(p *Position) float64 {
	v, ok := p.Attributes["distance"]
	if !ok {
		return 0
	}
	switch d := v.(type) {
	case float64:
		return d
	case int:
		return float64(d)
	case json.Number:
		f, _ := d.Float64()
		return f
	default:
		return 0
	}
}
