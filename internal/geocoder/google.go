package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/phartmann/traveldiary/internal/conf"
)

// GoogleProvider uses the Google Maps Geocoding API for reverse lookups.
type GoogleProvider struct {
	endpoint   string
	apiKey     string
	language   string
	httpClient *http.Client
}

// googleResponse covers the fields of the Geocoding API response the diary
// needs: the formatted address of the best match and its country component.
type googleResponse struct {
	Status  string `json:"status"`
	Results []struct {
		FormattedAddress  string `json:"formatted_address"`
		AddressComponents []struct {
			LongName  string   `json:"long_name"`
			ShortName string   `json:"short_name"`
			Types     []string `json:"types"`
		} `json:"address_components"`
	} `json:"results"`
}

func NewGoogleProvider(settings *conf.GeocoderSettings) *GoogleProvider {
	return &GoogleProvider{
		endpoint: settings.Google.Endpoint,
		apiKey:   settings.Google.APIKey,
		language: settings.Language,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
	}
}

// Reverse implements the Provider interface for GoogleProvider.
func (p *GoogleProvider) Reverse(ctx context.Context, lat, lng float64) (*Location, error) {
	if p.apiKey == "" {
		return nil, fmt.Errorf("google geocoding API key not configured")
	}

	params := url.Values{}
	params.Set("latlng", fmt.Sprintf("%f,%f", lat, lng))
	params.Set("key", p.apiKey)
	if p.language != "" {
		params.Set("language", p.language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint+"?"+params.Encode(), http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}
	req.Header.Set("User-Agent", UserAgent)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error fetching geocoding data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("received non-200 response: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	var decoded googleResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("error unmarshaling geocoding data: %w", err)
	}

	if decoded.Status != "OK" || len(decoded.Results) == 0 {
		return nil, fmt.Errorf("no geocoding results: status %s", decoded.Status)
	}

	best := decoded.Results[0]
	loc := &Location{Address: best.FormattedAddress}
	for _, comp := range best.AddressComponents {
		for _, t := range comp.Types {
			if t == "country" {
				loc.Country = comp.LongName
				break
			}
		}
	}
	return loc, nil
}
