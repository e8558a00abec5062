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

// NominatimProvider uses the OpenStreetMap Nominatim reverse endpoint. The
// usage policy requires a descriptive User-Agent and, ideally, a contact
// email on every request.
type NominatimProvider struct {
	endpoint   string
	email      string
	language   string
	httpClient *http.Client
}

type nominatimResponse struct {
	DisplayName string `json:"display_name"`
	Address     struct {
		Country     string `json:"country"`
		CountryCode string `json:"country_code"`
	} `json:"address"`
	Error string `json:"error"`
}

func NewNominatimProvider(settings *conf.GeocoderSettings) *NominatimProvider {
	return &NominatimProvider{
		endpoint: settings.Nominatim.Endpoint,
		email:    settings.Nominatim.Email,
		language: settings.Language,
		httpClient: &http.Client{
			Timeout: RequestTimeout,
		},
	}
}

// Reverse implements the Provider interface for NominatimProvider.
func (p *NominatimProvider) Reverse(ctx context.Context, lat, lng float64) (*Location, error) {
	params := url.Values{}
	params.Set("lat", fmt.Sprintf("%f", lat))
	params.Set("lon", fmt.Sprintf("%f", lng))
	params.Set("format", "jsonv2")
	if p.language != "" {
		params.Set("accept-language", p.language)
	}
	if p.email != "" {
		params.Set("email", p.email)
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

	var decoded nominatimResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return nil, fmt.Errorf("error unmarshaling geocoding data: %w", err)
	}

	if decoded.Error != "" {
		return nil, fmt.Errorf("nominatim error: %s", decoded.Error)
	}

	return &Location{
		Country: decoded.Address.Country,
		Address: decoded.DisplayName,
	}, nil
}
