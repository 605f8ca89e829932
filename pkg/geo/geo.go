// Package geo resolves the user's approximate position for
// location-aware grounded queries.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/aria-studio/aria/internal/httpc"
)

// Location is a resolved position.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	City      string  `json:"city,omitempty"`
	Country   string  `json:"country,omitempty"`
}

// Provider resolves the current location. One-shot; no watching.
type Provider interface {
	Locate(ctx context.Context) (Location, error)
}

// Static always returns a fixed location. Doubles as a test stub and as
// the provider for deployments with a configured position.
type Static struct {
	Location Location
	Err      error
}

func (s Static) Locate(ctx context.Context) (Location, error) {
	return s.Location, s.Err
}

// IPProvider geolocates by the caller's public IP address.
type IPProvider struct {
	// Endpoint overrides the lookup URL, for tests.
	Endpoint string

	// HTTP overrides the HTTP client.
	HTTP *http.Client
}

const defaultIPEndpoint = "http://ip-api.com/json"

// Locate queries the IP geolocation service.
func (p *IPProvider) Locate(ctx context.Context) (Location, error) {
	endpoint := p.Endpoint
	if endpoint == "" {
		endpoint = defaultIPEndpoint
	}
	client := p.HTTP
	if client == nil {
		client = httpc.Client
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Location{}, fmt.Errorf("geo: build request: %w", err)
	}
	resp, err := client.Do(req)
	if err != nil {
		return Location{}, fmt.Errorf("geo: lookup: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Location{}, fmt.Errorf("geo: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return Location{}, fmt.Errorf("geo: lookup failed (status %d)", resp.StatusCode)
	}

	var body struct {
		Status  string  `json:"status"`
		Message string  `json:"message"`
		Lat     float64 `json:"lat"`
		Lon     float64 `json:"lon"`
		City    string  `json:"city"`
		Country string  `json:"country"`
	}
	if err := json.Unmarshal(data, &body); err != nil {
		return Location{}, fmt.Errorf("geo: decode response: %w", err)
	}
	if body.Status != "success" {
		return Location{}, fmt.Errorf("geo: lookup rejected: %s", body.Message)
	}
	return Location{
		Latitude:  body.Lat,
		Longitude: body.Lon,
		City:      body.City,
		Country:   body.Country,
	}, nil
}
