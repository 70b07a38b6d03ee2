package saferoute

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"Omnipresence/pkg/errors"
	"Omnipresence/pkg/geo"
)

const defaultORSBaseURL = "https://api.openrouteservice.org"

// RouteClient fetches a walking or driving route between two points.
type RouteClient interface {
	Route(ctx context.Context, start, end geo.Point) ([]geo.Point, error)
}

// ORSConfig configures the OpenRouteService client.
type ORSConfig struct {
	APIKey  string `env:"ORS_API_KEY"`
	BaseURL string `env:"ORS_URL"`
	Profile string `env:"ORS_PROFILE"`
	Timeout time.Duration
}

// ORSClient talks to the OpenRouteService directions API.
type ORSClient struct {
	cfg    ORSConfig
	client *http.Client
}

func NewORSClient(cfg ORSConfig) *ORSClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultORSBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving-car"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &ORSClient{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type orsResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates [][]float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// Route returns the waypoints of the best route. Coordinates on the wire are
// longitude first.
func (c *ORSClient) Route(ctx context.Context, start, end geo.Point) ([]geo.Point, error) {
	query := url.Values{}
	query.Set("api_key", c.cfg.APIKey)
	query.Set("start", fmt.Sprintf("%v,%v", start.Long, start.Lat))
	query.Set("end", fmt.Sprintf("%v,%v", end.Long, end.Lat))

	endpoint := fmt.Sprintf("%s/v2/directions/%s?%s", c.cfg.BaseURL, c.cfg.Profile, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build route request")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.WrapCode(err, errors.CodeStoreUnavailable, "routing service unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.WithCodef(errors.CodeStoreUnavailable, "routing service returned %d", resp.StatusCode)
	}

	var body orsResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, errors.WrapCode(err, errors.CodeStoreUnavailable, "decode route response")
	}
	if len(body.Features) == 0 {
		return nil, errors.WithCode(errors.CodeNotFound, "no route found")
	}

	var points []geo.Point
	for _, pair := range body.Features[0].Geometry.Coordinates {
		if len(pair) < 2 {
			continue
		}
		points = append(points, geo.Point{Lat: pair[1], Long: pair[0]})
	}
	return points, nil
}
