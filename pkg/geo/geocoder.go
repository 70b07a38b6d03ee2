package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"Omnipresence/pkg/errors"
)

const defaultGeocoderURL = "https://api.opencagedata.com/geocode/v1/json"

// GeocoderConfig configures the forward-geocoding client.
type GeocoderConfig struct {
	APIKey  string `env:"OPEN_CAGE_API"`
	BaseURL string `env:"OPEN_CAGE_URL"`
	Timeout time.Duration
}

// Geocoder resolves free-form place names to coordinates through an
// OpenCage-compatible API.
type Geocoder struct {
	cfg    GeocoderConfig
	client *http.Client
}

func NewGeocoder(cfg GeocoderConfig) *Geocoder {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultGeocoderURL
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Geocoder{cfg: cfg, client: &http.Client{Timeout: timeout}}
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"geometry"`
	} `json:"results"`
}

// Resolve returns the coordinates of a place name. An unresolvable place is
// an InvalidLocation error, not an empty result.
func (g *Geocoder) Resolve(ctx context.Context, place string) (Point, error) {
	if place == "" {
		return Point{}, errors.WithCode(errors.CodeInvalidLocation, "empty place name")
	}

	q := url.Values{}
	q.Set("q", place)
	q.Set("key", g.cfg.APIKey)
	q.Set("limit", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+"?"+q.Encode(), nil)
	if err != nil {
		return Point{}, errors.Wrap(err, "build geocode request")
	}

	resp, err := g.client.Do(req)
	if err != nil {
		return Point{}, errors.WrapCode(err, errors.CodeStoreUnavailable, "geocoder unreachable")
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Point{}, errors.WithCodef(errors.CodeStoreUnavailable, "geocoder returned %d", resp.StatusCode)
	}

	var body geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return Point{}, errors.Wrap(err, "decode geocode response")
	}
	if len(body.Results) == 0 {
		return Point{}, errors.WithCode(errors.CodeInvalidLocation, fmt.Sprintf("location not found: %s", place))
	}

	return Point{Lat: body.Results[0].Geometry.Lat, Long: body.Results[0].Geometry.Lng}, nil
}
