// Package nominatim is a minimal client for a Nominatim-style geocoding
// endpoint. Only forward search is exposed; results carry the raw bounding
// box exactly as the service reports it.
package nominatim

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://nominatim.openstreetmap.org"

// Client performs geocoding lookups.
type Client interface {
	// Search geocodes a free-text query restricted to countryCode. A lookup
	// that finds nothing returns (nil, nil).
	Search(ctx context.Context, query, countryCode string) (*Place, error)

	// SearchStructured geocodes a structured address restricted to
	// countryCode. Structured queries have less chance of being
	// misinterpreted than free text. A miss returns (nil, nil).
	SearchStructured(ctx context.Context, addr Address, countryCode string) (*Place, error)
}

// Address is a structured geocoding query. Empty fields are omitted.
type Address struct {
	Street     string
	City       string
	County     string
	State      string
	Country    string
	PostalCode string
}

// Place is a single geocoding result.
type Place struct {
	DisplayName string
	Latitude    float64
	Longitude   float64

	// BoundingBox holds the service's raw ordering: south, north, west,
	// east. Callers are responsible for any reordering.
	BoundingBox [4]float64
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default endpoint.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithUserAgent sets the User-Agent header. Nominatim's usage policy
// requires a non-default identifying agent.
func WithUserAgent(ua string) Option {
	return func(c *httpClient) {
		c.userAgent = ua
	}
}

// WithRateLimit caps outgoing requests at rps requests per second. The
// public OSM instance allows at most one request per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL   string
	userAgent string
	http      *http.Client
	limiter   *rate.Limiter
}

// NewClient creates a geocoding client.
func NewClient(opts ...Option) Client {
	c := &httpClient{
		baseURL:   defaultBaseURL,
		userAgent: "listing-match",
		http:      &http.Client{Timeout: 30 * time.Second},
		limiter:   rate.NewLimiter(1, 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// rawPlace mirrors the jsonv2 response shape; coordinates arrive as strings.
type rawPlace struct {
	DisplayName string   `json:"display_name"`
	Lat         string   `json:"lat"`
	Lon         string   `json:"lon"`
	BoundingBox []string `json:"boundingbox"`
}

func (c *httpClient) Search(ctx context.Context, query, countryCode string) (*Place, error) {
	params := url.Values{"q": {query}}
	return c.search(ctx, params, countryCode)
}

func (c *httpClient) SearchStructured(ctx context.Context, addr Address, countryCode string) (*Place, error) {
	params := url.Values{}
	setIfPresent := func(key, val string) {
		if val != "" {
			params.Set(key, val)
		}
	}
	setIfPresent("street", addr.Street)
	setIfPresent("city", addr.City)
	setIfPresent("county", addr.County)
	setIfPresent("state", addr.State)
	setIfPresent("country", addr.Country)
	setIfPresent("postalcode", addr.PostalCode)
	if len(params) == 0 {
		return nil, eris.New("nominatim: empty structured query")
	}
	return c.search(ctx, params, countryCode)
}

func (c *httpClient) search(ctx context.Context, params url.Values, countryCode string) (*Place, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "nominatim: rate limit")
	}

	params.Set("format", "jsonv2")
	params.Set("limit", "1")
	if countryCode != "" {
		params.Set("countrycodes", countryCode)
	}

	reqURL := c.baseURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: build request")
	}
	req.Header.Set("User-Agent", c.userAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "nominatim: read response")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("nominatim: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var places []rawPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "nominatim: unmarshal response")
	}
	if len(places) == 0 {
		return nil, nil
	}

	return parsePlace(places[0])
}

func parsePlace(rp rawPlace) (*Place, error) {
	if len(rp.BoundingBox) != 4 {
		return nil, eris.Errorf("nominatim: bounding box has %d values, want 4", len(rp.BoundingBox))
	}

	p := &Place{DisplayName: rp.DisplayName}

	var err error
	if p.Latitude, err = strconv.ParseFloat(rp.Lat, 64); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse lat")
	}
	if p.Longitude, err = strconv.ParseFloat(rp.Lon, 64); err != nil {
		return nil, eris.Wrap(err, "nominatim: parse lon")
	}
	for i, s := range rp.BoundingBox {
		if p.BoundingBox[i], err = strconv.ParseFloat(s, 64); err != nil {
			return nil, eris.Wrapf(err, "nominatim: parse boundingbox[%d]", i)
		}
	}

	return p, nil
}
