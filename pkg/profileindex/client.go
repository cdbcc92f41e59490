// Package profileindex is a client for the listing-profile search index. It
// exposes the one templated search operation the index owns; ranking and
// template contents belong to the index, not to this client.
package profileindex

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"

	"github.com/kphang-wb/listing-match/internal/resilience"
)

const (
	defaultIndex      = "search_profiles"
	defaultTemplateID = "web_search"
)

// Client runs templated searches against the profile index.
type Client interface {
	// SearchTemplate executes the named search template with the given
	// parameters and returns the ranked hits. Transport failures and
	// retryable statuses are tagged transient for the caller's retry
	// policy.
	SearchTemplate(ctx context.Context, params Params) ([]Hit, error)
}

// Params carries the template parameters. Geo fields are mutually
// exclusive; the zero value is a name-only query. Coordinates are ordered
// (longitude, latitude) throughout.
type Params struct {
	Keywords    string      `json:"keywords"`
	Center      [][]float64 `json:"center,omitempty"`
	LowerBounds []float64   `json:"lowerbounds,omitempty"`
	UpperBounds []float64   `json:"upperbounds,omitempty"`
	Polygon     [][]float64 `json:"polygon,omitempty"`
}

// Hit is one ranked result from the index.
type Hit struct {
	ID     string  `json:"_id"`
	Score  float64 `json:"_score"`
	Source Profile `json:"_source"`
}

// Profile is the indexed source document. The index omits alsoKnownAs
// inconsistently, so it may arrive nil.
type Profile struct {
	Name        string   `json:"name"`
	AlsoKnownAs []string `json:"alsoKnownAs"`
	Locality    string   `json:"locality"`
	PostalCode  string   `json:"postalCode"`
	Tags        Tags     `json:"tags"`
}

// Tags holds the optional profile attributes.
type Tags struct {
	Denomination string `json:"denomination,omitempty"`
	Faith        string `json:"faith,omitempty"`
	Age          string `json:"age,omitempty"`
	Category     string `json:"category,omitempty"`
	Culture      string `json:"culture,omitempty"`
	Faithstream  string `json:"faithstream,omitempty"`
	Language     string `json:"language,omitempty"`
}

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the index endpoint.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient overrides the default http.Client. Configure a generous
// timeout here; retries compound latency on a slow network.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithAPIKey sets the Authorization header value.
func WithAPIKey(key string) Option {
	return func(c *httpClient) {
		c.apiKey = key
	}
}

// WithIndex overrides the index name searched.
func WithIndex(index string) Option {
	return func(c *httpClient) {
		c.index = index
	}
}

// WithTemplateID overrides the stored search template id.
func WithTemplateID(id string) Option {
	return func(c *httpClient) {
		c.templateID = id
	}
}

type httpClient struct {
	baseURL    string
	apiKey     string
	index      string
	templateID string
	http       *http.Client
}

// NewClient creates a profile-index client for the given endpoint.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL:    baseURL,
		index:      defaultIndex,
		templateID: defaultTemplateID,
		http:       &http.Client{Timeout: 30 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

type searchTemplateRequest struct {
	ID     string `json:"id"`
	Params Params `json:"params"`
}

type searchTemplateResponse struct {
	Hits struct {
		Hits []Hit `json:"hits"`
	} `json:"hits"`
}

func (c *httpClient) SearchTemplate(ctx context.Context, params Params) ([]Hit, error) {
	body, err := json.Marshal(searchTemplateRequest{ID: c.templateID, Params: params})
	if err != nil {
		return nil, eris.Wrap(err, "profileindex: marshal request")
	}

	reqURL := c.baseURL + "/" + c.index + "/_search/template"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, reqURL, bytes.NewReader(body))
	if err != nil {
		return nil, eris.Wrap(err, "profileindex: build request")
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "ApiKey "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		// Transport failures are what the resolver's retry loop exists for.
		return nil, resilience.NewTransientError(eris.Wrap(err, "profileindex: send request"), 0)
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resilience.NewTransientError(eris.Wrap(err, "profileindex: read response"), resp.StatusCode)
	}

	if resp.StatusCode != http.StatusOK {
		err := eris.Errorf("profileindex: unexpected status %d: %s", resp.StatusCode, string(respBody))
		if resilience.IsTransientHTTPStatus(resp.StatusCode) {
			return nil, resilience.NewTransientError(err, resp.StatusCode)
		}
		return nil, err
	}

	var result searchTemplateResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "profileindex: unmarshal response")
	}

	return result.Hits.Hits, nil
}
