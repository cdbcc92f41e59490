package profileindex

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kphang-wb/listing-match/internal/resilience"
)

func TestSearchTemplate_Success(t *testing.T) {
	var gotPath string
	var gotReq searchTemplateRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &gotReq)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"hits": {
				"hits": [
					{"_id": "wb-1", "_score": 84.2, "_source": {
						"name": "Pinegrove Fellowship Church",
						"alsoKnownAs": ["Pinegrove Fellowship"],
						"locality": "Port Carling",
						"postalCode": "P0B 1J0",
						"tags": {"denomination": "Baptist", "faith": "Christian"}
					}},
					{"_id": "wb-2", "_score": 12.1, "_source": {
						"name": "Pinegrove Community Centre",
						"locality": "Port Carling",
						"postalCode": "P0B 1J0"
					}}
				]
			}
		}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithIndex("search_profiles"), WithTemplateID("web_search"))
	hits, err := c.SearchTemplate(context.Background(), Params{
		Keywords: "Pinegrove Fellowship",
		Center:   [][]float64{{-79.58, 45.12}},
	})
	require.NoError(t, err)
	require.Len(t, hits, 2)

	assert.Equal(t, "/search_profiles/_search/template", gotPath)
	assert.Equal(t, "web_search", gotReq.ID)
	assert.Equal(t, "Pinegrove Fellowship", gotReq.Params.Keywords)
	require.Len(t, gotReq.Params.Center, 1)

	assert.Equal(t, "wb-1", hits[0].ID)
	assert.InDelta(t, 84.2, hits[0].Score, 1e-9)
	assert.Equal(t, "Pinegrove Fellowship Church", hits[0].Source.Name)
	assert.Equal(t, "Baptist", hits[0].Source.Tags.Denomination)
	assert.Nil(t, hits[1].Source.AlsoKnownAs, "index omits alsoKnownAs on some documents")
}

func TestSearchTemplate_EmptyHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"hits": {"hits": []}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	hits, err := c.SearchTemplate(context.Background(), Params{Keywords: "nothing"})
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestSearchTemplate_TransientStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SearchTemplate(context.Background(), Params{Keywords: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err), "503 should be tagged transient")
}

func TestSearchTemplate_PermanentStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "parse exception", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.SearchTemplate(context.Background(), Params{Keywords: "x"})
	require.Error(t, err)
	assert.False(t, resilience.IsTransient(err), "400 is not retryable")
}

func TestSearchTemplate_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL)
	_, err := c.SearchTemplate(context.Background(), Params{Keywords: "x"})
	require.Error(t, err)
	assert.True(t, resilience.IsTransient(err), "transport failure should be tagged transient")
}

func TestSearchTemplate_APIKeyHeader(t *testing.T) {
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"hits": {"hits": []}}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, WithAPIKey("secret"))
	_, err := c.SearchTemplate(context.Background(), Params{Keywords: "x"})
	require.NoError(t, err)
	assert.Equal(t, "ApiKey secret", gotAuth)
}
