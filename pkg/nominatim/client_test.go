package nominatim

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch_Success(t *testing.T) {
	var gotQuery, gotCountry, gotAgent string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("q")
		gotCountry = r.URL.Query().Get("countrycodes")
		gotAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{
			"display_name": "Port Carling, Muskoka Lakes, Ontario, Canada",
			"lat": "45.1240", "lon": "-79.5800",
			"boundingbox": ["45.1040", "45.1440", "-79.6000", "-79.5600"]
		}]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000), WithUserAgent("test-agent"))
	place, err := c.Search(context.Background(), "Port Carling, Ontario", "ca")
	require.NoError(t, err)
	require.NotNil(t, place)

	assert.Equal(t, "Port Carling, Ontario", gotQuery)
	assert.Equal(t, "ca", gotCountry)
	assert.Equal(t, "test-agent", gotAgent)
	assert.InDelta(t, 45.1240, place.Latitude, 1e-9)
	assert.InDelta(t, -79.5800, place.Longitude, 1e-9)
	// Raw ordering preserved: south, north, west, east.
	assert.InDelta(t, 45.1040, place.BoundingBox[0], 1e-9)
	assert.InDelta(t, 45.1440, place.BoundingBox[1], 1e-9)
	assert.InDelta(t, -79.6000, place.BoundingBox[2], 1e-9)
	assert.InDelta(t, -79.5600, place.BoundingBox[3], 1e-9)
}

func TestSearch_Miss(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	place, err := c.Search(context.Background(), "nowhere at all", "ca")
	require.NoError(t, err)
	assert.Nil(t, place)
}

func TestSearch_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.Search(context.Background(), "anything", "ca")
	assert.Error(t, err)
}

func TestSearchStructured(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		got = map[string]string{
			"city":       q.Get("city"),
			"state":      q.Get("state"),
			"postalcode": q.Get("postalcode"),
			"street":     q.Get("street"),
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{
			"display_name": "Toronto, Ontario, Canada",
			"lat": "43.6534", "lon": "-79.3839",
			"boundingbox": ["43.5810", "43.8555", "-79.6393", "-79.1152"]
		}]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	place, err := c.SearchStructured(context.Background(), Address{
		City:  "Toronto",
		State: "Ontario",
	}, "ca")
	require.NoError(t, err)
	require.NotNil(t, place)

	assert.Equal(t, "Toronto", got["city"])
	assert.Equal(t, "Ontario", got["state"])
	assert.Empty(t, got["postalcode"], "empty fields are omitted")
	assert.Empty(t, got["street"])
}

func TestSearchStructured_Empty(t *testing.T) {
	c := NewClient(WithRateLimit(1000))
	_, err := c.SearchStructured(context.Background(), Address{}, "ca")
	assert.Error(t, err)
}

func TestSearch_MalformedBoundingBox(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `[{"display_name": "x", "lat": "1", "lon": "2", "boundingbox": ["1", "2"]}]`)
	}))
	defer srv.Close()

	c := NewClient(WithBaseURL(srv.URL), WithRateLimit(1000))
	_, err := c.Search(context.Background(), "x", "ca")
	assert.Error(t, err)
}
