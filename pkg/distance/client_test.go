package distance

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alecthomas/assert/v2"
)

func TestDistance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/shipping/distance", r.URL.Path)
		assert.Equal(t, "Jl. Sudirman No. 123, Jakarta Selatan", r.URL.Query().Get("destination"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"distance_km":12.4,"duration_text":"25 mins"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	res, err := c.Distance(context.Background(), "Jl. Sudirman No. 123, Jakarta Selatan")
	assert.NoError(t, err)
	assert.Equal(t, 12.4, res.Km)
	assert.Equal(t, "25 mins", res.Duration)
}

func TestDistance_NotFoundCarriesUpstreamMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"address not found"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.Distance(context.Background(), "Jl. Tidak Ada")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "address not found")
}

func TestDistance_NonJSONError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 2*time.Second)
	_, err := c.Distance(context.Background(), "Jl. Merdeka 1")
	assert.Error(t, err)
}
