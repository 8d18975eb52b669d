package services

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReverseCity(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		assert.Equal(t, "jsonv2", r.URL.Query().Get("format"))
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		w.Write([]byte(`{"address":{"town":"Lonavala","county":"Pune District"}}`))
	}))
	defer server.Close()

	g, err := NewNominatimGeocoder()
	require.NoError(t, err)
	g.BaseURL = server.URL

	ctx := context.Background()
	city, err := g.ReverseCity(ctx, 18.7546, 73.4062)
	require.NoError(t, err)
	assert.Equal(t, "Lonavala", city)

	// same two-decimal cell is served from the cache
	city, err = g.ReverseCity(ctx, 18.7512, 73.4071)
	require.NoError(t, err)
	assert.Equal(t, "Lonavala", city)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))
}

func TestReverseCityWithoutCityName(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"address":{"country":"India"}}`))
	}))
	defer server.Close()

	g, err := NewNominatimGeocoder()
	require.NoError(t, err)
	g.BaseURL = server.URL

	city, err := g.ReverseCity(context.Background(), 20, 78)
	require.NoError(t, err)
	assert.Equal(t, "", city)
}

func TestReverseCityUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	g, err := NewNominatimGeocoder()
	require.NoError(t, err)
	g.BaseURL = server.URL

	_, err = g.ReverseCity(context.Background(), 20, 78)
	assert.Error(t, err)
}
