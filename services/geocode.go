package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
)

const (
	nominatimURL       = "https://nominatim.openstreetmap.org/reverse"
	geocodeCacheTTL    = 24 * time.Hour
	geocodeUserAgent   = "WardrobeAPI/1.0 (reverse geocoding)"
	geocodeHTTPTimeout = 3 * time.Second
)

type GeocoderProvider interface {
	ReverseCity(ctx context.Context, lat, lon float64) (string, error)
}

// NominatimGeocoder resolves coordinates to the nearest city name.
type NominatimGeocoder struct {
	BaseURL    string
	HTTPClient *http.Client

	cache  *cache.Cache[string]
	client *ristretto.Cache
}

func NewNominatimGeocoder() (*NominatimGeocoder, error) {
	ristrettoStore, client, err := newRistrettoStore(1e4, 1<<20)
	if err != nil {
		return nil, err
	}
	return &NominatimGeocoder{
		BaseURL:    nominatimURL,
		HTTPClient: &http.Client{Timeout: geocodeHTTPTimeout},
		cache:      cache.New[string](ristrettoStore),
		client:     client,
	}, nil
}

// coordinates are cached at two decimals, roughly a kilometre
func geocodeKey(lat, lon float64) string {
	return fmt.Sprintf("geocode:%.2f:%.2f", lat, lon)
}

// ReverseCity returns "" with a nil error when the place has no city-like name.
func (g *NominatimGeocoder) ReverseCity(ctx context.Context, lat, lon float64) (string, error) {
	key := geocodeKey(lat, lon)
	if city, err := g.cache.Get(ctx, key); err == nil && city != "" {
		return city, nil
	}

	params := url.Values{}
	params.Set("format", "jsonv2")
	params.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	params.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", geocodeUserAgent)

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("reverse geocoding failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("reverse geocoding status %d", resp.StatusCode)
	}

	var payload struct {
		Address map[string]string `json:"address"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return "", fmt.Errorf("decoding geocode payload: %w", err)
	}

	var city string
	for _, field := range []string{"city", "town", "village", "county"} {
		if v := payload.Address[field]; v != "" {
			city = v
			break
		}
	}
	if city != "" {
		if err := g.cache.Set(ctx, key, city, store.WithExpiration(geocodeCacheTTL)); err != nil {
			log.Printf("[Geocode] could not cache %s: %v", key, err)
		}
		g.client.Wait()
	}
	return city, nil
}
