package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"wardrobeapi/models"

	"github.com/dgraph-io/ristretto"
	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
)

const (
	openWeatherURL        = "http://api.openweathermap.org/data/2.5/weather"
	weatherCacheTTL       = 10 * time.Minute
	weatherFailureTTL     = 5 * time.Minute
	weatherRequestTimeout = 2 * time.Second
)

type WeatherProvider interface {
	Context(ctx context.Context, city string) models.WeatherContext
	Speech(ctx context.Context, city string) string
}

// OpenWeatherService reads current conditions from OpenWeather. Readings are
// cached per city, failures for a shorter time.
type OpenWeatherService struct {
	APIKey      string
	BaseURL     string
	DefaultCity string
	HTTPClient  *http.Client

	cache  *cache.Cache[models.WeatherContext]
	client *ristretto.Cache
}

type openWeatherResponse struct {
	Main struct {
		Temp *float64 `json:"temp"`
	} `json:"main"`
	Weather []struct {
		Main        string `json:"main"`
		Description string `json:"description"`
	} `json:"weather"`
}

func NewOpenWeatherService(apiKey, defaultCity string) (*OpenWeatherService, error) {
	ristrettoStore, client, err := newRistrettoStore(1e4, 1<<20)
	if err != nil {
		return nil, err
	}
	if defaultCity == "" {
		defaultCity = "Delhi"
	}
	return &OpenWeatherService{
		APIKey:      apiKey,
		BaseURL:     openWeatherURL,
		DefaultCity: defaultCity,
		HTTPClient:  &http.Client{Timeout: weatherRequestTimeout},
		cache:       cache.New[models.WeatherContext](ristrettoStore),
		client:      client,
	}, nil
}

func (s *OpenWeatherService) resolveCity(city string) string {
	if c := strings.TrimSpace(city); c != "" {
		return c
	}
	return s.DefaultCity
}

func (s *OpenWeatherService) remember(ctx context.Context, key string, w models.WeatherContext, ttl time.Duration) models.WeatherContext {
	if err := s.cache.Set(ctx, key, w, store.WithExpiration(ttl)); err != nil {
		log.Printf("[Weather] could not cache %s: %v", key, err)
	}
	s.client.Wait()
	return w
}

// Context never fails, an unreachable API yields the unavailable reading.
func (s *OpenWeatherService) Context(ctx context.Context, city string) models.WeatherContext {
	resolved := s.resolveCity(city)
	key := strings.ToLower("weather:" + resolved)

	if cached, err := s.cache.Get(ctx, key); err == nil {
		// a key may have been configured since the unavailable reading was stored
		if cached.TempC != nil || s.APIKey == "" {
			return cached
		}
		_ = s.cache.Delete(ctx, key)
	}

	if s.APIKey == "" {
		return s.remember(ctx, key, models.UnavailableWeather(resolved), weatherCacheTTL)
	}

	reading, err := s.fetch(ctx, resolved)
	if err != nil {
		log.Printf("[Weather] lookup for %s failed: %v", resolved, err)
		return s.remember(ctx, key, models.UnavailableWeather(resolved), weatherFailureTTL)
	}
	return s.remember(ctx, key, reading, weatherCacheTTL)
}

func (s *OpenWeatherService) fetch(ctx context.Context, city string) (models.WeatherContext, error) {
	params := url.Values{}
	params.Set("q", city)
	params.Set("appid", s.APIKey)
	params.Set("units", "metric")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return models.WeatherContext{}, err
	}
	resp, err := s.HTTPClient.Do(req)
	if err != nil {
		return models.WeatherContext{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return models.WeatherContext{}, fmt.Errorf("weather api status %d", resp.StatusCode)
	}

	var payload openWeatherResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return models.WeatherContext{}, fmt.Errorf("decoding weather payload: %w", err)
	}
	if payload.Main.Temp == nil || len(payload.Weather) == 0 {
		return models.WeatherContext{}, fmt.Errorf("weather payload misses temperature or description")
	}

	temp := *payload.Main.Temp
	tempC := int(temp)
	description := payload.Weather[0].Description
	return models.WeatherContext{
		City:        city,
		TempC:       &tempC,
		Description: &description,
		Condition:   models.WeatherCondition(temp),
	}, nil
}

// Speech turns the current reading into the phrase the stylist greets with.
func (s *OpenWeatherService) Speech(ctx context.Context, city string) string {
	if s.APIKey == "" {
		return "you look great!"
	}
	w := s.Context(ctx, city)
	return WeatherSpeech(w)
}

func WeatherSpeech(w models.WeatherContext) string {
	if w.TempC == nil || w.Description == nil {
		return "the weather is a mystery today, so dress comfortably."
	}
	var condition string
	switch w.Condition {
	case models.WeatherCold:
		condition = "it is quite cold outside"
	case models.WeatherHot:
		condition = "it is boiling hot outside"
	default:
		condition = "it is pleasant outside"
	}
	return fmt.Sprintf("%s at %d degrees with %s.", condition, *w.TempC, *w.Description)
}
