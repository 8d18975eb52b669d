package services

import "strings"

// StylistConfig gathers the tunables of the recommendation and scoring features.
type StylistConfig struct {
	TargetWears              int
	AdvancedStylistEnabled   bool
	Currency                 string
	DefaultWeatherCity       string
	OpenWeatherAPIKey        string
	DisableBackgroundRemoval bool
	BucketName               string
}

func LoadStylistConfig() StylistConfig {
	return StylistConfig{
		TargetWears:              GetEnvInt("GARMENT_TARGET_WEARS", 30),
		AdvancedStylistEnabled:   GetEnvBool("ADVANCED_STYLIST_ENABLED", false),
		Currency:                 strings.ToUpper(GetEnv("CURRENCY", "INR")),
		DefaultWeatherCity:       GetEnv("DEFAULT_WEATHER_CITY", "Delhi"),
		OpenWeatherAPIKey:        GetEnv("OPENWEATHER_API_KEY", ""),
		DisableBackgroundRemoval: GetEnvBool("DISABLE_REMBG", false),
		BucketName:               GetEnv("R2_BUCKET_NAME", "wardrobe"),
	}
}

