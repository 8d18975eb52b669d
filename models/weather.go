package models

const (
	WeatherCold        = "Cold"
	WeatherPleasant    = "Pleasant"
	WeatherHot         = "Hot"
	WeatherUnavailable = "Weather unavailable"
)

// WeatherContext is a point-in-time reading for a city. A nil TempC or Description
// means the value is unknown, not zero.
type WeatherContext struct {
	City        string  `json:"city"`
	TempC       *int    `json:"temp_c"`
	Description *string `json:"description"`
	Condition   string  `json:"condition"`
}

// WeatherCondition buckets a raw temperature reading.
func WeatherCondition(tempC float64) string {
	switch {
	case tempC < 15:
		return WeatherCold
	case tempC > 30:
		return WeatherHot
	default:
		return WeatherPleasant
	}
}

func UnavailableWeather(city string) WeatherContext {
	return WeatherContext{City: city, Condition: WeatherUnavailable}
}
