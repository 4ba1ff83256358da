package domain

import "time"

// Source identifies which upstream produced a set of conditions.
type Source string

const (
	SourcePrimary  Source = "primary"
	SourceFallback Source = "fallback"
	SourceManual   Source = "manual"
)

// Reading is a canonical weather observation or forecast point.
type Reading struct {
	Timestamp     time.Time  `json:"timestamp"`
	Temperature   float64    `json:"temperature"`   // °C
	Humidity      float64    `json:"humidity"`      // %
	Precipitation float64    `json:"precipitation"` // mm
	WindSpeed     float64    `json:"windSpeed"`     // km/h
	Conditions    string     `json:"conditions"`
	UVIndex       float64    `json:"uvIndex"`
	CloudCover    float64    `json:"cloudCover"` // %
	CachedAt      *time.Time `json:"cachedAt,omitempty"`
}

// Conditions bundles the current reading for a location with its short-horizon
// forecast. Forecast may be empty.
type Conditions struct {
	Location string    `json:"location"`
	Current  Reading   `json:"current"`
	Forecast []Reading `json:"forecast"`
	Source   Source    `json:"source"`
}

// ForecastValues extracts one hazard's raw values from the forecast.
func (c Conditions) ForecastValues(h Hazard) []float64 {
	if len(c.Forecast) == 0 {
		return nil
	}
	out := make([]float64, len(c.Forecast))
	for i := range c.Forecast {
		out[i] = c.Forecast[i].Value(h)
	}
	return out
}

// Value returns the raw measurement the given hazard is classified on.
func (r Reading) Value(h Hazard) float64 {
	switch h {
	case HazardTemperature:
		return r.Temperature
	case HazardPrecipitation:
		return r.Precipitation
	case HazardWind:
		return r.WindSpeed
	default:
		return 0
	}
}
