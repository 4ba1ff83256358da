// Package risk turns weather conditions into workforce-safety decisions:
// per-hazard classification, policy derivation (schedule shifts, PPE,
// training, alerts), formal assessment records, and cache freshness.
//
// Every function here is pure over its inputs and total over any structurally
// valid Reading. The policy is passed in explicitly.
package risk

import (
	"fmt"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/policy"
)

// Classify maps one hazard's current value and forecast values to a Risk.
//
// Each hazard aggregates its forecast differently:
//   - temperature uses the peak of current and forecast values
//   - precipitation escalates if the current value or the forecast average
//     reaches a cut point, so a single spike in the forecast is smoothed out
//   - wind uses the current value only
//
// Every cut point is inclusive: a value equal to a threshold takes the higher
// level. This holds for precipitation too, so exactly 10 mm against a heavy
// cut point of 10 is MEDIUM.
//
// An empty forecast falls back to the current value alone. Out-of-range input
// (negative wind, humidity above 100) is classified as given.
func Classify(h domain.Hazard, current float64, forecast []float64, t policy.Thresholds) domain.Risk {
	medium, high := t.Cutpoints(h)

	switch h {
	case domain.HazardTemperature:
		peak := current
		for _, v := range forecast {
			if v > peak {
				peak = v
			}
		}
		level := levelFor(peak, medium, high)
		return domain.Risk{Hazard: h, Level: level, Message: temperatureMessage(level, peak)}

	case domain.HazardPrecipitation:
		level := levelFor(current, medium, high)
		avg, ok := mean(forecast)
		if ok {
			if fl := levelFor(avg, medium, high); fl > level {
				level = fl
			}
		}
		return domain.Risk{Hazard: h, Level: level, Message: precipitationMessage(level, current, avg, ok)}

	default:
		level := levelFor(current, medium, high)
		return domain.Risk{Hazard: h, Level: level, Message: windMessage(level, current)}
	}
}

// ClassifyConditions classifies every hazard and returns the composite view.
func ClassifyConditions(c domain.Conditions, t policy.Thresholds) domain.CompositeRiskView {
	risks := make([]domain.Risk, 0, len(domain.Hazards()))
	for _, h := range domain.Hazards() {
		risks = append(risks, Classify(h, c.Current.Value(h), c.ForecastValues(h), t))
	}
	return domain.NewCompositeRiskView(risks)
}

func levelFor(v, medium, high float64) domain.RiskLevel {
	switch {
	case v >= high:
		return domain.RiskHigh
	case v >= medium:
		return domain.RiskMedium
	default:
		return domain.RiskLow
	}
}

func mean(values []float64) (float64, bool) {
	if len(values) == 0 {
		return 0, false
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values)), true
}

func temperatureMessage(level domain.RiskLevel, peak float64) string {
	switch level {
	case domain.RiskHigh:
		return fmt.Sprintf("Extreme heat: peak %.1f°C exceeds the maximum working temperature", peak)
	case domain.RiskMedium:
		return fmt.Sprintf("High heat: peak %.1f°C requires reduced activity", peak)
	default:
		return fmt.Sprintf("Temperature %.1f°C within normal working range", peak)
	}
}

func precipitationMessage(level domain.RiskLevel, current, avg float64, hasForecast bool) string {
	detail := fmt.Sprintf("%.1fmm now", current)
	if hasForecast {
		detail = fmt.Sprintf("%.1fmm now, %.1fmm forecast average", current, avg)
	}
	switch level {
	case domain.RiskHigh:
		return "Flood risk: " + detail
	case domain.RiskMedium:
		return "Heavy rain: " + detail
	default:
		return "Precipitation normal: " + detail
	}
}

func windMessage(level domain.RiskLevel, speed float64) string {
	switch level {
	case domain.RiskHigh:
		return fmt.Sprintf("Dangerous wind: %.0f km/h", speed)
	case domain.RiskMedium:
		return fmt.Sprintf("Strong wind: %.0f km/h", speed)
	default:
		return fmt.Sprintf("Wind %.0f km/h within safe limits", speed)
	}
}
