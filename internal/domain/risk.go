package domain

import "fmt"

// Hazard is one weather dimension evaluated for risk.
type Hazard int

const (
	HazardTemperature Hazard = iota
	HazardPrecipitation
	HazardWind
)

// Hazards lists every hazard in evaluation order.
func Hazards() []Hazard {
	return []Hazard{HazardTemperature, HazardPrecipitation, HazardWind}
}

func (h Hazard) String() string {
	switch h {
	case HazardTemperature:
		return "temperature"
	case HazardPrecipitation:
		return "precipitation"
	case HazardWind:
		return "wind"
	default:
		return fmt.Sprintf("hazard(%d)", int(h))
	}
}

// MarshalText encodes the hazard by name.
func (h Hazard) MarshalText() ([]byte, error) {
	return []byte(h.String()), nil
}

// UnmarshalText decodes a hazard name.
func (h *Hazard) UnmarshalText(b []byte) error {
	for _, candidate := range Hazards() {
		if candidate.String() == string(b) {
			*h = candidate
			return nil
		}
	}
	return fmt.Errorf("unknown hazard %q", b)
}

// Condition is the PPE/training table key for a hazard.
type Condition string

const (
	ConditionHighTemperature    Condition = "high_temperature"
	ConditionHeavyPrecipitation Condition = "heavy_precipitation"
	ConditionHighWind           Condition = "high_wind"
)

// Condition returns the table key for the hazard.
func (h Hazard) Condition() Condition {
	switch h {
	case HazardTemperature:
		return ConditionHighTemperature
	case HazardPrecipitation:
		return ConditionHeavyPrecipitation
	default:
		return ConditionHighWind
	}
}

// ConditionKeys lists every valid table key.
func ConditionKeys() []Condition {
	return []Condition{ConditionHighTemperature, ConditionHeavyPrecipitation, ConditionHighWind}
}

// RiskLevel is an ordinal classification. Higher values are more severe.
type RiskLevel int

const (
	RiskLow RiskLevel = iota
	RiskMedium
	RiskHigh
)

func (l RiskLevel) String() string {
	switch l {
	case RiskLow:
		return "LOW"
	case RiskMedium:
		return "MEDIUM"
	case RiskHigh:
		return "HIGH"
	default:
		return fmt.Sprintf("RiskLevel(%d)", int(l))
	}
}

// MarshalText encodes the level as LOW, MEDIUM, or HIGH.
func (l RiskLevel) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText accepts LOW, MEDIUM, or HIGH.
func (l *RiskLevel) UnmarshalText(b []byte) error {
	lvl, err := ParseRiskLevel(string(b))
	if err != nil {
		return err
	}
	*l = lvl
	return nil
}

// ParseRiskLevel parses LOW, MEDIUM, or HIGH.
func ParseRiskLevel(s string) (RiskLevel, error) {
	switch s {
	case "LOW":
		return RiskLow, nil
	case "MEDIUM":
		return RiskMedium, nil
	case "HIGH":
		return RiskHigh, nil
	default:
		return RiskLow, fmt.Errorf("unknown risk level %q", s)
	}
}

// Risk is the classification of a single hazard.
type Risk struct {
	Hazard  Hazard    `json:"hazard"`
	Level   RiskLevel `json:"level"`
	Message string    `json:"message"`
}

// CompositeRiskView holds every hazard's risk plus the overall level.
type CompositeRiskView struct {
	Risks []Risk    `json:"risks"`
	Level RiskLevel `json:"level"`
}

// NewCompositeRiskView derives the overall level from the given risks.
func NewCompositeRiskView(risks []Risk) CompositeRiskView {
	return CompositeRiskView{Risks: risks, Level: MaxLevel(risks)}
}

// Risk returns the entry for a hazard, or a LOW risk when absent.
func (v CompositeRiskView) Risk(h Hazard) Risk {
	for _, r := range v.Risks {
		if r.Hazard == h {
			return r
		}
	}
	return Risk{Hazard: h, Level: RiskLow}
}

// Elevated returns the risks above LOW, preserving order.
func (v CompositeRiskView) Elevated() []Risk {
	out := make([]Risk, 0, len(v.Risks))
	for _, r := range v.Risks {
		if r.Level > RiskLow {
			out = append(out, r)
		}
	}
	return out
}

// MaxLevel returns the highest level among risks, LOW when empty.
func MaxLevel(risks []Risk) RiskLevel {
	level := RiskLow
	for _, r := range risks {
		if r.Level > level {
			level = r.Level
		}
	}
	return level
}
