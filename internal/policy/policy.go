// Package policy holds the threshold and workforce policy the risk engine
// evaluates against. A Policy is loaded once, validated, and then treated as
// read-only; callers receive it by pointer and must not mutate it.
package policy

import (
	"fmt"
	"strings"
	"time"
	_ "time/tzdata" // schedule time zones resolve without system zoneinfo

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
)

// TemperatureThresholds are the heat-stress cut points in °C.
type TemperatureThresholds struct {
	ReducedActivity float64 `yaml:"reduced_activity" json:"reducedActivity"`
	MaxWork         float64 `yaml:"max_work" json:"maxWork"`
}

// PrecipitationThresholds are the rainfall cut points in mm.
type PrecipitationThresholds struct {
	Heavy float64 `yaml:"heavy" json:"heavy"`
	Flood float64 `yaml:"flood" json:"flood"`
}

// WindThresholds are the wind speed cut points in km/h.
type WindThresholds struct {
	Caution float64 `yaml:"caution" json:"caution"`
	High    float64 `yaml:"high" json:"high"`
}

// Thresholds groups the cut points for every hazard.
type Thresholds struct {
	Temperature   TemperatureThresholds   `yaml:"temperature" json:"temperature"`
	Precipitation PrecipitationThresholds `yaml:"precipitation" json:"precipitation"`
	Wind          WindThresholds          `yaml:"wind" json:"wind"`
}

// Cutpoints returns the MEDIUM and HIGH cut points for a hazard.
func (t Thresholds) Cutpoints(h domain.Hazard) (medium, high float64) {
	switch h {
	case domain.HazardTemperature:
		return t.Temperature.ReducedActivity, t.Temperature.MaxWork
	case domain.HazardPrecipitation:
		return t.Precipitation.Heavy, t.Precipitation.Flood
	default:
		return t.Wind.Caution, t.Wind.High
	}
}

// BreakRule mandates rest periods while a condition is active.
type BreakRule struct {
	EveryMinutes int `yaml:"every_minutes" json:"everyMinutes" validate:"gt=0"`
	BreakMinutes int `yaml:"break_minutes" json:"breakMinutes" validate:"gt=0"`
}

// Equipment is one PPE table entry.
type Equipment struct {
	Required     []string   `yaml:"required" json:"required" validate:"dive,required"`
	Optional     []string   `yaml:"optional" json:"optional" validate:"dive,required"`
	Instructions string     `yaml:"instructions" json:"instructions"`
	Breaks       *BreakRule `yaml:"breaks,omitempty" json:"breaks,omitempty"`
}

// Describe renders the instructions including any break rule.
func (e Equipment) Describe() string {
	parts := make([]string, 0, 2)
	if e.Instructions != "" {
		parts = append(parts, e.Instructions)
	}
	if e.Breaks != nil {
		parts = append(parts, fmt.Sprintf("Take a %d-minute break every %d minutes.", e.Breaks.BreakMinutes, e.Breaks.EveryMinutes))
	}
	return strings.Join(parts, " ")
}

// Training is one training table entry.
type Training struct {
	Label           string `yaml:"label" json:"label" validate:"required"`
	ValidityMonths  int    `yaml:"validity_months" json:"validityMonths" validate:"gt=0"`
	RefresherMonths int    `yaml:"refresher_months" json:"refresherMonths" validate:"gt=0,ltefield=ValidityMonths"`
}

// Schedule describes the standard workday and how far it moves under heat.
// WorkdayStart and WorkdayEnd are wall-clock times in TimeZone, an IANA name
// such as "Europe/Madrid". An empty TimeZone means UTC.
type Schedule struct {
	WorkdayStart         string        `yaml:"workday_start" json:"workdayStart" validate:"required,datetime=15:04"`
	WorkdayEnd           string        `yaml:"workday_end" json:"workdayEnd" validate:"required,datetime=15:04"`
	TimeZone             string        `yaml:"time_zone,omitempty" json:"timeZone,omitempty"`
	MaxWorkShift         time.Duration `yaml:"max_work_shift" json:"maxWorkShift" validate:"gt=0"`
	ReducedActivityShift time.Duration `yaml:"reduced_activity_shift" json:"reducedActivityShift" validate:"gt=0,ltefield=MaxWorkShift"`
}

// Window returns the standard workday on the local calendar day of date in
// the schedule's time zone.
func (s Schedule) Window(date time.Time) (domain.TimeWindow, error) {
	loc, err := time.LoadLocation(s.TimeZone)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("load schedule time zone: %w", err)
	}
	start, err := time.Parse("15:04", s.WorkdayStart)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("parse workday start: %w", err)
	}
	end, err := time.Parse("15:04", s.WorkdayEnd)
	if err != nil {
		return domain.TimeWindow{}, fmt.Errorf("parse workday end: %w", err)
	}
	y, m, d := date.In(loc).Date()
	return domain.TimeWindow{
		Start: time.Date(y, m, d, start.Hour(), start.Minute(), 0, 0, loc),
		End:   time.Date(y, m, d, end.Hour(), end.Minute(), 0, 0, loc),
	}, nil
}

// Policy is the complete, validated configuration of the risk engine.
type Policy struct {
	Thresholds        Thresholds                     `yaml:"thresholds" json:"thresholds"`
	MinEquipmentLevel domain.RiskLevel               `yaml:"min_equipment_level" json:"minEquipmentLevel" validate:"min=0,max=2"`
	Equipment         map[domain.Condition]Equipment `yaml:"equipment" json:"equipment" validate:"dive,keys,oneof=high_temperature heavy_precipitation high_wind,endkeys"`
	Training          map[domain.Condition]Training  `yaml:"training" json:"training" validate:"dive,keys,oneof=high_temperature heavy_precipitation high_wind,endkeys"`
	Schedule          Schedule                       `yaml:"schedule" json:"schedule"`
}

// EquipmentFor looks up the PPE entry for a condition. A missing entry yields
// the zero Equipment, never an error.
func (p *Policy) EquipmentFor(c domain.Condition) Equipment {
	return p.Equipment[c]
}

// TrainingFor looks up the training entry for a condition.
func (p *Policy) TrainingFor(c domain.Condition) (Training, bool) {
	t, ok := p.Training[c]
	return t, ok
}

// Default returns the built-in policy used when no policy file is configured.
func Default() *Policy {
	return &Policy{
		Thresholds: Thresholds{
			Temperature:   TemperatureThresholds{ReducedActivity: 30, MaxWork: 35},
			Precipitation: PrecipitationThresholds{Heavy: 10, Flood: 50},
			Wind:          WindThresholds{Caution: 30, High: 50},
		},
		MinEquipmentLevel: domain.RiskMedium,
		Equipment: map[domain.Condition]Equipment{
			domain.ConditionHighTemperature: {
				Required:     []string{"water", "sun hat", "sunscreen", "breathable light-colored clothing"},
				Optional:     []string{"cooling towel", "electrolyte supplements"},
				Instructions: "Drink water every 15 minutes and rest in shade during breaks.",
				Breaks:       &BreakRule{EveryMinutes: 45, BreakMinutes: 15},
			},
			domain.ConditionHeavyPrecipitation: {
				Required:     []string{"waterproof jacket", "rubber boots", "non-slip gloves"},
				Optional:     []string{"high-visibility vest"},
				Instructions: "Avoid low-lying fields and stop machinery on saturated ground.",
			},
			domain.ConditionHighWind: {
				Required:     []string{"safety goggles", "hard hat"},
				Optional:     []string{"dust mask"},
				Instructions: "Secure loose materials and stay clear of trees and elevated structures.",
			},
		},
		Training: map[domain.Condition]Training{
			domain.ConditionHighTemperature:    {Label: "Heat stress prevention", ValidityMonths: 12, RefresherMonths: 12},
			domain.ConditionHeavyPrecipitation: {Label: "Wet-weather field safety", ValidityMonths: 24, RefresherMonths: 12},
			domain.ConditionHighWind:           {Label: "High wind hazard awareness", ValidityMonths: 24, RefresherMonths: 12},
		},
		Schedule: Schedule{
			WorkdayStart:         "07:00",
			WorkdayEnd:           "16:00",
			MaxWorkShift:         3 * time.Hour,
			ReducedActivityShift: time.Hour,
		},
	}
}
