package domain

import "time"

// Freshness reports whether the current reading may be reused without a refetch.
type Freshness struct {
	Valid bool   `json:"valid"`
	Age   string `json:"age,omitempty"`
}

// Evaluation is the full output of one fetch-classify-derive-compose run.
type Evaluation struct {
	Location            string                       `json:"location"`
	EvaluatedAt         time.Time                    `json:"evaluatedAt"`
	Conditions          Conditions                   `json:"conditions"`
	Freshness           Freshness                    `json:"freshness"`
	Risk                CompositeRiskView            `json:"risk"`
	ScheduleAdjustments []ScheduleAdjustment         `json:"scheduleAdjustments"`
	Equipment           []SafetyEquipmentRequirement `json:"equipment"`
	Training            []TrainingRequirement        `json:"training"`
	Alerts              []Alert                      `json:"alerts"`
	Assessment          RiskAssessmentRecord         `json:"assessment"`
}
