package domain

import (
	"fmt"
	"time"
)

// AdjustmentStatus is the lifecycle state of a schedule adjustment.
type AdjustmentStatus string

const (
	AdjustmentProposed  AdjustmentStatus = "PROPOSED"
	AdjustmentApproved  AdjustmentStatus = "APPROVED"
	AdjustmentActive    AdjustmentStatus = "ACTIVE"
	AdjustmentCompleted AdjustmentStatus = "COMPLETED"
)

// nextAdjustmentStatus maps each status to the only status it may move to.
var nextAdjustmentStatus = map[AdjustmentStatus]AdjustmentStatus{
	AdjustmentProposed: AdjustmentApproved,
	AdjustmentApproved: AdjustmentActive,
	AdjustmentActive:   AdjustmentCompleted,
}

// TimeWindow is a working period on a given day.
type TimeWindow struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Duration returns the window length.
func (w TimeWindow) Duration() time.Duration { return w.End.Sub(w.Start) }

// Shift moves the whole window by d, keeping its duration.
func (w TimeWindow) Shift(d time.Duration) TimeWindow {
	return TimeWindow{Start: w.Start.Add(d), End: w.End.Add(d)}
}

// ScheduleAdjustment proposes moving the working window for a day.
type ScheduleAdjustment struct {
	ID                string           `json:"id"`
	Date              time.Time        `json:"date"`
	Original          TimeWindow       `json:"original"`
	Adjusted          TimeWindow       `json:"adjusted"`
	Reason            string           `json:"reason"`
	AffectedEmployees []string         `json:"affectedEmployees"`
	Status            AdjustmentStatus `json:"status"`
}

// Transition returns a copy moved to the requested status. Only the next
// status in PROPOSED -> APPROVED -> ACTIVE -> COMPLETED is accepted.
func (a ScheduleAdjustment) Transition(to AdjustmentStatus) (ScheduleAdjustment, error) {
	if next, ok := nextAdjustmentStatus[a.Status]; !ok || next != to {
		return a, fmt.Errorf("schedule adjustment %s -> %s: %w", a.Status, to, ErrInvalidTransition)
	}
	a.Status = to
	return a, nil
}

// SafetyEquipmentRequirement lists the PPE mandated under a hazard condition.
// Empty lists mean no equipment is configured for the condition, not that
// the condition is unknown.
type SafetyEquipmentRequirement struct {
	Condition    Condition `json:"condition"`
	Required     []string  `json:"required"`
	Optional     []string  `json:"optional"`
	Instructions string    `json:"instructions"`
}

// TrainingRequirement is a training obligation triggered by an elevated hazard.
type TrainingRequirement struct {
	Hazard          Hazard    `json:"hazard"`
	Training        string    `json:"training"`
	ValidityMonths  int       `json:"validityMonths"`
	RefresherMonths int       `json:"refresherMonths"`
	Priority        RiskLevel `json:"priority"`
}

// AlertType categorizes an alert by the workforce concern it addresses.
type AlertType string

const (
	AlertSchedule  AlertType = "SCHEDULE"
	AlertSafety    AlertType = "SAFETY"
	AlertEquipment AlertType = "EQUIPMENT"
	AlertTraining  AlertType = "TRAINING"
)

// AlertLevel is the urgency of an alert.
type AlertLevel string

const (
	AlertInfo     AlertLevel = "INFO"
	AlertWarning  AlertLevel = "WARNING"
	AlertCritical AlertLevel = "CRITICAL"
)

// Alert is a notification derived from the composite risk view.
type Alert struct {
	Type          AlertType  `json:"type"`
	Level         AlertLevel `json:"level"`
	Hazard        Hazard     `json:"hazard"`
	Message       string     `json:"message"`
	AffectedRoles []string   `json:"affectedRoles"`
}
