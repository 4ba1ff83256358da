package risk

import (
	"fmt"
	"slices"
	"time"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/policy"
	"github.com/google/uuid"
)

const (
	ReasonExcessiveTemperature = "excessive temperature"
	ReasonElevatedTemperature  = "elevated temperature"
)

// adjustmentNamespace scopes the name-based schedule adjustment IDs, so the
// same location, day, and reason always yield the same ID.
var adjustmentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("weather-risk-engine/schedule-adjustment"))

// alertRule is the fixed alert emitted when a hazard reaches HIGH.
type alertRule struct {
	typ   domain.AlertType
	level domain.AlertLevel
	roles []string
}

var alertRules = map[domain.Hazard]alertRule{
	domain.HazardTemperature:   {typ: domain.AlertSchedule, level: domain.AlertCritical, roles: []string{"outdoor_workers", "field_supervisors"}},
	domain.HazardPrecipitation: {typ: domain.AlertSafety, level: domain.AlertWarning, roles: []string{"field_workers", "equipment_operators"}},
	domain.HazardWind:          {typ: domain.AlertSafety, level: domain.AlertCritical, roles: []string{"all_staff"}},
}

// Derivation is every workforce action derived from one classification.
type Derivation struct {
	Risk                domain.CompositeRiskView
	ScheduleAdjustments []domain.ScheduleAdjustment
	Equipment           []domain.SafetyEquipmentRequirement
	Training            []domain.TrainingRequirement
	Alerts              []domain.Alert
}

// Derive classifies the conditions and derives schedule adjustments, PPE,
// training, and alerts. crew lists the employees a schedule change affects.
func Derive(c domain.Conditions, p *policy.Policy, crew []string) Derivation {
	return DeriveFromView(c, ClassifyConditions(c, p.Thresholds), p, crew)
}

// DeriveFromView derives actions from an existing classification.
func DeriveFromView(c domain.Conditions, view domain.CompositeRiskView, p *policy.Policy, crew []string) Derivation {
	d := Derivation{
		Risk:                view,
		ScheduleAdjustments: make([]domain.ScheduleAdjustment, 0, 1),
		Equipment:           make([]domain.SafetyEquipmentRequirement, 0, len(view.Risks)),
		Training:            make([]domain.TrainingRequirement, 0, len(view.Risks)),
		Alerts:              make([]domain.Alert, 0, len(view.Risks)),
	}

	if adj, ok := scheduleAdjustment(c, view.Risk(domain.HazardTemperature), p, crew); ok {
		d.ScheduleAdjustments = append(d.ScheduleAdjustments, adj)
	}

	for _, r := range view.Risks {
		if r.Level >= p.MinEquipmentLevel && r.Level > domain.RiskLow {
			d.Equipment = append(d.Equipment, equipmentRequirement(r.Hazard, p))
			d.Training = append(d.Training, trainingRequirement(r, p))
		}
		if r.Level == domain.RiskHigh {
			rule := alertRules[r.Hazard]
			d.Alerts = append(d.Alerts, domain.Alert{
				Type:          rule.typ,
				Level:         rule.level,
				Hazard:        r.Hazard,
				Message:       r.Message,
				AffectedRoles: slices.Clone(rule.roles),
			})
		}
	}
	return d
}

// scheduleAdjustment proposes at most one earlier working window. The HIGH
// rule short-circuits the MEDIUM one.
func scheduleAdjustment(c domain.Conditions, temp domain.Risk, p *policy.Policy, crew []string) (domain.ScheduleAdjustment, bool) {
	var shift time.Duration
	var reason string
	switch temp.Level {
	case domain.RiskHigh:
		shift, reason = p.Schedule.MaxWorkShift, ReasonExcessiveTemperature
	case domain.RiskMedium:
		shift, reason = p.Schedule.ReducedActivityShift, ReasonElevatedTemperature
	default:
		return domain.ScheduleAdjustment{}, false
	}

	date := c.Current.Timestamp
	if date.IsZero() {
		date = domain.Now()
	}
	original, err := p.Schedule.Window(date)
	if err != nil {
		return domain.ScheduleAdjustment{}, false
	}

	y, m, d := original.Start.Date()
	day := time.Date(y, m, d, 0, 0, 0, 0, original.Start.Location())
	employees := make([]string, len(crew))
	copy(employees, crew)

	return domain.ScheduleAdjustment{
		ID:                uuid.NewSHA1(adjustmentNamespace, []byte(fmt.Sprintf("%s|%s|%s", c.Location, day.Format(time.DateOnly), reason))).String(),
		Date:              day,
		Original:          original,
		Adjusted:          original.Shift(-shift),
		Reason:            reason,
		AffectedEmployees: employees,
		Status:            domain.AdjustmentProposed,
	}, true
}

func equipmentRequirement(h domain.Hazard, p *policy.Policy) domain.SafetyEquipmentRequirement {
	eq := p.EquipmentFor(h.Condition())
	req := domain.SafetyEquipmentRequirement{
		Condition:    h.Condition(),
		Required:     slices.Clone(eq.Required),
		Optional:     slices.Clone(eq.Optional),
		Instructions: eq.Describe(),
	}
	if req.Required == nil {
		req.Required = []string{}
	}
	if req.Optional == nil {
		req.Optional = []string{}
	}
	return req
}

func trainingRequirement(r domain.Risk, p *policy.Policy) domain.TrainingRequirement {
	tr, _ := p.TrainingFor(r.Hazard.Condition())
	return domain.TrainingRequirement{
		Hazard:          r.Hazard,
		Training:        tr.Label,
		ValidityMonths:  tr.ValidityMonths,
		RefresherMonths: tr.RefresherMonths,
		Priority:        r.Level,
	}
}
