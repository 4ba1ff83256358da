package domain

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScheduleAdjustment_TransitionForwardOnly(t *testing.T) {
	adj := ScheduleAdjustment{ID: "a1", Status: AdjustmentProposed}

	adj, err := adj.Transition(AdjustmentApproved)
	require.NoError(t, err)
	adj, err = adj.Transition(AdjustmentActive)
	require.NoError(t, err)
	adj, err = adj.Transition(AdjustmentCompleted)
	require.NoError(t, err)
	assert.Equal(t, AdjustmentCompleted, adj.Status)

	_, err = adj.Transition(AdjustmentProposed)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestScheduleAdjustment_TransitionRejectsSkips(t *testing.T) {
	tests := []struct {
		name string
		from AdjustmentStatus
		to   AdjustmentStatus
	}{
		{"skip approval", AdjustmentProposed, AdjustmentActive},
		{"backwards", AdjustmentActive, AdjustmentApproved},
		{"same state", AdjustmentApproved, AdjustmentApproved},
		{"from completed", AdjustmentCompleted, AdjustmentCompleted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			adj := ScheduleAdjustment{Status: tt.from}
			got, err := adj.Transition(tt.to)
			require.ErrorIs(t, err, ErrInvalidTransition)
			assert.Equal(t, tt.from, got.Status)
		})
	}
}

func TestRiskAssessmentRecord_Decisions(t *testing.T) {
	at := time.Date(2024, 7, 14, 12, 0, 0, 0, time.UTC)
	rec := RiskAssessmentRecord{ID: "r1", ApprovalStatus: ApprovalPending}

	approved, err := rec.Approve("supervisor", at)
	require.NoError(t, err)
	assert.Equal(t, ApprovalApproved, approved.ApprovalStatus)
	assert.Equal(t, "supervisor", approved.DecidedBy)
	require.NotNil(t, approved.DecidedAt)
	assert.Equal(t, at, *approved.DecidedAt)
	assert.Equal(t, ApprovalPending, rec.ApprovalStatus, "original must be unchanged")

	_, err = approved.Reject("supervisor", at)
	assert.ErrorIs(t, err, ErrInvalidTransition)

	rejected, err := rec.Reject("safety-officer", at)
	require.NoError(t, err)
	assert.Equal(t, ApprovalRejected, rejected.ApprovalStatus)

	_, err = rec.Approve("", at)
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestRiskLevel_Text(t *testing.T) {
	for _, lvl := range []RiskLevel{RiskLow, RiskMedium, RiskHigh} {
		b, err := lvl.MarshalText()
		require.NoError(t, err)
		var got RiskLevel
		require.NoError(t, got.UnmarshalText(b))
		assert.Equal(t, lvl, got)
	}

	_, err := ParseRiskLevel("SEVERE")
	assert.Error(t, err)
	assert.True(t, RiskLow < RiskMedium && RiskMedium < RiskHigh)
}

func TestRisk_JSON(t *testing.T) {
	b, err := json.Marshal(Risk{Hazard: HazardWind, Level: RiskHigh, Message: "gusts"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"hazard":"wind","level":"HIGH","message":"gusts"}`, string(b))

	var r Risk
	require.NoError(t, json.Unmarshal([]byte(`{"hazard":"precipitation","level":"MEDIUM"}`), &r))
	assert.Equal(t, HazardPrecipitation, r.Hazard)
	assert.Equal(t, RiskMedium, r.Level)

	err = json.Unmarshal([]byte(`{"hazard":"hail"}`), &r)
	assert.Error(t, err)
}

func TestHazard_Condition(t *testing.T) {
	assert.Equal(t, ConditionHighTemperature, HazardTemperature.Condition())
	assert.Equal(t, ConditionHeavyPrecipitation, HazardPrecipitation.Condition())
	assert.Equal(t, ConditionHighWind, HazardWind.Condition())
	assert.Len(t, ConditionKeys(), len(Hazards()))
}

func TestCompositeRiskView(t *testing.T) {
	view := NewCompositeRiskView([]Risk{
		{Hazard: HazardTemperature, Level: RiskMedium},
		{Hazard: HazardPrecipitation, Level: RiskLow},
	})

	assert.Equal(t, RiskMedium, view.Level)
	assert.Equal(t, RiskLow, view.Risk(HazardWind).Level, "absent hazard reads as LOW")
	assert.Equal(t, []Risk{{Hazard: HazardTemperature, Level: RiskMedium}}, view.Elevated())
	assert.Equal(t, RiskLow, MaxLevel(nil))
}

func TestConditions_ForecastValues(t *testing.T) {
	c := Conditions{Forecast: []Reading{
		{Temperature: 20, Precipitation: 1, WindSpeed: 5},
		{Temperature: 25, Precipitation: 3, WindSpeed: 9},
	}}

	assert.Equal(t, []float64{20, 25}, c.ForecastValues(HazardTemperature))
	assert.Equal(t, []float64{1, 3}, c.ForecastValues(HazardPrecipitation))
	assert.Equal(t, []float64{5, 9}, c.ForecastValues(HazardWind))
	assert.Nil(t, Conditions{}.ForecastValues(HazardWind))
}

func TestTimeWindow_Shift(t *testing.T) {
	start := time.Date(2024, 7, 14, 7, 0, 0, 0, time.UTC)
	w := TimeWindow{Start: start, End: start.Add(9 * time.Hour)}

	shifted := w.Shift(-3 * time.Hour)
	assert.Equal(t, 4, shifted.Start.Hour())
	assert.Equal(t, 13, shifted.End.Hour())
	assert.Equal(t, w.Duration(), shifted.Duration())
}

func TestNow_UsesInjectedClock(t *testing.T) {
	at := time.Date(2030, 1, 2, 3, 4, 5, 0, time.UTC)
	SetClock(clockwork.NewFakeClockAt(at))
	t.Cleanup(func() { SetClock(nil) })

	assert.Equal(t, at, Now())
}

func TestErrors_Distinct(t *testing.T) {
	assert.False(t, errors.Is(ErrDataUnavailable, ErrInvalidTransition))
}
