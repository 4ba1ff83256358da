package domain

import (
	"fmt"
	"time"
)

// ApprovalStatus is the workflow state of a risk assessment.
type ApprovalStatus string

const (
	ApprovalPending  ApprovalStatus = "PENDING"
	ApprovalApproved ApprovalStatus = "APPROVED"
	ApprovalRejected ApprovalStatus = "REJECTED"
)

// SystemAssessor is recorded when no human assessor is named.
const SystemAssessor = "system"

// RiskAssessmentRecord is the formal, dated assessment for one location.
type RiskAssessmentRecord struct {
	ID                string         `json:"id"`
	Date              time.Time      `json:"date"`
	Location          string         `json:"location"`
	Assessor          string         `json:"assessor"`
	Reading           Reading        `json:"reading"`
	Risks             []Risk         `json:"risks"`
	ControlMeasures   []string       `json:"controlMeasures"`
	ResidualRiskLevel RiskLevel      `json:"residualRiskLevel"`
	ReviewDate        time.Time      `json:"reviewDate"`
	ApprovalStatus    ApprovalStatus `json:"approvalStatus"`
	DecidedBy         string         `json:"decidedBy,omitempty"`
	DecidedAt         *time.Time     `json:"decidedAt,omitempty"`
}

// Approve returns a copy marked APPROVED by the given actor.
func (r RiskAssessmentRecord) Approve(by string, at time.Time) (RiskAssessmentRecord, error) {
	return r.decide(ApprovalApproved, by, at)
}

// Reject returns a copy marked REJECTED by the given actor.
func (r RiskAssessmentRecord) Reject(by string, at time.Time) (RiskAssessmentRecord, error) {
	return r.decide(ApprovalRejected, by, at)
}

func (r RiskAssessmentRecord) decide(to ApprovalStatus, by string, at time.Time) (RiskAssessmentRecord, error) {
	if r.ApprovalStatus != ApprovalPending {
		return r, fmt.Errorf("assessment %s -> %s: %w", r.ApprovalStatus, to, ErrInvalidTransition)
	}
	if by == "" {
		return r, fmt.Errorf("assessment %s: decision requires an actor: %w", to, ErrInvalidTransition)
	}
	r.ApprovalStatus = to
	r.DecidedBy = by
	r.DecidedAt = &at
	return r, nil
}
