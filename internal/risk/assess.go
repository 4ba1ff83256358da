package risk

import (
	"time"

	"github.com/couchcryptid/weather-risk-engine/internal/domain"
	"github.com/couchcryptid/weather-risk-engine/internal/policy"
	"github.com/google/uuid"
)

// ReviewOffset is the time between an assessment and its scheduled review.
const ReviewOffset = 24 * time.Hour

// Control measures by risk level, in the order they are listed.
var controlMeasures = map[domain.RiskLevel][]string{
	domain.RiskHigh: {
		"Suspend outdoor work",
		"Offer indoor work alternatives",
	},
	domain.RiskMedium: {
		"Increase team rotation",
		"Schedule more frequent breaks",
		"Increase supervision",
	},
}

// Compose classifies the conditions and builds a PENDING assessment record.
func Compose(c domain.Conditions, location, assessor string, p *policy.Policy) domain.RiskAssessmentRecord {
	return ComposeFromView(c, ClassifyConditions(c, p.Thresholds), location, assessor)
}

// ComposeFromView builds an assessment from an existing classification. Only
// non-LOW risks are recorded; with none elevated the risk list is empty and
// the residual level is LOW.
func ComposeFromView(c domain.Conditions, view domain.CompositeRiskView, location, assessor string) domain.RiskAssessmentRecord {
	if assessor == "" {
		assessor = domain.SystemAssessor
	}
	elevated := view.Elevated()
	date := domain.Now()

	return domain.RiskAssessmentRecord{
		ID:                uuid.NewString(),
		Date:              date,
		Location:          location,
		Assessor:          assessor,
		Reading:           c.Current,
		Risks:             elevated,
		ControlMeasures:   measuresFor(elevated),
		ResidualRiskLevel: domain.MaxLevel(elevated),
		ReviewDate:        date.Add(ReviewOffset),
		ApprovalStatus:    domain.ApprovalPending,
	}
}

// measuresFor lists control measures for the risks, each at most once.
func measuresFor(risks []domain.Risk) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, r := range risks {
		for _, m := range controlMeasures[r.Level] {
			if _, dup := seen[m]; dup {
				continue
			}
			seen[m] = struct{}{}
			out = append(out, m)
		}
	}
	return out
}
