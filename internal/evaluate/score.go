package evaluate

import "github.com/railguard/railguard/internal/constraint"

// Risk classifies a violation list for downstream display.
type Risk string

const (
	RiskLow      Risk = "low"
	RiskMedium   Risk = "medium"
	RiskHigh     Risk = "high"
	RiskCritical Risk = "critical"
)

const maxScore = 10.0

// Score computes the 0-10 compliance score: start at 10, subtract a
// severity-weighted penalty per violation, floor at 0.
func Score(violations []Violation, sc constraint.Scoring) float64 {
	score := maxScore
	for _, v := range violations {
		score -= weight(v.Severity, sc)
	}
	if score < 0 {
		return 0
	}
	return score
}

// Classify maps a violation list to exactly one risk level. The mapping is
// monotonic: the base level follows the highest severity present, and the
// level escalates one step once the violation count reaches the configured
// threshold. Both inputs only grow when violations are added.
func Classify(violations []Violation, sc constraint.Scoring) Risk {
	if len(violations) == 0 {
		return RiskLow
	}

	maxRank := 0
	for _, v := range violations {
		if r := v.Severity.Rank(); r > maxRank {
			maxRank = r
		}
	}

	level := riskForRank(maxRank)
	if sc.EscalateCount > 0 && len(violations) >= sc.EscalateCount {
		level = escalate(level)
	}
	return level
}

func riskForRank(rank int) Risk {
	switch rank {
	case constraint.SeverityCritical.Rank():
		return RiskCritical
	case constraint.SeverityError.Rank():
		return RiskHigh
	case constraint.SeverityWarning.Rank():
		return RiskMedium
	default:
		return RiskLow
	}
}

func escalate(r Risk) Risk {
	switch r {
	case RiskLow:
		return RiskMedium
	case RiskMedium:
		return RiskHigh
	default:
		return RiskCritical
	}
}

func weight(s constraint.Severity, sc constraint.Scoring) float64 {
	if w, ok := sc.Weights[s]; ok {
		return w
	}
	// Unconfigured severities fall back to the built-in weights so a
	// partial weights table stays monotonic.
	return constraint.DefaultPolicy().Scoring.Weights[s]
}
