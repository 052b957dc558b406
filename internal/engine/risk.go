package engine

import "cyber-intake/internal/policy"

// Config carries the risk-weighting policy that the source system never
// settled on. Both knobs are injected rather than hardcoded so the business
// rule stays explicit and testable.
type Config struct {
	// UnknownWeightFactor scales the contribution of an Unknown answer that
	// does not match the question's riskWhen pattern. 1.0 means worst-case:
	// an unanswered doubt weighs as much as a confirmed risk.
	UnknownWeightFactor float64

	// UnknownAlwaysInRationale forces Unknown answers into rationale and
	// comment listings even when their numeric contribution is dampened.
	UnknownAlwaysInRationale bool
}

// DefaultConfig returns the worst-case policy: unknown counts at full
// weight and always appears in rationales.
func DefaultConfig() Config {
	return Config{UnknownWeightFactor: 1.0, UnknownAlwaysInRationale: true}
}

// ShouldCount reports whether the answer belongs in the rationale for a
// question with the given riskWhen pattern. Unanswered questions never
// count; a question without a riskWhen pattern never counts.
func (c Config) ShouldCount(when policy.RiskWhen, a policy.Answer, answered bool) bool {
	if !answered || when == policy.RiskWhenNone {
		return false
	}
	if a == policy.AnswerUnknown && c.UnknownAlwaysInRationale {
		return true
	}
	return when.Matches(a)
}

// RiskFactor returns the score multiplier for one answered question: 1 on a
// pattern match, UnknownWeightFactor for a non-matching Unknown, 0
// otherwise. Unanswered questions and pattern-less questions contribute
// nothing.
func (c Config) RiskFactor(when policy.RiskWhen, a policy.Answer, answered bool) float64 {
	if !answered || when == policy.RiskWhenNone {
		return 0
	}
	if when.Matches(a) {
		return 1
	}
	if a == policy.AnswerUnknown {
		return c.UnknownWeightFactor
	}
	return 0
}
