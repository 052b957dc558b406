package engine

import (
	"sort"

	"cyber-intake/internal/policy"
)

// FrameworkResult is the outcome of scoring the risk framework against the
// current answer map. Recomputed on every answer change, never persisted.
type FrameworkResult struct {
	Score       float64 `json:"score"`
	Level       string  `json:"level"`
	AllAnswered bool    `json:"all_answered"`
}

// EvalFramework sums each question's weight scaled by the answer's risk
// factor, then resolves the total against the band list.
func EvalFramework(def policy.Framework, levels []policy.RiskBand, answers policy.AnswerMap, cfg Config) FrameworkResult {
	var score float64
	answered := 0
	for _, q := range def.Questions {
		a, ok := answers[q.ID]
		if ok {
			answered++
		}
		score += float64(q.Weight) * cfg.RiskFactor(q.RiskWhen, a, ok)
	}
	return FrameworkResult{
		Score:       score,
		Level:       ResolveLevel(score, levels),
		AllAnswered: answered == len(def.Questions),
	}
}

// ResolveLevel maps a score onto a band key using half-open intervals
// [min, next.min): the upper bound of a band is always derived from the
// next band's min, authored max values are ignored, and the topmost band
// extends to infinity. An empty band list resolves to DefaultLevelKey.
func ResolveLevel(score float64, levels []policy.RiskBand) string {
	if len(levels) == 0 {
		return policy.DefaultLevelKey
	}

	sorted := make([]policy.RiskBand, len(levels))
	copy(sorted, levels)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Min < sorted[j].Min })

	for i, band := range sorted {
		if score < band.Min {
			continue
		}
		if i+1 < len(sorted) && score >= sorted[i+1].Min {
			continue
		}
		return band.Key
	}
	// Only reachable when the score sits below the lowest min, which cannot
	// happen with non-negative scores and a zero-based band list.
	return sorted[len(sorted)-1].Key
}

// LevelColor returns the presentation color for a band key, falling back to
// the lowest band's color when the key is absent.
func LevelColor(key string, levels []policy.RiskBand) string {
	for _, band := range levels {
		if band.Key == key {
			return band.Color
		}
	}
	if len(levels) > 0 {
		return levels[0].Color
	}
	return ""
}
