package engine

import (
	"strings"

	"cyber-intake/internal/policy"
)

// Status is the coarse verdict of a criterion evaluation.
type Status string

const (
	StatusPending Status = "pending"
	StatusPass    Status = "pass"
	StatusFail    Status = "fail"
)

// Labels are the human verdicts shown next to a criterion.
const (
	LabelPending = "PENDIENTE"
	LabelPass    = "PASA"
	LabelReview  = "REVISAR"
	LabelNoPass  = "NO PASA"
)

// CriterionResult is the outcome of evaluating one criterion against the
// current answer map. Recomputed on every answer change, never persisted.
type CriterionResult struct {
	Status Status `json:"status"`
	Label  string `json:"label"`
	AllYes bool   `json:"all_yes"`
}

// EvalCriterion applies the all-yes pass rule. An incomplete answer set is
// always routed to REVISAR, never to NO PASA: a hard fail requires every
// question to carry a definitive answer.
func EvalCriterion(def policy.Criterion, answers policy.AnswerMap) CriterionResult {
	answered := 0
	allYes := len(def.Questions) > 0
	hasUnknown := false
	for _, q := range def.Questions {
		a, ok := answers[q.ID]
		if ok {
			answered++
		}
		if a != policy.AnswerYes {
			allYes = false
		}
		if a == policy.AnswerUnknown {
			hasUnknown = true
		}
	}

	if answered == 0 {
		return CriterionResult{Status: StatusPending, Label: LabelPending}
	}
	if allYes {
		return CriterionResult{Status: StatusPass, Label: LabelPass, AllYes: true}
	}
	if hasUnknown || answered < len(def.Questions) {
		return CriterionResult{Status: StatusFail, Label: LabelReview}
	}
	return CriterionResult{Status: StatusFail, Label: LabelNoPass}
}

// ReadyToAccept reports whether a passing criterion may be finalized: every
// yes answer flagged as requiring justification must carry non-blank text.
func ReadyToAccept(def policy.Criterion, answers policy.AnswerMap, justifications policy.JustificationMap) bool {
	if EvalCriterion(def, answers).Status != StatusPass {
		return false
	}
	for _, q := range def.Questions {
		if answers[q.ID] != policy.AnswerYes {
			continue
		}
		if !q.RequiresJustification(policy.AnswerYes) {
			continue
		}
		if strings.TrimSpace(justifications[q.ID]) == "" {
			return false
		}
	}
	return true
}

// CriterionProgress returns how many questions are answered and the rounded
// completion percentage.
func CriterionProgress(def policy.Criterion, answers policy.AnswerMap) (answered, pct int) {
	if len(def.Questions) == 0 {
		return 0, 0
	}
	for _, q := range def.Questions {
		if _, ok := answers[q.ID]; ok {
			answered++
		}
	}
	pct = (answered*100 + len(def.Questions)/2) / len(def.Questions)
	return answered, pct
}
