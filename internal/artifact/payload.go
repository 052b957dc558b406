package artifact

import (
	"strings"
	"time"

	"cyber-intake/internal/engine"
	"cyber-intake/internal/policy"
)

// Mode selects which decision branch a payload carries.
type Mode string

const (
	ModeCriterion Mode = "criterion"
	ModeFramework Mode = "framework"
	ModePending   Mode = "pending"
)

// CriterionDecision is the snapshot of an accepted or reviewed criterion.
type CriterionDecision struct {
	Def            policy.Criterion
	Answers        policy.AnswerMap
	Justifications policy.JustificationMap
}

// FrameworkDecision is the framework verdict at decision time.
type FrameworkDecision struct {
	Def         policy.Framework
	Answers     policy.AnswerMap
	Score       float64
	Level       string
	AllAnswered bool
}

// PayloadInput collects everything BuildPayload needs. Criterion and
// Framework may be nil; the builder substitutes null branches instead of
// failing, since transient UI states reach it with no decision registered.
type PayloadInput struct {
	Ticket    string
	Mode      Mode
	Criterion *CriterionDecision
	Framework *FrameworkDecision
	Notes     string
	Risk      engine.Config
}

// Payload is the machine-readable decision artifact.
type Payload struct {
	Ticket      string           `json:"ticket"`
	Decision    Decision         `json:"decision"`
	Notes       string           `json:"notes,omitempty"`
	Rationale   []RationaleEntry `json:"rationale"`
	GeneratedAt time.Time        `json:"generatedAt"`
}

// Decision holds exactly one populated branch according to Mode.
type Decision struct {
	Mode        Mode         `json:"mode"`
	ByCriterion *ByCriterion `json:"byCriterion"`
	ByFramework *ByFramework `json:"byFramework"`
}

// ByCriterion records a fast-path acceptance.
type ByCriterion struct {
	Used           string                  `json:"used"`
	Title          string                  `json:"title"`
	Answers        policy.AnswerMap        `json:"answers"`
	Justifications policy.JustificationMap `json:"justifications"`
}

// ByFramework records a scored decision.
type ByFramework struct {
	Score       float64          `json:"score"`
	Level       string           `json:"level"`
	Answers     policy.AnswerMap `json:"answers"`
	AllAnswered bool             `json:"allAnswered"`
}

// RationaleEntry is one question whose answer contributed to risk.
type RationaleEntry struct {
	ID     string        `json:"id"`
	Text   string        `json:"text"`
	Weight int           `json:"weight"`
	Answer policy.Answer `json:"answer"`
}

// BuildPayload assembles the structured decision artifact. GeneratedAt is
// stamped with the current time at call; everything else is a pure function
// of the input.
func BuildPayload(in PayloadInput) Payload {
	rationale := []RationaleEntry{}
	if in.Mode == ModeFramework && in.Framework != nil {
		rationale = Rationale(in.Framework.Def, in.Framework.Answers, in.Risk)
	}

	decision := Decision{Mode: in.Mode}
	if in.Mode == ModeCriterion && in.Criterion != nil {
		decision.ByCriterion = &ByCriterion{
			Used:           in.Criterion.Def.ID,
			Title:          in.Criterion.Def.Title,
			Answers:        in.Criterion.Answers,
			Justifications: in.Criterion.Justifications,
		}
	}
	if in.Mode == ModeFramework && in.Framework != nil {
		decision.ByFramework = &ByFramework{
			Score:       in.Framework.Score,
			Level:       in.Framework.Level,
			Answers:     in.Framework.Answers,
			AllAnswered: in.Framework.AllAnswered,
		}
	}

	return Payload{
		Ticket:      strings.TrimSpace(in.Ticket),
		Decision:    decision,
		Notes:       strings.TrimSpace(in.Notes),
		Rationale:   rationale,
		GeneratedAt: time.Now().UTC(),
	}
}

// Rationale lists every framework question whose answer counts toward risk
// under the configured policy.
func Rationale(def policy.Framework, answers policy.AnswerMap, cfg engine.Config) []RationaleEntry {
	entries := []RationaleEntry{}
	for _, q := range def.Questions {
		a, ok := answers[q.ID]
		if !cfg.ShouldCount(q.RiskWhen, a, ok) {
			continue
		}
		entries = append(entries, RationaleEntry{ID: q.ID, Text: q.Text, Weight: q.Weight, Answer: a})
	}
	return entries
}
