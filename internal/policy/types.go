package policy

// Answer is a respondent's reply to a single question. Absence of a map
// entry means "not yet answered", which is distinct from AnswerUnknown.
type Answer string

const (
	AnswerYes     Answer = "yes"
	AnswerNo      Answer = "no"
	AnswerUnknown Answer = "unknown"
)

// Valid reports whether the answer is one of the three permitted values.
func (a Answer) Valid() bool {
	switch a {
	case AnswerYes, AnswerNo, AnswerUnknown:
		return true
	}
	return false
}

// AnswerMap maps question id to answer. Keys exist only for questions that
// were actually answered.
type AnswerMap map[string]Answer

// JustificationMap maps question id to free-text justification.
type JustificationMap map[string]string

// CriterionQuestion is one yes/no/unknown question inside a criterion.
type CriterionQuestion struct {
	ID                        string   `json:"id"`
	Text                      string   `json:"text"`
	RequiresJustificationWhen []Answer `json:"requiresJustificationWhen,omitempty"`
}

// RequiresJustification reports whether the given answer must carry a
// non-blank justification before the criterion can be accepted.
func (q CriterionQuestion) RequiresJustification(a Answer) bool {
	for _, want := range q.RequiresJustificationWhen {
		if want == a {
			return true
		}
	}
	return false
}

// PassRule describes how a criterion's answers are judged. The only rule in
// use is "allYes"; the type exists so policy files stay forward-compatible.
type PassRule struct {
	Type string `json:"type"`
}

// Criterion is a named fast-path rule. Fully satisfied, it exempts a ticket
// from full risk scoring.
type Criterion struct {
	ID          string              `json:"id"`
	Title       string              `json:"title"`
	Description string              `json:"description,omitempty"`
	PassRule    PassRule            `json:"passRule"`
	Questions   []CriterionQuestion `json:"questions"`
}

// FrameworkQuestion is one weighted question of the risk framework.
type FrameworkQuestion struct {
	ID       string   `json:"id"`
	Text     string   `json:"text"`
	Weight   int      `json:"weight"`
	RiskType string   `json:"riskType"`
	RiskWhen RiskWhen `json:"riskWhen"`
}

// Framework is the ordered list of weighted risk questions.
type Framework struct {
	Questions []FrameworkQuestion `json:"questions"`
}

// DefaultLevelKey is the band every score resolves to when the policy ships
// an empty levels list.
const DefaultLevelKey = "Low"

// RiskBand is a named severity tier. Max is accepted for authoring
// convenience but never read: the effective upper bound of a band is the min
// of the next band, the topmost band extends to infinity.
type RiskBand struct {
	Key   string  `json:"key"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max,omitempty"`
	Color string  `json:"color"`
}
