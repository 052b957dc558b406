package artifact

import (
	"strings"
	"testing"

	"cyber-intake/internal/engine"
	"cyber-intake/internal/policy"
)

func testCriterion() *policy.Criterion {
	return &policy.Criterion{
		ID:    "C1",
		Title: "Criterio 1 – PATCH en servicio previamente validado",
		Questions: []policy.CriterionQuestion{
			{ID: "q1", Text: "¿Solo cambia la versión PATCH?", RequiresJustificationWhen: []policy.Answer{policy.AnswerYes}},
			{ID: "q2", Text: "¿Sin cambios de contrato?"},
			{ID: "q3", Text: "¿Validado previamente?"},
		},
	}
}

func TestCommentForCriterion(t *testing.T) {
	def := testCriterion()
	answers := policy.AnswerMap{"q1": "yes", "q2": "yes", "q3": "no"}
	justifications := policy.JustificationMap{"q1": "solo bump de versión"}

	got := CommentForCriterion(def, answers, justifications, "revisar en la daily")

	if !strings.Contains(got, "Solicito aplicar el **criterio de ciberseguridad**: "+def.Title+".") {
		t.Fatalf("missing header:\n%s", got)
	}
	if !strings.Contains(got, "- ¿Solo cambia la versión PATCH?\n  solo bump de versión") {
		t.Fatalf("missing justified yes line:\n%s", got)
	}
	if !strings.Contains(got, "- ¿Sin cambios de contrato?\n  —") {
		t.Fatalf("yes answer without justification should show the placeholder:\n%s", got)
	}
	if strings.Contains(got, "¿Validado previamente?") {
		t.Fatalf("no answers must not be listed:\n%s", got)
	}
	if !strings.Contains(got, "Notas: revisar en la daily") {
		t.Fatalf("missing notes:\n%s", got)
	}
}

func TestCommentForCriterionNoYesAnswers(t *testing.T) {
	def := testCriterion()
	got := CommentForCriterion(def, policy.AnswerMap{"q1": "no"}, nil, "")
	if !strings.Contains(got, "Respuestas y justificaciones:\n\n—") {
		t.Fatalf("rationale block should never be empty:\n%s", got)
	}
	if strings.Contains(got, "Notas:") {
		t.Fatalf("empty notes must not render a notes section:\n%s", got)
	}
}

func TestCommentForCriterionNilDef(t *testing.T) {
	if got := CommentForCriterion(nil, nil, nil, "notes"); got != NoDecisionText {
		t.Fatalf("expected sentinel got %q", got)
	}
}

func TestReviewCommentForCriterion(t *testing.T) {
	def := testCriterion()
	answers := policy.AnswerMap{"q1": "yes", "q2": "unknown"}
	justifications := policy.JustificationMap{"q1": "cambio mínimo"}

	got := ReviewCommentForCriterion(def, answers, justifications, "pendiente de arquitectura")

	if !strings.HasPrefix(got, "Se requiere **revisión del criterio de ciberseguridad**. **No se acepta el criterio** hasta resolver la revisión.") {
		t.Fatalf("missing non-acceptance opener:\n%s", got)
	}
	if !strings.Contains(got, "**Criterio:** "+def.Title) {
		t.Fatalf("missing criterion title:\n%s", got)
	}
	// Every question appears with its answer label, the unanswered one too.
	if !strings.Contains(got, "- ¿Solo cambia la versión PATCH?\n  - Respuesta: **Aplica**") {
		t.Fatalf("missing yes row:\n%s", got)
	}
	if !strings.Contains(got, "- ¿Sin cambios de contrato?\n  - Respuesta: **Duda**") {
		t.Fatalf("missing unknown row:\n%s", got)
	}
	if !strings.Contains(got, "- ¿Validado previamente?\n  - Respuesta: **—**") {
		t.Fatalf("missing unanswered row:\n%s", got)
	}
	if !strings.Contains(got, "  - Justificación: cambio mínimo") {
		t.Fatalf("missing justification row:\n%s", got)
	}
	if !strings.Contains(got, "**Notas adicionales:**\npendiente de arquitectura") {
		t.Fatalf("missing notes section:\n%s", got)
	}
}

func TestReviewCommentForCriterionNilDef(t *testing.T) {
	if got := ReviewCommentForCriterion(nil, nil, nil, ""); got != NoDecisionText {
		t.Fatalf("expected sentinel got %q", got)
	}
}

func TestCommentForFramework(t *testing.T) {
	def := &policy.Framework{Questions: []policy.FrameworkQuestion{
		{ID: "q1", Text: "¿Endpoint nuevo?", Weight: 1, RiskWhen: policy.RiskWhenYes},
		{ID: "q2", Text: "¿Expuesto a Internet?", Weight: 2, RiskWhen: policy.RiskWhenYes},
		{ID: "q3", Text: "¿Valida entradas?", Weight: 2, RiskWhen: policy.RiskWhenNoOrUnknown},
	}}
	answers := policy.AnswerMap{"q1": "yes", "q2": "no", "q3": "yes"}
	cfg := engine.DefaultConfig()

	got := CommentForFramework(def, answers, 1, "Low", true, "sin observaciones", cfg)

	if !strings.Contains(got, "Solicito registrar el **Security Risk** calculado.") {
		t.Fatalf("missing header:\n%s", got)
	}
	if !strings.Contains(got, "Nivel: **Low** (1 pts).") {
		t.Fatalf("missing level line:\n%s", got)
	}
	if !strings.Contains(got, "Todas las preguntas del framework fueron respondidas.") {
		t.Fatalf("missing completeness sentence:\n%s", got)
	}
	if !strings.Contains(got, "- ¿Endpoint nuevo? (+1)\n  Respuesta: yes") {
		t.Fatalf("missing contributing row:\n%s", got)
	}
	if strings.Contains(got, "¿Expuesto a Internet?") {
		t.Fatalf("non-contributing answers must not be listed:\n%s", got)
	}
	if !strings.Contains(got, "Notas: sin observaciones") {
		t.Fatalf("missing notes:\n%s", got)
	}
}

func TestCommentForFrameworkIncomplete(t *testing.T) {
	def := &policy.Framework{Questions: []policy.FrameworkQuestion{
		{ID: "q1", Text: "¿Endpoint nuevo?", Weight: 1, RiskWhen: policy.RiskWhenYes},
	}}
	got := CommentForFramework(def, policy.AnswerMap{}, 0, "Low", false, "", engine.DefaultConfig())
	if !strings.Contains(got, "Aún hay preguntas sin responder.") {
		t.Fatalf("missing incompleteness sentence:\n%s", got)
	}
	if !strings.Contains(got, "Respuestas que aportan riesgo:\n\n—") {
		t.Fatalf("risk block should never be empty:\n%s", got)
	}
}

func TestCommentForFrameworkNilDef(t *testing.T) {
	got := CommentForFramework(nil, nil, 0, "Low", false, "", engine.DefaultConfig())
	if got != NoDecisionText {
		t.Fatalf("expected sentinel got %q", got)
	}
}

func TestAnswerLabel(t *testing.T) {
	tests := []struct {
		answer   policy.Answer
		answered bool
		want     string
	}{
		{policy.AnswerYes, true, "Aplica"},
		{policy.AnswerNo, true, "No aplica"},
		{policy.AnswerUnknown, true, "Duda"},
		{"", false, "—"},
		{"bogus", true, "—"},
	}
	for _, tc := range tests {
		if got := AnswerLabel(tc.answer, tc.answered); got != tc.want {
			t.Errorf("AnswerLabel(%q, %v) = %q, want %q", tc.answer, tc.answered, got, tc.want)
		}
	}
}

func TestFormatScore(t *testing.T) {
	tests := []struct {
		score float64
		want  string
	}{
		{0, "0"},
		{7, "7"},
		{7.5, "7.50"},
		{1.25, "1.25"},
	}
	for _, tc := range tests {
		if got := formatScore(tc.score); got != tc.want {
			t.Errorf("formatScore(%v) = %q, want %q", tc.score, got, tc.want)
		}
	}
}
