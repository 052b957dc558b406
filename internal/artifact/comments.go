package artifact

import (
	"fmt"
	"strings"

	"cyber-intake/internal/engine"
	"cyber-intake/internal/policy"
)

// NoDecisionText is the sentinel returned when a comment is requested
// before any decision was registered.
const NoDecisionText = "Aún no hay una decisión registrada."

// placeholder shown instead of a blank justification or answer.
const emDash = "—"

// AnswerLabel is the human label used when listing criterion answers.
func AnswerLabel(a policy.Answer, answered bool) string {
	if !answered {
		return emDash
	}
	switch a {
	case policy.AnswerYes:
		return "Aplica"
	case policy.AnswerNo:
		return "No aplica"
	case policy.AnswerUnknown:
		return "Duda"
	}
	return emDash
}

// CommentForCriterion builds the acceptance request text: only the yes
// answers, each with its justification or a placeholder. The rationale block
// is never rendered empty.
func CommentForCriterion(def *policy.Criterion, answers policy.AnswerMap, justifications policy.JustificationMap, notes string) string {
	if def == nil {
		return NoDecisionText
	}

	var lines []string
	for _, q := range def.Questions {
		if answers[q.ID] != policy.AnswerYes {
			continue
		}
		just := strings.TrimSpace(justifications[q.ID])
		if just == "" {
			just = emDash
		}
		lines = append(lines, fmt.Sprintf("- %s\n  %s", q.Text, just))
	}
	block := strings.Join(lines, "\n")
	if strings.TrimSpace(block) == "" {
		block = emDash
	}

	parts := []string{
		fmt.Sprintf("Solicito aplicar el **criterio de ciberseguridad**: %s.", def.Title),
		"Respuestas y justificaciones:",
		block,
	}
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		parts = append(parts, "Notas: "+trimmed)
	}
	return strings.Join(parts, "\n\n")
}

// ReviewCommentForCriterion builds the review request text: every question
// of the criterion, answered or not, with its answer label and any
// justification, opened by an explicit non-acceptance statement.
func ReviewCommentForCriterion(def *policy.Criterion, answers policy.AnswerMap, justifications policy.JustificationMap, notes string) string {
	if def == nil {
		return NoDecisionText
	}

	var body []string
	for _, q := range def.Questions {
		a, ok := answers[q.ID]
		lines := []string{
			"- " + q.Text,
			fmt.Sprintf("  - Respuesta: **%s**", AnswerLabel(a, ok)),
		}
		if just := strings.TrimSpace(justifications[q.ID]); just != "" {
			lines = append(lines, "  - Justificación: "+just)
		}
		body = append(body, strings.Join(lines, "\n"))
	}

	text := "Se requiere **revisión del criterio de ciberseguridad**. **No se acepta el criterio** hasta resolver la revisión.\n\n" +
		fmt.Sprintf("**Criterio:** %s\n\n", def.Title) +
		strings.Join(body, "\n")
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		text += "\n\n**Notas adicionales:**\n" + trimmed
	}
	return text
}

// CommentForFramework builds the scored decision text: level and score, a
// completeness sentence, then the questions that contributed risk.
func CommentForFramework(def *policy.Framework, answers policy.AnswerMap, score float64, level string, allAnswered bool, notes string, cfg engine.Config) string {
	if def == nil {
		return NoDecisionText
	}

	var lines []string
	for _, q := range def.Questions {
		a, ok := answers[q.ID]
		if !cfg.ShouldCount(q.RiskWhen, a, ok) {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (+%d)\n  Respuesta: %s", q.Text, q.Weight, a))
	}
	block := strings.Join(lines, "\n")
	if block == "" {
		block = emDash
	}

	completeness := "Aún hay preguntas sin responder."
	if allAnswered {
		completeness = "Todas las preguntas del framework fueron respondidas."
	}

	parts := []string{
		"Solicito registrar el **Security Risk** calculado.",
		fmt.Sprintf("Nivel: **%s** (%s pts).", level, formatScore(score)),
		completeness,
		"Respuestas que aportan riesgo:",
		block,
	}
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		parts = append(parts, "Notas: "+trimmed)
	}
	return strings.Join(parts, "\n\n")
}

// formatScore prints whole scores without a decimal point and dampened
// scores with two decimals.
func formatScore(score float64) string {
	if score == float64(int64(score)) {
		return fmt.Sprintf("%d", int64(score))
	}
	return fmt.Sprintf("%.2f", score)
}
