package api

import (
	"cyber-intake/internal/engine"
	"cyber-intake/internal/flow"
	"cyber-intake/internal/policy"
	"cyber-intake/internal/ticket"
)

// EvaluateCriterionRequest is the stateless criterion evaluation input.
// Justifications are optional; without them a criterion that flags any yes
// answer can never be ready to accept.
type EvaluateCriterionRequest struct {
	CriterionID    string                  `json:"criterion_id"`
	Answers        policy.AnswerMap        `json:"answers"`
	Justifications policy.JustificationMap `json:"justifications,omitempty"`
}

// CriterionEvalDTO carries a criterion verdict plus presentation extras.
type CriterionEvalDTO struct {
	CriterionID string        `json:"criterion_id"`
	Status      engine.Status `json:"status"`
	Label       string        `json:"label"`
	AllYes      bool          `json:"all_yes"`
	Answered    int           `json:"answered"`
	Total       int           `json:"total"`
	Pct         int           `json:"pct"`
	Ready       bool          `json:"ready_to_accept"`
}

// EvaluateFrameworkRequest is the stateless framework evaluation input.
type EvaluateFrameworkRequest struct {
	Answers policy.AnswerMap `json:"answers"`
}

// FrameworkEvalDTO carries a framework verdict plus presentation extras.
type FrameworkEvalDTO struct {
	Score       float64 `json:"score"`
	Level       string  `json:"level"`
	Color       string  `json:"color"`
	AllAnswered bool    `json:"all_answered"`
	Answered    int     `json:"answered"`
	Total       int     `json:"total"`
}

// TicketRequest sets the ticket key.
type TicketRequest struct {
	Key string `json:"key"`
}

// SelectCriterionRequest switches the criterion under evaluation. An empty
// id deselects.
type SelectCriterionRequest struct {
	CriterionID string `json:"criterion_id"`
}

// AnswerRequest records one answer.
type AnswerRequest struct {
	QuestionID string        `json:"question_id"`
	Answer     policy.Answer `json:"answer"`
}

// JustificationRequest records free text for one question.
type JustificationRequest struct {
	QuestionID string `json:"question_id"`
	Text       string `json:"text"`
}

// PublishRequest adds optional notes to the published comment.
type PublishRequest struct {
	Notes string `json:"notes"`
}

// SessionDTO is the API representation of an intake session.
type SessionDTO struct {
	ID                  string            `json:"id"`
	State               flow.State        `json:"state"`
	TicketKey           string            `json:"ticket_key"`
	TicketURL           string            `json:"ticket_url,omitempty"`
	TicketConfirmed     bool              `json:"ticket_confirmed"`
	SelectedCriterionID string            `json:"selected_criterion_id,omitempty"`
	AcceptedCriterionID string            `json:"accepted_criterion_id,omitempty"`
	ReviewRequested     bool              `json:"review_requested"`
	CriterionEval       *CriterionEvalDTO `json:"criterion_eval,omitempty"`
	FrameworkEval       FrameworkEvalDTO  `json:"framework_eval"`
	CriterionAnswers    policy.AnswerMap  `json:"criterion_answers"`
	FrameworkAnswers    policy.AnswerMap  `json:"framework_answers"`
}

// CommentResponse wraps generated comment text.
type CommentResponse struct {
	Comment string `json:"comment"`
}

// PublishResponse reports a posted comment.
type PublishResponse struct {
	Posted bool   `json:"posted"`
	URL    string `json:"url,omitempty"`
}

func (s *Server) sessionDTO(id string, sess *flow.Session) SessionDTO {
	dto := SessionDTO{
		ID:                  id,
		State:               sess.State(),
		TicketKey:           sess.TicketKey(),
		TicketURL:           ticket.BrowseURL(s.browseBase, sess.TicketKey()),
		TicketConfirmed:     sess.TicketConfirmed(),
		AcceptedCriterionID: sess.AcceptedCriterionID(),
		ReviewRequested:     sess.ReviewRequested(),
		FrameworkEval:       s.frameworkEvalDTO(sess.EvalFramework(), len(sess.FrameworkAnswers())),
		CriterionAnswers:    sess.CriterionAnswers(),
		FrameworkAnswers:    sess.FrameworkAnswers(),
	}
	if def := sess.SelectedCriterion(); def != nil {
		dto.SelectedCriterionID = def.ID
		dto.CriterionEval = criterionEvalDTO(*def, sess.CriterionAnswers(), sess.EvalSelected(), sess.ReadyToAccept())
	}
	return dto
}

func criterionEvalDTO(def policy.Criterion, answers policy.AnswerMap, result engine.CriterionResult, ready bool) *CriterionEvalDTO {
	answered, pct := engine.CriterionProgress(def, answers)
	return &CriterionEvalDTO{
		CriterionID: def.ID,
		Status:      result.Status,
		Label:       result.Label,
		AllYes:      result.AllYes,
		Answered:    answered,
		Total:       len(def.Questions),
		Pct:         pct,
		Ready:       ready,
	}
}

func (s *Server) frameworkEvalDTO(result engine.FrameworkResult, answered int) FrameworkEvalDTO {
	return FrameworkEvalDTO{
		Score:       result.Score,
		Level:       result.Level,
		Color:       engine.LevelColor(result.Level, s.policies.Levels),
		AllAnswered: result.AllAnswered,
		Answered:    answered,
		Total:       len(s.policies.Framework.Questions),
	}
}
