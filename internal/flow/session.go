// Package flow holds the intake session state machine. The engine is
// invoked as a pure dependency from each transition; the session only owns
// the answer maps and the decision snapshots.
package flow

import (
	"errors"
	"fmt"

	"cyber-intake/internal/artifact"
	"cyber-intake/internal/engine"
	"cyber-intake/internal/policy"
	"cyber-intake/internal/ticket"
)

// State identifies where an intake session sits in the flow.
type State string

const (
	StateTicketUnconfirmed State = "ticket_unconfirmed"
	StateCriteriaPending   State = "criteria_pending"
	StateCriterionSelected State = "criterion_selected"
	StateReviewRequested   State = "review_requested"
	StateAccepted          State = "accepted"
	StateFrameworkActive   State = "framework_active"
	StateFrameworkReady    State = "framework_ready"
)

// ErrInvalidTransition marks a user action that is not legal in the
// session's current state.
var ErrInvalidTransition = errors.New("invalid transition")

// ErrInvalidTicketKey rejects malformed ticket identifiers at confirmation.
var ErrInvalidTicketKey = errors.New("invalid ticket key")

// Snapshot is an immutable copy of a criterion decision taken at acceptance
// or review-request time, so later answer edits never rewrite history.
type Snapshot struct {
	Def            policy.Criterion
	Answers        policy.AnswerMap
	Justifications policy.JustificationMap
}

// Session is a single-user intake flow over one ticket. It is not safe for
// concurrent use; the API layer serializes access per session.
type Session struct {
	policies *policy.Set
	risk     engine.Config

	ticketKey       string
	ticketConfirmed bool

	criterionPass       engine.Status
	reviewRequested     bool
	selectedCriterionID string
	acceptedCriterionID string
	critAnswers         policy.AnswerMap
	critJustifications  policy.JustificationMap
	acceptedSnapshot    *Snapshot
	reviewSnapshot      *Snapshot

	frameworkAnswers policy.AnswerMap
}

// NewSession starts a fresh flow against the loaded policy set.
func NewSession(set *policy.Set, risk engine.Config) *Session {
	return &Session{
		policies:           set,
		risk:               risk,
		criterionPass:      engine.StatusPending,
		critAnswers:        policy.AnswerMap{},
		critJustifications: policy.JustificationMap{},
		frameworkAnswers:   policy.AnswerMap{},
	}
}

// State derives the current flow state. FrameworkReady is FrameworkActive
// with every framework question answered.
func (s *Session) State() State {
	switch {
	case !s.ticketConfirmed:
		return StateTicketUnconfirmed
	case s.criterionPass == engine.StatusPass:
		return StateAccepted
	case s.selectedCriterionID != "":
		return StateCriterionSelected
	case s.reviewRequested:
		return StateReviewRequested
	case s.criterionPass == engine.StatusFail:
		if s.EvalFramework().AllAnswered {
			return StateFrameworkReady
		}
		return StateFrameworkActive
	}
	return StateCriteriaPending
}

// SetTicketKey records the key while the ticket is still editable.
func (s *Session) SetTicketKey(key string) error {
	if s.ticketConfirmed {
		return fmt.Errorf("%w: ticket already confirmed", ErrInvalidTransition)
	}
	s.ticketKey = key
	return nil
}

// ConfirmTicket freezes the ticket key and opens the criteria stage.
func (s *Session) ConfirmTicket() error {
	if s.ticketConfirmed {
		return fmt.Errorf("%w: ticket already confirmed", ErrInvalidTransition)
	}
	if !ticket.IsValidKey(s.ticketKey) {
		return fmt.Errorf("%w: %q", ErrInvalidTicketKey, s.ticketKey)
	}
	s.ticketConfirmed = true
	return nil
}

// ChangeTicket returns to ticket editing. The key survives, everything
// else is cleared.
func (s *Session) ChangeTicket() {
	key := s.ticketKey
	*s = *NewSession(s.policies, s.risk)
	s.ticketKey = key
}

// Reset discards the whole session, key included.
func (s *Session) Reset() {
	*s = *NewSession(s.policies, s.risk)
}

// SelectCriterion switches the criterion under evaluation. Passing "" just
// deselects. Answers never carry over between criteria: any change of
// selection clears the working answer and justification maps.
func (s *Session) SelectCriterion(id string) error {
	if !s.ticketConfirmed {
		return fmt.Errorf("%w: ticket not confirmed", ErrInvalidTransition)
	}
	if s.criterionPass == engine.StatusPass {
		return fmt.Errorf("%w: a criterion was already accepted", ErrInvalidTransition)
	}
	if id != "" && s.policies.CriterionByID(id) == nil {
		return fmt.Errorf("unknown criterion %q", id)
	}
	if id != s.selectedCriterionID {
		s.critAnswers = policy.AnswerMap{}
		s.critJustifications = policy.JustificationMap{}
	}
	s.selectedCriterionID = id
	return nil
}

// SelectedCriterion returns the criterion under evaluation, or nil.
func (s *Session) SelectedCriterion() *policy.Criterion {
	if s.selectedCriterionID == "" {
		return nil
	}
	return s.policies.CriterionByID(s.selectedCriterionID)
}

// SetCriterionAnswer records one answer for the selected criterion.
func (s *Session) SetCriterionAnswer(questionID string, a policy.Answer) error {
	def := s.SelectedCriterion()
	if def == nil {
		return fmt.Errorf("%w: no criterion selected", ErrInvalidTransition)
	}
	if !a.Valid() {
		return fmt.Errorf("invalid answer %q", a)
	}
	if !criterionHasQuestion(*def, questionID) {
		return fmt.Errorf("criterion %s has no question %q", def.ID, questionID)
	}
	s.critAnswers[questionID] = a
	return nil
}

// SetJustification records free text for one question of the selected
// criterion.
func (s *Session) SetJustification(questionID, text string) error {
	def := s.SelectedCriterion()
	if def == nil {
		return fmt.Errorf("%w: no criterion selected", ErrInvalidTransition)
	}
	if !criterionHasQuestion(*def, questionID) {
		return fmt.Errorf("criterion %s has no question %q", def.ID, questionID)
	}
	s.critJustifications[questionID] = text
	return nil
}

// EvalSelected recomputes the verdict for the selected criterion.
func (s *Session) EvalSelected() engine.CriterionResult {
	def := s.SelectedCriterion()
	if def == nil {
		return engine.CriterionResult{Status: engine.StatusPending, Label: engine.LabelPending}
	}
	return engine.EvalCriterion(*def, s.critAnswers)
}

// ReadyToAccept reports whether the selected criterion can be finalized.
func (s *Session) ReadyToAccept() bool {
	def := s.SelectedCriterion()
	if def == nil {
		return false
	}
	return engine.ReadyToAccept(*def, s.critAnswers, s.critJustifications)
}

// Accept finalizes the selected criterion as the fast-path decision,
// capturing a deep-copied snapshot.
func (s *Session) Accept() error {
	def := s.SelectedCriterion()
	if def == nil {
		return fmt.Errorf("%w: no criterion selected", ErrInvalidTransition)
	}
	if !engine.ReadyToAccept(*def, s.critAnswers, s.critJustifications) {
		return fmt.Errorf("%w: criterion %s is not ready to accept", ErrInvalidTransition, def.ID)
	}
	snap := s.snapshot(*def)
	s.acceptedSnapshot = &snap
	s.acceptedCriterionID = def.ID
	s.criterionPass = engine.StatusPass
	s.selectedCriterionID = ""
	s.reviewRequested = false
	s.reviewSnapshot = nil
	return nil
}

// RequestReview records that the selected criterion needs a security
// review instead of fast-path acceptance, capturing a snapshot.
func (s *Session) RequestReview() error {
	def := s.SelectedCriterion()
	if def == nil {
		return fmt.Errorf("%w: no criterion selected", ErrInvalidTransition)
	}
	snap := s.snapshot(*def)
	s.reviewSnapshot = &snap
	s.reviewRequested = true
	s.selectedCriterionID = ""
	return nil
}

// DiscardToFramework abandons the fast path and opens the risk framework.
func (s *Session) DiscardToFramework() error {
	if !s.ticketConfirmed {
		return fmt.Errorf("%w: ticket not confirmed", ErrInvalidTransition)
	}
	if s.criterionPass == engine.StatusPass {
		return fmt.Errorf("%w: a criterion was already accepted", ErrInvalidTransition)
	}
	s.criterionPass = engine.StatusFail
	s.selectedCriterionID = ""
	s.acceptedCriterionID = ""
	s.acceptedSnapshot = nil
	s.reviewRequested = false
	s.reviewSnapshot = nil
	return nil
}

// SetFrameworkAnswer records one framework answer. Only legal once the
// framework stage is active.
func (s *Session) SetFrameworkAnswer(questionID string, a policy.Answer) error {
	if s.criterionPass != engine.StatusFail {
		return fmt.Errorf("%w: framework not active", ErrInvalidTransition)
	}
	if !a.Valid() {
		return fmt.Errorf("invalid answer %q", a)
	}
	if !frameworkHasQuestion(s.policies.Framework, questionID) {
		return fmt.Errorf("framework has no question %q", questionID)
	}
	s.frameworkAnswers[questionID] = a
	return nil
}

// EvalFramework recomputes the framework verdict over the live answers.
func (s *Session) EvalFramework() engine.FrameworkResult {
	return engine.EvalFramework(s.policies.Framework, s.policies.Levels, s.frameworkAnswers, s.risk)
}

// DecisionMode reports which kind of decision the session has reached.
func (s *Session) DecisionMode() artifact.Mode {
	switch s.criterionPass {
	case engine.StatusPass:
		return artifact.ModeCriterion
	case engine.StatusFail:
		return artifact.ModeFramework
	}
	return artifact.ModePending
}

// PayloadInput assembles the builder input for the current decision.
// Criterion decisions come from the accepted snapshot; framework decisions
// copy the live answers so the payload stays consistent even if the caller
// keeps mutating the session afterwards.
func (s *Session) PayloadInput(notes string) artifact.PayloadInput {
	in := artifact.PayloadInput{
		Ticket: s.ticketKey,
		Mode:   s.DecisionMode(),
		Notes:  notes,
		Risk:   s.risk,
	}
	switch in.Mode {
	case artifact.ModeCriterion:
		if s.acceptedSnapshot != nil {
			in.Criterion = &artifact.CriterionDecision{
				Def:            s.acceptedSnapshot.Def,
				Answers:        copyAnswers(s.acceptedSnapshot.Answers),
				Justifications: copyJustifications(s.acceptedSnapshot.Justifications),
			}
		}
	case artifact.ModeFramework:
		result := s.EvalFramework()
		in.Framework = &artifact.FrameworkDecision{
			Def:         s.policies.Framework,
			Answers:     copyAnswers(s.frameworkAnswers),
			Score:       result.Score,
			Level:       result.Level,
			AllAnswered: result.AllAnswered,
		}
	}
	return in
}

// Comment renders the human-readable decision text for the current state.
func (s *Session) Comment(notes string) string {
	if s.criterionPass == engine.StatusPass && s.acceptedSnapshot != nil {
		return artifact.CommentForCriterion(&s.acceptedSnapshot.Def, s.acceptedSnapshot.Answers, s.acceptedSnapshot.Justifications, notes)
	}
	if s.reviewRequested && s.reviewSnapshot != nil {
		return artifact.ReviewCommentForCriterion(&s.reviewSnapshot.Def, s.reviewSnapshot.Answers, s.reviewSnapshot.Justifications, notes)
	}
	if s.criterionPass == engine.StatusFail {
		result := s.EvalFramework()
		return artifact.CommentForFramework(&s.policies.Framework, s.frameworkAnswers, result.Score, result.Level, result.AllAnswered, notes, s.risk)
	}
	return artifact.NoDecisionText
}

// TicketKey returns the (possibly unconfirmed) ticket key.
func (s *Session) TicketKey() string { return s.ticketKey }

// TicketConfirmed reports whether the ticket key was confirmed.
func (s *Session) TicketConfirmed() bool { return s.ticketConfirmed }

// AcceptedCriterionID returns the id of the accepted criterion, or "".
func (s *Session) AcceptedCriterionID() string { return s.acceptedCriterionID }

// ReviewRequested reports whether a criterion review was requested.
func (s *Session) ReviewRequested() bool { return s.reviewRequested }

// CriterionAnswers returns a copy of the working criterion answers.
func (s *Session) CriterionAnswers() policy.AnswerMap { return copyAnswers(s.critAnswers) }

// FrameworkAnswers returns a copy of the framework answers.
func (s *Session) FrameworkAnswers() policy.AnswerMap { return copyAnswers(s.frameworkAnswers) }

func (s *Session) snapshot(def policy.Criterion) Snapshot {
	return Snapshot{
		Def:            def,
		Answers:        copyAnswers(s.critAnswers),
		Justifications: copyJustifications(s.critJustifications),
	}
}

func copyAnswers(in policy.AnswerMap) policy.AnswerMap {
	out := make(policy.AnswerMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func copyJustifications(in policy.JustificationMap) policy.JustificationMap {
	out := make(policy.JustificationMap, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func criterionHasQuestion(def policy.Criterion, questionID string) bool {
	for _, q := range def.Questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}

func frameworkHasQuestion(def policy.Framework, questionID string) bool {
	for _, q := range def.Questions {
		if q.ID == questionID {
			return true
		}
	}
	return false
}
