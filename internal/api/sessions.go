package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"cyber-intake/internal/artifact"
	"cyber-intake/internal/flow"
	"cyber-intake/internal/jira"
	"cyber-intake/internal/soc"
)

// sessionEntry serializes access to one flow.Session. The session itself is
// single-caller by design; the mutex is the API layer's responsibility.
type sessionEntry struct {
	mu      sync.Mutex
	session *flow.Session
}

func (s *Server) handleCreateSession(c *gin.Context) {
	id := uuid.NewString()
	entry := &sessionEntry{session: flow.NewSession(s.policies, s.risk)}

	s.sessionMu.Lock()
	s.sessions[id] = entry
	s.sessionMu.Unlock()

	logrus.WithField("session", id).Info("intake session created")
	c.JSON(http.StatusCreated, s.sessionDTO(id, entry.session))
}

func (s *Server) handleGetSession(c *gin.Context) {
	entry, id, ok := s.lookupSession(c)
	if !ok {
		return
	}
	entry.mu.Lock()
	dto := s.sessionDTO(id, entry.session)
	entry.mu.Unlock()
	c.JSON(http.StatusOK, dto)
}

func (s *Server) handleDeleteSession(c *gin.Context) {
	id := c.Param("id")
	s.sessionMu.Lock()
	_, ok := s.sessions[id]
	delete(s.sessions, id)
	s.sessionMu.Unlock()
	s.notifier.Forget(id)
	if !ok {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("session %s not found", id))
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

func (s *Server) handleSetTicket(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.SetTicketKey(strings.TrimSpace(req.Key))
	})
}

func (s *Server) handleConfirmTicket(c *gin.Context) {
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.ConfirmTicket()
	})
}

func (s *Server) handleChangeTicket(c *gin.Context) {
	s.withSession(c, func(id string, sess *flow.Session) error {
		sess.ChangeTicket()
		return nil
	})
}

func (s *Server) handleSelectCriterion(c *gin.Context) {
	var req SelectCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.SelectCriterion(req.CriterionID)
	})
}

func (s *Server) handleCriterionAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.SetCriterionAnswer(req.QuestionID, req.Answer)
	})
}

func (s *Server) handleJustification(c *gin.Context) {
	var req JustificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.SetJustification(req.QuestionID, req.Text)
	})
}

func (s *Server) handleAccept(c *gin.Context) {
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.Accept()
	})
}

func (s *Server) handleRequestReview(c *gin.Context) {
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.RequestReview()
	})
}

func (s *Server) handleDiscardToFramework(c *gin.Context) {
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.DiscardToFramework()
	})
}

func (s *Server) handleFrameworkAnswer(c *gin.Context) {
	var req AnswerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	s.withSession(c, func(id string, sess *flow.Session) error {
		return sess.SetFrameworkAnswer(req.QuestionID, req.Answer)
	})
}

func (s *Server) handlePayload(c *gin.Context) {
	entry, _, ok := s.lookupSession(c)
	if !ok {
		return
	}
	entry.mu.Lock()
	payload := artifact.BuildPayload(entry.session.PayloadInput(c.Query("notes")))
	entry.mu.Unlock()
	c.JSON(http.StatusOK, payload)
}

func (s *Server) handleComment(c *gin.Context) {
	entry, _, ok := s.lookupSession(c)
	if !ok {
		return
	}
	entry.mu.Lock()
	comment := entry.session.Comment(c.Query("notes"))
	entry.mu.Unlock()
	c.JSON(http.StatusOK, CommentResponse{Comment: comment})
}

// handlePublish posts the current decision comment to the ticket tracker.
func (s *Server) handlePublish(c *gin.Context) {
	if s.jiraClient == nil {
		s.renderError(c, http.StatusServiceUnavailable, jira.ErrNotConfigured)
		return
	}

	var req PublishRequest
	if c.Request.Body != nil {
		// The body is optional; notes default to empty.
		_ = c.ShouldBindJSON(&req)
	}

	entry, id, ok := s.lookupSession(c)
	if !ok {
		return
	}

	entry.mu.Lock()
	mode := entry.session.DecisionMode()
	key := entry.session.TicketKey()
	comment := entry.session.Comment(req.Notes)
	entry.mu.Unlock()

	if mode == artifact.ModePending {
		s.renderError(c, http.StatusConflict, errors.New("no decision registered yet"))
		return
	}

	if err := s.jiraClient.AddComment(c.Request.Context(), key, comment); err != nil {
		logrus.WithError(err).WithField("session", id).Warn("publish decision comment")
		s.renderError(c, http.StatusBadGateway, err)
		return
	}

	logrus.WithFields(logrus.Fields{
		"session": id,
		"ticket":  key,
		"mode":    mode,
	}).Info("decision comment published")
	c.JSON(http.StatusOK, PublishResponse{Posted: true, URL: s.jiraClient.BrowseURL(key)})
}

func (s *Server) handleSOCDataset(c *gin.Context) {
	if s.jiraClient == nil {
		s.renderError(c, http.StatusServiceUnavailable, jira.ErrNotConfigured)
		return
	}
	period := c.DefaultQuery("period", "30d")
	issues, err := s.jiraClient.SearchOpenIssues(c.Request.Context(), period)
	if err != nil {
		s.renderError(c, http.StatusBadGateway, err)
		return
	}
	c.JSON(http.StatusOK, soc.BuildDataset(issues, timeNow()))
}

// withSession applies a flow transition under the session lock, broadcasts
// the recomputed verdict, and answers with the fresh session DTO. Transition
// errors map to 409, everything else to 400.
func (s *Server) withSession(c *gin.Context, apply func(id string, sess *flow.Session) error) {
	entry, id, ok := s.lookupSession(c)
	if !ok {
		return
	}

	entry.mu.Lock()
	err := apply(id, entry.session)
	var dto SessionDTO
	if err == nil {
		dto = s.sessionDTO(id, entry.session)
	}
	entry.mu.Unlock()

	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, flow.ErrInvalidTransition) {
			status = http.StatusConflict
		}
		s.renderError(c, status, err)
		return
	}

	s.notifier.Broadcast(VerdictEvent{
		Type:      "verdict",
		SessionID: id,
		State:     dto.State,
		Criterion: dto.CriterionEval,
		Framework: &dto.FrameworkEval,
	})
	c.JSON(http.StatusOK, dto)
}

func (s *Server) lookupSession(c *gin.Context) (*sessionEntry, string, bool) {
	id := c.Param("id")
	s.sessionMu.Lock()
	entry, ok := s.sessions[id]
	s.sessionMu.Unlock()
	if !ok {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("session %s not found", id))
		return nil, "", false
	}
	return entry, id, true
}
