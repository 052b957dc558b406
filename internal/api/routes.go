package api

import (
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"cyber-intake/internal/engine"
	"cyber-intake/internal/jira"
	"cyber-intake/internal/policy"
)

// Config defines server dependencies. A nil Risk selects the default
// weighting policy; a non-nil one is taken verbatim, zero factor included.
type Config struct {
	PolicyDir      string
	AllowedOrigins []string
	Risk           *engine.Config
	Jira           jira.Config
}

// Server wires HTTP handlers with the loaded policy and the session
// registry.
type Server struct {
	policies       *policy.Set
	risk           engine.Config
	allowedOrigins []string
	browseBase     string
	jiraClient     *jira.Client
	notifier       *VerdictNotifier

	sessionMu sync.Mutex
	sessions  map[string]*sessionEntry
}

// NewServer loads and validates the policy documents and constructs the
// API server. Jira is optional: without credentials the publish and SOC
// endpoints answer 503, everything else works.
func NewServer(cfg Config) (*Server, error) {
	if cfg.PolicyDir == "" {
		return nil, errors.New("policy dir required")
	}
	policies, err := policy.LoadSet(cfg.PolicyDir)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	risk := engine.DefaultConfig()
	if cfg.Risk != nil {
		risk = *cfg.Risk
	}

	server := &Server{
		policies:       policies,
		risk:           risk,
		allowedOrigins: cfg.AllowedOrigins,
		browseBase:     cfg.Jira.BaseURL,
		notifier:       NewVerdictNotifier(),
		sessions:       make(map[string]*sessionEntry),
	}

	client, err := jira.NewClient(cfg.Jira)
	switch {
	case err == nil:
		server.jiraClient = client
		logrus.WithField("base_url", cfg.Jira.BaseURL).Info("jira publishing enabled")
	case errors.Is(err, jira.ErrNotConfigured):
		logrus.Info("jira publishing disabled - no credentials configured")
	default:
		return nil, fmt.Errorf("jira client: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"criteria":            len(policies.Criteria),
		"framework_questions": len(policies.Framework.Questions),
		"risk_bands":          len(policies.Levels),
	}).Info("policy loaded")

	return server, nil
}

// Router configures gin routes.
func (s *Server) Router() *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowCredentials = true
	if len(s.allowedOrigins) == 0 {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.allowedOrigins
	}
	corsCfg.AllowHeaders = []string{"Origin", "Content-Type", "Accept"}
	corsCfg.AllowMethods = []string{"GET", "POST", "DELETE", "OPTIONS"}
	r.Use(cors.New(corsCfg))

	r.GET("/api/healthz", s.handleHealth)
	r.GET("/api/config", s.handleConfig)

	api := r.Group("/api")
	{
		api.GET("/policy/criteria", s.handleCriteria)
		api.GET("/policy/framework", s.handleFramework)
		api.GET("/policy/levels", s.handleLevels)

		api.POST("/evaluate/criterion", s.handleEvaluateCriterion)
		api.POST("/evaluate/framework", s.handleEvaluateFramework)

		api.POST("/sessions", s.handleCreateSession)
		api.GET("/sessions/:id", s.handleGetSession)
		api.DELETE("/sessions/:id", s.handleDeleteSession)
		api.POST("/sessions/:id/ticket", s.handleSetTicket)
		api.POST("/sessions/:id/ticket/confirm", s.handleConfirmTicket)
		api.POST("/sessions/:id/ticket/change", s.handleChangeTicket)
		api.POST("/sessions/:id/criteria/select", s.handleSelectCriterion)
		api.POST("/sessions/:id/criteria/answer", s.handleCriterionAnswer)
		api.POST("/sessions/:id/criteria/justification", s.handleJustification)
		api.POST("/sessions/:id/criteria/accept", s.handleAccept)
		api.POST("/sessions/:id/criteria/review", s.handleRequestReview)
		api.POST("/sessions/:id/criteria/discard", s.handleDiscardToFramework)
		api.POST("/sessions/:id/framework/answer", s.handleFrameworkAnswer)
		api.GET("/sessions/:id/payload", s.handlePayload)
		api.GET("/sessions/:id/comment", s.handleComment)
		api.POST("/sessions/:id/publish", s.handlePublish)
		api.GET("/sessions/:id/stream", s.handleStream)

		api.GET("/soc/dataset", s.handleSOCDataset)
	}

	return r
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) handleConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"criteria":                    len(s.policies.Criteria),
		"framework_questions":         len(s.policies.Framework.Questions),
		"risk_bands":                  len(s.policies.Levels),
		"unknown_weight_factor":       s.risk.UnknownWeightFactor,
		"unknown_always_in_rationale": s.risk.UnknownAlwaysInRationale,
		"jira_enabled":                s.jiraClient != nil,
	})
}

func (s *Server) handleCriteria(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"criteria": s.policies.Criteria})
}

func (s *Server) handleFramework(c *gin.Context) {
	c.JSON(http.StatusOK, s.policies.Framework)
}

func (s *Server) handleLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"levels": s.policies.Levels})
}

// handleEvaluateCriterion evaluates one criterion statelessly: the caller
// supplies the full answer map on every call.
func (s *Server) handleEvaluateCriterion(c *gin.Context) {
	var req EvaluateCriterionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	def := s.policies.CriterionByID(req.CriterionID)
	if def == nil {
		s.renderError(c, http.StatusNotFound, fmt.Errorf("criterion %q not found", req.CriterionID))
		return
	}
	if err := validAnswers(req.Answers); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	result := engine.EvalCriterion(*def, req.Answers)
	ready := engine.ReadyToAccept(*def, req.Answers, req.Justifications)
	c.JSON(http.StatusOK, criterionEvalDTO(*def, req.Answers, result, ready))
}

// handleEvaluateFramework scores the framework statelessly.
func (s *Server) handleEvaluateFramework(c *gin.Context) {
	var req EvaluateFrameworkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	if err := validAnswers(req.Answers); err != nil {
		s.renderError(c, http.StatusBadRequest, err)
		return
	}
	result := engine.EvalFramework(s.policies.Framework, s.policies.Levels, req.Answers, s.risk)
	c.JSON(http.StatusOK, s.frameworkEvalDTO(result, len(req.Answers)))
}

func validAnswers(answers policy.AnswerMap) error {
	for id, a := range answers {
		if !a.Valid() {
			return fmt.Errorf("invalid answer %q for question %q", a, id)
		}
	}
	return nil
}

func (s *Server) renderError(c *gin.Context, status int, err error) {
	c.JSON(status, gin.H{"error": err.Error()})
}
