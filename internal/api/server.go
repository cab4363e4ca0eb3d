// Package api exposes the interpreter over HTTP.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/cgps-group/AMRIE/internal/audit"
	"github.com/cgps-group/AMRIE/internal/config"
	"github.com/cgps-group/AMRIE/internal/domain"
	"github.com/cgps-group/AMRIE/internal/middleware"
	"github.com/cgps-group/AMRIE/internal/service"
)

// MaxBatchSize caps the number of requests in one batch call.
const MaxBatchSize = 1000

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Version is reported by the health endpoint.
var Version = "dev"

// Server represents the HTTP server
type Server struct {
	logger      *logrus.Logger
	cfg         config.ServerConfig
	interpreter *service.Interpreter
	decisions   audit.Store
	router      *gin.Engine
	server      *http.Server
}

// BatchRequest is the body of a batch interpretation call.
type BatchRequest struct {
	Requests []domain.Request `json:"requests"`
}

// BatchResponse holds one outcome per request, in request order.
type BatchResponse struct {
	Outcomes []domain.Outcome `json:"outcomes"`
}

// DecisionPage is one page of audited decisions.
type DecisionPage struct {
	Records []*audit.Record `json:"records"`
	Total   int64           `json:"total"`
	Limit   int             `json:"limit"`
	Offset  int             `json:"offset"`
}

// NewServer creates a new HTTP server instance. decisions may be nil when the
// audit trail is disabled.
func NewServer(logger *logrus.Logger, cfg config.ServerConfig, interpreter *service.Interpreter, decisions audit.Store) *Server {
	router := gin.New()

	// Add middleware
	router.Use(gin.Recovery())
	router.Use(middleware.CorrelationID())
	router.Use(middleware.SecurityHeaders())
	router.Use(middleware.RequestLogger(logger))
	router.Use(middleware.RateLimit(cfg.RateLimit, cfg.RateBurst))

	server := &Server{
		logger:      logger,
		cfg:         cfg,
		interpreter: interpreter,
		decisions:   decisions,
		router:      router,
	}

	// Setup routes
	server.setupRoutes()

	return server
}

// Handler returns the routed handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.server = &http.Server{
		Addr:         s.cfg.Address(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.ReadTimeout,
		WriteTimeout: s.cfg.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.WithField("address", s.server.Addr).Info("HTTP server listening")
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	// Graceful shutdown
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

// setupRoutes configures the API routes
func (s *Server) setupRoutes() {
	// Health check endpoint
	s.router.GET("/health", s.handleHealth)

	// API v1 routes
	v1 := s.router.Group("/api/v1")
	{
		v1.POST("/interpret", s.handleInterpret)
		v1.POST("/interpret/batch", s.handleInterpretBatch)
		v1.GET("/decode/:code", s.handleDecode)
		v1.GET("/organisms/:code", s.handleOrganism)
		v1.GET("/decisions", s.handleListDecisions)
		v1.GET("/decisions/:id", s.handleGetDecision)
	}
}

// handleHealth handles health check requests
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "healthy",
		"timestamp":    time.Now().UTC(),
		"version":      Version,
		"decode_cache": s.interpreter.DecoderStats(),
		"audit":        s.decisions != nil,
	})
}

func (s *Server) handleInterpret(c *gin.Context) {
	var req domain.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		s.badRequest(c, err)
		return
	}

	decision, err := s.interpreter.Interpret(c.Request.Context(), req)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, decision)
}

func (s *Server) handleInterpretBatch(c *gin.Context) {
	var body BatchRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		s.badRequest(c, err)
		return
	}
	if len(body.Requests) > MaxBatchSize {
		s.badRequest(c, errors.New("batch exceeds the maximum size of "+strconv.Itoa(MaxBatchSize)))
		return
	}

	outcomes := s.interpreter.InterpretBatch(c.Request.Context(), body.Requests)
	c.JSON(http.StatusOK, BatchResponse{Outcomes: outcomes})
}

func (s *Server) handleDecode(c *gin.Context) {
	desc, err := s.interpreter.DescribeCode(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, desc)
}

func (s *Server) handleOrganism(c *gin.Context) {
	lookup, err := s.interpreter.LookupOrganism(c.Param("code"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, lookup)
}

func (s *Server) handleListDecisions(c *gin.Context) {
	if s.decisions == nil {
		s.auditDisabled(c)
		return
	}

	limit, err := queryInt(c, "limit", defaultListLimit)
	if err != nil || limit <= 0 || limit > maxListLimit {
		s.badRequest(c, errors.New("limit must be between 1 and "+strconv.Itoa(maxListLimit)))
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil || offset < 0 {
		s.badRequest(c, errors.New("offset must not be negative"))
		return
	}

	ctx := c.Request.Context()
	records, err := s.decisions.List(ctx, limit, offset)
	if err != nil {
		s.fail(c, err)
		return
	}
	total, err := s.decisions.Count(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, DecisionPage{Records: records, Total: total, Limit: limit, Offset: offset})
}

func (s *Server) handleGetDecision(c *gin.Context) {
	if s.decisions == nil {
		s.auditDisabled(c)
		return
	}
	record, err := s.decisions.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

func queryInt(c *gin.Context, key string, def int) (int, error) {
	v := c.Query(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

// errorResponse is the body of every failed call.
type errorResponse struct {
	Error         *domain.InterpretationError `json:"error"`
	CorrelationID string                      `json:"correlation_id"`
}

func (s *Server) fail(c *gin.Context, err error) {
	ie := domain.NewInterpretationError(err)
	status := statusFor(ie.Code)
	if status >= http.StatusInternalServerError {
		s.logger.WithFields(logrus.Fields{
			"correlation_id": c.GetString(middleware.CorrelationIDKey),
			"error":          err,
		}).Error("Request failed")
	}
	c.JSON(status, errorResponse{Error: ie, CorrelationID: c.GetString(middleware.CorrelationIDKey)})
}

func (s *Server) badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorResponse{
		Error:         &domain.InterpretationError{Code: "BAD_REQUEST", Message: err.Error()},
		CorrelationID: c.GetString(middleware.CorrelationIDKey),
	})
}

func (s *Server) auditDisabled(c *gin.Context) {
	c.JSON(http.StatusNotFound, errorResponse{
		Error:         &domain.InterpretationError{Code: "AUDIT_DISABLED", Message: "decision audit is not enabled"},
		CorrelationID: c.GetString(middleware.CorrelationIDKey),
	})
}

// statusFor maps an error code onto an HTTP status.
func statusFor(code string) int {
	switch code {
	case domain.ErrCodeUnknownOrganism, domain.ErrCodeUnknownAntibiotic, domain.ErrCodeNotFound:
		return http.StatusNotFound
	case domain.ErrCodeUnrecognizedCode, domain.ErrCodeInvalidRawResult:
		return http.StatusUnprocessableEntity
	case domain.ErrCodeCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
