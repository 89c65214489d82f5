// Package server exposes the orchestration core over HTTP: submit a run,
// read a run snapshot and read its trace spans. The API is a thin adapter;
// all orchestration semantics live in the runner.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yadejumobi/foundrymesh/core"
	"github.com/yadejumobi/foundrymesh/logging"
	"github.com/yadejumobi/foundrymesh/runner"
)

// Config configures the HTTP server.
type Config struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	Debug        bool          `mapstructure:"debug"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DefaultConfig returns the local development defaults.
func DefaultConfig() Config {
	return Config{
		Host:         "localhost",
		Port:         8080,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
	}
}

// Server serves the orchestration API over HTTP.
type Server struct {
	runner     *runner.Runner
	engine     *gin.Engine
	httpServer *http.Server
	logger     logging.Logger
}

// New builds the server and its routes.
func New(r *runner.Runner, cfg Config, logger logging.Logger) *Server {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	if !cfg.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{
		runner: r,
		engine: engine,
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      engine,
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
		},
		logger: logger,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.engine.GET("/healthz", s.handleHealth)
	api := s.engine.Group("/api")
	api.POST("/runs", s.handleSubmit)
	api.GET("/runs/:id", s.handleStatus)
	api.GET("/runs/:id/spans", s.handleSpans)
}

// Handler returns the underlying HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler { return s.engine }

// ListenAndServe blocks serving the API until Shutdown is called.
func (s *Server) ListenAndServe() error {
	s.logger.Info("http server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains in-flight requests and stops the listener.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// submitRequest is the wire form of an orchestration submission.
type submitRequest struct {
	Query        string            `json:"query" binding:"required"`
	UserID       string            `json:"userId" binding:"required"`
	Pattern      string            `json:"pattern"`
	Agents       []string          `json:"agents"`
	RoutingHints map[string]string `json:"routingHints"`
	Mode         string            `json:"mode"`
}

// submitResponse is the envelope returned by a successful submission. The
// invocation counts exist for quick debugging; the spans endpoint has the
// full story.
type submitResponse struct {
	RunID     string                `json:"runId"`
	Status    core.RunStatus        `json:"status"`
	Result    core.AggregatedResult `json:"result"`
	Succeeded int                   `json:"succeeded"`
	Failed    int                   `json:"failed"`
}

func (s *Server) handleSubmit(c *gin.Context) {
	var body submitRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	req := core.OrchestrationRequest{
		Query:        body.Query,
		UserID:       body.UserID,
		Pattern:      core.Pattern(body.Pattern),
		Agents:       body.Agents,
		RoutingHints: body.RoutingHints,
		Mode:         body.Mode,
	}

	runID, result, err := s.runner.Submit(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, core.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	snap, _ := s.runner.Status(runID)
	c.JSON(http.StatusOK, submitResponse{
		RunID:     runID,
		Status:    snap.Status,
		Result:    result,
		Succeeded: len(result.Outputs),
		Failed:    len(result.FailedAgents),
	})
}

func (s *Server) handleStatus(c *gin.Context) {
	snap, err := s.runner.Status(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, snap)
}

func (s *Server) handleSpans(c *gin.Context) {
	runID := c.Param("id")
	spans := s.runner.Spans(runID)
	if len(spans) == 0 {
		if _, err := s.runner.Status(runID); err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"runId": runID, "spans": spans})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
