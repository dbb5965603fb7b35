// Package http provides the HTTP API for constraintd.
package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/leaguelab/constraintd/internal/classifier"
	"github.com/leaguelab/constraintd/internal/pipeline"
	"github.com/leaguelab/constraintd/internal/segment"
	"github.com/leaguelab/constraintd/internal/store"
)

// HeaderUserID carries the caller identity. Authentication proper is
// handled upstream; the service trusts this header.
const HeaderUserID = "X-User-ID"

// Processor handles one structured-output request.
type Processor interface {
	Process(ctx context.Context, userID string, messages []segment.Message) (*pipeline.Result, error)
}

// History reads back the outputs persisted for a user.
type History interface {
	ListByUser(ctx context.Context, userID string) ([]store.Row, error)
}

// Server provides HTTP endpoints for constraintd.
type Server struct {
	echo      *echo.Echo
	processor Processor
	history   History
	logger    *zap.Logger
	config    *Config
}

// Config holds HTTP server configuration.
type Config struct {
	Host string
	Port int
}

// NewServer creates a new HTTP server.
func NewServer(processor Processor, history History, logger *zap.Logger, cfg *Config) (*Server, error) {
	if processor == nil {
		return nil, fmt.Errorf("processor cannot be nil")
	}
	if history == nil {
		return nil, fmt.Errorf("history cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger is required for request tracking and debugging")
	}
	if cfg == nil {
		cfg = &Config{
			Host: "0.0.0.0",
			Port: 8000,
		}
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(NewHTTPMetrics(logger).MetricsMiddleware())
	e.Use(func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)
			duration := time.Since(start)

			logger.Info("http request",
				zap.String("method", c.Request().Method),
				zap.String("uri", c.Request().RequestURI),
				zap.Int("status", c.Response().Status),
				zap.Duration("duration", duration),
				zap.String("request_id", c.Response().Header().Get(echo.HeaderXRequestID)),
			)

			return err
		}
	})

	s := &Server{
		echo:      e,
		processor: processor,
		history:   history,
		logger:    logger,
		config:    cfg,
	}

	s.registerRoutes()

	return s, nil
}

// registerRoutes sets up the HTTP endpoints.
func (s *Server) registerRoutes() {
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	v1 := s.echo.Group("/api/v1")
	v1.POST("/chat/structured_output", s.handleStructuredOutput)
	v1.GET("/constraints", s.handleListConstraints)
}

// ChatRequest is the request body for POST /api/v1/chat/structured_output.
type ChatRequest struct {
	Messages []segment.Message `json:"messages"`
}

// HealthResponse is the response body for GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// handleHealth returns a simple health check response.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// handleStructuredOutput turns a scheduling conversation into persisted
// constraints. The response body is the aggregated structured output; a
// persistence failure is surfaced in its metadata rather than discarding
// the computed result.
func (s *Server) handleStructuredOutput(c echo.Context) error {
	userID := c.Request().Header.Get(HeaderUserID)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing "+HeaderUserID+" header")
	}

	var req ChatRequest
	if err := c.Bind(&req); err != nil {
		s.logger.Warn("invalid chat request", zap.Error(err))
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	result, err := s.processor.Process(c.Request().Context(), userID, req.Messages)
	if err != nil {
		switch {
		case errors.Is(err, segment.ErrEmptyRequest):
			return echo.NewHTTPError(http.StatusBadRequest, "request contains no constraint text")
		case errors.Is(err, classifier.ErrUnavailable):
			return echo.NewHTTPError(http.StatusServiceUnavailable, "classification unavailable, retry later")
		default:
			s.logger.Error("request processing failed", zap.Error(err))
			return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
		}
	}

	return c.JSON(http.StatusOK, result.Output)
}

// ListConstraintsResponse is the response body for GET /api/v1/constraints.
type ListConstraintsResponse struct {
	Requests []store.Row `json:"requests"`
}

// handleListConstraints returns the caller's persisted outputs, newest
// first. One entry per past request.
func (s *Server) handleListConstraints(c echo.Context) error {
	userID := c.Request().Header.Get(HeaderUserID)
	if userID == "" {
		return echo.NewHTTPError(http.StatusUnauthorized, "missing "+HeaderUserID+" header")
	}

	rows, err := s.history.ListByUser(c.Request().Context(), userID)
	if err != nil {
		s.logger.Error("failed to list constraints",
			zap.String("user_id", userID), zap.Error(err))
		return echo.NewHTTPError(http.StatusInternalServerError, "internal error")
	}
	if rows == nil {
		rows = []store.Row{}
	}
	return c.JSON(http.StatusOK, ListConstraintsResponse{Requests: rows})
}

// Start starts the HTTP server.
func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Host, s.config.Port)
	s.logger.Info("starting http server", zap.String("addr", addr))
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down http server")
	return s.echo.Shutdown(ctx)
}
