// Package server exposes the analysis triggers over HTTP.
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spigell/seoul-job-matcher/internal/analysis"
	"github.com/spigell/seoul-job-matcher/internal/logger"
	"github.com/spigell/seoul-job-matcher/internal/matching"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// Analyzer is the part of matching.Service the HTTP surface drives.
type Analyzer interface {
	RequestAnalysis(ctx context.Context, userID, jobID string) matching.Outcome
	SubmitAnswers(ctx context.Context, userID, jobID string, answers []analysis.Answer) matching.Outcome
	RetryAnalysis(ctx context.Context, userID, jobID string) matching.Outcome
	Forget(ctx context.Context, jobID string) error
	Cancel(jobID string) bool
}

// Server wires the gin engine to an Analyzer.
type Server struct {
	analyzer Analyzer
	validate *validator.Validate
	logger   *zap.Logger
	engine   *gin.Engine
}

// New builds the server and registers its routes.
func New(analyzer Analyzer, log *zap.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		analyzer: analyzer,
		validate: validator.New(validator.WithRequiredStructEnabled()),
		logger:   logger.OrNop(log),
		engine:   gin.New(),
	}

	s.engine.Use(requestID(), accessLog(s.logger), s.recovery())
	s.routes()

	return s
}

// Handler returns the HTTP handler, for tests and custom listeners.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		respondData(c, http.StatusOK, gin.H{"ok": true})
	})

	api := s.engine.Group("/api", s.requireUser())
	api.POST("/jobs/:id/analysis", s.requestAnalysis)
	api.POST("/jobs/:id/analysis/answers", s.submitAnswers)
	api.POST("/jobs/:id/analysis/retry", s.retryAnalysis)
	api.POST("/jobs/:id/analysis/cancel", s.cancelAnalysis)
	api.DELETE("/jobs/:id/analysis", s.forget)
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", zap.String("addr", addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down http server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}
