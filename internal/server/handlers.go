package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/spigell/seoul-job-matcher/internal/analysis"
	"github.com/spigell/seoul-job-matcher/internal/matching"
	"go.uber.org/zap"
)

const (
	userIDHeader = "X-User-ID"
	userIDKey    = "user_id"
)

type answerRequest struct {
	QuestionID string `json:"questionId" validate:"required"`
	Value      *bool  `json:"value" validate:"required"`
}

type answersRequest struct {
	Answers []answerRequest `json:"answers" validate:"required,min=1,dive"`
}

// requireUser reads the caller identity set by the fronting gateway.
func (s *Server) requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(userIDHeader))
		if userID == "" {
			s.respondError(c, http.StatusUnauthorized, "unauthorized", userIDHeader+" header is required", nil)
			return
		}
		c.Set(userIDKey, userID)
		c.Next()
	}
}

func (s *Server) requestAnalysis(c *gin.Context) {
	out := s.analyzer.RequestAnalysis(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	respondOutcome(c, out)
}

func (s *Server) retryAnalysis(c *gin.Context) {
	out := s.analyzer.RetryAnalysis(c.Request.Context(), c.GetString(userIDKey), c.Param("id"))
	respondOutcome(c, out)
}

func (s *Server) submitAnswers(c *gin.Context) {
	var req answersRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, "validation_error", "request body must be valid JSON", nil)
		return
	}
	if err := s.validate.Struct(req); err != nil {
		s.respondError(c, http.StatusBadRequest, "validation_error", "invalid answers", fieldIssues(err))
		return
	}

	answers := make([]analysis.Answer, 0, len(req.Answers))
	for _, a := range req.Answers {
		group, index, err := analysis.ParseQuestionID(a.QuestionID)
		if err != nil {
			s.respondError(c, http.StatusBadRequest, "validation_error", err.Error(), nil)
			return
		}
		answers = append(answers, analysis.Answer{Group: group, ItemIndex: index, Value: *a.Value})
	}

	out := s.analyzer.SubmitAnswers(c.Request.Context(), c.GetString(userIDKey), c.Param("id"), answers)
	respondOutcome(c, out)
}

func (s *Server) cancelAnalysis(c *gin.Context) {
	respondData(c, http.StatusOK, gin.H{"cancelled": s.analyzer.Cancel(c.Param("id"))})
}

func (s *Server) forget(c *gin.Context) {
	jobID := c.Param("id")
	if err := s.analyzer.Forget(c.Request.Context(), jobID); err != nil {
		s.logger.Error("forget analysis failed", zap.String("job_id", jobID), zap.Error(err))
		s.respondError(c, http.StatusInternalServerError, "internal", "failed to remove analysis", nil)
		return
	}
	c.Status(http.StatusNoContent)
}

func respondOutcome(c *gin.Context, out matching.Outcome) {
	respondData(c, statusFor(out.State), out)
}

func statusFor(state matching.State) int {
	switch state {
	case matching.StateExtracting:
		return http.StatusAccepted
	case matching.StateUnsupported:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

func fieldIssues(err error) []map[string]string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	issues := make([]map[string]string, 0, len(verrs))
	for _, fe := range verrs {
		issues = append(issues, map[string]string{"field": fe.Namespace(), "issue": fe.Tag()})
	}
	return issues
}
