package server

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

type dataResponse struct {
	Data any `json:"data"`
}

func respondData(c *gin.Context, status int, payload any) {
	c.JSON(status, dataResponse{Data: payload})
}

func (s *Server) respondError(c *gin.Context, status int, code, message string, details any) {
	s.logger.Warn("http error",
		zap.Int("status", status),
		zap.String("code", code),
		zap.String("message", message),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestIDFromContext(c)),
	)

	c.AbortWithStatusJSON(status, errorResponse{
		Error: errorBody{Code: code, Message: message, Details: details},
	})
}
