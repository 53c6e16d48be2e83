package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sony/gobreaker"

	"taskmaster/internal/apiclient"
	"taskmaster/internal/board"
	"taskmaster/internal/session"
)

// SessionKey is where the auth middleware stores the *session.Session.
const SessionKey = "session"

// getSession 统一的 session 读取工具
func getSession(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(SessionKey)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	s, ok := v.(*session.Session)
	if !ok || s == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return nil, false
	}
	return s, true
}

// errorStatus maps board and backend errors to HTTP status codes.
func errorStatus(err error) int {
	switch {
	case errors.Is(err, board.ErrTaskNotFound):
		return http.StatusNotFound
	case errors.Is(err, board.ErrInvalidStatus), errors.Is(err, board.ErrInvalidPriority), errors.Is(err, board.ErrTitleRequired):
		return http.StatusBadRequest
	case errors.Is(err, board.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, apiclient.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, apiclient.ErrShareNotFound):
		return http.StatusNotFound
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return http.StatusServiceUnavailable
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	}
	return http.StatusBadGateway
}

func errorMessage(status int) string {
	switch status {
	case http.StatusUnauthorized:
		return "session expired"
	case http.StatusServiceUnavailable:
		return "backend temporarily unavailable"
	case http.StatusGatewayTimeout:
		return "backend timed out"
	case http.StatusBadGateway:
		return "backend error"
	}
	return ""
}

func respondError(c *gin.Context, err error) {
	status := errorStatus(err)
	msg := errorMessage(status)
	if msg == "" {
		msg = err.Error()
	}
	c.JSON(status, gin.H{"error": msg})
}
