package httpserver

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskmaster/internal/handler"
	"taskmaster/internal/session"
	"taskmaster/pkg/logger"
	"taskmaster/pkg/metrics"
	"taskmaster/pkg/rbac"
	"taskmaster/pkg/trace"
)

// UserIDHeader lets clients with opaque tokens name the user explicitly.
const UserIDHeader = "X-User-ID"

// ExtractToken returns the bearer token of the request, or "".
func ExtractToken(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if auth == "" {
		return ""
	}

	parts := strings.Fields(auth)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return parts[1]
}

// TraceMiddleware 读取或生成 trace id，写入 context 和响应头
func TraceMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		traceID := trace.FromHeader(c.GetHeader(trace.HeaderName()))
		c.Request = c.Request.WithContext(trace.WithContext(c.Request.Context(), traceID))
		c.Header(trace.HeaderName(), traceID)
		c.Next()
	}
}

// RequestLogger 请求日志 + 请求耗时指标
func RequestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordHTTPRequestDuration(c.Request.Method, route, strconv.Itoa(c.Writer.Status()), latency)

		logger.WithTrace(c.Request.Context(), log).Info("HTTP Request",
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.String("query", query),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", latency),
			zap.String("client_ip", c.ClientIP()),
			zap.String("user_agent", c.Request.UserAgent()),
		)
	}
}

// AuthMiddleware turns the bearer token into a session. The signature is
// checked by the backend on every call it receives.
func AuthMiddleware(now func() time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := ExtractToken(c.Request)
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "missing token"})
			c.Abort()
			return
		}

		sess, err := session.FromToken(token, strings.TrimSpace(c.GetHeader(UserIDHeader)))
		if errors.Is(err, session.ErrUserMismatch) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user id does not match token"})
			c.Abort()
			return
		}
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			c.Abort()
			return
		}
		if sess.Expired(now()) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "token expired"})
			c.Abort()
			return
		}

		c.Set(handler.SessionKey, sess)
		c.Set("user_id", sess.UserID())
		c.Next()
	}
}

// RequirePermission 中间件：要求用户具有指定权限
func RequirePermission(permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		v, exists := c.Get(handler.SessionKey)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			c.Abort()
			return
		}
		sess, ok := v.(*session.Session)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "invalid session"})
			c.Abort()
			return
		}

		if err := rbac.CheckPermission(sess.Role(), permission); err != nil {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			c.Abort()
			return
		}

		c.Next()
	}
}
