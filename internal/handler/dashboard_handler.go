package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskmaster/internal/dashboard"
	"taskmaster/pkg/logger"
)

type DashboardHandler struct {
	svc    *dashboard.Service
	logger *zap.Logger
}

func NewDashboardHandler(svc *dashboard.Service, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{svc: svc, logger: logger}
}

// GetDashboard handles GET /api/dashboard
func (h *DashboardHandler) GetDashboard(c *gin.Context) {
	sess, ok := getSession(c)
	if !ok {
		return
	}
	snap, err := h.svc.Snapshot(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	logger.WithTrace(c.Request.Context(), h.logger).Debug("GetDashboard: success",
		zap.String("user_id", sess.UserID()),
		zap.Int("projects", snap.Stats.TotalProjects),
	)
	c.JSON(http.StatusOK, snap)
}

// GetOverview handles GET /api/dashboard/overview
func (h *DashboardHandler) GetOverview(c *gin.Context) {
	sess, ok := getSession(c)
	if !ok {
		return
	}
	o, err := h.svc.Overview(c.Request.Context(), sess)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// Share handles POST /api/dashboard/share
func (h *DashboardHandler) Share(c *gin.Context) {
	sess, ok := getSession(c)
	if !ok {
		return
	}
	link, err := h.svc.Share(c.Request.Context(), sess)
	if err != nil {
		logger.WithTrace(c.Request.Context(), h.logger).Warn("Share: backend call failed",
			zap.String("user_id", sess.UserID()),
			zap.Error(err),
		)
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, link)
}

// RefreshShared handles POST /api/dashboard/refresh-shared
func (h *DashboardHandler) RefreshShared(c *gin.Context) {
	sess, ok := getSession(c)
	if !ok {
		return
	}
	if err := h.svc.RefreshShared(c.Request.Context(), sess); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// PublicDashboard handles GET /api/public/dashboard/:shareId (no auth)
func (h *DashboardHandler) PublicDashboard(c *gin.Context) {
	shareID := strings.TrimSpace(c.Param("shareId"))
	if shareID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "shareId required"})
		return
	}
	d, err := h.svc.Public(c.Request.Context(), shareID)
	if err != nil {
		status := errorStatus(err)
		if status == http.StatusNotFound {
			c.JSON(status, gin.H{"error": "shared dashboard not found"})
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}
