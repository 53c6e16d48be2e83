package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"taskmaster/internal/board"
	"taskmaster/internal/model"
	"taskmaster/internal/repository"
	"taskmaster/pkg/logger"
	"taskmaster/pkg/rbac"
)

// FailedWriteLister is satisfied by *repository.FailedWriteRepository.
type FailedWriteLister interface {
	ListRecent(ctx context.Context, userID string, limit int) ([]repository.FailedWriteRecord, error)
}

type BoardHandler struct {
	boards   *board.Registry
	failures FailedWriteLister
	logger   *zap.Logger
}

// NewBoardHandler accepts a nil failures lister when no database is configured.
func NewBoardHandler(boards *board.Registry, failures FailedWriteLister, logger *zap.Logger) *BoardHandler {
	return &BoardHandler{boards: boards, failures: failures, logger: logger}
}

func (h *BoardHandler) board(c *gin.Context) (*board.Reconciler, bool) {
	sess, ok := getSession(c)
	if !ok {
		return nil, false
	}
	b, err := h.boards.Get(c.Request.Context(), sess)
	if err != nil {
		logger.WithTrace(c.Request.Context(), h.logger).Warn("board: load failed",
			zap.String("user_id", sess.UserID()),
			zap.Error(err),
		)
		respondError(c, err)
		return nil, false
	}
	return b, true
}

func columnsBody(b *board.Reconciler) gin.H {
	return gin.H{
		"columns":  b.Columns(),
		"workflow": b.Workflow().Name(),
	}
}

// GetBoard handles GET /api/board
func (h *BoardHandler) GetBoard(c *gin.Context) {
	b, ok := h.board(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, columnsBody(b))
}

// Reload handles POST /api/board/reload
func (h *BoardHandler) Reload(c *gin.Context) {
	b, ok := h.board(c)
	if !ok {
		return
	}
	if err := b.Load(c.Request.Context()); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, columnsBody(b))
}

// MoveTask handles POST /api/board/tasks/:id/move
func (h *BoardHandler) MoveTask(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status is required"})
		return
	}
	status := model.ParseTaskStatus(req.Status)
	if !status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(req.Status)})
		return
	}

	b, ok := h.board(c)
	if !ok {
		return
	}
	op, err := b.OnDrop(c.Request.Context(), c.Param("id"), status)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOp(c, b, op)
}

// RenameTask handles PATCH /api/board/tasks/:id/title
func (h *BoardHandler) RenameTask(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}

	b, ok := h.board(c)
	if !ok {
		return
	}
	op, err := b.OnQuickEdit(c.Request.Context(), c.Param("id"), req.Title)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOp(c, b, op)
}

// ChangePriority handles PATCH /api/board/tasks/:id/priority
func (h *BoardHandler) ChangePriority(c *gin.Context) {
	var req struct {
		Priority string `json:"priority" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "priority is required"})
		return
	}
	p := model.ParsePriority(req.Priority)
	if !p.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown priority " + strconv.Quote(req.Priority)})
		return
	}

	b, ok := h.board(c)
	if !ok {
		return
	}
	op, err := b.OnPriorityChange(c.Request.Context(), c.Param("id"), p)
	if err != nil {
		respondError(c, err)
		return
	}
	h.respondOp(c, b, op)
}

// respondOp answers 202 with the optimistic task, or waits when ?wait=true.
func (h *BoardHandler) respondOp(c *gin.Context, b *board.Reconciler, op *board.Op) {
	if op.Noop() {
		c.JSON(http.StatusOK, gin.H{"task": op.Task, "noop": true})
		return
	}
	if wait, _ := strconv.ParseBool(c.Query("wait")); !wait {
		c.JSON(http.StatusAccepted, gin.H{"task": op.Task, "pending": true})
		return
	}

	if err := op.Wait(c.Request.Context()); err != nil {
		logger.WithTrace(c.Request.Context(), h.logger).Warn("board: operation rolled back",
			zap.String("op", op.Kind),
			zap.String("task_id", op.Task.ID),
			zap.Error(err),
		)
		body := gin.H{"error": "change was not saved and has been rolled back", "rolledBack": true}
		if current, ok := b.Task(op.Task.ID); ok {
			body["task"] = current
		}
		status := http.StatusBadGateway
		if errorStatus(err) == http.StatusUnauthorized {
			status = http.StatusUnauthorized
		}
		c.JSON(status, body)
		return
	}
	current, ok := b.Task(op.Task.ID)
	if !ok {
		current = op.Task
	}
	c.JSON(http.StatusOK, gin.H{"task": current})
}

type createTaskRequest struct {
	UserID      string `json:"userId"`
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	ProjectID   string `json:"projectId"`
	Priority    string `json:"priority"`
	Status      string `json:"status"`
	AssigneeID  string `json:"assigneeId"`
	DueDate     string `json:"dueDate"`
}

// CreateTask handles POST /api/board/tasks
func (h *BoardHandler) CreateTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title is required"})
		return
	}
	sess, ok := getSession(c)
	if !ok {
		return
	}
	if err := rbac.ValidateUserIDInPayload(sess.UserID(), req.UserID); err != nil {
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		return
	}

	payload := model.TaskPayload{
		Title:       req.Title,
		Description: req.Description,
		ProjectID:   req.ProjectID,
		Priority:    model.ParsePriority(req.Priority),
		Status:      model.ParseTaskStatus(req.Status),
		AssigneeID:  req.AssigneeID,
	}
	if req.Status != "" && !payload.Status.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + strconv.Quote(req.Status)})
		return
	}
	if due := model.ParseTime(req.DueDate); !due.IsZero() {
		payload.DueDate = &due
	}

	b, ok := h.board(c)
	if !ok {
		return
	}
	task, err := b.Create(c.Request.Context(), payload)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"task": task})
}

// DeleteTask handles DELETE /api/board/tasks/:id
func (h *BoardHandler) DeleteTask(c *gin.Context) {
	b, ok := h.board(c)
	if !ok {
		return
	}
	if err := b.Delete(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// FailedWrites handles GET /api/board/failed-writes
func (h *BoardHandler) FailedWrites(c *gin.Context) {
	sess, ok := getSession(c)
	if !ok {
		return
	}
	if h.failures == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "failed write ledger is not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	records, err := h.failures.ListRecent(c.Request.Context(), sess.UserID(), limit)
	if err != nil {
		h.logger.Error("FailedWrites: query failed", zap.String("user_id", sess.UserID()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch failed writes"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"failedWrites": records})
}
