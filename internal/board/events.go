package board

import (
	"context"
	"time"

	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/pkg/mq"
	"taskmaster/pkg/trace"
)

const (
	EventTaskStatusChanged      = "task.status_changed"
	EventProjectProgressUpdated = "project.progress_updated"
)

type TaskStatusChanged struct {
	UserID    string           `json:"user_id"`
	TaskID    string           `json:"task_id"`
	ProjectID string           `json:"project_id,omitempty"`
	From      model.TaskStatus `json:"from"`
	To        model.TaskStatus `json:"to"`
	At        time.Time        `json:"at"`
}

type ProjectProgressUpdated struct {
	UserID    string              `json:"user_id"`
	ProjectID string              `json:"project_id"`
	Progress  int                 `json:"progress"`
	Status    model.ProjectStatus `json:"status"`
	Completed int                 `json:"completed"`
	Total     int                 `json:"total"`
	At        time.Time           `json:"at"`
}

// publish 失败只记日志，不影响看板操作
func (r *Reconciler) publish(ctx context.Context, routingKey string, payload any) {
	if r.publisher == nil {
		return
	}
	ev, err := mq.NewEvent(routingKey, trace.FromContext(ctx), r.now(), payload)
	if err != nil {
		r.logger.Error("board: failed to encode event", zap.String("routing_key", routingKey), zap.Error(err))
		return
	}
	if err := r.publisher.Publish(ctx, routingKey, ev); err != nil {
		r.logger.Warn("board: failed to publish event", zap.String("routing_key", routingKey), zap.Error(err))
	}
}
