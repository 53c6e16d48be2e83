package board

import (
	"context"
	"math"

	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/pkg/metrics"
)

// ProjectProgress derives a project's progress and status from its task
// counts: COMPLETED at 100, ACTIVE above 0, PLANNING otherwise.
func ProjectProgress(completed, total int) (int, model.ProjectStatus) {
	if total <= 0 {
		return 0, model.ProjectPlanning
	}
	progress := int(math.Floor(float64(completed)*100/float64(total) + 0.5))
	switch {
	case progress >= 100:
		return 100, model.ProjectCompleted
	case progress > 0:
		return progress, model.ProjectActive
	}
	return 0, model.ProjectPlanning
}

// cascade recomputes the owning project from the cache and writes it back.
// Failures are logged and recorded; the task move stands.
func (r *Reconciler) cascade(ctx context.Context, projectID string) {
	r.mu.RLock()
	completed, total := 0, 0
	for _, t := range r.tasks {
		if t.ProjectID != projectID {
			continue
		}
		total++
		if t.IsCompleted() {
			completed++
		}
	}
	r.mu.RUnlock()

	progress, status := ProjectProgress(completed, total)
	patch := model.ProjectPatch{UserID: r.userID, Status: status, Progress: progress}
	if err := r.store.UpdateProject(ctx, projectID, patch); err != nil {
		metrics.IncrementCascadeFailure()
		r.logger.Warn("board: project progress update failed",
			zap.String("project_id", projectID),
			zap.Int("progress", progress),
			zap.Error(err),
		)
		r.recordFailure(ctx, "project", projectID, "progress", patch, err)
		return
	}

	r.mu.Lock()
	if p, ok := r.projects[projectID]; ok {
		p.Progress = progress
		p.Status = status
		r.projects[projectID] = p
	}
	r.mu.Unlock()

	r.publish(ctx, EventProjectProgressUpdated, ProjectProgressUpdated{
		UserID:    r.userID,
		ProjectID: projectID,
		Progress:  progress,
		Status:    status,
		Completed: completed,
		Total:     total,
		At:        r.now(),
	})
}
