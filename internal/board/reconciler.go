// Package board keeps a per-user kanban cache in sync with the backend.
// Mutations are applied to the cache first and persisted in the background;
// a failed write is rolled back and the list is refetched.
package board

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"taskmaster/internal/model"
	"taskmaster/pkg/metrics"
)

var (
	ErrTaskNotFound      = errors.New("board: task not found")
	ErrInvalidStatus     = errors.New("board: invalid status")
	ErrIllegalTransition = errors.New("board: transition not allowed by workflow")
	ErrInvalidPriority   = errors.New("board: invalid priority")
	ErrTitleRequired     = errors.New("board: title is required")
)

// Store is the backend as the board sees it.
type Store interface {
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	CreateTask(ctx context.Context, payload model.TaskPayload) (model.Task, error)
	UpdateTask(ctx context.Context, taskID string, payload model.TaskPayload) error
	DeleteTask(ctx context.Context, taskID, userID string) error
	UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) error
}

type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

type FailureRecorder interface {
	RecordFailedWrite(ctx context.Context, fw model.FailedWrite) error
}

// Column is one kanban column in display order.
type Column struct {
	Status model.TaskStatus `json:"status"`
	Title  string           `json:"title"`
	Tasks  []model.Task     `json:"tasks"`
}

type Option func(*Reconciler)

func WithClock(now func() time.Time) Option {
	return func(r *Reconciler) { r.now = now }
}

func WithWorkflow(w Workflow) Option {
	return func(r *Reconciler) { r.workflow = w }
}

func WithPublisher(p Publisher) Option {
	return func(r *Reconciler) { r.publisher = p }
}

func WithFailureRecorder(f FailureRecorder) Option {
	return func(r *Reconciler) { r.failures = f }
}

type Reconciler struct {
	userID string
	store  Store
	logger *zap.Logger

	now       func() time.Time
	workflow  Workflow
	publisher Publisher
	failures  FailureRecorder

	mu       sync.RWMutex
	tasks    []model.Task
	projects map[string]model.Project
	loaded   bool

	inflight sync.WaitGroup
	pending  atomic.Int64
}

func New(userID string, store Store, logger *zap.Logger, opts ...Option) *Reconciler {
	r := &Reconciler{
		userID:   userID,
		store:    store,
		logger:   logger.With(zap.String("user_id", userID)),
		now:      time.Now,
		workflow: Permissive,
		projects: make(map[string]model.Project),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Reconciler) UserID() string { return r.userID }

func (r *Reconciler) Workflow() Workflow { return r.workflow }

// Load replaces the cache with the backend task list. Projects are loaded
// best effort; they only feed the progress cascade.
func (r *Reconciler) Load(ctx context.Context) error {
	tasks, err := r.store.ListTasks(ctx, r.userID)
	if err != nil {
		return fmt.Errorf("load tasks: %w", err)
	}
	projects, perr := r.store.ListProjects(ctx, r.userID)
	if perr != nil {
		r.logger.Warn("board: failed to load projects", zap.Error(perr))
	}

	r.mu.Lock()
	r.tasks = tasks
	r.loaded = true
	if perr == nil {
		r.projects = make(map[string]model.Project, len(projects))
		for _, p := range projects {
			r.projects[p.ID] = p
		}
	}
	r.mu.Unlock()

	r.logger.Debug("board loaded", zap.Int("tasks", len(tasks)))
	return nil
}

func (r *Reconciler) Loaded() bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.loaded
}

// Tasks returns a copy of the cache in cache order.
func (r *Reconciler) Tasks() []model.Task {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]model.Task, len(r.tasks))
	for i, t := range r.tasks {
		out[i] = t.Clone()
	}
	return out
}

func (r *Reconciler) Task(id string) (model.Task, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if i := r.indexLocked(id); i >= 0 {
		return r.tasks[i].Clone(), true
	}
	return model.Task{}, false
}

func (r *Reconciler) Project(id string) (model.Project, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.projects[id]
	return p, ok
}

// Columns partitions the cache by status. Tasks with an unknown status are
// kept in the cache but appear in no column.
func (r *Reconciler) Columns() []Column {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cols := make([]Column, len(model.TaskStatuses))
	for i, s := range model.TaskStatuses {
		cols[i] = Column{Status: s, Title: s.Label(), Tasks: []model.Task{}}
	}
	for _, t := range r.tasks {
		if !t.Status.Valid() {
			continue
		}
		i := columnIndex(t.Status)
		cols[i].Tasks = append(cols[i].Tasks, t.Clone())
	}
	return cols
}

func (r *Reconciler) indexLocked(id string) int {
	for i := range r.tasks {
		if r.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// Wait blocks until every background write, rollback and cascade is done.
func (r *Reconciler) Wait() {
	r.inflight.Wait()
}

// Busy reports whether background work is still running.
func (r *Reconciler) Busy() bool {
	return r.pending.Load() > 0
}

func (r *Reconciler) begin() {
	r.pending.Add(1)
	r.inflight.Add(1)
}

func (r *Reconciler) end() {
	r.pending.Add(-1)
	r.inflight.Done()
}

// OnDrop moves a task to another column.
func (r *Reconciler) OnDrop(ctx context.Context, taskID string, target model.TaskStatus) (*Op, error) {
	if !target.Valid() {
		metrics.IncrementBoardOperation(kindMove, "rejected")
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, target)
	}
	return r.execute(ctx, moveCommand(taskID, target, r.workflow))
}

// OnQuickEdit renames a task. A blank title cancels the edit silently.
func (r *Reconciler) OnQuickEdit(ctx context.Context, taskID, title string) (*Op, error) {
	return r.execute(ctx, renameCommand(taskID, strings.TrimSpace(title)))
}

func (r *Reconciler) OnPriorityChange(ctx context.Context, taskID string, p model.Priority) (*Op, error) {
	if !p.Valid() {
		metrics.IncrementBoardOperation(kindPriority, "rejected")
		return nil, fmt.Errorf("%w: %q", ErrInvalidPriority, p)
	}
	return r.execute(ctx, priorityCommand(taskID, p))
}

func (r *Reconciler) execute(ctx context.Context, cmd command) (*Op, error) {
	r.mu.Lock()
	idx := r.indexLocked(cmd.taskID)
	if idx < 0 {
		r.mu.Unlock()
		metrics.IncrementBoardOperation(cmd.kind, "rejected")
		return nil, ErrTaskNotFound
	}
	cur := r.tasks[idx]
	noop, err := cmd.check(cur)
	if err != nil {
		r.mu.Unlock()
		metrics.IncrementBoardOperation(cmd.kind, "rejected")
		return nil, err
	}
	if noop {
		r.mu.Unlock()
		metrics.IncrementBoardOperation(cmd.kind, "noop")
		return noopOp(cmd.kind, cur.Clone()), nil
	}

	before := cur.Clone()
	cmd.apply(&r.tasks[idx], r.now())
	after := r.tasks[idx].Clone()
	r.begin()
	r.mu.Unlock()

	metrics.IncrementBoardOperation(cmd.kind, "applied")
	op := newOp(cmd.kind, after)

	// the request context ends as soon as the handler answers
	bg := context.WithoutCancel(ctx)
	go func() {
		defer r.end()
		r.persist(bg, cmd, op, before, after)
	}()
	return op, nil
}

func (r *Reconciler) persist(ctx context.Context, cmd command, op *Op, before, after model.Task) {
	err := r.store.UpdateTask(ctx, after.ID, after.Payload(r.userID))
	if err != nil {
		r.rollback(ctx, cmd, before, after, err)
		metrics.IncrementBoardOperation(cmd.kind, "rolled_back")
		op.finish(fmt.Errorf("%s %s: %w", cmd.kind, after.ID, err))
		return
	}

	metrics.IncrementBoardOperation(cmd.kind, "persisted")
	if cmd.kind == kindMove {
		r.publish(ctx, EventTaskStatusChanged, TaskStatusChanged{
			UserID:    r.userID,
			TaskID:    after.ID,
			ProjectID: after.ProjectID,
			From:      before.Status,
			To:        after.Status,
			At:        r.now(),
		})
		if after.ProjectID != "" && (before.IsCompleted() || after.IsCompleted()) {
			r.begin()
			go func() {
				defer r.end()
				r.cascade(ctx, after.ProjectID)
			}()
		}
	}
	op.finish(nil)
}

// rollback restores the fields the command touched, then refetches. The
// restore is skipped when a newer operation already overwrote the value.
func (r *Reconciler) rollback(ctx context.Context, cmd command, before, after model.Task, cause error) {
	r.mu.Lock()
	if idx := r.indexLocked(after.ID); idx >= 0 && cmd.holds(r.tasks[idx]) {
		cmd.revert(&r.tasks[idx], before)
	}
	r.mu.Unlock()

	r.logger.Warn("board: write failed, rolled back",
		zap.String("op", cmd.kind),
		zap.String("task_id", after.ID),
		zap.Error(cause),
	)
	r.recordFailure(ctx, "task", after.ID, cmd.kind, after.Payload(r.userID), cause)

	tasks, err := r.store.ListTasks(ctx, r.userID)
	if err != nil {
		r.logger.Warn("board: refetch after rollback failed, keeping snapshot",
			zap.String("task_id", after.ID),
			zap.Error(err),
		)
		return
	}
	r.mu.Lock()
	r.tasks = tasks
	r.mu.Unlock()
}

// Create is not optimistic: the backend assigns the id.
func (r *Reconciler) Create(ctx context.Context, payload model.TaskPayload) (model.Task, error) {
	payload.UserID = r.userID
	if strings.TrimSpace(payload.Title) == "" {
		return model.Task{}, ErrTitleRequired
	}
	if payload.Status == model.TaskUnknown {
		payload.Status = model.TaskTodo
	}
	if !payload.Status.Valid() {
		return model.Task{}, fmt.Errorf("%w: %q", ErrInvalidStatus, payload.Status)
	}
	if payload.Priority == model.PriorityUnknown {
		payload.Priority = model.PriorityMedium
	}

	task, err := r.store.CreateTask(ctx, payload)
	if err != nil {
		metrics.IncrementBoardOperation(kindCreate, "failed")
		return model.Task{}, err
	}
	if task.ID == "" {
		// backend did not echo the record; pick it up on the next load
		metrics.IncrementBoardOperation(kindCreate, "persisted")
		return task, r.Load(ctx)
	}
	r.mu.Lock()
	r.tasks = append(r.tasks, task.Clone())
	r.mu.Unlock()
	metrics.IncrementBoardOperation(kindCreate, "persisted")
	return task, nil
}

// Delete removes the task once the backend has confirmed.
func (r *Reconciler) Delete(ctx context.Context, taskID string) error {
	if _, ok := r.Task(taskID); !ok {
		return ErrTaskNotFound
	}
	if err := r.store.DeleteTask(ctx, taskID, r.userID); err != nil {
		metrics.IncrementBoardOperation(kindDelete, "failed")
		return err
	}
	r.mu.Lock()
	if idx := r.indexLocked(taskID); idx >= 0 {
		r.tasks = append(r.tasks[:idx:idx], r.tasks[idx+1:]...)
	}
	r.mu.Unlock()
	metrics.IncrementBoardOperation(kindDelete, "persisted")
	return nil
}

func (r *Reconciler) recordFailure(ctx context.Context, entity, id, operation string, payload any, cause error) {
	if r.failures == nil {
		return
	}
	fw := model.FailedWrite{
		UserID:     r.userID,
		Entity:     entity,
		EntityID:   id,
		Operation:  operation,
		Payload:    payload,
		Error:      cause.Error(),
		OccurredAt: r.now(),
	}
	if err := r.failures.RecordFailedWrite(ctx, fw); err != nil {
		r.logger.Error("board: failed to record failed write", zap.Error(err))
	}
}
