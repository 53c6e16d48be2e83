package board

import (
	"context"
	"testing"
	"time"

	"taskmaster/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

func loadedBoard(t *testing.T, store *fakeStore, opts ...Option) *Reconciler {
	t.Helper()
	opts = append([]Option{WithClock(func() time.Time { return fixedNow })}, opts...)
	r := New("u1", store, zap.NewNop(), opts...)
	require.NoError(t, r.Load(context.Background()))
	return r
}

func task(id string, status model.TaskStatus, project string) model.Task {
	return model.Task{ID: id, Title: "Task " + id, Description: "desc " + id, ProjectID: project, Priority: model.PriorityMedium, Status: status, AssigneeID: "u2"}
}

func TestOnDropSameColumnIsNoop(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, "p1"))
	r := loadedBoard(t, store)

	op, err := r.OnDrop(context.Background(), "t1", model.TaskTodo)
	require.NoError(t, err)
	assert.True(t, op.Noop())
	require.NoError(t, op.Wait(context.Background()))
	r.Wait()

	assert.Equal(t, 0, store.updateCount())
	got, _ := r.Task("t1")
	assert.Equal(t, model.TaskTodo, got.Status)
	assert.Nil(t, got.StartedAt)
}

func TestOnDropAppliesBeforePersisting(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskReview, ""))
	release := make(chan struct{})
	store.update = func(string, model.TaskPayload) error {
		<-release
		return nil
	}
	r := loadedBoard(t, store)

	op, err := r.OnDrop(context.Background(), "t1", model.TaskCompleted)
	require.NoError(t, err)
	assert.False(t, op.Noop())

	// visible while the write is still pending
	got, _ := r.Task("t1")
	assert.Equal(t, model.TaskCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.True(t, got.CompletedAt.Equal(fixedNow))
	assert.Equal(t, model.TaskCompleted, op.Task.Status)

	close(release)
	require.NoError(t, op.Wait(context.Background()))
	r.Wait()

	require.Equal(t, 1, store.updateCount())
	sent := store.updates[0]
	assert.Equal(t, model.TaskCompleted, sent.Status)
	assert.Equal(t, "Task t1", sent.Title)
	assert.Equal(t, "desc t1", sent.Description)
	assert.Equal(t, model.PriorityMedium, sent.Priority)
	assert.Equal(t, "u2", sent.AssigneeID)
	assert.Equal(t, "u1", sent.UserID)
	require.NotNil(t, sent.CompletedAt)
}

func TestOnDropStampsTimestamps(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	r := loadedBoard(t, store)

	op, err := r.OnDrop(context.Background(), "t1", model.TaskInProgress)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	got, _ := r.Task("t1")
	require.NotNil(t, got.StartedAt)
	assert.Nil(t, got.ReviewedAt)

	op, err = r.OnDrop(context.Background(), "t1", model.TaskReview)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	got, _ = r.Task("t1")
	require.NotNil(t, got.ReviewedAt)
	assert.Nil(t, got.CompletedAt)
	r.Wait()
}

func TestOnDropFailureRollsBackViaRefetch(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, "p1"))
	store.update = func(string, model.TaskPayload) error { return errBackend }
	rec := &fakeRecorder{}
	pub := &fakePublisher{}
	r := loadedBoard(t, store, WithFailureRecorder(rec), WithPublisher(pub))

	// the server still has the task in TODO
	store.setServerTasks(task("t1", model.TaskTodo, "p1"))

	op, err := r.OnDrop(context.Background(), "t1", model.TaskInProgress)
	require.NoError(t, err)
	got, _ := r.Task("t1")
	assert.Equal(t, model.TaskInProgress, got.Status)

	err = op.Wait(context.Background())
	assert.ErrorIs(t, err, errBackend)
	r.Wait()

	got, _ = r.Task("t1")
	assert.Equal(t, model.TaskTodo, got.Status)
	assert.Nil(t, got.StartedAt)
	assert.Equal(t, 2, store.listCalls)
	assert.Empty(t, store.patches, "no cascade after a failed move")
	assert.Empty(t, pub.published())

	writes := rec.recorded()
	require.Len(t, writes, 1)
	assert.Equal(t, "task", writes[0].Entity)
	assert.Equal(t, "t1", writes[0].EntityID)
	assert.Equal(t, "move", writes[0].Operation)
}

func TestRollbackKeepsSnapshotWhenRefetchFails(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	store.update = func(string, model.TaskPayload) error { return errBackend }
	r := loadedBoard(t, store)
	store.setListErr(errBackend)

	op, err := r.OnDrop(context.Background(), "t1", model.TaskCompleted)
	require.NoError(t, err)
	assert.Error(t, op.Wait(context.Background()))
	r.Wait()

	got, _ := r.Task("t1")
	assert.Equal(t, model.TaskTodo, got.Status)
	assert.Nil(t, got.CompletedAt)
}

func TestStaleRollbackDoesNotClobberNewerValue(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	release := make(chan struct{})
	store.update = func(_ string, p model.TaskPayload) error {
		if p.Title == "First" {
			<-release
			return errBackend
		}
		return nil
	}
	r := loadedBoard(t, store)

	first, err := r.OnQuickEdit(context.Background(), "t1", "First")
	require.NoError(t, err)
	second, err := r.OnQuickEdit(context.Background(), "t1", "Second")
	require.NoError(t, err)
	require.NoError(t, second.Wait(context.Background()))

	store.setListErr(errBackend)
	close(release)
	assert.Error(t, first.Wait(context.Background()))
	r.Wait()

	got, _ := r.Task("t1")
	assert.Equal(t, "Second", got.Title)
}

func TestOnDropValidation(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	r := loadedBoard(t, store)

	_, err := r.OnDrop(context.Background(), "t1", model.TaskStatus("ARCHIVED"))
	assert.ErrorIs(t, err, ErrInvalidStatus)

	_, err = r.OnDrop(context.Background(), "missing", model.TaskReview)
	assert.ErrorIs(t, err, ErrTaskNotFound)

	r.Wait()
	assert.Equal(t, 0, store.updateCount())
}

func TestPermissiveAllowsAnyMove(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	r := loadedBoard(t, store)

	for _, to := range []model.TaskStatus{model.TaskCompleted, model.TaskTodo, model.TaskReview} {
		op, err := r.OnDrop(context.Background(), "t1", to)
		require.NoError(t, err, "to %s", to)
		require.NoError(t, op.Wait(context.Background()))
	}
	r.Wait()
	assert.Equal(t, 3, store.updateCount())
}

func TestStrictWorkflowRejectsSkips(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	r := loadedBoard(t, store, WithWorkflow(Strict))

	_, err := r.OnDrop(context.Background(), "t1", model.TaskReview)
	assert.ErrorIs(t, err, ErrIllegalTransition)
	_, err = r.OnDrop(context.Background(), "t1", model.TaskCompleted)
	assert.ErrorIs(t, err, ErrIllegalTransition)

	for _, to := range []model.TaskStatus{model.TaskInProgress, model.TaskReview, model.TaskCompleted, model.TaskTodo} {
		op, err := r.OnDrop(context.Background(), "t1", to)
		require.NoError(t, err, "to %s", to)
		require.NoError(t, op.Wait(context.Background()))
	}
	r.Wait()
	got, _ := r.Task("t1")
	assert.Equal(t, model.TaskTodo, got.Status)
}

func TestCascadeUpdatesProject(t *testing.T) {
	store := newFakeStore(
		task("t1", model.TaskCompleted, "p1"),
		task("t2", model.TaskTodo, "p1"),
		task("t3", model.TaskTodo, "p1"),
		task("t4", model.TaskTodo, "p2"),
	)
	store.projects = []model.Project{{ID: "p1", Name: "Apollo", Status: model.ProjectPlanning}}
	pub := &fakePublisher{}
	r := loadedBoard(t, store, WithPublisher(pub))

	op, err := r.OnDrop(context.Background(), "t2", model.TaskCompleted)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	r.Wait()

	patch, ok := store.patches["p1"]
	require.True(t, ok)
	assert.Equal(t, 67, patch.Progress)
	assert.Equal(t, model.ProjectActive, patch.Status)
	assert.Equal(t, "u1", patch.UserID)
	_, touched := store.patches["p2"]
	assert.False(t, touched)

	p, _ := r.Project("p1")
	assert.Equal(t, 67, p.Progress)
	assert.Equal(t, model.ProjectActive, p.Status)
	assert.ElementsMatch(t, []string{EventTaskStatusChanged, EventProjectProgressUpdated}, pub.published())

	op, err = r.OnDrop(context.Background(), "t3", model.TaskCompleted)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	r.Wait()
	assert.Equal(t, model.ProjectPatch{UserID: "u1", Status: model.ProjectCompleted, Progress: 100}, store.patches["p1"])

	// reopening drops progress again
	op, err = r.OnDrop(context.Background(), "t1", model.TaskInProgress)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	r.Wait()
	assert.Equal(t, 67, store.patches["p1"].Progress)
}

func TestNoCascadeOutsideCompletedColumn(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, "p1"))
	r := loadedBoard(t, store)

	op, err := r.OnDrop(context.Background(), "t1", model.TaskInProgress)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	r.Wait()
	assert.Empty(t, store.patches)
}

func TestCascadeFailureKeepsTaskMove(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskReview, "p1"))
	store.projectErr = errBackend
	rec := &fakeRecorder{}
	r := loadedBoard(t, store, WithFailureRecorder(rec))

	op, err := r.OnDrop(context.Background(), "t1", model.TaskCompleted)
	require.NoError(t, err)
	require.NoError(t, op.Wait(context.Background()))
	r.Wait()

	got, _ := r.Task("t1")
	assert.Equal(t, model.TaskCompleted, got.Status)
	writes := rec.recorded()
	require.Len(t, writes, 1)
	assert.Equal(t, "project", writes[0].Entity)
	assert.Equal(t, "p1", writes[0].EntityID)
}

func TestOnQuickEdit(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	r := loadedBoard(t, store)

	op, err := r.OnQuickEdit(context.Background(), "t1", "   ")
	require.NoError(t, err)
	assert.True(t, op.Noop())

	op, err = r.OnQuickEdit(context.Background(), "t1", "  Renamed  ")
	require.NoError(t, err)
	got, _ := r.Task("t1")
	assert.Equal(t, "Renamed", got.Title)
	require.NoError(t, op.Wait(context.Background()))

	_, err = r.OnQuickEdit(context.Background(), "nope", "x")
	assert.ErrorIs(t, err, ErrTaskNotFound)

	r.Wait()
	require.Equal(t, 1, store.updateCount())
	assert.Equal(t, "Renamed", store.updates[0].Title)
	assert.Equal(t, model.TaskTodo, store.updates[0].Status)
}

func TestOnPriorityChange(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	store.update = func(string, model.TaskPayload) error { return errBackend }
	r := loadedBoard(t, store)

	_, err := r.OnPriorityChange(context.Background(), "t1", model.Priority("SOMEDAY"))
	assert.ErrorIs(t, err, ErrInvalidPriority)

	op, err := r.OnPriorityChange(context.Background(), "t1", model.PriorityHigh)
	require.NoError(t, err)
	assert.Equal(t, model.PriorityHigh, op.Task.Priority)
	assert.Error(t, op.Wait(context.Background()))
	r.Wait()

	got, _ := r.Task("t1")
	assert.Equal(t, model.PriorityMedium, got.Priority)
}

func TestColumnsSkipUnknownStatus(t *testing.T) {
	store := newFakeStore(
		task("t1", model.TaskReview, ""),
		task("t2", model.TaskUnknown, ""),
		task("t3", model.TaskTodo, ""),
		task("t4", model.TaskReview, ""),
	)
	r := loadedBoard(t, store)

	cols := r.Columns()
	require.Len(t, cols, 4)
	assert.Equal(t, model.TaskTodo, cols[0].Status)
	assert.Equal(t, "To Do", cols[0].Title)
	assert.Len(t, cols[0].Tasks, 1)
	assert.Empty(t, cols[1].Tasks)
	require.Len(t, cols[2].Tasks, 2)
	assert.Equal(t, "t1", cols[2].Tasks[0].ID)
	assert.Equal(t, "t4", cols[2].Tasks[1].ID)
	assert.Len(t, r.Tasks(), 4)
}

func TestCreateAndDelete(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	r := loadedBoard(t, store)

	_, err := r.Create(context.Background(), model.TaskPayload{Title: "  "})
	assert.ErrorIs(t, err, ErrTitleRequired)

	created, err := r.Create(context.Background(), model.TaskPayload{Title: "Fresh"})
	require.NoError(t, err)
	assert.Equal(t, model.TaskTodo, created.Status)
	assert.Equal(t, model.PriorityMedium, created.Priority)
	_, ok := r.Task("new-1")
	assert.True(t, ok)

	require.NoError(t, r.Delete(context.Background(), "t1"))
	_, ok = r.Task("t1")
	assert.False(t, ok)
	assert.Equal(t, []string{"t1"}, store.deleted)
	assert.ErrorIs(t, r.Delete(context.Background(), "t1"), ErrTaskNotFound)
}

func TestOpWaitHonoursContext(t *testing.T) {
	store := newFakeStore(task("t1", model.TaskTodo, ""))
	release := make(chan struct{})
	store.update = func(string, model.TaskPayload) error {
		<-release
		return nil
	}
	r := loadedBoard(t, store)

	op, err := r.OnDrop(context.Background(), "t1", model.TaskInProgress)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, op.Wait(ctx), context.DeadlineExceeded)

	close(release)
	require.NoError(t, op.Wait(context.Background()))
	r.Wait()
}
