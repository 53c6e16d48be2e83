package board

import (
	"testing"

	"taskmaster/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStrictAllow(t *testing.T) {
	cases := []struct {
		from, to model.TaskStatus
		want     bool
	}{
		{model.TaskTodo, model.TaskInProgress, true},
		{model.TaskTodo, model.TaskReview, false},
		{model.TaskTodo, model.TaskCompleted, false},
		{model.TaskInProgress, model.TaskReview, true},
		{model.TaskInProgress, model.TaskCompleted, false},
		{model.TaskReview, model.TaskCompleted, true},
		{model.TaskCompleted, model.TaskTodo, true},
		{model.TaskReview, model.TaskInProgress, true},
		{model.TaskUnknown, model.TaskInProgress, true},
		{model.TaskUnknown, model.TaskReview, false},
		{model.TaskTodo, model.TaskUnknown, false},
	}
	for _, c := range cases {
		assert.Equal(t, c.want, Strict.Allow(c.from, c.to), "%s -> %s", c.from, c.to)
	}
	assert.True(t, Permissive.Allow(model.TaskTodo, model.TaskCompleted))
	assert.False(t, Permissive.Allow(model.TaskTodo, model.TaskUnknown))
}

func TestParseWorkflow(t *testing.T) {
	w, err := ParseWorkflow("")
	require.NoError(t, err)
	assert.Equal(t, "permissive", w.Name())

	w, err = ParseWorkflow(" Strict ")
	require.NoError(t, err)
	assert.Equal(t, "strict", w.Name())

	_, err = ParseWorkflow("kanban")
	assert.Error(t, err)
}

func TestProjectProgress(t *testing.T) {
	cases := []struct {
		completed, total int
		progress         int
		status           model.ProjectStatus
	}{
		{2, 3, 67, model.ProjectActive},
		{1, 3, 33, model.ProjectActive},
		{1, 2, 50, model.ProjectActive},
		{1, 200, 1, model.ProjectActive},
		{0, 4, 0, model.ProjectPlanning},
		{4, 4, 100, model.ProjectCompleted},
		{0, 0, 0, model.ProjectPlanning},
	}
	for _, c := range cases {
		p, s := ProjectProgress(c.completed, c.total)
		assert.Equal(t, c.progress, p, "%d/%d", c.completed, c.total)
		assert.Equal(t, c.status, s, "%d/%d", c.completed, c.total)
	}
}
