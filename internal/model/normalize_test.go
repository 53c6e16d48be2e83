package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTaskStatusSpellings(t *testing.T) {
	cases := map[string]TaskStatus{
		"TODO":        TaskTodo,
		"to-do":       TaskTodo,
		"In Progress": TaskInProgress,
		"in_progress": TaskInProgress,
		"review":      TaskReview,
		"Done":        TaskCompleted,
		"DONE":        TaskCompleted,
		"completed":   TaskCompleted,
		"COMPLETED":   TaskCompleted,
		"closed":      TaskUnknown,
		"complete":    TaskUnknown,
		"Planning":    TaskUnknown,
		"archived":    TaskUnknown,
		"":            TaskUnknown,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseTaskStatus(in), in)
	}
}

func TestParseProjectStatusAndPriority(t *testing.T) {
	assert.Equal(t, ProjectActive, ParseProjectStatus("IN_PROGRESS"))
	assert.Equal(t, ProjectOnHold, ParseProjectStatus("On Hold"))
	assert.Equal(t, ProjectCompleted, ParseProjectStatus("Done"))
	assert.Equal(t, ProjectOnHold, ParseProjectStatus("ON_HOLD"))
	assert.Equal(t, ProjectUnknown, ParseProjectStatus("whatever"))
	for _, s := range []string{"TODO", "paused", "hold", "complete", "planned"} {
		assert.Equal(t, ProjectUnknown, ParseProjectStatus(s), s)
	}

	assert.Equal(t, PriorityHigh, ParsePriority("High Priority"))
	assert.Equal(t, PriorityUrgent, ParsePriority("urgent"))
	assert.Equal(t, PriorityUnknown, ParsePriority(""))
	assert.False(t, PriorityUnknown.Valid())
}

func TestRawTaskNormalize(t *testing.T) {
	body := `{
		"_id": "64f0c2",
		"title": "Write docs",
		"projectId": 42,
		"assignedTo": "ana",
		"priority": "high",
		"status": "Done",
		"deadline": "2026-10-30",
		"createdAt": 1760000000000,
		"updatedAt": "2026-10-18T09:00:00Z",
		"completedAt": null,
		"startedAt": "not a date"
	}`
	var raw RawTask
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	task := raw.Normalize()

	assert.Equal(t, "64f0c2", task.ID)
	assert.Equal(t, "42", task.ProjectID)
	assert.Equal(t, "ana", task.AssigneeID)
	assert.Equal(t, PriorityHigh, task.Priority)
	assert.Equal(t, TaskCompleted, task.Status)
	require.NotNil(t, task.DueDate)
	assert.Equal(t, 30, task.DueDate.Day())
	require.NotNil(t, task.CreatedAt)
	assert.Equal(t, time.UnixMilli(1760000000000).Unix(), task.CreatedAt.Unix())
	require.NotNil(t, task.UpdatedAt)
	assert.Nil(t, task.CompletedAt)
	assert.Nil(t, task.StartedAt)
}

func TestRawTeamMembersAcceptBareIDs(t *testing.T) {
	body := `{"id": "t1", "name": "Core", "members": ["u1", {"userId": "u2", "role": "admin"}, {"userId": "u3"}]}`
	var raw RawTeam
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	team := raw.Normalize()

	require.Len(t, team.Members, 3)
	assert.Equal(t, Member{UserID: "u1", Role: RoleMember}, team.Members[0])
	assert.Equal(t, Member{UserID: "u2", Role: RoleAdmin}, team.Members[1])
	assert.Equal(t, "u3", team.Members[2].UserID)
}

func TestRawProjectNormalize(t *testing.T) {
	body := `{"id": "p1", "title": "Fallback name", "teamId": {"$oid": "abc"}, "status": "ACTIVE", "progress": 140, "tags": ["a", "b", "a"]}`
	var raw RawProject
	require.NoError(t, json.Unmarshal([]byte(body), &raw))
	p := raw.Normalize()

	assert.Equal(t, "Fallback name", p.Name)
	assert.Equal(t, "abc", p.TeamID)
	assert.Equal(t, ProjectActive, p.Status)
	assert.Equal(t, 100, p.Progress)
	assert.Equal(t, []string{"a", "b"}, p.Tags)
}

func TestTaskCloneDoesNotAlias(t *testing.T) {
	ts := time.Now()
	orig := Task{ID: "1", CompletedAt: &ts}
	c := orig.Clone()
	*c.CompletedAt = ts.Add(time.Hour)
	assert.True(t, orig.CompletedAt.Equal(ts))
}
