package model

import "strings"

// TaskStatus is the canonical kanban column of a task.
type TaskStatus string

const (
	TaskUnknown    TaskStatus = ""
	TaskTodo       TaskStatus = "TODO"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskReview     TaskStatus = "REVIEW"
	TaskCompleted  TaskStatus = "COMPLETED"
)

// TaskStatuses lists the board columns in display order.
var TaskStatuses = []TaskStatus{TaskTodo, TaskInProgress, TaskReview, TaskCompleted}

// ProjectStatus is the canonical lifecycle state of a project.
type ProjectStatus string

const (
	ProjectUnknown   ProjectStatus = ""
	ProjectPlanning  ProjectStatus = "PLANNING"
	ProjectActive    ProjectStatus = "ACTIVE"
	ProjectOnHold    ProjectStatus = "ON_HOLD"
	ProjectCompleted ProjectStatus = "COMPLETED"
)

type Priority string

const (
	PriorityUnknown Priority = ""
	PriorityLow     Priority = "LOW"
	PriorityMedium  Priority = "MEDIUM"
	PriorityHigh    Priority = "HIGH"
	PriorityUrgent  Priority = "URGENT"
)

type Role string

const (
	RoleUnknown Role = ""
	RoleOwner   Role = "OWNER"
	RoleAdmin   Role = "ADMIN"
	RoleMember  Role = "MEMBER"
	RoleViewer  Role = "VIEWER"
)

// canon folds casing and separators so "In Progress", "in_progress" and
// "IN-PROGRESS" compare equal.
func canon(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		switch r {
		case ' ', '_', '-':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// ParseTaskStatus maps any backend spelling to a TaskStatus. Unrecognized
// values return TaskUnknown.
func ParseTaskStatus(s string) TaskStatus {
	switch canon(s) {
	case "todo":
		return TaskTodo
	case "inprogress":
		return TaskInProgress
	case "review":
		return TaskReview
	case "completed", "done":
		return TaskCompleted
	}
	return TaskUnknown
}

func (s TaskStatus) Valid() bool {
	switch s {
	case TaskTodo, TaskInProgress, TaskReview, TaskCompleted:
		return true
	}
	return false
}

// Label is the column title shown on the board.
func (s TaskStatus) Label() string {
	switch s {
	case TaskTodo:
		return "To Do"
	case TaskInProgress:
		return "In Progress"
	case TaskReview:
		return "Review"
	case TaskCompleted:
		return "Completed"
	}
	return "Unknown"
}

func ParseProjectStatus(s string) ProjectStatus {
	switch canon(s) {
	case "planning":
		return ProjectPlanning
	case "active", "inprogress":
		return ProjectActive
	case "onhold":
		return ProjectOnHold
	case "completed", "done":
		return ProjectCompleted
	}
	return ProjectUnknown
}

func ParsePriority(s string) Priority {
	switch canon(s) {
	case "low", "lowpriority":
		return PriorityLow
	case "medium", "mediumpriority", "normal":
		return PriorityMedium
	case "high", "highpriority":
		return PriorityHigh
	case "urgent", "critical":
		return PriorityUrgent
	}
	return PriorityUnknown
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

func ParseRole(s string) Role {
	switch canon(s) {
	case "owner":
		return RoleOwner
	case "admin":
		return RoleAdmin
	case "member":
		return RoleMember
	case "viewer":
		return RoleViewer
	}
	return RoleUnknown
}
