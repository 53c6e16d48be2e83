package board

import (
	"time"

	"taskmaster/internal/model"
)

const (
	kindMove     = "move"
	kindRename   = "rename"
	kindPriority = "priority"
	kindCreate   = "create"
	kindDelete   = "delete"
)

// command is one optimistic mutation of a cached task.
type command struct {
	kind   string
	taskID string

	// check runs under the cache lock against the current task.
	check func(cur model.Task) (noop bool, err error)
	apply func(t *model.Task, now time.Time)
	// holds reports whether t still carries the value this command wrote.
	holds func(t model.Task) bool
	// revert copies the touched fields back from the snapshot.
	revert func(t *model.Task, before model.Task)
}

func moveCommand(taskID string, target model.TaskStatus, wf Workflow) command {
	return command{
		kind:   kindMove,
		taskID: taskID,
		check: func(cur model.Task) (bool, error) {
			if cur.Status == target {
				return true, nil
			}
			if !wf.Allow(cur.Status, target) {
				return false, ErrIllegalTransition
			}
			return false, nil
		},
		apply: func(t *model.Task, now time.Time) {
			t.Status = target
			stamp := now
			switch target {
			case model.TaskInProgress:
				t.StartedAt = &stamp
			case model.TaskReview:
				t.ReviewedAt = &stamp
			case model.TaskCompleted:
				t.CompletedAt = &stamp
			}
		},
		holds: func(t model.Task) bool { return t.Status == target },
		revert: func(t *model.Task, before model.Task) {
			t.Status = before.Status
			t.StartedAt = before.StartedAt
			t.ReviewedAt = before.ReviewedAt
			t.CompletedAt = before.CompletedAt
		},
	}
}

func renameCommand(taskID, title string) command {
	return command{
		kind:   kindRename,
		taskID: taskID,
		check: func(cur model.Task) (bool, error) {
			return title == "" || cur.Title == title, nil
		},
		apply:  func(t *model.Task, _ time.Time) { t.Title = title },
		holds:  func(t model.Task) bool { return t.Title == title },
		revert: func(t *model.Task, before model.Task) { t.Title = before.Title },
	}
}

func priorityCommand(taskID string, p model.Priority) command {
	return command{
		kind:   kindPriority,
		taskID: taskID,
		check: func(cur model.Task) (bool, error) {
			return cur.Priority == p, nil
		},
		apply:  func(t *model.Task, _ time.Time) { t.Priority = p },
		holds:  func(t model.Task) bool { return t.Priority == p },
		revert: func(t *model.Task, before model.Task) { t.Priority = before.Priority },
	}
}
