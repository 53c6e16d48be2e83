package board

import (
	"fmt"
	"strings"

	"taskmaster/internal/model"
)

// Workflow decides which column moves the board accepts.
type Workflow interface {
	Name() string
	Allow(from, to model.TaskStatus) bool
}

var (
	// Permissive accepts every move between valid columns.
	Permissive Workflow = permissive{}
	// Strict requires TODO -> IN_PROGRESS -> REVIEW -> COMPLETED going
	// forward. Moving back to any earlier column is always allowed.
	Strict Workflow = strict{}
)

type permissive struct{}

func (permissive) Name() string { return "permissive" }

func (permissive) Allow(_, to model.TaskStatus) bool { return to.Valid() }

type strict struct{}

func (strict) Name() string { return "strict" }

func columnIndex(s model.TaskStatus) int {
	for i, c := range model.TaskStatuses {
		if c == s {
			return i
		}
	}
	// 未知状态按 TODO 处理
	return 0
}

func (strict) Allow(from, to model.TaskStatus) bool {
	if !to.Valid() {
		return false
	}
	f, t := columnIndex(from), columnIndex(to)
	if t <= f {
		return true
	}
	return t == f+1
}

func ParseWorkflow(name string) (Workflow, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "permissive":
		return Permissive, nil
	case "strict":
		return Strict, nil
	}
	return nil, fmt.Errorf("board: unknown workflow %q", name)
}
