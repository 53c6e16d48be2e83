package model

import "time"

// FailedWrite is one backend write that did not go through and was rolled
// back (tasks) or dropped (project cascade).
type FailedWrite struct {
	UserID     string
	Entity     string // task | project
	EntityID   string
	Operation  string
	Payload    any
	Error      string
	OccurredAt time.Time
}
