package model

import "time"

// Task is the canonical task record used everywhere past the API client.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	ProjectID   string     `json:"projectId,omitempty"`
	ProjectName string     `json:"projectName,omitempty"`
	AssigneeID  string     `json:"assigneeId,omitempty"`
	CreatedBy   string     `json:"createdBy,omitempty"`
	Priority    Priority   `json:"priority"`
	Status      TaskStatus `json:"status"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	CreatedAt   *time.Time `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time `json:"updatedAt,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// Clone returns a deep copy so snapshots never alias the cached record.
func (t Task) Clone() Task {
	c := t
	c.DueDate = cloneTime(t.DueDate)
	c.CreatedAt = cloneTime(t.CreatedAt)
	c.UpdatedAt = cloneTime(t.UpdatedAt)
	c.StartedAt = cloneTime(t.StartedAt)
	c.ReviewedAt = cloneTime(t.ReviewedAt)
	c.CompletedAt = cloneTime(t.CompletedAt)
	return c
}

func (t Task) IsCompleted() bool {
	return t.Status == TaskCompleted
}

// LastTouched returns updatedAt, falling back to createdAt.
func (t Task) LastTouched() *time.Time {
	if t.UpdatedAt != nil {
		return t.UpdatedAt
	}
	return t.CreatedAt
}

// RawTask is the task shape as the backend sends it.
type RawTask struct {
	ID          FlexID   `json:"id"`
	MongoID     FlexID   `json:"_id"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	ProjectID   FlexID   `json:"projectId"`
	ProjectName string   `json:"projectName"`
	AssigneeID  FlexID   `json:"assigneeId"`
	AssignedTo  FlexID   `json:"assignedTo"`
	CreatedBy   FlexID   `json:"createdBy"`
	Priority    string   `json:"priority"`
	Status      string   `json:"status"`
	DueDate     FlexTime `json:"dueDate"`
	Deadline    FlexTime `json:"deadline"`
	CreatedAt   FlexTime `json:"createdAt"`
	UpdatedAt   FlexTime `json:"updatedAt"`
	StartedAt   FlexTime `json:"startedAt"`
	ReviewedAt  FlexTime `json:"reviewedAt"`
	CompletedAt FlexTime `json:"completedAt"`
}

func (r RawTask) Normalize() Task {
	t := Task{
		ID:          string(firstID(r.ID, r.MongoID)),
		Title:       r.Title,
		Description: r.Description,
		ProjectID:   string(r.ProjectID),
		ProjectName: r.ProjectName,
		AssigneeID:  string(firstID(r.AssigneeID, r.AssignedTo)),
		CreatedBy:   string(r.CreatedBy),
		Priority:    ParsePriority(r.Priority),
		Status:      ParseTaskStatus(r.Status),
		DueDate:     r.DueDate.Ptr(),
		CreatedAt:   r.CreatedAt.Ptr(),
		UpdatedAt:   r.UpdatedAt.Ptr(),
		StartedAt:   r.StartedAt.Ptr(),
		ReviewedAt:  r.ReviewedAt.Ptr(),
		CompletedAt: r.CompletedAt.Ptr(),
	}
	if t.DueDate == nil {
		t.DueDate = r.Deadline.Ptr()
	}
	return t
}

func NormalizeTasks(raw []RawTask) []Task {
	out := make([]Task, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Normalize())
	}
	return out
}

// TaskPayload is the full body of PUT /tasks/:id and POST /tasks.
type TaskPayload struct {
	UserID      string     `json:"userId,omitempty"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	ProjectID   string     `json:"projectId,omitempty"`
	Priority    Priority   `json:"priority,omitempty"`
	Status      TaskStatus `json:"status,omitempty"`
	AssigneeID  string     `json:"assigneeId,omitempty"`
	DueDate     *time.Time `json:"dueDate,omitempty"`
	StartedAt   *time.Time `json:"startedAt,omitempty"`
	ReviewedAt  *time.Time `json:"reviewedAt,omitempty"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

func (t Task) Payload(userID string) TaskPayload {
	return TaskPayload{
		UserID:      userID,
		Title:       t.Title,
		Description: t.Description,
		ProjectID:   t.ProjectID,
		Priority:    t.Priority,
		Status:      t.Status,
		AssigneeID:  t.AssigneeID,
		DueDate:     t.DueDate,
		StartedAt:   t.StartedAt,
		ReviewedAt:  t.ReviewedAt,
		CompletedAt: t.CompletedAt,
	}
}

func firstID(ids ...FlexID) FlexID {
	for _, id := range ids {
		if id != "" {
			return id
		}
	}
	return ""
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	c := *t
	return &c
}
