package model

import "time"

type Project struct {
	ID          string        `json:"id"`
	Name        string        `json:"name"`
	Description string        `json:"description,omitempty"`
	TeamID      string        `json:"teamId,omitempty"`
	CreatedBy   string        `json:"createdBy,omitempty"`
	Status      ProjectStatus `json:"status"`
	Priority    Priority      `json:"priority"`
	Progress    int           `json:"progress"`
	Deadline    *time.Time    `json:"deadline,omitempty"`
	Tags        []string      `json:"tags,omitempty"`
	CreatedAt   *time.Time    `json:"createdAt,omitempty"`
	UpdatedAt   *time.Time    `json:"updatedAt,omitempty"`
}

func (p Project) LastTouched() *time.Time {
	if p.UpdatedAt != nil {
		return p.UpdatedAt
	}
	return p.CreatedAt
}

type RawProject struct {
	ID          FlexID   `json:"id"`
	MongoID     FlexID   `json:"_id"`
	Name        string   `json:"name"`
	Title       string   `json:"title"`
	Description string   `json:"description"`
	TeamID      FlexID   `json:"teamId"`
	CreatedBy   FlexID   `json:"createdBy"`
	Status      string   `json:"status"`
	Priority    string   `json:"priority"`
	Progress    *float64 `json:"progress"`
	Deadline    FlexTime `json:"deadline"`
	DueDate     FlexTime `json:"dueDate"`
	Tags        []string `json:"tags"`
	CreatedAt   FlexTime `json:"createdAt"`
	UpdatedAt   FlexTime `json:"updatedAt"`
}

func (r RawProject) Normalize() Project {
	p := Project{
		ID:          string(firstID(r.ID, r.MongoID)),
		Name:        r.Name,
		Description: r.Description,
		TeamID:      string(r.TeamID),
		CreatedBy:   string(r.CreatedBy),
		Status:      ParseProjectStatus(r.Status),
		Priority:    ParsePriority(r.Priority),
		Deadline:    r.Deadline.Ptr(),
		CreatedAt:   r.CreatedAt.Ptr(),
		UpdatedAt:   r.UpdatedAt.Ptr(),
	}
	if p.Name == "" {
		p.Name = r.Title
	}
	if p.Deadline == nil {
		p.Deadline = r.DueDate.Ptr()
	}
	if r.Progress != nil {
		p.Progress = clampPercent(*r.Progress)
	}
	p.Tags = dedupe(r.Tags)
	return p
}

func NormalizeProjects(raw []RawProject) []Project {
	out := make([]Project, 0, len(raw))
	for _, r := range raw {
		out = append(out, r.Normalize())
	}
	return out
}

// ProjectPatch is the body of the progress cascade PUT /projects/:id.
type ProjectPatch struct {
	UserID   string        `json:"userId,omitempty"`
	Status   ProjectStatus `json:"status"`
	Progress int           `json:"progress"`
}

func clampPercent(v float64) int {
	switch {
	case v < 0:
		return 0
	case v > 100:
		return 100
	}
	return int(v + 0.5)
}

// dedupe keeps first occurrences; tags are a set.
func dedupe(in []string) []string {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
