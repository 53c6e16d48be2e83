package stats

import (
	"fmt"
	"math"
	"sort"
	"time"

	"taskmaster/internal/model"
)

const (
	DefaultDeadlineLimit = 8
	DefaultActivityLimit = 8
)

func isOverdue(t model.Task, now time.Time) bool {
	return t.DueDate != nil && t.DueDate.Before(now) && !t.IsCompleted()
}

// ComputeProjectProgress derives per-project task progress and health,
// most recently active project first.
func ComputeProjectProgress(projects []model.Project, tasks []model.Task, now time.Time) []model.ProjectProgress {
	byProject := make(map[string][]model.Task)
	for _, t := range tasks {
		byProject[t.ProjectID] = append(byProject[t.ProjectID], t)
	}

	rows := make([]model.ProjectProgress, 0, len(projects))
	for _, p := range projects {
		projectTasks := byProject[p.ID]
		row := model.ProjectProgress{
			ProjectID:  p.ID,
			Name:       p.Name,
			Status:     p.Status,
			TotalTasks: len(projectTasks),
			Health:     model.HealthGood,
		}

		var last *time.Time
		for _, t := range projectTasks {
			switch {
			case t.IsCompleted():
				row.CompletedTasks++
			case t.Status == model.TaskInProgress:
				row.InProgressTasks++
			}
			if isOverdue(t, now) {
				row.OverdueTasks++
			}
			if ts := t.LastTouched(); ts != nil && (last == nil || ts.After(*last)) {
				last = ts
			}
		}
		if len(projectTasks) == 0 {
			last = p.LastTouched()
		}
		row.LastActivity = last
		row.Progress = percent(row.CompletedTasks, row.TotalTasks)

		if row.OverdueTasks > 0 {
			row.Health = model.HealthAtRisk
		}
		if row.Progress == 0 && row.TotalTasks > 0 {
			row.Health = model.HealthBehind
		}
		if row.Progress == 100 {
			row.Health = model.HealthCompleted
		}
		rows = append(rows, row)
	}

	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].LastActivity, rows[j].LastActivity
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		}
		return a.After(*b)
	})
	return rows
}

// ComputeTaskBreakdown counts open tasks by priority and all tasks by column.
func ComputeTaskBreakdown(tasks []model.Task) model.TaskBreakdown {
	priorities := make(map[model.Priority]int, 3)
	columns := make(map[model.TaskStatus]int, len(model.TaskStatuses))
	active := 0
	for _, t := range tasks {
		columns[t.Status]++
		if t.IsCompleted() {
			continue
		}
		active++
		priorities[priorityBucket(t.Priority)]++
	}

	b := model.TaskBreakdown{
		ByPriority: []model.PrioritySlice{
			{Name: "High Priority", Value: priorities[model.PriorityHigh], Color: colorHigh, Percentage: percent(priorities[model.PriorityHigh], active)},
			{Name: "Medium Priority", Value: priorities[model.PriorityMedium], Color: colorMedium, Percentage: percent(priorities[model.PriorityMedium], active)},
			{Name: "Low Priority", Value: priorities[model.PriorityLow], Color: colorLow, Percentage: percent(priorities[model.PriorityLow], active)},
		},
		TotalActive: active,
		TotalTasks:  len(tasks),
	}
	for _, s := range model.TaskStatuses {
		b.ByStatus = append(b.ByStatus, model.StatusSlice{
			Name:       s.Label(),
			Value:      columns[s],
			Percentage: percent(columns[s], len(tasks)),
		})
	}
	return b
}

func urgencyFor(days int, overdue bool) model.Urgency {
	switch {
	case overdue:
		return model.UrgencyOverdue
	case days <= 1:
		return model.UrgencyCritical
	case days <= 3:
		return model.UrgencyUrgent
	case days <= 7:
		return model.UrgencyWarning
	}
	return model.UrgencyNormal
}

// UpcomingDeadlines lists open tasks with a due date, soonest first.
// A non-positive limit returns every match.
func UpcomingDeadlines(tasks []model.Task, now time.Time, limit int) []model.Deadline {
	out := make([]model.Deadline, 0)
	for _, t := range tasks {
		if t.DueDate == nil || t.IsCompleted() {
			continue
		}
		days := int(math.Ceil(t.DueDate.Sub(now).Hours() / 24))
		// same test as isOverdue, so a task a few hours late is overdue too
		overdue := isOverdue(t, now)
		out = append(out, model.Deadline{
			TaskID:       t.ID,
			Title:        t.Title,
			ProjectID:    t.ProjectID,
			Priority:     t.Priority,
			DueDate:      *t.DueDate,
			DaysUntilDue: days,
			Urgency:      urgencyFor(days, overdue),
			Overdue:      overdue,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DueDate.Before(out[j].DueDate)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func taskVerb(s model.TaskStatus) string {
	switch s {
	case model.TaskCompleted:
		return "completed"
	case model.TaskInProgress:
		return "started work on"
	case model.TaskReview:
		return "submitted for review"
	}
	return "updated"
}

// RecentActivity builds a newest-first feed from entity timestamps.
func RecentActivity(projects []model.Project, tasks []model.Task, limit int) []model.Activity {
	out := make([]model.Activity, 0)
	for _, p := range projects {
		ts := p.LastTouched()
		if ts == nil {
			continue
		}
		verb := "updated"
		if p.Status == model.ProjectCompleted {
			verb = "completed"
		}
		actor := p.CreatedBy
		if actor == "" {
			actor = "System"
		}
		out = append(out, model.Activity{
			ID:        "project-" + p.ID,
			Kind:      "project",
			Title:     fmt.Sprintf("Project %q %s", p.Name, verb),
			Status:    string(p.Status),
			Actor:     actor,
			Timestamp: *ts,
		})
	}
	for _, t := range tasks {
		ts := t.LastTouched()
		if ts == nil {
			continue
		}
		who := t.AssigneeID
		if who == "" {
			who = "Someone"
		}
		actor := t.AssigneeID
		if actor == "" {
			actor = t.CreatedBy
		}
		if actor == "" {
			actor = "System"
		}
		out = append(out, model.Activity{
			ID:        "task-" + t.ID,
			Kind:      "task",
			Title:     fmt.Sprintf("%s %s %q", who, taskVerb(t.Status), t.Title),
			Status:    string(t.Status),
			Actor:     actor,
			Timestamp: *ts,
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp.After(out[j].Timestamp)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// Overview assembles the real-time dashboard view. Unlike ComputeStats its
// completed count is lifetime, not this month.
func Overview(teams []model.Team, projects []model.Project, tasks []model.Task, now time.Time) model.DashboardOverview {
	o := model.DashboardOverview{
		TotalProjects:    len(projects),
		TotalTasks:       len(tasks),
		TotalTeams:       len(teams),
		ProjectProgress:  ComputeProjectProgress(projects, tasks, now),
		Tasks:            ComputeTaskBreakdown(tasks),
		Deadlines:        UpcomingDeadlines(tasks, now, DefaultDeadlineLimit),
		RecentActivities: RecentActivity(projects, tasks, DefaultActivityLimit),
		GeneratedAt:      now,
	}
	for _, p := range projects {
		switch p.Status {
		case model.ProjectActive, model.ProjectPlanning:
			o.ActiveProjects++
		case model.ProjectCompleted:
			o.CompletedProjects++
		}
	}
	for _, t := range tasks {
		switch t.Status {
		case model.TaskCompleted:
			o.CompletedTasks++
		case model.TaskInProgress:
			o.InProgressTasks++
		case model.TaskTodo:
			o.TodoTasks++
		}
		if isOverdue(t, now) {
			o.OverdueTasks++
		}
	}
	return o
}
