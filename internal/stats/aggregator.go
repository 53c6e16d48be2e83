// Package stats derives dashboard summaries from already-fetched teams,
// projects and tasks. Every function is pure: the clock is an argument, no
// I/O happens, and empty or partial input degrades to zeroed output.
package stats

import (
	"math"
	"time"

	"taskmaster/internal/model"
)

const (
	unknownTeamName = "Unknown Team"
	maxTeamNameLen  = 12

	colorHigh   = "#ef4444"
	colorMedium = "#f59e0b"
	colorLow    = "#10b981"
)

// round matches JavaScript's Math.round: halves go up.
func round(x float64) int {
	return int(math.Floor(x + 0.5))
}

func percent(n, total int) int {
	if total <= 0 {
		return 0
	}
	return round(100 * float64(n) / float64(total))
}

func startOfMonth(now time.Time) time.Time {
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
}

// ComputeStats builds the four header counters.
//
// completedTasks only counts tasks finished this calendar month. activeUsers
// sums member lists without deduplicating users shared between teams.
func ComputeStats(teams []model.Team, projects []model.Project, tasks []model.Task, now time.Time) model.DashboardStats {
	s := model.DashboardStats{
		TotalTeams:    len(teams),
		TotalProjects: len(projects),
	}

	from := startOfMonth(now)
	for _, t := range tasks {
		if !t.IsCompleted() {
			continue
		}
		done := t.CompletedAt
		if done == nil {
			done = t.UpdatedAt
		}
		if done == nil || done.Before(from) || done.After(now) {
			continue
		}
		s.CompletedTasks++
	}

	for _, team := range teams {
		s.ActiveUsers += len(team.Members)
	}
	return s
}

// ComputeTeamPerformance returns one row per distinct team id across teams
// and project.teamId. Teams come first in input order, then ids only known
// from projects, which are labeled "Unknown Team".
func ComputeTeamPerformance(teams []model.Team, projects []model.Project) []model.TeamPerformance {
	var order []string
	names := make(map[string]string)
	for _, team := range teams {
		if team.ID == "" {
			continue
		}
		if _, ok := names[team.ID]; ok {
			continue
		}
		names[team.ID] = team.Name
		order = append(order, team.ID)
	}

	byTeam := make(map[string][]model.Project)
	for _, p := range projects {
		if p.TeamID == "" {
			continue
		}
		if _, ok := names[p.TeamID]; !ok {
			names[p.TeamID] = unknownTeamName
			order = append(order, p.TeamID)
		}
		byTeam[p.TeamID] = append(byTeam[p.TeamID], p)
	}

	rows := make([]model.TeamPerformance, 0, len(order))
	for _, id := range order {
		teamProjects := byTeam[id]
		var completed, inProgress, progressSum int
		for _, p := range teamProjects {
			switch p.Status {
			case model.ProjectCompleted:
				completed++
			case model.ProjectPlanning, model.ProjectOnHold:
			default:
				inProgress++
			}
			progressSum += p.Progress
		}

		var avgProgress float64
		if len(teamProjects) > 0 {
			avgProgress = float64(progressSum) / float64(len(teamProjects))
		}
		rate := percent(completed, len(teamProjects))
		efficiency := round(0.6*float64(rate) + 0.4*avgProgress)
		if efficiency < 0 {
			efficiency = 0
		}

		rows = append(rows, model.TeamPerformance{
			TeamID:         id,
			Name:           TruncateName(names[id]),
			Projects:       len(teamProjects),
			Completed:      completed,
			InProgress:     inProgress,
			Efficiency:     efficiency,
			CompletionRate: rate,
		})
	}
	return rows
}

// TruncateName shortens chart labels to 12 characters plus an ellipsis.
func TruncateName(name string) string {
	r := []rune(name)
	if len(r) <= maxTeamNameLen {
		return name
	}
	return string(r[:maxTeamNameLen]) + "..."
}

func dayKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02")
}

// touchedOn reports the distinct calendar dates an entity was created or updated on.
func touchedOn(loc *time.Location, stamps ...*time.Time) map[string]struct{} {
	days := make(map[string]struct{}, len(stamps))
	for _, ts := range stamps {
		if ts != nil {
			days[dayKey(*ts, loc)] = struct{}{}
		}
	}
	return days
}

// ComputeActivityData returns exactly seven daily buckets, oldest first,
// ending on now's date in now's location.
func ComputeActivityData(tasks []model.Task, projects []model.Project, now time.Time) []model.ActivityPoint {
	loc := now.Location()
	points := make([]model.ActivityPoint, 7)
	index := make(map[string]int, 7)
	for i := range points {
		d := time.Date(now.Year(), now.Month(), now.Day()-(6-i), 0, 0, 0, 0, loc)
		key := d.Format("2006-01-02")
		points[i] = model.ActivityPoint{Date: key, Day: d.Format("Mon")}
		index[key] = i
	}

	for _, t := range tasks {
		for key := range touchedOn(loc, t.CreatedAt, t.UpdatedAt) {
			if i, ok := index[key]; ok {
				points[i].Tasks++
			}
		}
	}
	for _, p := range projects {
		for key := range touchedOn(loc, p.CreatedAt, p.UpdatedAt) {
			if i, ok := index[key]; ok {
				points[i].Projects++
			}
		}
	}
	return points
}

// ComputeStatusDistribution buckets projects into the four fixed chart
// slices. Anything not completed, planning or on hold counts as In Progress.
// Percentages are rounded individually and need not sum to 100.
func ComputeStatusDistribution(projects []model.Project) []model.StatusSlice {
	var inProgress, planning, completed, onHold int
	for _, p := range projects {
		switch p.Status {
		case model.ProjectCompleted:
			completed++
		case model.ProjectPlanning:
			planning++
		case model.ProjectOnHold:
			onHold++
		default:
			inProgress++
		}
	}

	total := len(projects)
	return []model.StatusSlice{
		{Name: "In Progress", Value: inProgress, Percentage: percent(inProgress, total)},
		{Name: "Planning", Value: planning, Percentage: percent(planning, total)},
		{Name: "Completed", Value: completed, Percentage: percent(completed, total)},
		{Name: "On Hold", Value: onHold, Percentage: percent(onHold, total)},
	}
}

// priorityBucket folds URGENT into High and anything unknown into Medium.
func priorityBucket(p model.Priority) model.Priority {
	switch p {
	case model.PriorityHigh, model.PriorityUrgent:
		return model.PriorityHigh
	case model.PriorityLow:
		return model.PriorityLow
	}
	return model.PriorityMedium
}

func ComputePriorityDistribution(projects []model.Project) []model.PrioritySlice {
	counts := make(map[model.Priority]int, 3)
	for _, p := range projects {
		counts[priorityBucket(p.Priority)]++
	}
	return []model.PrioritySlice{
		{Name: "High", Value: counts[model.PriorityHigh], Color: colorHigh},
		{Name: "Medium", Value: counts[model.PriorityMedium], Color: colorMedium},
		{Name: "Low", Value: counts[model.PriorityLow], Color: colorLow},
	}
}

// Build assembles the full team dashboard snapshot.
func Build(teams []model.Team, projects []model.Project, tasks []model.Task, now time.Time) model.DashboardSnapshot {
	return model.DashboardSnapshot{
		Stats:                ComputeStats(teams, projects, tasks, now),
		TeamPerformance:      ComputeTeamPerformance(teams, projects),
		ProjectStatus:        ComputeStatusDistribution(projects),
		ActivityData:         ComputeActivityData(tasks, projects, now),
		PriorityDistribution: ComputePriorityDistribution(projects),
		GeneratedAt:          now,
	}
}
