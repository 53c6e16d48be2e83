package model

import "time"

// DashboardStats is the header row of the team dashboard.
type DashboardStats struct {
	TotalTeams     int `json:"totalTeams"`
	TotalProjects  int `json:"totalProjects"`
	CompletedTasks int `json:"completedTasks"`
	ActiveUsers    int `json:"activeUsers"`
}

type TeamPerformance struct {
	TeamID         string `json:"teamId"`
	Name           string `json:"name"`
	Projects       int    `json:"projects"`
	Completed      int    `json:"completed"`
	InProgress     int    `json:"inProgress"`
	Efficiency     int    `json:"efficiency"`
	CompletionRate int    `json:"completionRate"`
}

type StatusSlice struct {
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Percentage int    `json:"percentage"`
}

type PrioritySlice struct {
	Name       string `json:"name"`
	Value      int    `json:"value"`
	Color      string `json:"color"`
	Percentage int    `json:"percentage,omitempty"`
}

type ActivityPoint struct {
	Date     string `json:"date"`
	Day      string `json:"day"`
	Tasks    int    `json:"tasks"`
	Projects int    `json:"projects"`
}

// DashboardSnapshot is derived on every fetch and never persisted.
type DashboardSnapshot struct {
	Stats                DashboardStats    `json:"stats"`
	TeamPerformance      []TeamPerformance `json:"teamPerformance"`
	ProjectStatus        []StatusSlice     `json:"projectStatus"`
	ActivityData         []ActivityPoint   `json:"activityData"`
	PriorityDistribution []PrioritySlice   `json:"priorityDistribution"`
	GeneratedAt          time.Time         `json:"generatedAt"`
}

// ProjectHealth values follow the real-time dashboard badges.
type ProjectHealth string

const (
	HealthGood      ProjectHealth = "good"
	HealthAtRisk    ProjectHealth = "at-risk"
	HealthBehind    ProjectHealth = "behind"
	HealthCompleted ProjectHealth = "completed"
)

type ProjectProgress struct {
	ProjectID       string        `json:"projectId"`
	Name            string        `json:"name"`
	Status          ProjectStatus `json:"status"`
	Progress        int           `json:"progress"`
	TotalTasks      int           `json:"totalTasks"`
	CompletedTasks  int           `json:"completedTasks"`
	InProgressTasks int           `json:"inProgressTasks"`
	OverdueTasks    int           `json:"overdueTasks"`
	Health          ProjectHealth `json:"health"`
	LastActivity    *time.Time    `json:"lastActivity,omitempty"`
}

type TaskBreakdown struct {
	ByPriority  []PrioritySlice `json:"byPriority"`
	ByStatus    []StatusSlice   `json:"byStatus"`
	TotalActive int             `json:"totalActive"`
	TotalTasks  int             `json:"totalTasks"`
}

type Urgency string

const (
	UrgencyOverdue  Urgency = "overdue"
	UrgencyCritical Urgency = "critical"
	UrgencyUrgent   Urgency = "urgent"
	UrgencyWarning  Urgency = "warning"
	UrgencyNormal   Urgency = "normal"
)

type Deadline struct {
	TaskID       string    `json:"taskId"`
	Title        string    `json:"title"`
	ProjectID    string    `json:"projectId,omitempty"`
	Priority     Priority  `json:"priority"`
	DueDate      time.Time `json:"dueDate"`
	DaysUntilDue int       `json:"daysUntilDue"`
	Urgency      Urgency   `json:"urgency"`
	Overdue      bool      `json:"isOverdue"`
}

type Activity struct {
	ID        string    `json:"id"`
	Kind      string    `json:"type"`
	Title     string    `json:"title"`
	Status    string    `json:"status"`
	Actor     string    `json:"user"`
	Timestamp time.Time `json:"timestamp"`
}

// DashboardOverview is the supplemented real-time view.
type DashboardOverview struct {
	TotalProjects     int               `json:"totalProjects"`
	ActiveProjects    int               `json:"activeProjects"`
	CompletedProjects int               `json:"completedProjects"`
	TotalTasks        int               `json:"totalTasks"`
	CompletedTasks    int               `json:"completedTasks"`
	InProgressTasks   int               `json:"inProgressTasks"`
	TodoTasks         int               `json:"todoTasks"`
	OverdueTasks      int               `json:"overdueTasks"`
	TotalTeams        int               `json:"totalTeams"`
	ProjectProgress   []ProjectProgress `json:"projectProgress"`
	Tasks             TaskBreakdown     `json:"tasksByPriority"`
	Deadlines         []Deadline        `json:"upcomingDeadlines"`
	RecentActivities  []Activity        `json:"recentActivities"`
	GeneratedAt       time.Time         `json:"lastUpdated"`
}

// SharedDashboard is what GET /public/dashboard/:shareId returns.
type SharedDashboard struct {
	ShareID string         `json:"shareId"`
	Data    map[string]any `json:"dashboardData"`
	Info    map[string]any `json:"dashboardInfo"`
}
