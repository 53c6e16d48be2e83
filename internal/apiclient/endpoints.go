package apiclient

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"taskmaster/internal/model"
)

func userQuery(userID string) url.Values {
	if userID == "" {
		return nil
	}
	return url.Values{"userId": {userID}}
}

func (c *Client) ListTeams(ctx context.Context, userID string) ([]model.Team, error) {
	body, err := c.do(ctx, "list_teams", http.MethodGet, "/teams", userQuery(userID), nil)
	if err != nil {
		return nil, err
	}
	var raw []model.RawTeam
	if err := decodeList(body, "teams", &raw); err != nil {
		return nil, err
	}
	return model.NormalizeTeams(raw), nil
}

func (c *Client) ListProjects(ctx context.Context, userID string) ([]model.Project, error) {
	body, err := c.do(ctx, "list_projects", http.MethodGet, "/projects", userQuery(userID), nil)
	if err != nil {
		return nil, err
	}
	var raw []model.RawProject
	if err := decodeList(body, "projects", &raw); err != nil {
		return nil, err
	}
	return model.NormalizeProjects(raw), nil
}

func (c *Client) ListTasks(ctx context.Context, userID string) ([]model.Task, error) {
	body, err := c.do(ctx, "list_tasks", http.MethodGet, "/tasks", userQuery(userID), nil)
	if err != nil {
		return nil, err
	}
	var raw []model.RawTask
	if err := decodeList(body, "tasks", &raw); err != nil {
		return nil, err
	}
	return model.NormalizeTasks(raw), nil
}

func (c *Client) CreateTask(ctx context.Context, payload model.TaskPayload) (model.Task, error) {
	body, err := c.do(ctx, "create_task", http.MethodPost, "/tasks", nil, payload)
	if err != nil {
		return model.Task{}, err
	}
	var raw model.RawTask
	if err := decodeOne(body, "task", &raw); err != nil {
		return model.Task{}, err
	}
	return raw.Normalize(), nil
}

// UpdateTask sends the full task payload. The response body is ignored.
func (c *Client) UpdateTask(ctx context.Context, taskID string, payload model.TaskPayload) error {
	_, err := c.do(ctx, "update_task", http.MethodPut, "/tasks/"+url.PathEscape(taskID), nil, payload)
	return err
}

func (c *Client) DeleteTask(ctx context.Context, taskID, userID string) error {
	_, err := c.do(ctx, "delete_task", http.MethodDelete, "/tasks/"+url.PathEscape(taskID), userQuery(userID), nil)
	return err
}

func (c *Client) UpdateProject(ctx context.Context, projectID string, patch model.ProjectPatch) error {
	_, err := c.do(ctx, "update_project", http.MethodPut, "/projects/"+url.PathEscape(projectID), nil, patch)
	return err
}

// ShareDashboard asks the backend for a public share id.
func (c *Client) ShareDashboard(ctx context.Context, userID string) (string, error) {
	body, err := c.do(ctx, "share_dashboard", http.MethodPost, "/dashboard/share", nil, map[string]string{"userId": userID})
	if err != nil {
		return "", err
	}
	var resp struct {
		ShareID model.FlexID `json:"shareId"`
	}
	if err := decodeOne(body, "share", &resp); err != nil {
		return "", err
	}
	if resp.ShareID == "" {
		return "", errors.New("apiclient: share response carried no shareId")
	}
	return string(resp.ShareID), nil
}

// PublicDashboard needs no session.
func (c *Client) PublicDashboard(ctx context.Context, shareID string) (model.SharedDashboard, error) {
	body, err := c.do(ctx, "public_dashboard", http.MethodGet, "/public/dashboard/"+url.PathEscape(shareID), nil, nil)
	if err != nil {
		if IsStatus(err, http.StatusNotFound) {
			return model.SharedDashboard{}, ErrShareNotFound
		}
		return model.SharedDashboard{}, err
	}
	var out model.SharedDashboard
	if err := decodeOne(body, "dashboard", &out); err != nil {
		return model.SharedDashboard{}, err
	}
	if out.ShareID == "" {
		out.ShareID = shareID
	}
	return out, nil
}

// RefreshShared asks the backend to rebuild the user's shared snapshots.
func (c *Client) RefreshShared(ctx context.Context, userID string) error {
	_, err := c.do(ctx, "refresh_shared", http.MethodPost, "/dashboard/refresh-shared", nil, map[string]string{"userId": userID})
	return err
}
