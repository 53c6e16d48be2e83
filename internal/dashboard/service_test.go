package dashboard

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"taskmaster/internal/apiclient"
	"taskmaster/internal/model"
	"taskmaster/internal/session"
)

var now = time.Date(2026, 10, 19, 15, 30, 0, 0, time.UTC)

type fakeBackend struct {
	teams    []model.Team
	projects []model.Project
	tasks    []model.Task

	teamsErr, projectsErr, tasksErr error
	refreshErr                      error

	mu        sync.Mutex
	refreshed []string
}

func (f *fakeBackend) ListTeams(context.Context, string) ([]model.Team, error) {
	return f.teams, f.teamsErr
}

func (f *fakeBackend) ListProjects(context.Context, string) ([]model.Project, error) {
	return f.projects, f.projectsErr
}

func (f *fakeBackend) ListTasks(context.Context, string) ([]model.Task, error) {
	return f.tasks, f.tasksErr
}

func (f *fakeBackend) ShareDashboard(_ context.Context, userID string) (string, error) {
	return "share-" + userID, nil
}

func (f *fakeBackend) RefreshShared(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refreshed = append(f.refreshed, userID)
	return f.refreshErr
}

type fakePublic struct {
	calls int
	err   error
}

func (f *fakePublic) PublicDashboard(_ context.Context, shareID string) (model.SharedDashboard, error) {
	f.calls++
	if f.err != nil {
		return model.SharedDashboard{}, f.err
	}
	return model.SharedDashboard{ShareID: shareID, Data: map[string]any{"projects": 3}}, nil
}

type memCache struct {
	items  map[string]model.SharedDashboard
	owners map[string][]string
	getErr error
}

func newMemCache() *memCache {
	return &memCache{items: map[string]model.SharedDashboard{}, owners: map[string][]string{}}
}

func (c *memCache) Get(_ context.Context, id string) (model.SharedDashboard, bool, error) {
	if c.getErr != nil {
		return model.SharedDashboard{}, false, c.getErr
	}
	d, ok := c.items[id]
	return d, ok, nil
}

func (c *memCache) Set(_ context.Context, id string, d model.SharedDashboard) error {
	c.items[id] = d
	return nil
}

func (c *memCache) Track(_ context.Context, userID, id string) error {
	c.owners[userID] = append(c.owners[userID], id)
	return nil
}

func (c *memCache) InvalidateOwner(_ context.Context, userID string) (int, error) {
	ids := c.owners[userID]
	for _, id := range ids {
		delete(c.items, id)
	}
	return len(ids), nil
}

func newService(b *fakeBackend, p *fakePublic, opts ...Option) *Service {
	opts = append([]Option{WithClock(func() time.Time { return now })}, opts...)
	return NewService(func(*session.Session) Backend { return b }, p, "https://taskmaster.example/", zap.NewNop(), opts...)
}

func sess() *session.Session { return session.New("tok", "u1", time.Time{}) }

func fixture() *fakeBackend {
	return &fakeBackend{
		teams: []model.Team{{ID: "tm1", Name: "Core", Members: []model.Member{{UserID: "u1"}, {UserID: "u2"}}}},
		projects: []model.Project{
			{ID: "p1", Name: "Apollo", TeamID: "tm1", Status: model.ProjectCompleted, Priority: model.PriorityHigh},
			{ID: "p2", Name: "Gemini", TeamID: "tm1", Status: model.ProjectActive, Priority: model.PriorityLow},
		},
		tasks: []model.Task{
			{ID: "t1", ProjectID: "p2", Status: model.TaskCompleted, Priority: model.PriorityMedium},
			{ID: "t2", ProjectID: "p2", Status: model.TaskTodo, Priority: model.PriorityHigh},
		},
	}
}

func TestSnapshot(t *testing.T) {
	svc := newService(fixture(), &fakePublic{})
	snap, err := svc.Snapshot(context.Background(), sess())
	require.NoError(t, err)

	assert.Equal(t, 1, snap.Stats.TotalTeams)
	assert.Equal(t, 2, snap.Stats.TotalProjects)
	require.Len(t, snap.TeamPerformance, 1)
	assert.Equal(t, "Core", snap.TeamPerformance[0].Name)
	assert.Equal(t, 1, snap.TeamPerformance[0].Completed)
	assert.Len(t, snap.ActivityData, 7)
	assert.Equal(t, now, snap.GeneratedAt)
}

func TestSnapshotDegradesToEmptyLists(t *testing.T) {
	b := fixture()
	b.projectsErr = errors.New("timeout")
	svc := newService(b, &fakePublic{})

	snap, err := svc.Snapshot(context.Background(), sess())
	require.NoError(t, err)
	assert.Equal(t, 1, snap.Stats.TotalTeams)
	assert.Equal(t, 0, snap.Stats.TotalProjects)
	for _, s := range snap.ProjectStatus {
		assert.Zero(t, s.Value)
	}
}

func TestSnapshotAllFailuresGiveZeroStats(t *testing.T) {
	fail := errors.New("down")
	svc := newService(&fakeBackend{teamsErr: fail, projectsErr: fail, tasksErr: fail}, &fakePublic{})
	snap, err := svc.Snapshot(context.Background(), sess())
	require.NoError(t, err)
	assert.Equal(t, model.DashboardStats{}, snap.Stats)
}

func TestSnapshotSurfacesUnauthorized(t *testing.T) {
	b := fixture()
	b.tasksErr = &apiclient.StatusError{Method: "GET", Path: "/tasks", Code: 401}
	svc := newService(b, &fakePublic{})

	_, err := svc.Snapshot(context.Background(), sess())
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)

	_, err = svc.Overview(context.Background(), sess())
	assert.ErrorIs(t, err, apiclient.ErrUnauthorized)
}

func TestOverview(t *testing.T) {
	svc := newService(fixture(), &fakePublic{})
	o, err := svc.Overview(context.Background(), sess())
	require.NoError(t, err)
	assert.Equal(t, 2, o.TotalProjects)
	assert.Equal(t, 1, o.CompletedTasks)
	assert.Equal(t, 1, o.TodoTasks)
	assert.Len(t, o.ProjectProgress, 2)
	assert.Equal(t, now, o.GeneratedAt)
}

func TestShareBuildsPublicURL(t *testing.T) {
	cache := newMemCache()
	svc := newService(fixture(), &fakePublic{}, WithShareCache(cache))
	link, err := svc.Share(context.Background(), sess())
	require.NoError(t, err)
	assert.Equal(t, "share-u1", link.ShareID)
	assert.Equal(t, "https://taskmaster.example/public/dashboard/share-u1", link.URL)
	assert.Equal(t, []string{"share-u1"}, cache.owners["u1"])
}

func TestPublicReadsThroughCache(t *testing.T) {
	cache := newMemCache()
	pub := &fakePublic{}
	svc := newService(fixture(), pub, WithShareCache(cache))

	d, err := svc.Public(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "abc", d.ShareID)
	_, err = svc.Public(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)

	cache.owners["u1"] = []string{"abc"}
	require.NoError(t, svc.RefreshShared(context.Background(), sess()))
	_, err = svc.Public(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 2, pub.calls)
}

func TestPublicCacheErrorFallsBack(t *testing.T) {
	cache := newMemCache()
	cache.getErr = errors.New("redis down")
	pub := &fakePublic{}
	svc := newService(fixture(), pub, WithShareCache(cache))

	_, err := svc.Public(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, 1, pub.calls)
}

func TestPublicNotFound(t *testing.T) {
	svc := newService(fixture(), &fakePublic{err: apiclient.ErrShareNotFound})
	_, err := svc.Public(context.Background(), "missing")
	assert.ErrorIs(t, err, apiclient.ErrShareNotFound)
}

func TestRefreshSharedPropagatesBackendError(t *testing.T) {
	b := fixture()
	b.refreshErr = errors.New("boom")
	svc := newService(b, &fakePublic{})
	assert.Error(t, svc.RefreshShared(context.Background(), sess()))
	assert.Equal(t, []string{"u1"}, b.refreshed)
}
