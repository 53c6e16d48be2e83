// Package dashboard gathers backend data and runs the stats aggregation.
package dashboard

import (
	"context"
	"errors"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
	"go.uber.org/zap"

	"taskmaster/internal/apiclient"
	"taskmaster/internal/model"
	"taskmaster/internal/session"
	"taskmaster/internal/stats"
	"taskmaster/pkg/metrics"
)

// Backend is the per-session view of the REST backend.
type Backend interface {
	ListTeams(ctx context.Context, userID string) ([]model.Team, error)
	ListProjects(ctx context.Context, userID string) ([]model.Project, error)
	ListTasks(ctx context.Context, userID string) ([]model.Task, error)
	ShareDashboard(ctx context.Context, userID string) (string, error)
	RefreshShared(ctx context.Context, userID string) error
}

type PublicBackend interface {
	PublicDashboard(ctx context.Context, shareID string) (model.SharedDashboard, error)
}

type ShareCache interface {
	Get(ctx context.Context, shareID string) (model.SharedDashboard, bool, error)
	Set(ctx context.Context, shareID string, d model.SharedDashboard) error
	Track(ctx context.Context, userID, shareID string) error
	InvalidateOwner(ctx context.Context, userID string) (int, error)
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithShareCache enables the public dashboard cache. A nil cache is ignored.
func WithShareCache(c ShareCache) Option {
	return func(s *Service) {
		if c != nil {
			s.cache = c
		}
	}
}

type Service struct {
	backendFor   func(*session.Session) Backend
	public       PublicBackend
	cache        ShareCache
	shareBaseURL string
	now          func() time.Time
	logger       *zap.Logger
}

func NewService(backendFor func(*session.Session) Backend, public PublicBackend, shareBaseURL string, logger *zap.Logger, opts ...Option) *Service {
	s := &Service{
		backendFor:   backendFor,
		public:       public,
		shareBaseURL: strings.TrimRight(shareBaseURL, "/"),
		now:          time.Now,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type collected struct {
	teams    []model.Team
	projects []model.Project
	tasks    []model.Task
	degraded bool
}

// collect fetches the three lists concurrently. A failed list becomes empty;
// only ErrUnauthorized aborts.
func (s *Service) collect(ctx context.Context, sess *session.Session) (collected, error) {
	backend := s.backendFor(sess)
	userID := sess.UserID()

	var out collected
	var teamsErr, projectsErr, tasksErr error
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out.teams, teamsErr = backend.ListTeams(gctx, userID)
		return unauthorizedOnly(teamsErr)
	})
	g.Go(func() error {
		out.projects, projectsErr = backend.ListProjects(gctx, userID)
		return unauthorizedOnly(projectsErr)
	})
	g.Go(func() error {
		out.tasks, tasksErr = backend.ListTasks(gctx, userID)
		return unauthorizedOnly(tasksErr)
	})
	if err := g.Wait(); err != nil {
		return collected{}, err
	}

	for name, err := range map[string]error{"teams": teamsErr, "projects": projectsErr, "tasks": tasksErr} {
		if err == nil {
			continue
		}
		out.degraded = true
		s.logger.Warn("dashboard: fetch failed, using empty list",
			zap.String("user_id", userID),
			zap.String("list", name),
			zap.Error(err),
		)
	}
	if teamsErr != nil {
		out.teams = nil
	}
	if projectsErr != nil {
		out.projects = nil
	}
	if tasksErr != nil {
		out.tasks = nil
	}
	return out, nil
}

func unauthorizedOnly(err error) error {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return err
	}
	return nil
}

// Snapshot builds the team dashboard for the session's user.
func (s *Service) Snapshot(ctx context.Context, sess *session.Session) (model.DashboardSnapshot, error) {
	data, err := s.collect(ctx, sess)
	if err != nil {
		return model.DashboardSnapshot{}, err
	}
	metrics.IncrementDashboardBuild("snapshot", data.degraded)
	return stats.Build(data.teams, data.projects, data.tasks, s.now()), nil
}

// Overview builds the real-time view.
func (s *Service) Overview(ctx context.Context, sess *session.Session) (model.DashboardOverview, error) {
	data, err := s.collect(ctx, sess)
	if err != nil {
		return model.DashboardOverview{}, err
	}
	metrics.IncrementDashboardBuild("overview", data.degraded)
	return stats.Overview(data.teams, data.projects, data.tasks, s.now()), nil
}

type ShareLink struct {
	ShareID string `json:"shareId"`
	URL     string `json:"url"`
}

func (s *Service) Share(ctx context.Context, sess *session.Session) (ShareLink, error) {
	id, err := s.backendFor(sess).ShareDashboard(ctx, sess.UserID())
	if err != nil {
		return ShareLink{}, err
	}
	if s.cache != nil {
		if err := s.cache.Track(ctx, sess.UserID(), id); err != nil {
			s.logger.Warn("dashboard: failed to track share", zap.String("share_id", id), zap.Error(err))
		}
	}
	return ShareLink{ShareID: id, URL: s.shareBaseURL + "/public/dashboard/" + id}, nil
}

// Public reads through the cache. Cache errors fall back to the backend.
func (s *Service) Public(ctx context.Context, shareID string) (model.SharedDashboard, error) {
	if s.cache != nil {
		d, ok, err := s.cache.Get(ctx, shareID)
		switch {
		case err != nil:
			metrics.IncrementShareCache("error")
			s.logger.Warn("dashboard: share cache read failed", zap.String("share_id", shareID), zap.Error(err))
		case ok:
			metrics.IncrementShareCache("hit")
			return d, nil
		default:
			metrics.IncrementShareCache("miss")
		}
	}

	d, err := s.public.PublicDashboard(ctx, shareID)
	if err != nil {
		return model.SharedDashboard{}, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, shareID, d); err != nil {
			s.logger.Warn("dashboard: share cache write failed", zap.String("share_id", shareID), zap.Error(err))
		}
	}
	return d, nil
}

// RefreshShared asks the backend to rebuild the user's shares and drops
// them from the cache.
func (s *Service) RefreshShared(ctx context.Context, sess *session.Session) error {
	if err := s.backendFor(sess).RefreshShared(ctx, sess.UserID()); err != nil {
		return err
	}
	if s.cache == nil {
		return nil
	}
	n, err := s.cache.InvalidateOwner(ctx, sess.UserID())
	if err != nil {
		s.logger.Warn("dashboard: failed to evict shares", zap.String("user_id", sess.UserID()), zap.Error(err))
		return nil
	}
	s.logger.Debug("dashboard: evicted shares", zap.String("user_id", sess.UserID()), zap.Int("count", n))
	return nil
}
