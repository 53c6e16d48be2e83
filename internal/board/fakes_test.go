package board

import (
	"context"
	"errors"
	"sync"

	"taskmaster/internal/model"
)

var errBackend = errors.New("backend unavailable")

type fakeStore struct {
	mu sync.Mutex

	tasks    []model.Task
	projects []model.Project

	listErr    error
	projectErr error
	// update decides the outcome of UpdateTask; nil means success.
	update func(id string, p model.TaskPayload) error

	updates   []model.TaskPayload
	patches   map[string]model.ProjectPatch
	listCalls int
	deleted   []string
}

func newFakeStore(tasks ...model.Task) *fakeStore {
	return &fakeStore{tasks: tasks, patches: make(map[string]model.ProjectPatch)}
}

func (f *fakeStore) setServerTasks(tasks ...model.Task) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tasks = tasks
}

func (f *fakeStore) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeStore) ListTasks(context.Context, string) ([]model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]model.Task, len(f.tasks))
	for i, t := range f.tasks {
		out[i] = t.Clone()
	}
	return out, nil
}

func (f *fakeStore) ListProjects(context.Context, string) ([]model.Project, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Project(nil), f.projects...), nil
}

func (f *fakeStore) CreateTask(_ context.Context, p model.TaskPayload) (model.Task, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := model.Task{ID: "new-1", Title: p.Title, Status: p.Status, Priority: p.Priority, ProjectID: p.ProjectID}
	f.tasks = append(f.tasks, t)
	return t, nil
}

func (f *fakeStore) UpdateTask(_ context.Context, id string, p model.TaskPayload) error {
	f.mu.Lock()
	update := f.update
	f.mu.Unlock()

	var err error
	if update != nil {
		err = update(id, p)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.updates = append(f.updates, p)
	return err
}

func (f *fakeStore) DeleteTask(_ context.Context, id, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, id)
	return nil
}

func (f *fakeStore) UpdateProject(_ context.Context, id string, patch model.ProjectPatch) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.projectErr != nil {
		return f.projectErr
	}
	f.patches[id] = patch
	return nil
}

func (f *fakeStore) updateCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updates)
}

type fakePublisher struct {
	mu   sync.Mutex
	keys []string
}

func (p *fakePublisher) Publish(_ context.Context, key string, _ any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.keys = append(p.keys, key)
	return nil
}

func (p *fakePublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.keys...)
}

type fakeRecorder struct {
	mu     sync.Mutex
	writes []model.FailedWrite
}

func (r *fakeRecorder) RecordFailedWrite(_ context.Context, fw model.FailedWrite) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.writes = append(r.writes, fw)
	return nil
}

func (r *fakeRecorder) recorded() []model.FailedWrite {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]model.FailedWrite(nil), r.writes...)
}
