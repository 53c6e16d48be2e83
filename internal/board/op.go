package board

import (
	"context"
	"sync"

	"taskmaster/internal/model"
)

// Op is the handle returned by a board mutation. The optimistic task is
// available at once; Wait blocks until the backend write (and rollback,
// if any) has finished.
type Op struct {
	Kind string
	Task model.Task

	noop bool
	done chan struct{}
	once sync.Once
	err  error
}

func newOp(kind string, task model.Task) *Op {
	return &Op{Kind: kind, Task: task, done: make(chan struct{})}
}

func noopOp(kind string, task model.Task) *Op {
	op := newOp(kind, task)
	op.noop = true
	op.finish(nil)
	return op
}

func (o *Op) finish(err error) {
	o.once.Do(func() {
		o.err = err
		close(o.done)
	})
}

// Noop reports that the mutation changed nothing and nothing was sent.
func (o *Op) Noop() bool { return o.noop }

// Done is closed once the operation has settled.
func (o *Op) Done() <-chan struct{} { return o.done }

// Wait returns the persistence error, or ctx.Err() if ctx ends first.
func (o *Op) Wait(ctx context.Context) error {
	select {
	case <-o.done:
		return o.err
	case <-ctx.Done():
		return ctx.Err()
	}
}
