package executor

import (
	"context"
	"errors"
	"sync"
)

// RunAll executes tasks on a new ConcurrentExecutor configured by opts and returns once
// every task has completed or ctx is done.
//
// Semantics:
// - Results are returned in completion order (not input order).
// - The returned error is errors.Join of all task errors (nil if no errors).
// - If ctx is cancelled, tasks still queued are reported as ErrTaskDiscarded and
//   ctx.Err() is part of the returned error.
//
// WithLoop is ignored: RunAll always stops after the last task.
func RunAll[R any](ctx context.Context, tasks []Task[R], opts ...Option) ([]R, error) {
	if len(tasks) == 0 {
		return nil, nil
	}

	c := &collector[R]{results: make([]R, 0, len(tasks))}
	opts = append(append(make([]Option, 0, len(opts)+1), opts...), WithLoop(false))
	e, err := NewConcurrentExecutor[R](c, opts...)
	if err != nil {
		return nil, err
	}

	release := e.Hold()

	runErr := make(chan error, 1)
	go func() { runErr <- e.Run(ctx) }()

	var putErr error
	for _, t := range tasks {
		if putErr = e.PutTaskContext(ctx, t); putErr != nil {
			break
		}
	}
	release()

	// Run must return before the failures are read: workers report them until then.
	rerr := <-runErr
	errs := append(c.failures(), rerr)
	if putErr != nil && !errors.Is(putErr, ErrStopped) && !errors.Is(putErr, ctx.Err()) {
		errs = append(errs, putErr)
	}
	if ctx.Err() != nil {
		errs = append(errs, ctx.Err())
	}
	return c.results, errors.Join(errs...)
}

// collector is the Handler used by RunAll.
type collector[R any] struct {
	mu      sync.Mutex
	results []R
	errs    []error
}

func (c *collector[R]) OnTaskDone(_ Task[R], result R) {
	c.mu.Lock()
	c.results = append(c.results, result)
	c.mu.Unlock()
}

func (c *collector[R]) OnTaskFail(_ Task[R], err error) {
	c.mu.Lock()
	c.errs = append(c.errs, err)
	c.mu.Unlock()
}

func (c *collector[R]) OnInterrupted() {}

func (c *collector[R]) failures() []error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]error(nil), c.errs...)
}
