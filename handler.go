package executor

import "context"

// Handler receives the outcome of every dispatched task and the interrupt notification.
// These hooks are the only sanctioned place for side effects.
//
// For ConcurrentExecutor the hooks are called from worker goroutines and must be safe
// for concurrent use.
type Handler[R any] interface {
	// OnTaskDone is called by ConcurrentExecutor after a task returned without error.
	// The single-threaded Executor never calls it.
	OnTaskDone(t Task[R], result R)
	// OnTaskFail is called exactly once for a task that returned an error or panicked,
	// and for a task still queued when the executor stopped (ErrTaskDiscarded).
	OnTaskFail(t Task[R], err error)
	// OnInterrupted is called once when an interrupt is delivered.
	OnInterrupted()
}

// Lifecycle is implemented by handlers that need to run code once around the run-loop.
type Lifecycle interface {
	Prologue(ctx context.Context) error
	Epilogue(ctx context.Context)
}

// HandlerFuncs is a Handler built from optional functions. Nil fields are no-ops.
type HandlerFuncs[R any] struct {
	Done        func(t Task[R], result R)
	Fail        func(t Task[R], err error)
	Interrupted func()
}

func (h HandlerFuncs[R]) OnTaskDone(t Task[R], result R) {
	if h.Done != nil {
		h.Done(t, result)
	}
}

func (h HandlerFuncs[R]) OnTaskFail(t Task[R], err error) {
	if h.Fail != nil {
		h.Fail(t, err)
	}
}

func (h HandlerFuncs[R]) OnInterrupted() {
	if h.Interrupted != nil {
		h.Interrupted()
	}
}

func prologue(ctx context.Context, h any) error {
	if lc, ok := h.(Lifecycle); ok {
		return lc.Prologue(ctx)
	}
	return nil
}

func epilogue(ctx context.Context, h any) {
	if lc, ok := h.(Lifecycle); ok {
		lc.Epilogue(ctx)
	}
}
