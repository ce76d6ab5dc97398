package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/ygrebnov/errorc"
)

// Executor is a single-threaded polling run-loop.
//
// Pending tasks are kept in a list used as a stack: the most recently put task runs first.
// Fetching never blocks; an empty list simply yields no task for that iteration.
// Executor targets small, order-insensitive workloads such as a command dispatching a
// handful of background jobs. Successful results are dropped: only failures reach the
// handler, so tasks publish their own side effects.
type Executor[R any] struct {
	nc noCopy

	config  config
	handler Handler[R]
	worker  *worker[R]
	inst    *instruments

	mu     sync.Mutex
	queue  []envelope[R]
	seq    int
	closed bool

	finishOnce sync.Once

	// wake parks an idle continuous loop until the next PutTask.
	wake chan struct{}

	stop    *StopSignal
	state   stateMachine
	running atomic.Bool
}

// noCopy is a vet-recognized marker to discourage copying types with this field embedded.
type noCopy struct{}

func (*noCopy) Lock()   {}
func (*noCopy) Unlock() {}

// NewExecutor creates a single-threaded executor. The handler is required.
// Defaults: Loop=false (one iteration per Run call).
func NewExecutor[R any](h Handler[R], opts ...Option) (*Executor[R], error) {
	if h == nil {
		return nil, errorc.With(ErrInvalidConfig, errorc.String("handler", "NewExecutor requires a non-nil handler"))
	}

	cfg, err := buildConfig(defaultConfig(), opts)
	if err != nil {
		return nil, err
	}

	inst := newInstruments(cfg.Metrics)
	e := &Executor[R]{
		config:  cfg,
		handler: h,
		inst:    inst,
		wake:    make(chan struct{}, 1),
		stop:    NewStopSignal(),
	}
	e.worker = newWorker[R](0, h, &e.config, inst)
	return e, nil
}

// PutTask appends a task to the pending list.
//
// Accepted values are Task[R], TaskFunc[R], func(ctx) (R, error), func(ctx) R and
// func(ctx) error; anything else returns ErrInvalidTaskType. The list is unbounded.
// After the executor stopped, PutTask returns ErrStopped.
func (e *Executor[R]) PutTask(v interface{}) error {
	t, err := newTask[R](v)
	if err != nil {
		return err
	}

	e.mu.Lock()
	if e.closed || e.stop.IsSet() {
		e.mu.Unlock()
		return ErrStopped
	}
	env := envelope[R]{task: t, id: uuid.New(), index: e.seq}
	e.seq++
	e.queue = append(e.queue, env)
	pending := len(e.queue)
	e.mu.Unlock()

	e.inst.enqueued.Add(1)
	e.config.Logger.Debug("task enqueued", "task_id", env.id, "task_index", env.index, "pending", pending)

	select {
	case e.wake <- struct{}{}:
	default:
	}
	return nil
}

// getTask pops the most recently added task. ok is false when nothing is queued.
func (e *Executor[R]) getTask() (envelope[R], bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := len(e.queue)
	if n == 0 {
		return envelope[R]{}, false
	}
	env := e.queue[n-1]
	e.queue[n-1] = envelope[R]{}
	e.queue = e.queue[:n-1]
	return env, true
}

// Run drives the loop.
//
// Prologue runs once before the loop and Epilogue once after it, if the handler
// implements Lifecycle. Without Loop, Run performs a single iteration (at most one task)
// and may be called again. With Loop, Run keeps going until an interrupt arrives;
// an empty list parks the loop until the next PutTask.
//
// Cancelling ctx is an interrupt: OnInterrupted runs before Run returns. Tasks still
// queued when the executor stops are reported to OnTaskFail with ErrTaskDiscarded.
//
// Run returns ErrInvalidState if another Run is in progress and ErrStopped if the
// executor has already stopped. A prologue error is returned wrapped in ErrPrologueFailed.
func (e *Executor[R]) Run(ctx context.Context) error {
	if !e.running.CompareAndSwap(false, true) {
		return ErrInvalidState
	}
	defer func() {
		e.running.Store(false)
		if e.stop.IsSet() {
			e.finish()
		}
	}()

	if e.stop.IsSet() {
		return ErrStopped
	}

	if err := prologue(ctx, e.handler); err != nil {
		return fmt.Errorf("%w: %w", ErrPrologueFailed, err)
	}
	defer epilogue(ctx, e.handler)

	e.loop(ctx)

	if e.stop.IsSet() {
		e.finish()
	}
	return nil
}

func (e *Executor[R]) loop(ctx context.Context) {
	// Tasks keep the run context's values but are never cancelled by an interrupt.
	taskCtx := context.WithoutCancel(ctx)

	for !e.stop.IsSet() {
		if e.interrupted(ctx) {
			return
		}

		env, ok := e.getTask()
		if ok {
			e.worker.execute(taskCtx, env)
		}

		if e.interrupted(ctx) || !e.config.Loop {
			return
		}

		if !ok {
			select {
			case <-e.wake:
			case <-e.stop.Done():
			case <-ctx.Done():
			}
		}
	}
}

// interrupted converts a done ctx into an interrupt.
func (e *Executor[R]) interrupted(ctx context.Context) bool {
	if ctx.Err() == nil {
		return false
	}
	e.Interrupt()
	return true
}

// finish closes admission, reports leftovers and marks the executor stopped.
func (e *Executor[R]) finish() {
	e.finishOnce.Do(func() {
		e.mu.Lock()
		e.closed = true
		leftovers := e.queue
		e.queue = nil
		e.mu.Unlock()

		for i := len(leftovers) - 1; i >= 0; i-- {
			e.worker.discard(leftovers[i])
		}
		e.state.markStopped()
		e.config.Logger.Debug("executor stopped", "discarded", len(leftovers))
	})
}

// Interrupt delivers an external interrupt. It is safe to call from any goroutine.
// The first call moves the executor to StateStopping, calls OnInterrupted and sets the
// stop signal; later calls do nothing. It reports whether this call did the transition.
func (e *Executor[R]) Interrupt() bool {
	if !e.state.beginStopping() {
		return false
	}
	e.config.Logger.Info("interrupt received")
	e.handler.OnInterrupted()
	e.stop.Set()
	if !e.running.Load() {
		e.finish()
	}
	return true
}

// State returns the current lifecycle state.
func (e *Executor[R]) State() State { return e.state.load() }

// Stopped returns a channel closed once the stop signal is set.
func (e *Executor[R]) Stopped() <-chan struct{} { return e.stop.Done() }

// Len returns the number of pending tasks.
func (e *Executor[R]) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}
