package executor

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ygrebnov/executor/pool"
)

// ConcurrentExecutor executes tasks on a fixed pool of worker goroutines fed by a bounded FIFO queue.
//
// Producers block while the queue is full. Each dequeued task is owned by the worker that took it
// until it completes; completion order across workers is unspecified.
// Methods are safe for concurrent use. Handler hooks are called from worker goroutines.
type ConcurrentExecutor[R any] struct {
	nc noCopy

	config  config
	handler Handler[R]
	inst    *instruments

	queue   chan envelope[R]
	seq     atomic.Int64
	tracker *tracker

	// admission guards closed. Producers hold the read side while sending so that
	// shutdown can wait for them before draining the queue.
	admission sync.RWMutex
	closed    bool

	stop    *StopSignal
	state   stateMachine
	started atomic.Bool
}

// NewConcurrentExecutor creates a concurrent executor.
//
// The handler may be nil; completion bookkeeping and the stop signal are handled by the
// executor itself, so a nil handler simply observes nothing.
// Defaults: Workers=1, QueueSize=1, Loop=true.
func NewConcurrentExecutor[R any](h Handler[R], opts ...Option) (*ConcurrentExecutor[R], error) {
	if h == nil {
		h = HandlerFuncs[R]{}
	}

	base := defaultConfig()
	base.Loop = true
	cfg, err := buildConfig(base, opts)
	if err != nil {
		return nil, err
	}

	return &ConcurrentExecutor[R]{
		config:  cfg,
		handler: h,
		inst:    newInstruments(cfg.Metrics),
		queue:   make(chan envelope[R], cfg.QueueSize),
		tracker: newTracker(),
		stop:    NewStopSignal(),
	}, nil
}

// PutTask enqueues a task, blocking while the queue is full.
//
// It accepts the same values as Executor.PutTask and returns ErrInvalidTaskType for
// anything else. A blocked PutTask returns ErrStopped once the executor stops.
// PutTask may be called before Run; the queue then fills up to QueueSize.
func (e *ConcurrentExecutor[R]) PutTask(v interface{}) error {
	return e.PutTaskContext(context.Background(), v)
}

// PutTaskContext is PutTask bounded by ctx. If ctx is done before the task is
// enqueued, it returns ctx.Err() and the task is not accepted.
func (e *ConcurrentExecutor[R]) PutTaskContext(ctx context.Context, v interface{}) error {
	t, err := newTask[R](v)
	if err != nil {
		return err
	}

	e.admission.RLock()
	defer e.admission.RUnlock()

	if e.closed || e.stop.IsSet() {
		return ErrStopped
	}

	env := e.envelope(t)
	e.tracker.add()
	select {
	case e.queue <- env:
		e.accepted(env)
		return nil
	case <-e.stop.Done():
		e.tracker.done()
		return ErrStopped
	case <-ctx.Done():
		e.tracker.done()
		return ctx.Err()
	}
}

// TryPutTask attempts to enqueue without blocking.
//
// Returns:
// - (true, nil) if the task was enqueued.
// - (false, nil) if the queue is full.
// - (false, err) for an invalid task or a stopped executor.
func (e *ConcurrentExecutor[R]) TryPutTask(v interface{}) (bool, error) {
	t, err := newTask[R](v)
	if err != nil {
		return false, err
	}

	e.admission.RLock()
	defer e.admission.RUnlock()

	if e.closed || e.stop.IsSet() {
		return false, ErrStopped
	}

	env := e.envelope(t)
	e.tracker.add()
	select {
	case e.queue <- env:
		e.accepted(env)
		return true, nil
	default:
		e.tracker.done()
		return false, nil
	}
}

// envelope assigns admission metadata. Indices increase but may skip values for
// tasks that were offered and not accepted.
func (e *ConcurrentExecutor[R]) envelope(t Task[R]) envelope[R] {
	return envelope[R]{task: t, id: uuid.New(), index: int(e.seq.Add(1) - 1)}
}

func (e *ConcurrentExecutor[R]) accepted(env envelope[R]) {
	e.inst.enqueued.Add(1)
	e.config.Logger.Debug("task enqueued",
		"task_id", env.id,
		"task_index", env.index,
		"queue_len", len(e.queue),
		"queue_cap", cap(e.queue))
}

// Run starts the worker pool and blocks until the executor stops.
//
// With Loop (the default) Run returns after an interrupt: ctx being cancelled or
// Interrupt being called. Without Loop, Run also returns once every accepted task has
// completed. Either way the stop signal is set, worker loops finish their in-flight
// task and exit, tasks still queued are reported to OnTaskFail with ErrTaskDiscarded,
// and the epilogue runs.
//
// Run can be called once; later calls return ErrInvalidState (or ErrStopped once stopped).
// A worker that panics inside a handler hook is not isolated: the pool shuts down and
// Run returns an error wrapping pool.ErrWorkerPanicked.
func (e *ConcurrentExecutor[R]) Run(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		if e.stop.IsSet() {
			return ErrStopped
		}
		return ErrInvalidState
	}

	if err := prologue(ctx, e.handler); err != nil {
		e.state.beginStopping()
		_ = e.coordinator(nil, nil).Close()
		return fmt.Errorf("%w: %w", ErrPrologueFailed, err)
	}
	runEpilogue := func() { epilogue(ctx, e.handler) }

	// Worker loops and tasks must not observe the caller's cancellation directly:
	// cancellation is an interrupt and goes through the stop signal.
	detached := context.WithoutCancel(ctx)

	group, err := pool.NewGroup(detached, e.config.Workers)
	if err != nil {
		e.state.beginStopping()
		_ = e.coordinator(nil, runEpilogue).Close()
		return err
	}

	d := newDispatcher[R](e.queue, e.stop, e.tracker, detached, func(id int) *worker[R] {
		return newPoolWorker[R](id, e.handler, &e.config, e.inst)
	}, e.config.Logger)
	group.Start(d.run)

	e.config.Logger.Info("executor started",
		"workers", e.config.Workers,
		"queue_size", e.config.QueueSize,
		"loop", e.config.Loop)

	workersDone := make(chan error, 1)
	go func() { workersDone <- group.Wait() }()

	// A nil channel never fires, so continuous mode ignores the drain condition.
	var drained <-chan struct{}
	if !e.config.Loop {
		drained = e.tracker.idle()
	}

	var (
		workerErr     error
		workersExited bool
	)
	select {
	case <-ctx.Done():
		e.Interrupt()
	case <-e.stop.Done():
	case <-drained:
		e.config.Logger.Debug("queue drained")
	case workerErr = <-workersDone:
		workersExited = true
		e.config.Logger.Error("worker pool failed", "error", workerErr)
	}
	e.state.beginStopping()

	waitWorkers := func() error {
		if workersExited {
			return workerErr
		}
		return <-workersDone
	}
	return e.coordinator(waitWorkers, runEpilogue).Close()
}

func (e *ConcurrentExecutor[R]) coordinator(waitWorkers func() error, epi func()) *lifecycleCoordinator {
	return newLifecycleCoordinator(
		func() { e.stop.Set() },
		waitWorkers,
		e.closeAdmission,
		e.drainQueue,
		epi,
		func() {
			e.state.markStopped()
			e.config.Logger.Info("executor stopped")
		},
	)
}

func (e *ConcurrentExecutor[R]) closeAdmission() {
	e.admission.Lock()
	e.closed = true
	e.admission.Unlock()
}

// drainQueue reports every task left in the queue as discarded.
func (e *ConcurrentExecutor[R]) drainQueue() {
	w := newWorker[R](-1, e.handler, &e.config, e.inst)
	for {
		select {
		case env := <-e.queue:
			w.discard(env)
			e.tracker.done()
		default:
			return
		}
	}
}

// Interrupt delivers an external interrupt. It is safe to call from any goroutine and
// only the first call has an effect: the executor enters StateStopping, OnInterrupted
// runs once and the stop signal is set. A task already executing is not cancelled.
// It reports whether this call did the transition.
//
// Interrupting an executor that was never run stops it right away.
func (e *ConcurrentExecutor[R]) Interrupt() bool {
	if !e.state.beginStopping() {
		return false
	}
	e.config.Logger.Info("interrupt received")
	e.handler.OnInterrupted()
	e.stop.Set()
	if e.started.CompareAndSwap(false, true) {
		_ = e.coordinator(nil, nil).Close()
	}
	return true
}

// Hold keeps a drain-mode Run from treating the queue as drained until release is called.
// Use it while producing more tasks than the queue holds with Run already active.
// Wait also waits for outstanding holds. Calling release more than once is harmless.
func (e *ConcurrentExecutor[R]) Hold() (release func()) {
	e.tracker.add()
	var once sync.Once
	return func() { once.Do(e.tracker.done) }
}

// Wait blocks until every accepted task has completed or ctx is done.
func (e *ConcurrentExecutor[R]) Wait(ctx context.Context) error {
	select {
	case <-e.tracker.idle():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// State returns the current lifecycle state.
func (e *ConcurrentExecutor[R]) State() State { return e.state.load() }

// Stopped returns a channel closed once the stop signal is set.
func (e *ConcurrentExecutor[R]) Stopped() <-chan struct{} { return e.stop.Done() }

// Len returns the number of tasks waiting in the queue.
func (e *ConcurrentExecutor[R]) Len() int { return len(e.queue) }

// Pending returns the number of accepted tasks that have not completed yet,
// queued and in flight.
func (e *ConcurrentExecutor[R]) Pending() int { return e.tracker.len() }
