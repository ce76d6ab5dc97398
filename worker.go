package executor

import (
	"context"
	"log/slog"
	"time"
)

// worker runs one task at a time and routes the outcome to the handler.
// Task errors and panics never escape execute.
// Successful results reach OnTaskDone only when routeDone is set.
type worker[R any] struct {
	id         int
	handler    Handler[R]
	tagEnabled bool
	routeDone  bool
	inst       *instruments
	logger     *slog.Logger
}

func newWorker[R any](id int, h Handler[R], cfg *config, inst *instruments) *worker[R] {
	return &worker[R]{
		id:         id,
		handler:    h,
		tagEnabled: cfg.ErrorTagging,
		inst:       inst,
		logger:     cfg.Logger,
	}
}

// newPoolWorker returns a worker that also reports successes, as pool workers do.
func newPoolWorker[R any](id int, h Handler[R], cfg *config, inst *instruments) *worker[R] {
	w := newWorker[R](id, h, cfg, inst)
	w.routeDone = true
	return w
}

func (w *worker[R]) execute(ctx context.Context, env envelope[R]) {
	logger := w.logger.With("task_id", env.id, "task_index", env.index, "worker_id", w.id)
	logger.Debug("task started")

	w.inst.inflight.Add(1)
	start := time.Now()
	result, err := runTask(ctx, env.task)
	w.inst.duration.Record(time.Since(start).Seconds())
	w.inst.inflight.Add(-1)

	if err != nil {
		if w.tagEnabled {
			err = newTaskTaggedError(err, env.id, env.index)
		}
		w.inst.failed.Add(1)
		logger.Error("task failed", "error", err)
		w.handler.OnTaskFail(env.task, err)
		return
	}

	w.inst.completed.Add(1)
	logger.Debug("task completed")
	if w.routeDone {
		w.handler.OnTaskDone(env.task, result)
	}
}

// discard reports a task that was accepted but never dispatched.
func (w *worker[R]) discard(env envelope[R]) {
	var err error = ErrTaskDiscarded
	if w.tagEnabled {
		err = newTaskTaggedError(err, env.id, env.index)
	}
	w.inst.discarded.Add(1)
	w.logger.Warn("task discarded", "task_id", env.id, "task_index", env.index)
	w.handler.OnTaskFail(env.task, err)
}
