package executor

import (
	"context"
	"log/slog"
)

// dispatcher is the loop each ConcurrentExecutor worker goroutine runs: take the next
// task from the shared queue, execute it, repeat until the stop signal is observed.
// It never closes the queue and never dequeues once the signal is set.
type dispatcher[R any] struct {
	queue     <-chan envelope[R]
	stop      *StopSignal
	tracker   *tracker
	taskCtx   context.Context
	newWorker func(id int) *worker[R]
	logger    *slog.Logger
}

func newDispatcher[R any](
	queue <-chan envelope[R],
	stop *StopSignal,
	tr *tracker,
	taskCtx context.Context,
	newWorker func(id int) *worker[R],
	logger *slog.Logger,
) *dispatcher[R] {
	return &dispatcher[R]{
		queue:     queue,
		stop:      stop,
		tracker:   tr,
		taskCtx:   taskCtx,
		newWorker: newWorker,
		logger:    logger,
	}
}

// run is a pool.Loop. ctx is the pool context; it is cancelled only when a sibling worker failed.
func (d *dispatcher[R]) run(ctx context.Context, id int) error {
	w := d.newWorker(id)
	d.logger.Debug("worker started", "worker_id", id)
	defer d.logger.Debug("worker stopped", "worker_id", id)

	for {
		// Checked first so a set signal always wins over a ready queue.
		if d.stop.IsSet() {
			return nil
		}
		select {
		case <-d.stop.Done():
			return nil
		case <-ctx.Done():
			return nil
		case env := <-d.queue:
			d.execute(w, env)
		}
	}
}

func (d *dispatcher[R]) execute(w *worker[R], env envelope[R]) {
	defer d.tracker.done()
	w.execute(d.taskCtx, env)
}
