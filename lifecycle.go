package executor

import (
	"sync"
)

// lifecycleCoordinator encapsulates the shutdown sequence of ConcurrentExecutor.
// It is a wiring helper: it owns nothing and orchestrates the steps in a fixed order.
//
// Close is safe for concurrent calls; the sequence executes exactly once.
type lifecycleCoordinator struct {
	setStop        func()
	waitWorkers    func() error
	closeAdmission func()
	drainQueue     func()
	epilogue       func()
	markStopped    func()

	once sync.Once
	err  error
}

func newLifecycleCoordinator(
	setStop func(),
	waitWorkers func() error,
	closeAdmission func(),
	drainQueue func(),
	epilogue func(),
	markStopped func(),
) *lifecycleCoordinator {
	return &lifecycleCoordinator{
		setStop:        setStop,
		waitWorkers:    waitWorkers,
		closeAdmission: closeAdmission,
		drainQueue:     drainQueue,
		epilogue:       epilogue,
		markStopped:    markStopped,
	}
}

// Close executes the shutdown sequence exactly once:
// 1) set the stop signal so workers take no new task
// 2) wait for worker loops; in-flight tasks finish first
// 3) close admission so no producer can enqueue anymore
// 4) drain still-queued tasks and report them as discarded
// 5) run the epilogue
// 6) mark the executor stopped
//
// It returns the worker error reported in step 2, if any.
func (lc *lifecycleCoordinator) Close() error {
	lc.once.Do(func() {
		if lc.setStop != nil {
			lc.setStop()
		}
		if lc.waitWorkers != nil {
			lc.err = lc.waitWorkers()
		}
		if lc.closeAdmission != nil {
			lc.closeAdmission()
		}
		if lc.drainQueue != nil {
			lc.drainQueue()
		}
		if lc.epilogue != nil {
			lc.epilogue()
		}
		if lc.markStopped != nil {
			lc.markStopped()
		}
	})
	return lc.err
}
