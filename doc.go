// Package executor runs tasks through a handler-driven run-loop.
//
// Two executors are provided:
//   - Executor: a single-threaded polling loop. Pending tasks form an unbounded stack,
//     so the most recently added task runs first. Run performs one iteration, or keeps
//     going with WithLoop until interrupted.
//   - ConcurrentExecutor: a fixed pool of worker goroutines fed by a bounded FIFO queue.
//     Producers block while the queue is full. Run keeps going until interrupted, or
//     with WithLoop(false) until every accepted task has completed.
//
// Outcomes are delivered to a Handler: OnTaskDone for a task that returned without
// error (ConcurrentExecutor only; Executor drops successful results), OnTaskFail for a task that returned an error, panicked (ErrTaskPanicked) or was
// still queued at shutdown (ErrTaskDiscarded). A failing task never stops the executor.
// Handlers that also implement Lifecycle get Prologue and Epilogue calls around the loop.
//
// Interrupts
// Cancelling the context passed to Run, or calling Interrupt, moves the executor to
// StateStopping, calls OnInterrupted once and sets the stop signal. Tasks already
// executing run to completion; their context is never cancelled by the interrupt.
//
// Defaults
// Unless overridden, the following defaults apply:
//   - Workers: 1
//   - QueueSize: 1
//   - Loop: false for Executor, true for ConcurrentExecutor
//   - ErrorTagging: false
//   - Logger: discards everything
//   - Metrics: metrics.NoopProvider
//
// Helpers
// RunAll and ForEach run a batch of tasks on a ConcurrentExecutor and collect the
// results and errors.
package executor
