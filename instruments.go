package executor

import "github.com/ygrebnov/executor/metrics"

// Instrument names recorded by both executors.
const (
	MetricTasksEnqueued  = "executor_tasks_enqueued_total"
	MetricTasksCompleted = "executor_tasks_completed_total"
	MetricTasksFailed    = "executor_tasks_failed_total"
	MetricTasksDiscarded = "executor_tasks_discarded_total"
	MetricTasksInflight  = "executor_tasks_inflight"
	MetricTaskDuration   = "executor_task_duration_seconds"
)

type instruments struct {
	enqueued  metrics.Counter
	completed metrics.Counter
	failed    metrics.Counter
	discarded metrics.Counter
	inflight  metrics.UpDownCounter
	duration  metrics.Histogram
}

func newInstruments(p metrics.Provider) *instruments {
	return &instruments{
		enqueued:  p.Counter(MetricTasksEnqueued, metrics.WithDescription("Tasks accepted into the queue."), metrics.WithUnit("1")),
		completed: p.Counter(MetricTasksCompleted, metrics.WithDescription("Tasks that returned without error."), metrics.WithUnit("1")),
		failed:    p.Counter(MetricTasksFailed, metrics.WithDescription("Tasks that returned an error or panicked."), metrics.WithUnit("1")),
		discarded: p.Counter(MetricTasksDiscarded, metrics.WithDescription("Queued tasks abandoned on shutdown."), metrics.WithUnit("1")),
		inflight:  p.UpDownCounter(MetricTasksInflight, metrics.WithDescription("Tasks currently executing."), metrics.WithUnit("1")),
		duration:  p.Histogram(MetricTaskDuration, metrics.WithDescription("Task execution time."), metrics.WithUnit("seconds")),
	}
}
