package executor

import "context"

// ForEach applies fn to each item concurrently and returns the aggregated error
// (errors.Join) or nil when all calls succeed. Options are the same as for RunAll.
func ForEach[T any](ctx context.Context, items []T, fn func(context.Context, T) error, opts ...Option) error {
	if len(items) == 0 {
		return nil
	}
	tasks := make([]Task[struct{}], 0, len(items))
	for i := range items {
		item := items[i]
		tasks = append(tasks, TaskError[struct{}](func(c context.Context) error { return fn(c, item) }))
	}
	_, err := RunAll[struct{}](ctx, tasks, opts...)
	return err
}
