package executor

import (
	"context"
	"fmt"
	"reflect"

	"github.com/google/uuid"
)

// Task is an opaque unit of work. Run executes synchronously and returns a result or an error.
// Executors never retain a task after it has been dispatched.
//
// Identity is reference identity: hooks receive the same Task value that was accepted,
// so pointer implementations can be compared by the caller.
type Task[R any] interface {
	Run(ctx context.Context) (R, error)
}

// TaskFunc adapts func(ctx) (R, error) to Task[R].
type TaskFunc[R any] func(context.Context) (R, error)

// Run calls f(ctx).
func (f TaskFunc[R]) Run(ctx context.Context) (R, error) { return f(ctx) }

// TaskValue adapts func(ctx) R to Task[R].
func TaskValue[R any](fn func(context.Context) R) TaskFunc[R] {
	return func(ctx context.Context) (R, error) { return fn(ctx), nil }
}

// TaskError adapts func(ctx) error to Task[R].
// The returned Task yields the zero value of R alongside the error.
func TaskError[R any](fn func(context.Context) error) TaskFunc[R] {
	return func(ctx context.Context) (R, error) { var zero R; return zero, fn(ctx) }
}

// funcTask gives function-shaped tasks a comparable identity.
type funcTask[R any] struct {
	fn TaskFunc[R]
}

func (t *funcTask[R]) Run(ctx context.Context) (R, error) { return t.fn(ctx) }

// newTask converts supported inputs into a Task[R].
// Anything that does not satisfy the task contract, nil included, is rejected with ErrInvalidTaskType.
func newTask[R any](v interface{}) (Task[R], error) {
	switch typed := v.(type) {
	case nil:
		return nil, ErrInvalidTaskType

	case TaskFunc[R]:
		if typed == nil {
			return nil, ErrInvalidTaskType
		}
		return &funcTask[R]{fn: typed}, nil

	case func(context.Context) (R, error):
		if typed == nil {
			return nil, ErrInvalidTaskType
		}
		return &funcTask[R]{fn: typed}, nil

	case func(context.Context) R:
		if typed == nil {
			return nil, ErrInvalidTaskType
		}
		return &funcTask[R]{fn: TaskValue[R](typed)}, nil

	case func(context.Context) error:
		if typed == nil {
			return nil, ErrInvalidTaskType
		}
		return &funcTask[R]{fn: TaskError[R](typed)}, nil

	case Task[R]:
		if rv := reflect.ValueOf(typed); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return nil, ErrInvalidTaskType
		}
		return typed, nil

	default:
		return nil, ErrInvalidTaskType
	}
}

// envelope is an accepted task together with the metadata assigned at admission.
type envelope[R any] struct {
	task  Task[R]
	id    uuid.UUID
	index int
}

// runTask executes t and converts a panic into an ErrTaskPanicked error.
func runTask[R any](ctx context.Context, t Task[R]) (result R, err error) {
	defer func() {
		if p := recover(); p != nil {
			var zero R
			result, err = zero, fmt.Errorf("%w: %v", ErrTaskPanicked, p)
		}
	}()
	return t.Run(ctx)
}
