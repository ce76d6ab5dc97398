package executor

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

type countingTask struct{ n int }

func (c *countingTask) Run(context.Context) (int, error) { c.n++; return c.n, nil }

func TestTaskAdapters_BasicExecution(t *testing.T) {
	type testCase struct {
		name      string
		mk        func() Task[int]
		expectR   int
		expectErr error
	}

	boom := errors.New("boom")

	tests := []testCase{
		{
			name:    "TaskFunc -> success",
			mk:      func() Task[int] { return TaskFunc[int](func(_ context.Context) (int, error) { return 7, nil }) },
			expectR: 7,
		},
		{
			name:    "TaskValue -> success",
			mk:      func() Task[int] { return TaskValue[int](func(_ context.Context) int { return 5 }) },
			expectR: 5,
		},
		{
			name:    "TaskError -> nil returns zero R",
			mk:      func() Task[int] { return TaskError[int](func(_ context.Context) error { return nil }) },
			expectR: 0,
		},
		{
			name:      "TaskError -> error returns zero R",
			mk:        func() Task[int] { return TaskError[int](func(_ context.Context) error { return boom }) },
			expectR:   0,
			expectErr: boom,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), time.Second)
			defer cancel()

			got, execErr := tt.mk().Run(ctx)
			if !errors.Is(execErr, tt.expectErr) {
				t.Fatalf("Run error = %v, want %v", execErr, tt.expectErr)
			}
			if got != tt.expectR {
				t.Fatalf("Run result = %v, want %v", got, tt.expectR)
			}
		})
	}
}

func TestNewTask_AcceptedShapes(t *testing.T) {
	ctx := context.Background()
	inputs := map[string]struct {
		v    interface{}
		want int
	}{
		"TaskFunc":       {TaskFunc[int](func(context.Context) (int, error) { return 1, nil }), 1},
		"func (R,error)": {func(context.Context) (int, error) { return 2, nil }, 2},
		"func R":         {func(context.Context) int { return 3 }, 3},
		"func error":     {func(context.Context) error { return nil }, 0},
		"Task pointer":   {&countingTask{n: 3}, 4},
	}

	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			task, err := newTask[int](in.v)
			if err != nil {
				t.Fatalf("newTask returned %v", err)
			}
			got, err := task.Run(ctx)
			if err != nil || got != in.want {
				t.Fatalf("Run = (%d, %v); want (%d, nil)", got, err, in.want)
			}
		})
	}
}

func TestNewTask_RejectsInvalid(t *testing.T) {
	var nilFunc func(context.Context) (int, error)
	var nilTaskFunc TaskFunc[int]
	var nilPtr *countingTask

	inputs := map[string]interface{}{
		"nil":              nil,
		"nil func":         nilFunc,
		"nil TaskFunc":     nilTaskFunc,
		"typed nil Task":   nilPtr,
		"wrong result":     func(context.Context) (string, error) { return "", nil },
		"no context":       func() int { return 1 },
		"plain value":      42,
		"string":           "task",
		"Task of other R":  TaskFunc[string](func(context.Context) (string, error) { return "", nil }),
	}

	for name, v := range inputs {
		t.Run(name, func(t *testing.T) {
			task, err := newTask[int](v)
			if !errors.Is(err, ErrInvalidTaskType) {
				t.Fatalf("newTask error = %v; want ErrInvalidTaskType", err)
			}
			if task != nil {
				t.Fatalf("newTask returned non-nil task for invalid input")
			}
		})
	}
}

func TestNewTask_FunctionTasksHaveDistinctIdentity(t *testing.T) {
	fn := func(context.Context) int { return 1 }
	a, err := newTask[int](fn)
	if err != nil {
		t.Fatal(err)
	}
	b, err := newTask[int](fn)
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatalf("two accepted function tasks must not compare equal")
	}
}

func TestNewTask_TaskKeepsIdentity(t *testing.T) {
	ct := &countingTask{}
	task, err := newTask[int](ct)
	if err != nil {
		t.Fatal(err)
	}
	if task != Task[int](ct) {
		t.Fatalf("Task values must be accepted as-is")
	}
}

func TestRunTask_RecoversPanic(t *testing.T) {
	task := TaskFunc[int](func(context.Context) (int, error) { panic("kaboom") })
	got, err := runTask[int](context.Background(), task)
	if got != 0 {
		t.Fatalf("result = %d; want zero value", got)
	}
	if !errors.Is(err, ErrTaskPanicked) {
		t.Fatalf("error = %v; want ErrTaskPanicked", err)
	}
	if !strings.Contains(err.Error(), "kaboom") {
		t.Fatalf("error %q does not carry the panic value", err)
	}
}

func TestRunTask_PassesContext(t *testing.T) {
	type ctxKey struct{}
	ctx := context.WithValue(context.Background(), ctxKey{}, "v")
	task := TaskValue[string](func(c context.Context) string { return c.Value(ctxKey{}).(string) })
	got, err := runTask[string](ctx, task)
	if err != nil || got != "v" {
		t.Fatalf("runTask = (%q, %v); want (\"v\", nil)", got, err)
	}
}
