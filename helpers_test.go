package executor

import (
	"context"
	"sync"
	"testing"
	"time"
)

// recorder is a Handler that keeps every outcome it observes.
type recorder[R any] struct {
	mu         sync.Mutex
	results    []R
	doneTasks  []Task[R]
	errs       []error
	failTasks  []Task[R]
	interrupts int
	events     chan struct{}
}

func newRecorder[R any]() *recorder[R] {
	return &recorder[R]{events: make(chan struct{}, 1024)}
}

func (r *recorder[R]) OnTaskDone(t Task[R], result R) {
	r.mu.Lock()
	r.results = append(r.results, result)
	r.doneTasks = append(r.doneTasks, t)
	r.mu.Unlock()
	r.events <- struct{}{}
}

func (r *recorder[R]) OnTaskFail(t Task[R], err error) {
	r.mu.Lock()
	r.errs = append(r.errs, err)
	r.failTasks = append(r.failTasks, t)
	r.mu.Unlock()
	r.events <- struct{}{}
}

func (r *recorder[R]) OnInterrupted() {
	r.mu.Lock()
	r.interrupts++
	r.mu.Unlock()
}

func (r *recorder[R]) snapshot() (results []R, errs []error, interrupts int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]R(nil), r.results...), append([]error(nil), r.errs...), r.interrupts
}

// waitEvents waits until n task outcomes have been observed.
func (r *recorder[R]) waitEvents(t *testing.T, n int) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for i := 0; i < n; i++ {
		select {
		case <-r.events:
		case <-deadline:
			t.Fatalf("timed out after %d of %d task outcomes", i, n)
		}
	}
}

// lifecycleRecorder adds Prologue and Epilogue to recorder.
type lifecycleRecorder[R any] struct {
	*recorder[R]
	prologueErr error
	prologues   int
	epilogues   int
}

func (l *lifecycleRecorder[R]) Prologue(context.Context) error {
	l.mu.Lock()
	l.prologues++
	l.mu.Unlock()
	return l.prologueErr
}

func (l *lifecycleRecorder[R]) Epilogue(context.Context) {
	l.mu.Lock()
	l.epilogues++
	l.mu.Unlock()
}

func (l *lifecycleRecorder[R]) counts() (prologues, epilogues int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.prologues, l.epilogues
}
