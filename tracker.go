package executor

import "sync"

// tracker counts accepted tasks that have not completed yet.
// Unlike sync.WaitGroup it allows add while another goroutine waits for zero.
type tracker struct {
	mu      sync.Mutex
	pending int
	zero    chan struct{} // closed while pending == 0
}

func newTracker() *tracker {
	z := make(chan struct{})
	close(z)
	return &tracker{zero: z}
}

func (t *tracker) add() {
	t.mu.Lock()
	if t.pending == 0 {
		t.zero = make(chan struct{})
	}
	t.pending++
	t.mu.Unlock()
}

func (t *tracker) done() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.pending == 0 {
		panic("executor: tracker done without matching add")
	}
	t.pending--
	if t.pending == 0 {
		close(t.zero)
	}
}

// idle returns a channel closed once the pending count observed now drops to zero.
func (t *tracker) idle() <-chan struct{} {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.zero
}

func (t *tracker) len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pending
}
