package executor

import (
	"sync"
	"sync/atomic"
)

// StopSignal is a set-once, read-many stop token shared by a run-loop and its workers.
// The zero value is not usable; create it with NewStopSignal.
type StopSignal struct {
	once sync.Once
	ch   chan struct{}
}

// NewStopSignal returns an unset signal.
func NewStopSignal() *StopSignal {
	return &StopSignal{ch: make(chan struct{})}
}

// Set sets the signal. It reports whether this call was the one that set it.
func (s *StopSignal) Set() bool {
	set := false
	s.once.Do(func() {
		close(s.ch)
		set = true
	})
	return set
}

// Done returns a channel that is closed once the signal is set.
func (s *StopSignal) Done() <-chan struct{} { return s.ch }

// IsSet reports whether the signal has been set.
func (s *StopSignal) IsSet() bool {
	select {
	case <-s.ch:
		return true
	default:
		return false
	}
}

// State is the lifecycle state of an executor.
type State int32

const (
	StateRunning State = iota
	StateStopping
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// stateMachine holds the executor state. running -> stopping happens at most once.
type stateMachine struct {
	v atomic.Int32
}

func (m *stateMachine) load() State { return State(m.v.Load()) }

// beginStopping reports whether the caller performed the running -> stopping transition.
func (m *stateMachine) beginStopping() bool {
	return m.v.CompareAndSwap(int32(StateRunning), int32(StateStopping))
}

func (m *stateMachine) markStopped() { m.v.Store(int32(StateStopped)) }
