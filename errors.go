package executor

import (
	"errors"
	"time"
)

const Namespace = "executor"

var (
	ErrInvalidTaskType = errors.New(Namespace + ": invalid type of task provided")
	ErrInvalidConfig   = errors.New(Namespace + ": invalid configuration")
	ErrInvalidState    = errors.New(Namespace + ": invalid state for this operation")
	ErrStopped         = errors.New(Namespace + ": executor is stopped")
	ErrTaskPanicked    = errors.New(Namespace + ": task execution panicked")
	ErrTaskDiscarded   = errors.New(Namespace + ": task discarded on shutdown")
	ErrPrologueFailed  = errors.New(Namespace + ": prologue failed")
)

// RetryInterval is reserved for a retry policy. Nothing reads it.
const RetryInterval = 100 * time.Millisecond
