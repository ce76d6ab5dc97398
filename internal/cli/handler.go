package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/ygrebnov/executor"
)

// reporter prints command output and keeps run statistics.
// It is the executor Handler and Lifecycle for taskrun.
type reporter struct {
	logger *slog.Logger
	out    io.Writer
	mode   string
	total  int

	startOnce sync.Once

	mu          sync.Mutex
	start       time.Time
	succeeded   int
	failed      int
	discarded   int
	interrupted bool
}

func newReporter(logger *slog.Logger, out io.Writer, mode string, total int) *reporter {
	return &reporter{logger: logger, out: out, mode: mode, total: total}
}

// Prologue runs before every executor pass; serial mode makes one pass per command.
func (r *reporter) Prologue(context.Context) error {
	r.startOnce.Do(func() {
		r.mu.Lock()
		r.start = time.Now()
		r.mu.Unlock()
		r.logger.Info("running commands", "mode", r.mode, "count", r.total)
	})
	return nil
}

func (r *reporter) Epilogue(context.Context) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Debug("executor pass finished", "succeeded", r.succeeded, "failed", r.failed)
}

func (r *reporter) summary() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logger.Info("run finished",
		"succeeded", r.succeeded,
		"failed", r.failed,
		"discarded", r.discarded,
		"interrupted", r.interrupted,
		"elapsed", time.Since(r.start))
}

func (r *reporter) OnTaskDone(_ executor.Task[Result], res Result) { r.succeed(res) }

// succeed records a command that exited zero. The serial executor does not route
// results to its handler, so serial tasks call it directly.
func (r *reporter) succeed(res Result) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.succeeded++
	r.logger.Debug("command succeeded", "command", res.Command, "duration", res.Duration)
	_, _ = r.out.Write(res.Output)
}

func (r *reporter) OnTaskFail(t executor.Task[Result], err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if errors.Is(err, executor.ErrTaskDiscarded) {
		r.discarded++
		r.logger.Warn("command not started", "command", fmt.Sprint(t))
		return
	}
	r.failed++
	r.logger.Error("command failed", "command", fmt.Sprint(t), "error", err)
}

func (r *reporter) OnInterrupted() {
	r.mu.Lock()
	r.interrupted = true
	r.mu.Unlock()
	r.logger.Warn("interrupted, waiting for running commands")
}

// unsuccessful returns the number of commands that failed, were discarded or were
// never queued because of an interrupt.
func (r *reporter) unsuccessful() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.total - r.succeeded
}
