package cli

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"time"
)

// Result is the outcome of a successful shell command.
type Result struct {
	Command  string
	Output   []byte
	Duration time.Duration
}

// shellTask runs one command line through a shell.
// onSuccess, if set, receives the result of a command that exited zero.
type shellTask struct {
	shell     string
	line      string
	onSuccess func(Result)
}

func newShellTask(shell, line string) *shellTask {
	return &shellTask{shell: shell, line: line}
}

func (t *shellTask) Run(ctx context.Context) (Result, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, t.shell, "-c", t.line)
	cmd.Stdout = &out
	cmd.Stderr = &out

	start := time.Now()
	err := cmd.Run()
	res := Result{Command: t.line, Output: out.Bytes(), Duration: time.Since(start)}
	if err != nil {
		return res, fmt.Errorf("command %q: %w", t.line, err)
	}
	if t.onSuccess != nil {
		t.onSuccess(res)
	}
	return res, nil
}

func (t *shellTask) String() string { return t.line }
