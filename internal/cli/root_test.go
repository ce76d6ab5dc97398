package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ygrebnov/executor"
	"github.com/ygrebnov/executor/internal/config"
)

func execute(t *testing.T, ctx context.Context, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	if args == nil {
		args = []string{}
	}
	cmd := NewRootCommand()
	cmd.SetArgs(args)
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	err = cmd.ExecuteContext(ctx)
	return out.String(), errOut.String(), err
}

func TestRoot_SerialRunsLastQueuedFirst(t *testing.T) {
	stdout, stderr, err := execute(t, context.Background(), "--mode=serial", "--", "echo one", "echo two")
	require.NoError(t, err)
	assert.Equal(t, "two\none\n", stdout)
	assert.Contains(t, stderr, "succeeded=2")
}

func TestRoot_Concurrent(t *testing.T) {
	stdout, stderr, err := execute(t, context.Background(),
		"--workers=2", "--queue-size=1", "--log-level=debug", "--",
		"echo a", "echo b", "echo c", "echo d")
	require.NoError(t, err)

	lines := strings.Fields(stdout)
	assert.ElementsMatch(t, []string{"a", "b", "c", "d"}, lines)
	assert.Contains(t, stderr, "run finished")
	assert.Contains(t, stderr, "succeeded=4")
}

func TestRoot_FailedCommand(t *testing.T) {
	for _, mode := range []string{config.ModeSerial, config.ModeConcurrent} {
		t.Run(mode, func(t *testing.T) {
			_, stderr, err := execute(t, context.Background(), "--mode="+mode, "--", "true", "exit 3")
			require.ErrorIs(t, err, ErrCommandsFailed)
			assert.Contains(t, err.Error(), "1 of 2")
			assert.Contains(t, stderr, "command failed")
		})
	}
}

func TestRoot_InvalidConfig(t *testing.T) {
	_, _, err := execute(t, context.Background(), "--mode=parallel", "--", "true")
	require.ErrorIs(t, err, config.ErrInvalid)
}

func TestRoot_RequiresCommand(t *testing.T) {
	_, _, err := execute(t, context.Background())
	require.Error(t, err)
}

func TestRoot_Interrupted(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, stderr, err := execute(t, ctx, "--workers=1", "--queue-size=1", "--", "sleep 0.1", "sleep 0.1", "sleep 0.1")
	require.ErrorIs(t, err, ErrCommandsFailed)
	assert.Contains(t, stderr, "interrupted")
}

func TestRoot_EnvSelectsMode(t *testing.T) {
	t.Setenv("TASKRUN_MODE", "serial")
	stdout, _, err := execute(t, context.Background(), "--", "echo x", "echo y")
	require.NoError(t, err)
	assert.Equal(t, "y\nx\n", stdout)
}

func TestShellTask(t *testing.T) {
	res, err := newShellTask("sh", "printf hi").Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "printf hi", res.Command)
	assert.Equal(t, "hi", string(res.Output))

	_, err = newShellTask("sh", "echo oops >&2; exit 2").Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit status 2")
}

func TestShellTask_OnSuccess(t *testing.T) {
	var got []string
	ok := newShellTask("sh", "true")
	ok.onSuccess = func(res Result) { got = append(got, res.Command) }
	_, err := ok.Run(context.Background())
	require.NoError(t, err)

	bad := newShellTask("sh", "false")
	bad.onSuccess = func(res Result) { got = append(got, res.Command) }
	_, err = bad.Run(context.Background())
	require.Error(t, err)

	assert.Equal(t, []string{"true"}, got)
}

func TestReporter_Counts(t *testing.T) {
	var out bytes.Buffer
	r := newReporter(slog.New(slog.NewTextHandler(io.Discard, nil)), &out, config.ModeConcurrent, 4)
	task := newShellTask("sh", "true")

	require.NoError(t, r.Prologue(context.Background()))
	r.OnTaskDone(task, Result{Output: []byte("ok\n")})
	r.OnTaskFail(task, errors.New("boom"))
	r.OnTaskFail(task, executor.ErrTaskDiscarded)
	r.OnInterrupted()
	r.Epilogue(context.Background())

	assert.Equal(t, "ok\n", out.String())
	assert.Equal(t, 1, r.succeeded)
	assert.Equal(t, 1, r.failed)
	assert.Equal(t, 1, r.discarded)
	assert.True(t, r.interrupted)
	assert.Equal(t, 3, r.unsuccessful())
}

func TestMetricsServer(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	provider, srv, err := newMetrics("127.0.0.1:0", logger)
	require.NoError(t, err)
	require.NotNil(t, srv)
	defer srv.Shutdown()

	_, err = executor.RunAll[int](context.Background(),
		[]executor.Task[int]{executor.TaskValue(func(context.Context) int { return 1 })},
		executor.WithMetrics(provider))
	require.NoError(t, err)

	client := &http.Client{Timeout: 2 * time.Second}
	resp, err := client.Get("http://" + srv.Addr() + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), executor.MetricTasksCompleted+" 1")
	assert.Contains(t, string(body), "go_goroutines")
}

func TestNewMetrics_Disabled(t *testing.T) {
	provider, srv, err := newMetrics("", slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	assert.Nil(t, srv)
	assert.NotNil(t, provider)
}
