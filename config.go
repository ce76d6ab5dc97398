package executor

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/executor/metrics"
)

// config holds executor configuration.
type config struct {
	// Delay is reserved for dispatch pacing. It is validated and stored but does not
	// influence dispatch timing.
	// Default: 0
	Delay time.Duration `validate:"gte=0"`

	// Loop defines whether Run keeps processing until stopped (true) or performs a
	// single pass (false). For ConcurrentExecutor a single pass means
	// "until every accepted task has completed".
	// Default: false for Executor, true for ConcurrentExecutor.
	Loop bool

	// Workers is the number of worker goroutines started by ConcurrentExecutor.Run.
	// Ignored by Executor.
	// Default: 1
	Workers uint `validate:"gte=1"`

	// QueueSize bounds the number of pending tasks held by ConcurrentExecutor.
	// Producers block while the queue is full. Ignored by Executor.
	// Default: 1
	QueueSize uint `validate:"gte=1"`

	// ErrorTagging wraps task errors with the task ID and input index before they
	// reach OnTaskFail.
	// Default: false
	ErrorTagging bool

	// Logger receives executor diagnostics.
	// Default: a logger that discards everything.
	Logger *slog.Logger

	// Metrics receives executor instruments.
	// Default: metrics.NoopProvider.
	Metrics metrics.Provider
}

// defaultConfig centralizes default values for config.
func defaultConfig() config {
	return config{
		Delay:        0,
		Loop:         false,
		Workers:      1,
		QueueSize:    1,
		ErrorTagging: false,
		Logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
		Metrics:      metrics.NewNoopProvider(),
	}
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

// validateConfig checks the assembled configuration against its struct tags.
func validateConfig(cfg *config) error {
	validateOnce.Do(func() { validate = validator.New() })
	if err := validate.Struct(cfg); err != nil {
		return errorc.With(ErrInvalidConfig, errorc.String("reason", err.Error()))
	}
	return nil
}

// buildConfig applies opts on top of base and validates the result.
func buildConfig(base config, opts []Option) (config, error) {
	cfg := base
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&cfg); err != nil {
			return config{}, err
		}
	}
	if err := validateConfig(&cfg); err != nil {
		return config{}, err
	}
	return cfg, nil
}

// Option configures an executor. Invalid input is reported as ErrInvalidConfig.
type Option func(*config) error

// WithDelay sets the reserved delay value (must be >= 0).
func WithDelay(d time.Duration) Option {
	return func(cfg *config) error {
		if d < 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("option", "WithDelay requires d >= 0"))
		}
		cfg.Delay = d
		return nil
	}
}

// WithLoop selects continuous (true) or single-pass (false) processing.
func WithLoop(loop bool) Option {
	return func(cfg *config) error { cfg.Loop = loop; return nil }
}

// WithWorkers sets the number of worker goroutines (must be > 0).
func WithWorkers(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("option", "WithWorkers requires n > 0"))
		}
		cfg.Workers = n
		return nil
	}
}

// WithQueueSize sets the bound on pending tasks (must be > 0).
func WithQueueSize(n uint) Option {
	return func(cfg *config) error {
		if n == 0 {
			return errorc.With(ErrInvalidConfig, errorc.String("option", "WithQueueSize requires n > 0"))
		}
		cfg.QueueSize = n
		return nil
	}
}

// WithErrorTagging enables wrapping task errors with task metadata (ID and index).
func WithErrorTagging() Option {
	return func(cfg *config) error { cfg.ErrorTagging = true; return nil }
}

// WithLogger sets the logger used for executor diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(cfg *config) error {
		if l == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("option", "WithLogger requires a non-nil logger"))
		}
		cfg.Logger = l
		return nil
	}
}

// WithMetrics sets the metrics provider.
func WithMetrics(p metrics.Provider) Option {
	return func(cfg *config) error {
		if p == nil {
			return errorc.With(ErrInvalidConfig, errorc.String("option", "WithMetrics requires a non-nil provider"))
		}
		cfg.Metrics = p
		return nil
	}
}
