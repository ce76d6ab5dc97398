// Package config loads taskrun configuration from flags, TASKRUN_* environment
// variables and an optional YAML file, in that order of precedence.
package config

import (
	"errors"
	"runtime"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/ygrebnov/errorc"

	"github.com/ygrebnov/executor"
)

const EnvPrefix = "TASKRUN"

const (
	ModeSerial     = "serial"
	ModeConcurrent = "concurrent"
)

var (
	ErrInvalid = errors.New("config: invalid configuration")
	ErrRead    = errors.New("config: cannot read configuration file")
)

// Config is the taskrun configuration.
type Config struct {
	Mode        string        `mapstructure:"mode" validate:"oneof=serial concurrent"`
	Workers     uint          `mapstructure:"workers" validate:"gte=1"`
	QueueSize   uint          `mapstructure:"queue_size" validate:"gte=1"`
	Loop        bool          `mapstructure:"loop"`
	Delay       time.Duration `mapstructure:"delay" validate:"gte=0"`
	Shell       string        `mapstructure:"shell" validate:"required"`
	MetricsAddr string        `mapstructure:"metrics_addr" validate:"omitempty,hostname_port"`
	Log         LogConfig     `mapstructure:"log"`
}

// LogConfig configures the process logger.
type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
	// File enables logging to a size-rotated file instead of stderr.
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb" validate:"gte=0"`
	MaxBackups int    `mapstructure:"max_backups" validate:"gte=0"`
	MaxAgeDays int    `mapstructure:"max_age_days" validate:"gte=0"`
	Compress   bool   `mapstructure:"compress"`
}

// New returns a viper instance with defaults and environment lookup configured.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	v.SetDefault("mode", ModeConcurrent)
	v.SetDefault("workers", runtime.NumCPU())
	v.SetDefault("queue_size", 64)
	v.SetDefault("loop", false)
	v.SetDefault("delay", time.Duration(0))
	v.SetDefault("shell", "sh")
	v.SetDefault("metrics_addr", "")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 3)
	v.SetDefault("log.max_age_days", 28)
	v.SetDefault("log.compress", false)
	return v
}

// BindFlags defines the configuration flags on fs and binds them to v.
func BindFlags(v *viper.Viper, fs *pflag.FlagSet) error {
	fs.String("mode", ModeConcurrent, "Executor to use: 'serial' (single-threaded, last in first out) or 'concurrent' (worker pool, first in first out).")
	fs.Uint("workers", uint(runtime.NumCPU()), "Number of worker goroutines in concurrent mode.")
	fs.Uint("queue-size", 64, "Maximum number of pending commands in concurrent mode.")
	fs.Bool("loop", false, "Keep running after all commands finished until interrupted.")
	fs.Duration("delay", 0, "Reserved dispatch delay.")
	fs.String("shell", "sh", "Shell used to run each command with -c.")
	fs.String("metrics-addr", "", "Serve Prometheus metrics on this host:port.")
	fs.String("log-level", "info", "Log level: debug, info, warn or error.")
	fs.String("log-format", "text", "Log format: text or json.")
	fs.String("log-file", "", "Write logs to this file, rotated by size.")

	bindings := map[string]string{
		"mode":         "mode",
		"workers":      "workers",
		"queue_size":   "queue-size",
		"loop":         "loop",
		"delay":        "delay",
		"shell":        "shell",
		"metrics_addr": "metrics-addr",
		"log.level":    "log-level",
		"log.format":   "log-format",
		"log.file":     "log-file",
	}
	for key, flag := range bindings {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return err
		}
	}
	return nil
}

// Load reads file (if not empty) into v, then unmarshals and validates the result.
func Load(v *viper.Viper, file string) (*Config, error) {
	if file != "" {
		v.SetConfigFile(file)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			return nil, errorc.With(ErrRead, errorc.String("file", file), errorc.String("reason", err.Error()))
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, errorc.With(ErrInvalid, errorc.String("reason", err.Error()))
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

var validate = validator.New()

// Validate checks cfg against its struct tags.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errorc.With(ErrInvalid, errorc.String("reason", err.Error()))
	}
	return nil
}

// ExecutorOptions converts the executor-related settings to executor options.
// Workers and QueueSize only matter in concurrent mode.
func (c *Config) ExecutorOptions() []executor.Option {
	opts := []executor.Option{
		executor.WithLoop(c.Loop),
		executor.WithDelay(c.Delay),
	}
	if c.Mode == ModeConcurrent {
		opts = append(opts, executor.WithWorkers(c.Workers), executor.WithQueueSize(c.QueueSize))
	}
	return opts
}
