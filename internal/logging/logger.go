// Package logging builds the zap loggers used across the registry.
// Every subsystem logs through a named child of the process logger so a
// single JSON stream can be filtered by category.
package logging

import (
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot     Category = "boot"     // Startup, config resolution
	CategoryIntake   Category = "intake"   // Text extraction and normalization
	CategoryValidate Category = "validate" // Business rule checks
	CategoryClassify Category = "classify" // Operation kind inference
	CategoryStore    Category = "store"    // SQLite record store
	CategoryPipeline Category = "pipeline" // End-to-end submission processing
	CategoryGitHub   Category = "github"   // Issue comment / close calls
)

// Formats accepted by Options.Format.
const (
	FormatJSON    = "json"
	FormatConsole = "console"
)

// Options configures New.
type Options struct {
	Level   string // debug, info, warn, error
	Format  string // json, console
	Verbose bool   // forces debug level
	// OutputPaths defaults to stderr so stdout stays clean for command output.
	OutputPaths []string
}

// New builds the process logger.
func New(opts Options) (*zap.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}
	if opts.Verbose {
		level = zapcore.DebugLevel
	}

	var cfg zap.Config
	switch strings.ToLower(strings.TrimSpace(opts.Format)) {
	case "", FormatJSON:
		cfg = zap.NewProductionConfig()
	case FormatConsole, "text":
		cfg = zap.NewDevelopmentConfig()
	default:
		return nil, fmt.Errorf("logging: unknown format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)
	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{"stderr"}
	if len(opts.OutputPaths) > 0 {
		cfg.OutputPaths = opts.OutputPaths
	}
	cfg.ErrorOutputPaths = []string{"stderr"}

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("logging: build logger: %w", err)
	}
	return logger, nil
}

// ParseLevel maps a config level string to a zap level. Empty means info.
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "info":
		return zapcore.InfoLevel, nil
	case "debug":
		return zapcore.DebugLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("logging: unknown level %q", s)
	}
}

// For returns the category child of l. A nil l yields a no-op logger so
// library code never has to nil-check.
func For(l *zap.Logger, category Category) *zap.Logger {
	if l == nil {
		return zap.NewNop()
	}
	return l.Named(string(category))
}

// Timer measures one operation and logs its duration on Stop.
type Timer struct {
	logger *zap.Logger
	op     string
	start  time.Time
}

// StartTimer starts timing operation op.
func StartTimer(l *zap.Logger, op string) *Timer {
	if l == nil {
		l = zap.NewNop()
	}
	return &Timer{logger: l, op: op, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	t.logger.Debug("operation completed", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning if the operation exceeded threshold.
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		t.logger.Warn("slow operation",
			zap.String("op", t.op),
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold))
	} else {
		t.logger.Debug("operation completed", zap.String("op", t.op), zap.Duration("elapsed", elapsed))
	}
	return elapsed
}
