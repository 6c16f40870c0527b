package logging

import (
	"log/slog"
	"os"
	"strings"
	"time"
)

// Logger wraps slog with the handful of typed events the service emits
// on its hot paths. Everything else goes through the embedded methods.
type Logger struct {
	*slog.Logger
}

// New builds a JSON logger writing to stdout. The level comes from
// LOG_LEVEL (debug, info, warn, error) and defaults to info.
func New() *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: levelFromEnv(),
	})
	return &Logger{Logger: slog.New(handler)}
}

// NewWithLevel builds a logger at an explicit level, ignoring LOG_LEVEL.
func NewWithLevel(level slog.Level) *Logger {
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})
	return &Logger{Logger: slog.New(handler)}
}

func levelFromEnv() slog.Level {
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// WithComponent tags every record with the emitting component.
func (l *Logger) WithComponent(name string) *Logger {
	return &Logger{Logger: l.With("component", name)}
}

func (l *Logger) DatabaseConnected(host, database string) {
	l.Info("database connection established", "host", host, "database", database)
}

func (l *Logger) DatabaseConnectionFailed(err error) {
	l.Error("database connection failed", "error", err.Error())
}

func (l *Logger) MigrationApplied(version, name string) {
	l.Info("migration applied", "version", version, "name", name)
}

func (l *Logger) MigrationSkipped(version, name string) {
	l.Debug("migration already applied, skipping", "version", version, "name", name)
}

func (l *Logger) MigrationCompleted(count int) {
	l.Info("migrations completed", "applied_count", count)
}

func (l *Logger) MigrationFailed(version, name string, err error) {
	l.Error("migration failed", "version", version, "name", name, "error", err.Error())
}

func (l *Logger) HealthCheckFailed(err error) {
	l.Error("database health check failed", "error", err.Error())
}

// PipelineRunCompleted records one scheduled recompute pass.
func (l *Logger) PipelineRunCompleted(stage string, duration time.Duration) {
	l.Info("pipeline run completed", "stage", stage, "duration_ms", duration.Milliseconds())
}
