package telemetry

import (
	"github.com/udaytamma/AiEmailAssistant/internal/metrics"
	"log/slog"
)

// Env is the logger and metrics sink handed to every pipeline collaborator.
type Env struct {
	Logger  *slog.Logger
	Metrics metrics.Sink
}

// NewEnv fills missing members with the default logger and in-memory counters.
func NewEnv(logger *slog.Logger, sink metrics.Sink) Env {
	if logger == nil {
		logger = slog.Default()
	}
	if sink == nil {
		sink = metrics.NewCounters()
	}
	return Env{Logger: logger, Metrics: sink}
}

// With returns a copy whose logger carries args.
func (e Env) With(args ...any) Env {
	e.Logger = e.Logger.With(args...)
	return e
}
