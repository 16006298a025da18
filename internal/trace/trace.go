// Package trace persists dispatcher events for later inspection.
package trace

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"strideq/internal/config"
	"strideq/internal/sched"
)

// Sink is an event sink that owns a resource.
type Sink interface {
	sched.EventSink
	io.Closer
}

// LogSink writes every event through a logger at info level, so
// `--trace log` shows up under the default log level.
type LogSink struct {
	logger *slog.Logger
}

func NewLogSink(logger *slog.Logger) *LogSink {
	return &LogSink{logger: logger.With("component", "trace")}
}

func (s *LogSink) Record(ctx context.Context, ev sched.StatusEvent) error {
	s.logger.InfoContext(ctx, ev.Kind.String(),
		"tick", ev.Tick,
		"task_id", ev.TaskID,
		"priority", ev.Priority,
		"pass", ev.Pass,
		"ran_ticks", ev.RanTicks,
	)
	return nil
}

func (s *LogSink) Close() error { return nil }

// Open builds the sink described by cfg. It returns nil when tracing is off.
func Open(ctx context.Context, cfg config.Trace, logger *slog.Logger) (Sink, error) {
	switch cfg.Format {
	case "":
		return nil, nil
	case "log":
		return NewLogSink(logger), nil
	case "csv":
		s, err := NewCSVSink(cfg.Path)
		if err != nil {
			return nil, err
		}
		return s, nil
	case "sqlite":
		s, err := NewSQLiteSink(ctx, cfg.Path, logger)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown trace format %q", cfg.Format)
	}
}
