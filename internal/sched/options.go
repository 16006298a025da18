package sched

import (
	"log/slog"
	"time"

	"strideq/internal/logging"
)

// Options holds configuration options for the [Dispatcher].
type Options struct {
	SliceTicks   int64         // ticks a task may run before it is preempted
	MaxTicks     int64         // stop after this many ticks; 0 runs until no task is left
	TickInterval time.Duration // wall-clock pacing per tick; 0 runs unpaced
	Logger       *slog.Logger
	Sinks        []EventSink
	Renice       []Renice
}

// Renice is a priority change applied once the dispatcher reaches tick At.
type Renice struct {
	At       int64
	ID       TaskID
	Priority int64
}

// Option is a function that configures [Options].
type Option func(*Options)

func defaultOptions() Options {
	return Options{
		SliceTicks: 5,
		Logger:     logging.Discard(),
	}
}

// WithSliceTicks sets the time slice. Values below 1 are ignored.
func WithSliceTicks(n int64) Option {
	return func(o *Options) {
		if n > 0 {
			o.SliceTicks = n
		}
	}
}

// WithMaxTicks bounds the simulation length.
func WithMaxTicks(n int64) Option {
	return func(o *Options) {
		o.MaxTicks = n
	}
}

// WithTickInterval paces every tick in wall-clock time.
func WithTickInterval(d time.Duration) Option {
	return func(o *Options) {
		o.TickInterval = d
	}
}

// WithLogger sets the logger for the [Dispatcher].
func WithLogger(l *slog.Logger) Option {
	return func(o *Options) {
		if l != nil {
			o.Logger = l
		}
	}
}

// WithSink adds an event sink. Sinks see events in order.
func WithSink(s EventSink) Option {
	return func(o *Options) {
		o.Sinks = append(o.Sinks, s)
	}
}

// WithRenice schedules priority changes during the run.
func WithRenice(r ...Renice) Option {
	return func(o *Options) {
		o.Renice = append(o.Renice, r...)
	}
}
