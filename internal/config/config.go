package config

import (
	"errors"
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"

	"strideq/internal/logging"
	"strideq/internal/sched"
)

// Work kinds understood by the simulator.
const (
	WorkBurst   = "burst"
	WorkForever = "forever"
	WorkIO      = "io"
)

// Config mirrors the simulation YAML file.
type Config struct {
	TickMS     int      `yaml:"tick_ms"`     // 0 (by default): run unpaced
	SliceTicks int64    `yaml:"slice_ticks"` // 5 (by default)
	MaxTicks   int64    `yaml:"max_ticks"`   // 1000 (by default)
	Policy     string   `yaml:"policy"`      // stride (by default)
	LogLevel   string   `yaml:"log_level"`
	LogFormat  string   `yaml:"log_format"`
	Trace      Trace    `yaml:"trace"`
	Tasks      []Task   `yaml:"tasks"`
	Renice     []Renice `yaml:"renice"`
}

// Trace selects where dispatcher events are written. An empty format disables it.
type Trace struct {
	Format string `yaml:"format"` // csv, sqlite or log
	Path   string `yaml:"path"`
}

type Task struct {
	ID       uint64   `yaml:"id"`
	Name     string   `yaml:"name"`
	Priority *int64   `yaml:"priority"` // nil when the key is absent
	Work     WorkSpec `yaml:"work"`
}

// EffectivePriority returns the configured priority, or the default when the
// key was left out. An explicit 0 stays 0 so Validate can reject it.
func (t Task) EffectivePriority() int64 {
	if t.Priority == nil {
		return sched.DefaultPriority
	}
	return *t.Priority
}

// Priority returns a pointer for use in Task literals.
func Priority(p int64) *int64 { return &p }

type WorkSpec struct {
	Kind   string `yaml:"kind"`
	Ticks  int64  `yaml:"ticks"`
	Wait   int64  `yaml:"wait"`
	Rounds int    `yaml:"rounds"`
}

type Renice struct {
	At       int64  `yaml:"at"`
	ID       uint64 `yaml:"id"`
	Priority int64  `yaml:"priority"`
}

// Default returns the configuration used when no file is given.
func Default() Config {
	return Config{
		SliceTicks: 5,
		MaxTicks:   1000,
		Policy:     "stride",
		LogLevel:   "info",
		LogFormat:  "text",
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML on top of the defaults and applies sanity clamps.
func Parse(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config: %w", err)
	}

	// sanity clamps
	if cfg.SliceTicks <= 0 {
		cfg.SliceTicks = 5
	}
	if cfg.MaxTicks <= 0 {
		cfg.MaxTicks = 1000
	}
	if cfg.TickMS < 0 {
		cfg.TickMS = 0
	}
	for i := range cfg.Tasks {
		if cfg.Tasks[i].Work.Kind == "" {
			cfg.Tasks[i].Work.Kind = WorkForever
		}
	}
	return cfg, nil
}

// Validate reports every problem in the task list at once. Priorities are
// checked here so an invalid one never reaches the scheduler.
func (c Config) Validate() error {
	var errs []error
	if _, err := sched.ParsePolicy(c.Policy); err != nil {
		errs = append(errs, err)
	}
	if _, err := logging.ParseFormat(c.LogFormat); err != nil {
		errs = append(errs, err)
	}
	switch c.Trace.Format {
	case "", "log":
	case "csv", "sqlite":
		if c.Trace.Path == "" {
			errs = append(errs, fmt.Errorf("trace: %s format needs a path", c.Trace.Format))
		}
	default:
		errs = append(errs, fmt.Errorf("trace: unknown format %q", c.Trace.Format))
	}

	seen := make(map[uint64]bool, len(c.Tasks))
	for i, t := range c.Tasks {
		if seen[t.ID] {
			errs = append(errs, fmt.Errorf("tasks[%d]: duplicate id %d", i, t.ID))
		}
		seen[t.ID] = true
		if p := t.EffectivePriority(); p < sched.MinPriority || p > sched.MaxPriority {
			errs = append(errs, fmt.Errorf("tasks[%d]: %w: %d", i, sched.ErrInvalidPriority, p))
		}
		switch t.Work.Kind {
		case WorkBurst, WorkForever, WorkIO:
		default:
			errs = append(errs, fmt.Errorf("tasks[%d]: unknown work kind %q", i, t.Work.Kind))
		}
	}
	for i, r := range c.Renice {
		if !seen[r.ID] {
			errs = append(errs, fmt.Errorf("renice[%d]: unknown task %d", i, r.ID))
		}
	}
	return errors.Join(errs...)
}

// Renices converts the renice list for the dispatcher. Invalid priorities are
// passed through on purpose: the dispatcher rejects them at the boundary.
func (c Config) Renices() []sched.Renice {
	out := make([]sched.Renice, 0, len(c.Renice))
	for _, r := range c.Renice {
		out = append(out, sched.Renice{At: r.At, ID: sched.TaskID(r.ID), Priority: r.Priority})
	}
	return out
}
