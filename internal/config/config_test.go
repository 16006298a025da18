package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"strideq/internal/sched"
)

const sample = `
tick_ms: 2
slice_ticks: 3
max_ticks: 300
policy: fifo
trace:
  format: csv
  path: trace.csv
tasks:
  - id: 1
    name: shell
    priority: 2
    work: {kind: io, ticks: 2, wait: 5, rounds: 3}
  - id: 2
    name: build
    work: {kind: burst, ticks: 40}
  - id: 3
renice:
  - {at: 10, id: 2, priority: 4}
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.TickMS != 2 || cfg.SliceTicks != 3 || cfg.MaxTicks != 300 || cfg.Policy != "fifo" {
		t.Errorf("unexpected scalars: %+v", cfg)
	}
	if cfg.Trace.Format != "csv" || cfg.Trace.Path != "trace.csv" {
		t.Errorf("trace = %+v", cfg.Trace)
	}
	if len(cfg.Tasks) != 3 {
		t.Fatalf("got %d tasks, want 3", len(cfg.Tasks))
	}
	if w := cfg.Tasks[0].Work; w.Kind != WorkIO || w.Ticks != 2 || w.Wait != 5 || w.Rounds != 3 {
		t.Errorf("tasks[0].work = %+v", w)
	}
	if got := cfg.Tasks[0].EffectivePriority(); got != 2 {
		t.Errorf("tasks[0] priority = %d, want 2", got)
	}
	if got := cfg.Tasks[1].EffectivePriority(); got != sched.DefaultPriority {
		t.Errorf("missing priority should default to %d, got %d", sched.DefaultPriority, got)
	}
	if cfg.Tasks[2].Work.Kind != WorkForever {
		t.Errorf("missing work should default to %q, got %q", WorkForever, cfg.Tasks[2].Work.Kind)
	}
	if got := cfg.Renices(); len(got) != 1 || got[0] != (sched.Renice{At: 10, ID: 2, Priority: 4}) {
		t.Errorf("Renices() = %+v", got)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

func TestParse_Clamps(t *testing.T) {
	cfg, err := Parse([]byte("slice_ticks: -1\nmax_ticks: 0\ntick_ms: -4\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if cfg.SliceTicks != 5 || cfg.MaxTicks != 1000 || cfg.TickMS != 0 {
		t.Errorf("clamps not applied: %+v", cfg)
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("tasks: [unclosed")); err == nil {
		t.Error("expected parse error")
	}
}

func TestParse_ExplicitZeroPriority(t *testing.T) {
	cfg, err := Parse([]byte("tasks:\n  - {id: 1, priority: 0}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := cfg.Tasks[0].EffectivePriority(); got != 0 {
		t.Errorf("explicit priority 0 became %d", got)
	}
	if err := cfg.Validate(); !errors.Is(err, sched.ErrInvalidPriority) {
		t.Errorf("Validate() = %v, want ErrInvalidPriority", err)
	}
}

func TestValidate(t *testing.T) {
	tests := map[string]struct {
		mutate func(*Config)
		want   string
	}{
		"priority below two": {
			mutate: func(c *Config) { c.Tasks[0].Priority = Priority(1) },
			want:   "invalid priority",
		},
		"duplicate id": {
			mutate: func(c *Config) { c.Tasks[1].ID = c.Tasks[0].ID },
			want:   "duplicate id",
		},
		"unknown policy": {
			mutate: func(c *Config) { c.Policy = "lottery" },
			want:   "unknown policy",
		},
		"unknown work": {
			mutate: func(c *Config) { c.Tasks[0].Work.Kind = "sleep" },
			want:   "unknown work kind",
		},
		"unknown log format": {
			mutate: func(c *Config) { c.LogFormat = "logfmt" },
			want:   "unknown log format",
		},
		"trace without path": {
			mutate: func(c *Config) { c.Trace = Trace{Format: "sqlite"} },
			want:   "needs a path",
		},
		"renice unknown task": {
			mutate: func(c *Config) { c.Renice = []Renice{{At: 1, ID: 99, Priority: 4}} },
			want:   "unknown task 99",
		},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			cfg.Tasks = []Task{
				{ID: 1, Priority: Priority(4), Work: WorkSpec{Kind: WorkForever}},
				{ID: 2, Priority: Priority(8), Work: WorkSpec{Kind: WorkBurst, Ticks: 3}},
			}
			tt.mutate(&cfg)

			err := cfg.Validate()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Validate() = %v, want error containing %q", err, tt.want)
			}
		})
	}

	cfg := Default()
	cfg.Tasks = []Task{{ID: 1, Priority: Priority(0), Work: WorkSpec{Kind: WorkForever}}}
	if err := cfg.Validate(); !errors.Is(err, sched.ErrInvalidPriority) {
		t.Errorf("Validate() = %v, want ErrInvalidPriority in chain", err)
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\"): %v", err)
	}
	if cfg.Policy != "stride" || cfg.SliceTicks != 5 {
		t.Errorf("defaults = %+v", cfg)
	}

	path := filepath.Join(t.TempDir(), "sim.yml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err = Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(cfg.Tasks) != 3 {
		t.Errorf("got %d tasks, want 3", len(cfg.Tasks))
	}

	if _, err := Load(filepath.Join(t.TempDir(), "missing.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}
