package job

import (
	"context"
	"testing"

	"strideq/internal/config"
	"strideq/internal/sched"
)

func TestBurst(t *testing.T) {
	ctx := context.Background()
	w := Burst(7)

	var got []sched.Outcome
	for {
		out := w(ctx, 3)
		got = append(got, out)
		if out.Exit {
			break
		}
	}
	want := []sched.Outcome{{Ran: 3}, {Ran: 3}, {Ran: 1, Exit: true}}
	if len(got) != len(want) {
		t.Fatalf("got %d slices, want %d: %+v", len(got), len(want), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("slice %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestForever(t *testing.T) {
	w := Forever()
	for range 5 {
		if out := w(context.Background(), 4); out.Exit || out.Ran != 4 {
			t.Fatalf("Forever() = %+v, want full slice and no exit", out)
		}
	}
}

func TestIOBound(t *testing.T) {
	ctx := context.Background()
	w := IOBound(5, 10, 2)

	steps := []sched.Outcome{
		w(ctx, 3), // preempted mid burst
		w(ctx, 3), // finishes burst, blocks
		w(ctx, 3),
		w(ctx, 3), // last round exits
	}
	want := []sched.Outcome{
		{Ran: 3},
		{Ran: 2, BlockFor: 10},
		{Ran: 3},
		{Ran: 2, Exit: true},
	}
	for i := range want {
		if steps[i] != want[i] {
			t.Errorf("step %d = %+v, want %+v", i, steps[i], want[i])
		}
	}
}

func TestCancelledWorkExits(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for name, w := range map[string]sched.Work{
		"burst": Burst(100),
		"io":    IOBound(5, 5, 5),
	} {
		if out := w(ctx, 5); !out.Exit {
			t.Errorf("%s: cancelled work should exit, got %+v", name, out)
		}
	}
}

func TestFromSpec(t *testing.T) {
	for _, kind := range []string{config.WorkBurst, config.WorkForever, config.WorkIO} {
		if _, err := FromSpec(config.WorkSpec{Kind: kind, Ticks: 2}); err != nil {
			t.Errorf("FromSpec(%q): %v", kind, err)
		}
	}
	if _, err := FromSpec(config.WorkSpec{Kind: "sleep"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}
