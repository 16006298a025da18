package sched

import (
	"errors"
	"math"
	"testing"
)

func TestPassLess(t *testing.T) {
	t.Parallel()

	tests := map[string]struct {
		a, b uint64
		want bool
	}{
		"smaller is behind":             {a: 1, b: 2, want: true},
		"larger is ahead":               {a: 2, b: 1, want: false},
		"equal is not behind":           {a: 7, b: 7, want: false},
		"just below max behind wrapped": {a: math.MaxUint64 - 10, b: 5, want: true},
		"wrapped is ahead of max":       {a: 5, b: math.MaxUint64 - 10, want: false},
		"half range apart":              {a: 0, b: 1<<63 - 1, want: true},
	}
	for name, tt := range tests {
		t.Run(name, func(t *testing.T) {
			if got := PassLess(tt.a, tt.b); got != tt.want {
				t.Errorf("PassLess(%d, %d) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSchedule_SetPriority(t *testing.T) {
	t.Parallel()

	for _, p := range []int64{-1, 0, 1, MaxPriority + 1} {
		var s Schedule
		if err := s.SetPriority(p); !errors.Is(err, ErrInvalidPriority) {
			t.Errorf("SetPriority(%d) error = %v, want ErrInvalidPriority", p, err)
		}
	}

	var s Schedule
	if err := s.SetPriority(MinPriority); err != nil {
		t.Fatalf("SetPriority(%d): %v", MinPriority, err)
	}
	if got, want := s.Stride(), BigStride/2; got != want {
		t.Errorf("stride = %d, want %d", got, want)
	}
	if err := s.SetPriority(MaxPriority); err != nil {
		t.Fatalf("SetPriority(%d): %v", MaxPriority, err)
	}
	if s.Stride() == 0 {
		t.Error("stride must stay positive at MaxPriority")
	}
}

func TestSchedule_AdvanceWraps(t *testing.T) {
	t.Parallel()

	s := NewSchedule(2)
	s.pass = math.MaxUint64 - 1
	before := s.Pass()
	s.Advance()

	if got, want := s.Pass(), s.Stride()-2; got != want {
		t.Errorf("pass after wrap = %d, want %d", got, want)
	}
	if !PassLess(before, s.Pass()) {
		t.Error("wrapped pass should still compare as ahead of the old one")
	}
}

func TestNewSchedule_PanicsOnInvalidPriority(t *testing.T) {
	t.Parallel()

	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	NewSchedule(1)
}

func TestTask_SetPriority(t *testing.T) {
	t.Parallel()

	task, err := NewTask(1, "a", DefaultPriority, nil)
	if err != nil {
		t.Fatalf("NewTask: %v", err)
	}
	task.setPass(42)

	got, err := task.SetPriority(8)
	if err != nil {
		t.Fatalf("SetPriority: %v", err)
	}
	if got != 8 {
		t.Errorf("SetPriority returned %d, want 8", got)
	}
	s := task.Schedule()
	if s.Stride() != BigStride/8 || s.Pass() != 42 {
		t.Errorf("schedule = %+v, want stride %d and pass 42", s, BigStride/8)
	}

	if _, err := task.SetPriority(1); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("SetPriority(1) error = %v, want ErrInvalidPriority", err)
	}
	if task.Priority() != 8 {
		t.Errorf("rejected change must keep priority 8, got %d", task.Priority())
	}

	if _, err := NewTask(2, "b", 0, nil); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("NewTask with priority 0 error = %v, want ErrInvalidPriority", err)
	}
}
