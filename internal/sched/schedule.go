// internal/sched/schedule.go

package sched

import (
	"errors"
	"fmt"
)

const (
	// BigStride is the numerator of every stride. Strides are BigStride/priority.
	BigStride uint64 = 1 << 32

	MinPriority     int64 = 2
	MaxPriority     int64 = 1 << 16 // keeps every stride at 1<<16 or above
	DefaultPriority int64 = 16
)

// The largest stride is BigStride/MinPriority. Pass values of queued tasks never
// drift further apart than that, so it has to fit in half the uint64 range for
// PassLess to stay transitive.
const _ = uint64(1<<63) - BigStride/uint64(MinPriority)

// ErrInvalidPriority is returned when a priority outside [MinPriority, MaxPriority]
// is requested.
var ErrInvalidPriority = errors.New("invalid priority")

// Schedule is the stride bookkeeping embedded in every task.
type Schedule struct {
	priority int64
	stride   uint64
	pass     uint64
}

// NewSchedule returns a schedule with zero pass. It panics on an invalid
// priority; callers coming from outside the kernel go through SetPriority.
func NewSchedule(priority int64) Schedule {
	var s Schedule
	if err := s.SetPriority(priority); err != nil {
		panic(err)
	}
	return s
}

// SetPriority validates p and recomputes the stride. The pass is kept so a
// task does not gain or lose its place by changing priority.
func (s *Schedule) SetPriority(p int64) error {
	if p < MinPriority || p > MaxPriority {
		return fmt.Errorf("%w: %d (want %d..%d)", ErrInvalidPriority, p, MinPriority, MaxPriority)
	}
	s.priority = p
	s.stride = BigStride / uint64(p)
	return nil
}

// Advance charges one scheduling event. Overflow wraps.
func (s *Schedule) Advance() {
	s.pass += s.stride
}

func (s *Schedule) Priority() int64 { return s.priority }
func (s *Schedule) Stride() uint64 { return s.stride }
func (s *Schedule) Pass() uint64 { return s.pass }

// check aborts when the scheduler sees a schedule that could never have passed
// SetPriority.
func (s *Schedule) check() {
	if s.priority < MinPriority || s.priority > MaxPriority || s.stride == 0 {
		panic(fmt.Sprintf("sched: corrupt schedule (priority=%d stride=%d)", s.priority, s.stride))
	}
}

// PassLess reports whether pass a is behind pass b. The difference is taken in
// uint64 and read back as signed, so values that wrapped past zero still
// compare correctly as long as they are less than 1<<63 apart.
func PassLess(a, b uint64) bool {
	return int64(a-b) < 0
}
