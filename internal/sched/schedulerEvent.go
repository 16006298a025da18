// internal/sched/schedulerEvent.go

package sched

import (
	"context"
	"time"
)

// StatusKind represents the type of dispatcher event
type StatusKind int

const (
	StatusIdle StatusKind = iota
	StatusEnqueue
	StatusDispatch
	StatusYield
	StatusPreempt
	StatusBlock
	StatusWake
	StatusFinish
	StatusPriorityUpdate
)

// StatusEvent is emitted on every scheduling decision and task state change.
// Pass is read after the event took effect, so a Dispatch event carries the
// already charged pass.
type StatusEvent struct {
	Time     time.Time
	Tick     int64
	Kind     StatusKind
	TaskID   TaskID
	Priority int64
	Pass     uint64
	RanTicks int64
}

// EventSink consumes dispatcher events, e.g. a trace file or a log.
type EventSink interface {
	Record(ctx context.Context, ev StatusEvent) error
}

func (sk StatusKind) String() string {
	switch sk {
	case StatusIdle:
		return "Idle"
	case StatusEnqueue:
		return "Enqueued"
	case StatusDispatch:
		return "Dispatch"
	case StatusYield:
		return "Yield"
	case StatusPreempt:
		return "Preempt"
	case StatusBlock:
		return "Block"
	case StatusWake:
		return "Wake"
	case StatusFinish:
		return "Finish"
	case StatusPriorityUpdate:
		return "Priority"
	default:
		return "Unknown"
	}
}
