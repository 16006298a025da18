package job

import (
	"context"
	"fmt"

	"strideq/internal/config"
	"strideq/internal/sched"
)

// Burst returns CPU-bound work that exits once it has consumed ticks.
func Burst(ticks int64) sched.Work {
	remaining := max(ticks, 1)
	return func(ctx context.Context, budget int64) sched.Outcome {
		if ctx.Err() != nil {
			return sched.Outcome{Ran: 1, Exit: true}
		}
		ran := min(remaining, budget)
		remaining -= ran
		return sched.Outcome{Ran: ran, Exit: remaining == 0}
	}
}

// Forever never exits and always uses its whole slice.
func Forever() sched.Work {
	return func(_ context.Context, budget int64) sched.Outcome {
		return sched.Outcome{Ran: budget}
	}
}

// IOBound alternates cpu ticks of work with wait ticks blocked, for the given
// number of rounds, then exits. A burst longer than one slice is preempted and
// resumed before the task blocks.
func IOBound(cpu, wait int64, rounds int) sched.Work {
	cpu, wait, rounds = max(cpu, 1), max(wait, 1), max(rounds, 1)
	left := cpu
	return func(ctx context.Context, budget int64) sched.Outcome {
		if ctx.Err() != nil {
			return sched.Outcome{Ran: 1, Exit: true}
		}
		ran := min(left, budget)
		left -= ran
		if left > 0 {
			return sched.Outcome{Ran: ran}
		}
		rounds--
		if rounds == 0 {
			return sched.Outcome{Ran: ran, Exit: true}
		}
		left = cpu
		return sched.Outcome{Ran: ran, BlockFor: wait}
	}
}

// FromSpec builds the work described by a config entry.
func FromSpec(ws config.WorkSpec) (sched.Work, error) {
	switch ws.Kind {
	case config.WorkBurst:
		return Burst(ws.Ticks), nil
	case config.WorkForever:
		return Forever(), nil
	case config.WorkIO:
		return IOBound(ws.Ticks, ws.Wait, ws.Rounds), nil
	default:
		return nil, fmt.Errorf("unknown work kind %q", ws.Kind)
	}
}
