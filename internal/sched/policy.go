package sched

import (
	"fmt"
	"sort"
	"strings"
)

// Policy decides which queued task runs next.
type Policy interface {
	Name() string
	// Select returns the index in queue of the task to remove. queue is never
	// empty and is ordered front to back.
	Select(queue []*Task) int
	// Charge is applied once to the selected task after it leaves the queue.
	Charge(t *Task)
}

// FIFO runs tasks in the order they became ready. It does no stride
// accounting, which suits the idle task and other exempt classes.
type FIFO struct{}

func (FIFO) Name() string { return "fifo" }
func (FIFO) Select(_ []*Task) int { return 0 }
func (FIFO) Charge(_ *Task) {}

// Stride runs the task with the smallest pass; the front-most one wins ties.
type Stride struct{}

func (Stride) Name() string { return "stride" }

func (Stride) Select(queue []*Task) int {
	best := 0
	bestPass := queue[0].checkedPass()
	for i := 1; i < len(queue); i++ {
		if p := queue[i].checkedPass(); PassLess(p, bestPass) {
			best, bestPass = i, p
		}
	}
	return best
}

func (Stride) Charge(t *Task) { t.advance() }

var policies = map[string]Policy{
	FIFO{}.Name():   FIFO{},
	Stride{}.Name(): Stride{},
}

// ParsePolicy looks a policy up by name, case-insensitively.
func ParsePolicy(name string) (Policy, error) {
	if p, ok := policies[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("unknown policy %q (known: %s)", name, strings.Join(PolicyNames(), ", "))
}

// PolicyNames lists the registered policies in sorted order.
func PolicyNames() []string {
	names := make([]string, 0, len(policies))
	for n := range policies {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
