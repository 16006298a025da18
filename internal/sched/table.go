package sched

import (
	"fmt"
	"sync"

	"github.com/emirpasic/gods/maps/treemap"
)

// Table is the process table: it owns every live task, whether ready, running
// or blocked. Iteration is in TaskID order.
type Table struct {
	mu    sync.RWMutex
	tasks *treemap.Map // TaskID -> *Task
}

func NewTable() *Table {
	return &Table{tasks: treemap.NewWith(idCmp)}
}

// Insert registers t. Ids must be unique among live tasks.
func (tb *Table) Insert(t *Task) error {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if _, dup := tb.tasks.Get(t.ID); dup {
		return fmt.Errorf("task %d: %w", t.ID, ErrDuplicateTask)
	}
	tb.tasks.Put(t.ID, t)
	return nil
}

func (tb *Table) Get(id TaskID) (*Task, error) {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	v, ok := tb.tasks.Get(id)
	if !ok {
		return nil, fmt.Errorf("task %d: %w", id, ErrNoSuchTask)
	}
	return v.(*Task), nil
}

// Remove drops a terminated task. It reports whether the task was present.
func (tb *Table) Remove(id TaskID) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()
	if _, ok := tb.tasks.Get(id); !ok {
		return false
	}
	tb.tasks.Remove(id)
	return true
}

func (tb *Table) Len() int {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	return tb.tasks.Size()
}

// Tasks returns the live tasks in id order.
func (tb *Table) Tasks() []*Task {
	tb.mu.RLock()
	defer tb.mu.RUnlock()
	out := make([]*Task, 0, tb.tasks.Size())
	tb.tasks.Each(func(_, v interface{}) {
		out = append(out, v.(*Task))
	})
	return out
}

func idCmp(a, b interface{}) int {
	ia, ib := a.(TaskID), b.(TaskID)
	switch {
	case ia < ib:
		return -1
	case ia > ib:
		return 1
	default:
		return 0
	}
}
