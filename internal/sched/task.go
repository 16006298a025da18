package sched

import (
	"context"
	"sync"
)

// TaskID uniquely identifies a task in the process table.
type TaskID uint64

// Outcome reports what a task did with the ticks it was granted.
type Outcome struct {
	Ran      int64 // ticks actually consumed; clamped to [1, budget] by the dispatcher
	Exit     bool  // the task terminated
	BlockFor int64 // >0: the task blocks for this many ticks after running
}

// Work is the body of a task. It is called once per dispatch with the number
// of ticks the task may run before being preempted.
type Work func(ctx context.Context, budget int64) Outcome

// Task represents one schedulable unit. Its lifetime belongs to the process
// table; the ready queue only ever holds a reference.
type Task struct {
	ID   TaskID
	Name string
	Run  Work

	mu       sync.Mutex // guards schedule
	schedule Schedule
}

// NewTask creates a task with zero pass. An invalid priority is rejected here,
// never inside the scheduler.
func NewTask(id TaskID, name string, priority int64, work Work) (*Task, error) {
	t := &Task{ID: id, Name: name, Run: work}
	if err := t.schedule.SetPriority(priority); err != nil {
		return nil, err
	}
	return t, nil
}

// SetPriority is the priority-set boundary. It returns the new priority on
// success, the way the set_priority system call does.
func (t *Task) SetPriority(p int64) (int64, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.schedule.SetPriority(p); err != nil {
		return 0, err
	}
	return p, nil
}

// Schedule returns a copy of the task's stride bookkeeping.
func (t *Task) Schedule() Schedule {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.schedule
}

func (t *Task) Pass() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.schedule.pass
}

func (t *Task) Priority() int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.schedule.priority
}

// advance charges one stride. Called exactly once per selection.
func (t *Task) advance() {
	t.mu.Lock()
	t.schedule.check()
	t.schedule.Advance()
	t.mu.Unlock()
}

// checkedPass returns the pass after asserting the schedule is sane.
func (t *Task) checkedPass() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.schedule.check()
	return t.schedule.pass
}

// catchUp moves a task that fell behind floor (new or long blocked) up to it,
// so it cannot monopolise the CPU and pass values stay in PassLess's window.
func (t *Task) catchUp(floor uint64) {
	t.mu.Lock()
	if PassLess(t.schedule.pass, floor) {
		t.schedule.pass = floor
	}
	t.mu.Unlock()
}

// setPass places a freshly spawned task at the current pass floor.
func (t *Task) setPass(p uint64) {
	t.mu.Lock()
	t.schedule.pass = p
	t.mu.Unlock()
}
