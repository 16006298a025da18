// internal/sched/manager.go

package sched

import (
	"sync"

	"github.com/emirpasic/gods/lists/doublylinkedlist"
)

// TaskManager owns the ready queue. It never runs a task; it only decides
// which queued task is handed to the dispatcher next.
//
// Every method takes sole access to the manager for its whole duration. A
// second acquisition while one is held is a logic error in the cooperative
// model and panics instead of blocking.
type TaskManager struct {
	mu    sync.Mutex
	queue *doublylinkedlist.List // of *Task, front = oldest
}

// NewTaskManager returns a manager with an empty ready queue.
func NewTaskManager() *TaskManager {
	return &TaskManager{queue: doublylinkedlist.New()}
}

func (m *TaskManager) borrow() {
	if !m.mu.TryLock() {
		panic("sched: task manager already borrowed")
	}
}

// Add appends t to the back of the ready queue.
//
// Precondition: t is not already queued. Queuing a task twice is a caller bug
// and is not detected here.
func (m *TaskManager) Add(t *Task) {
	m.borrow()
	defer m.mu.Unlock()
	m.queue.Add(t)
}

// Fetch removes and returns the front task, or nil when the queue is empty.
func (m *TaskManager) Fetch() *Task {
	return m.Next(FIFO{})
}

// StrideScheduling removes and returns the task with the smallest pass,
// charging it one stride. It returns nil when the queue is empty.
func (m *TaskManager) StrideScheduling() *Task {
	return m.Next(Stride{})
}

// Next removes the task chosen by p and charges it. nil means no runnable
// task; the caller should idle.
func (m *TaskManager) Next(p Policy) *Task {
	m.borrow()
	defer m.mu.Unlock()

	if m.queue.Empty() {
		return nil
	}
	queue := m.tasks()
	i := p.Select(queue)
	if i < 0 || i >= len(queue) {
		panic("sched: policy " + p.Name() + " selected outside the queue")
	}
	m.queue.Remove(i)
	t := queue[i]
	p.Charge(t)
	return t
}

// Len returns the number of ready tasks.
func (m *TaskManager) Len() int {
	m.borrow()
	defer m.mu.Unlock()
	return m.queue.Size()
}

// MinPass returns the smallest pass among queued tasks.
func (m *TaskManager) MinPass() (uint64, bool) {
	m.borrow()
	defer m.mu.Unlock()
	if m.queue.Empty() {
		return 0, false
	}
	queue := m.tasks()
	return queue[Stride{}.Select(queue)].Pass(), true
}

// Snapshot returns the queued task ids front to back.
func (m *TaskManager) Snapshot() []TaskID {
	m.borrow()
	defer m.mu.Unlock()
	ids := make([]TaskID, 0, m.queue.Size())
	for _, t := range m.tasks() {
		ids = append(ids, t.ID)
	}
	return ids
}

func (m *TaskManager) tasks() []*Task {
	out := make([]*Task, 0, m.queue.Size())
	it := m.queue.Iterator()
	for it.Next() {
		out = append(out, it.Value().(*Task))
	}
	return out
}
