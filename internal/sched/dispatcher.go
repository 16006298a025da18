// internal/sched/dispatcher.go

package sched

import (
	"cmp"
	"context"
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/emirpasic/gods/queues/priorityqueue"
)

// Dispatcher simulates the kernel side around the TaskManager: it spawns
// tasks into the process table, asks the manager for the next task, runs it
// for one slice and puts it back, parks it or reaps it.
//
// Spawn, Run and Step must be called from a single goroutine, matching the
// single-core model. SetPriority, Tick and Stats may be called from anywhere.
type Dispatcher struct {
	policy  Policy
	opts    Options
	logger  *slog.Logger
	manager *TaskManager
	table   *Table
	clock   *TickClock

	waiters   *priorityqueue.Queue // of *waiter, earliest wake first
	seq       uint64
	tick      atomic.Int64
	passFloor uint64 // smallest queued pass at the last selection
	renice    []Renice

	mu      sync.Mutex // protects sinks, stats and sinkErr
	stats   map[TaskID]*TaskStats
	sinkErr error
}

// TaskStats accumulates what the dispatcher observed for one task.
type TaskStats struct {
	ID       TaskID
	Name     string
	Priority int64
	Selected int64
	Ran      int64
	Finished bool
}

type waiter struct {
	task   *Task
	wakeAt int64
	seq    uint64
}

// NewDispatcher creates a dispatcher selecting with p.
func NewDispatcher(p Policy, opts ...Option) *Dispatcher {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	renice := slices.Clone(o.Renice)
	slices.SortStableFunc(renice, func(a, b Renice) int { return cmp.Compare(a.At, b.At) })

	return &Dispatcher{
		policy:  p,
		opts:    o,
		logger:  o.Logger.With("component", "dispatcher", "policy", p.Name()),
		manager: NewTaskManager(),
		table:   NewTable(),
		waiters: priorityqueue.NewWith(waiterCmp),
		renice:  renice,
		stats:   make(map[TaskID]*TaskStats),
	}
}

func (d *Dispatcher) Manager() *TaskManager { return d.manager }
func (d *Dispatcher) Table() *Table { return d.table }

// Tick returns the logical time.
func (d *Dispatcher) Tick() int64 { return d.tick.Load() }

// Spawn registers t in the process table and makes it ready. The new task
// starts at the current pass floor so it competes fairly with tasks that have
// been running for a while.
func (d *Dispatcher) Spawn(ctx context.Context, t *Task) error {
	if err := d.table.Insert(t); err != nil {
		return err
	}
	t.setPass(d.passFloor)

	d.mu.Lock()
	d.stats[t.ID] = &TaskStats{ID: t.ID, Name: t.Name, Priority: t.Priority()}
	d.mu.Unlock()

	d.manager.Add(t)
	d.emit(ctx, t, StatusEnqueue, 0)
	return nil
}

// SetPriority changes the priority of a live task.
func (d *Dispatcher) SetPriority(ctx context.Context, id TaskID, p int64) (int64, error) {
	t, err := d.table.Get(id)
	if err != nil {
		return 0, err
	}
	np, err := t.SetPriority(p)
	if err != nil {
		return 0, err
	}
	d.mu.Lock()
	if st, ok := d.stats[id]; ok {
		st.Priority = np
	}
	d.mu.Unlock()
	d.emit(ctx, t, StatusPriorityUpdate, 0)
	return np, nil
}

// Run drives the simulation until every task has exited, the tick budget is
// spent or ctx is cancelled. It returns the first sink error, if any.
func (d *Dispatcher) Run(ctx context.Context) error {
	if d.opts.TickInterval > 0 {
		d.clock = NewTickClock(1)
		d.clock.Start(d.opts.TickInterval)
		defer d.clock.Stop()
	}

	d.logger.Info("run started", "tasks", d.table.Len(), "slice_ticks", d.opts.SliceTicks)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.opts.MaxTicks > 0 && d.tick.Load() >= d.opts.MaxTicks {
			d.logger.Info("tick budget spent", "tick", d.tick.Load(), "live", d.table.Len())
			break
		}
		if !d.Step(ctx) {
			d.logger.Info("no tasks left", "tick", d.tick.Load())
			break
		}
	}
	if d.clock != nil {
		d.logger.Info("clock stopped", "tick", d.tick.Load(), "clock_ticks", d.clock.Count())
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sinkErr
}

// Step performs one scheduling event. It returns false when there is nothing
// left to run or wait for.
func (d *Dispatcher) Step(ctx context.Context) bool {
	d.applyRenice(ctx)
	d.wake(ctx)

	if floor, ok := d.manager.MinPass(); ok {
		d.passFloor = floor
	}
	t := d.manager.Next(d.policy)
	if t == nil {
		if d.waiters.Empty() {
			return false
		}
		d.emit(ctx, nil, StatusIdle, 0)
		d.advance(ctx, 1)
		return true
	}

	d.mu.Lock()
	d.stat(t).Selected++
	d.mu.Unlock()
	d.emit(ctx, t, StatusDispatch, 0)

	out := d.run(ctx, t)
	d.advance(ctx, out.Ran)

	d.mu.Lock()
	d.stat(t).Ran += out.Ran
	d.mu.Unlock()

	switch {
	case out.Exit:
		d.table.Remove(t.ID)
		d.mu.Lock()
		d.stat(t).Finished = true
		d.mu.Unlock()
		d.logger.Debug("task finished", "task_id", t.ID, "tick", d.tick.Load())
		d.emit(ctx, t, StatusFinish, out.Ran)
	case out.BlockFor > 0:
		d.seq++
		d.waiters.Enqueue(&waiter{task: t, wakeAt: d.tick.Load() + out.BlockFor, seq: d.seq})
		d.emit(ctx, t, StatusBlock, out.Ran)
	case out.Ran < d.opts.SliceTicks:
		d.manager.Add(t)
		d.emit(ctx, t, StatusYield, out.Ran)
	default:
		d.manager.Add(t)
		d.emit(ctx, t, StatusPreempt, out.Ran)
	}
	return true
}

// Stats returns per-task counters in id order, including exited tasks.
func (d *Dispatcher) Stats() []TaskStats {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]TaskStats, 0, len(d.stats))
	for _, st := range d.stats {
		out = append(out, *st)
	}
	slices.SortFunc(out, func(a, b TaskStats) int { return cmp.Compare(a.ID, b.ID) })
	return out
}

// stat returns the counters for t, creating them for tasks that were queued
// directly on the manager instead of through Spawn. d.mu must be held.
func (d *Dispatcher) stat(t *Task) *TaskStats {
	st, ok := d.stats[t.ID]
	if !ok {
		st = &TaskStats{ID: t.ID, Name: t.Name, Priority: t.Priority()}
		d.stats[t.ID] = st
	}
	return st
}

func (d *Dispatcher) run(ctx context.Context, t *Task) Outcome {
	if t.Run == nil {
		return Outcome{Ran: 1, Exit: true}
	}
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := t.Run(runCtx, d.opts.SliceTicks)
	out.Ran = min(max(out.Ran, 1), d.opts.SliceTicks)
	return out
}

// advance moves logical time forward, waiting on the clock when paced.
func (d *Dispatcher) advance(ctx context.Context, n int64) {
	for range n {
		if d.clock != nil {
			select {
			case <-d.clock.Ch:
			case <-ctx.Done():
				return
			}
		}
		d.tick.Add(1)
	}
}

func (d *Dispatcher) wake(ctx context.Context) {
	for {
		v, ok := d.waiters.Peek()
		if !ok || v.(*waiter).wakeAt > d.tick.Load() {
			return
		}
		d.waiters.Dequeue()
		t := v.(*waiter).task
		t.catchUp(d.passFloor)
		d.manager.Add(t)
		d.emit(ctx, t, StatusWake, 0)
	}
}

func (d *Dispatcher) applyRenice(ctx context.Context) {
	for len(d.renice) > 0 && d.renice[0].At <= d.tick.Load() {
		r := d.renice[0]
		d.renice = d.renice[1:]
		if _, err := d.SetPriority(ctx, r.ID, r.Priority); err != nil {
			d.logger.Warn("priority change rejected", "task_id", r.ID, "priority", r.Priority, "error", err)
		}
	}
}

func (d *Dispatcher) emit(ctx context.Context, t *Task, kind StatusKind, ran int64) {
	ev := StatusEvent{
		Time:     time.Now(),
		Tick:     d.tick.Load(),
		Kind:     kind,
		RanTicks: ran,
	}
	if t != nil {
		s := t.Schedule()
		ev.TaskID, ev.Priority, ev.Pass = t.ID, s.Priority(), s.Pass()
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	for _, s := range d.opts.Sinks {
		if err := s.Record(ctx, ev); err != nil {
			d.logger.Warn("event sink failed", "event", kind.String(), "error", err)
			if d.sinkErr == nil {
				d.sinkErr = err
			}
		}
	}
}

func waiterCmp(a, b interface{}) int {
	wa, wb := a.(*waiter), b.(*waiter)
	if c := cmp.Compare(wa.wakeAt, wb.wakeAt); c != 0 {
		return c
	}
	return cmp.Compare(wa.seq, wb.seq)
}
