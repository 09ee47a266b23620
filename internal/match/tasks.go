package match

import "context"

// TaskFunc runs one cycle of a periodic activity.
type TaskFunc func(ctx context.Context, tick uint64)

// Task is a cancellable handle for a tick-scheduled periodic activity.
type Task struct {
	name      string
	interval  uint64
	nextDue   uint64
	fn        TaskFunc
	cancelled bool
}

// Cancel stops the task; a cancelled task never runs again.
func (t *Task) Cancel() {
	if t == nil {
		return
	}
	t.cancelled = true
}

// Cancelled reports whether the task has been cancelled.
func (t *Task) Cancelled() bool {
	return t != nil && t.cancelled
}

// Name returns the task's registered name.
func (t *Task) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// TaskSet owns a group of periodic tasks that advance on simulation ticks
// and can be cancelled together in a single call, so no late tick can run a
// stale task afterwards.
type TaskSet struct {
	tasks []*Task
}

// Schedule registers fn to run every intervalTicks, first firing
// intervalTicks after the current tick.
func (s *TaskSet) Schedule(name string, currentTick, intervalTicks uint64, fn TaskFunc) *Task {
	if s == nil || fn == nil || intervalTicks == 0 {
		return nil
	}
	task := &Task{
		name:     name,
		interval: intervalTicks,
		nextDue:  currentTick + intervalTicks,
		fn:       fn,
	}
	s.tasks = append(s.tasks, task)
	return task
}

// Advance runs every due, non-cancelled task for the given tick.
func (s *TaskSet) Advance(ctx context.Context, tick uint64) {
	if s == nil {
		return
	}
	for _, task := range s.tasks {
		if task.cancelled || tick < task.nextDue {
			continue
		}
		task.nextDue = tick + task.interval
		task.fn(ctx, tick)
	}
}

// CancelAll cancels every task in the set.
func (s *TaskSet) CancelAll() {
	if s == nil {
		return
	}
	for _, task := range s.tasks {
		task.cancelled = true
	}
}

// Active reports the number of non-cancelled tasks.
func (s *TaskSet) Active() int {
	if s == nil {
		return 0
	}
	count := 0
	for _, task := range s.tasks {
		if !task.cancelled {
			count++
		}
	}
	return count
}
