package clock

import "time"

// Manual is a Scheduler driven explicitly by Advance. It is not safe for
// concurrent use and exists for deterministic tests.
type Manual struct {
	tasks []*manualTask
}

type manualTask struct {
	interval time.Duration
	fn       func()
	active   bool
}

func (t *manualTask) Cancel() { t.active = false }

// Every registers a periodic task.
func (m *Manual) Every(interval time.Duration, fn func()) Task {
	task := &manualTask{interval: interval, fn: fn, active: true}
	m.tasks = append(m.tasks, task)
	return task
}

// Advance fires every active task registered with the given interval once.
// Tasks created during the firing are not run until the next Advance.
func (m *Manual) Advance(interval time.Duration) {
	pending := make([]*manualTask, 0, len(m.tasks))
	for _, t := range m.tasks {
		if t.active && t.interval == interval {
			pending = append(pending, t)
		}
	}
	for _, t := range pending {
		if t.active {
			t.fn()
		}
	}
	m.compact()
}

// Active returns the number of active tasks with the given interval.
func (m *Manual) Active(interval time.Duration) int {
	n := 0
	for _, t := range m.tasks {
		if t.active && t.interval == interval {
			n++
		}
	}
	return n
}

func (m *Manual) compact() {
	kept := m.tasks[:0]
	for _, t := range m.tasks {
		if t.active {
			kept = append(kept, t)
		}
	}
	m.tasks = kept
}
