// Package clock provides cancellable periodic tasks that run on a single
// cooperative event loop.
package clock

import (
	"sync"
	"sync/atomic"
	"time"
)

// Task is a handle to an active periodic task.
type Task interface {
	Cancel()
}

// Scheduler creates periodic tasks.
type Scheduler interface {
	Every(interval time.Duration, fn func()) Task
}

// Ticker schedules tasks with time.Ticker and runs each firing through post,
// so fn always executes on the caller's event loop.
type Ticker struct {
	post func(func())
}

// NewTicker creates a Ticker delivering firings through post.
func NewTicker(post func(func())) *Ticker {
	return &Ticker{post: post}
}

type tickerTask struct {
	stop      chan struct{}
	once      sync.Once
	cancelled atomic.Bool
}

// Every starts a periodic task. The first firing happens after one interval.
func (t *Ticker) Every(interval time.Duration, fn func()) Task {
	task := &tickerTask{stop: make(chan struct{})}
	tk := time.NewTicker(interval)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-task.stop:
				return
			case <-tk.C:
				t.post(func() {
					// A firing may already be queued when Cancel runs.
					if task.cancelled.Load() {
						return
					}
					fn()
				})
			}
		}
	}()
	return task
}

func (t *tickerTask) Cancel() {
	t.once.Do(func() {
		t.cancelled.Store(true)
		close(t.stop)
	})
}
