package agent

import "context"

// Loop serializes all state transitions onto one goroutine.
type Loop struct {
	events chan func()
	done   chan struct{}
}

// NewLoop creates a loop with a queue of the given size.
func NewLoop(buffer int) *Loop {
	return &Loop{
		events: make(chan func(), buffer),
		done:   make(chan struct{}),
	}
}

// Post queues fn to run on the loop. It is safe for concurrent use and drops
// fn once the loop has stopped.
func (l *Loop) Post(fn func()) {
	select {
	case l.events <- fn:
	case <-l.done:
	}
}

// Run executes posted functions until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case fn := <-l.events:
			fn()
		case <-ctx.Done():
			close(l.done)
			return ctx.Err()
		}
	}
}
