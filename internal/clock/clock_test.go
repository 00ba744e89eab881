package clock

import (
	"testing"
	"time"
)

func TestManualAdvance(t *testing.T) {
	var m Manual
	var a, b int
	ta := m.Every(time.Second, func() { a++ })
	m.Every(time.Minute, func() { b++ })

	m.Advance(time.Second)
	m.Advance(time.Second)
	if a != 2 || b != 0 {
		t.Fatalf("a=%d b=%d, want 2 0", a, b)
	}

	ta.Cancel()
	m.Advance(time.Second)
	if a != 2 {
		t.Errorf("cancelled task fired: a=%d", a)
	}
	if n := m.Active(time.Second); n != 0 {
		t.Errorf("expected 0 active second tasks, got %d", n)
	}
	if n := m.Active(time.Minute); n != 1 {
		t.Errorf("expected 1 active minute task, got %d", n)
	}
}

func TestManualCancelDuringFire(t *testing.T) {
	var m Manual
	var fired int
	var second Task
	m.Every(time.Second, func() { second.Cancel() })
	second = m.Every(time.Second, func() { fired++ })

	m.Advance(time.Second)
	if fired != 0 {
		t.Errorf("task cancelled earlier in the same advance should not fire, fired=%d", fired)
	}
}

func TestTickerRunsThroughPost(t *testing.T) {
	loop := make(chan func(), 16)
	tk := NewTicker(func(fn func()) { loop <- fn })

	task := tk.Every(5*time.Millisecond, func() {})
	var calls int
	counted := tk.Every(5*time.Millisecond, func() { calls++ })

	deadline := time.After(2 * time.Second)
	for calls < 3 {
		select {
		case fn := <-loop:
			fn()
		case <-deadline:
			t.Fatalf("timed out after %d calls", calls)
		}
	}
	task.Cancel()
	counted.Cancel()
	counted.Cancel()

	before := calls
	// Drain anything already queued; cancelled firings must be dropped.
	for {
		select {
		case fn := <-loop:
			fn()
			continue
		case <-time.After(30 * time.Millisecond):
		}
		break
	}
	if calls != before {
		t.Errorf("cancelled task fired after Cancel: %d -> %d", before, calls)
	}
}
