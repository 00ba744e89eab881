package notify

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/pavelanni/conceptbridge/internal/i18n"
)

type fakeSender struct {
	mu     sync.Mutex
	bodies []string
	sent   chan struct{}
	err    error
}

func (f *fakeSender) Send(summary, body string) error {
	f.mu.Lock()
	f.bodies = append(f.bodies, summary+": "+body)
	f.mu.Unlock()
	f.sent <- struct{}{}
	return f.err
}

func startNotifier(t *testing.T, s *fakeSender) *Notifier {
	t.Helper()
	if err := i18n.Init("en"); err != nil {
		t.Fatal(err)
	}
	n := New(s, "en")
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go n.Run(ctx)
	return n
}

func wait(t *testing.T, s *fakeSender) {
	t.Helper()
	select {
	case <-s.sent:
	case <-time.After(2 * time.Second):
		t.Fatal("notification not sent")
	}
}

func TestNotifierSendsMilestonesAndCompletion(t *testing.T) {
	s := &fakeSender{sent: make(chan struct{}, 4)}
	n := startNotifier(t, s)

	n.OnTick(10)
	n.OnMessage("FocusOn")
	n.OnMilestone("Quote1")
	wait(t, s)
	n.OnSessionComplete()
	wait(t, s)

	s.mu.Lock()
	defer s.mu.Unlock()
	want := []string{
		"ConceptBridge: 🚀 Stay focused, greatness is near!",
		"ConceptBridge: 🎉 Session Complete!",
	}
	if len(s.bodies) != len(want) {
		t.Fatalf("sent %v, want %v", s.bodies, want)
	}
	for i := range want {
		if s.bodies[i] != want[i] {
			t.Errorf("note %d = %q, want %q", i, s.bodies[i], want[i])
		}
	}
}

func TestNotifierSurvivesSendFailure(t *testing.T) {
	s := &fakeSender{sent: make(chan struct{}, 4), err: errors.New("no bus")}
	n := startNotifier(t, s)

	n.OnMilestone("one minute left")
	wait(t, s)
	n.OnSessionComplete()
	wait(t, s)
}
