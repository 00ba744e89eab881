package focus

import (
	"context"
	"errors"
	"testing"

	"github.com/pavelanni/conceptbridge/internal/clock"
	"github.com/pavelanni/conceptbridge/internal/model"
	"github.com/pavelanni/conceptbridge/internal/video/videotest"
)

type recorder struct {
	ticks      []int
	milestones []string
	states     []model.SessionStatus
	completes  int
}

func (r *recorder) OnTick(remaining int)                    { r.ticks = append(r.ticks, remaining) }
func (r *recorder) OnMilestone(message string)               { r.milestones = append(r.milestones, message) }
func (r *recorder) OnStateChange(status model.SessionStatus) { r.states = append(r.states, status) }
func (r *recorder) OnSessionComplete()                       { r.completes++ }

var testConfig = model.SessionConfig{
	FocusDurationSeconds: 1500,
	DemoDurationSeconds:  180,
	Milestones: []model.Milestone{
		{Threshold: 60, Message: "one minute left"},
		{Threshold: 120, Message: "two minutes left"},
	},
}

func newTestTimer(t *testing.T) (*Timer, *clock.Manual, *recorder) {
	t.Helper()
	sched := &clock.Manual{}
	rec := &recorder{}
	return NewTimer(testConfig, sched, rec), sched, rec
}

func TestFormatRemaining(t *testing.T) {
	tests := []struct {
		seconds int
		want    string
	}{
		{0, "0:00"},
		{5, "0:05"},
		{59, "0:59"},
		{60, "1:00"},
		{65, "1:05"},
		{180, "3:00"},
		{1500, "25:00"},
		{-3, "0:00"},
	}
	for _, tt := range tests {
		if got := FormatRemaining(tt.seconds); got != tt.want {
			t.Errorf("FormatRemaining(%d) = %q, want %q", tt.seconds, got, tt.want)
		}
	}

	// Every value in range has a two-digit seconds part.
	for s := 0; s <= testConfig.FocusDurationSeconds; s++ {
		got := FormatRemaining(s)
		colon := len(got) - 3
		if colon < 1 || got[colon] != ':' {
			t.Fatalf("FormatRemaining(%d) = %q: seconds not zero-padded to width 2", s, got)
		}
	}
}

func TestStartFromIdle(t *testing.T) {
	tm, sched, rec := newTestTimer(t)
	ctx := context.Background()

	if !tm.Start(ctx, 180, model.CauseDemo) {
		t.Fatal("expected start to change state")
	}
	if tm.State() != model.StateRunning {
		t.Errorf("expected running, got %s", tm.State())
	}
	if tm.Remaining() != 180 {
		t.Errorf("expected 180 remaining, got %d", tm.Remaining())
	}
	if tm.Status().StartedBy != model.CauseDemo {
		t.Errorf("expected demo cause, got %s", tm.Status().StartedBy)
	}
	if n := sched.Active(TickInterval); n != 1 {
		t.Errorf("expected 1 tick task, got %d", n)
	}
	if len(rec.states) != 1 {
		t.Errorf("expected 1 state change, got %d", len(rec.states))
	}
}

func TestStartWhileRunningIsNoop(t *testing.T) {
	tm, sched, rec := newTestTimer(t)
	ctx := context.Background()
	tm.Start(ctx, 180, model.CauseDemo)
	sched.Advance(TickInterval)

	states := len(rec.states)
	if tm.Start(ctx, 1500, model.CauseManual) {
		t.Error("start while running should report no change")
	}
	if tm.Remaining() != 179 {
		t.Errorf("expected remaining unchanged at 179, got %d", tm.Remaining())
	}
	if tm.Status().StartedBy != model.CauseDemo {
		t.Errorf("cause changed to %s", tm.Status().StartedBy)
	}
	if len(rec.states) != states {
		t.Error("no-op start emitted a state change")
	}
	if n := sched.Active(TickInterval); n != 1 {
		t.Errorf("expected a single tick task, got %d", n)
	}
}

func TestPauseAndResume(t *testing.T) {
	tm, sched, _ := newTestTimer(t)
	ctx := context.Background()
	tm.Start(ctx, 180, model.CauseDemo)
	sched.Advance(TickInterval)
	sched.Advance(TickInterval)

	if !tm.Pause(model.PauseReasonVideo) {
		t.Fatal("expected pause to change state")
	}
	if tm.Status().Reason != model.PauseReasonVideo {
		t.Errorf("expected reason video, got %q", tm.Status().Reason)
	}
	if n := sched.Active(TickInterval); n != 0 {
		t.Errorf("pause should cancel ticking, %d tasks active", n)
	}

	// Remaining only decreases while running.
	sched.Advance(TickInterval)
	if tm.Remaining() != 178 {
		t.Errorf("expected 178 while paused, got %d", tm.Remaining())
	}

	// Resume ignores the duration argument.
	tm.Start(ctx, 1500, model.CauseManual)
	if tm.Remaining() != 178 {
		t.Errorf("resume should keep remaining 178, got %d", tm.Remaining())
	}
	if tm.Status().StartedBy != model.CauseDemo {
		t.Errorf("resume should keep the original cause, got %s", tm.Status().StartedBy)
	}
	sched.Advance(TickInterval)
	if tm.Remaining() != 177 {
		t.Errorf("expected 177 after resumed tick, got %d", tm.Remaining())
	}
}

func TestPauseIsNoopWhenNotRunning(t *testing.T) {
	tests := []struct {
		name  string
		setup func(tm *Timer)
	}{
		{"idle", func(tm *Timer) {}},
		{"paused", func(tm *Timer) {
			tm.Start(context.Background(), 180, model.CauseDemo)
			tm.Pause(model.PauseReasonManual)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, _, rec := newTestTimer(t)
			tt.setup(tm)
			before := tm.Status()
			states := len(rec.states)
			if tm.Pause(model.PauseReasonAd) {
				t.Error("pause should report no change")
			}
			if tm.Status() != before {
				t.Errorf("status changed: %+v -> %+v", before, tm.Status())
			}
			if len(rec.states) != states {
				t.Error("no-op pause emitted a state change")
			}
		})
	}
}

func TestResetFromAnyState(t *testing.T) {
	tests := []struct {
		name  string
		setup func(tm *Timer, sched *clock.Manual)
	}{
		{"idle", func(*Timer, *clock.Manual) {}},
		{"running", func(tm *Timer, sched *clock.Manual) {
			tm.Start(context.Background(), 180, model.CauseDemo)
			sched.Advance(TickInterval)
		}},
		{"paused", func(tm *Timer, sched *clock.Manual) {
			tm.Start(context.Background(), 180, model.CauseDemo)
			tm.Pause(model.PauseReasonManual)
		}},
		{"completed", func(tm *Timer, sched *clock.Manual) {
			tm.Start(context.Background(), 2, model.CauseDemo)
			sched.Advance(TickInterval)
			sched.Advance(TickInterval)
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm, sched, _ := newTestTimer(t)
			tt.setup(tm, sched)
			tm.Reset()
			if tm.State() != model.StateIdle {
				t.Errorf("expected idle, got %s", tm.State())
			}
			if tm.Remaining() != testConfig.FocusDurationSeconds {
				t.Errorf("expected %d remaining, got %d", testConfig.FocusDurationSeconds, tm.Remaining())
			}
			if n := sched.Active(TickInterval); n != 0 {
				t.Errorf("reset left %d tick tasks active", n)
			}
		})
	}
}

func TestTickCompletesOnce(t *testing.T) {
	tm, sched, rec := newTestTimer(t)
	v := videotest.NewVideo("v1")
	v.SetPlaying(true)
	tm.Track(v)

	tm.Start(context.Background(), 3, model.CauseAuto)
	for i := 0; i < 10; i++ {
		sched.Advance(TickInterval)
	}
	// Direct ticks after completion must also be harmless.
	tm.Tick(context.Background())

	if tm.State() != model.StateCompleted {
		t.Fatalf("expected completed, got %s", tm.State())
	}
	if tm.Remaining() != 0 {
		t.Errorf("expected 0 remaining, got %d", tm.Remaining())
	}
	if rec.completes != 1 {
		t.Errorf("expected exactly 1 completion, got %d", rec.completes)
	}
	if v.Pauses() != 1 {
		t.Errorf("expected exactly 1 video pause, got %d", v.Pauses())
	}
	for _, r := range rec.ticks {
		if r < 0 {
			t.Fatalf("remaining went negative: %d", r)
		}
	}
	completed := 0
	for _, s := range rec.states {
		if s.State == model.StateCompleted {
			completed++
		}
	}
	if completed != 1 {
		t.Errorf("expected 1 completed transition, got %d", completed)
	}
}

func TestCompletionIgnoresPauseFailure(t *testing.T) {
	tm, sched, rec := newTestTimer(t)
	v := videotest.NewVideo("v1")
	v.FailPause(errors.New("blocked by page"))
	tm.Track(v)

	tm.Start(context.Background(), 1, model.CauseDemo)
	sched.Advance(TickInterval)

	if tm.State() != model.StateCompleted {
		t.Errorf("expected completed despite pause failure, got %s", tm.State())
	}
	if rec.completes != 1 {
		t.Errorf("expected completion callback, got %d", rec.completes)
	}
}

func TestMilestones(t *testing.T) {
	tm, sched, rec := newTestTimer(t)
	tm.Start(context.Background(), 125, model.CauseDemo)
	for i := 0; i < 125; i++ {
		sched.Advance(TickInterval)
	}
	want := []string{"two minutes left", "one minute left"}
	if len(rec.milestones) != len(want) {
		t.Fatalf("milestones = %v, want %v", rec.milestones, want)
	}
	for i := range want {
		if rec.milestones[i] != want[i] {
			t.Errorf("milestone %d = %q, want %q", i, rec.milestones[i], want[i])
		}
	}
}

func TestStartAfterCompletedRestarts(t *testing.T) {
	tm, sched, _ := newTestTimer(t)
	ctx := context.Background()
	tm.Start(ctx, 1, model.CauseDemo)
	sched.Advance(TickInterval)

	if !tm.Start(ctx, 180, model.CauseManual) {
		t.Fatal("expected a fresh start from completed")
	}
	if tm.Remaining() != 180 || tm.State() != model.StateRunning {
		t.Errorf("unexpected status %+v", tm.Status())
	}
	if n := sched.Active(TickInterval); n != 1 {
		t.Errorf("expected 1 tick task, got %d", n)
	}
}

func TestStartRejectsNonPositiveDuration(t *testing.T) {
	tm, sched, _ := newTestTimer(t)
	if tm.Start(context.Background(), 0, model.CauseManual) {
		t.Error("zero duration should not start")
	}
	if tm.State() != model.StateIdle || sched.Active(TickInterval) != 0 {
		t.Errorf("unexpected status %+v", tm.Status())
	}
}
