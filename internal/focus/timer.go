// Package focus implements the focus session timer and its reconciliation
// against advertisement playback.
package focus

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/pavelanni/conceptbridge/internal/clock"
	"github.com/pavelanni/conceptbridge/internal/model"
	"github.com/pavelanni/conceptbridge/internal/video"
)

// TickInterval is the scheduling quantum of the countdown.
const TickInterval = time.Second

// Listener receives timer notifications.
type Listener interface {
	OnTick(remaining int)
	OnMilestone(message string)
	OnStateChange(status model.SessionStatus)
	OnSessionComplete()
}

// Timer is the focus session state machine. It is not safe for concurrent
// use; every method must run on the agent's event loop.
type Timer struct {
	cfg        model.SessionConfig
	sched      clock.Scheduler
	listener   Listener
	milestones map[int]string

	state     model.SessionState
	remaining int
	startedBy model.StartCause
	reason    string
	video     video.Video
	task      clock.Task
}

// NewTimer creates an idle timer.
func NewTimer(cfg model.SessionConfig, sched clock.Scheduler, l Listener) *Timer {
	ms := make(map[int]string, len(cfg.Milestones))
	for _, m := range cfg.Milestones {
		ms[m.Threshold] = m.Message
	}
	return &Timer{
		cfg:        cfg,
		sched:      sched,
		listener:   l,
		milestones: ms,
		state:      model.StateIdle,
		remaining:  cfg.FocusDurationSeconds,
	}
}

// Track sets the video controlled on completion. The timer never owns it.
func (t *Timer) Track(v video.Video) { t.video = v }

// Video returns the tracked video, or nil.
func (t *Timer) Video() video.Video { return t.video }

func (t *Timer) State() model.SessionState { return t.state }

func (t *Timer) Remaining() int { return t.remaining }

// Status returns a snapshot for presentation.
func (t *Timer) Status() model.SessionStatus {
	return model.SessionStatus{
		State:     t.state,
		Remaining: t.remaining,
		Display:   FormatRemaining(t.remaining),
		StartedBy: t.startedBy,
		Reason:    t.reason,
	}
}

// Start begins a session of duration seconds, or resumes a paused one with its
// remaining time. It is a no-op while running and reports whether the state changed.
func (t *Timer) Start(ctx context.Context, duration int, cause model.StartCause) bool {
	switch t.state {
	case model.StateRunning:
		return false
	case model.StatePaused:
		slog.Info("session resumed", "remaining", t.remaining, "cause", cause)
	default:
		if duration <= 0 {
			slog.Warn("ignoring start with non-positive duration", "duration", duration)
			return false
		}
		if t.state == model.StateCompleted {
			t.cancelTask()
		}
		t.remaining = duration
		t.startedBy = cause
		slog.Info("session started", "duration", duration, "cause", cause)
	}
	t.state = model.StateRunning
	t.reason = ""
	t.schedule(ctx)
	t.listener.OnStateChange(t.Status())
	t.listener.OnTick(t.remaining)
	return true
}

// Tick advances the countdown by one second.
func (t *Timer) Tick(ctx context.Context) {
	if t.state != model.StateRunning {
		return
	}
	if t.remaining > 0 {
		t.remaining--
	}
	t.listener.OnTick(t.remaining)

	if msg, ok := t.milestones[t.remaining]; ok && t.remaining > 0 {
		t.listener.OnMilestone(msg)
	}
	if t.remaining > 0 {
		return
	}

	t.cancelTask()
	t.state = model.StateCompleted
	slog.Info("session complete", "cause", t.startedBy)
	video.PauseBestEffort(ctx, t.video)
	t.listener.OnStateChange(t.Status())
	t.listener.OnSessionComplete()
}

// Pause stops a running countdown. It is a no-op in any other state.
func (t *Timer) Pause(reason string) bool {
	if t.state != model.StateRunning {
		return false
	}
	t.cancelTask()
	t.state = model.StatePaused
	t.reason = reason
	slog.Info("session paused", "reason", reason, "remaining", t.remaining)
	t.listener.OnStateChange(t.Status())
	return true
}

// Reset returns the timer to idle with the full focus duration.
func (t *Timer) Reset() {
	t.cancelTask()
	t.state = model.StateIdle
	t.remaining = t.cfg.FocusDurationSeconds
	t.startedBy = ""
	t.reason = ""
	t.listener.OnStateChange(t.Status())
	t.listener.OnTick(t.remaining)
}

// schedule replaces any active tick task; only one may exist at a time.
func (t *Timer) schedule(ctx context.Context) {
	t.cancelTask()
	t.task = t.sched.Every(TickInterval, func() { t.Tick(ctx) })
}

func (t *Timer) cancelTask() {
	if t.task != nil {
		t.task.Cancel()
		t.task = nil
	}
}

// FormatRemaining renders seconds as minutes:seconds with zero-padded seconds.
func FormatRemaining(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%d:%02d", seconds/60, seconds%60)
}
