package focus

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavelanni/conceptbridge/internal/model"
)

// DefaultAdPollInterval is how often ad presence is reconciled.
const DefaultAdPollInterval = time.Second

// AdPredicate reports whether an advertisement is playing on the page.
type AdPredicate func(ctx context.Context) (bool, error)

// AdDetector reconciles the timer against advertisement playback. It backs up
// the event-driven play and pause handling, so both may request the same
// transition; the timer's no-op semantics make that safe.
type AdDetector struct {
	timer     *Timer
	adShowing AdPredicate
	duration  int
	lowWater  int
}

// NewAdDetector creates a detector that auto-starts demo-length sessions.
func NewAdDetector(t *Timer, adShowing AdPredicate, cfg model.SessionConfig) *AdDetector {
	return &AdDetector{
		timer:     t,
		adShowing: adShowing,
		duration:  cfg.DemoDurationSeconds,
		lowWater:  cfg.LowWater(),
	}
}

// Poll runs one reconciliation pass.
func (d *AdDetector) Poll(ctx context.Context) {
	v := d.timer.Video()
	if v == nil {
		return
	}
	ad, err := d.adShowing(ctx)
	if err != nil {
		slog.Debug("ad check failed", "error", err)
		return
	}

	state := d.timer.State()
	if ad {
		if state == model.StateRunning {
			d.timer.Pause(model.PauseReasonAd)
		}
		return
	}

	// Completed sessions wait for the quiz; only idle or paused timers restart.
	// A pause the user asked for stays until the user resumes.
	if state != model.StateIdle && state != model.StatePaused {
		return
	}
	if state == model.StatePaused && d.timer.Status().Reason == model.PauseReasonManual {
		return
	}
	if d.timer.Remaining() >= d.lowWater {
		return
	}
	playing, err := v.Playing(ctx)
	if err != nil || !playing {
		return
	}
	d.timer.Start(ctx, d.duration, model.CauseAuto)
}
