// Package video tracks the host page's video element.
package video

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// ErrPlaybackControl is returned when the host page rejects a pause or play request.
var ErrPlaybackControl = errors.New("playback control rejected")

// Video is a control handle for one video element. Handles are never owned:
// several components read and pause the same video, and control failures are
// ignored by all of them.
type Video interface {
	// ID identifies the element instance. It stays stable while the element
	// is the same object and changes when the page replaces it.
	ID() string
	// Playing reports whether the video is actively playing.
	Playing(ctx context.Context) (bool, error)
	// Pause requests the video be paused.
	Pause(ctx context.Context) error
}

// Page is the host page the agent runs in.
type Page interface {
	// CurrentVideo returns the page's video element, or nil when there is none.
	CurrentVideo(ctx context.Context) (Video, error)
	// AdShowing reports whether an advertisement is playing.
	AdShowing(ctx context.Context) (bool, error)
	// URL returns the page's current address.
	URL(ctx context.Context) (string, error)
}

// PauseBestEffort pauses v and logs any failure.
func PauseBestEffort(ctx context.Context, v Video) {
	if v == nil {
		return
	}
	if err := v.Pause(ctx); err != nil {
		slog.Warn("pause video failed", "video", v.ID(), "error", err)
	}
}

// DefaultObserveInterval is the page polling period for video discovery.
const DefaultObserveInterval = 500 * time.Millisecond

// Observer reports each distinct video element the page exposes.
type Observer struct {
	page     Page
	interval time.Duration
	tracked  string
}

// NewObserver creates an observer polling page every interval.
func NewObserver(page Page, interval time.Duration) *Observer {
	if interval <= 0 {
		interval = DefaultObserveInterval
	}
	return &Observer{page: page, interval: interval}
}

// Observe watches the page until ctx is cancelled, calling bind once for every
// video instance that differs from the currently tracked one. A page without a
// video is not an error; observation simply continues.
func (o *Observer) Observe(ctx context.Context, bind func(Video)) error {
	tk := time.NewTicker(o.interval)
	defer tk.Stop()

	o.check(ctx, bind)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
			o.check(ctx, bind)
		}
	}
}

func (o *Observer) check(ctx context.Context, bind func(Video)) {
	v, err := o.page.CurrentVideo(ctx)
	if err != nil {
		slog.Debug("video lookup failed", "error", err)
		return
	}
	if v == nil || v.ID() == o.tracked {
		return
	}
	o.tracked = v.ID()
	slog.Info("video bound", "video", v.ID())
	bind(v)
}
