package video

import (
	"context"
	"log/slog"
	"time"
)

// Event is a playback transition of a tracked video.
type Event int

const (
	EventPlay Event = iota + 1
	EventPause
)

func (e Event) String() string {
	switch e {
	case EventPlay:
		return "play"
	case EventPause:
		return "pause"
	}
	return "unknown"
}

// WatchPlayback samples v every interval and calls emit on each change of its
// playing state, starting from the paused state. It returns when ctx is done.
func WatchPlayback(ctx context.Context, v Video, interval time.Duration, emit func(Event)) error {
	tk := time.NewTicker(interval)
	defer tk.Stop()

	playing := false
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-tk.C:
		}
		now, err := v.Playing(ctx)
		if err != nil {
			slog.Debug("playback state unavailable", "video", v.ID(), "error", err)
			continue
		}
		if now == playing {
			continue
		}
		playing = now
		if now {
			emit(EventPlay)
		} else {
			emit(EventPause)
		}
	}
}
