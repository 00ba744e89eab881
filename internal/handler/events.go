package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/pavelanni/conceptbridge/internal/focus"
)

// handleEvents streams presenter callbacks as server-sent events. The first
// event is a full snapshot.
func (h *Handler) handleEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}
	events, unsubscribe := h.hub.subscribe()
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	ctx := r.Context()
	if err := writeEvent(w, "snapshot", h.hub.Snapshot(ctx)); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-events:
			if err := writeEvent(w, ev.Type, h.render(ctx, ev)); err != nil {
				slog.Debug("event stream closed", "error", err)
				return
			}
			flusher.Flush()
		}
	}
}

// render turns ev into the localized payload clients receive.
func (h *Handler) render(ctx context.Context, ev Event) any {
	switch ev.Type {
	case EventTick:
		return map[string]any{"remaining": ev.Remaining, "display": focus.FormatRemaining(ev.Remaining)}
	case EventMilestone:
		return map[string]string{"text": h.hub.messageText(ctx, ev.Text, true)}
	case EventMessage:
		return map[string]string{"id": ev.Text, "text": h.hub.messageText(ctx, ev.Text, false)}
	case EventState:
		return ev.Status
	case EventQuiz:
		return quizView(ctx, false, ev.Questions, nil)
	case EventScore:
		return h.hub.Snapshot(ctx).Quiz
	default:
		return struct{}{}
	}
}

func writeEvent(w http.ResponseWriter, name string, data any) error {
	b, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", name, err)
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", name, b)
	return err
}
