// Package handler is the HTTP presentation adapter: overlay buttons post
// requests here and the overlay follows state over a server-sent event stream.
package handler

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/pavelanni/conceptbridge/internal/model"
)

// Controls are the user requests the overlay can make.
type Controls interface {
	Start(duration int, cause model.StartCause)
	Pause()
	Reset()
	SubmitAnswers(answers map[int]int)
	RetryQuiz()
	CloseQuiz()
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	controls Controls
	hub      *Hub
}

// New creates a new Handler.
func New(c Controls, hub *Hub) *Handler {
	return &Handler{controls: c, hub: hub}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/state", h.handleState)
	r.Get("/events", h.handleEvents)
	r.Post("/session/start", h.handleStart)
	r.Post("/session/pause", h.handlePause)
	r.Post("/session/reset", h.handleReset)
	r.Post("/quiz/answers", h.handleAnswers)
	r.Post("/quiz/retry", h.handleRetry)
	r.Post("/quiz/close", h.handleClose)
}

func (h *Handler) handleState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.hub.Snapshot(r.Context()))
}

// handleStart accepts mode=focus|demo and an optional duration in seconds.
func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	var cause model.StartCause
	switch mode := r.FormValue("mode"); mode {
	case "", "focus":
		cause = model.CauseManual
	case "demo":
		cause = model.CauseDemo
	default:
		http.Error(w, fmt.Sprintf("unknown mode %q", mode), http.StatusBadRequest)
		return
	}

	duration := 0
	if s := r.FormValue("duration"); s != "" {
		d, err := strconv.Atoi(s)
		if err != nil || d <= 0 {
			http.Error(w, "duration must be a positive number of seconds", http.StatusBadRequest)
			return
		}
		duration = d
	}

	h.controls.Start(duration, cause)
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handlePause(w http.ResponseWriter, r *http.Request) {
	h.controls.Pause()
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleReset(w http.ResponseWriter, r *http.Request) {
	h.controls.Reset()
	w.WriteHeader(http.StatusAccepted)
}

type answersRequest struct {
	Answers map[int]int `json:"answers"`
}

func (h *Handler) handleAnswers(w http.ResponseWriter, r *http.Request) {
	var req answersRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "invalid answers: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Answers == nil {
		req.Answers = map[int]int{}
	}
	h.controls.SubmitAnswers(req.Answers)
	w.WriteHeader(http.StatusAccepted)
}

// handleRetry leaves the quiz view to the hub: an accepted retry announces
// that a new quiz is being prepared.
func (h *Handler) handleRetry(w http.ResponseWriter, r *http.Request) {
	h.controls.RetryQuiz()
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handler) handleClose(w http.ResponseWriter, r *http.Request) {
	h.hub.clearQuiz()
	h.controls.CloseQuiz()
	w.WriteHeader(http.StatusAccepted)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}
