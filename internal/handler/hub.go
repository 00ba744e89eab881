package handler

import (
	"context"
	"sync"

	"github.com/pavelanni/conceptbridge/internal/agent"
	"github.com/pavelanni/conceptbridge/internal/focus"
	"github.com/pavelanni/conceptbridge/internal/i18n"
	"github.com/pavelanni/conceptbridge/internal/model"
)

// Event types on the stream.
const (
	EventTick      = "tick"
	EventMilestone = "milestone"
	EventState     = "state"
	EventComplete  = "complete"
	EventQuiz      = "quiz"
	EventScore     = "score"
	EventMessage   = "message"
)

// subscriberBuffer is the per-client backlog; a client that falls further
// behind misses events until it catches up.
const subscriberBuffer = 32

// Event is one presenter callback as delivered to stream clients.
type Event struct {
	Type string
	// Exactly one of the following is set, depending on Type.
	Remaining int
	Text      string
	Status    model.SessionStatus
	Questions []model.Question
	Score     [2]int
}

// Hub is a Presenter that keeps the latest overlay state and fans presenter
// callbacks out to stream subscribers. It is safe for concurrent use.
type Hub struct {
	mu        sync.Mutex
	status    model.SessionStatus
	message   string
	milestone bool
	questions []model.Question
	score     *[2]int
	preparing bool
	subs      map[chan Event]struct{}
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		status: model.SessionStatus{State: model.StateIdle, Display: focus.FormatRemaining(0)},
		subs:   make(map[chan Event]struct{}),
	}
}

// subscribe registers a stream client. The returned func unregisters it.
func (h *Hub) subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)
	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()
	return ch, func() {
		h.mu.Lock()
		delete(h.subs, ch)
		h.mu.Unlock()
	}
}

// publish must be called with h.mu held.
func (h *Hub) publish(ev Event) {
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (h *Hub) OnTick(remaining int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.status.Remaining = remaining
	h.status.Display = focus.FormatRemaining(remaining)
	h.publish(Event{Type: EventTick, Remaining: remaining})
}

func (h *Hub) OnMilestone(message string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.message = message
	h.milestone = true
	h.publish(Event{Type: EventMilestone, Text: message})
}

func (h *Hub) OnStateChange(status model.SessionStatus) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if status.State == model.StateRunning && h.status.State != model.StatePaused {
		h.clearQuizLocked()
	}
	h.status = status
	h.publish(Event{Type: EventState, Status: status})
}

func (h *Hub) OnSessionComplete() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.preparing = true
	h.publish(Event{Type: EventComplete})
}

func (h *Hub) OnQuizReady(questions []model.Question) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.preparing = false
	h.questions = questions
	h.score = nil
	h.publish(Event{Type: EventQuiz, Questions: questions})
}

func (h *Hub) OnQuizScored(score, total int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := [2]int{score, total}
	h.score = &s
	h.publish(Event{Type: EventScore, Score: s})
}

func (h *Hub) OnMessage(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.message = id
	h.milestone = false
	if id == agent.MsgPreparingQuiz {
		h.clearQuizLocked()
		h.preparing = true
	}
	h.publish(Event{Type: EventMessage, Text: id})
}

// clearQuiz drops the displayed quiz after the user dismisses it.
func (h *Hub) clearQuiz() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clearQuizLocked()
}

func (h *Hub) clearQuizLocked() {
	h.questions = nil
	h.score = nil
	h.preparing = false
}

// QuestionView is a quiz item as shown before scoring.
type QuestionView struct {
	Prompt  string   `json:"prompt"`
	Options []string `json:"options"`
	// Correct is revealed once the quiz is scored.
	Correct *int `json:"correct_index,omitempty"`
}

// QuizView is the displayed quiz.
type QuizView struct {
	Preparing bool           `json:"preparing,omitempty"`
	Ready     string         `json:"ready,omitempty"`
	Questions []QuestionView `json:"questions,omitempty"`
	Result    string         `json:"result,omitempty"`
	Score     *int           `json:"score,omitempty"`
	Total     int            `json:"total,omitempty"`
}

// Snapshot is the localized overlay state.
type Snapshot struct {
	Session model.SessionStatus `json:"session"`
	Message string              `json:"message,omitempty"`
	Quiz    *QuizView           `json:"quiz,omitempty"`
}

// Snapshot renders the current state in the language carried by ctx.
func (h *Hub) Snapshot(ctx context.Context) Snapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	snap := Snapshot{Session: h.status}
	if h.message != "" {
		snap.Message = h.messageText(ctx, h.message, h.milestone)
	}
	if h.preparing || h.questions != nil {
		snap.Quiz = quizView(ctx, h.preparing, h.questions, h.score)
	}
	return snap
}

func (h *Hub) messageText(ctx context.Context, msg string, milestone bool) string {
	if milestone {
		return i18n.Text(ctx, msg)
	}
	return i18n.T(ctx, msg)
}

func quizView(ctx context.Context, preparing bool, qs []model.Question, score *[2]int) *QuizView {
	v := &QuizView{Preparing: preparing}
	if len(qs) > 0 {
		v.Ready = i18n.Tp(ctx, "QuizReady", len(qs))
	}
	for _, q := range qs {
		qv := QuestionView{Prompt: q.Prompt, Options: q.Options}
		if score != nil {
			c := q.CorrectIndex
			qv.Correct = &c
		}
		v.Questions = append(v.Questions, qv)
	}
	if score != nil {
		s := score[0]
		v.Score = &s
		v.Total = score[1]
		v.Result = i18n.Td(ctx, "QuizScore", map[string]any{"Score": score[0], "Total": score[1]})
	}
	return v
}
