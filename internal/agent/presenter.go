package agent

import "github.com/pavelanni/conceptbridge/internal/model"

// Message IDs sent through Presenter.OnMessage.
const (
	MsgPlayVideoFirst  = "PlayVideoFirst"
	MsgFocusOn         = "FocusOn"
	MsgSessionComplete = "SessionComplete"
	MsgAdPlaying       = "AdPlaying"
	MsgVideoPaused     = "VideoPaused"
	MsgPaused          = "Paused"
	MsgPreparingQuiz   = "PreparingQuiz"
	MsgNoQuiz          = "NoQuiz"
)

// Presenter renders agent output. All methods are called from the event loop.
type Presenter interface {
	OnTick(remaining int)
	OnMilestone(message string)
	OnStateChange(status model.SessionStatus)
	OnSessionComplete()
	OnQuizReady(questions []model.Question)
	OnQuizScored(score, total int)
	OnMessage(id string)
}

// Fanout forwards every call to each presenter in order.
type Fanout []Presenter

func (f Fanout) OnTick(remaining int) {
	for _, p := range f {
		p.OnTick(remaining)
	}
}

func (f Fanout) OnMilestone(message string) {
	for _, p := range f {
		p.OnMilestone(message)
	}
}

func (f Fanout) OnStateChange(status model.SessionStatus) {
	for _, p := range f {
		p.OnStateChange(status)
	}
}

func (f Fanout) OnSessionComplete() {
	for _, p := range f {
		p.OnSessionComplete()
	}
}

func (f Fanout) OnQuizReady(questions []model.Question) {
	for _, p := range f {
		p.OnQuizReady(questions)
	}
}

func (f Fanout) OnQuizScored(score, total int) {
	for _, p := range f {
		p.OnQuizScored(score, total)
	}
}

func (f Fanout) OnMessage(id string) {
	for _, p := range f {
		p.OnMessage(id)
	}
}
