package agent

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pavelanni/conceptbridge/internal/clock"
	"github.com/pavelanni/conceptbridge/internal/model"
	"github.com/pavelanni/conceptbridge/internal/quiz"
	"github.com/pavelanni/conceptbridge/internal/video"
)

// loopBuffer bounds queued events before Post blocks.
const loopBuffer = 64

// Agent runs a Controller on its own event loop against a live page.
// Its request methods are safe for concurrent use.
type Agent struct {
	loop       *Loop
	controller *Controller
	observer   *video.Observer
	interval   time.Duration

	// stopWatch cancels the playback watcher of the bound video. Loop only.
	stopWatch context.CancelFunc
}

// Options are the collaborators of an Agent.
type Options struct {
	Page        video.Page
	Transcripts quiz.TranscriptSource
	Generator   quiz.Generator
	Presenter   Presenter
	Archive     Archive
}

// New creates an agent. ctx bounds all background work.
func New(ctx context.Context, cfg model.AgentConfig, opts Options) *Agent {
	loop := NewLoop(loopBuffer)
	a := &Agent{
		loop:     loop,
		observer: video.NewObserver(opts.Page, cfg.ObserveInterval),
		interval: cfg.ObserveInterval,
	}
	if a.interval <= 0 {
		a.interval = video.DefaultObserveInterval
	}
	a.controller = NewController(ctx, cfg, Deps{
		Page:        opts.Page,
		Scheduler:   clock.NewTicker(loop.Post),
		Post:        loop.Post,
		Transcripts: opts.Transcripts,
		Generator:   opts.Generator,
		Presenter:   opts.Presenter,
		Archive:     opts.Archive,
	})
	return a
}

// Run drives the loop and the video observer until ctx is cancelled.
func (a *Agent) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.loop.Run(ctx) })
	a.loop.Post(a.controller.Announce)
	g.Go(func() error {
		return a.observer.Observe(ctx, func(v video.Video) {
			a.loop.Post(func() { a.bind(ctx, v) })
		})
	})
	return g.Wait()
}

// bind attaches v and restarts the playback watcher for it.
func (a *Agent) bind(ctx context.Context, v video.Video) {
	a.controller.BindVideo(v)
	if a.stopWatch != nil {
		a.stopWatch()
	}
	wctx, cancel := context.WithCancel(ctx)
	a.stopWatch = cancel
	slog.Debug("watching playback", "video", v.ID())
	go func() {
		err := video.WatchPlayback(wctx, v, a.interval, func(ev video.Event) {
			a.loop.Post(func() { a.controller.HandlePlayback(v, ev) })
		})
		if err != nil && wctx.Err() == nil {
			slog.Warn("playback watcher stopped", "video", v.ID(), "error", err)
		}
	}()
}

// Start requests a session. A zero duration selects the default for cause.
func (a *Agent) Start(duration int, cause model.StartCause) {
	a.loop.Post(func() { a.controller.RequestStart(duration, cause) })
}

// Pause requests a manual pause.
func (a *Agent) Pause() {
	a.loop.Post(func() { a.controller.RequestPause(model.PauseReasonManual) })
}

// Reset returns the timer to idle.
func (a *Agent) Reset() {
	a.loop.Post(a.controller.RequestReset)
}

// SubmitAnswers scores the current quiz.
func (a *Agent) SubmitAnswers(answers map[int]int) {
	a.loop.Post(func() { a.controller.SubmitAnswers(answers) })
}

// RetryQuiz regenerates the current quiz.
func (a *Agent) RetryQuiz() {
	a.loop.Post(a.controller.RetryQuiz)
}

// CloseQuiz dismisses the current quiz.
func (a *Agent) CloseQuiz() {
	a.loop.Post(a.controller.CloseQuiz)
}
