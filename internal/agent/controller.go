// Package agent wires the focus timer, ad detector, video tracking and quiz
// pipeline into one controller driven by a cooperative event loop.
package agent

import (
	"context"
	"log/slog"
	"time"

	"github.com/pavelanni/conceptbridge/internal/clock"
	"github.com/pavelanni/conceptbridge/internal/focus"
	"github.com/pavelanni/conceptbridge/internal/model"
	"github.com/pavelanni/conceptbridge/internal/quiz"
	"github.com/pavelanni/conceptbridge/internal/transcript"
	"github.com/pavelanni/conceptbridge/internal/video"
)

// Archive records scored quizzes.
type Archive interface {
	RecordAttempt(a model.Attempt) (int64, error)
}

// Deps are the controller's collaborators.
type Deps struct {
	Page        video.Page
	Scheduler   clock.Scheduler
	Post        func(func())
	Transcripts quiz.TranscriptSource
	Generator   quiz.Generator
	Presenter   Presenter
	// Archive is optional.
	Archive Archive
}

// Controller owns all agent state. It is not safe for concurrent use; every
// method must run on the event loop. ctx bounds background work started by
// transitions, such as tick schedules and quiz network calls.
type Controller struct {
	ctx     context.Context
	cfg     model.AgentConfig
	page    video.Page
	sched   clock.Scheduler
	ui      Presenter
	archive Archive

	timer    *focus.Timer
	ads      *focus.AdDetector
	quiz     *quiz.Orchestrator
	pollTask clock.Task
	// quizCause is the start cause of the session the current quiz belongs to.
	quizCause model.StartCause
}

// NewController creates an idle controller.
func NewController(ctx context.Context, cfg model.AgentConfig, d Deps) *Controller {
	if cfg.AdPollInterval <= 0 {
		cfg.AdPollInterval = focus.DefaultAdPollInterval
	}
	c := &Controller{
		ctx:     ctx,
		cfg:     cfg,
		page:    d.Page,
		sched:   d.Scheduler,
		ui:      d.Presenter,
		archive: d.Archive,
	}
	c.timer = focus.NewTimer(cfg.Session, d.Scheduler, c)
	c.ads = focus.NewAdDetector(c.timer, d.Page.AdShowing, cfg.Session)
	c.quiz = quiz.New(d.Transcripts, d.Generator, c, d.Post, quiz.Options{
		NumQuestions: cfg.NumQuestions,
		Timeout:      cfg.RequestTimeout,
	})
	return c
}

// Status returns the timer snapshot.
func (c *Controller) Status() model.SessionStatus { return c.timer.Status() }

// QuizState returns the quiz pipeline state.
func (c *Controller) QuizState() model.QuizState { return c.quiz.State() }

// Quiz returns the current quiz session, or nil.
func (c *Controller) Quiz() *model.QuizSession { return c.quiz.Session() }

// Announce publishes the current status, for presenters that attach late.
func (c *Controller) Announce() {
	c.ui.OnStateChange(c.timer.Status())
	c.ui.OnTick(c.timer.Remaining())
}

// BindVideo makes v the tracked video and restarts ad polling for it.
func (c *Controller) BindVideo(v video.Video) {
	c.timer.Track(v)
	if c.pollTask != nil {
		c.pollTask.Cancel()
	}
	c.pollTask = c.sched.Every(c.cfg.AdPollInterval, func() { c.ads.Poll(c.ctx) })
}

// HandlePlayback reacts to play and pause events of v.
func (c *Controller) HandlePlayback(v video.Video, ev video.Event) {
	tracked := c.timer.Video()
	if tracked == nil || tracked.ID() != v.ID() {
		return
	}
	switch ev {
	case video.EventPlay:
		ad, err := c.page.AdShowing(c.ctx)
		if err != nil {
			slog.Debug("ad check failed", "error", err)
			return
		}
		if ad {
			slog.Info("ad detected, waiting to start")
			return
		}
		switch c.timer.State() {
		case model.StateRunning, model.StateCompleted:
			return
		}
		slog.Info("auto session on playback", "video", v.ID())
		c.start(c.cfg.Session.DemoDurationSeconds, model.CauseAuto)
	case video.EventPause:
		c.timer.Pause(model.PauseReasonVideo)
	}
}

// RequestStart starts a session for cause. A zero duration selects the
// focus length for manual starts and the demo length otherwise.
func (c *Controller) RequestStart(duration int, cause model.StartCause) {
	v, err := c.page.CurrentVideo(c.ctx)
	if err != nil {
		slog.Warn("video lookup failed", "error", err)
	}
	if v == nil {
		c.ui.OnMessage(MsgPlayVideoFirst)
		return
	}
	if tracked := c.timer.Video(); tracked == nil || tracked.ID() != v.ID() {
		c.BindVideo(v)
	}
	if duration <= 0 {
		duration = c.cfg.Session.DemoDurationSeconds
		if cause == model.CauseManual {
			duration = c.cfg.Session.FocusDurationSeconds
		}
	}
	c.start(duration, cause)
}

// start begins or resumes the timer. A fresh session discards any quiz.
func (c *Controller) start(duration int, cause model.StartCause) {
	switch c.timer.State() {
	case model.StateIdle, model.StateCompleted:
		if c.quiz.State() != model.QuizIdle {
			c.quiz.Close()
		}
	}
	c.timer.Start(c.ctx, duration, cause)
}

// RequestPause pauses a running session.
func (c *Controller) RequestPause(reason string) {
	if reason == "" {
		reason = model.PauseReasonManual
	}
	c.timer.Pause(reason)
}

// RequestReset returns the timer to idle.
func (c *Controller) RequestReset() {
	c.timer.Reset()
}

// SubmitAnswers scores the quiz awaiting answers.
func (c *Controller) SubmitAnswers(answers map[int]int) {
	sess := c.quiz.Session()
	score, total, err := c.quiz.Submit(answers)
	if err != nil {
		slog.Warn("submit rejected", "error", err)
		c.ui.OnMessage(MsgNoQuiz)
		return
	}
	if c.archive == nil {
		return
	}
	_, err = c.archive.RecordAttempt(model.Attempt{
		VideoID:    c.quiz.ContentID(),
		Generation: sess.Generation,
		StartedBy:  c.quizCause,
		Score:      score,
		Total:      total,
		Fallback:   sess.Fallback,
		ScoredAt:   time.Now(),
	})
	if err != nil {
		slog.Error("archive attempt failed", "error", err)
	}
}

// RetryQuiz re-arms the timer and regenerates the quiz from a fresh transcript.
// It only applies to a quiz that is still shown; a dismissed quiz or a newer
// session leaves nothing to retry.
func (c *Controller) RetryQuiz() {
	if c.quiz.Session() == nil || c.quiz.ContentID() == "" {
		c.ui.OnMessage(MsgNoQuiz)
		return
	}
	c.timer.Reset()
	c.ui.OnMessage(MsgPreparingQuiz)
	c.quiz.Retry(c.ctx)
}

// CloseQuiz dismisses the quiz.
func (c *Controller) CloseQuiz() {
	c.quiz.Close()
}

func (c *Controller) contentID() string {
	if u, err := c.page.URL(c.ctx); err == nil {
		if id, err := transcript.ContentID(u); err == nil {
			return id
		}
		slog.Debug("no content id in page url", "url", u)
	}
	if v := c.timer.Video(); v != nil {
		return v.ID()
	}
	return ""
}

// focus.Listener

func (c *Controller) OnTick(remaining int) { c.ui.OnTick(remaining) }

func (c *Controller) OnMilestone(message string) { c.ui.OnMilestone(message) }

func (c *Controller) OnStateChange(status model.SessionStatus) {
	c.ui.OnStateChange(status)
	switch status.State {
	case model.StateRunning:
		c.ui.OnMessage(MsgFocusOn)
	case model.StatePaused:
		switch status.Reason {
		case model.PauseReasonAd:
			c.ui.OnMessage(MsgAdPlaying)
		case model.PauseReasonVideo:
			c.ui.OnMessage(MsgVideoPaused)
		default:
			c.ui.OnMessage(MsgPaused)
		}
	case model.StateCompleted:
		c.ui.OnMessage(MsgSessionComplete)
	}
}

func (c *Controller) OnSessionComplete() {
	c.ui.OnSessionComplete()
	c.quizCause = c.timer.Status().StartedBy
	c.ui.OnMessage(MsgPreparingQuiz)
	c.quiz.Start(c.ctx, c.contentID())
}

// quiz.Listener

func (c *Controller) OnQuizReady(questions []model.Question) { c.ui.OnQuizReady(questions) }

func (c *Controller) OnQuizScored(score, total int) { c.ui.OnQuizScored(score, total) }
