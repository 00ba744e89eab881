// Package quiz turns a finished focus session into a scored multiple-choice
// quiz: transcript, AI question generation, answers, scoring and retries.
package quiz

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"time"

	"github.com/pavelanni/conceptbridge/internal/model"
)

const (
	// DefaultNumQuestions is how many items are requested per quiz.
	DefaultNumQuestions = 5
	// DefaultTimeout bounds each network call.
	DefaultTimeout = 15 * time.Second

	// PlaceholderTranscript replaces a transcript that could not be obtained.
	PlaceholderTranscript = "[transcript unavailable] No captions could be retrieved for this video. " +
		"Ask general comprehension questions about staying focused while learning from videos."

	fallbackOption = "Retry quiz"
)

// TranscriptSource fetches transcript text for a content identifier.
type TranscriptSource interface {
	Fetch(ctx context.Context, contentID string) (string, error)
}

// Generator requests quiz items for a transcript and returns the raw response text.
type Generator interface {
	Generate(ctx context.Context, transcript string, numQuestions int) (string, error)
}

// Listener receives quiz notifications.
type Listener interface {
	OnQuizReady(questions []model.Question)
	OnQuizScored(score, total int)
}

// Options tunes the orchestrator.
type Options struct {
	NumQuestions int
	Timeout      time.Duration
}

// Orchestrator drives the quiz pipeline. Its state is owned by the event loop:
// network calls run on their own goroutines and hand results back through
// post, where results from superseded generations are dropped.
type Orchestrator struct {
	source   TranscriptSource
	gen      Generator
	listener Listener
	post     func(func())
	opts     Options

	state      model.QuizState
	generation uint64
	contentID  string
	session    *model.QuizSession
}

// New creates an idle orchestrator.
func New(source TranscriptSource, gen Generator, l Listener, post func(func()), opts Options) *Orchestrator {
	if opts.NumQuestions <= 0 {
		opts.NumQuestions = DefaultNumQuestions
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	return &Orchestrator{
		source:   source,
		gen:      gen,
		listener: l,
		post:     post,
		opts:     opts,
		state:    model.QuizIdle,
	}
}

func (o *Orchestrator) State() model.QuizState { return o.state }

func (o *Orchestrator) Generation() uint64 { return o.generation }

// ContentID returns the identifier of the content the current quiz is about.
func (o *Orchestrator) ContentID() string { return o.contentID }

// Session returns the current quiz session, or nil.
func (o *Orchestrator) Session() *model.QuizSession { return o.session }

// Start discards any current quiz and runs the pipeline for contentID.
// It returns the generation of the new run.
func (o *Orchestrator) Start(ctx context.Context, contentID string) uint64 {
	o.generation++
	gen := o.generation
	o.contentID = contentID
	o.session = &model.QuizSession{Generation: gen, Answers: map[int]int{}}
	o.state = model.QuizFetchingTranscript
	slog.Info("quiz pipeline started", "content_id", contentID, "generation", gen)

	go func() {
		text := o.FetchTranscript(ctx, contentID)
		o.post(func() { o.transcriptReady(ctx, gen, text) })
	}()
	return gen
}

// Retry replaces the current quiz with a freshly fetched and generated one.
func (o *Orchestrator) Retry(ctx context.Context) uint64 {
	return o.Start(ctx, o.contentID)
}

// Close clears the quiz and invalidates any in-flight results.
func (o *Orchestrator) Close() {
	o.generation++
	o.session = nil
	o.contentID = ""
	o.state = model.QuizIdle
}

// Submit scores answers for the quiz awaiting them.
func (o *Orchestrator) Submit(answers map[int]int) (score, total int, err error) {
	if o.state != model.QuizAwaitingAnswers || o.session == nil {
		return 0, 0, fmt.Errorf("no quiz awaiting answers (state %s)", o.state)
	}
	score = Score(o.session.Questions, answers)
	total = len(o.session.Questions)

	// Sessions are per-generation; the current one may record its own answers.
	o.session.Answers = maps.Clone(answers)
	if o.session.Answers == nil {
		o.session.Answers = map[int]int{}
	}
	o.session.Score = &score
	o.state = model.QuizScored
	slog.Info("quiz scored", "score", score, "total", total, "generation", o.session.Generation)
	o.listener.OnQuizScored(score, total)
	return score, total, nil
}

func (o *Orchestrator) transcriptReady(ctx context.Context, gen uint64, text string) {
	if gen != o.generation {
		slog.Debug("discarding stale transcript", "generation", gen, "current", o.generation)
		return
	}
	o.session.Transcript = text
	o.state = model.QuizGeneratingQuestions

	go func() {
		qs, fallback := o.GenerateQuestions(ctx, text)
		o.post(func() { o.questionsReady(gen, qs, fallback) })
	}()
}

func (o *Orchestrator) questionsReady(gen uint64, qs []model.Question, fallback bool) {
	if gen != o.generation {
		slog.Debug("discarding stale questions", "generation", gen, "current", o.generation)
		return
	}
	o.session.Questions = qs
	o.session.Fallback = fallback
	o.state = model.QuizAwaitingAnswers
	o.listener.OnQuizReady(qs)
}

// FetchTranscript returns the transcript for contentID, or the placeholder text
// when it is unavailable or cannot be fetched. It never fails.
func (o *Orchestrator) FetchTranscript(ctx context.Context, contentID string) string {
	text, err := bounded(ctx, o.opts.Timeout, func(ctx context.Context) (string, error) {
		return o.source.Fetch(ctx, contentID)
	})
	if err == nil && text == "" {
		err = ErrTranscriptUnavailable
	}
	switch {
	case err == nil:
		return text
	case errors.Is(err, ErrTranscriptUnavailable):
		slog.Warn("no transcript for content, using placeholder", "content_id", contentID)
	default:
		slog.Warn("transcript fetch failed, using placeholder", "content_id", contentID, "error", err)
	}
	return PlaceholderTranscript
}

// GenerateQuestions requests the quiz for transcript. On any generation failure
// it returns a single fallback question describing the failure and reports
// fallback as true.
func (o *Orchestrator) GenerateQuestions(ctx context.Context, transcript string) (qs []model.Question, fallback bool) {
	raw, err := bounded(ctx, o.opts.Timeout, func(ctx context.Context) (string, error) {
		return o.gen.Generate(ctx, transcript, o.opts.NumQuestions)
	})
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrGeneration, err)
	} else {
		qs, err = ParseQuestions(raw, o.opts.NumQuestions)
	}
	if err != nil {
		slog.Warn("question generation failed, using fallback quiz", "error", err)
		slog.Debug("generation response", "raw", raw)
		return FallbackQuiz(err), true
	}
	return qs, false
}

// FallbackQuiz is the one-question quiz shown when generation fails.
func FallbackQuiz(cause error) []model.Question {
	prompt := "Quiz generation failed. Press retry to try again."
	if cause != nil {
		prompt = "Quiz generation failed (" + cause.Error() + "). Press retry to try again."
	}
	return []model.Question{{
		Prompt:       prompt,
		Options:      []string{fallbackOption},
		CorrectIndex: 0,
	}}
}

// bounded runs fn with a deadline and returns when either finishes, even if fn
// ignores its context.
func bounded(ctx context.Context, d time.Duration, fn func(context.Context) (string, error)) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	type result struct {
		s   string
		err error
	}
	ch := make(chan result, 1)
	go func() {
		s, err := fn(ctx)
		ch <- result{s, err}
	}()
	select {
	case r := <-ch:
		return r.s, r.err
	case <-ctx.Done():
		return "", fmt.Errorf("request timed out: %w", ctx.Err())
	}
}
