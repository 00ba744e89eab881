package model

import (
	"errors"
	"fmt"
	"time"
)

// SessionState represents the focus timer state.
type SessionState string

const (
	StateIdle      SessionState = "idle"
	StateRunning   SessionState = "running"
	StatePaused    SessionState = "paused"
	StateCompleted SessionState = "completed"
)

// StartCause records what started a focus session.
type StartCause string

const (
	// CauseManual is a full-length session started from the start button.
	CauseManual StartCause = "manual"
	// CauseAuto is a short session started by video playback or the ad poll.
	CauseAuto StartCause = "auto"
	// CauseDemo is a short session started from the demo button.
	CauseDemo StartCause = "demo"
)

// Pause reasons.
const (
	PauseReasonAd     = "ad"
	PauseReasonVideo  = "video"
	PauseReasonManual = "manual"
)

// Milestone is a countdown threshold that triggers a UI message.
type Milestone struct {
	Threshold int    `json:"threshold" mapstructure:"threshold"`
	Message   string `json:"message" mapstructure:"message"`
}

// SessionConfig holds focus session durations and milestones.
type SessionConfig struct {
	FocusDurationSeconds int
	DemoDurationSeconds  int
	// AutoStartBelow is the remaining-seconds low-water mark under which the
	// ad poll may auto-start a session. Zero means DemoDurationSeconds.
	AutoStartBelow int
	Milestones     []Milestone
}

// Validate checks durations and milestone ordering.
func (c SessionConfig) Validate() error {
	if c.FocusDurationSeconds <= 0 {
		return errors.New("focus duration must be positive")
	}
	if c.DemoDurationSeconds <= 0 {
		return errors.New("demo duration must be positive")
	}
	if c.AutoStartBelow < 0 {
		return errors.New("auto-start threshold must not be negative")
	}
	for i, m := range c.Milestones {
		if m.Threshold <= 0 {
			return fmt.Errorf("milestone %d: threshold must be positive", i)
		}
		if i > 0 && m.Threshold <= c.Milestones[i-1].Threshold {
			return fmt.Errorf("milestone %d: thresholds must be unique and ascending", i)
		}
	}
	return nil
}

// LowWater returns the effective auto-start threshold.
func (c SessionConfig) LowWater() int {
	if c.AutoStartBelow > 0 {
		return c.AutoStartBelow
	}
	return c.DemoDurationSeconds
}

// Message IDs for the default motivational quotes, rotated on whole minutes.
var QuoteMessageIDs = []string{"Quote1", "Quote2", "Quote3", "Quote4"}

// DefaultMilestones returns one milestone per whole minute below maxSeconds,
// cycling through the motivational quotes.
func DefaultMilestones(maxSeconds int) []Milestone {
	var ms []Milestone
	minutes := (maxSeconds - 1) / 60
	for i := 1; i <= minutes; i++ {
		// Quotes advance as the countdown proceeds, so the highest threshold gets the first one.
		q := QuoteMessageIDs[(minutes-i)%len(QuoteMessageIDs)]
		ms = append(ms, Milestone{Threshold: i * 60, Message: q})
	}
	return ms
}

// SessionStatus is a snapshot of the focus timer handed to the presentation layer.
type SessionStatus struct {
	State     SessionState `json:"state"`
	Remaining int          `json:"remaining"`
	Display   string       `json:"display"`
	StartedBy StartCause   `json:"started_by,omitempty"`
	Reason    string       `json:"reason,omitempty"`
}

// QuizState represents the quiz pipeline state.
type QuizState string

const (
	QuizIdle                QuizState = "idle"
	QuizFetchingTranscript  QuizState = "fetching_transcript"
	QuizGeneratingQuestions QuizState = "generating_questions"
	QuizAwaitingAnswers     QuizState = "awaiting_answers"
	QuizScored              QuizState = "scored"
)

// Question is a multiple-choice quiz item.
type Question struct {
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex int      `json:"correct_index"`
}

// QuizSession holds one generation of the quiz pipeline.
type QuizSession struct {
	Transcript string
	Questions  []Question
	Answers    map[int]int
	Score      *int
	Generation uint64
	// Fallback marks a quiz produced after a generation failure.
	Fallback bool
}

// Attempt is a scored quiz archived for export.
type Attempt struct {
	ID         int64      `json:"id"`
	VideoID    string     `json:"video_id"`
	Generation uint64     `json:"generation"`
	StartedBy  StartCause `json:"started_by"`
	Score      int        `json:"score"`
	Total      int        `json:"total"`
	Fallback   bool       `json:"fallback"`
	ScoredAt   time.Time  `json:"scored_at"`
}

// AgentConfig holds runtime agent parameters set via CLI flags and config.
type AgentConfig struct {
	Session         SessionConfig
	AdPollInterval  time.Duration
	ObserveInterval time.Duration
	RequestTimeout  time.Duration
	// NumQuestions is the number of items requested from the generation service.
	NumQuestions int
}
