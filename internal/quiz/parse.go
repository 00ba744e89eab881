package quiz

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/pavelanni/conceptbridge/internal/model"
)

// OptionsPerQuestion is the number of choices every generated item must carry.
const OptionsPerQuestion = 4

var (
	fenceOpenRegex  = regexp.MustCompile("^```[A-Za-z0-9_-]*[ \t]*\r?\n?")
	fenceCloseRegex = regexp.MustCompile("\r?\n?```\\s*$")
)

type wireQuestion struct {
	Question     string   `json:"question"`
	Prompt       string   `json:"prompt"`
	Options      []string `json:"options"`
	CorrectIndex *int     `json:"correctIndex"`
	CorrectSnake *int     `json:"correct_index"`
}

type wireQuiz struct {
	Questions []wireQuestion `json:"questions"`
}

// StripFences removes markdown code fences wrapping a model response.
func StripFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = fenceOpenRegex.ReplaceAllString(s, "")
	s = fenceCloseRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

// ParseQuestions decodes a generation response into at most limit questions.
// The payload may be a bare array or an object with a "questions" array. Every
// failure wraps ErrGeneration.
func ParseQuestions(raw string, limit int) ([]model.Question, error) {
	body := StripFences(raw)
	if body == "" {
		return nil, fmt.Errorf("%w: empty response", ErrGeneration)
	}

	var items []wireQuestion
	if strings.HasPrefix(body, "[") {
		if err := json.Unmarshal([]byte(body), &items); err != nil {
			return nil, fmt.Errorf("%w: decode question list: %v", ErrGeneration, err)
		}
	} else {
		var wq wireQuiz
		if err := json.Unmarshal([]byte(body), &wq); err != nil {
			return nil, fmt.Errorf("%w: decode quiz object: %v", ErrGeneration, err)
		}
		items = wq.Questions
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("%w: no questions in response", ErrGeneration)
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}

	questions := make([]model.Question, 0, len(items))
	for i, it := range items {
		q, err := it.toQuestion()
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %v", ErrGeneration, i, err)
		}
		questions = append(questions, q)
	}
	return questions, nil
}

func (w wireQuestion) toQuestion() (model.Question, error) {
	prompt := strings.TrimSpace(w.Question)
	if prompt == "" {
		prompt = strings.TrimSpace(w.Prompt)
	}
	if prompt == "" {
		return model.Question{}, fmt.Errorf("missing question text")
	}
	if len(w.Options) != OptionsPerQuestion {
		return model.Question{}, fmt.Errorf("expected %d options, got %d", OptionsPerQuestion, len(w.Options))
	}
	for j, o := range w.Options {
		if strings.TrimSpace(o) == "" {
			return model.Question{}, fmt.Errorf("option %d is empty", j)
		}
	}
	idx := w.CorrectIndex
	if idx == nil {
		idx = w.CorrectSnake
	}
	if idx == nil {
		return model.Question{}, fmt.Errorf("missing correctIndex")
	}
	if *idx < 0 || *idx >= OptionsPerQuestion {
		return model.Question{}, fmt.Errorf("correctIndex %d out of range", *idx)
	}
	opts := make([]string, len(w.Options))
	copy(opts, w.Options)
	return model.Question{Prompt: prompt, Options: opts, CorrectIndex: *idx}, nil
}

// Score counts answers matching the correct index. Unanswered questions and
// answers to unknown indices count as incorrect.
func Score(questions []model.Question, answers map[int]int) int {
	score := 0
	for i, q := range questions {
		if a, ok := answers[i]; ok && a == q.CorrectIndex {
			score++
		}
	}
	return score
}
