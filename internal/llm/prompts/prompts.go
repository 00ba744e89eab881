// Package prompts renders the quiz generation prompt templates.
package prompts

import (
	"bytes"
	"embed"
	"errors"
	"regexp"
	"strings"
	"sync"
	"text/template"
	"unicode/utf8"
)

// MaxTranscriptRunes caps how much transcript text is sent to the model.
const MaxTranscriptRunes = 12000

var transcriptTagRegex = regexp.MustCompile(`(?i)</?\s*transcript\b[^>]*>`)

//go:embed templates/*.txt
var templateFS embed.FS

var (
	loadOnce   sync.Once
	loadErr    error
	systemTmpl *template.Template
	userTmpl   *template.Template
)

// QuizData holds template data for quiz prompts.
type QuizData struct {
	Transcript   string
	NumQuestions int
	NumOptions   int
	MaxIndex     int
	OptionSlots  []int
}

func load() error {
	loadOnce.Do(func() {
		systemTmpl, loadErr = parse("templates/quiz_system.txt")
		if loadErr != nil {
			return
		}
		userTmpl, loadErr = parse("templates/quiz_user.txt")
	})
	return loadErr
}

func parse(name string) (*template.Template, error) {
	content, err := templateFS.ReadFile(name)
	if err != nil {
		return nil, errors.New("failed to read prompt file " + name + ": " + err.Error())
	}
	tmpl, err := template.New(name).Parse(string(content))
	if err != nil {
		return nil, errors.New("failed to parse prompt template " + name + ": " + err.Error())
	}
	return tmpl, nil
}

// BuildQuizPrompt renders the system and user messages for a quiz request.
func BuildQuizPrompt(transcript string, numQuestions, numOptions int) (system, user string, err error) {
	if err := load(); err != nil {
		return "", "", err
	}
	slots := make([]int, numOptions)
	for i := range slots {
		slots[i] = i + 1
	}
	data := QuizData{
		Transcript:   sanitizeTranscript(transcript),
		NumQuestions: numQuestions,
		NumOptions:   numOptions,
		MaxIndex:     numOptions - 1,
		OptionSlots:  slots,
	}

	var buf bytes.Buffer
	if err := systemTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	system = buf.String()

	buf.Reset()
	if err := userTmpl.Execute(&buf, data); err != nil {
		return "", "", err
	}
	return system, buf.String(), nil
}

func sanitizeTranscript(text string) string {
	text = transcriptTagRegex.ReplaceAllString(text, "")
	text = strings.TrimSpace(text)

	if text == "" {
		return "[No transcript provided]"
	}

	if utf8.RuneCountInString(text) > MaxTranscriptRunes {
		runes := []rune(text)
		text = string(runes[:MaxTranscriptRunes]) + "\n\n[Transcript truncated due to length]"
	}

	return text
}
