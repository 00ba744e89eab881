package quiz

import "errors"

var (
	// ErrTranscriptUnavailable means the source has no transcript for the content.
	ErrTranscriptUnavailable = errors.New("transcript unavailable")
	// ErrTranscriptFetch means the transcript could not be retrieved.
	ErrTranscriptFetch = errors.New("transcript fetch failed")
	// ErrGeneration means the question service failed or returned unusable output.
	ErrGeneration = errors.New("question generation failed")
)
