package model

import "time"

// AttemptExport is the top-level JSON structure for quiz attempt export.
type AttemptExport struct {
	ExportedAt time.Time `json:"exported_at"`
	Count      int       `json:"count"`
	// AverageRatio is the mean of score/total across attempts with questions.
	AverageRatio float64           `json:"average_ratio"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Attempts     []Attempt         `json:"attempts"`
}

// NewAttemptExport summarizes attempts for export.
func NewAttemptExport(attempts []Attempt, now time.Time) AttemptExport {
	if attempts == nil {
		attempts = []Attempt{}
	}
	var sum float64
	var n int
	for _, a := range attempts {
		if a.Total == 0 || a.Fallback {
			continue
		}
		sum += float64(a.Score) / float64(a.Total)
		n++
	}
	avg := 0.0
	if n > 0 {
		avg = sum / float64(n)
	}
	return AttemptExport{
		ExportedAt:   now,
		Count:        len(attempts),
		AverageRatio: avg,
		Attempts:     attempts,
	}
}
