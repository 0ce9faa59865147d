package ai

import (
	"context"
	"fmt"
)

// VideoAnalysis holds the per-dimension scores of one interview transcript,
// each on a 0-10 scale. A nil dimension means the provider did not produce
// it; the scoring engine computes the composite over what is present.
type VideoAnalysis struct {
	Confidence    *float64
	Communication *float64
	Technical     *float64
	Summary       string
	Raw           string
}

// Transcriber converts an uploaded interview video into text.
type Transcriber interface {
	Transcribe(ctx context.Context, videoLink string) (string, error)
}

// Analyzer scores an interview transcript.
type Analyzer interface {
	Analyze(ctx context.Context, transcript string) (*VideoAnalysis, error)
}

// TranscriptionError reports a failed speech-to-text call. The candidate is
// marked, the batch continues.
type TranscriptionError struct {
	VideoLink string
	Err       error
}

func (e *TranscriptionError) Error() string {
	return fmt.Sprintf("transcription of %s failed: %v", e.VideoLink, e.Err)
}

func (e *TranscriptionError) Unwrap() error { return e.Err }

// AnalysisError reports a failed transcript analysis call.
type AnalysisError struct {
	Err error
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("transcript analysis failed: %v", e.Err)
}

func (e *AnalysisError) Unwrap() error { return e.Err }
