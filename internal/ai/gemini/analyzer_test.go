package gemini

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/selection-pipeline/internal/ai"

	"go.uber.org/zap"
)

type stubGenerator struct {
	response   string
	err        error
	lastPrompt string
}

func (s *stubGenerator) GenerateContent(_ context.Context, prompt string) (string, error) {
	s.lastPrompt = prompt
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestAnalyzerAnalyze(t *testing.T) {
	stub := &stubGenerator{response: `{"confidence": 8.5, "communication": 7, "technical": 6.5, "summary": "Strong candidate"}`}
	analyzer := NewAnalyzer(stub, zap.NewNop(), 0)

	analysis, err := analyzer.Analyze(context.Background(), "I have three years of Go experience.")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.Confidence == nil || *analysis.Confidence != 8.5 {
		t.Fatalf("unexpected confidence: %v", analysis.Confidence)
	}
	if analysis.Communication == nil || *analysis.Communication != 7 {
		t.Fatalf("unexpected communication: %v", analysis.Communication)
	}
	if analysis.Technical == nil || *analysis.Technical != 6.5 {
		t.Fatalf("unexpected technical: %v", analysis.Technical)
	}
	if analysis.Summary != "Strong candidate" {
		t.Fatalf("unexpected summary: %q", analysis.Summary)
	}

	if !strings.Contains(stub.lastPrompt, "I have three years of Go experience.") {
		t.Fatalf("expected the transcript in the prompt")
	}
	if strings.Contains(stub.lastPrompt, "{{TRANSCRIPT}}") {
		t.Fatalf("expected the transcript placeholder to be substituted")
	}
}

func TestAnalyzerPartialResponse(t *testing.T) {
	// Keys the model omitted stay nil, never zero.
	stub := &stubGenerator{response: `{"confidence": 8, "summary": "Spoke briefly"}`}
	analyzer := NewAnalyzer(stub, zap.NewNop(), 0)

	analysis, err := analyzer.Analyze(context.Background(), "short transcript")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if analysis.Confidence == nil || *analysis.Confidence != 8 {
		t.Fatalf("unexpected confidence: %v", analysis.Confidence)
	}
	if analysis.Communication != nil {
		t.Fatalf("missing dimension must stay nil, got %v", *analysis.Communication)
	}
	if analysis.Technical != nil {
		t.Fatalf("missing dimension must stay nil, got %v", *analysis.Technical)
	}
}

func TestAnalyzerFencedResponse(t *testing.T) {
	stub := &stubGenerator{response: "```json\n{\"confidence\": 9, \"communication\": 8, \"technical\": 7}\n```"}
	analyzer := NewAnalyzer(stub, zap.NewNop(), 0)

	analysis, err := analyzer.Analyze(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Confidence == nil || *analysis.Confidence != 9 {
		t.Fatalf("expected fenced JSON to parse, got %+v", analysis)
	}
}

func TestAnalyzerStringScores(t *testing.T) {
	stub := &stubGenerator{response: `{"confidence": "8.0", "communication": "n/a", "technical": 7}`}
	analyzer := NewAnalyzer(stub, zap.NewNop(), 0)

	analysis, err := analyzer.Analyze(context.Background(), "transcript")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if analysis.Confidence == nil || *analysis.Confidence != 8 {
		t.Fatalf("numeric string must coerce, got %v", analysis.Confidence)
	}
	if analysis.Communication != nil {
		t.Fatalf("unparsable score must stay nil, got %v", *analysis.Communication)
	}
}

func TestAnalyzerEmptyTranscript(t *testing.T) {
	analyzer := NewAnalyzer(&stubGenerator{}, zap.NewNop(), 0)

	_, err := analyzer.Analyze(context.Background(), "   ")
	var analysisErr *ai.AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
}

func TestAnalyzerGeneratorFailure(t *testing.T) {
	stub := &stubGenerator{err: errors.New("quota exceeded")}
	analyzer := NewAnalyzer(stub, zap.NewNop(), 0)

	_, err := analyzer.Analyze(context.Background(), "transcript")
	var analysisErr *ai.AnalysisError
	if !errors.As(err, &analysisErr) {
		t.Fatalf("expected AnalysisError, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected the cause in the message, got %v", err)
	}
}

func TestAnalyzerMalformedResponse(t *testing.T) {
	stub := &stubGenerator{response: "Sure! The candidate did well overall."}
	analyzer := NewAnalyzer(stub, zap.NewNop(), 0)

	if _, err := analyzer.Analyze(context.Background(), "transcript"); err == nil {
		t.Fatalf("expected an error for a non-JSON response")
	}
}
