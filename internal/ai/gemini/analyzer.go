package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	_ "embed"

	"github.com/spigell/selection-pipeline/internal/ai"
	"github.com/spigell/selection-pipeline/internal/logger"

	"go.uber.org/zap"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Analyzer scores interview transcripts through a Gemini model.
type Analyzer struct {
	generator contentGenerator
	logger    *zap.Logger
	maxLogLen int
}

//go:embed prompt.md
var promptTemplate string

const defaultMaxLogLength = 200

func NewAnalyzer(generator contentGenerator, logger *zap.Logger, maxLogLength int) *Analyzer {
	if maxLogLength <= 0 {
		maxLogLength = defaultMaxLogLength
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Analyzer{
		generator: generator,
		logger:    logger,
		maxLogLen: maxLogLength,
	}
}

// Analyze sends the transcript to the model and parses the per-dimension
// scores out of the response. A missing dimension in the response stays nil;
// the composite is computed elsewhere over what is present.
func (a *Analyzer) Analyze(ctx context.Context, transcript string) (*ai.VideoAnalysis, error) {
	transcript = strings.TrimSpace(transcript)
	if transcript == "" {
		return nil, &ai.AnalysisError{Err: fmt.Errorf("transcript is empty")}
	}

	prompt := buildPrompt(transcript)

	a.logger.Debug("gemini analyze request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", logger.TruncateForLog(prompt, a.maxLogLen)),
	)

	raw, err := a.generator.GenerateContent(ctx, prompt)
	if err != nil {
		return nil, &ai.AnalysisError{Err: err}
	}

	a.logger.Debug("gemini analyze response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", logger.TruncateForLog(raw, a.maxLogLen)),
	)

	analysis, err := parseResponse(raw)
	if err != nil {
		return nil, &ai.AnalysisError{Err: err}
	}

	analysis.Raw = raw
	return analysis, nil
}

func buildPrompt(transcript string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Transcript:\n{{TRANSCRIPT}}\n\nJSON Response:"
	}
	return strings.ReplaceAll(template, "{{TRANSCRIPT}}", transcript)
}

func parseResponse(raw string) (*ai.VideoAnalysis, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	return &ai.VideoAnalysis{
		Confidence:    coerceScore(data, "confidence"),
		Communication: coerceScore(data, "communication"),
		Technical:     coerceScore(data, "technical"),
		Summary:       coerceString(data["summary"]),
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

// coerceScore returns nil when the key is absent or unparsable, so a partial
// model response degrades to a partial analysis instead of a zero score.
func coerceScore(data map[string]any, key string) *float64 {
	v, ok := data[key]
	if !ok {
		return nil
	}

	f := coerceFloat(v)
	if math.IsNaN(f) {
		return nil
	}
	return &f
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case string:
		trimmed := strings.TrimSpace(val)
		if trimmed == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(trimmed, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
