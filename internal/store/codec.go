package store

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spigell/selection-pipeline/internal/funnel"

	"github.com/mitchellh/mapstructure"
)

// Column names shared by the drivers. The original sheet carried arbitrary
// columns; everything outside this set is kept as opaque passthrough metadata.
const (
	ColID            = "id"
	ColName          = "name"
	ColEmail         = "email"
	ColStage         = "stage"
	ColQuizAnswers   = "quiz_answers"
	ColQuizScore     = "quiz_score"
	ColQuizMax       = "quiz_max"
	ColVideoLink     = "video_link"
	ColTranscript    = "transcript"
	ColConfidence    = "confidence"
	ColCommunication = "communication"
	ColTechnical     = "technical"
	ColVideoScore    = "video_score"
	ColFinalScore    = "final_score"
	ColFlags         = "flags"
	ColEnteredAt     = "entered_at"
	ColNotified      = "notified"
)

// CandidateColumns is the full column set, in sheet order.
var CandidateColumns = []string{
	ColID, ColName, ColEmail, ColStage,
	ColQuizAnswers, ColQuizScore, ColQuizMax,
	ColVideoLink, ColTranscript,
	ColConfidence, ColCommunication, ColTechnical,
	ColVideoScore, ColFinalScore,
	ColFlags, ColEnteredAt, ColNotified,
}

// candidateRow is the loosely-typed shape of one stored row. Numeric fields
// arrive as strings from the sheet backend; dimension scores stay strings so
// an empty cell can mean "dimension missing" rather than zero.
type candidateRow struct {
	ID            string  `mapstructure:"id"`
	Name          string  `mapstructure:"name"`
	Email         string  `mapstructure:"email"`
	Stage         string  `mapstructure:"stage"`
	QuizAnswers   string  `mapstructure:"quiz_answers"`
	QuizScore     float64 `mapstructure:"quiz_score"`
	QuizMax       float64 `mapstructure:"quiz_max"`
	VideoLink     string  `mapstructure:"video_link"`
	Transcript    string  `mapstructure:"transcript"`
	Confidence    string  `mapstructure:"confidence"`
	Communication string  `mapstructure:"communication"`
	Technical     string  `mapstructure:"technical"`
	VideoScore    float64 `mapstructure:"video_score"`
	FinalScore    float64 `mapstructure:"final_score"`
	Flags         string  `mapstructure:"flags"`
	EnteredAt     string  `mapstructure:"entered_at"`
	Notified      string  `mapstructure:"notified"`
}

// DecodeCandidate converts a raw row map into a Candidate. Unknown columns
// are carried through in Meta untouched.
func DecodeCandidate(values map[string]string) (*funnel.Candidate, error) {
	var row candidateRow
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &row,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(values); err != nil {
		return nil, fmt.Errorf("decode candidate row: %w", err)
	}

	if strings.TrimSpace(row.ID) == "" {
		return nil, fmt.Errorf("candidate row has no id")
	}

	stage := funnel.StageRegistered
	if strings.TrimSpace(row.Stage) != "" {
		stage, err = funnel.ParseStage(row.Stage)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: %w", row.ID, err)
		}
	}

	cand := &funnel.Candidate{
		ID:         row.ID,
		Name:       row.Name,
		Email:      row.Email,
		Stage:      stage,
		QuizScore:  row.QuizScore,
		QuizMax:    row.QuizMax,
		VideoLink:  row.VideoLink,
		Transcript: row.Transcript,
		VideoScore: row.VideoScore,
		FinalScore: row.FinalScore,
		Dimensions: funnel.DimensionScores{
			Confidence:    parseOptionalScore(row.Confidence),
			Communication: parseOptionalScore(row.Communication),
			Technical:     parseOptionalScore(row.Technical),
		},
	}

	if err := decodeJSONField(row.QuizAnswers, &cand.QuizAnswers); err != nil {
		return nil, fmt.Errorf("candidate %s: quiz answers: %w", row.ID, err)
	}
	if err := decodeJSONField(row.Flags, &cand.Flags); err != nil {
		return nil, fmt.Errorf("candidate %s: flags: %w", row.ID, err)
	}
	if err := decodeJSONField(row.EnteredAt, &cand.EnteredAt); err != nil {
		return nil, fmt.Errorf("candidate %s: stage timestamps: %w", row.ID, err)
	}
	if err := decodeJSONField(row.Notified, &cand.Notified); err != nil {
		return nil, fmt.Errorf("candidate %s: notification markers: %w", row.ID, err)
	}

	known := make(map[string]struct{}, len(CandidateColumns))
	for _, col := range CandidateColumns {
		known[col] = struct{}{}
	}
	for key, value := range values {
		if _, ok := known[key]; ok {
			continue
		}
		if cand.Meta == nil {
			cand.Meta = make(map[string]string)
		}
		cand.Meta[key] = value
	}

	return cand, nil
}

// EncodeCandidate converts a Candidate back into the raw row shape.
func EncodeCandidate(cand *funnel.Candidate) (map[string]string, error) {
	values := map[string]string{
		ColID:            cand.ID,
		ColName:          cand.Name,
		ColEmail:         cand.Email,
		ColStage:         string(cand.Stage),
		ColQuizScore:     formatFloat(cand.QuizScore),
		ColQuizMax:       formatFloat(cand.QuizMax),
		ColVideoLink:     cand.VideoLink,
		ColTranscript:    cand.Transcript,
		ColConfidence:    formatOptionalScore(cand.Dimensions.Confidence),
		ColCommunication: formatOptionalScore(cand.Dimensions.Communication),
		ColTechnical:     formatOptionalScore(cand.Dimensions.Technical),
		ColVideoScore:    formatFloat(cand.VideoScore),
		ColFinalScore:    formatFloat(cand.FinalScore),
	}

	for col, v := range map[string]any{
		ColQuizAnswers: cand.QuizAnswers,
		ColFlags:       cand.Flags,
		ColEnteredAt:   cand.EnteredAt,
		ColNotified:    cand.Notified,
	} {
		encoded, err := encodeJSONField(v)
		if err != nil {
			return nil, fmt.Errorf("candidate %s: encode %s: %w", cand.ID, col, err)
		}
		values[col] = encoded
	}

	for key, value := range cand.Meta {
		values[key] = value
	}

	return values, nil
}

func decodeJSONField(raw string, target any) error {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	return json.Unmarshal([]byte(raw), target)
}

func encodeJSONField(v any) (string, error) {
	switch val := v.(type) {
	case map[string]int:
		if len(val) == 0 {
			return "", nil
		}
	case map[string]time.Time:
		if len(val) == 0 {
			return "", nil
		}
	case map[funnel.Stage]time.Time:
		if len(val) == 0 {
			return "", nil
		}
	case []string:
		if len(val) == 0 {
			return "", nil
		}
	}

	encoded, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(encoded), nil
}

func parseOptionalScore(raw string) *float64 {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil
	}
	return &f
}

func formatOptionalScore(v *float64) string {
	if v == nil {
		return ""
	}
	return formatFloat(*v)
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
