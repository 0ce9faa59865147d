package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/spigell/selection-pipeline/internal/funnel"

	"github.com/mitchellh/mapstructure"
)

// Question bank columns, mirroring the four-option quiz layout of the
// original sheet.
const (
	QColID       = "id"
	QColPrompt   = "prompt"
	QColOptionA  = "option_a"
	QColOptionB  = "option_b"
	QColOptionC  = "option_c"
	QColOptionD  = "option_d"
	QColCorrect  = "correct_option"
	QColPoints   = "points"
	QColCategory = "category"
)

var QuestionColumns = []string{
	QColID, QColPrompt,
	QColOptionA, QColOptionB, QColOptionC, QColOptionD,
	QColCorrect, QColPoints, QColCategory,
}

type questionRow struct {
	ID       string  `mapstructure:"id"`
	Prompt   string  `mapstructure:"prompt"`
	OptionA  string  `mapstructure:"option_a"`
	OptionB  string  `mapstructure:"option_b"`
	OptionC  string  `mapstructure:"option_c"`
	OptionD  string  `mapstructure:"option_d"`
	Correct  int     `mapstructure:"correct_option"`
	Points   float64 `mapstructure:"points"`
	Category string  `mapstructure:"category"`
}

// DecodeQuestion converts a raw question row into a QuizQuestion. Trailing
// empty options are dropped so three-option questions round-trip cleanly.
func DecodeQuestion(values map[string]string) (*funnel.QuizQuestion, error) {
	var row questionRow
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &row,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(values); err != nil {
		return nil, fmt.Errorf("decode question row: %w", err)
	}

	if strings.TrimSpace(row.ID) == "" {
		return nil, fmt.Errorf("question row has no id")
	}

	options := []string{row.OptionA, row.OptionB, row.OptionC, row.OptionD}
	for len(options) > 0 && strings.TrimSpace(options[len(options)-1]) == "" {
		options = options[:len(options)-1]
	}

	if row.Correct < 0 || row.Correct >= len(options) {
		return nil, fmt.Errorf("question %s: correct option %d out of range", row.ID, row.Correct)
	}

	points := row.Points
	if points <= 0 {
		points = 1
	}

	return &funnel.QuizQuestion{
		ID:            row.ID,
		Prompt:        row.Prompt,
		Options:       options,
		CorrectOption: row.Correct,
		Points:        points,
		Category:      row.Category,
	}, nil
}

// Score record columns.
const (
	RColID          = "id"
	RColCandidateID = "candidate_id"
	RColStage       = "stage"
	RColScore       = "score"
	RColInputs      = "inputs"
	RColComputedAt  = "computed_at"
)

var ScoreRecordColumns = []string{
	RColID, RColCandidateID, RColStage, RColScore, RColInputs, RColComputedAt,
}

// EncodeScoreRecord converts an audit entry into the raw row shape.
func EncodeScoreRecord(r *funnel.ScoreRecord) map[string]string {
	return map[string]string{
		RColID:          r.ID,
		RColCandidateID: r.CandidateID,
		RColStage:       string(r.Stage),
		RColScore:       formatFloat(r.Score),
		RColInputs:      r.Inputs,
		RColComputedAt:  r.ComputedAt.UTC().Format(time.RFC3339Nano),
	}
}

// DecodeScoreRecord converts a raw row back into an audit entry.
func DecodeScoreRecord(values map[string]string) (*funnel.ScoreRecord, error) {
	id := strings.TrimSpace(values[RColID])
	if id == "" {
		return nil, fmt.Errorf("score record row has no id")
	}

	stage, err := funnel.ParseStage(values[RColStage])
	if err != nil {
		return nil, fmt.Errorf("score record %s: %w", id, err)
	}

	computedAt, err := time.Parse(time.RFC3339Nano, values[RColComputedAt])
	if err != nil {
		return nil, fmt.Errorf("score record %s: computed_at: %w", id, err)
	}

	score := 0.0
	if v := parseOptionalScore(values[RColScore]); v != nil {
		score = *v
	}

	return &funnel.ScoreRecord{
		ID:          id,
		CandidateID: values[RColCandidateID],
		Stage:       stage,
		Score:       score,
		Inputs:      values[RColInputs],
		ComputedAt:  computedAt,
	}, nil
}
