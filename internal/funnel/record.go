package funnel

import (
	"time"

	"github.com/google/uuid"
)

// ScoreRecord is one append-only audit entry: the score computed for a
// candidate at a stage, with a snapshot of the raw inputs. A later
// computation for the same stage supersedes but never deletes an earlier one.
type ScoreRecord struct {
	ID          string
	CandidateID string
	Stage       Stage
	Inputs      string
	Score       float64
	ComputedAt  time.Time
}

// NewScoreRecord builds a record with a fresh id.
func NewScoreRecord(candidateID string, stage Stage, inputs string, score float64, at time.Time) *ScoreRecord {
	return &ScoreRecord{
		ID:          uuid.NewString(),
		CandidateID: candidateID,
		Stage:       stage,
		Inputs:      inputs,
		Score:       score,
		ComputedAt:  at,
	}
}

// Latest returns the most recent record for the candidate and stage, or nil.
func Latest(records []*ScoreRecord, candidateID string, stage Stage) *ScoreRecord {
	var latest *ScoreRecord
	for _, r := range records {
		if r.CandidateID != candidateID || r.Stage != stage {
			continue
		}
		if latest == nil || r.ComputedAt.After(latest.ComputedAt) {
			latest = r
		}
	}
	return latest
}
