// Package store defines typed access to the candidate records. The pipeline
// is the single writer of a store for the duration of a batch; the store
// itself does not arbitrate concurrent writers.
package store

import (
	"context"

	"github.com/spigell/selection-pipeline/internal/funnel"
)

// RecordStore is the narrow interface the pipeline consumes. Row order
// carries no meaning: ranking ties are resolved by the pipeline, never by
// store iteration order.
type RecordStore interface {
	// ReadCandidates returns all candidate rows.
	ReadCandidates(ctx context.Context) ([]*funnel.Candidate, error)
	// WriteCandidates overwrites the given rows, keyed by candidate id.
	WriteCandidates(ctx context.Context, candidates []*funnel.Candidate) error
	// ReadQuestions returns the quiz question bank.
	ReadQuestions(ctx context.Context) ([]*funnel.QuizQuestion, error)
	// AppendScoreRecords appends audit entries. Existing entries are never
	// modified or deleted.
	AppendScoreRecords(ctx context.Context, records []*funnel.ScoreRecord) error
	// ReadScoreRecords returns all audit entries.
	ReadScoreRecords(ctx context.Context) ([]*funnel.ScoreRecord, error)
}
