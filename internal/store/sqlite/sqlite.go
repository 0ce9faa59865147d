// Package sqlite backs the record store with a local SQLite database for
// development and offline runs. Same contract as the sheets driver, including
// the append-only score record log.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/spigell/selection-pipeline/internal/funnel"
	"github.com/spigell/selection-pipeline/internal/store"

	"go.uber.org/zap"

	_ "modernc.org/sqlite"
)

type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Open opens or creates the database at path and runs the schema migration.
func Open(path string, logger *zap.Logger) (*Store, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return nil, fmt.Errorf("pragma %q: %w", p, err)
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migration: %w", err)
	}

	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
		CREATE TABLE IF NOT EXISTS candidates (
			id            TEXT PRIMARY KEY,
			name          TEXT NOT NULL DEFAULT '',
			email         TEXT NOT NULL DEFAULT '',
			stage         TEXT NOT NULL DEFAULT 'registered',
			quiz_answers  TEXT NOT NULL DEFAULT '',
			quiz_score    REAL NOT NULL DEFAULT 0,
			quiz_max      REAL NOT NULL DEFAULT 0,
			video_link    TEXT NOT NULL DEFAULT '',
			transcript    TEXT NOT NULL DEFAULT '',
			confidence    TEXT NOT NULL DEFAULT '',
			communication TEXT NOT NULL DEFAULT '',
			technical     TEXT NOT NULL DEFAULT '',
			video_score   REAL NOT NULL DEFAULT 0,
			final_score   REAL NOT NULL DEFAULT 0,
			flags         TEXT NOT NULL DEFAULT '',
			entered_at    TEXT NOT NULL DEFAULT '',
			notified      TEXT NOT NULL DEFAULT '',
			meta          TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS questions (
			id             TEXT PRIMARY KEY,
			prompt         TEXT NOT NULL,
			option_a       TEXT NOT NULL DEFAULT '',
			option_b       TEXT NOT NULL DEFAULT '',
			option_c       TEXT NOT NULL DEFAULT '',
			option_d       TEXT NOT NULL DEFAULT '',
			correct_option INTEGER NOT NULL DEFAULT 0,
			points         REAL NOT NULL DEFAULT 1,
			category       TEXT NOT NULL DEFAULT ''
		);

		CREATE TABLE IF NOT EXISTS score_records (
			id           TEXT PRIMARY KEY,
			candidate_id TEXT NOT NULL,
			stage        TEXT NOT NULL,
			score        REAL NOT NULL,
			inputs       TEXT NOT NULL DEFAULT '',
			computed_at  TEXT NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_score_records_candidate
			ON score_records (candidate_id, stage, computed_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) ReadCandidates(ctx context.Context) ([]*funnel.Candidate, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, stage, quiz_answers, quiz_score, quiz_max,
		       video_link, transcript, confidence, communication, technical,
		       video_score, final_score, flags, entered_at, notified, meta
		FROM candidates`)
	if err != nil {
		return nil, fmt.Errorf("read candidates: %w", err)
	}
	defer rows.Close()

	var candidates []*funnel.Candidate
	for rows.Next() {
		values := make(map[string]string, len(store.CandidateColumns)+1)
		var fields [18]string
		dest := make([]any, len(fields))
		for i := range fields {
			dest[i] = &fields[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan candidate: %w", err)
		}

		for i, col := range store.CandidateColumns {
			values[col] = fields[i]
		}

		cand, err := store.DecodeCandidate(values)
		if err != nil {
			s.logger.Warn("skipping malformed candidate row", zap.Error(err))
			continue
		}
		if err := decodeMeta(fields[17], cand); err != nil {
			s.logger.Warn("skipping candidate with malformed metadata",
				zap.String("candidate_id", cand.ID),
				zap.Error(err),
			)
			continue
		}
		candidates = append(candidates, cand)
	}

	return candidates, rows.Err()
}

func (s *Store) WriteCandidates(ctx context.Context, candidates []*funnel.Candidate) error {
	if len(candidates) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin write: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO candidates (
			id, name, email, stage, quiz_answers, quiz_score, quiz_max,
			video_link, transcript, confidence, communication, technical,
			video_score, final_score, flags, entered_at, notified, meta
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name, email = excluded.email, stage = excluded.stage,
			quiz_answers = excluded.quiz_answers, quiz_score = excluded.quiz_score,
			quiz_max = excluded.quiz_max, video_link = excluded.video_link,
			transcript = excluded.transcript, confidence = excluded.confidence,
			communication = excluded.communication, technical = excluded.technical,
			video_score = excluded.video_score, final_score = excluded.final_score,
			flags = excluded.flags, entered_at = excluded.entered_at,
			notified = excluded.notified, meta = excluded.meta`)
	if err != nil {
		return fmt.Errorf("prepare candidate upsert: %w", err)
	}
	defer stmt.Close()

	for _, cand := range candidates {
		values, err := store.EncodeCandidate(cand)
		if err != nil {
			return err
		}
		meta, err := encodeMeta(cand)
		if err != nil {
			return err
		}

		args := make([]any, 0, len(store.CandidateColumns)+1)
		for _, col := range store.CandidateColumns {
			args = append(args, values[col])
		}
		args = append(args, meta)

		if _, err := stmt.ExecContext(ctx, args...); err != nil {
			return fmt.Errorf("write candidate %s: %w", cand.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) ReadQuestions(ctx context.Context) ([]*funnel.QuizQuestion, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, prompt, option_a, option_b, option_c, option_d,
		       correct_option, points, category
		FROM questions`)
	if err != nil {
		return nil, fmt.Errorf("read questions: %w", err)
	}
	defer rows.Close()

	var questions []*funnel.QuizQuestion
	for rows.Next() {
		var fields [9]string
		dest := make([]any, len(fields))
		for i := range fields {
			dest[i] = &fields[i]
		}
		if err := rows.Scan(dest...); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}

		values := make(map[string]string, len(store.QuestionColumns))
		for i, col := range store.QuestionColumns {
			values[col] = fields[i]
		}

		question, err := store.DecodeQuestion(values)
		if err != nil {
			s.logger.Warn("skipping malformed question row", zap.Error(err))
			continue
		}
		questions = append(questions, question)
	}

	return questions, rows.Err()
}

func (s *Store) AppendScoreRecords(ctx context.Context, records []*funnel.ScoreRecord) error {
	if len(records) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	for _, record := range records {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO score_records (id, candidate_id, stage, score, inputs, computed_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
			record.ID, record.CandidateID, string(record.Stage), record.Score,
			record.Inputs, record.ComputedAt.UTC().Format(time.RFC3339Nano),
		)
		if err != nil {
			return fmt.Errorf("append score record %s: %w", record.ID, err)
		}
	}

	return tx.Commit()
}

func (s *Store) ReadScoreRecords(ctx context.Context) ([]*funnel.ScoreRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, candidate_id, stage, score, inputs, computed_at
		FROM score_records ORDER BY computed_at`)
	if err != nil {
		return nil, fmt.Errorf("read score records: %w", err)
	}
	defer rows.Close()

	var records []*funnel.ScoreRecord
	for rows.Next() {
		var id, candidateID, stage, inputs, computedAt string
		var score float64
		if err := rows.Scan(&id, &candidateID, &stage, &score, &inputs, &computedAt); err != nil {
			return nil, fmt.Errorf("scan score record: %w", err)
		}

		parsedStage, err := funnel.ParseStage(stage)
		if err != nil {
			s.logger.Warn("skipping malformed score record", zap.String("record_id", id), zap.Error(err))
			continue
		}
		at, err := time.Parse(time.RFC3339Nano, computedAt)
		if err != nil {
			s.logger.Warn("skipping malformed score record", zap.String("record_id", id), zap.Error(err))
			continue
		}

		records = append(records, &funnel.ScoreRecord{
			ID:          id,
			CandidateID: candidateID,
			Stage:       parsedStage,
			Score:       score,
			Inputs:      inputs,
			ComputedAt:  at,
		})
	}

	return records, rows.Err()
}
