package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/spigell/selection-pipeline/internal/funnel"

	"go.uber.org/zap"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "pipeline.db"), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCandidateRoundTrip(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	confidence := 8.0
	cand := &funnel.Candidate{
		ID:          "c1",
		Name:        "Alex",
		Email:       "alex@example.com",
		Stage:       funnel.StageVideoAnalyzed,
		QuizAnswers: map[string]int{"q1": 1},
		QuizScore:   7,
		QuizMax:     10,
		VideoLink:   "https://videos.example/c1",
		Transcript:  "Hello.",
		Dimensions:  funnel.DimensionScores{Confidence: &confidence},
		VideoScore:  8,
		FinalScore:  0.75,
		Flags:       []string{funnel.FlagPartialVideoAnalysis},
		EnteredAt:   map[funnel.Stage]time.Time{funnel.StageVideoAnalyzed: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		Notified:    map[string]time.Time{"quiz_evaluated>shortlisted": time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)},
		Meta:        map[string]string{"cohort": "spring-2026"},
	}

	if err := s.WriteCandidates(ctx, []*funnel.Candidate{cand}); err != nil {
		t.Fatalf("write: %v", err)
	}

	loaded, err := s.ReadCandidates(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("expected one candidate, got %d", len(loaded))
	}

	got := loaded[0]
	if got.ID != "c1" || got.Stage != funnel.StageVideoAnalyzed {
		t.Fatalf("unexpected candidate: %+v", got)
	}
	if got.QuizAnswers["q1"] != 1 || got.QuizScore != 7 {
		t.Fatalf("quiz data did not survive: %+v", got)
	}
	if got.Dimensions.Confidence == nil || *got.Dimensions.Confidence != confidence {
		t.Fatalf("confidence did not survive: %v", got.Dimensions.Confidence)
	}
	if got.Dimensions.Communication != nil {
		t.Fatalf("a nil dimension must stay nil")
	}
	if !got.HasFlag(funnel.FlagPartialVideoAnalysis) {
		t.Fatalf("flags did not survive: %v", got.Flags)
	}
	if !got.EnteredStageAt(funnel.StageVideoAnalyzed).Equal(cand.EnteredAt[funnel.StageVideoAnalyzed]) {
		t.Fatalf("stage entry did not survive: %v", got.EnteredAt)
	}
	if got.Meta["cohort"] != "spring-2026" {
		t.Fatalf("meta did not survive: %v", got.Meta)
	}
}

func TestWriteCandidatesUpserts(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	cand := &funnel.Candidate{ID: "c1", Stage: funnel.StageRegistered}
	if err := s.WriteCandidates(ctx, []*funnel.Candidate{cand}); err != nil {
		t.Fatalf("first write: %v", err)
	}

	cand.Stage = funnel.StageQuizEvaluated
	cand.QuizScore = 5
	if err := s.WriteCandidates(ctx, []*funnel.Candidate{cand}); err != nil {
		t.Fatalf("second write: %v", err)
	}

	loaded, err := s.ReadCandidates(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(loaded) != 1 {
		t.Fatalf("upsert must not duplicate rows, got %d", len(loaded))
	}
	if loaded[0].Stage != funnel.StageQuizEvaluated || loaded[0].QuizScore != 5 {
		t.Fatalf("update did not apply: %+v", loaded[0])
	}
}

func TestScoreRecordsAppendOnly(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	first := funnel.NewScoreRecord("c1", funnel.StageQuizEvaluated, "v1", 5, base)
	second := funnel.NewScoreRecord("c1", funnel.StageQuizEvaluated, "v2", 6, base.Add(time.Hour))

	if err := s.AppendScoreRecords(ctx, []*funnel.ScoreRecord{first}); err != nil {
		t.Fatalf("first append: %v", err)
	}
	if err := s.AppendScoreRecords(ctx, []*funnel.ScoreRecord{second}); err != nil {
		t.Fatalf("second append: %v", err)
	}

	records, err := s.ReadScoreRecords(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected both records, got %d", len(records))
	}

	latest := funnel.Latest(records, "c1", funnel.StageQuizEvaluated)
	if latest == nil || latest.Inputs != "v2" {
		t.Fatalf("expected the later record, got %+v", latest)
	}
}

func TestReadQuestions(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO questions (id, prompt, option_a, option_b, correct_option, points, category)
		VALUES ('q1', 'Which keyword starts a goroutine?', 'go', 'async', 0, 2, 'concurrency')`)
	if err != nil {
		t.Fatalf("seed question: %v", err)
	}

	questions, err := s.ReadQuestions(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("expected one question, got %d", len(questions))
	}
	if questions[0].Points != 2 || len(questions[0].Options) != 2 {
		t.Fatalf("unexpected question: %+v", questions[0])
	}
}
