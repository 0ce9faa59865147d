package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/selection-pipeline/internal/funnel"

	"go.uber.org/zap"
)

// EvaluateQuizzes scores every registered candidate against the question
// bank and moves it to the quiz-evaluated stage. Grading is deterministic:
// unanswered questions score zero, answers for unknown questions are logged
// as data-quality warnings and ignored.
func (p *Pipeline) EvaluateQuizzes(ctx context.Context) (*Summary, error) {
	summary := newSummary("evaluate")

	questions, err := p.deps.Store.ReadQuestions(ctx)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("question bank is empty: create quiz questions first")
	}
	bank := funnel.NewQuestionBank(questions)

	candidates, history, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	eligible := funnel.ByStage(candidates, funnel.StageRegistered)
	p.deps.Logger.Info("evaluating quiz submissions",
		zap.Int("candidates", len(eligible)),
		zap.Int("questions", bank.Len()),
	)

	var updated []*funnel.Candidate
	var records []*funnel.ScoreRecord

	for _, cand := range eligible {
		result := funnel.ScoreQuiz(cand.QuizAnswers, bank)
		if len(result.UnknownQuestions) > 0 {
			p.deps.Logger.Warn("submission references unknown questions",
				zap.String("candidate_id", cand.ID),
				zap.Strings("question_ids", result.UnknownQuestions),
			)
		}

		cand.QuizScore = result.Raw
		cand.QuizMax = result.Max

		evidence, err := quizEvidence(cand, result)
		if err != nil {
			summary.failed(cand.ID, err.Error())
			continue
		}

		latest := funnel.Latest(history, cand.ID, funnel.StageQuizEvaluated)
		transition, err := p.controller.Attempt(cand, funnel.StageQuizEvaluated, evidence, latest)
		if err != nil {
			summary.failed(cand.ID, err.Error())
			continue
		}

		if transition.Record != nil {
			records = append(records, transition.Record)
		}
		updated = append(updated, cand)
		summary.succeeded(cand.ID)

		p.deps.Logger.Debug("quiz evaluated",
			zap.String("candidate_id", cand.ID),
			zap.Float64("score", result.Raw),
			zap.Float64("max", result.Max),
		)
	}

	if err := p.persist(ctx, updated, records); err != nil {
		return summary, err
	}

	p.deps.Logger.Info("quiz evaluation completed",
		zap.Int("evaluated", len(summary.Succeeded)),
		zap.Int("failed", len(summary.Failed)),
	)

	return summary, nil
}

// quizEvidence snapshots the raw answers behind a quiz score. JSON with
// sorted keys, so an identical submission always produces identical evidence.
func quizEvidence(cand *funnel.Candidate, result funnel.QuizResult) (*funnel.Evidence, error) {
	snapshot, err := json.Marshal(struct {
		Answers map[string]int `json:"answers"`
		Max     float64        `json:"max"`
	}{
		Answers: cand.QuizAnswers,
		Max:     result.Max,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot quiz inputs: %w", err)
	}

	return &funnel.Evidence{Score: result.Raw, Inputs: string(snapshot)}, nil
}
