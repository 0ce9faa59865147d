package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/selection-pipeline/internal/ai"
	"github.com/spigell/selection-pipeline/internal/funnel"

	"go.uber.org/zap"
)

// AnalyzeVideos transcribes and scores the video interview of every
// shortlisted candidate. External AI calls fail independently per candidate:
// a failed candidate is flagged and the batch continues. Each candidate is
// persisted as one unit as soon as its analysis completes.
func (p *Pipeline) AnalyzeVideos(ctx context.Context) (*Summary, error) {
	summary := newSummary("analyze")

	if p.deps.Transcriber == nil || p.deps.Analyzer == nil {
		return nil, fmt.Errorf("transcriber and analyzer are required for video analysis")
	}

	candidates, history, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	eligible := funnel.ByStage(candidates, funnel.StageShortlisted)
	p.deps.Logger.Info("analyzing video interviews", zap.Int("candidates", len(eligible)))

	for _, cand := range eligible {
		if cand.VideoLink == "" {
			summary.failed(cand.ID, "no video link")
			continue
		}

		if err := p.limiter.Wait(ctx); err != nil {
			return summary, err
		}

		outcome, err := p.analyzeOne(ctx, cand, history)
		if err != nil {
			// Candidate-local degradation: flag, persist, continue.
			cand.AddFlag(funnel.FlagAnalysisFailed)
			p.deps.Logger.Warn("video analysis failed",
				zap.String("candidate_id", cand.ID),
				zap.Error(err),
			)
			if perr := p.persist(ctx, []*funnel.Candidate{cand}, nil); perr != nil {
				return summary, perr
			}
			summary.failed(cand.ID, err.Error())
			continue
		}

		if perr := p.persist(ctx, []*funnel.Candidate{cand}, outcome.records); perr != nil {
			return summary, perr
		}

		if outcome.partial {
			summary.partial(cand.ID, outcome.reason)
			continue
		}
		summary.succeeded(cand.ID)
	}

	p.deps.Logger.Info("video analysis completed",
		zap.Int("succeeded", len(summary.Succeeded)),
		zap.Int("partial", len(summary.Partial)),
		zap.Int("failed", len(summary.Failed)),
	)

	return summary, nil
}

type analysisOutcome struct {
	records []*funnel.ScoreRecord
	partial bool
	reason  string
}

// analyzeOne runs the per-candidate unit: transcribe, analyze, score,
// transition. The timeout bounds both external calls together so one slow
// candidate cannot stall the batch.
func (p *Pipeline) analyzeOne(ctx context.Context, cand *funnel.Candidate, history []*funnel.ScoreRecord) (*analysisOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, p.cfg.AITimeout)
	defer cancel()

	transcript, err := p.deps.Transcriber.Transcribe(ctx, cand.VideoLink)
	if err != nil {
		return nil, err
	}
	cand.Transcript = transcript

	analysis, err := p.deps.Analyzer.Analyze(ctx, transcript)
	if err != nil {
		return nil, err
	}

	cand.Dimensions = funnel.DimensionScores{
		Confidence:    analysis.Confidence,
		Communication: analysis.Communication,
		Technical:     analysis.Technical,
	}

	composite, dims := funnel.ScoreVideo(cand.Dimensions, p.cfg.VideoWeights)
	if dims == 0 {
		return nil, &ai.AnalysisError{Err: fmt.Errorf("analysis produced no dimension scores")}
	}
	cand.VideoScore = composite

	outcome := &analysisOutcome{}
	cand.ClearFlag(funnel.FlagAnalysisFailed)
	if dims < 3 {
		cand.AddFlag(funnel.FlagPartialVideoAnalysis)
		outcome.partial = true
		outcome.reason = fmt.Sprintf("only %d of 3 dimensions scored", dims)
	} else {
		cand.ClearFlag(funnel.FlagPartialVideoAnalysis)
	}

	evidence, err := videoEvidence(cand)
	if err != nil {
		return nil, err
	}

	latest := funnel.Latest(history, cand.ID, funnel.StageVideoAnalyzed)
	transition, err := p.controller.Attempt(cand, funnel.StageVideoAnalyzed, evidence, latest)
	if err != nil {
		return nil, err
	}
	if transition.Record != nil {
		outcome.records = append(outcome.records, transition.Record)
	}

	p.deps.Logger.Debug("video scored",
		zap.String("candidate_id", cand.ID),
		zap.Float64("composite", composite),
		zap.Int("dimensions", dims),
	)

	return outcome, nil
}

// videoEvidence snapshots the dimension scores behind a composite.
func videoEvidence(cand *funnel.Candidate) (*funnel.Evidence, error) {
	snapshot, err := json.Marshal(struct {
		Confidence    *float64 `json:"confidence"`
		Communication *float64 `json:"communication"`
		Technical     *float64 `json:"technical"`
	}{
		Confidence:    cand.Dimensions.Confidence,
		Communication: cand.Dimensions.Communication,
		Technical:     cand.Dimensions.Technical,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot video inputs: %w", err)
	}

	return &funnel.Evidence{Score: cand.VideoScore, Inputs: string(snapshot)}, nil
}
