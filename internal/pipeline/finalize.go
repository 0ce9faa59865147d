package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/spigell/selection-pipeline/internal/funnel"
	"github.com/spigell/selection-pipeline/internal/notify"

	"go.uber.org/zap"
)

// MakeFinalSelection computes the final composite for every video-analyzed
// candidate, advances the top K and rejects the rest. The composite combines
// the normalized quiz score with the video composite on the unified [0,1]
// scale. Candidates with a partial video analysis stay in the ranking.
func (p *Pipeline) MakeFinalSelection(ctx context.Context) (*Summary, error) {
	summary := newSummary("finalize")

	candidates, history, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	eligible := funnel.ByStage(candidates, funnel.StageVideoAnalyzed)
	for _, cand := range eligible {
		cand.FinalScore = funnel.ScoreFinal(cand.QuizScore, cand.QuizMax, cand.VideoScore, p.cfg.FinalWeights)
	}

	ranking := funnel.SelectTop(eligible,
		func(c *funnel.Candidate) float64 { return c.FinalScore },
		funnel.StageVideoAnalyzed,
		p.cfg.MaxFinal,
	)
	summary.Ranking = ranking

	p.deps.Logger.Info("making final selection",
		zap.Int("eligible", len(eligible)),
		zap.Int("selected", len(ranking.Selected)),
		zap.Int("rejected", len(ranking.Rejected)),
		zap.Int("max_final", p.cfg.MaxFinal),
	)

	byID := make(map[string]*funnel.Candidate, len(eligible))
	for _, cand := range eligible {
		byID[cand.ID] = cand
	}

	var updated []*funnel.Candidate
	var records []*funnel.ScoreRecord

	advance := func(id string, target funnel.Stage) *funnel.Candidate {
		cand := byID[id]
		evidence, err := finalEvidence(cand)
		if err != nil {
			summary.failed(cand.ID, err.Error())
			return nil
		}

		latest := funnel.Latest(history, cand.ID, target)
		transition, err := p.controller.Attempt(cand, target, evidence, latest)
		if err != nil {
			summary.failed(cand.ID, err.Error())
			return nil
		}

		if transition.Record != nil {
			records = append(records, transition.Record)
		}
		updated = append(updated, cand)
		return cand
	}

	for _, id := range ranking.Selected {
		advance(id, funnel.StageFinallySelected)
	}
	for _, id := range ranking.Rejected {
		if cand := advance(id, funnel.StageRejected); cand != nil {
			summary.succeeded(cand.ID)
		}
	}

	// Sweep every finally-selected candidate without a sent marker, which
	// retries notifications that failed on a previous run.
	transition := funnel.TransitionKey(funnel.StageVideoAnalyzed, funnel.StageFinallySelected)

	for _, cand := range funnel.ByStage(candidates, funnel.StageFinallySelected) {
		msg, err := notify.FinalMessage(cand.Name, cand.Email)
		if err != nil {
			summary.partial(cand.ID, err.Error())
			continue
		}

		sent, err := p.notify(ctx, cand, transition, msg)
		if err != nil {
			p.deps.Logger.Warn("final selection notification failed",
				zap.String("candidate_id", cand.ID),
				zap.Error(err),
			)
			summary.partial(cand.ID, "notification failed: "+err.Error())
			continue
		}
		if sent {
			updated = appendOnce(updated, cand)
		}
		summary.succeeded(cand.ID)
	}

	if err := p.persist(ctx, updated, records); err != nil {
		return summary, err
	}

	return summary, nil
}

// finalEvidence snapshots the two inputs of the final composite.
func finalEvidence(cand *funnel.Candidate) (*funnel.Evidence, error) {
	quiz := 0.0
	if cand.QuizMax > 0 {
		quiz = cand.QuizScore / cand.QuizMax
	}

	snapshot, err := json.Marshal(struct {
		QuizNormalized float64 `json:"quiz_normalized"`
		VideoComposite float64 `json:"video_composite"`
	}{
		QuizNormalized: quiz,
		VideoComposite: cand.VideoScore,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot final inputs: %w", err)
	}

	return &funnel.Evidence{Score: cand.FinalScore, Inputs: string(snapshot)}, nil
}
