package pipeline

import (
	"context"

	"github.com/spigell/selection-pipeline/internal/funnel"
	"github.com/spigell/selection-pipeline/internal/notify"

	"go.uber.org/zap"
)

// ShortlistTop ranks the quiz-evaluated candidates and advances the top N to
// the shortlist; the rest are rejected, never left in limbo. Ties are broken
// by earlier quiz completion, then candidate id. Re-running the round with
// unchanged scores reproduces the identical ranking and fires nothing twice.
func (p *Pipeline) ShortlistTop(ctx context.Context) (*Summary, error) {
	summary := newSummary("shortlist")

	candidates, _, err := p.load(ctx)
	if err != nil {
		return nil, err
	}

	eligible := funnel.ByStage(candidates, funnel.StageQuizEvaluated)
	ranking := funnel.SelectTop(eligible,
		func(c *funnel.Candidate) float64 { return c.QuizScore },
		funnel.StageQuizEvaluated,
		p.cfg.MaxShortlist,
	)
	summary.Ranking = ranking

	p.deps.Logger.Info("shortlisting candidates",
		zap.Int("eligible", len(eligible)),
		zap.Int("selected", len(ranking.Selected)),
		zap.Int("rejected", len(ranking.Rejected)),
		zap.Int("max_shortlist", p.cfg.MaxShortlist),
	)

	byID := make(map[string]*funnel.Candidate, len(eligible))
	for _, cand := range eligible {
		byID[cand.ID] = cand
	}

	var updated []*funnel.Candidate

	for _, id := range ranking.Selected {
		cand := byID[id]
		// The quiz score was already recorded at evaluation; the round
		// itself computes nothing new, so no evidence here.
		if _, err := p.controller.Attempt(cand, funnel.StageShortlisted, nil, nil); err != nil {
			summary.failed(cand.ID, err.Error())
			continue
		}
		updated = append(updated, cand)
	}

	for _, id := range ranking.Rejected {
		cand := byID[id]
		if _, err := p.controller.Attempt(cand, funnel.StageRejected, nil, nil); err != nil {
			summary.failed(cand.ID, err.Error())
			continue
		}
		updated = append(updated, cand)
		summary.succeeded(cand.ID)
	}

	// Notify everyone currently shortlisted without a sent marker. This
	// sweeps in candidates whose notification failed on a previous run.
	deadline := p.now().AddDate(0, 0, p.cfg.DeadlineDays)
	transition := funnel.TransitionKey(funnel.StageQuizEvaluated, funnel.StageShortlisted)

	for _, cand := range funnel.ByStage(candidates, funnel.StageShortlisted) {
		msg, err := notify.ShortlistMessage(cand.Name, cand.Email, p.cfg.DriveLink, deadline)
		if err != nil {
			summary.partial(cand.ID, err.Error())
			continue
		}

		sent, err := p.notify(ctx, cand, transition, msg)
		if err != nil {
			p.deps.Logger.Warn("shortlist notification failed",
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

	if err := p.persist(ctx, updated, nil); err != nil {
		return summary, err
	}

	return summary, nil
}

func appendOnce(list []*funnel.Candidate, cand *funnel.Candidate) []*funnel.Candidate {
	for _, c := range list {
		if c == cand {
			return list
		}
	}
	return append(list, cand)
}
