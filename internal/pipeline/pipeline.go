// Package pipeline composes the selection funnel operations: quiz
// evaluation, shortlisting, video analysis and final selection. Each
// operation is a single-writer batch over the full candidate set.
package pipeline

import (
	"context"
	"time"

	"github.com/spigell/selection-pipeline/internal/ai"
	"github.com/spigell/selection-pipeline/internal/funnel"
	"github.com/spigell/selection-pipeline/internal/notify"
	"github.com/spigell/selection-pipeline/internal/store"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	defaultMaxShortlist = 10
	defaultMaxFinal     = 5
	defaultAITimeout    = 5 * time.Minute
	defaultDeadlineDays = 7
)

// Config are the tunables of a pipeline run.
type Config struct {
	// MaxShortlist is the top-N of the shortlisting round.
	MaxShortlist int
	// MaxFinal is the top-K of the finalization round.
	MaxFinal int

	VideoWeights funnel.VideoWeights
	FinalWeights funnel.FinalWeights

	// DriveLink is the video upload location sent to shortlisted
	// candidates.
	DriveLink string
	// DeadlineDays sets the video submission deadline relative to the
	// shortlisting round.
	DeadlineDays int

	// AITimeout bounds the external AI calls for one candidate. A slow
	// call degrades that candidate only, never the batch.
	AITimeout time.Duration
	// RequestsPerMinute throttles outbound AI calls. Zero means no limit.
	RequestsPerMinute int

	// DryRun computes everything but writes nothing and sends nothing.
	DryRun bool
}

// Deps are the external collaborators of the pipeline. Store is required;
// the others are optional depending on the operation.
type Deps struct {
	Store       store.RecordStore
	Transcriber ai.Transcriber
	Analyzer    ai.Analyzer
	Notifier    notify.Notifier
	Logger      *zap.Logger
}

// Pipeline owns the candidate set for the duration of one batch operation.
type Pipeline struct {
	cfg        Config
	deps       Deps
	controller *funnel.Controller
	gate       funnel.Gate
	limiter    *rate.Limiter
	now        func() time.Time
}

func New(cfg Config, deps Deps) *Pipeline {
	if cfg.MaxShortlist <= 0 {
		cfg.MaxShortlist = defaultMaxShortlist
	}
	if cfg.MaxFinal <= 0 {
		cfg.MaxFinal = defaultMaxFinal
	}
	if cfg.VideoWeights == (funnel.VideoWeights{}) {
		cfg.VideoWeights = funnel.DefaultVideoWeights()
	}
	if cfg.FinalWeights == (funnel.FinalWeights{}) {
		cfg.FinalWeights = funnel.DefaultFinalWeights()
	}
	if cfg.AITimeout <= 0 {
		cfg.AITimeout = defaultAITimeout
	}
	if cfg.DeadlineDays <= 0 {
		cfg.DeadlineDays = defaultDeadlineDays
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}

	limit := rate.Inf
	if cfg.RequestsPerMinute > 0 {
		limit = rate.Every(time.Minute / time.Duration(cfg.RequestsPerMinute))
	}

	return &Pipeline{
		cfg:        cfg,
		deps:       deps,
		controller: funnel.NewController(),
		limiter:    rate.NewLimiter(limit, 1),
		now:        time.Now,
	}
}

// load reads the full candidate set and the audit log. A duplicate candidate
// id is fatal for the batch.
func (p *Pipeline) load(ctx context.Context) ([]*funnel.Candidate, []*funnel.ScoreRecord, error) {
	candidates, err := p.deps.Store.ReadCandidates(ctx)
	if err != nil {
		return nil, nil, err
	}
	if err := funnel.CheckIntegrity(candidates); err != nil {
		return nil, nil, err
	}

	records, err := p.deps.Store.ReadScoreRecords(ctx)
	if err != nil {
		return nil, nil, err
	}

	return candidates, records, nil
}

// persist writes updated candidate rows and appends new audit entries.
func (p *Pipeline) persist(ctx context.Context, candidates []*funnel.Candidate, records []*funnel.ScoreRecord) error {
	if p.cfg.DryRun {
		p.deps.Logger.Info("dry run: skipping store writes",
			zap.Int("candidates", len(candidates)),
			zap.Int("score_records", len(records)),
		)
		return nil
	}

	if err := p.deps.Store.WriteCandidates(ctx, candidates); err != nil {
		return err
	}
	return p.deps.Store.AppendScoreRecords(ctx, records)
}

// notify sends the message if the gate allows it and marks the candidate on
// success. A delivery failure is reported back as a warning; the marker stays
// unset so the next run retries.
func (p *Pipeline) notify(ctx context.Context, cand *funnel.Candidate, transition string, msg *notify.Message) (sent bool, err error) {
	if !p.gate.ShouldNotify(cand, transition) {
		return false, nil
	}

	if p.cfg.DryRun {
		p.deps.Logger.Info("dry run: skipping notification",
			zap.String("candidate_id", cand.ID),
			zap.String("transition", transition),
		)
		return false, nil
	}

	if p.deps.Notifier == nil {
		p.deps.Logger.Warn("notification channel is not configured",
			zap.String("candidate_id", cand.ID),
			zap.String("transition", transition),
		)
		return false, nil
	}

	if err := p.deps.Notifier.Send(ctx, msg); err != nil {
		return false, err
	}

	p.gate.MarkNotified(cand, transition, p.now())
	return true, nil
}

// Status reports the number of candidates at every stage.
func (p *Pipeline) Status(ctx context.Context) (map[funnel.Stage]int, error) {
	candidates, err := p.deps.Store.ReadCandidates(ctx)
	if err != nil {
		return nil, err
	}
	if err := funnel.CheckIntegrity(candidates); err != nil {
		return nil, err
	}

	counts := make(map[funnel.Stage]int, len(funnel.Stages))
	for _, stage := range funnel.Stages {
		counts[stage] = 0
	}
	for _, cand := range candidates {
		counts[cand.Stage]++
	}

	return counts, nil
}
