package funnel

import (
	"sort"
	"time"
)

// Candidate flags recorded by the pipeline. Flags never remove a candidate
// from ranking on their own; they mark degraded results for the operator.
const (
	FlagPartialVideoAnalysis = "partial_video_analysis"
	FlagAnalysisFailed       = "analysis_failed"
)

// Candidate is a single participant of the selection funnel. The pipeline
// owns the struct while a batch operation is in flight; between operations it
// is persisted in the record store.
type Candidate struct {
	ID    string
	Name  string
	Email string
	Stage Stage

	// QuizAnswers maps a question id to the selected option index.
	QuizAnswers map[string]int
	QuizScore   float64
	QuizMax     float64

	VideoLink  string
	Transcript string

	// Dimensions holds the per-dimension AI scores of the video interview.
	// A nil field means the dimension was not produced by the analysis.
	Dimensions DimensionScores

	// VideoScore is the composite video score on the 0-10 scale.
	VideoScore float64
	// FinalScore is the final composite on the unified [0,1] scale.
	FinalScore float64

	Flags []string

	// EnteredAt records when the candidate entered each stage. The
	// shortlisting and finalization tie-breaks read from it.
	EnteredAt map[Stage]time.Time

	// Notified holds the at-most-once markers of the notification gate,
	// keyed by transition ("quiz_evaluated>shortlisted").
	Notified map[string]time.Time

	// Meta carries descriptive columns the pipeline does not interpret.
	Meta map[string]string
}

// DimensionScores are the three AI-scored dimensions of a video interview,
// each on a 0-10 scale. Nil means the dimension is missing.
type DimensionScores struct {
	Confidence    *float64
	Communication *float64
	Technical     *float64
}

// Available returns the dimension values that are present.
func (d DimensionScores) Available() []float64 {
	present := make([]float64, 0, 3)
	for _, v := range []*float64{d.Confidence, d.Communication, d.Technical} {
		if v != nil {
			present = append(present, *v)
		}
	}
	return present
}

// HasFlag reports whether the candidate carries the given flag.
func (c *Candidate) HasFlag(flag string) bool {
	for _, f := range c.Flags {
		if f == flag {
			return true
		}
	}
	return false
}

// AddFlag appends the flag once.
func (c *Candidate) AddFlag(flag string) {
	if !c.HasFlag(flag) {
		c.Flags = append(c.Flags, flag)
	}
}

// ClearFlag removes the flag if present.
func (c *Candidate) ClearFlag(flag string) {
	kept := c.Flags[:0]
	for _, f := range c.Flags {
		if f != flag {
			kept = append(kept, f)
		}
	}
	c.Flags = kept
}

// EnteredStageAt returns the recorded entry time for the stage, or the zero
// time when no entry was recorded.
func (c *Candidate) EnteredStageAt(stage Stage) time.Time {
	if c.EnteredAt == nil {
		return time.Time{}
	}
	return c.EnteredAt[stage]
}

// CheckIntegrity verifies that no two candidates in the batch share an id.
// A duplicate is fatal for the whole batch: two identities must never be
// silently merged.
func CheckIntegrity(candidates []*Candidate) error {
	seen := make(map[string]struct{}, len(candidates))
	for _, c := range candidates {
		if _, ok := seen[c.ID]; ok {
			return &DataIntegrityError{CandidateID: c.ID, Reason: "duplicate candidate id in batch"}
		}
		seen[c.ID] = struct{}{}
	}
	return nil
}

// ByStage filters candidates at the given stage, ordered by id so batch
// operations never depend on store iteration order.
func ByStage(candidates []*Candidate, stage Stage) []*Candidate {
	matched := make([]*Candidate, 0, len(candidates))
	for _, c := range candidates {
		if c.Stage == stage {
			matched = append(matched, c)
		}
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	return matched
}
