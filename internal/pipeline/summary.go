package pipeline

import "github.com/spigell/selection-pipeline/internal/funnel"

// Outcome is the per-candidate result of one batch operation.
type Outcome struct {
	CandidateID string
	Reason      string
}

// Summary reports every candidate touched by a batch operation, grouped by
// what happened to it. A batch never collapses into a single pass/fail.
type Summary struct {
	Operation string
	Succeeded []Outcome
	Partial   []Outcome
	Failed    []Outcome
	// Ranking holds the selection round ordering, set by the shortlist
	// and finalize operations.
	Ranking *funnel.RankingResult
}

func newSummary(operation string) *Summary {
	return &Summary{Operation: operation}
}

func (s *Summary) succeeded(id string) {
	s.Succeeded = append(s.Succeeded, Outcome{CandidateID: id})
}

func (s *Summary) partial(id, reason string) {
	s.Partial = append(s.Partial, Outcome{CandidateID: id, Reason: reason})
}

func (s *Summary) failed(id, reason string) {
	s.Failed = append(s.Failed, Outcome{CandidateID: id, Reason: reason})
}

// Total is the number of candidates the operation touched.
func (s *Summary) Total() int {
	return len(s.Succeeded) + len(s.Partial) + len(s.Failed)
}
