package funnel

import "fmt"

// InvalidTransitionError reports an illegal stage edge. The candidate is left
// unchanged when it is returned.
type InvalidTransitionError struct {
	CandidateID string
	From        Stage
	To          Stage
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition for candidate %s: %s -> %s", e.CandidateID, e.From, e.To)
}

// DataIntegrityError reports a batch-fatal inconsistency in stored data, such
// as two rows claiming the same candidate id.
type DataIntegrityError struct {
	CandidateID string
	Reason      string
}

func (e *DataIntegrityError) Error() string {
	return fmt.Sprintf("data integrity violation for candidate %s: %s", e.CandidateID, e.Reason)
}
