package funnel

import "time"

// Evidence is the newly computed score backing a transition attempt.
type Evidence struct {
	Score float64
	// Inputs is a serialized snapshot of the raw inputs the score was
	// computed from. Two observations with equal score and inputs are the
	// same computation, not a re-computation.
	Inputs string
}

// TransitionResult describes the outcome of a transition attempt.
type TransitionResult struct {
	Previous Stage
	Current  Stage
	// Changed is true only for a genuinely new transition. The
	// notification gate consults it: a repeated attempt fires nothing.
	Changed bool
	// Record is the new audit entry, nil when the evidence repeats the
	// latest record for the stage.
	Record *ScoreRecord
}

// Controller validates and applies stage changes. It is a pure state machine:
// the only state it touches is the candidate passed in, and re-invoking an
// attempt with the same target and evidence is a no-op.
type Controller struct {
	now func() time.Time
}

// NewController builds a controller using the wall clock.
func NewController() *Controller {
	return &Controller{now: time.Now}
}

// NewControllerAt builds a controller with an injected clock.
func NewControllerAt(now func() time.Time) *Controller {
	return &Controller{now: now}
}

// Attempt moves the candidate to the target stage. latest is the most recent
// score record for (candidate, target stage), used to suppress duplicate
// audit entries. An illegal edge returns InvalidTransitionError and leaves
// the candidate untouched. Re-applying the current stage returns success with
// Changed=false and no side effects.
func (c *Controller) Attempt(cand *Candidate, target Stage, ev *Evidence, latest *ScoreRecord) (*TransitionResult, error) {
	result := &TransitionResult{Previous: cand.Stage, Current: target}

	switch {
	case cand.Stage == target:
		// Idempotent repeat. A differing evidence still produces an
		// audit entry so a re-computation for the stage is never lost.
		result.Record = c.record(cand, target, ev, latest)
		return result, nil
	case !CanTransition(cand.Stage, target):
		return nil, &InvalidTransitionError{CandidateID: cand.ID, From: cand.Stage, To: target}
	}

	result.Record = c.record(cand, target, ev, latest)
	result.Changed = true

	cand.Stage = target
	if cand.EnteredAt == nil {
		cand.EnteredAt = make(map[Stage]time.Time)
	}
	if _, seen := cand.EnteredAt[target]; !seen {
		cand.EnteredAt[target] = c.now().UTC()
	}

	return result, nil
}

// record returns a new ScoreRecord when the evidence differs from the latest
// record for the stage. Equal score and inputs are a repeat observation.
func (c *Controller) record(cand *Candidate, stage Stage, ev *Evidence, latest *ScoreRecord) *ScoreRecord {
	if ev == nil {
		return nil
	}
	if latest != nil && latest.Score == ev.Score && latest.Inputs == ev.Inputs {
		return nil
	}
	return NewScoreRecord(cand.ID, stage, ev.Inputs, ev.Score, c.now().UTC())
}
