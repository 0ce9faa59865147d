package funnel

import "fmt"

// Stage is a candidate's current position in the selection funnel.
type Stage string

const (
	StageRegistered      Stage = "registered"
	StageQuizEvaluated   Stage = "quiz_evaluated"
	StageShortlisted     Stage = "shortlisted"
	StageVideoAnalyzed   Stage = "video_analyzed"
	StageFinallySelected Stage = "finally_selected"
	StageRejected        Stage = "rejected"
)

// edges lists the legal forward moves of the funnel. A candidate may be
// rejected from either branch point and is then terminal.
var edges = map[Stage][]Stage{
	StageRegistered:    {StageQuizEvaluated},
	StageQuizEvaluated: {StageShortlisted, StageRejected},
	StageShortlisted:   {StageVideoAnalyzed},
	StageVideoAnalyzed: {StageFinallySelected, StageRejected},
}

// Stages enumerates every stage in funnel order. Useful for reports.
var Stages = []Stage{
	StageRegistered,
	StageQuizEvaluated,
	StageShortlisted,
	StageVideoAnalyzed,
	StageFinallySelected,
	StageRejected,
}

// ParseStage converts a stored status string into a Stage.
func ParseStage(s string) (Stage, error) {
	stage := Stage(s)
	for _, known := range Stages {
		if stage == known {
			return stage, nil
		}
	}
	return "", fmt.Errorf("unknown stage: %q", s)
}

// CanTransition reports whether moving from one stage to another is a legal
// edge of the funnel.
func CanTransition(from, to Stage) bool {
	for _, next := range edges[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether no further moves are possible from the stage.
func Terminal(s Stage) bool {
	return len(edges[s]) == 0
}
