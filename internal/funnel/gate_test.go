package funnel

import (
	"testing"
	"time"
)

func TestGateAtMostOnce(t *testing.T) {
	gate := Gate{}
	cand := &Candidate{ID: "c1", Stage: StageShortlisted}
	key := TransitionKey(StageQuizEvaluated, StageShortlisted)

	if !gate.ShouldNotify(cand, key) {
		t.Fatalf("fresh transition must notify")
	}

	gate.MarkNotified(cand, key, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))

	if gate.ShouldNotify(cand, key) {
		t.Fatalf("marked transition must not notify again")
	}
}

func TestGateKeysAreIndependent(t *testing.T) {
	gate := Gate{}
	cand := &Candidate{ID: "c1", Stage: StageFinallySelected}

	shortlist := TransitionKey(StageQuizEvaluated, StageShortlisted)
	final := TransitionKey(StageVideoAnalyzed, StageFinallySelected)

	gate.MarkNotified(cand, shortlist, time.Now())

	if !gate.ShouldNotify(cand, final) {
		t.Fatalf("the final-selection notification must be independent of the shortlist one")
	}
}

func TestTransitionKey(t *testing.T) {
	key := TransitionKey(StageQuizEvaluated, StageShortlisted)
	if key != "quiz_evaluated>shortlisted" {
		t.Fatalf("unexpected key: %s", key)
	}
}
