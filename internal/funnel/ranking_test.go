package funnel

import (
	"reflect"
	"testing"
	"time"
)

func rankedCandidate(id string, score float64, entered time.Time) *Candidate {
	return &Candidate{
		ID:        id,
		Stage:     StageQuizEvaluated,
		QuizScore: score,
		EnteredAt: map[Stage]time.Time{StageQuizEvaluated: entered},
	}
}

func quizScore(c *Candidate) float64 { return c.QuizScore }

func TestSelectTopTwelveCandidates(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	scores := []float64{10, 9, 9, 8, 8, 8, 7, 6, 5, 4, 3, 2}

	candidates := make([]*Candidate, 0, len(scores))
	for i, s := range scores {
		candidates = append(candidates, rankedCandidate(
			string(rune('a'+i)), s, base.Add(time.Duration(i)*time.Minute)))
	}

	result := SelectTop(candidates, quizScore, StageQuizEvaluated, 10)

	if len(result.Selected) != 10 {
		t.Fatalf("expected 10 selected, got %d", len(result.Selected))
	}
	if len(result.Rejected) != 2 {
		t.Fatalf("expected 2 rejected, got %d", len(result.Rejected))
	}
	if !reflect.DeepEqual(result.Rejected, []string{"k", "l"}) {
		t.Fatalf("expected the two lowest scores rejected, got %v", result.Rejected)
	}
	for i, entry := range result.Entries {
		if entry.Rank != i+1 {
			t.Fatalf("expected dense ranks, got %d at position %d", entry.Rank, i)
		}
	}
}

func TestSelectTopTieBreakByEntryTime(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	candidates := []*Candidate{
		rankedCandidate("late", 8, base.Add(time.Hour)),
		rankedCandidate("early", 8, base),
	}

	result := SelectTop(candidates, quizScore, StageQuizEvaluated, 1)

	if result.Selected[0] != "early" {
		t.Fatalf("equal scores must prefer the earlier stage entry, got %v", result.Selected)
	}
}

func TestSelectTopTieBreakByID(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	candidates := []*Candidate{
		rankedCandidate("c2", 8, base),
		rankedCandidate("c1", 8, base),
		rankedCandidate("c3", 8, base),
	}

	result := SelectTop(candidates, quizScore, StageQuizEvaluated, 2)

	if !reflect.DeepEqual(result.Selected, []string{"c1", "c2"}) {
		t.Fatalf("equal scores and timestamps must fall back to id order, got %v", result.Selected)
	}
	if !reflect.DeepEqual(result.Rejected, []string{"c3"}) {
		t.Fatalf("expected c3 rejected, got %v", result.Rejected)
	}
}

func TestSelectTopDeterministicAcrossInputOrder(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	build := func() []*Candidate {
		return []*Candidate{
			rankedCandidate("c1", 7, base),
			rankedCandidate("c2", 9, base),
			rankedCandidate("c3", 7, base),
			rankedCandidate("c4", 8, base),
		}
	}

	forward := SelectTop(build(), quizScore, StageQuizEvaluated, 3)

	reversed := build()
	for i, j := 0, len(reversed)-1; i < j; i, j = i+1, j-1 {
		reversed[i], reversed[j] = reversed[j], reversed[i]
	}
	backward := SelectTop(reversed, quizScore, StageQuizEvaluated, 3)

	if !reflect.DeepEqual(forward.Selected, backward.Selected) {
		t.Fatalf("ordering depends on input order: %v vs %v", forward.Selected, backward.Selected)
	}
}

func TestSelectTopFewerThanN(t *testing.T) {
	base := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	candidates := []*Candidate{
		rankedCandidate("c1", 5, base),
		rankedCandidate("c2", 3, base),
	}

	result := SelectTop(candidates, quizScore, StageQuizEvaluated, 10)

	if len(result.Selected) != 2 {
		t.Fatalf("a small pool must select everyone, got %v", result.Selected)
	}
	if len(result.Rejected) != 0 {
		t.Fatalf("expected no rejections, got %v", result.Rejected)
	}
}

func TestSelectTopEmptyPool(t *testing.T) {
	result := SelectTop(nil, quizScore, StageQuizEvaluated, 10)
	if len(result.Entries) != 0 || len(result.Selected) != 0 || len(result.Rejected) != 0 {
		t.Fatalf("empty pool must yield an empty result, got %+v", result)
	}
}

func TestByStageOrdersByID(t *testing.T) {
	candidates := []*Candidate{
		{ID: "c3", Stage: StageRegistered},
		{ID: "c1", Stage: StageRegistered},
		{ID: "c2", Stage: StageShortlisted},
	}

	matched := ByStage(candidates, StageRegistered)
	if len(matched) != 2 || matched[0].ID != "c1" || matched[1].ID != "c3" {
		t.Fatalf("expected [c1 c3], got %v", []string{matched[0].ID, matched[1].ID})
	}
}
