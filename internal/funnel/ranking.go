package funnel

import (
	"sort"
	"time"
)

// RankingEntry is one row of a selection round.
type RankingEntry struct {
	CandidateID string
	Score       float64
	Rank        int
	// TieBreak is the stage-entry timestamp used to resolve equal scores.
	TieBreak time.Time
}

// RankingResult is the deterministic ordering of one selection round,
// derived on demand from the current scores. It is never persisted.
type RankingResult struct {
	Entries []RankingEntry
	// Selected holds the ids of the top entries, in rank order.
	Selected []string
	// Rejected holds the ids of the eligible candidates that did not make
	// the cut. They are transitioned out, never left in limbo.
	Rejected []string
}

// SelectTop ranks the candidates by the given score and selects the top n.
// The order is total and deterministic: score descending, then earlier entry
// into tieBreakStage, then candidate id ascending. When fewer than n
// candidates are eligible all of them are selected; a small pool is a valid
// outcome, not an error.
func SelectTop(candidates []*Candidate, score func(*Candidate) float64, tieBreakStage Stage, n int) *RankingResult {
	entries := make([]RankingEntry, 0, len(candidates))
	for _, c := range candidates {
		entries = append(entries, RankingEntry{
			CandidateID: c.ID,
			Score:       score(c),
			TieBreak:    c.EnteredStageAt(tieBreakStage),
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.TieBreak.Equal(b.TieBreak) {
			return a.TieBreak.Before(b.TieBreak)
		}
		return a.CandidateID < b.CandidateID
	})

	result := &RankingResult{Entries: entries}
	if n < 0 {
		n = 0
	}
	for i := range entries {
		entries[i].Rank = i + 1
		if i < n {
			result.Selected = append(result.Selected, entries[i].CandidateID)
		} else {
			result.Rejected = append(result.Rejected, entries[i].CandidateID)
		}
	}

	return result
}
