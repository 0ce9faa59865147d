package funnel

import (
	"fmt"
	"time"
)

// TransitionKey names a (from, to) stage edge for the notification markers.
func TransitionKey(from, to Stage) string {
	return fmt.Sprintf("%s>%s", from, to)
}

// Gate decides whether a notification must fire for a transition. The marker
// lives on the candidate record itself: the notification channel cannot be
// asked whether a message was already sent, the store can.
type Gate struct{}

// ShouldNotify reports whether no notification was sent yet for the
// transition. Guarantees at-most-once per (candidate, transition) across
// repeated pipeline runs, as long as the candidate row is persisted after
// MarkNotified.
func (Gate) ShouldNotify(cand *Candidate, transition string) bool {
	if cand.Notified == nil {
		return true
	}
	_, sent := cand.Notified[transition]
	return !sent
}

// MarkNotified records that the notification for the transition was handed to
// the channel.
func (Gate) MarkNotified(cand *Candidate, transition string, at time.Time) {
	if cand.Notified == nil {
		cand.Notified = make(map[string]time.Time)
	}
	cand.Notified[transition] = at.UTC()
}
