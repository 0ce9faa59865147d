// Package notify is the outbound notification channel of the pipeline. The
// channel is fire-and-forget: a failed delivery is surfaced as a warning and
// retried on the next run, it never rolls back a stage transition.
package notify

import (
	"context"
	"fmt"
)

// Message is one notification to a candidate.
type Message struct {
	Recipient string
	Subject   string
	Body      string
}

// Notifier delivers messages to candidates.
type Notifier interface {
	Send(ctx context.Context, msg *Message) error
}

// DeliveryError reports a failed send. The transition it belongs to stays
// applied; the gate marker is not written so the next run retries.
type DeliveryError struct {
	Recipient string
	Err       error
}

func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery to %s failed: %v", e.Recipient, e.Err)
}

func (e *DeliveryError) Unwrap() error { return e.Err }
