// Package gmail delivers notifications through the Gmail API on behalf of
// the program's sender address.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/spigell/selection-pipeline/internal/notify"

	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const currentUser = "me"

type Notifier struct {
	service *gmail.Service
	sender  string
	logger  *zap.Logger
}

// New builds a notifier sending as the given address using the provided
// OAuth token source.
func New(ctx context.Context, ts oauth2.TokenSource, sender string, logger *zap.Logger) (*Notifier, error) {
	if strings.TrimSpace(sender) == "" {
		return nil, fmt.Errorf("sender address is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	service, err := gmail.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("create gmail service: %w", err)
	}

	return &Notifier{service: service, sender: sender, logger: logger}, nil
}

// Send delivers one message. Failures come back as DeliveryError so the
// pipeline can log them without undoing the transition.
func (n *Notifier) Send(ctx context.Context, msg *notify.Message) error {
	if msg == nil || strings.TrimSpace(msg.Recipient) == "" {
		return &notify.DeliveryError{Recipient: "", Err: fmt.Errorf("message has no recipient")}
	}

	raw := base64.URLEncoding.EncodeToString(rfc822(n.sender, msg))

	_, err := n.service.Users.Messages.Send(currentUser, &gmail.Message{Raw: raw}).Context(ctx).Do()
	if err != nil {
		return &notify.DeliveryError{Recipient: msg.Recipient, Err: err}
	}

	n.logger.Debug("notification delivered",
		zap.String("recipient", msg.Recipient),
		zap.String("subject", msg.Subject),
	)

	return nil
}

// rfc822 assembles the base64url payload the Gmail API expects: a plain
// RFC 2822 message.
func rfc822(sender string, msg *notify.Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", sender)
	fmt.Fprintf(&b, "To: %s\r\n", msg.Recipient)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n")
	b.WriteString("\r\n")
	b.WriteString(msg.Body)
	return []byte(b.String())
}
