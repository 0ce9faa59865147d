package gmail

import (
	"strings"
	"testing"

	"github.com/spigell/selection-pipeline/internal/notify"
)

func TestRFC822(t *testing.T) {
	raw := string(rfc822("selection@example.com", &notify.Message{
		Recipient: "alex@example.com",
		Subject:   "You have been shortlisted",
		Body:      "Hello Alex,\n\nCongratulations!",
	}))

	headers := []string{
		"From: selection@example.com\r\n",
		"To: alex@example.com\r\n",
		"Subject: You have been shortlisted\r\n",
		"MIME-Version: 1.0\r\n",
	}
	for _, h := range headers {
		if !strings.Contains(raw, h) {
			t.Fatalf("missing header %q in:\n%s", h, raw)
		}
	}

	parts := strings.SplitN(raw, "\r\n\r\n", 2)
	if len(parts) != 2 {
		t.Fatalf("expected a blank line between headers and body:\n%s", raw)
	}
	if parts[1] != "Hello Alex,\n\nCongratulations!" {
		t.Fatalf("unexpected body: %q", parts[1])
	}
}
