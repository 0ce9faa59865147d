package notify

import (
	"fmt"
	"strings"
	"text/template"
	"time"
)

const shortlistSubject = "You have been shortlisted"

const finalSubject = "Final selection result"

var shortlistTemplate = template.Must(template.New("shortlist").Parse(strings.TrimSpace(`
Hello {{.Name}},

Congratulations! You have been shortlisted for the next round.

Please upload a 1-minute video interview at the following link:
{{.DriveLink}}

The video should cover:
- Your background and experience
- Why you're interested in AI/ML
- Your current education status

Deadline: {{.Deadline}}
`)))

var finalTemplate = template.Must(template.New("final").Parse(strings.TrimSpace(`
Hello {{.Name}},

Congratulations! You have been selected for the final round.

We were impressed by your video interview and would like to proceed with the
next steps. Please check your email for further instructions.
`)))

// ShortlistMessage builds the shortlist notification with the video upload
// link and submission deadline.
func ShortlistMessage(name, email, driveLink string, deadline time.Time) (*Message, error) {
	var body strings.Builder
	err := shortlistTemplate.Execute(&body, struct {
		Name      string
		DriveLink string
		Deadline  string
	}{
		Name:      name,
		DriveLink: driveLink,
		Deadline:  deadline.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("render shortlist message: %w", err)
	}

	return &Message{Recipient: email, Subject: shortlistSubject, Body: body.String()}, nil
}

// FinalMessage builds the final selection notification.
func FinalMessage(name, email string) (*Message, error) {
	var body strings.Builder
	err := finalTemplate.Execute(&body, struct{ Name string }{Name: name})
	if err != nil {
		return nil, fmt.Errorf("render final message: %w", err)
	}

	return &Message{Recipient: email, Subject: finalSubject, Body: body.String()}, nil
}
