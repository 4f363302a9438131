package mail

import (
	"fmt"
	"html"
	"strings"

	"github.com/folio/portfolio-api/internal/core/domain"
)

// ContactMessage builds the alert sent to the site owner for a new submission.
// Replies go straight to the submitter.
func ContactMessage(c domain.Contact, to string) Message {
	text := fmt.Sprintf(
		"New contact form submission\n\nName: %s\nEmail: %s\nDate: %s\nIP: %s\n\nMessage:\n%s\n",
		c.Name, c.Email, c.Timestamp, c.IP, c.Message,
	)

	body := html.EscapeString(c.Message)
	body = strings.ReplaceAll(body, "\n", "<br>")
	htmlBody := fmt.Sprintf(
		"<h2>New contact form submission</h2>"+
			"<p><strong>Name:</strong> %s<br><strong>Email:</strong> %s<br>"+
			"<strong>Date:</strong> %s<br><strong>IP:</strong> %s</p>"+
			"<p>%s</p>",
		html.EscapeString(c.Name), html.EscapeString(c.Email),
		html.EscapeString(c.Timestamp), html.EscapeString(c.IP), body,
	)

	return Message{
		To:      to,
		ReplyTo: c.Email,
		Subject: "New portfolio contact from " + c.Name,
		Text:    text,
		HTML:    htmlBody,
	}
}
