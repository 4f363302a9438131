package domain

import (
	"fmt"
	"strings"
	"time"
)

const (
	MaxNameLength      = 100
	MaxEmailLength     = 100
	MaxMessageLength   = 1000
	MaxUserAgentLength = 500
)

// TimestampLayout matches the millisecond ISO-8601 form browsers produce
// with Date.toISOString.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// Contact is one contact-form submission. Records are immutable once stored.
type Contact struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp"`
	IP        string `json:"ip"`
	UserAgent string `json:"userAgent"`
}

// FormatTimestamp renders t in UTC using TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ContactSeparator divides records in the plain-text export.
const ContactSeparator = "---"

// FormatContactsText renders contacts as numbered plain-text blocks in list
// order. Splitting the result on ContactSeparator yields one block per record.
func FormatContactsText(contacts []Contact) string {
	blocks := make([]string, 0, len(contacts))
	for i, c := range contacts {
		blocks = append(blocks, fmt.Sprintf(
			"#%d\nName: %s\nEmail: %s\nMessage: %s\nDate: %s",
			i+1, c.Name, c.Email, c.Message, c.Timestamp,
		))
	}
	return strings.Join(blocks, "\n\n"+ContactSeparator+"\n\n")
}

// NormalizeEmail trims and lowercases an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
