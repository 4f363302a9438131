package domain

import "time"

// DefaultAdminUsername and DefaultAdminPassword seed the admin account on first
// start. Operators are expected to change the password right away.
const (
	DefaultAdminUsername = "admin"
	DefaultAdminPassword = "admin123"
)

// AdminCredentials is the single admin account of a deployment.
type AdminCredentials struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
	UpdatedBy    string    `json:"updatedBy,omitempty"`
	UpdatedFrom  string    `json:"updatedFrom,omitempty"`
}

// Session is an authenticated admin login tracked by the session registry.
type Session struct {
	ID        string    `json:"-"`
	Username  string    `json:"username"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
	IP        string    `json:"ip"`
	UserAgent string    `json:"userAgent"`
}

// Expired reports whether the session's deadline lies before now.
func (s *Session) Expired(now time.Time) bool {
	return s.ExpiresAt.Before(now)
}

// MailCredentials authenticate the outbound notification mailbox.
type MailCredentials struct {
	User     string `json:"user"`
	Password string `json:"password"`
	Service  string `json:"service"`
}

// Complete reports whether all three fields are present.
func (m MailCredentials) Complete() bool {
	return m.User != "" && m.Password != "" && m.Service != ""
}
