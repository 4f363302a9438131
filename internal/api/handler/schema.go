package handler

import "encoding/json"

// --- Request / Response types ---

type saveContactRequest struct {
	Name      string `json:"name"      validate:"required,max=100,personname"`
	Email     string `json:"email"     validate:"required,max=100,email"`
	Message   string `json:"message"   validate:"required,max=1000"`
	Timestamp string `json:"timestamp" validate:"omitempty,max=64"`
}

type saveContactResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ID        int64  `json:"id"`
	EmailSent bool   `json:"emailSent"`
}

type deleteContactResponse struct {
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	Remaining int    `json:"remaining"`
}

type deleteAllResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Deleted int    `json:"deleted"`
}

type loginRequest struct {
	Username string `json:"username" validate:"required,max=50,username"`
	Password string `json:"password" validate:"required"`
}

type loginResponse struct {
	Success  bool   `json:"success"`
	Message  string `json:"message"`
	Token    string `json:"token"`
	Username string `json:"username"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=6,max=100,letterdigit,nefield=CurrentPassword"`
}

type authCheckResponse struct {
	Success       bool   `json:"success"`
	Authenticated bool   `json:"authenticated"`
	Username      string `json:"username"`
	ExpiresAt     string `json:"expiresAt"`
}

type profileResponse struct {
	Success bool            `json:"success"`
	Source  string          `json:"source"`
	Data    json.RawMessage `json:"data" swaggertype:"object"`
}

// messageResponse is the body of operations that only report success.
type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// errorResponse is the envelope of every 4xx/5xx response.
type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}
