package models

// Storage keys of the session marker. The email and the flag are stored
// separately, so a half-written marker reads as absent.
const (
	SessionEmailKey = "userEmail"
	SessionFlagKey  = "isAuthenticated"
)

// Session is the stored marker standing in for an authenticated session.
// Authenticated implies Email matched the institutional pattern when it was written.
type Session struct {
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
}

// LoginRequest represents a request to pass the email gate
type LoginRequest struct {
	Email      string `json:"email"`
	Redirect   string `json:"redirect,omitempty"`
	Department string `json:"department,omitempty"`
}

// LoginResponse is returned after the session marker is written
type LoginResponse struct {
	Email         string `json:"email"`
	Authenticated bool   `json:"authenticated"`
	Redirect      string `json:"redirect"`
}

// GateInfo describes the gate entry surface
type GateInfo struct {
	EmailDomain string `json:"emailDomain"`
	Redirect    string `json:"redirect"`
	Department  string `json:"department,omitempty"`
}
