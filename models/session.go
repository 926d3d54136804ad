package models

import "time"

// OTPRecord is the pending one-time passcode for an email.
type OTPRecord struct {
	Code     string `json:"code"`
	Attempts int    `json:"attempts"`
}

// Session is the shared-cache record behind a session cookie.
type Session struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Role      Role      `json:"role,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// EffectiveRole returns the stored role, or RoleUser for records without one.
func (s Session) EffectiveRole() Role {
	if s.Role.Valid() {
		return s.Role
	}
	return RoleUser
}
