package auth

import (
	"context"

	"assetdesk/models"
)

// SessionIssuer mints and revokes login sessions.
type SessionIssuer interface {
	Create(ctx context.Context, emp *models.Employee) (string, error)
	Revoke(ctx context.Context, sessionID string) error
}

type AuthService interface {
	RequestOTP(ctx context.Context, email string) error
	VerifyOTP(ctx context.Context, email, code string) (string, error)
	Logout(ctx context.Context, sessionID string) error
}
