// Package auth implements passwordless login with emailed one-time passcodes.
package auth

import (
	"context"
	"crypto/subtle"
	"fmt"
	"strings"

	employeeRepo "assetdesk/database/repository/employee"
	"assetdesk/models"
	"assetdesk/services/mail"
	"assetdesk/services/ratelimit"
	"assetdesk/utils"

	"go.uber.org/zap"
)

// DefaultAuthService is the production implementation.
type DefaultAuthService struct {
	employees employeeRepo.EmployeeRepository
	otps      *OTPStore
	sessions  SessionIssuer
	limiter   *ratelimit.Limiter
	mailer    mail.Mailer
	logger    *zap.Logger

	generateCode func() (string, error)
}

// Option customizes a DefaultAuthService.
type Option func(*DefaultAuthService)

// WithCodeGenerator replaces the passcode source.
func WithCodeGenerator(gen func() (string, error)) Option {
	return func(s *DefaultAuthService) { s.generateCode = gen }
}

func NewAuthService(
	employees employeeRepo.EmployeeRepository,
	otps *OTPStore,
	sessions SessionIssuer,
	limiter *ratelimit.Limiter,
	mailer mail.Mailer,
	logger *zap.Logger,
	opts ...Option,
) *DefaultAuthService {
	s := &DefaultAuthService{
		employees:    employees,
		otps:         otps,
		sessions:     sessions,
		limiter:      limiter,
		mailer:       mailer,
		logger:       logger,
		generateCode: GenerateOTP,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(email)
}

// RequestOTP issues a fresh passcode for a registered email, replacing any pending one.
func (s *DefaultAuthService) RequestOTP(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if err := s.limiter.Allow(ctx, ratelimit.SendOTP, email); err != nil {
		return err
	}

	emp, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to look up employee: %w", err)
	}
	if emp == nil {
		return utils.NotAuthorized("email address is not registered")
	}

	code, err := s.generateCode()
	if err != nil {
		return err
	}
	if err := s.otps.Save(ctx, email, models.OTPRecord{Code: code}); err != nil {
		return err
	}

	if err := s.mailer.SendOTP(ctx, email, code); err != nil {
		// An undeliverable code is useless; drop it so the user can retry cleanly.
		if delErr := s.otps.Delete(ctx, email); delErr != nil {
			s.logger.Warn("failed to drop undelivered OTP", zap.String("email", email), zap.Error(delErr))
		}
		return fmt.Errorf("failed to dispatch OTP: %w", err)
	}

	s.logger.Info("OTP issued", zap.String("email", email), zap.String("userID", emp.ID))
	return nil
}

// VerifyOTP checks code against the pending passcode and, on success, returns a new session id.
func (s *DefaultAuthService) VerifyOTP(ctx context.Context, email, code string) (string, error) {
	email = normalizeEmail(email)
	if err := s.limiter.Allow(ctx, ratelimit.VerifyOTP, email); err != nil {
		return "", err
	}

	rec, err := s.otps.Get(ctx, email)
	if err != nil {
		return "", err
	}
	if rec == nil {
		s.logger.Info("OTP verify without pending code", zap.String("email", email))
		return "", utils.NotAuthorized("OTP is invalid or expired")
	}

	if rec.Attempts >= MaxOTPAttempts {
		if err := s.otps.Delete(ctx, email); err != nil {
			return "", fmt.Errorf("failed to delete exhausted OTP: %w", err)
		}
		s.logger.Info("OTP attempts exhausted", zap.String("email", email))
		return "", utils.NotAuthorized("too many attempts")
	}

	if subtle.ConstantTimeCompare([]byte(code), []byte(rec.Code)) != 1 {
		rec.Attempts++
		if err := s.otps.Save(ctx, email, *rec); err != nil {
			return "", err
		}
		if rec.Attempts >= MaxOTPAttempts {
			// Exhausted: the next verify would only delete it.
			if err := s.otps.Delete(ctx, email); err != nil {
				s.logger.Warn("failed to delete exhausted OTP", zap.String("email", email), zap.Error(err))
			}
		}
		s.logger.Info("OTP mismatch", zap.String("email", email), zap.Int("attempts", rec.Attempts))
		return "", utils.NotAuthorized("OTP is incorrect")
	}

	emp, err := s.employees.GetByEmail(ctx, email)
	if err != nil {
		return "", fmt.Errorf("failed to look up employee: %w", err)
	}
	if emp == nil {
		if err := s.otps.Delete(ctx, email); err != nil {
			s.logger.Warn("failed to delete orphaned OTP", zap.String("email", email), zap.Error(err))
		}
		return "", utils.NotAuthorized("OTP is invalid or expired")
	}

	sessionID, err := s.sessions.Create(ctx, emp)
	if err != nil {
		return "", err
	}
	if err := s.otps.Delete(ctx, email); err != nil {
		s.logger.Warn("failed to delete consumed OTP", zap.String("email", email), zap.Error(err))
	}

	s.logger.Info("login succeeded", zap.String("userID", emp.ID))
	return sessionID, nil
}

// Logout revokes sessionID. Missing or unknown sessions are not an error.
func (s *DefaultAuthService) Logout(ctx context.Context, sessionID string) error {
	return s.sessions.Revoke(ctx, sessionID)
}
