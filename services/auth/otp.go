package auth

import (
	"context"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"time"

	"assetdesk/models"

	"github.com/go-redis/redis/v8"
)

const (
	otpPrefix = "otp:"
	otpDigits = 6

	OTPTTL         = 600 * time.Second
	MaxOTPAttempts = 5
)

// GenerateOTP returns six independently uniform decimal digits from crypto/rand.
func GenerateOTP() (string, error) {
	digits := make([]byte, otpDigits)
	ten := big.NewInt(10)
	for i := range digits {
		n, err := rand.Int(rand.Reader, ten)
		if err != nil {
			return "", fmt.Errorf("failed to generate OTP: %w", err)
		}
		digits[i] = byte('0' + n.Int64())
	}
	return string(digits), nil
}

// OTPStore keeps at most one pending passcode per email in Redis.
type OTPStore struct {
	client redis.Cmdable
	ttl    time.Duration
}

func NewOTPStore(client redis.Cmdable) *OTPStore {
	return &OTPStore{client: client, ttl: OTPTTL}
}

func otpKey(email string) string {
	return otpPrefix + email
}

// Save overwrites the record for email and resets its TTL.
func (s *OTPStore) Save(ctx context.Context, email string, rec models.OTPRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal OTP record: %w", err)
	}
	if err := s.client.Set(ctx, otpKey(email), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save OTP: %w", err)
	}
	return nil
}

// Get returns the pending record for email, or nil if none is live.
func (s *OTPStore) Get(ctx context.Context, email string) (*models.OTPRecord, error) {
	data, err := s.client.Get(ctx, otpKey(email)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve OTP: %w", err)
	}
	var rec models.OTPRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal OTP record: %w", err)
	}
	return &rec, nil
}

func (s *OTPStore) Delete(ctx context.Context, email string) error {
	return s.client.Del(ctx, otpKey(email)).Err()
}
