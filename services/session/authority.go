// Package session owns login sessions: minting, two-tier resolution and revocation.
package session

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"assetdesk/models"
	"assetdesk/utils"

	cache "github.com/go-pkgz/expirable-cache"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	keyPrefix = "session:"

	DefaultTTL      = 24 * time.Hour
	DefaultLocalTTL = 60 * time.Second

	localMaxKeys = 10000
	idBytes      = 32
)

// Identity is what downstream handlers learn about the caller.
type Identity struct {
	SessionID string      `json:"-"`
	UserID    string      `json:"user_id"`
	Email     string      `json:"email"`
	Role      models.Role `json:"role"`
}

// Authority resolves session ids against a process-local mirror first, then
// the shared Redis record. The mirror may serve a revoked session for up to
// its TTL on other processes.
type Authority struct {
	client   redis.Cmdable
	local    cache.Cache
	ttl      time.Duration
	localTTL time.Duration
	logger   *zap.Logger
	now      func() time.Time
	newID    func() (string, error)
}

// Option customizes an Authority.
type Option func(*Authority)

// WithLocalTTL sets the mirror TTL. Zero disables the mirror.
func WithLocalTTL(ttl time.Duration) Option {
	return func(a *Authority) { a.localTTL = ttl }
}

// WithClock overrides the time source stamped on new sessions.
func WithClock(now func() time.Time) Option {
	return func(a *Authority) { a.now = now }
}

func WithLogger(logger *zap.Logger) Option {
	return func(a *Authority) { a.logger = logger }
}

func NewAuthority(client redis.Cmdable, opts ...Option) (*Authority, error) {
	a := &Authority{
		client:   client,
		ttl:      DefaultTTL,
		localTTL: DefaultLocalTTL,
		logger:   zap.NewNop(),
		now:      time.Now,
		newID:    NewSessionID,
	}
	for _, opt := range opts {
		opt(a)
	}
	if a.localTTL > 0 {
		local, err := cache.NewCache(cache.TTL(a.localTTL), cache.MaxKeys(localMaxKeys), cache.LRU())
		if err != nil {
			return nil, fmt.Errorf("failed to create local session mirror: %w", err)
		}
		a.local = local
	}
	return a, nil
}

// NewSessionID returns 32 random bytes, base64url encoded without padding.
func NewSessionID() (string, error) {
	b := make([]byte, idBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate session id: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

func key(sessionID string) string {
	return keyPrefix + sessionID
}

// Create mints a session for emp and stores it for the session TTL.
func (a *Authority) Create(ctx context.Context, emp *models.Employee) (string, error) {
	id, err := a.newID()
	if err != nil {
		return "", err
	}
	rec := models.Session{
		UserID:    emp.ID,
		Email:     emp.Email,
		Role:      emp.Role,
		CreatedAt: a.now().UTC(),
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := a.client.Set(ctx, key(id), data, a.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to save session: %w", err)
	}
	return id, nil
}

// Resolve turns a session id into an Identity, sliding the shared TTL on a
// shared-tier hit.
func (a *Authority) Resolve(ctx context.Context, sessionID string) (*Identity, error) {
	if sessionID == "" {
		return nil, utils.SessionExpired("login required")
	}

	if a.local != nil {
		if v, ok := a.local.Get(sessionID); ok {
			if id, ok := v.(Identity); ok {
				return &id, nil
			}
		}
	}

	data, err := a.client.Get(ctx, key(sessionID)).Bytes()
	if err == redis.Nil {
		return nil, utils.SessionExpired("session invalid")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read session: %w", err)
	}

	var rec models.Session
	if err := json.Unmarshal(data, &rec); err != nil || rec.UserID == "" {
		a.logger.Warn("discarding unreadable session record", zap.Error(err))
		return nil, utils.SessionExpired("session invalid")
	}

	if err := a.client.Expire(ctx, key(sessionID), a.ttl).Err(); err != nil {
		a.logger.Warn("failed to slide session TTL", zap.Error(err))
	}

	id := Identity{
		SessionID: sessionID,
		UserID:    rec.UserID,
		Email:     rec.Email,
		Role:      rec.EffectiveRole(),
	}
	if a.local != nil {
		a.local.Set(sessionID, id, a.localTTL)
	}
	return &id, nil
}

// Revoke deletes the session from both tiers. Unknown ids are not an error.
func (a *Authority) Revoke(ctx context.Context, sessionID string) error {
	if sessionID == "" {
		return nil
	}
	if a.local != nil {
		a.local.Invalidate(sessionID)
	}
	if err := a.client.Del(ctx, key(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

// RequireRole fails with PermissionDenied unless id carries role.
func RequireRole(id *Identity, role models.Role) error {
	if id == nil {
		return utils.SessionExpired("login required")
	}
	if id.Role != role {
		return utils.PermissionDenied("insufficient permissions")
	}
	return nil
}
