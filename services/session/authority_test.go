package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"assetdesk/models"
	"assetdesk/utils"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestAuthority(t *testing.T, opts ...Option) (*Authority, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	a, err := NewAuthority(client, opts...)
	require.NoError(t, err)
	return a, mr
}

var alice = &models.Employee{ID: "u-alice", Name: "Alice", Email: "alice@example.com", Role: models.RoleAdmin}

func TestNewSessionID_IsURLSafeAndUnique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		id, err := NewSessionID()
		require.NoError(t, err)
		assert.Len(t, id, 43, "32 bytes base64url without padding")
		assert.NotContains(t, id, "+")
		assert.NotContains(t, id, "/")
		assert.False(t, seen[id])
		seen[id] = true
	}
}

func TestCreateAndResolve(t *testing.T) {
	a, mr := newTestAuthority(t)
	ctx := context.Background()

	id, err := a.Create(ctx, alice)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, mr.TTL("session:"+id))

	ident, err := a.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u-alice", ident.UserID)
	assert.Equal(t, "alice@example.com", ident.Email)
	assert.Equal(t, models.RoleAdmin, ident.Role)
}

func TestCreate_StampsCreatedAt(t *testing.T) {
	fixed := time.Date(2024, 3, 1, 9, 30, 0, 0, time.FixedZone("EAT", 3*60*60))
	a, mr := newTestAuthority(t, WithClock(func() time.Time { return fixed }))

	id, err := a.Create(context.Background(), alice)
	require.NoError(t, err)

	raw, err := mr.Get("session:" + id)
	require.NoError(t, err)
	var rec models.Session
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.True(t, rec.CreatedAt.Equal(fixed))
	assert.Equal(t, time.UTC, rec.CreatedAt.Location())
	assert.Equal(t, "alice@example.com", rec.Email)
}

func TestResolve_MissingCookie(t *testing.T) {
	a, _ := newTestAuthority(t)

	_, err := a.Resolve(context.Background(), "")
	assert.True(t, utils.IsKind(err, utils.KindSessionExpired))
}

func TestResolve_UnknownSession(t *testing.T) {
	a, _ := newTestAuthority(t)

	_, err := a.Resolve(context.Background(), "nope")
	assert.True(t, utils.IsKind(err, utils.KindSessionExpired))
}

func TestResolve_SlidesTTL(t *testing.T) {
	a, mr := newTestAuthority(t, WithLocalTTL(0))
	ctx := context.Background()

	id, err := a.Create(ctx, alice)
	require.NoError(t, err)

	mr.FastForward(23*time.Hour + 59*time.Minute)
	_, err = a.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, DefaultTTL, mr.TTL("session:"+id))

	// T+24h+1m from creation: still valid because the second resolve slid the TTL.
	mr.FastForward(2 * time.Minute)
	_, err = a.Resolve(ctx, id)
	require.NoError(t, err)

	mr.FastForward(DefaultTTL + time.Second)
	_, err = a.Resolve(ctx, id)
	assert.True(t, utils.IsKind(err, utils.KindSessionExpired))
}

func TestResolve_AbsoluteExpiryWithoutUse(t *testing.T) {
	a, mr := newTestAuthority(t, WithLocalTTL(0))
	ctx := context.Background()

	id, err := a.Create(ctx, alice)
	require.NoError(t, err)

	mr.FastForward(DefaultTTL + time.Second)
	_, err = a.Resolve(ctx, id)
	assert.True(t, utils.IsKind(err, utils.KindSessionExpired))
}

func TestResolve_LegacyRecordDefaultsToUser(t *testing.T) {
	a, mr := newTestAuthority(t)
	ctx := context.Background()

	legacy, err := json.Marshal(map[string]string{
		"user_id":    "u-legacy",
		"email":      "legacy@example.com",
		"created_at": time.Now().Format(time.RFC3339),
	})
	require.NoError(t, err)
	require.NoError(t, mr.Set("session:legacy", string(legacy)))

	ident, err := a.Resolve(ctx, "legacy")
	require.NoError(t, err)
	assert.Equal(t, models.RoleUser, ident.Role)

	err = RequireRole(ident, models.RoleAdmin)
	assert.True(t, utils.IsKind(err, utils.KindPermissionDenied))
}

func TestResolve_CorruptRecordIsInvalid(t *testing.T) {
	a, mr := newTestAuthority(t)
	require.NoError(t, mr.Set("session:bad", "not json"))

	_, err := a.Resolve(context.Background(), "bad")
	assert.True(t, utils.IsKind(err, utils.KindSessionExpired))
}

func TestResolve_LocalMirrorServesWithinTTL(t *testing.T) {
	a, mr := newTestAuthority(t)
	ctx := context.Background()

	id, err := a.Create(ctx, alice)
	require.NoError(t, err)
	_, err = a.Resolve(ctx, id)
	require.NoError(t, err)

	// Another process deleted the shared record; this process may still
	// trust its mirror for up to the local TTL.
	mr.Del("session:" + id)
	ident, err := a.Resolve(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "u-alice", ident.UserID)
}

func TestResolve_WithoutMirrorFallsThrough(t *testing.T) {
	a, mr := newTestAuthority(t, WithLocalTTL(0))
	ctx := context.Background()

	id, err := a.Create(ctx, alice)
	require.NoError(t, err)
	_, err = a.Resolve(ctx, id)
	require.NoError(t, err)

	mr.Del("session:" + id)
	_, err = a.Resolve(ctx, id)
	assert.True(t, utils.IsKind(err, utils.KindSessionExpired))
}

func TestRevoke_ClearsBothTiers(t *testing.T) {
	a, mr := newTestAuthority(t)
	ctx := context.Background()

	id, err := a.Create(ctx, alice)
	require.NoError(t, err)
	_, err = a.Resolve(ctx, id)
	require.NoError(t, err)

	require.NoError(t, a.Revoke(ctx, id))
	assert.False(t, mr.Exists("session:"+id))

	_, err = a.Resolve(ctx, id)
	assert.True(t, utils.IsKind(err, utils.KindSessionExpired))

	// Idempotent.
	assert.NoError(t, a.Revoke(ctx, id))
	assert.NoError(t, a.Revoke(ctx, ""))
}

func TestRequireRole(t *testing.T) {
	admin := &Identity{UserID: "a", Role: models.RoleAdmin}
	user := &Identity{UserID: "u", Role: models.RoleUser}

	assert.NoError(t, RequireRole(admin, models.RoleAdmin))
	assert.True(t, utils.IsKind(RequireRole(user, models.RoleAdmin), utils.KindPermissionDenied))
	assert.True(t, utils.IsKind(RequireRole(nil, models.RoleAdmin), utils.KindSessionExpired))
}
