package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"assetdesk/models"
	"assetdesk/services/session"
	"assetdesk/utils"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type stubResolver map[string]*session.Identity

func (s stubResolver) Resolve(ctx context.Context, sessionID string) (*session.Identity, error) {
	if sessionID == "" {
		return nil, utils.SessionExpired("login required")
	}
	if ident, ok := s[sessionID]; ok {
		return ident, nil
	}
	return nil, utils.SessionExpired("session invalid")
}

func init() {
	gin.SetMode(gin.TestMode)
}

func serve(r *gin.Engine, req *http.Request) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body utils.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body.Code
}

func sessionRouter() *gin.Engine {
	resolver := stubResolver{
		"user-sid":  {UserID: "u1", Role: models.RoleUser},
		"admin-sid": {UserID: "u2", Role: models.RoleAdmin},
	}
	r := gin.New()
	r.GET("/me", SessionAuth(resolver), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"userID": c.GetString("userID")})
	})
	r.GET("/admin", SessionAuth(resolver), RequireRole(models.RoleAdmin), func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})
	return r
}

func withSession(req *http.Request, sid string) *http.Request {
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: sid})
	return req
}

func TestSessionAuth(t *testing.T) {
	r := sessionRouter()

	w := serve(r, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "session_expired", decodeCode(t, w))

	w = serve(r, withSession(httptest.NewRequest(http.MethodGet, "/me", nil), "stale"))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "session_expired", decodeCode(t, w))

	w = serve(r, withSession(httptest.NewRequest(http.MethodGet, "/me", nil), "user-sid"))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"userID":"u1"}`, w.Body.String())
}

func TestRequireRole(t *testing.T) {
	r := sessionRouter()

	// Session resolution runs first: no cookie is a session failure, not a role failure.
	w := serve(r, httptest.NewRequest(http.MethodGet, "/admin", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = serve(r, withSession(httptest.NewRequest(http.MethodGet, "/admin", nil), "user-sid"))
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "permission_denied", decodeCode(t, w))

	w = serve(r, withSession(httptest.NewRequest(http.MethodGet, "/admin", nil), "admin-sid"))
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestAPITokenAuth(t *testing.T) {
	r := gin.New()
	r.GET("/api", APITokenAuth("s3cret"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"not bearer", "Basic s3cret", http.StatusUnauthorized},
		{"wrong", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer s3cret", http.StatusNoContent},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			assert.Equal(t, tc.want, serve(r, req).Code)
		})
	}
}

func TestAPITokenAuth_EmptyTokenRejects(t *testing.T) {
	r := gin.New()
	r.GET("/api", APITokenAuth(""), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Authorization", "Bearer ")
	assert.Equal(t, http.StatusUnauthorized, serve(r, req).Code)
}

func TestRateLimitMiddleware_PerIP(t *testing.T) {
	r := gin.New()
	r.GET("/", RateLimitMiddleware(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := func(ip string) *http.Request {
		rq := httptest.NewRequest(http.MethodGet, "/", nil)
		rq.Header.Set("X-Forwarded-For", ip)
		return rq
	}

	assert.Equal(t, http.StatusOK, serve(r, req("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(r, req("10.0.0.1")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, req("10.0.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(r, req("10.0.0.2")).Code)
}

func TestGetClientIP(t *testing.T) {
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest(http.MethodGet, "/", nil)
	c.Request.RemoteAddr = "192.0.2.7:5555"
	assert.Equal(t, "192.0.2.7", getClientIP(c))

	c.Request.Header.Set("X-Real-IP", "198.51.100.3")
	assert.Equal(t, "198.51.100.3", getClientIP(c))

	c.Request.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", getClientIP(c))
}

func TestRateLimitMiddleware_IgnoresUntrustedForwardedFor(t *testing.T) {
	r := gin.New()
	require.NoError(t, r.SetTrustedProxies(nil))
	r.GET("/", RateLimitMiddleware(2), func(c *gin.Context) { c.Status(http.StatusOK) })

	req := func(forwarded string) *http.Request {
		rq := httptest.NewRequest(http.MethodGet, "/", nil)
		rq.RemoteAddr = "192.0.2.50:4000"
		rq.Header.Set("X-Forwarded-For", forwarded)
		return rq
	}

	// Rotating the header does not buy a fresh bucket.
	assert.Equal(t, http.StatusOK, serve(r, req("10.1.0.1")).Code)
	assert.Equal(t, http.StatusOK, serve(r, req("10.1.0.2")).Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(r, req("10.1.0.3")).Code)
}

func TestRateLimiterStore_IsBounded(t *testing.T) {
	store, err := newRateLimiterStore(1, 2, time.Hour)
	require.NoError(t, err)

	for _, ip := range []string{"10.0.0.1", "10.0.0.2", "10.0.0.3", "10.0.0.4"} {
		store.getLimiter(ip)
	}
	assert.Equal(t, 2, store.limiters.Len())
}

func TestRateLimiterStore_DropsIdleEntries(t *testing.T) {
	store, err := newRateLimiterStore(1, 10, 20*time.Millisecond)
	require.NoError(t, err)

	assert.True(t, store.getLimiter("10.0.0.1").Allow())
	assert.False(t, store.getLimiter("10.0.0.1").Allow())

	time.Sleep(40 * time.Millisecond)
	assert.True(t, store.getLimiter("10.0.0.1").Allow(), "idle entry is replaced by a fresh bucket")
}

func TestRequestLogger_RecordsCaller(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	resolver := stubResolver{"user-sid": {UserID: "u1", Role: models.RoleUser}}

	r := gin.New()
	r.Use(RequestLogger(zap.New(core)))
	r.GET("/me", SessionAuth(resolver), func(c *gin.Context) { c.Status(http.StatusNoContent) })
	r.GET("/api", APITokenAuth("machine-token"), func(c *gin.Context) { c.Status(http.StatusNoContent) })

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookie, Value: "user-sid"})
	req.Header.Set("X-Request-ID", "req-1")
	w := serve(r, req)
	assert.Equal(t, "req-1", w.Header().Get("X-Request-ID"))

	req = httptest.NewRequest(http.MethodGet, "/api", nil)
	req.Header.Set("Authorization", "Bearer machine-token")
	serve(r, req)

	entries := logs.FilterMessage("request").All()
	require.Len(t, entries, 2)

	first := entries[0].ContextMap()
	assert.Equal(t, "req-1", first["requestID"])
	assert.Equal(t, "u1", first["userID"])
	assert.EqualValues(t, http.StatusNoContent, first["status"])
	assert.NotContains(t, first, "apiClient")

	second := entries[1].ContextMap()
	assert.Equal(t, true, second["apiClient"])
	assert.NotContains(t, second, "userID")
}
