package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-32-chars-long-enough!!"

func signToken(t *testing.T, role string, dur time.Duration) string {
	t.Helper()
	claims := jwt.MapClaims{
		"user_id": uuid.NewString(), "username": "tester", "email": "tester@sipndash.test", "role": role,
		"exp": time.Now().Add(dur).Unix(), "iat": time.Now().Unix(),
	}
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return s
}

func protectedRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(JWTAuth(testSecret))
	r.GET("/protected", func(c *gin.Context) {
		claims := GetClaims(c)
		c.JSON(http.StatusOK, gin.H{"user_id": claims.UserID, "role": claims.Role})
	})
	r.GET("/admin", RequireRole("admin"), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func get(r http.Handler, path, token string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, path, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	r.ServeHTTP(w, req)
	return w
}

// ── JWT ───────────────────────────────────────────────────────────────────────

func TestJWTAuth(t *testing.T) {
	r := protectedRouter()

	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "").Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", signToken(t, "staff", -time.Second)).Code)
	assert.Equal(t, http.StatusUnauthorized, get(r, "/protected", "garbage").Code)

	w := get(r, "/protected", signToken(t, "staff", time.Hour))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"role":"staff"`)
}

func TestJWTAuth_WrongSecret(t *testing.T) {
	claims := jwt.MapClaims{"user_id": "x", "role": "admin", "exp": time.Now().Add(time.Hour).Unix()}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("another-secret"))
	require.NoError(t, err)
	assert.Equal(t, http.StatusUnauthorized, get(protectedRouter(), "/protected", tok).Code)
}

func TestRequireRole(t *testing.T) {
	r := protectedRouter()
	assert.Equal(t, http.StatusForbidden, get(r, "/admin", signToken(t, "staff", time.Hour)).Code)
	assert.Equal(t, http.StatusOK, get(r, "/admin", signToken(t, "admin", time.Hour)).Code)
}

// ── Request ID ────────────────────────────────────────────────────────────────

func TestRequestID(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) { c.String(http.StatusOK, c.GetString(RequestIDKey)) })

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	r.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Body.String())
	assert.Equal(t, "abc-123", w.Header().Get(RequestIDHeader))

	w = get(r, "/", "")
	_, err := uuid.Parse(w.Body.String())
	assert.NoError(t, err, "a uuid is generated when the header is absent")
}

// ── Rate limiting ─────────────────────────────────────────────────────────────

func TestWindowLimiter(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newWindowLimiter("test", 2, time.Minute)
	l.now = func() time.Time { return now }

	ok, _ := l.allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.allow("10.0.0.1")
	assert.True(t, ok)
	ok, _ = l.allow("10.0.0.1")
	assert.False(t, ok)

	ok, _ = l.allow("10.0.0.2")
	assert.True(t, ok, "limits are per IP")

	now = now.Add(61 * time.Second)
	ok, _ = l.allow("10.0.0.1")
	assert.True(t, ok, "a new window resets the count")
}

func TestWindowLimiter_PurgesExpiredEntries(t *testing.T) {
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	l := newWindowLimiter("test", 5, time.Minute)
	l.now = func() time.Time { return now }

	l.allow("10.0.0.1")
	l.allow("10.0.0.2")
	now = now.Add(purgeInterval + time.Second)
	l.allow("10.0.0.3")

	assert.Len(t, l.entries, 1)
}

func TestRecovery(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Recovery())
	r.GET("/boom", func(*gin.Context) { panic("kaboom") })

	w := get(r, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}
