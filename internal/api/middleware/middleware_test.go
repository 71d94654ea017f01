package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secret = "test-secret"

func signed(t *testing.T, key string, claims jwt.MapClaims) string {
	t.Helper()
	s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(key))
	require.NoError(t, err)
	return s
}

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(UserID(r.Context())))
	})
}

func TestAuth(t *testing.T) {
	valid := signed(t, secret, jwt.MapClaims{"userId": "u-1", "exp": time.Now().Add(time.Hour).Unix()})
	tests := []struct {
		name   string
		setup  func(r *http.Request)
		status int
		body   string
	}{
		{"no token", func(*http.Request) {}, http.StatusUnauthorized, ""},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: TokenCookie, Value: valid}) }, http.StatusOK, "u-1"},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+valid) }, http.StatusOK, "u-1"},
		{"wrong key", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, "other", jwt.MapClaims{"userId": "u-1"}))
		}, http.StatusUnauthorized, ""},
		{"expired", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, secret, jwt.MapClaims{"userId": "u-1", "exp": time.Now().Add(-time.Hour).Unix()}))
		}, http.StatusUnauthorized, ""},
		{"missing claim", func(r *http.Request) {
			r.Header.Set("Authorization", "Bearer "+signed(t, secret, jwt.MapClaims{"sub": "u-1"}))
		}, http.StatusUnauthorized, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/shares", nil)
			tt.setup(req)
			rr := httptest.NewRecorder()

			Auth(secret)(echoUser()).ServeHTTP(rr, req)

			assert.Equal(t, tt.status, rr.Code)
			if tt.status == http.StatusOK {
				assert.Equal(t, tt.body, rr.Body.String())
			}
		})
	}
}

func TestLoggerOmitsQuery(t *testing.T) {
	var buf bytes.Buffer
	h := Logger(zerolog.New(&buf))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/shares/abc?accessCode=SECRET", nil))

	assert.Contains(t, buf.String(), `"status":410`)
	assert.Contains(t, buf.String(), `"path":"/api/v1/shares/abc"`)
	assert.NotContains(t, buf.String(), "SECRET")
}
