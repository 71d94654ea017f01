package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohits-web03/sharegate/internal/models"
	"github.com/rohits-web03/sharegate/internal/share"
)

func TestDenialStatus(t *testing.T) {
	tests := map[share.DenyReason]int{
		share.DenyNotFound:             http.StatusNotFound,
		share.DenyExpired:              http.StatusGone,
		share.DenyDownloadLimitReached: http.StatusGone,
		share.DenyAccessCodeRequired:   http.StatusUnauthorized,
		share.DenyAccessCodeInvalid:    http.StatusForbidden,
		share.DenyPasswordRequired:     http.StatusUnauthorized,
		share.DenyPasswordInvalid:      http.StatusUnauthorized,
	}
	for reason, status := range tests {
		assert.Equal(t, status, denialStatus(reason), string(reason))
	}
}

func formRequest(values url.Values) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/api/v1/shares", strings.NewReader(values.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req
}

func TestCreateParams(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	p, err := createParams(formRequest(url.Values{
		"title":             {"Docs"},
		"visibility":        {" Public "},
		"maxDownloads":      {"3"},
		"requireAccessCode": {"true"},
		"expiresIn":         {"2h"},
		"password":          {"pw"},
	}), "owner", now)
	require.NoError(t, err)
	assert.Equal(t, "owner", p.OwnerID)
	assert.Equal(t, models.VisibilityPublic, p.Visibility)
	assert.Equal(t, 3, p.MaxDownloads)
	assert.True(t, p.RequireAccessCode)
	assert.Equal(t, now.Add(2*time.Hour), *p.ExpiresAt)
	assert.Equal(t, "pw", p.Password)

	p, err = createParams(formRequest(url.Values{
		"title":     {"Docs"},
		"expiresAt": {"2026-02-01T10:00:00Z"},
	}), "owner", now)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2026, 2, 1, 10, 0, 0, 0, time.UTC), p.ExpiresAt.UTC())

	bad := []url.Values{
		{"title": {" "}},
		{"title": {"x"}, "maxDownloads": {"many"}},
		{"title": {"x"}, "requireAccessCode": {"maybe"}},
		{"title": {"x"}, "expiresIn": {"-1h"}},
		{"title": {"x"}, "expiresAt": {"tomorrow"}},
		{"title": {"x"}, "expiresIn": {"1h"}, "expiresAt": {"2026-02-01T10:00:00Z"}},
	}
	for _, values := range bad {
		_, err := createParams(formRequest(values), "owner", now)
		var verr *share.ValidationError
		assert.ErrorAs(t, err, &verr, values.Encode())
	}
}

func TestOAuthState(t *testing.T) {
	state, err := GenerateState(map[string]string{"flow": "register"})
	require.NoError(t, err)

	data, err := DecodeState(state)
	require.NoError(t, err)
	assert.Equal(t, "register", data["flow"])

	_, err = DecodeState("garbage")
	assert.Error(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/auth/google/callback", nil)
	assert.Error(t, VerifyState(req, state))

	req.AddCookie(&http.Cookie{Name: oauthStateCookie, Value: state})
	assert.NoError(t, VerifyState(req, state))
	assert.Error(t, VerifyState(req, state+"x"))
}

func TestHealth(t *testing.T) {
	healthy := Health(map[string]Check{"db": func(context.Context) error { return nil }}, zerolog.Nop())
	rr := httptest.NewRecorder()
	healthy(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "OK", rr.Body.String())

	broken := Health(map[string]Check{
		"db":      func(context.Context) error { return nil },
		"storage": func(context.Context) error { return errors.New("bucket unreachable") },
	}, zerolog.Nop())
	rr = httptest.NewRecorder()
	broken(rr, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	assert.Contains(t, rr.Body.String(), "bucket unreachable")
	assert.NotContains(t, rr.Body.String(), `"db"`)
}
