package handlers

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const (
	oauthStateCookie = "oauth_state"
	oauthStateTTL    = 10 * time.Minute
)

// GenerateState creates an OAuth state of the form random.payload, where
// payload carries the flow metadata (e.g. "login" or "register").
func GenerateState(data map[string]string) (string, error) {
	randomBytes := make([]byte, 16)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	payloadBytes, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("failed to marshal state data: %w", err)
	}
	return base64.RawURLEncoding.EncodeToString(randomBytes) + "." +
		base64.RawURLEncoding.EncodeToString(payloadBytes), nil
}

func DecodeState(state string) (map[string]string, error) {
	parts := strings.Split(state, ".")
	if len(parts) != 2 {
		return nil, errors.New("invalid state format")
	}
	payloadBytes, err := base64.RawURLEncoding.DecodeString(parts[1])
	if err != nil {
		return nil, fmt.Errorf("failed to decode state payload: %w", err)
	}
	var data map[string]string
	if err := json.Unmarshal(payloadBytes, &data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal state JSON: %w", err)
	}
	return data, nil
}

// VerifyState checks the callback state against the cookie set at login.
func VerifyState(r *http.Request, state string) error {
	c, err := r.Cookie(oauthStateCookie)
	if err != nil || c.Value == "" || state == "" {
		return errors.New("missing oauth state")
	}
	if subtle.ConstantTimeCompare([]byte(c.Value), []byte(state)) != 1 {
		return errors.New("oauth state mismatch")
	}
	return nil
}
