package share

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNotFound is returned by a Store when no share matches.
	ErrNotFound = errors.New("share not found")
	// ErrUnavailable marks store or storage failures. It is never collapsed into ErrNotFound.
	ErrUnavailable = errors.New("share backend unavailable")
	// ErrForbidden is returned when a non-owner tries to delete a share.
	ErrForbidden = errors.New("not the owner of this share")
)

// DenyReason names the gate check that refused a request.
type DenyReason string

const (
	DenyNotFound             DenyReason = "not_found"
	DenyExpired              DenyReason = "expired"
	DenyDownloadLimitReached DenyReason = "download_limit_reached"
	DenyAccessCodeRequired   DenyReason = "access_code_required"
	DenyAccessCodeInvalid    DenyReason = "access_code_invalid"
	DenyPasswordRequired     DenyReason = "password_required"
	DenyPasswordInvalid      DenyReason = "password_invalid"
)

func (r DenyReason) Message() string {
	switch r {
	case DenyNotFound:
		return "Share not found"
	case DenyExpired:
		return "This link has expired"
	case DenyDownloadLimitReached:
		return "Download limit reached"
	case DenyAccessCodeRequired:
		return "Access code required"
	case DenyAccessCodeInvalid:
		return "Invalid access code"
	case DenyPasswordRequired:
		return "Password required"
	case DenyPasswordInvalid:
		return "Invalid password"
	}
	return string(r)
}

// DeniedError carries a gate denial up to the transport layer.
type DeniedError struct {
	Reason DenyReason
}

func (e *DeniedError) Error() string {
	return "access denied: " + string(e.Reason)
}

func deny(reason DenyReason) error {
	return &DeniedError{Reason: reason}
}

// ReasonOf extracts the denial reason from err, if any.
func ReasonOf(err error) (DenyReason, bool) {
	var denied *DeniedError
	if errors.As(err, &denied) {
		return denied.Reason, true
	}
	return "", false
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

func invalid(field, msg string) error {
	return &ValidationError{Field: field, Message: msg}
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// FileFailure is the storage error for a single file of a share.
type FileFailure struct {
	Name string
	Err  error
}

// LinkError reports every file for which no retrieval URL could be issued.
type LinkError struct {
	Failures []FileFailure
}

func (e *LinkError) Error() string {
	names := make([]string, len(e.Failures))
	for i, f := range e.Failures {
		names[i] = fmt.Sprintf("%s: %v", f.Name, f.Err)
	}
	return "could not issue download links for " + strings.Join(names, "; ")
}

func (e *LinkError) Unwrap() error {
	return ErrUnavailable
}
