package share

import (
	"context"
	"errors"
	"time"

	"github.com/rohits-web03/sharegate/internal/models"
)

type Intent int

const (
	IntentView Intent = iota
	IntentDownload
)

func (i Intent) String() string {
	if i == IntentDownload {
		return "download"
	}
	return "view"
}

type AccessRequest struct {
	ShareID    string
	AccessCode string
	Password   string
	Intent     Intent
}

// Decision is the gate verdict. Record is set whenever the share exists.
type Decision struct {
	Reason DenyReason
	Record *models.ShareRecord
}

func (d Decision) Allowed() bool {
	return d.Reason == ""
}

// Err converts a denial into a *DeniedError, or nil when allowed.
func (d Decision) Err() error {
	if d.Allowed() {
		return nil
	}
	return deny(d.Reason)
}

// Gate decides whether a view or download may proceed. It never mutates state.
type Gate struct {
	store       Store
	credentials CredentialVerifier
	now         func() time.Time
}

func NewGate(store Store, credentials CredentialVerifier) *Gate {
	return &Gate{store: store, credentials: credentials, now: time.Now}
}

// Evaluate reads a fresh snapshot of the share and runs the checks in order:
// existence, expiry, download limit, access code, password. The returned error
// is non-nil only for infrastructure failures.
func (g *Gate) Evaluate(ctx context.Context, req AccessRequest) (Decision, error) {
	if req.ShareID == "" {
		return Decision{Reason: DenyNotFound}, nil
	}
	rec, err := g.store.FindByShareID(ctx, req.ShareID)
	if errors.Is(err, ErrNotFound) {
		return Decision{Reason: DenyNotFound}, nil
	}
	if err != nil {
		return Decision{}, unavailable("load share", err)
	}
	return Decision{Reason: g.Check(rec, req, g.now()), Record: rec}, nil
}

// Check runs every check after existence against an already loaded record.
func (g *Gate) Check(rec *models.ShareRecord, req AccessRequest, now time.Time) DenyReason {
	if rec.ExpiredAt(now) {
		return DenyExpired
	}
	if req.Intent == IntentDownload && rec.DownloadsExhausted() {
		return DenyDownloadLimitReached
	}
	if reason := g.credentials.CheckAccessCode(rec, req.AccessCode); reason != "" {
		return reason
	}
	if req.Intent == IntentDownload {
		if reason := g.credentials.CheckPassword(rec, req.Password); reason != "" {
			return reason
		}
	}
	return ""
}
