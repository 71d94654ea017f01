package share

import (
	"context"
	"io"
	"time"

	"github.com/rohits-web03/sharegate/internal/models"
)

// Store persists share records. Implementations return ErrNotFound for
// missing shares; any other error is treated as an infrastructure failure.
type Store interface {
	Create(ctx context.Context, rec *models.ShareRecord) error
	FindByShareID(ctx context.Context, shareID string) (*models.ShareRecord, error)
	FindByID(ctx context.Context, id string) (*models.ShareRecord, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.ShareRecord, error)
	ListPublic(ctx context.Context, now time.Time, limit int) ([]models.ShareRecord, error)
	ListExpired(ctx context.Context, now time.Time, limit int) ([]models.ShareRecord, error)
	// IncrementViews adds one view. ErrNotFound if the share is gone.
	IncrementViews(ctx context.Context, shareID string) error
	// IncrementDownloads adds one download iff the share is unexpired at now
	// and the result stays within MaxDownloads. It reports whether the row changed.
	IncrementDownloads(ctx context.Context, shareID string, now time.Time) (bool, error)
	Delete(ctx context.Context, id string) error
}

// ObjectStorage is the object store holding shared files.
type ObjectStorage interface {
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) error
	Delete(ctx context.Context, key string) error
	PresignGet(ctx context.Context, key string, ttl time.Duration, downloadName string) (string, error)
}

type PasswordHasher interface {
	Hash(plaintext string) (string, error)
	Verify(plaintext, hash string) bool
}

// Publisher emits lifecycle events. Failures never fail the calling operation.
type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
}

const (
	SubjectCreated    = "shares.created"
	SubjectViewed     = "shares.viewed"
	SubjectDownloaded = "shares.downloaded"
	SubjectDeleted    = "shares.deleted"
)

// Event is the payload published on every lifecycle subject.
type Event struct {
	ShareID   string    `json:"share_id"`
	RecordID  string    `json:"record_id"`
	OwnerID   string    `json:"owner_id,omitempty"`
	Files     int       `json:"files,omitempty"`
	Failures  int       `json:"storage_failures,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func newEvent(rec *models.ShareRecord, at time.Time) Event {
	return Event{
		ShareID:   rec.ShareID,
		RecordID:  rec.ID,
		OwnerID:   rec.OwnerID,
		Files:     len(rec.Files),
		Timestamp: at.UTC(),
	}
}

type nopPublisher struct{}

func (nopPublisher) Publish(context.Context, string, any) error { return nil }
