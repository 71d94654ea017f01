package share

import (
	"context"
	"errors"
	"time"
)

// Outcome is the unambiguous result of a download increment.
type Outcome int

const (
	Counted Outcome = iota
	LimitReached
	Expired
	Gone
)

func (o Outcome) String() string {
	switch o {
	case Counted:
		return "counted"
	case LimitReached:
		return "limit_reached"
	case Expired:
		return "expired"
	case Gone:
		return "gone"
	}
	return "unknown"
}

// Reason maps a refused outcome onto the matching gate denial.
func (o Outcome) Reason() DenyReason {
	switch o {
	case LimitReached:
		return DenyDownloadLimitReached
	case Expired:
		return DenyExpired
	case Gone:
		return DenyNotFound
	}
	return ""
}

// Counter performs the atomic counter updates on a share.
type Counter struct {
	store Store
	now   func() time.Time
}

func NewCounter(store Store) *Counter {
	return &Counter{store: store, now: time.Now}
}

// RecordView increments the view count. Views never touch the download limit.
func (c *Counter) RecordView(ctx context.Context, shareID string) error {
	err := c.store.IncrementViews(ctx, shareID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound):
		return ErrNotFound
	default:
		return unavailable("record view", err)
	}
}

// RecordDownload increments the download count with a conditional update so
// that concurrent callers can never push it past MaxDownloads. When the update
// is refused, the share is re-read to tell the caller why.
func (c *Counter) RecordDownload(ctx context.Context, shareID string) (Outcome, error) {
	now := c.now()
	applied, err := c.store.IncrementDownloads(ctx, shareID, now)
	if err != nil {
		return 0, unavailable("record download", err)
	}
	if applied {
		return Counted, nil
	}

	rec, err := c.store.FindByShareID(ctx, shareID)
	switch {
	case errors.Is(err, ErrNotFound):
		return Gone, nil
	case err != nil:
		return 0, unavailable("record download", err)
	case rec.ExpiredAt(now):
		return Expired, nil
	default:
		return LimitReached, nil
	}
}
