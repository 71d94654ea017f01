package share

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rohits-web03/sharegate/internal/models"
	"github.com/rohits-web03/sharegate/internal/utils"
)

const (
	ShareIDBytes       = 16 // 22 URL-safe characters
	maxDeleteJobs      = 8
	defaultCodeLength  = 6
	maxTitleLength     = 200
	maxDescriptionSize = 2000
)

type CreateParams struct {
	OwnerID      string
	Title        string
	Description  string
	Files        []models.ShareFile
	Visibility   models.Visibility
	ExpiresAt    *time.Time
	MaxDownloads int
	// ShareID and AccessCode are generated when empty.
	ShareID           string
	AccessCode        string
	RequireAccessCode bool
	Password          string
	PasswordProtected bool
}

// DeleteReport lists the backing objects that could not be removed.
type DeleteReport struct {
	Record          *models.ShareRecord
	StorageFailures []string
}

// Lifecycle creates and deletes share records.
type Lifecycle struct {
	store      Store
	storage    ObjectStorage
	hasher     PasswordHasher
	events     Publisher
	log        zerolog.Logger
	codeLength int
	now        func() time.Time
}

type LifecycleOption func(*Lifecycle)

func WithAccessCodeLength(n int) LifecycleOption {
	return func(m *Lifecycle) { m.codeLength = n }
}

func WithPublisher(p Publisher) LifecycleOption {
	return func(m *Lifecycle) {
		if p != nil {
			m.events = p
		}
	}
}

func WithLogger(log zerolog.Logger) LifecycleOption {
	return func(m *Lifecycle) { m.log = log }
}

func NewLifecycle(store Store, storage ObjectStorage, hasher PasswordHasher, opts ...LifecycleOption) *Lifecycle {
	m := &Lifecycle{
		store:      store,
		storage:    storage,
		hasher:     hasher,
		events:     nopPublisher{},
		log:        zerolog.Nop(),
		codeLength: defaultCodeLength,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Create validates p, derives the share token, access code and password hash,
// and persists the record with all its files in one write.
func (m *Lifecycle) Create(ctx context.Context, p CreateParams) (*models.ShareRecord, error) {
	rec, err := m.build(p)
	if err != nil {
		return nil, err
	}
	if err := m.store.Create(ctx, rec); err != nil {
		return nil, unavailable("create share", err)
	}

	m.log.Info().Str("share_id", rec.ShareID).Str("owner_id", rec.OwnerID).Int("files", len(rec.Files)).Msg("share created")
	m.publish(ctx, SubjectCreated, newEvent(rec, rec.CreatedAt))
	return rec, nil
}

func (m *Lifecycle) build(p CreateParams) (*models.ShareRecord, error) {
	if p.OwnerID == "" {
		return nil, invalid("ownerId", "is required")
	}
	title := strings.TrimSpace(p.Title)
	if title == "" {
		return nil, invalid("title", "is required")
	}
	if len(title) > maxTitleLength {
		return nil, invalid("title", "is too long")
	}
	if len(p.Description) > maxDescriptionSize {
		return nil, invalid("description", "is too long")
	}
	if len(p.Files) == 0 {
		return nil, invalid("files", "at least one file is required")
	}
	for _, f := range p.Files {
		if f.StorageKey == "" || f.OriginalName == "" {
			return nil, invalid("files", "every file needs a name and storage key")
		}
	}
	if p.MaxDownloads < 0 {
		return nil, invalid("maxDownloads", "must not be negative")
	}
	if p.PasswordProtected && p.Password == "" {
		return nil, invalid("password", "is required when password protection is enabled")
	}
	now := m.now()
	if p.ExpiresAt != nil && !p.ExpiresAt.After(now) {
		return nil, invalid("expiresAt", "must be in the future")
	}
	visibility := p.Visibility
	switch visibility {
	case "":
		visibility = models.VisibilityPrivate
	case models.VisibilityPublic, models.VisibilityPrivate:
	default:
		return nil, invalid("visibility", "must be public or private")
	}

	shareID := p.ShareID
	if shareID == "" {
		token, err := utils.GenerateSecureToken(ShareIDBytes)
		if err != nil {
			return nil, err
		}
		shareID = token
	}

	var accessCode string
	switch {
	case p.AccessCode != "":
		code, err := NormalizeAccessCode(p.AccessCode)
		if err != nil {
			return nil, err
		}
		accessCode = code
	case p.RequireAccessCode:
		code, err := GenerateAccessCode(m.codeLength)
		if err != nil {
			return nil, err
		}
		accessCode = code
	}

	var passwordHash string
	if p.PasswordProtected || p.Password != "" {
		hash, err := m.hasher.Hash(p.Password)
		if err != nil {
			return nil, err
		}
		passwordHash = hash
	}

	files := make([]models.ShareFile, len(p.Files))
	copy(files, p.Files)
	for i := range files {
		files[i].Position = i
	}

	var expiresAt *time.Time
	if p.ExpiresAt != nil {
		t := p.ExpiresAt.UTC()
		expiresAt = &t
	}

	return &models.ShareRecord{
		ShareID:      shareID,
		AccessCode:   accessCode,
		PasswordHash: passwordHash,
		Title:        title,
		Description:  p.Description,
		Visibility:   visibility,
		ExpiresAt:    expiresAt,
		MaxDownloads: p.MaxDownloads,
		OwnerID:      p.OwnerID,
		Files:        files,
	}, nil
}

// Delete removes a share owned by ownerID. Every backing object is attempted;
// storage failures are logged and reported but never keep the record alive.
func (m *Lifecycle) Delete(ctx context.Context, ownerID, id string) (*DeleteReport, error) {
	rec, err := m.store.FindByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("load share", err)
	}
	if rec.OwnerID != ownerID {
		return nil, ErrForbidden
	}
	return m.remove(ctx, rec)
}

func (m *Lifecycle) remove(ctx context.Context, rec *models.ShareRecord) (*DeleteReport, error) {
	failures := m.RemoveObjects(ctx, rec.ShareID, rec.StorageKeys())

	if err := m.store.Delete(ctx, rec.ID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, unavailable("delete share", err)
	}

	m.log.Info().Str("share_id", rec.ShareID).Int("storage_failures", len(failures)).Msg("share deleted")
	ev := newEvent(rec, m.now())
	ev.Failures = len(failures)
	m.publish(ctx, SubjectDeleted, ev)
	return &DeleteReport{Record: rec, StorageFailures: failures}, nil
}

// RemoveObjects deletes keys in parallel, best effort, and returns the keys
// that could not be removed.
func (m *Lifecycle) RemoveObjects(ctx context.Context, shareID string, keys []string) []string {
	var (
		mu       sync.Mutex
		failures []string
	)
	var g errgroup.Group
	g.SetLimit(maxDeleteJobs)
	for _, key := range keys {
		g.Go(func() error {
			if err := m.storage.Delete(ctx, key); err != nil {
				m.log.Error().Err(err).Str("share_id", shareID).Str("key", key).Msg("failed to delete stored object")
				mu.Lock()
				failures = append(failures, key)
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failures
}

// PurgeExpired cascades deletion to up to limit shares expired at the current time.
func (m *Lifecycle) PurgeExpired(ctx context.Context, limit int) (int, error) {
	expired, err := m.store.ListExpired(ctx, m.now(), limit)
	if err != nil {
		return 0, unavailable("list expired shares", err)
	}
	purged := 0
	for i := range expired {
		if _, err := m.remove(ctx, &expired[i]); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return purged, err
		}
		purged++
	}
	return purged, nil
}

func (m *Lifecycle) publish(ctx context.Context, subject string, ev Event) {
	if err := m.events.Publish(ctx, subject, ev); err != nil {
		m.log.Warn().Err(err).Str("subject", subject).Str("share_id", ev.ShareID).Msg("failed to publish share event")
	}
}
