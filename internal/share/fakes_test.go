package share

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/rohits-web03/sharegate/internal/models"
)

var errBackend = errors.New("connection refused")

// memStore is an in-memory Store. Records are copied in and out so callers
// never share state with it.
type memStore struct {
	mu      sync.Mutex
	records map[string]*models.ShareRecord // by shareId
	failAll error
}

func newMemStore() *memStore {
	return &memStore{records: map[string]*models.ShareRecord{}}
}

func clone(rec *models.ShareRecord) *models.ShareRecord {
	c := *rec
	c.Files = append([]models.ShareFile(nil), rec.Files...)
	return &c
}

func (s *memStore) put(rec *models.ShareRecord) *models.ShareRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	s.records[rec.ShareID] = clone(rec)
	return rec
}

func (s *memStore) get(shareID string) *models.ShareRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	if rec, ok := s.records[shareID]; ok {
		return clone(rec)
	}
	return nil
}

func (s *memStore) Create(_ context.Context, rec *models.ShareRecord) error {
	if s.failAll != nil {
		return s.failAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, dup := s.records[rec.ShareID]; dup {
		return fmt.Errorf("duplicate share id %s", rec.ShareID)
	}
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	rec.CreatedAt = time.Now()
	s.records[rec.ShareID] = clone(rec)
	return nil
}

func (s *memStore) FindByShareID(_ context.Context, shareID string) (*models.ShareRecord, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	if rec := s.get(shareID); rec != nil {
		return rec, nil
	}
	return nil, ErrNotFound
}

func (s *memStore) FindByID(_ context.Context, id string) (*models.ShareRecord, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.records {
		if rec.ID == id {
			return clone(rec), nil
		}
	}
	return nil, ErrNotFound
}

func (s *memStore) list(keep func(*models.ShareRecord) bool, limit int) []models.ShareRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.ShareRecord
	for _, rec := range s.records {
		if keep(rec) {
			out = append(out, *clone(rec))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ShareID < out[j].ShareID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

func (s *memStore) ListByOwner(_ context.Context, ownerID string) ([]models.ShareRecord, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	return s.list(func(r *models.ShareRecord) bool { return r.OwnerID == ownerID }, 0), nil
}

func (s *memStore) ListPublic(_ context.Context, now time.Time, limit int) ([]models.ShareRecord, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	return s.list(func(r *models.ShareRecord) bool {
		return r.Visibility == models.VisibilityPublic && !r.ExpiredAt(now)
	}, limit), nil
}

func (s *memStore) ListExpired(_ context.Context, now time.Time, limit int) ([]models.ShareRecord, error) {
	if s.failAll != nil {
		return nil, s.failAll
	}
	return s.list(func(r *models.ShareRecord) bool { return r.ExpiredAt(now) }, limit), nil
}

func (s *memStore) IncrementViews(_ context.Context, shareID string) error {
	if s.failAll != nil {
		return s.failAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[shareID]
	if !ok {
		return ErrNotFound
	}
	rec.ViewCount++
	return nil
}

func (s *memStore) IncrementDownloads(_ context.Context, shareID string, now time.Time) (bool, error) {
	if s.failAll != nil {
		return false, s.failAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[shareID]
	if !ok || rec.ExpiredAt(now) || rec.DownloadsExhausted() {
		return false, nil
	}
	rec.DownloadCount++
	return true, nil
}

func (s *memStore) Delete(_ context.Context, id string) error {
	if s.failAll != nil {
		return s.failAll
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, rec := range s.records {
		if rec.ID == id {
			delete(s.records, k)
			return nil
		}
	}
	return ErrNotFound
}

// memStorage is an in-memory ObjectStorage with per-key failure injection.
type memStorage struct {
	mu          sync.Mutex
	objects     map[string][]byte
	presigned   int
	failPut     map[string]bool // by object content
	failDelete  map[string]bool
	failPresign map[string]bool
}

func newMemStorage() *memStorage {
	return &memStorage{
		objects:     map[string][]byte{},
		failPut:     map[string]bool{},
		failDelete:  map[string]bool{},
		failPresign: map[string]bool{},
	}
}

func (m *memStorage) Put(_ context.Context, key string, body io.Reader, _ int64, _ string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for marker := range m.failPut {
		if len(data) > 0 && string(data) == marker {
			return errBackend
		}
	}
	m.objects[key] = data
	return nil
}

func (m *memStorage) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDelete[key] {
		return errBackend
	}
	delete(m.objects, key)
	return nil
}

func (m *memStorage) PresignGet(_ context.Context, key string, ttl time.Duration, name string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPresign[key] {
		return "", errBackend
	}
	m.presigned++
	return fmt.Sprintf("https://storage.test/%s?ttl=%d&name=%s&n=%d", key, int(ttl.Seconds()), name, m.presigned), nil
}

func (m *memStorage) has(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok
}

func (m *memStorage) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}

// recordingPublisher captures published subjects.
type recordingPublisher struct {
	mu       sync.Mutex
	subjects []string
	events   []Event
	err      error
}

func (p *recordingPublisher) Publish(_ context.Context, subject string, payload any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.subjects = append(p.subjects, subject)
	if ev, ok := payload.(Event); ok {
		p.events = append(p.events, ev)
	}
	return p.err
}

func (p *recordingPublisher) published() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.subjects...)
}

var testHasher = NewBcryptHasher(bcrypt.MinCost)

func mustHash(password string) string {
	h, err := testHasher.Hash(password)
	if err != nil {
		panic(err)
	}
	return h
}

func fileDesc(name string) models.ShareFile {
	return models.ShareFile{
		OriginalName: name,
		StorageKey:   "shares/owner-1/" + name,
		Size:         int64(len(name)),
		MimeType:     "application/octet-stream",
		DerivedType:  "other",
	}
}

func timePtr(t time.Time) *time.Time { return &t }

// fixture wires the core against in-memory collaborators with a fixed clock.
type fixture struct {
	now       time.Time
	store     *memStore
	storage   *memStorage
	events    *recordingPublisher
	gate      *Gate
	counter   *Counter
	links     *LinkIssuer
	service   *Service
	lifecycle *Lifecycle
}

func newFixture() *fixture {
	f := &fixture{
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
		store:   newMemStore(),
		storage: newMemStorage(),
		events:  &recordingPublisher{},
	}
	clock := func() time.Time { return f.now }

	f.gate = NewGate(f.store, NewCredentialVerifier(testHasher))
	f.gate.now = clock
	f.counter = NewCounter(f.store)
	f.counter.now = clock
	f.links = NewLinkIssuer(f.storage, "https://share.example.com/", "Sharegate", 5*time.Minute)
	f.service = NewService(f.store, f.gate, f.counter, f.links, f.events, zerolog.Nop())
	f.service.now = clock
	f.lifecycle = NewLifecycle(f.store, f.storage, testHasher, WithPublisher(f.events))
	f.lifecycle.now = clock
	return f
}
