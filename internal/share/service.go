package share

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/rohits-web03/sharegate/internal/models"
)

const publicListLimit = 50

// Service runs the public view and download flows over the gate, the counter
// and the link issuer.
type Service struct {
	store   Store
	gate    *Gate
	counter *Counter
	links   *LinkIssuer
	events  Publisher
	log     zerolog.Logger
	now     func() time.Time
}

func NewService(store Store, gate *Gate, counter *Counter, links *LinkIssuer, events Publisher, log zerolog.Logger) *Service {
	if events == nil {
		events = nopPublisher{}
	}
	return &Service{
		store:   store,
		gate:    gate,
		counter: counter,
		links:   links,
		events:  events,
		log:     log,
		now:     time.Now,
	}
}

func (s *Service) Links() *LinkIssuer {
	return s.links
}

// View returns the share metadata after the view checks pass and the view
// has been counted.
func (s *Service) View(ctx context.Context, shareID, accessCode string) (*models.ShareRecord, error) {
	decision, err := s.gate.Evaluate(ctx, AccessRequest{
		ShareID:    shareID,
		AccessCode: accessCode,
		Intent:     IntentView,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decision.Err()
	}

	if err := s.counter.RecordView(ctx, shareID); err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, deny(DenyNotFound)
		}
		return nil, err
	}
	rec := decision.Record
	rec.ViewCount++
	s.publish(ctx, SubjectViewed, rec)
	return rec, nil
}

type DownloadRequest struct {
	ShareID    string
	AccessCode string
	Password   string
}

// Download runs the full gate, issues fresh URLs for every file and then
// commits the download with a conditional increment. URLs are only released
// once the increment persisted, so a refused or failed increment never hands
// out files and a failed presign never consumes a download.
func (s *Service) Download(ctx context.Context, req DownloadRequest) ([]FileLink, error) {
	decision, err := s.gate.Evaluate(ctx, AccessRequest{
		ShareID:    req.ShareID,
		AccessCode: req.AccessCode,
		Password:   req.Password,
		Intent:     IntentDownload,
	})
	if err != nil {
		return nil, err
	}
	if !decision.Allowed() {
		return nil, decision.Err()
	}
	rec := decision.Record

	links, err := s.links.DownloadLinks(ctx, rec)
	if err != nil {
		s.log.Error().Err(err).Str("share_id", rec.ShareID).Msg("failed to issue download links")
		return nil, err
	}

	outcome, err := s.counter.RecordDownload(ctx, rec.ShareID)
	if err != nil {
		return nil, err
	}
	if outcome != Counted {
		s.log.Info().Str("share_id", rec.ShareID).Stringer("outcome", outcome).Msg("download refused after gate")
		return nil, deny(outcome.Reason())
	}

	rec.DownloadCount++
	s.publish(ctx, SubjectDownloaded, rec)
	return links, nil
}

// Lookup loads a share without any checks or counting, for owner-facing and
// credential-free surfaces such as the QR code.
func (s *Service) Lookup(ctx context.Context, shareID string) (*models.ShareRecord, error) {
	rec, err := s.store.FindByShareID(ctx, shareID)
	if errors.Is(err, ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, unavailable("load share", err)
	}
	return rec, nil
}

func (s *Service) ListOwned(ctx context.Context, ownerID string) ([]models.ShareRecord, error) {
	recs, err := s.store.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, unavailable("list shares", err)
	}
	return recs, nil
}

// ListPublic returns public shares that have not expired. Visibility only
// affects listing; access to each share still goes through the gate.
func (s *Service) ListPublic(ctx context.Context) ([]models.ShareRecord, error) {
	recs, err := s.store.ListPublic(ctx, s.now(), publicListLimit)
	if err != nil {
		return nil, unavailable("list public shares", err)
	}
	return recs, nil
}

func (s *Service) publish(ctx context.Context, subject string, rec *models.ShareRecord) {
	if err := s.events.Publish(ctx, subject, newEvent(rec, s.now())); err != nil {
		s.log.Warn().Err(err).Str("subject", subject).Str("share_id", rec.ShareID).Msg("failed to publish share event")
	}
}
