package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/rohits-web03/sharegate/internal/models"
	"github.com/rohits-web03/sharegate/internal/share"
)

// ShareStore is the gorm implementation of share.Store.
type ShareStore struct {
	db *gorm.DB
}

var _ share.Store = (*ShareStore)(nil)

func NewShareStore(db *gorm.DB) *ShareStore {
	return &ShareStore{db: db}
}

func orderedFiles(db *gorm.DB) *gorm.DB {
	return db.Order("position ASC")
}

// Create inserts the record and all its files in one transaction.
func (s *ShareStore) Create(ctx context.Context, rec *models.ShareRecord) error {
	if rec.ExpiresAt != nil {
		utc := rec.ExpiresAt.UTC()
		rec.ExpiresAt = &utc
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Files").Create(rec).Error; err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
		for i := range rec.Files {
			rec.Files[i].ShareRecordID = rec.ID
		}
		if err := tx.Create(&rec.Files).Error; err != nil {
			return fmt.Errorf("insert share files: %w", err)
		}
		return nil
	})
}

func (s *ShareStore) FindByShareID(ctx context.Context, shareID string) (*models.ShareRecord, error) {
	return s.findOne(ctx, "share_id = ?", shareID)
}

func (s *ShareStore) FindByID(ctx context.Context, id string) (*models.ShareRecord, error) {
	return s.findOne(ctx, "id = ?", id)
}

func (s *ShareStore) findOne(ctx context.Context, query string, arg string) (*models.ShareRecord, error) {
	var rec models.ShareRecord
	err := s.db.WithContext(ctx).
		Preload("Files", orderedFiles).
		Where(query, arg).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, share.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (s *ShareStore) ListByOwner(ctx context.Context, ownerID string) ([]models.ShareRecord, error) {
	var recs []models.ShareRecord
	err := s.db.WithContext(ctx).
		Preload("Files", orderedFiles).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&recs).Error
	return recs, err
}

func (s *ShareStore) ListPublic(ctx context.Context, now time.Time, limit int) ([]models.ShareRecord, error) {
	var recs []models.ShareRecord
	err := s.db.WithContext(ctx).
		Preload("Files", orderedFiles).
		Where("visibility = ?", models.VisibilityPublic).
		Where("expires_at IS NULL OR expires_at > ?", now.UTC()).
		Order("created_at DESC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (s *ShareStore) ListExpired(ctx context.Context, now time.Time, limit int) ([]models.ShareRecord, error) {
	var recs []models.ShareRecord
	err := s.db.WithContext(ctx).
		Preload("Files", orderedFiles).
		Where("expires_at IS NOT NULL AND expires_at <= ?", now.UTC()).
		Order("expires_at ASC").
		Limit(limit).
		Find(&recs).Error
	return recs, err
}

func (s *ShareStore) IncrementViews(ctx context.Context, shareID string) error {
	res := s.db.WithContext(ctx).
		Model(&models.ShareRecord{}).
		Where("share_id = ?", shareID).
		UpdateColumn("view_count", gorm.Expr("view_count + ?", 1))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return share.ErrNotFound
	}
	return nil
}

// IncrementDownloads is a single conditional UPDATE: the limit and expiry are
// checked by the database in the same statement that bumps the counter.
func (s *ShareStore) IncrementDownloads(ctx context.Context, shareID string, now time.Time) (bool, error) {
	res := s.db.WithContext(ctx).
		Model(&models.ShareRecord{}).
		Where("share_id = ?", shareID).
		Where("max_downloads = 0 OR download_count < max_downloads").
		Where("expires_at IS NULL OR expires_at > ?", now.UTC()).
		UpdateColumn("download_count", gorm.Expr("download_count + ?", 1))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (s *ShareStore) Delete(ctx context.Context, id string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("share_record_id = ?", id).Delete(&models.ShareFile{}).Error; err != nil {
			return fmt.Errorf("delete share files: %w", err)
		}
		res := tx.Where("id = ?", id).Delete(&models.ShareRecord{})
		if res.Error != nil {
			return fmt.Errorf("delete share: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return share.ErrNotFound
		}
		return nil
	})
}
