package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Visibility string

const (
	VisibilityPublic  Visibility = "public"
	VisibilityPrivate Visibility = "private"
)

// ShareRecord is one upload batch published behind a share link.
// Limits and credentials are fixed at creation; only the counters move afterwards.
type ShareRecord struct {
	ID            string      `json:"id" gorm:"type:varchar(36);primaryKey"`
	ShareID       string      `json:"shareId" gorm:"uniqueIndex;not null"` // public token
	AccessCode    string      `json:"-" gorm:"default:''"`
	PasswordHash  string      `json:"-" gorm:"default:''"`
	Title         string      `json:"title" gorm:"not null"`
	Description   string      `json:"description"`
	Visibility    Visibility  `json:"visibility" gorm:"type:varchar(16);index;not null;default:'private'"`
	ExpiresAt     *time.Time  `json:"expiresAt" gorm:"index"`
	MaxDownloads  int         `json:"maxDownloads" gorm:"not null;default:0"` // 0 = unlimited
	DownloadCount int         `json:"downloadCount" gorm:"not null;default:0"`
	ViewCount     int         `json:"viewCount" gorm:"not null;default:0"`
	OwnerID       string      `json:"ownerId" gorm:"type:varchar(36);index;not null"`
	CreatedAt     time.Time   `json:"createdAt" gorm:"autoCreateTime"`
	UpdatedAt     time.Time   `json:"updatedAt" gorm:"autoUpdateTime"`
	Files         []ShareFile `json:"files" gorm:"foreignKey:ShareRecordID"`
}

func (ShareRecord) TableName() string {
	return "shares"
}

func (s *ShareRecord) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

func (s *ShareRecord) HasAccessCode() bool {
	return s.AccessCode != ""
}

func (s *ShareRecord) PasswordProtected() bool {
	return s.PasswordHash != ""
}

// ExpiredAt reports whether the share is expired at t. Expiry is inclusive:
// a share with ExpiresAt == t is already expired.
func (s *ShareRecord) ExpiredAt(t time.Time) bool {
	return s.ExpiresAt != nil && !t.Before(*s.ExpiresAt)
}

func (s *ShareRecord) DownloadsExhausted() bool {
	return s.MaxDownloads > 0 && s.DownloadCount >= s.MaxDownloads
}

// StorageKeys lists every backing object of the share, thumbnails included.
func (s *ShareRecord) StorageKeys() []string {
	keys := make([]string, 0, len(s.Files)*2)
	for _, f := range s.Files {
		keys = append(keys, f.StorageKey)
		if f.ThumbnailKey != "" {
			keys = append(keys, f.ThumbnailKey)
		}
	}
	return keys
}

// ShareFile describes one stored object of a share.
type ShareFile struct {
	ID            string    `json:"-" gorm:"type:varchar(36);primaryKey"`
	ShareRecordID string    `json:"-" gorm:"type:varchar(36);index;not null"`
	Position      int       `json:"index" gorm:"not null"` // order within the share (0,1,2…)
	OriginalName  string    `json:"name" gorm:"not null"`
	StorageKey    string    `json:"-" gorm:"not null"`
	ThumbnailKey  string    `json:"-"`
	Size          int64     `json:"size" gorm:"not null"` // bytes
	MimeType      string    `json:"mimeType"`
	DerivedType   string    `json:"type"`
	CreatedAt     time.Time `json:"-" gorm:"autoCreateTime"`
}

func (ShareFile) TableName() string {
	return "share_files"
}

func (f *ShareFile) BeforeCreate(tx *gorm.DB) error {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	return nil
}
