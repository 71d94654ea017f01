package share

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rohits-web03/sharegate/internal/media"
	"github.com/rohits-web03/sharegate/internal/models"
)

// UploadFile is one file of an upload batch. Open may be called more than once.
type UploadFile struct {
	Name string
	Size int64
	Open func() (io.ReadCloser, error)
}

// Uploader places an upload batch into object storage.
type Uploader struct {
	storage ObjectStorage
	log     zerolog.Logger
}

func NewUploader(storage ObjectStorage, log zerolog.Logger) *Uploader {
	return &Uploader{storage: storage, log: log}
}

// Stage stores every file of the batch and returns their descriptors. If any
// file fails, the objects already written for the batch are removed.
func (u *Uploader) Stage(ctx context.Context, ownerID string, files []UploadFile) ([]models.ShareFile, error) {
	if len(files) == 0 {
		return nil, invalid("files", "at least one file is required")
	}
	staged := make([]models.ShareFile, 0, len(files))
	for i, f := range files {
		desc, err := u.stageOne(ctx, ownerID, f)
		if err != nil {
			u.Discard(ctx, staged)
			return nil, unavailable(fmt.Sprintf("store %q", f.Name), err)
		}
		desc.Position = i
		staged = append(staged, desc)
	}
	return staged, nil
}

func (u *Uploader) stageOne(ctx context.Context, ownerID string, f UploadFile) (models.ShareFile, error) {
	name := cleanName(f.Name)
	id := uuid.NewString()
	key := path.Join("shares", ownerID, id+strings.ToLower(filepath.Ext(name)))

	mimeType, kind, err := u.classify(f, name)
	if err != nil {
		return models.ShareFile{}, err
	}

	body, err := f.Open()
	if err != nil {
		return models.ShareFile{}, fmt.Errorf("open upload: %w", err)
	}
	defer body.Close()
	if err := u.storage.Put(ctx, key, body, f.Size, mimeType); err != nil {
		return models.ShareFile{}, fmt.Errorf("put object: %w", err)
	}

	desc := models.ShareFile{
		OriginalName: name,
		StorageKey:   key,
		Size:         f.Size,
		MimeType:     mimeType,
		DerivedType:  kind,
	}
	if kind == media.KindImage {
		desc.ThumbnailKey = u.thumbnail(ctx, f, id)
	}
	return desc, nil
}

func (u *Uploader) classify(f UploadFile, name string) (string, string, error) {
	r, err := f.Open()
	if err != nil {
		return "", "", fmt.Errorf("open upload: %w", err)
	}
	defer r.Close()
	return media.Classify(r, name)
}

// thumbnail is best effort: an image that cannot be decoded still uploads.
func (u *Uploader) thumbnail(ctx context.Context, f UploadFile, id string) string {
	r, err := f.Open()
	if err != nil {
		return ""
	}
	defer r.Close()

	thumb, err := media.Thumbnail(r)
	if err != nil {
		u.log.Debug().Err(err).Str("file", f.Name).Msg("skipping thumbnail")
		return ""
	}
	key := path.Join("thumbnails", id+".jpg")
	if err := u.storage.Put(ctx, key, bytes.NewReader(thumb), int64(len(thumb)), "image/jpeg"); err != nil {
		u.log.Warn().Err(err).Str("key", key).Msg("failed to store thumbnail")
		return ""
	}
	return key
}

// Discard removes the objects of files that never became part of a share.
func (u *Uploader) Discard(ctx context.Context, files []models.ShareFile) {
	for _, f := range files {
		for _, key := range []string{f.StorageKey, f.ThumbnailKey} {
			if key == "" {
				continue
			}
			if err := u.storage.Delete(ctx, key); err != nil {
				u.log.Error().Err(err).Str("key", key).Msg("failed to discard staged object")
			}
		}
	}
}

func cleanName(name string) string {
	name = filepath.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return name
}
