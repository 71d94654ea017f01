package media

import (
	"bytes"
	"fmt"
	"image"
	"io"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
)

const ThumbnailWidth = 320

// Kind of file, derived from its sniffed MIME type.
const (
	KindImage    = "image"
	KindVideo    = "video"
	KindAudio    = "audio"
	KindDocument = "document"
	KindArchive  = "archive"
	KindOther    = "other"
)

var documentTypes = []string{
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument",
	"application/vnd.oasis.opendocument",
	"application/rtf",
	"text/",
}

var archiveTypes = []string{
	"application/zip",
	"application/x-tar",
	"application/gzip",
	"application/x-7z-compressed",
	"application/vnd.rar",
	"application/x-bzip2",
	"application/x-xz",
}

// Classify sniffs the content of r and returns its MIME type and kind.
// The file name is only used when the content is not recognized.
func Classify(r io.Reader, name string) (mimeType, kind string, err error) {
	mt, err := mimetype.DetectReader(r)
	if err != nil {
		return "", "", fmt.Errorf("detect mime type: %w", err)
	}
	mimeType = mt.String()
	if mt.Is("application/octet-stream") {
		if byExt := mimetype.Lookup(extensionType(name)); byExt != nil {
			mimeType = byExt.String()
		}
	}
	return mimeType, Kind(mimeType), nil
}

// Kind maps a MIME type onto one of the Kind* constants.
func Kind(mimeType string) string {
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.TrimSpace(base)
	switch {
	case strings.HasPrefix(base, "image/"):
		return KindImage
	case strings.HasPrefix(base, "video/"):
		return KindVideo
	case strings.HasPrefix(base, "audio/"):
		return KindAudio
	}
	for _, prefix := range archiveTypes {
		if strings.HasPrefix(base, prefix) {
			return KindArchive
		}
	}
	for _, prefix := range documentTypes {
		if strings.HasPrefix(base, prefix) {
			return KindDocument
		}
	}
	return KindOther
}

func extensionType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".md", ".txt":
		return "text/plain"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return ""
}

// Thumbnail decodes an image and returns a JPEG scaled to ThumbnailWidth,
// preserving aspect ratio. Images narrower than that are not upscaled.
func Thumbnail(r io.Reader) ([]byte, error) {
	img, err := imaging.Decode(r, imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	var thumb image.Image = img
	if img.Bounds().Dx() > ThumbnailWidth {
		thumb = imaging.Resize(img, ThumbnailWidth, 0, imaging.Lanczos)
	}
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(80)); err != nil {
		return nil, fmt.Errorf("encode thumbnail: %w", err)
	}
	return buf.Bytes(), nil
}
