package share

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	qrcode "github.com/skip2/go-qrcode"
	"golang.org/x/sync/errgroup"

	"github.com/rohits-web03/sharegate/internal/models"
)

const (
	DefaultLinkTTL = 15 * time.Minute
	maxPresignJobs = 8
)

// FileLink is a temporary retrieval URL for one file of a share.
type FileLink struct {
	Name     string `json:"name"`
	URL      string `json:"url"`
	Size     int64  `json:"size"`
	MimeType string `json:"mimeType"`
	Index    int    `json:"index"`
}

// LinkIssuer builds public share URLs and per-request download URLs.
type LinkIssuer struct {
	storage ObjectStorage
	baseURL string
	appName string
	ttl     time.Duration
}

func NewLinkIssuer(storage ObjectStorage, baseURL, appName string, ttl time.Duration) *LinkIssuer {
	if ttl <= 0 {
		ttl = DefaultLinkTTL
	}
	return &LinkIssuer{
		storage: storage,
		baseURL: strings.TrimRight(baseURL, "/"),
		appName: appName,
		ttl:     ttl,
	}
}

func (l *LinkIssuer) TTL() time.Duration {
	return l.ttl
}

func (l *LinkIssuer) ShareURL(shareID string) string {
	return l.baseURL + "/share/" + url.PathEscape(shareID)
}

// DownloadLinks asks storage for a fresh URL per file, in file order. Either
// every file gets a URL or a *LinkError names each file that did not.
func (l *LinkIssuer) DownloadLinks(ctx context.Context, rec *models.ShareRecord) ([]FileLink, error) {
	links := make([]FileLink, len(rec.Files))
	errs := make([]error, len(rec.Files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxPresignJobs)
	for i, f := range rec.Files {
		g.Go(func() error {
			u, err := l.storage.PresignGet(gctx, f.StorageKey, l.ttl, f.OriginalName)
			if err != nil {
				errs[i] = err
				return nil
			}
			links[i] = FileLink{
				Name:     f.OriginalName,
				URL:      u,
				Size:     f.Size,
				MimeType: f.MimeType,
				Index:    f.Position,
			}
			return nil
		})
	}
	_ = g.Wait()

	var failures []FileFailure
	for i, err := range errs {
		if err != nil {
			failures = append(failures, FileFailure{Name: rec.Files[i].OriginalName, Err: err})
		}
	}
	if len(failures) > 0 {
		return nil, &LinkError{Failures: failures}
	}
	return links, nil
}

// ShareText is the human-readable message used by the social share helpers.
func (l *LinkIssuer) ShareText(rec *models.ShareRecord) string {
	n := len(rec.Files)
	noun := "files"
	if n == 1 {
		noun = "file"
	}
	text := fmt.Sprintf("%s shared %d %s with you: %q", l.appName, n, noun, rec.Title)
	if rec.ExpiresAt != nil {
		text += fmt.Sprintf(" (available until %s)", rec.ExpiresAt.UTC().Format("Jan 2, 2006 15:04 MST"))
	}
	return text
}

// SocialLinks returns prefilled share intents for common networks.
func (l *LinkIssuer) SocialLinks(rec *models.ShareRecord) map[string]string {
	link := l.ShareURL(rec.ShareID)
	text := l.ShareText(rec)
	return map[string]string{
		"twitter":  "https://twitter.com/intent/tweet?" + url.Values{"text": {text}, "url": {link}}.Encode(),
		"facebook": "https://www.facebook.com/sharer/sharer.php?" + url.Values{"u": {link}}.Encode(),
		"linkedin": "https://www.linkedin.com/sharing/share-offsite/?" + url.Values{"url": {link}}.Encode(),
		"whatsapp": "https://wa.me/?" + url.Values{"text": {text + " " + link}}.Encode(),
		"email": "mailto:?" + strings.ReplaceAll(url.Values{
			"subject": {rec.Title},
			"body":    {text + "\n\n" + link},
		}.Encode(), "+", "%20"),
	}
}

// QRCode renders the public share URL as a PNG of size×size pixels.
func (l *LinkIssuer) QRCode(shareID string, size int) ([]byte, error) {
	if size < 64 || size > 1024 {
		size = 256
	}
	png, err := qrcode.Encode(l.ShareURL(shareID), qrcode.Medium, size)
	if err != nil {
		return nil, fmt.Errorf("render qr code: %w", err)
	}
	return png, nil
}
