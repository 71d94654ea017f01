package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/rohits-web03/sharegate/internal/api/middleware"
	"github.com/rohits-web03/sharegate/internal/models"
	"github.com/rohits-web03/sharegate/internal/share"
	"github.com/rohits-web03/sharegate/internal/utils"
)

// multipart parts above this size are spooled to disk
const multipartMemory = 32 << 20

// ShareHandler serves the share endpoints.
type ShareHandler struct {
	service       *share.Service
	lifecycle     *share.Lifecycle
	uploader      *share.Uploader
	maxUploadSize int64
	log           zerolog.Logger
}

func NewShareHandler(service *share.Service, lifecycle *share.Lifecycle, uploader *share.Uploader, maxUploadSize int64, log zerolog.Logger) *ShareHandler {
	return &ShareHandler{
		service:       service,
		lifecycle:     lifecycle,
		uploader:      uploader,
		maxUploadSize: maxUploadSize,
		log:           log,
	}
}

// shareView is the public description of a share. It never carries credentials.
type shareView struct {
	ShareID            string             `json:"shareId"`
	Title              string             `json:"title"`
	Description        string             `json:"description,omitempty"`
	Visibility         models.Visibility  `json:"visibility"`
	ExpiresAt          *time.Time         `json:"expiresAt"`
	MaxDownloads       int                `json:"maxDownloads"`
	DownloadCount      int                `json:"downloadCount"`
	ViewCount          int                `json:"viewCount"`
	AccessCodeRequired bool               `json:"accessCodeRequired"`
	PasswordProtected  bool               `json:"passwordProtected"`
	CreatedAt          time.Time          `json:"createdAt"`
	Files              []models.ShareFile `json:"files"`
	ShareURL           string             `json:"shareUrl"`
}

// ownedShare adds what only the owner may see.
type ownedShare struct {
	ID string `json:"id"`
	shareView
	AccessCode string `json:"accessCode,omitempty"`
}

func (h *ShareHandler) view(rec *models.ShareRecord) shareView {
	files := rec.Files
	if files == nil {
		files = []models.ShareFile{}
	}
	return shareView{
		ShareID:            rec.ShareID,
		Title:              rec.Title,
		Description:        rec.Description,
		Visibility:         rec.Visibility,
		ExpiresAt:          rec.ExpiresAt,
		MaxDownloads:       rec.MaxDownloads,
		DownloadCount:      rec.DownloadCount,
		ViewCount:          rec.ViewCount,
		AccessCodeRequired: rec.HasAccessCode(),
		PasswordProtected:  rec.PasswordProtected(),
		CreatedAt:          rec.CreatedAt,
		Files:              files,
		ShareURL:           h.service.Links().ShareURL(rec.ShareID),
	}
}

// CreateShare godoc
// @Summary Create a share from uploaded files
// @Description Multipart upload of one or more files. Optional expiry, download limit, access code and password.
// @Tags Share
// @Accept multipart/form-data
// @Produce json
// @Param files formData file true "Files to share"
// @Param title formData string true "Share title"
// @Param description formData string false "Description"
// @Param visibility formData string false "public or private"
// @Param expiresIn formData string false "Lifetime as a Go duration, e.g. 24h"
// @Param expiresAt formData string false "Absolute expiry (RFC3339)"
// @Param maxDownloads formData int false "Download limit, 0 for unlimited"
// @Param password formData string false "Download password"
// @Param accessCode formData string false "Explicit access code"
// @Param requireAccessCode formData bool false "Generate an access code"
// @Success 201 {object} utils.Payload
// @Failure 400 {object} utils.Payload
// @Failure 503 {object} utils.Payload
// @Router /api/v1/shares [post]
func (h *ShareHandler) CreateShare(w http.ResponseWriter, r *http.Request) {
	ownerID := middleware.UserID(r.Context())
	if ownerID == "" {
		utils.Fail(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.Fail(w, http.StatusRequestEntityTooLarge, "Upload exceeds the maximum size")
			return
		}
		utils.Fail(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}
	defer r.MultipartForm.RemoveAll()

	params, err := createParams(r, ownerID, time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	headers := r.MultipartForm.File["files"]
	if len(headers) == 0 {
		utils.Fail(w, http.StatusBadRequest, "At least one file is required")
		return
	}

	staged, err := h.uploader.Stage(r.Context(), ownerID, uploadFiles(headers))
	if err != nil {
		h.writeError(w, err)
		return
	}
	params.Files = staged

	rec, err := h.lifecycle.Create(r.Context(), params)
	if err != nil {
		h.uploader.Discard(r.Context(), staged)
		h.writeError(w, err)
		return
	}

	utils.Success(w, http.StatusCreated, "Share created successfully", map[string]any{
		"id":         rec.ID,
		"shareId":    rec.ShareID,
		"accessCode": rec.AccessCode,
		"shareUrl":   h.service.Links().ShareURL(rec.ShareID),
		"expiresAt":  rec.ExpiresAt,
	})
}

func createParams(r *http.Request, ownerID string, now time.Time) (share.CreateParams, error) {
	p := share.CreateParams{
		OwnerID:     ownerID,
		Title:       r.FormValue("title"),
		Description: r.FormValue("description"),
		Visibility:  models.Visibility(strings.ToLower(strings.TrimSpace(r.FormValue("visibility")))),
		Password:    r.FormValue("password"),
		AccessCode:  strings.TrimSpace(r.FormValue("accessCode")),
	}
	if strings.TrimSpace(p.Title) == "" {
		return p, &share.ValidationError{Field: "title", Message: "is required"}
	}

	if v := r.FormValue("maxDownloads"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return p, &share.ValidationError{Field: "maxDownloads", Message: "must be an integer"}
		}
		p.MaxDownloads = n
	}

	if v := r.FormValue("requireAccessCode"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return p, &share.ValidationError{Field: "requireAccessCode", Message: "must be a boolean"}
		}
		p.RequireAccessCode = b
	}

	switch in, at := r.FormValue("expiresIn"), r.FormValue("expiresAt"); {
	case in != "" && at != "":
		return p, &share.ValidationError{Field: "expiresAt", Message: "use either expiresIn or expiresAt"}
	case in != "":
		d, err := time.ParseDuration(in)
		if err != nil || d <= 0 {
			return p, &share.ValidationError{Field: "expiresIn", Message: "must be a positive duration"}
		}
		t := now.Add(d)
		p.ExpiresAt = &t
	case at != "":
		t, err := time.Parse(time.RFC3339, at)
		if err != nil {
			return p, &share.ValidationError{Field: "expiresAt", Message: "must be RFC3339"}
		}
		p.ExpiresAt = &t
	}
	return p, nil
}

func uploadFiles(headers []*multipart.FileHeader) []share.UploadFile {
	files := make([]share.UploadFile, len(headers))
	for i, fh := range headers {
		files[i] = share.UploadFile{
			Name: fh.Filename,
			Size: fh.Size,
			Open: func() (io.ReadCloser, error) { return fh.Open() },
		}
	}
	return files
}

// ListMyShares godoc
// @Summary List the caller's shares
// @Tags Share
// @Produce json
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload
// @Router /api/v1/shares [get]
func (h *ShareHandler) ListMyShares(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.ListOwned(r.Context(), middleware.UserID(r.Context()))
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]ownedShare, len(recs))
	for i := range recs {
		out[i] = ownedShare{ID: recs[i].ID, shareView: h.view(&recs[i]), AccessCode: recs[i].AccessCode}
	}
	utils.Success(w, http.StatusOK, "Shares retrieved successfully", out)
}

// ListPublicShares godoc
// @Summary List public, unexpired shares
// @Tags Share
// @Produce json
// @Success 200 {object} utils.Payload
// @Router /api/v1/shares/public [get]
func (h *ShareHandler) ListPublicShares(w http.ResponseWriter, r *http.Request) {
	recs, err := h.service.ListPublic(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	out := make([]shareView, len(recs))
	for i := range recs {
		out[i] = h.view(&recs[i])
	}
	utils.Success(w, http.StatusOK, "Shares retrieved successfully", out)
}

// GetShare godoc
// @Summary View a share
// @Description Returns share metadata after the expiry and access code checks. Counts one view.
// @Tags Share
// @Produce json
// @Param shareId path string true "Share token"
// @Param accessCode query string false "Access code"
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload "Access code required"
// @Failure 403 {object} utils.Payload "Invalid access code"
// @Failure 404 {object} utils.Payload "Share not found"
// @Failure 410 {object} utils.Payload "Share expired"
// @Router /api/v1/shares/{shareId} [get]
func (h *ShareHandler) GetShare(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("accessCode")
	if code == "" {
		code = r.Header.Get("X-Access-Code")
	}
	rec, err := h.service.View(r.Context(), r.PathValue("shareId"), code)
	if err != nil {
		h.writeError(w, err)
		return
	}
	links := h.service.Links()
	utils.Success(w, http.StatusOK, "Share retrieved successfully", map[string]any{
		"share":       h.view(rec),
		"shareText":   links.ShareText(rec),
		"socialLinks": links.SocialLinks(rec),
	})
}

// DownloadShare godoc
// @Summary Issue download links
// @Description Runs every access check, counts one download and returns a temporary URL per file.
// @Tags Share
// @Accept json
// @Produce json
// @Param shareId path string true "Share token"
// @Success 200 {object} utils.Payload
// @Failure 401 {object} utils.Payload "Credentials required or wrong password"
// @Failure 403 {object} utils.Payload "Invalid access code"
// @Failure 404 {object} utils.Payload "Share not found"
// @Failure 410 {object} utils.Payload "Expired or download limit reached"
// @Failure 503 {object} utils.Payload "Storage unavailable"
// @Router /api/v1/shares/{shareId}/download [post]
func (h *ShareHandler) DownloadShare(w http.ResponseWriter, r *http.Request) {
	var body struct {
		AccessCode string `json:"accessCode"`
		Password   string `json:"password"`
	}
	if err := utils.DecodeJSON(r.Body, &body); err != nil {
		utils.Fail(w, http.StatusBadRequest, "Invalid input")
		return
	}

	links, err := h.service.Download(r.Context(), share.DownloadRequest{
		ShareID:    r.PathValue("shareId"),
		AccessCode: body.AccessCode,
		Password:   body.Password,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}
	utils.Success(w, http.StatusOK, "Download links generated successfully", map[string]any{
		"files":     links,
		"expiresIn": int(h.service.Links().TTL().Seconds()),
	})
}

// ShareQRCode godoc
// @Summary QR code for the share URL
// @Tags Share
// @Produce png
// @Param shareId path string true "Share token"
// @Param size query int false "Edge length in pixels (64-1024)"
// @Success 200 {file} binary
// @Failure 404 {object} utils.Payload
// @Router /api/v1/shares/{shareId}/qr [get]
func (h *ShareHandler) ShareQRCode(w http.ResponseWriter, r *http.Request) {
	rec, err := h.service.Lookup(r.Context(), r.PathValue("shareId"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	size, _ := strconv.Atoi(r.URL.Query().Get("size"))
	png, err := h.service.Links().QRCode(rec.ShareID, size)
	if err != nil {
		h.writeError(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// DeleteShare godoc
// @Summary Delete a share and its stored files
// @Tags Share
// @Produce json
// @Param id path string true "Share record id"
// @Success 200 {object} utils.Payload
// @Failure 403 {object} utils.Payload
// @Failure 404 {object} utils.Payload
// @Router /api/v1/shares/{id} [delete]
func (h *ShareHandler) DeleteShare(w http.ResponseWriter, r *http.Request) {
	report, err := h.lifecycle.Delete(r.Context(), middleware.UserID(r.Context()), r.PathValue("id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	failures := report.StorageFailures
	if failures == nil {
		failures = []string{}
	}
	utils.Success(w, http.StatusOK, "Share deleted successfully", map[string]any{
		"deleted":         true,
		"storageFailures": failures,
	})
}

func denialStatus(reason share.DenyReason) int {
	switch reason {
	case share.DenyNotFound:
		return http.StatusNotFound
	case share.DenyExpired, share.DenyDownloadLimitReached:
		return http.StatusGone
	case share.DenyAccessCodeInvalid:
		return http.StatusForbidden
	case share.DenyAccessCodeRequired, share.DenyPasswordRequired, share.DenyPasswordInvalid:
		return http.StatusUnauthorized
	}
	return http.StatusForbidden
}

func (h *ShareHandler) writeError(w http.ResponseWriter, err error) {
	if reason, ok := share.ReasonOf(err); ok {
		utils.JSONResponse(w, denialStatus(reason), utils.Payload{
			Success: false,
			Message: reason.Message(),
			Data:    map[string]any{"reason": reason},
		})
		return
	}

	var invalid *share.ValidationError
	var linkErr *share.LinkError
	switch {
	case errors.As(err, &invalid):
		utils.JSONResponse(w, http.StatusBadRequest, utils.Payload{
			Success: false,
			Message: invalid.Error(),
			Data:    map[string]any{"field": invalid.Field},
		})
	case errors.Is(err, share.ErrNotFound):
		utils.Fail(w, http.StatusNotFound, share.DenyNotFound.Message())
	case errors.Is(err, share.ErrForbidden):
		utils.Fail(w, http.StatusForbidden, "You do not own this share")
	case errors.As(err, &linkErr):
		names := make([]string, len(linkErr.Failures))
		for i, f := range linkErr.Failures {
			names[i] = f.Name
		}
		utils.JSONResponse(w, http.StatusServiceUnavailable, utils.Payload{
			Success: false,
			Message: "Could not generate download links",
			Data:    map[string]any{"files": names},
		})
	case errors.Is(err, share.ErrUnavailable):
		h.log.Error().Err(err).Msg("share backend unavailable")
		utils.Fail(w, http.StatusServiceUnavailable, "Service temporarily unavailable")
	default:
		h.log.Error().Err(err).Msg("unexpected share error")
		utils.Fail(w, http.StatusInternalServerError, "Internal server error")
	}
}
