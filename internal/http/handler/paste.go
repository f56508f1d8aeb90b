// Package handler provides HTTP handler functions for the Inkbin API.
package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/inkbin/inkbin/internal/domain"
	"github.com/inkbin/inkbin/internal/service"
	"github.com/inkbin/inkbin/pkg/ctxutil"
	"github.com/inkbin/inkbin/pkg/logger"
)

const (
	// TimeFormat is the standard format for time serialization.
	TimeFormat = "2006-01-02T15:04:05Z"
)

// PasteService defines the handler's dependency contract.
type PasteService interface {
	Create(ctx context.Context, req service.CreatePaste) (domain.Paste, error)
	Update(ctx context.Context, pasteID int64, req service.UpdatePaste) (domain.Paste, error)
	Remove(ctx context.Context, pasteID int64, state domain.RemovalState, reason string) error
	Delete(ctx context.Context, pasteID int64, state domain.RemovalState, reason string) error
	GetByShortID(ctx context.Context, shortID string) (domain.Paste, service.PasteMeta, error)
	GetText(ctx context.Context, pasteID int64, formatted bool, version int) (string, error)
	GetVersionHistory(ctx context.Context, pasteID int64, page, limit int) ([]domain.PasteVersion, error)
	ListLatest(ctx context.Context, page, limit int) ([]domain.Paste, error)
	IsExpired(p domain.Paste) bool
	RandomPaste(ctx context.Context) (domain.Paste, error)
	RecordHit(ctx context.Context, pasteID int64, viewerKey string) (int64, error)
	Hits(ctx context.Context, pasteID int64) (int64, error)
}

// Handler handles HTTP requests for pastes.
type Handler struct {
	svc PasteService
}

// NewHandler constructs a Handler with the given PasteService.
func NewHandler(svc PasteService) *Handler {
	return &Handler{svc: svc}
}

func errJSON(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": gin.H{"code": code, "message": message}})
}

func notFound(c *gin.Context, reason string) {
	c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "not_found", "message": "paste not found", "reason": reason}})
}

// Create handles the submission of a new paste.
func (h *Handler) Create(c *gin.Context) {
	ctx := c.Request.Context()
	var req domain.CreatePasteRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error(ctx, "failed to bind JSON: %s", err.Error())
		errJSON(c, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}
	p, err := h.svc.Create(ctx, service.CreatePaste{
		Text:       req.Text,
		Title:      req.Title,
		Format:     req.Format,
		Expiration: domain.Expiration(req.Expiration),
		Visibility: domain.Visibility(req.Visibility),
		Encrypted:  req.Encrypted,
		Owner:      req.Owner,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyContent):
			errJSON(c, http.StatusBadRequest, "bad_request", "paste text must not be empty")
		case errors.Is(err, domain.ErrIdentifierExhausted):
			logger.Error(ctx, "identifier exhaustion: %s", err.Error())
			errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		default:
			logger.Error(ctx, "failed to create paste: %s", err.Error())
			errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	c.JSON(http.StatusCreated, pasteDTO(p, req.Text, 0))
}

// resolve loads the paste for a short ID and applies the shared visibility
// gates: unknown, removed, and expired pastes all answer 404, with the reason
// carried in the body so callers can word their own message.
func (h *Handler) resolve(c *gin.Context) (domain.Paste, bool) {
	ctx := c.Request.Context()
	shortID := c.Param("charID")
	p, meta, err := h.svc.GetByShortID(ctx, shortID)
	if err != nil {
		if errors.Is(err, domain.ErrPasteNotFound) {
			notFound(c, "not_found")
			return domain.Paste{}, false
		}
		logger.Error(ctx, "failed to get paste: %s", err.Error())
		errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return domain.Paste{}, false
	}
	if p.IsRemoved() {
		notFound(c, "removed")
		return domain.Paste{}, false
	}
	if h.svc.IsExpired(p) {
		notFound(c, "expired")
		return domain.Paste{}, false
	}
	c.Header("X-Cache", string(meta.CacheStatus))
	return p, true
}

type textQuery struct {
	Formatted bool `form:"formatted,default=true"`
	Version   int  `form:"version" binding:"omitempty,gte=1"`
}

// Get handles fetching a paste with its text, counting a unique view.
func (h *Handler) Get(c *gin.Context) {
	ctx := c.Request.Context()
	p, ok := h.resolve(c)
	if !ok {
		return
	}
	var q textQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errJSON(c, http.StatusBadRequest, "bad_request", "invalid query parameters")
		return
	}
	text, err := h.svc.GetText(ctx, p.ID, q.Formatted, q.Version)
	if err != nil {
		h.textError(c, err)
		return
	}
	viewer := ctxutil.ViewerKey(ctx)
	if viewer == "" {
		viewer = c.ClientIP()
	}
	count, err := h.svc.RecordHit(ctx, p.ID, viewer)
	if err != nil {
		// advisory metric, the paste still renders
		logger.Warn(ctx, "failed to record hit for %s: %v", p.ShortID, err)
	}
	c.JSON(http.StatusOK, pasteDTO(p, text, count))
}

func (h *Handler) textError(c *gin.Context, err error) {
	ctx := c.Request.Context()
	switch {
	case errors.Is(err, domain.ErrVersionNotFound):
		errJSON(c, http.StatusNotFound, "not_found", "no such version")
	case errors.Is(err, domain.ErrContentNotFound):
		logger.Error(ctx, "content missing for paste: %s", err.Error())
		errJSON(c, http.StatusNotFound, "not_found", "paste content not found")
	default:
		logger.Error(ctx, "failed to load paste text: %s", err.Error())
		errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

// Raw serves the unformatted paste text as text/plain.
func (h *Handler) Raw(c *gin.Context) {
	ctx := c.Request.Context()
	p, ok := h.resolve(c)
	if !ok {
		return
	}
	var q textQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		errJSON(c, http.StatusBadRequest, "bad_request", "invalid query parameters")
		return
	}
	text, err := h.svc.GetText(ctx, p.ID, false, q.Version)
	if err != nil {
		h.textError(c, err)
		return
	}
	c.String(http.StatusOK, "%s", text)
}

// Download serves the raw text as an attachment named after the short ID.
func (h *Handler) Download(c *gin.Context) {
	ctx := c.Request.Context()
	p, ok := h.resolve(c)
	if !ok {
		return
	}
	text, err := h.svc.GetText(ctx, p.ID, false, 0)
	if err != nil {
		h.textError(c, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.ShortID+".txt"))
	c.Data(http.StatusOK, "application/octet-stream", []byte(text))
}

// Versions handles the paste history view.
func (h *Handler) Versions(c *gin.Context) {
	ctx := c.Request.Context()
	p, ok := h.resolve(c)
	if !ok {
		return
	}
	type queryParams struct {
		Page  int `form:"page,default=1" binding:"gte=1"`
		Limit int `form:"limit,default=20" binding:"gte=1,lte=100"`
	}
	var q queryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		errJSON(c, http.StatusBadRequest, "bad_request", "invalid query parameters")
		return
	}
	versions, err := h.svc.GetVersionHistory(ctx, p.ID, q.Page, q.Limit)
	if err != nil {
		logger.Error(ctx, "failed to list versions: %s", err.Error())
		errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	items := make([]domain.VersionResponseDTO, 0, len(versions))
	for _, v := range versions {
		items = append(items, domain.VersionResponseDTO{
			Version:     v.Version,
			Note:        v.Note,
			Title:       v.Title,
			Format:      v.Format,
			SubmittedAt: v.SubmittedAt.UTC().Format(TimeFormat),
		})
	}
	c.JSON(http.StatusOK, domain.VersionHistoryResponseDTO{
		ShortID: p.ShortID,
		Page:    q.Page,
		Limit:   q.Limit,
		Items:   items,
	})
}

// Update handles editing a paste, producing a new version.
func (h *Handler) Update(c *gin.Context) {
	ctx := c.Request.Context()
	p, ok := h.resolve(c)
	if !ok {
		return
	}
	var req domain.UpdatePasteRequestDTO
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.Error(ctx, "failed to bind JSON: %s", err.Error())
		errJSON(c, http.StatusBadRequest, "bad_request", "invalid request")
		return
	}
	updated, err := h.svc.Update(ctx, p.ID, service.UpdatePaste{
		Text:       req.Text,
		Title:      req.Title,
		Format:     req.Format,
		Visibility: domain.Visibility(req.Visibility),
		Encrypted:  req.Encrypted,
		Note:       req.Note,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrEmptyContent):
			errJSON(c, http.StatusBadRequest, "bad_request", "paste text must not be empty")
		case errors.Is(err, domain.ErrPasteNotFound):
			notFound(c, "not_found")
		case errors.Is(err, domain.ErrConcurrentModification):
			errJSON(c, http.StatusConflict, "conflict", "paste is being edited, retry")
		default:
			logger.Error(ctx, "failed to update paste: %s", err.Error())
			errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	c.JSON(http.StatusOK, pasteDTO(updated, req.Text, 0))
}

// Remove handles removal and deletion. The body selects reversible removal
// (default) or permanent purge, and whether it acts as a moderator.
func (h *Handler) Remove(c *gin.Context) {
	ctx := c.Request.Context()
	p, ok := h.resolve(c)
	if !ok {
		return
	}
	var req domain.RemovePasteRequestDTO
	// body is optional: a bare DELETE is a plain user removal
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			errJSON(c, http.StatusBadRequest, "bad_request", "invalid request")
			return
		}
	}
	state := domain.RemovalUserRemoved
	if req.Admin {
		state = domain.RemovalAdminRemoved
	}
	var err error
	if req.Purge {
		err = h.svc.Delete(ctx, p.ID, state, req.Reason)
	} else {
		err = h.svc.Remove(ctx, p.ID, state, req.Reason)
	}
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrPasteNotFound):
			notFound(c, "not_found")
		case errors.Is(err, domain.ErrConcurrentModification):
			errJSON(c, http.StatusConflict, "conflict", "paste is being edited, retry")
		default:
			logger.Error(ctx, "failed to remove paste: %s", err.Error())
			errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		}
		return
	}
	c.Status(http.StatusNoContent)
}

// Random redirects to a randomly sampled public paste.
func (h *Handler) Random(c *gin.Context) {
	ctx := c.Request.Context()
	p, err := h.svc.RandomPaste(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrNoEligiblePastes) {
			errJSON(c, http.StatusNotFound, "not_found", "no public pastes to sample")
			return
		}
		logger.Error(ctx, "failed to sample paste: %s", err.Error())
		errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	c.Redirect(http.StatusFound, "/api/v1/pastes/"+p.ShortID)
}

// List handles the latest public pastes listing.
func (h *Handler) List(c *gin.Context) {
	ctx := c.Request.Context()
	type queryParams struct {
		Page  int `form:"page,default=1" binding:"gte=1"`
		Limit int `form:"limit,default=20" binding:"gte=1,lte=100"`
	}
	var q queryParams
	if err := c.ShouldBindQuery(&q); err != nil {
		errJSON(c, http.StatusBadRequest, "bad_request", "invalid query parameters")
		return
	}
	items, err := h.svc.ListLatest(ctx, q.Page, q.Limit)
	if err != nil {
		logger.Error(ctx, "failed to list pastes: %s", err.Error())
		errJSON(c, http.StatusInternalServerError, "internal_error", "internal server error")
		return
	}
	list := make([]domain.PasteListItemDTO, 0, len(items))
	for _, p := range items {
		list = append(list, domain.PasteListItemDTO{
			ShortID:     p.ShortID,
			Title:       p.Title,
			SubmittedAt: p.SubmittedAt.UTC().Format(TimeFormat),
			ExpiresAt:   optionalTime(p.ExpiresAt),
		})
	}
	c.JSON(http.StatusOK, domain.ListPastesResponseDTO{Page: q.Page, Limit: q.Limit, Items: list})
}
