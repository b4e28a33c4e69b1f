package contents

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumen-ar/backend/internal/middleware"
	"github.com/lumen-ar/backend/internal/models"
	"github.com/lumen-ar/backend/internal/rotation"
	"github.com/lumen-ar/backend/pkg/response"
	"github.com/lumen-ar/backend/pkg/storage"
)

// CreateRequest is the body for POST /contents.
type CreateRequest struct {
	Title       string `json:"title" binding:"required"`
	Description string `json:"description"`
	MarkerURL   string `json:"marker_url"`
}

// UpdateRequest is the body for PATCH /contents/:id.
type UpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	MarkerURL   *string `json:"marker_url"`
}

// PinRequest is the body for POST /contents/:id/pin.
type PinRequest struct {
	VideoID int64 `json:"video_id" binding:"required"`
}

// ViewerCounter reports how many live viewers a content room has.
type ViewerCounter interface {
	ViewerCount(contentID int64) int
}

// Handler handles content item HTTP endpoints, including the viewer-facing
// active-video lookup.
type Handler struct {
	repo     *Repository
	resolver *rotation.Resolver
	clock    rotation.Clock
	hub      rotation.Broadcaster
	s3       *storage.S3
	logger   *zap.Logger
}

// NewHandler creates a content handler.
func NewHandler(repo *Repository, resolver *rotation.Resolver, clock rotation.Clock, hub rotation.Broadcaster, s3 *storage.S3, logger *zap.Logger) *Handler {
	if clock == nil {
		clock = rotation.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, resolver: resolver, clock: clock, hub: hub, s3: s3, logger: logger}
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid content id")
		return 0, false
	}
	return id, true
}

// Create handles POST /contents (admin or editor).
func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	userID := c.MustGet(middleware.ContextUserID).(int64)
	item := &models.ContentItem{
		Title:       req.Title,
		Description: req.Description,
		MarkerURL:   req.MarkerURL,
		CreatedBy:   userID,
	}
	if err := h.repo.Create(c.Request.Context(), item); err != nil {
		h.logger.Error("create content failed", zap.Error(err))
		response.Internal(c, "failed to create content")
		return
	}
	response.Created(c, item)
}

// List handles GET /contents.
func (h *Handler) List(c *gin.Context) {
	list, err := h.repo.List(c.Request.Context())
	if err != nil {
		response.Internal(c, "failed to list contents")
		return
	}
	response.OK(c, list)
}

// GetByID handles GET /contents/:id.
func (h *Handler) GetByID(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.repo.GetContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load content")
		return
	}
	if item == nil {
		response.NotFound(c, "content not found")
		return
	}
	response.OK(c, item)
}

// Update handles PATCH /contents/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	item, err := h.repo.GetContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load content")
		return
	}
	if item == nil {
		response.NotFound(c, "content not found")
		return
	}
	if req.Title != nil {
		item.Title = *req.Title
	}
	if req.Description != nil {
		item.Description = *req.Description
	}
	if req.MarkerURL != nil {
		item.MarkerURL = *req.MarkerURL
	}
	if err := h.repo.Update(c.Request.Context(), item); err != nil {
		response.Internal(c, "failed to update content")
		return
	}
	response.OK(c, item)
}

// Delete handles DELETE /contents/:id (admin only). The marker image is
// removed from S3 best-effort; video and schedule rows cascade in the DB.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.repo.GetContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load content")
		return
	}
	if item == nil {
		response.NotFound(c, "content not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete content")
		return
	}
	if h.s3 != nil && item.MarkerS3Key != "" {
		if err := h.s3.DeleteMarker(c.Request.Context(), item.MarkerS3Key); err != nil {
			h.logger.Warn("delete marker S3 object failed", zap.Error(err), zap.String("key", item.MarkerS3Key))
		}
	}
	response.NoContent(c)
}

// UploadMarker handles POST /contents/:id/marker: the marker source image is
// streamed to S3 and the content's marker fields are updated. Compilation of
// the image into a trackable marker happens outside this service.
func (h *Handler) UploadMarker(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.repo.GetContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load content")
		return
	}
	if item == nil {
		response.NotFound(c, "content not found")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxMarkerFileSize {
		response.BadRequest(c, "file size exceeds 10MB limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateMarkerFileType(contentType, file.Filename) {
		response.BadRequest(c, "invalid file type: only png and jpeg markers allowed")
		return
	}
	if contentType == "" {
		contentType = storage.MarkerContentTypeForFilename(file.Filename)
	}

	key := storage.MarkerKey(item.ID, file.Filename)
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	oldKey := item.MarkerS3Key
	markerURL, err := h.s3.Upload(c.Request.Context(), h.s3.MarkersBucket(), key, contentType, rc, file.Size, true)
	if err != nil {
		h.logger.Error("marker S3 upload failed", zap.Error(err), zap.Int64("content_id", item.ID), zap.String("key", key))
		response.Internal(c, "failed to upload marker to storage")
		return
	}
	item.MarkerURL = markerURL
	item.MarkerS3Key = key
	if err := h.repo.Update(c.Request.Context(), item); err != nil {
		response.Internal(c, "failed to update content")
		return
	}
	if oldKey != "" && oldKey != key {
		if err := h.s3.DeleteMarker(c.Request.Context(), oldKey); err != nil {
			h.logger.Warn("delete replaced marker failed", zap.Error(err), zap.String("key", oldKey))
		}
	}
	response.OK(c, item)
}

// MarkerDownloadURL handles GET /contents/:id/marker-url: a pre-signed GET
// for the marker source image, for editor tooling on private buckets.
func (h *Handler) MarkerDownloadURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	id, ok := parseID(c)
	if !ok {
		return
	}
	item, err := h.repo.GetContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load content")
		return
	}
	if item == nil {
		response.NotFound(c, "content not found")
		return
	}
	if item.MarkerS3Key == "" {
		response.NotFound(c, "no marker uploaded for this content")
		return
	}
	expire := h.s3.PresignExpire()
	url, err := h.s3.GeneratePresignedDownloadURL(c.Request.Context(), h.s3.MarkersBucket(), item.MarkerS3Key, expire)
	if err != nil {
		h.logger.Error("generate presigned marker URL failed", zap.Error(err), zap.Int64("content_id", id))
		response.Internal(c, "S3 download unavailable")
		return
	}
	response.OK(c, gin.H{
		"download_url": url,
		"expires_in":   int(expire.Seconds()),
	})
}

// Viewers returns a handler for GET /contents/:id/viewers: the number of
// WebSocket clients currently watching the content room on this instance.
func (h *Handler) Viewers(counter ViewerCounter) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseID(c)
		if !ok {
			return
		}
		response.OK(c, gin.H{"content_id": id, "viewers": counter.ViewerCount(id)})
	}
}

// ActiveVideo handles GET /contents/:id/active-video. This is the public
// viewer endpoint: "no active video" is answered with a 404 no-content
// response, never a server error.
func (h *Handler) ActiveVideo(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	v, err := h.resolver.Resolve(c.Request.Context(), id, h.clock.Now())
	if errors.Is(err, rotation.ErrNoActiveVideo) {
		response.NotFound(c, "no video available for this content")
		return
	}
	if err != nil {
		h.logger.Error("resolve active video failed", zap.Int64("content_id", id), zap.Error(err))
		response.Internal(c, "failed to resolve active video")
		return
	}
	response.OK(c, v)
}

// Pin handles POST /contents/:id/pin: the administrator pins a video as
// active, bypassing the rotation schedule until unpinned or rotated over.
func (h *Handler) Pin(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req PinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	videos, err := h.repo.ListVideos(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load videos")
		return
	}
	found := false
	for _, v := range videos {
		if v.ID == req.VideoID {
			found = true
			break
		}
	}
	if !found {
		response.NotFound(c, "video does not belong to this content")
		return
	}
	if err := h.repo.SetActiveVideo(c.Request.Context(), id, &req.VideoID); err != nil {
		response.Internal(c, "failed to pin video")
		return
	}
	if h.hub != nil {
		h.hub.BroadcastToContent(id, "video_changed", gin.H{"content_id": id, "video_id": req.VideoID})
	}
	response.OK(c, gin.H{"content_id": id, "video_id": req.VideoID})
}

// Unpin handles DELETE /contents/:id/pin.
func (h *Handler) Unpin(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.repo.SetActiveVideo(c.Request.Context(), id, nil); err != nil {
		response.Internal(c, "failed to unpin video")
		return
	}
	response.NoContent(c)
}
