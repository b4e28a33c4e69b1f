package videos

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumen-ar/backend/internal/contents"
	"github.com/lumen-ar/backend/internal/models"
	"github.com/lumen-ar/backend/pkg/queue"
	"github.com/lumen-ar/backend/pkg/response"
	"github.com/lumen-ar/backend/pkg/storage"
)

// GenerateUploadURLRequest is the body for POST /contents/:id/videos/generate-upload-url.
type GenerateUploadURLRequest struct {
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
	FileSize    int64  `json:"file_size" binding:"required,gt=0"`
}

// CreateRequest is the body for POST /contents/:id/videos (after the client
// uploaded via presigned URL).
type CreateRequest struct {
	S3Key         string     `json:"s3_key" binding:"required"`
	FileType      string     `json:"file_type" binding:"required"`
	FileSize      int64      `json:"file_size" binding:"required,gt=0"`
	ScheduleStart *time.Time `json:"schedule_start"`
	ScheduleEnd   *time.Time `json:"schedule_end"`
	RotationOrder *int       `json:"rotation_order"`
}

// ImportRequest is the body for POST /contents/:id/videos/import.
type ImportRequest struct {
	SourceURL string `json:"source_url" binding:"required,url"`
}

// SettingsRequest is the body for PATCH /videos/:id.
type SettingsRequest struct {
	ScheduleStart *time.Time `json:"schedule_start"`
	ScheduleEnd   *time.Time `json:"schedule_end"`
	RotationOrder *int       `json:"rotation_order"`
}

// Handler handles video asset HTTP endpoints.
type Handler struct {
	repo        *Repository
	contentRepo *contents.Repository
	s3          *storage.S3
	queue       *queue.Queue
	logger      *zap.Logger
}

// NewHandler creates a video handler.
func NewHandler(repo *Repository, contentRepo *contents.Repository, s3 *storage.S3, q *queue.Queue, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, contentRepo: contentRepo, s3: s3, queue: q, logger: logger}
}

func (h *Handler) contentFromParam(c *gin.Context) (*models.ContentItem, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid content id")
		return nil, false
	}
	item, err := h.contentRepo.GetContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load content")
		return nil, false
	}
	if item == nil {
		response.NotFound(c, "content not found")
		return nil, false
	}
	return item, true
}

func parseVideoID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid video id")
		return 0, false
	}
	return id, true
}

// ListByContent handles GET /contents/:id/videos.
func (h *Handler) ListByContent(c *gin.Context) {
	item, ok := h.contentFromParam(c)
	if !ok {
		return
	}
	list, err := h.repo.ListByContent(c.Request.Context(), item.ID)
	if err != nil {
		response.Internal(c, "failed to list videos")
		return
	}
	response.OK(c, list)
}

// Upload handles POST /contents/:id/videos/upload: server-side multipart
// upload streamed to S3, then the video row is inserted.
func (h *Handler) Upload(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	item, ok := h.contentFromParam(c)
	if !ok {
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.BadRequest(c, "missing file (form field: file)")
		return
	}
	if file.Size > storage.MaxVideoFileSize {
		response.BadRequest(c, "file size exceeds 200MB limit")
		return
	}
	contentType := file.Header.Get("Content-Type")
	if !storage.ValidateVideoFileType(contentType, file.Filename) {
		response.BadRequest(c, "invalid file type: only mp4, webm and mov video allowed")
		return
	}
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(file.Filename)
	}

	key := storage.VideoKey(item.ID, file.Filename)
	rc, err := file.Open()
	if err != nil {
		h.logger.Error("open uploaded file failed", zap.Error(err))
		response.Internal(c, "failed to read file")
		return
	}
	defer rc.Close()

	fileURL, err := h.s3.Upload(c.Request.Context(), h.s3.VideosBucket(), key, contentType, rc, file.Size, true)
	if err != nil {
		h.logger.Error("S3 upload failed", zap.Error(err), zap.Int64("content_id", item.ID), zap.String("key", key))
		response.Internal(c, "failed to upload file to storage")
		return
	}

	v := &models.Video{
		ContentID: item.ID,
		FileURL:   fileURL,
		FileType:  contentType,
		FileSize:  file.Size,
		S3Key:     key,
	}
	if err := h.repo.Create(c.Request.Context(), v); err != nil {
		h.logger.Error("create video failed", zap.Error(err), zap.Int64("content_id", item.ID))
		response.Internal(c, "failed to save video")
		return
	}
	response.Created(c, v)
}

// GenerateUploadURL handles POST /contents/:id/videos/generate-upload-url:
// presigned PUT for direct browser upload.
func (h *Handler) GenerateUploadURL(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	item, ok := h.contentFromParam(c)
	if !ok {
		return
	}
	var req GenerateUploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.FileSize > storage.MaxVideoFileSize {
		response.BadRequest(c, "file size exceeds 200MB limit")
		return
	}
	if !storage.ValidateVideoFileType(req.ContentType, req.Filename) {
		response.BadRequest(c, "invalid file type: only mp4, webm and mov video allowed")
		return
	}
	contentType := req.ContentType
	if contentType == "" {
		contentType = storage.ContentTypeForFilename(req.Filename)
	}

	key := storage.VideoKey(item.ID, req.Filename)
	expire := h.s3.PresignExpire()
	url, err := h.s3.GeneratePresignedUploadURL(c.Request.Context(), h.s3.VideosBucket(), key, contentType, expire)
	if err != nil {
		h.logger.Error("generate presigned upload URL failed", zap.Error(err), zap.Int64("content_id", item.ID))
		response.Internal(c, "S3 upload unavailable")
		return
	}
	response.OK(c, gin.H{
		"upload_url":   url,
		"s3_key":       key,
		"content_type": contentType,
		"expires_in":   int(expire.Seconds()),
	})
}

// Create handles POST /contents/:id/videos: registers a video after the
// client uploaded it through a presigned URL.
func (h *Handler) Create(c *gin.Context) {
	if h.s3 == nil {
		response.Internal(c, "S3 not configured")
		return
	}
	item, ok := h.contentFromParam(c)
	if !ok {
		return
	}
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	// The client claims it finished the presigned upload; verify the object
	// is actually there before registering a row pointing at nothing.
	if _, err := h.s3.HeadObject(c.Request.Context(), h.s3.VideosBucket(), req.S3Key); err != nil {
		response.BadRequest(c, "uploaded object not found in storage")
		return
	}
	v := &models.Video{
		ContentID:     item.ID,
		FileURL:       h.s3.PublicObjectURL(h.s3.VideosBucket(), req.S3Key),
		FileType:      req.FileType,
		FileSize:      req.FileSize,
		S3Key:         req.S3Key,
		ScheduleStart: req.ScheduleStart,
		ScheduleEnd:   req.ScheduleEnd,
		RotationOrder: req.RotationOrder,
	}
	if err := h.repo.Create(c.Request.Context(), v); err != nil {
		h.logger.Error("create video failed", zap.Error(err), zap.Int64("content_id", item.ID))
		response.Internal(c, "failed to save video")
		return
	}
	response.Created(c, v)
}

// Import handles POST /contents/:id/videos/import: enqueues a background job
// that downloads the source URL and stores it as a new video.
func (h *Handler) Import(c *gin.Context) {
	if h.queue == nil {
		response.ServiceUnavailable(c, "import queue not configured")
		return
	}
	item, ok := h.contentFromParam(c)
	if !ok {
		return
	}
	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if err := h.queue.EnqueueVideoImport(c.Request.Context(), queue.VideoImportPayload{
		ContentID: item.ID,
		SourceURL: req.SourceURL,
	}); err != nil {
		h.logger.Error("enqueue video import failed", zap.Error(err), zap.Int64("content_id", item.ID))
		response.Internal(c, "failed to enqueue import")
		return
	}
	response.OK(c, gin.H{"content_id": item.ID, "status": "queued"})
}

// UpdateSettings handles PATCH /videos/:id: validity window and rotation order.
func (h *Handler) UpdateSettings(c *gin.Context) {
	id, ok := parseVideoID(c)
	if !ok {
		return
	}
	var req SettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}
	if req.ScheduleStart != nil && req.ScheduleEnd != nil && !req.ScheduleEnd.After(*req.ScheduleStart) {
		response.BadRequest(c, "schedule_end must be after schedule_start")
		return
	}
	v, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load video")
		return
	}
	if v == nil {
		response.NotFound(c, "video not found")
		return
	}
	v.ScheduleStart = req.ScheduleStart
	v.ScheduleEnd = req.ScheduleEnd
	v.RotationOrder = req.RotationOrder
	if err := h.repo.UpdateSettings(c.Request.Context(), v); err != nil {
		response.Internal(c, "failed to update video")
		return
	}
	response.OK(c, v)
}

// Delete handles DELETE /videos/:id. The S3 object is removed best-effort;
// rotation sequences keep the id and the driver skips over it.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseVideoID(c)
	if !ok {
		return
	}
	v, err := h.repo.GetByID(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load video")
		return
	}
	if v == nil {
		response.NotFound(c, "video not found")
		return
	}
	if err := h.repo.Delete(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete video")
		return
	}
	if h.s3 != nil && v.S3Key != "" {
		if err := h.s3.DeleteVideo(c.Request.Context(), v.S3Key); err != nil {
			h.logger.Warn("delete S3 object failed", zap.Error(err), zap.String("key", v.S3Key))
		}
	}
	response.NoContent(c)
}
