package schedules

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/lumen-ar/backend/internal/contents"
	"github.com/lumen-ar/backend/internal/models"
	"github.com/lumen-ar/backend/internal/rotation"
	"github.com/lumen-ar/backend/pkg/response"
)

// PutRequest is the body for PUT /contents/:id/schedule. It creates the
// schedule when none exists yet and replaces it otherwise.
type PutRequest struct {
	Kind       models.PatternKind `json:"kind" binding:"required"`
	Hour       int                `json:"hour"`
	Minute     int                `json:"minute"`
	DayOfWeek  *int               `json:"day_of_week"`
	DayOfMonth *int               `json:"day_of_month"`
	VideoIDs   []int64            `json:"video_ids"`
	IsEnabled  *bool              `json:"is_enabled"`
}

// Handler handles rotation schedule HTTP endpoints.
type Handler struct {
	repo        *Repository
	contentRepo *contents.Repository
	clock       rotation.Clock
	logger      *zap.Logger
}

// NewHandler creates a schedule handler.
func NewHandler(repo *Repository, contentRepo *contents.Repository, clock rotation.Clock, logger *zap.Logger) *Handler {
	if clock == nil {
		clock = rotation.SystemClock{}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{repo: repo, contentRepo: contentRepo, clock: clock, logger: logger}
}

func (h *Handler) contentID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		response.BadRequest(c, "invalid content id")
		return 0, false
	}
	return id, true
}

// Get handles GET /contents/:id/schedule.
func (h *Handler) Get(c *gin.Context) {
	id, ok := h.contentID(c)
	if !ok {
		return
	}
	s, err := h.repo.GetByContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load schedule")
		return
	}
	if s == nil {
		response.NotFound(c, "no schedule for this content")
		return
	}
	response.OK(c, s)
}

// Put handles PUT /contents/:id/schedule. The pattern is validated through
// the occurrence calculator before anything is persisted, and the initial
// next_fire_at is computed from the current time. Replacing a schedule
// resets the cursor.
func (h *Handler) Put(c *gin.Context) {
	id, ok := h.contentID(c)
	if !ok {
		return
	}
	var req PutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request: "+err.Error())
		return
	}

	item, err := h.contentRepo.GetContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load content")
		return
	}
	if item == nil {
		response.NotFound(c, "content not found")
		return
	}

	s := &models.RotationSchedule{
		ContentID:  id,
		Kind:       req.Kind,
		Hour:       req.Hour,
		Minute:     req.Minute,
		DayOfWeek:  req.DayOfWeek,
		DayOfMonth: req.DayOfMonth,
		VideoIDs:   req.VideoIDs,
		Cursor:     0,
		IsEnabled:  true,
	}
	if req.IsEnabled != nil {
		s.IsEnabled = *req.IsEnabled
	}
	p := rotation.PatternOf(s)
	if err := rotation.ValidatePattern(p); err != nil {
		if errors.Is(err, rotation.ErrInvalidSchedule) {
			response.BadRequest(c, err.Error())
			return
		}
		response.Internal(c, "failed to validate schedule")
		return
	}
	s.NextFireAt = rotation.NextOccurrence(h.clock.Now(), p)

	existing, err := h.repo.GetByContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load schedule")
		return
	}
	if existing == nil {
		if err := h.repo.Create(c.Request.Context(), s); err != nil {
			h.logger.Error("create schedule failed", zap.Error(err), zap.Int64("content_id", id))
			response.Internal(c, "failed to create schedule")
			return
		}
		response.Created(c, s)
		return
	}
	s.ID = existing.ID
	if err := h.repo.Update(c.Request.Context(), s); err != nil {
		h.logger.Error("update schedule failed", zap.Error(err), zap.Int64("content_id", id))
		response.Internal(c, "failed to update schedule")
		return
	}
	response.OK(c, s)
}

// Enable handles POST /contents/:id/schedule/enable.
func (h *Handler) Enable(c *gin.Context) {
	h.setEnabled(c, true)
}

// Disable handles POST /contents/:id/schedule/disable.
func (h *Handler) Disable(c *gin.Context) {
	h.setEnabled(c, false)
}

func (h *Handler) setEnabled(c *gin.Context, enabled bool) {
	id, ok := h.contentID(c)
	if !ok {
		return
	}
	s, err := h.repo.GetByContent(c.Request.Context(), id)
	if err != nil {
		response.Internal(c, "failed to load schedule")
		return
	}
	if s == nil {
		response.NotFound(c, "no schedule for this content")
		return
	}
	if err := h.repo.SetEnabled(c.Request.Context(), id, enabled); err != nil {
		response.Internal(c, "failed to update schedule")
		return
	}
	s.IsEnabled = enabled
	response.OK(c, s)
}

// Delete handles DELETE /contents/:id/schedule.
func (h *Handler) Delete(c *gin.Context) {
	id, ok := h.contentID(c)
	if !ok {
		return
	}
	if err := h.repo.DeleteByContent(c.Request.Context(), id); err != nil {
		response.Internal(c, "failed to delete schedule")
		return
	}
	response.NoContent(c)
}
