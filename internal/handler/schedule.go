package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/forgo/herald/internal/model"
)

// ScheduleManager lists and cancels pending posts
type ScheduleManager interface {
	ListScheduled() []model.PendingPost
	CancelScheduled(postID string) error
}

// HistoryReader reads publish history
type HistoryReader interface {
	History(ctx context.Context, limit int) ([]*model.PublishRecord, error)
	PostHistory(ctx context.Context, postID string) ([]*model.PublishRecord, error)
}

// ScheduleHandler serves the operator endpoints for scheduled posts
type ScheduleHandler struct {
	schedule ScheduleManager
	history  HistoryReader
}

// NewScheduleHandler creates a new schedule handler
func NewScheduleHandler(schedule ScheduleManager, history HistoryReader) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule, history: history}
}

// List handles GET /api/marketing/schedule
func (h *ScheduleHandler) List(w http.ResponseWriter, r *http.Request) {
	pending := h.schedule.ListScheduled()
	WriteCollection(w, http.StatusOK, pending, len(pending), nil)
}

// Cancel handles DELETE /api/marketing/schedule/{postId}
func (h *ScheduleHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postId")
	if postID == "" {
		WriteError(w, model.NewBadRequestError("post ID is required"))
		return
	}
	if err := h.schedule.CancelScheduled(postID); err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteNoContent(w)
}

// History handles GET /api/marketing/history
func (h *ScheduleHandler) History(w http.ResponseWriter, r *http.Request) {
	limit := model.DefaultHistoryLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > model.MaxHistoryLimit {
			WriteError(w, model.NewValidationError([]model.FieldError{{
				Field:   "limit",
				Message: "limit must be between 1 and " + strconv.Itoa(model.MaxHistoryLimit),
			}}))
			return
		}
		limit = n
	}

	records, err := h.history.History(r.Context(), limit)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteCollection(w, http.StatusOK, records, len(records), nil)
}

// PostHistory handles GET /api/marketing/history/{postId}
func (h *ScheduleHandler) PostHistory(w http.ResponseWriter, r *http.Request) {
	postID := r.PathValue("postId")
	records, err := h.history.PostHistory(r.Context(), postID)
	if err != nil {
		WriteError(w, MapServiceError(err))
		return
	}
	WriteCollection(w, http.StatusOK, records, len(records), nil)
}
