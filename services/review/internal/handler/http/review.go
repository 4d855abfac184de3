package http

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/utafrali/bookreview/pkg/httputil"
	"github.com/utafrali/bookreview/pkg/validator"
	"github.com/utafrali/bookreview/services/review/internal/service"
)

// ReviewHandler serves the /reviews endpoints.
type ReviewHandler struct {
	service *service.ReviewService
	logger  *slog.Logger
}

// NewReviewHandler creates a ReviewHandler.
func NewReviewHandler(svc *service.ReviewService, logger *slog.Logger) *ReviewHandler {
	return &ReviewHandler{
		service: svc,
		logger:  logger,
	}
}

// ReviewRequest is the body of POST /reviews. reviewer_name and comment are
// accepted as older spellings of reviewer and content.
type ReviewRequest struct {
	BookID       int64   `json:"book_id" validate:"required,gt=0"`
	Reviewer     string  `json:"reviewer" validate:"required_without=ReviewerName,max=255"`
	ReviewerName string  `json:"reviewer_name" validate:"max=255"`
	Content      *string `json:"content"`
	Comment      *string `json:"comment"`
	Rating       *int    `json:"rating" validate:"required"`
}

func (req ReviewRequest) input() service.ReviewInput {
	in := service.ReviewInput{
		BookID:   req.BookID,
		Reviewer: req.Reviewer,
		Content:  req.Content,
		Rating:   *req.Rating,
	}
	if in.Reviewer == "" {
		in.Reviewer = req.ReviewerName
	}
	if in.Content == nil {
		in.Content = req.Comment
	}
	return in
}

// ListReviews handles GET /reviews?book_id={id}
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	var bookID *int64
	if raw := r.URL.Query().Get("book_id"); raw != "" {
		id, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || id <= 0 {
			httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorEnvelope{
				Error: &httputil.ErrorResponse{
					Code:    "INVALID_PARAMETER",
					Message: "invalid book_id: " + raw,
				},
			})
			return
		}
		bookID = &id
	}

	reviews, err := h.service.ListReviews(r.Context(), bookID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, reviews)
}

// GetReview handles GET /reviews/{id}
func (h *ReviewHandler) GetReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	review, err := h.service.GetReview(r.Context(), id)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, review)
}

// CreateReview handles POST /reviews
func (h *ReviewHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	var req ReviewRequest
	if err := validator.DecodeAndValidate(w, r, &req); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	review, err := h.service.CreateReview(r.Context(), req.input())
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, review)
}

// DeleteReview handles DELETE /reviews/{id}
func (h *ReviewHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	id, ok := httputil.ParseID(w, chi.URLParam(r, "id"))
	if !ok {
		return
	}

	if err := h.service.DeleteReview(r.Context(), id); err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	httputil.WriteNoContent(w)
}
