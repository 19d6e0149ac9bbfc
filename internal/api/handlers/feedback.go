package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/cache"
	"github.com/spuriolabs/spurio/internal/feedback"
	"github.com/spuriolabs/spurio/internal/models"
	"github.com/spuriolabs/spurio/internal/observability"
	"github.com/spuriolabs/spurio/internal/telemetry"
)

// FeedbackStore is the slice of the feedback store the handler needs.
type FeedbackStore interface {
	AddFeedback(ctx context.Context, input feedback.Input) (*models.FeedbackEvent, error)
	Stats(ctx context.Context) (*models.FeedbackStats, error)
}

// FeedbackHandler records audience ratings against stored correlations.
type FeedbackHandler struct {
	store   FeedbackStore
	records cache.RecordStore
	tracer  *telemetry.BusinessTracer
	logger  *logrus.Logger
}

// NewFeedbackHandler creates the handler.
func NewFeedbackHandler(store FeedbackStore, records cache.RecordStore, logger *logrus.Logger) *FeedbackHandler {
	if logger == nil {
		logger = logrus.New()
	}
	return &FeedbackHandler{
		store:   store,
		records: records,
		tracer:  telemetry.NewBusinessTracer(),
		logger:  logger,
	}
}

// FeedbackRequest is one rating submission. The series names are resolved
// from the stored record, never trusted from the client.
type FeedbackRequest struct {
	CorrelationID string `json:"correlation_id" binding:"required"`
	Rating        string `json:"rating" binding:"required"`
}

// SubmitFeedback applies one rating to the rated correlation's series.
func (h *FeedbackHandler) SubmitFeedback(c *gin.Context) {
	var req FeedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"message": "correlation_id and rating are required",
		})
		return
	}

	rating := models.FeedbackRating(req.Rating)
	if !rating.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Unknown rating",
			"message": "rating must be one of funny, intriguing, boring",
		})
		return
	}

	ctx, span := h.tracer.TraceFeedback(c.Request.Context(), req.Rating)
	defer span.End()

	record, err := h.records.Get(ctx, req.CorrelationID)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Correlation not found",
				"message": "The record expired or never existed",
			})
			return
		}
		h.logger.WithError(err).WithField("correlation_id", req.CorrelationID).
			Error("Failed to load correlation record for feedback")
		observability.CaptureException(ctx, err)
		telemetry.RecordError(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
		return
	}

	event, err := h.store.AddFeedback(ctx, feedback.Input{
		CorrelationID: record.ID,
		Rating:        rating,
		SeriesA:       record.NameA,
		SeriesB:       record.NameB,
	})
	if err != nil {
		if errors.Is(err, feedback.ErrUnknownRating) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Unknown rating"})
			return
		}
		h.logger.WithError(err).WithField("correlation_id", record.ID).Error("Failed to store feedback")
		observability.CaptureException(ctx, err)
		telemetry.RecordError(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to record feedback"})
		return
	}

	h.logger.WithFields(logrus.Fields{
		"correlation_id": record.ID,
		"rating":         rating,
	}).Info("Feedback recorded")

	c.JSON(http.StatusCreated, gin.H{
		"id":             event.ID,
		"correlation_id": event.CorrelationID,
		"rating":         event.Rating,
	})
}

// GetFeedbackStats serves aggregate feedback statistics.
func (h *FeedbackHandler) GetFeedbackStats(c *gin.Context) {
	stats, err := h.store.Stats(c.Request.Context())
	if err != nil {
		h.logger.WithError(err).Error("Failed to aggregate feedback stats")
		observability.CaptureException(c.Request.Context(), err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load feedback stats"})
		return
	}
	c.JSON(http.StatusOK, stats)
}
