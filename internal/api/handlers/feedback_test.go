package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spuriolabs/spurio/internal/feedback"
	"github.com/spuriolabs/spurio/internal/models"
)

func postJSON(router *gin.Engine, path string, payload interface{}) *httptest.ResponseRecorder {
	body, _ := json.Marshal(payload)
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func TestFeedbackHandler_SubmitFeedback(t *testing.T) {
	gin.SetMode(gin.TestMode)

	records := newRecordStore(t)
	record := testRecord("corr-fb", 0.75, 12)
	require.NoError(t, records.Put(context.Background(), record))

	store := feedback.NewMemoryStore(0.5)
	handler := NewFeedbackHandler(store, records, nil)

	router := gin.New()
	router.POST("/api/feedback", handler.SubmitFeedback)

	w := postJSON(router, "/api/feedback", FeedbackRequest{
		CorrelationID: "corr-fb",
		Rating:        "funny",
	})
	require.Equal(t, http.StatusCreated, w.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp["id"])
	assert.Equal(t, "corr-fb", resp["correlation_id"])

	// Both series of the rated pair got the funny delta.
	assert.InDelta(t, 1.0, store.PriorityScore(context.Background(), record.NameA), 1e-9)
	assert.InDelta(t, 1.0, store.PriorityScore(context.Background(), record.NameB), 1e-9)
}

func TestFeedbackHandler_SubmitFeedback_UnknownRating(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewFeedbackHandler(feedback.NewMemoryStore(0.5), newRecordStore(t), nil)
	router := gin.New()
	router.POST("/api/feedback", handler.SubmitFeedback)

	w := postJSON(router, "/api/feedback", FeedbackRequest{
		CorrelationID: "whatever",
		Rating:        "hilarious",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Unknown rating")
}

func TestFeedbackHandler_SubmitFeedback_MissingFields(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewFeedbackHandler(feedback.NewMemoryStore(0.5), newRecordStore(t), nil)
	router := gin.New()
	router.POST("/api/feedback", handler.SubmitFeedback)

	w := postJSON(router, "/api/feedback", map[string]string{"rating": "funny"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestFeedbackHandler_SubmitFeedback_RecordGone(t *testing.T) {
	gin.SetMode(gin.TestMode)

	handler := NewFeedbackHandler(feedback.NewMemoryStore(0.5), newRecordStore(t), nil)
	router := gin.New()
	router.POST("/api/feedback", handler.SubmitFeedback)

	w := postJSON(router, "/api/feedback", FeedbackRequest{
		CorrelationID: "expired",
		Rating:        "boring",
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestFeedbackHandler_GetFeedbackStats(t *testing.T) {
	gin.SetMode(gin.TestMode)

	records := newRecordStore(t)
	require.NoError(t, records.Put(context.Background(), testRecord("corr-s", 0.7, 12)))

	store := feedback.NewMemoryStore(0.5)
	_, err := store.AddFeedback(context.Background(), feedback.Input{
		CorrelationID: "corr-s",
		Rating:        models.RatingFunny,
		SeriesA:       "A",
		SeriesB:       "B",
	})
	require.NoError(t, err)
	_, err = store.AddFeedback(context.Background(), feedback.Input{
		CorrelationID: "corr-s",
		Rating:        models.RatingBoring,
		SeriesA:       "A",
		SeriesB:       "C",
	})
	require.NoError(t, err)

	handler := NewFeedbackHandler(store, records, nil)
	router := gin.New()
	router.GET("/api/feedback/stats", handler.GetFeedbackStats)

	w := performRequest(router, http.MethodGet, "/api/feedback/stats")
	require.Equal(t, http.StatusOK, w.Code)

	var stats models.FeedbackStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 1, stats.Funny)
	assert.Equal(t, 1, stats.Boring)
	assert.InDelta(t, 0.5, stats.FunnyRatio, 1e-9)
}
