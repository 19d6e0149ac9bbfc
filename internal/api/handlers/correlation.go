package handlers

import (
	"context"
	"errors"
	"math"
	"net/http"
	"time"

	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/cache"
	"github.com/spuriolabs/spurio/internal/engine"
	"github.com/spuriolabs/spurio/internal/models"
	"github.com/spuriolabs/spurio/internal/observability"
	"github.com/spuriolabs/spurio/internal/telemetry"
	"github.com/spuriolabs/spurio/pkg/stats"
)

// smoothingPeriod is the SMA window drawn over each series in chart payloads.
const smoothingPeriod = 6

// Generator is the slice of the engine the correlation endpoints need.
type Generator interface {
	Generate(ctx context.Context, n int) (*models.CorrelationRecord, error)
}

// Notifier announces standout correlations on an external channel.
type Notifier interface {
	Enabled() bool
	NotifyDiscovery(ctx context.Context, record *models.CorrelationRecord) error
}

// CorrelationHandler serves correlation generation and chart rebuild requests.
type CorrelationHandler struct {
	generator      Generator
	records        cache.RecordStore
	notifier       Notifier
	tracer         *telemetry.BusinessTracer
	sampleSize     int
	shareThreshold float64
	logger         *logrus.Logger
}

// NewCorrelationHandler creates the handler. The notifier may be nil; a
// non-positive sample size falls back to the engine default of 8.
func NewCorrelationHandler(generator Generator, records cache.RecordStore, notifier Notifier, shareThreshold float64, sampleSize int, logger *logrus.Logger) *CorrelationHandler {
	if sampleSize <= 0 {
		sampleSize = 8
	}
	if logger == nil {
		logger = logrus.New()
	}
	return &CorrelationHandler{
		generator:      generator,
		records:        records,
		notifier:       notifier,
		tracer:         telemetry.NewBusinessTracer(),
		sampleSize:     sampleSize,
		shareThreshold: shareThreshold,
		logger:         logger,
	}
}

// GetRandomCorrelation runs one engine pass and returns the strongest
// accepted correlation. An empty search is 503: the client should simply try
// again, nothing is broken.
func (h *CorrelationHandler) GetRandomCorrelation(c *gin.Context) {
	ctx, span := h.tracer.TraceGeneration(c.Request.Context(), h.sampleSize)
	defer span.End()

	started := time.Now()
	record, err := h.generator.Generate(ctx, h.sampleSize)
	if err != nil {
		if errors.Is(err, engine.ErrNoCorrelation) {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"error":   "No correlation found",
				"message": "The search came up empty this time, try again shortly",
			})
			return
		}
		// Anything else is a configuration mistake (unknown method) or a bug,
		// and both are worth reporting.
		h.logger.WithError(err).Error("Correlation generation failed")
		observability.CaptureException(ctx, err)
		telemetry.RecordError(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to generate correlation",
		})
		return
	}

	h.tracer.RecordGenerationResult(span, telemetry.GenerationResult{
		CorrelationID: record.ID,
		Method:        record.Method,
		Coefficient:   record.Coefficient,
		PValue:        record.PValue,
		OverlapPoints: record.SampleSize(),
		Duration:      time.Since(started),
	})

	if err := h.records.Put(ctx, record); err != nil {
		// The record is still served; only the graph and feedback follow-ups
		// will miss it.
		h.logger.WithError(err).WithField("correlation_id", record.ID).
			Warn("Failed to store correlation record")
	}

	h.maybeShare(record)

	c.JSON(http.StatusOK, record)
}

// maybeShare announces the record on the configured channel when its strength
// clears the share threshold. Delivery runs in the background so a slow
// Telegram API never delays the response.
func (h *CorrelationHandler) maybeShare(record *models.CorrelationRecord) {
	if h.notifier == nil || !h.notifier.Enabled() {
		return
	}
	if math.Abs(record.Coefficient) < h.shareThreshold {
		return
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		ctx, span := h.tracer.TraceNotification(ctx, "telegram")
		defer span.End()

		err := h.notifier.NotifyDiscovery(ctx, record)
		h.tracer.RecordNotificationResult(span, err == nil, err)
		if err != nil {
			h.logger.WithError(err).WithField("correlation_id", record.ID).
				Warn("Failed to announce correlation")
		}
	}()
}

// GetCorrelationGraph rebuilds the chart payload for a stored record: both
// transformed series, an SMA overlay per series, and the least-squares trend
// of series B against series A.
func (h *CorrelationHandler) GetCorrelationGraph(c *gin.Context) {
	id := c.Param("id")
	if id == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Correlation id is required"})
		return
	}

	ctx, span := h.tracer.TraceChartBuild(c.Request.Context(), id)
	defer span.End()

	record, err := h.records.Get(ctx, id)
	if err != nil {
		if errors.Is(err, cache.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error":   "Correlation not found",
				"message": "The record expired or never existed, generate a new one",
			})
			return
		}
		h.logger.WithError(err).WithField("correlation_id", id).Error("Failed to load correlation record")
		observability.CaptureException(ctx, err)
		telemetry.RecordError(span, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load correlation"})
		return
	}

	c.JSON(http.StatusOK, buildChartData(record))
}

// buildChartData turns a stored record into a drawable payload.
func buildChartData(record *models.CorrelationRecord) *models.ChartData {
	labels := make([]string, len(record.PointsA))
	valuesA := make([]float64, len(record.PointsA))
	valuesB := make([]float64, len(record.PointsB))
	for i, p := range record.PointsA {
		labels[i] = p.Timestamp.Format("2006-01")
		valuesA[i] = p.Value
	}
	for i, p := range record.PointsB {
		valuesB[i] = p.Value
	}

	slope, intercept := stats.LinearRegression(valuesA, valuesB)

	datasets := []models.ChartDataset{
		{Label: record.NameA, Values: valuesA},
		{Label: record.NameB, Values: valuesB},
	}
	if len(valuesA) >= smoothingPeriod {
		datasets = append(datasets,
			models.ChartDataset{Label: record.NameA + " (smoothed)", Values: smooth(valuesA)},
			models.ChartDataset{Label: record.NameB + " (smoothed)", Values: smooth(valuesB)},
		)
	}

	return &models.ChartData{
		CorrelationID: record.ID,
		Labels:        labels,
		Datasets:      datasets,
		TrendSlope:    slope,
		TrendOffset:   intercept,
		Coefficient:   record.Coefficient,
		PValue:        record.PValue,
	}
}

// smooth computes a simple moving average over the values. The output is
// shorter than the input by period-1 points.
func smooth(values []float64) []float64 {
	sma := trend.NewSmaWithPeriod[float64](smoothingPeriod)
	return helper.ChanToSlice(sma.Compute(helper.SliceToChan(values)))
}
