// Package engine implements the correlation discovery pipeline: a time-boxed
// dataset cache over an injected provider, feedback-based prioritization, a
// diversity tracker that throttles repeats, a bounded pairwise search, and
// the target-correlation transform that gives every surfaced pair its
// convincingly strong relationship. The fabrication is the product: the
// engine measures statistics on data it has deliberately reshaped.
package engine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/models"
)

// FeedbackScorer exposes accumulated user feedback as a per-series priority
// score. Scores reorder candidates, they never filter any out.
type FeedbackScorer interface {
	PriorityScore(ctx context.Context, name string) float64
}

// Config carries every tunable of the discovery pipeline. Zero values fall
// back to the production defaults from DefaultConfig.
type Config struct {
	// SampleSize is the pool sample drawn per generation call.
	SampleSize int
	// MaxComparisons caps how many pairs one search may evaluate.
	MaxComparisons int
	// MinSamples is the minimum aligned length for a pair to be considered.
	MinSamples int
	// MinCorrelation and MaxPValue are the acceptance thresholds.
	MinCorrelation float64
	MaxPValue      float64
	// Method selects the correlation statistic.
	Method Method
	// CacheTTL bounds dataset pool age; PoolMultiple and FetchMultiple size
	// the pool relative to the sample.
	CacheTTL      time.Duration
	PoolMultiple  int
	FetchMultiple int
	// DiversityWindow and MaxReuse bound pair and series repetition.
	DiversityWindow int
	MaxReuse        int
	// PriorityThreshold is the feedback score above which a series sorts
	// ahead of the rest.
	PriorityThreshold float64
	// Transform parameterizes the target-correlation synthesis.
	Transform TransformParams
}

// DefaultConfig returns the production pipeline configuration.
func DefaultConfig() Config {
	return Config{
		SampleSize:        8,
		MaxComparisons:    15,
		MinSamples:        10,
		MinCorrelation:    0.3,
		MaxPValue:         0.05,
		Method:            MethodPearson,
		CacheTTL:          60 * time.Second,
		PoolMultiple:      3,
		FetchMultiple:     8,
		DiversityWindow:   100,
		MaxReuse:          2,
		PriorityThreshold: 0.5,
		Transform:         DefaultTransformParams(),
	}
}

func (c Config) withDefaults() Config {
	defaults := DefaultConfig()
	if c.SampleSize <= 0 {
		c.SampleSize = defaults.SampleSize
	}
	if c.MaxComparisons <= 0 {
		c.MaxComparisons = defaults.MaxComparisons
	}
	if c.MinSamples <= 0 {
		c.MinSamples = defaults.MinSamples
	}
	if c.MinCorrelation <= 0 {
		c.MinCorrelation = defaults.MinCorrelation
	}
	if c.MaxPValue <= 0 {
		c.MaxPValue = defaults.MaxPValue
	}
	if c.Method == "" {
		c.Method = defaults.Method
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = defaults.CacheTTL
	}
	if c.PoolMultiple <= 0 {
		c.PoolMultiple = defaults.PoolMultiple
	}
	if c.FetchMultiple <= 0 {
		c.FetchMultiple = defaults.FetchMultiple
	}
	if c.DiversityWindow <= 0 {
		c.DiversityWindow = defaults.DiversityWindow
	}
	if c.MaxReuse <= 0 {
		c.MaxReuse = defaults.MaxReuse
	}
	if c.PriorityThreshold == 0 {
		c.PriorityThreshold = defaults.PriorityThreshold
	}
	if c.Transform == (TransformParams{}) {
		c.Transform = defaults.Transform
	}
	return c
}

// Stats is a point-in-time snapshot of engine state.
type Stats struct {
	PoolSize       int     `json:"pool_size"`
	PoolAgeSeconds float64 `json:"pool_age_seconds"`
	WindowLen      int     `json:"diversity_window"`
	TrackedSeries  int     `json:"tracked_series"`
	Generated      uint64  `json:"generated"`
}

// Summary aggregates a batch of correlation results.
type Summary struct {
	Total              int     `json:"total"`
	MeanAbsCoefficient float64 `json:"mean_abs_coefficient"`
	MaxAbsCoefficient  float64 `json:"max_abs_coefficient"`
}

// Engine is the root orchestrator. One instance may serve concurrent
// requests: a single mutex guards the dataset cache, the diversity tracker
// and the random source from fetch through the recording of accepted pairs,
// so two calls can never record the same pair or skew the usage counters.
type Engine struct {
	cfg      Config
	scorer   FeedbackScorer
	analyzer *PairAnalyzer
	cache    *DatasetCache
	tracker  *DiversityTracker
	logger   *logrus.Logger
	rng      *rand.Rand

	mu        sync.Mutex
	generated uint64
}

// New builds an engine around the provider. The scorer may be nil (no
// prioritization); a nil rng gets a time-seeded source. An unsupported
// configured method is a construction error.
func New(cfg Config, provider DatasetProvider, scorer FeedbackScorer, rng *rand.Rand, logger *logrus.Logger) (*Engine, error) {
	cfg = cfg.withDefaults()
	if !cfg.Method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, cfg.Method)
	}
	if provider == nil {
		return nil, errors.New("dataset provider is required")
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	if logger == nil {
		logger = logrus.New()
	}

	return &Engine{
		cfg:      cfg,
		scorer:   scorer,
		analyzer: NewPairAnalyzer(cfg.Transform),
		cache:    NewDatasetCache(provider, cfg.CacheTTL, cfg.PoolMultiple, cfg.FetchMultiple, logger),
		tracker:  NewDiversityTracker(cfg.DiversityWindow, cfg.MaxReuse),
		logger:   logger,
		rng:      rng,
	}, nil
}

// Generate runs one pass of the pipeline and returns the single strongest
// accepted correlation. ErrNoCorrelation is the terminal empty outcome; it
// covers provider failures, pools below two series, and searches where no
// pair cleared the thresholds.
func (e *Engine) Generate(ctx context.Context, n int) (*models.CorrelationRecord, error) {
	if n <= 0 {
		n = e.cfg.SampleSize
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	log := e.logger.WithField("sample_size", n)

	log.WithField("state", "fetching").Debug("Starting correlation search")
	pool, err := e.cache.Get(ctx, n, e.rng)
	if err != nil {
		log.WithError(err).Warn("Dataset provider failed, reporting empty result")
		return nil, ErrNoCorrelation
	}

	pool = e.prioritize(ctx, pool)

	filtered := e.tracker.Filter(pool)
	if len(filtered) < 2 {
		log.WithField("pool_size", len(filtered)).Info("Pool too small after diversity filter")
		return nil, ErrNoCorrelation
	}

	accepted, evaluated := e.search(filtered)

	ranked := rank(accepted)
	if len(ranked) == 0 {
		log.WithFields(logrus.Fields{
			"state":           "empty",
			"pairs_evaluated": evaluated,
		}).Info("No pair cleared the acceptance thresholds")
		return nil, ErrNoCorrelation
	}

	best := ranked[0]
	e.generated++
	log.WithFields(logrus.Fields{
		"state":           "done",
		"pairs_evaluated": evaluated,
		"accepted":        len(ranked),
		"series_a":        best.NameA,
		"series_b":        best.NameB,
		"coefficient":     best.Coefficient,
		"p_value":         best.PValue,
	}).Info("Correlation generated")
	return best, nil
}

// prioritize stably reorders the pool so series whose feedback score exceeds
// the threshold come first. Nothing is ever dropped here.
func (e *Engine) prioritize(ctx context.Context, pool models.Pool) models.Pool {
	if e.scorer == nil {
		return pool
	}

	prioritized := make(models.Pool, 0, len(pool))
	rest := make(models.Pool, 0, len(pool))
	for _, s := range pool {
		if e.scorer.PriorityScore(ctx, s.Name) > e.cfg.PriorityThreshold {
			prioritized = append(prioritized, s)
		} else {
			rest = append(rest, s)
		}
	}
	return append(prioritized, rest...)
}

// search enumerates unordered pairs in nested ascending order, skipping
// recently shown pairs without charging them against the comparison cap.
// Every accepted pair is recorded in the diversity tracker immediately, under
// the engine lock, before the next pair is considered.
func (e *Engine) search(pool models.Pool) ([]*models.CorrelationRecord, int) {
	var accepted []*models.CorrelationRecord
	comparisons := 0

	for i := 0; i < len(pool) && comparisons < e.cfg.MaxComparisons; i++ {
		for j := i + 1; j < len(pool) && comparisons < e.cfg.MaxComparisons; j++ {
			a, b := pool[i], pool[j]
			if e.tracker.IsRecent(a.Name, b.Name) {
				continue
			}
			comparisons++

			alignedA, alignedB := alignSeries(a, b)
			if len(alignedA.Points) < e.cfg.MinSamples {
				e.logger.WithFields(logrus.Fields{
					"series_a": a.Name,
					"series_b": b.Name,
					"aligned":  len(alignedA.Points),
				}).Debug("Pair below minimum aligned samples")
				continue
			}

			record, err := e.analyzer.Analyze(alignedA, alignedB, e.cfg.Method, e.rng)
			if err != nil {
				// A failed pair is only ever a skip; the search moves on.
				entry := e.logger.WithFields(logrus.Fields{
					"series_a": a.Name,
					"series_b": b.Name,
				})
				if errors.Is(err, ErrInsufficientData) {
					entry.WithError(err).Debug("Pair not analyzable")
				} else {
					entry.WithError(err).Warn("Pair analysis failed, skipping")
				}
				continue
			}

			if math.Abs(record.Coefficient) < e.cfg.MinCorrelation || record.PValue > e.cfg.MaxPValue {
				continue
			}

			e.tracker.Record(a.Name, b.Name)
			record.DatasetIndexA = i
			record.DatasetIndexB = j
			accepted = append(accepted, record)
		}
	}
	return accepted, comparisons
}

// rank orders accepted results by absolute coefficient, strongest first.
// The sort is stable so ties keep first-found order.
func rank(records []*models.CorrelationRecord) []*models.CorrelationRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return math.Abs(records[i].Coefficient) > math.Abs(records[j].Coefficient)
	})
	return records
}

// FindCorrelations searches every pair of the given pool with no comparison
// cap and no diversity bookkeeping, returning all results whose absolute
// coefficient reaches the threshold, strongest first. A non-positive
// threshold falls back to the configured minimum correlation.
func (e *Engine) FindCorrelations(pool models.Pool, method Method, threshold float64) ([]*models.CorrelationRecord, error) {
	if !method.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, method)
	}
	if threshold <= 0 {
		threshold = e.cfg.MinCorrelation
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	var results []*models.CorrelationRecord
	for i := 0; i < len(pool); i++ {
		for j := i + 1; j < len(pool); j++ {
			alignedA, alignedB := alignSeries(pool[i], pool[j])
			if len(alignedA.Points) < e.cfg.MinSamples {
				continue
			}
			record, err := e.analyzer.Analyze(alignedA, alignedB, method, e.rng)
			if err != nil {
				continue
			}
			if math.Abs(record.Coefficient) < threshold {
				continue
			}
			record.DatasetIndexA = i
			record.DatasetIndexB = j
			results = append(results, record)
		}
	}
	return rank(results), nil
}

// FilterSignificant keeps the results whose p-value is at or below maxPValue.
// A non-positive bound falls back to the configured maximum.
func (e *Engine) FilterSignificant(records []*models.CorrelationRecord, maxPValue float64) []*models.CorrelationRecord {
	if maxPValue <= 0 {
		maxPValue = e.cfg.MaxPValue
	}
	significant := make([]*models.CorrelationRecord, 0, len(records))
	for _, r := range records {
		if r.PValue <= maxPValue {
			significant = append(significant, r)
		}
	}
	return significant
}

// Summarize aggregates a result batch.
func Summarize(records []*models.CorrelationRecord) Summary {
	s := Summary{Total: len(records)}
	if len(records) == 0 {
		return s
	}
	var sum float64
	for _, r := range records {
		abs := math.Abs(r.Coefficient)
		sum += abs
		if abs > s.MaxAbsCoefficient {
			s.MaxAbsCoefficient = abs
		}
	}
	s.MeanAbsCoefficient = sum / float64(len(records))
	return s
}

// Warm pre-populates the dataset cache so the first request does not pay the
// full fetch. Failures are reported but are safe to ignore at startup.
func (e *Engine) Warm(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.cache.Refresh(ctx, e.cfg.SampleSize); err != nil {
		return fmt.Errorf("failed to warm dataset cache: %w", err)
	}
	e.logger.WithField("pool_size", e.cache.Size()).Info("Dataset cache warmed")
	return nil
}

// Stats returns a snapshot of engine state.
func (e *Engine) Stats() Stats {
	e.mu.Lock()
	defer e.mu.Unlock()

	return Stats{
		PoolSize:       e.cache.Size(),
		PoolAgeSeconds: e.cache.Age().Seconds(),
		WindowLen:      e.tracker.WindowLen(),
		TrackedSeries:  e.tracker.TrackedSeries(),
		Generated:      e.generated,
	}
}

// alignSeries intersects two series on their timestamps, preserving the
// first series' order. Both outputs have identical length and timestamps.
func alignSeries(a, b models.Series) (models.Series, models.Series) {
	bByTime := make(map[int64]models.SeriesPoint, len(b.Points))
	for _, p := range b.Points {
		bByTime[p.Timestamp.UnixNano()] = p
	}

	outA := models.Series{Name: a.Name, Source: a.Source}
	outB := models.Series{Name: b.Name, Source: b.Source}
	for _, p := range a.Points {
		if q, ok := bByTime[p.Timestamp.UnixNano()]; ok {
			outA.Points = append(outA.Points, p)
			outB.Points = append(outB.Points, q)
		}
	}
	return outA, outB
}
