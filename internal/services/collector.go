package services

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/config"
	"github.com/spuriolabs/spurio/internal/datasets"
	"github.com/spuriolabs/spurio/internal/models"
)

// syntheticAttemptBudget bounds the duplicate-name retry loop per requested
// series. The catalog is finite, so a pool request larger than the catalog
// would otherwise never terminate.
const syntheticAttemptBudget = 10

// IndicatorFetcher retrieves one indicator series for one country from an
// external statistics API.
type IndicatorFetcher interface {
	FetchIndicator(ctx context.Context, country, indicator string) (models.Series, error)
}

// CollectorService assembles the dataset pools the engine draws from. Each
// pool mixes a small number of real indicator series with curated fallback
// statistics and synthetic series, in that order. Real sources are best
// effort: a failed fetch is logged and the slot is filled with generated
// data instead, so a network outage degrades the pool rather than the
// service.
type CollectorService struct {
	worldBank IndicatorFetcher
	breaker   *CircuitBreaker
	retrier   *Retrier
	generator *datasets.Generator
	cfg       config.DatasetsConfig
	logger    *logrus.Logger
	rng       *rand.Rand
	mu        sync.Mutex
}

// NewCollectorService creates a collector backed by the given indicator
// fetcher. A zero SyntheticSeed seeds from the clock; any other value makes
// pool assembly reproducible.
func NewCollectorService(worldBank IndicatorFetcher, cfg config.DatasetsConfig, logger *logrus.Logger) *CollectorService {
	if logger == nil {
		logger = logrus.New()
	}

	seed := cfg.SyntheticSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	return &CollectorService{
		worldBank: worldBank,
		breaker:   NewCircuitBreaker("world_bank", BreakerConfig{}, logger),
		retrier:   NamedRetrier("api_call", logger),
		generator: datasets.NewGenerator(rng.Int63(), cfg.WorldBank.StartYear, cfg.WorldBank.EndYear),
		cfg:       cfg,
		logger:    logger,
		rng:       rng,
	}
}

// Fetch implements the engine's dataset provider contract. It returns up to
// count uniquely named series and comes up short without error once every
// source has run dry.
func (c *CollectorService) Fetch(ctx context.Context, count int) (models.Pool, error) {
	if count <= 0 {
		return models.Pool{}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	pool := make(models.Pool, 0, count)
	seen := make(map[string]bool, count)

	realTarget := count / 2
	if realTarget > c.cfg.MaxReal {
		realTarget = c.cfg.MaxReal
	}
	for _, s := range c.fetchReal(ctx, realTarget) {
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		pool = append(pool, s)
	}
	realCount := len(pool)

	// At most two curated fallback series pad the pool when real sources
	// come up short.
	if len(pool) < count {
		budget := count - len(pool)
		if budget > 2 {
			budget = 2
		}
		for _, s := range datasets.FallbackSeries(c.rng) {
			if budget == 0 {
				break
			}
			if seen[s.Name] {
				continue
			}
			seen[s.Name] = true
			pool = append(pool, s)
			budget--
		}
	}
	fallbackCount := len(pool) - realCount

	attempts := 0
	for len(pool) < count && attempts < syntheticAttemptBudget*count {
		attempts++
		s := c.generator.Random()
		if seen[s.Name] {
			continue
		}
		seen[s.Name] = true
		pool = append(pool, s)
	}

	c.logger.WithFields(logrus.Fields{
		"requested": count,
		"total":     len(pool),
		"real":      realCount,
		"fallback":  fallbackCount,
		"synthetic": len(pool) - realCount - fallbackCount,
	}).Info("Assembled dataset pool")

	return pool, nil
}

type indicatorCombo struct {
	country   string
	indicator string
}

// fetchReal walks a shuffled deck of country and indicator combinations
// until it has collected want usable series or the deck is exhausted.
func (c *CollectorService) fetchReal(ctx context.Context, want int) []models.Series {
	if want <= 0 || c.worldBank == nil {
		return nil
	}

	series := make([]models.Series, 0, want)
	for _, combo := range c.indicatorCombos() {
		if len(series) >= want {
			break
		}
		select {
		case <-ctx.Done():
			c.logger.WithError(ctx.Err()).Debug("Stopping real data collection early")
			return series
		default:
		}

		var s models.Series
		err := c.breaker.Execute(ctx, func(ctx context.Context) error {
			return c.retrier.Do(ctx, "world_bank_fetch", func(ctx context.Context) error {
				var fetchErr error
				s, fetchErr = c.worldBank.FetchIndicator(ctx, combo.country, combo.indicator)
				return fetchErr
			})
		})
		if err != nil {
			if errors.Is(err, ErrBreakerOpen) {
				// The API is considered down; stop burning the deck on it.
				c.logger.Debug("World Bank breaker open, skipping real data this pool")
				return series
			}
			c.logger.WithError(err).WithFields(logrus.Fields{
				"country":   combo.country,
				"indicator": combo.indicator,
			}).Warn("Failed to fetch indicator, skipping")
			continue
		}
		if usable := usablePoints(s); usable < 2 {
			c.logger.WithFields(logrus.Fields{
				"series":        s.Name,
				"usable_points": usable,
			}).Debug("Discarding indicator series with too few observations")
			continue
		}
		series = append(series, s)
	}
	return series
}

func (c *CollectorService) indicatorCombos() []indicatorCombo {
	countries := c.cfg.WorldBank.Countries
	indicators := c.cfg.WorldBank.Indicators

	combos := make([]indicatorCombo, 0, len(countries)*len(indicators))
	for _, country := range countries {
		for _, indicator := range indicators {
			combos = append(combos, indicatorCombo{country: country, indicator: indicator})
		}
	}
	c.rng.Shuffle(len(combos), func(i, j int) {
		combos[i], combos[j] = combos[j], combos[i]
	})
	return combos
}

// AvailableDatasets reports how many uniquely named series the collector can
// produce across all of its sources. The single curated fallback series
// counts as one.
func (c *CollectorService) AvailableDatasets() int {
	wb := len(c.cfg.WorldBank.Countries) * len(c.cfg.WorldBank.Indicators)
	return wb + len(datasets.Catalog()) + 1
}

func usablePoints(s models.Series) int {
	n := 0
	for _, p := range s.Points {
		if !p.Missing() {
			n++
		}
	}
	return n
}
