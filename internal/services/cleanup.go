package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/spuriolabs/spurio/internal/config"
)

// FeedbackPruner removes feedback events recorded before a cutoff and
// reports how many were dropped.
type FeedbackPruner interface {
	PruneEvents(ctx context.Context, cutoff time.Time) (int64, error)
}

// CleanupService periodically prunes aged feedback events. Scores derived
// from pruned events are kept; only the raw event log is bounded.
type CleanupService struct {
	store          FeedbackPruner
	retentionHours int
	interval       time.Duration
	logger         *logrus.Logger
	ctx            context.Context
	cancel         context.CancelFunc
}

// NewCleanupService creates a cleanup service over the given store. Zero
// config values fall back to thirty days of retention swept once an hour.
func NewCleanupService(store FeedbackPruner, cfg config.FeedbackConfig, logger *logrus.Logger) *CleanupService {
	if logger == nil {
		logger = logrus.New()
	}

	retentionHours := cfg.RetentionHours
	if retentionHours <= 0 {
		retentionHours = 720
	}
	intervalMinutes := cfg.CleanupIntervalMinutes
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &CleanupService{
		store:          store,
		retentionHours: retentionHours,
		interval:       time.Duration(intervalMinutes) * time.Minute,
		logger:         logger,
		ctx:            ctx,
		cancel:         cancel,
	}
}

// Start begins periodic cleanup. An initial sweep runs immediately so a
// restart never waits a full interval to enforce retention.
func (c *CleanupService) Start() {
	c.logger.WithFields(logrus.Fields{
		"retention_hours": c.retentionHours,
		"interval":        c.interval.String(),
	}).Info("Starting feedback cleanup service")

	go func() {
		if err := c.runCleanup(); err != nil {
			c.logger.WithError(err).Error("Initial feedback cleanup failed")
		}
	}()

	ticker := time.NewTicker(c.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-c.ctx.Done():
				return
			case <-ticker.C:
				if err := c.runCleanup(); err != nil {
					c.logger.WithError(err).Error("Feedback cleanup failed")
				}
			}
		}
	}()
}

// Stop stops the cleanup service.
func (c *CleanupService) Stop() {
	c.logger.Info("Stopping feedback cleanup service")
	c.cancel()
}

// RunCleanup performs a manual cleanup operation.
func (c *CleanupService) RunCleanup() error {
	return c.runCleanup()
}

func (c *CleanupService) runCleanup() error {
	cutoff := time.Now().Add(-time.Duration(c.retentionHours) * time.Hour)

	removed, err := c.store.PruneEvents(c.ctx, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune feedback events: %w", err)
	}
	if removed > 0 {
		c.logger.WithFields(logrus.Fields{
			"removed":         removed,
			"retention_hours": c.retentionHours,
		}).Info("Pruned old feedback events")
	}
	return nil
}
