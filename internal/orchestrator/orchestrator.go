// Package orchestrator decides which category to track next.
package orchestrator

import (
	"context"

	"go.uber.org/zap"

	"sellwatch/internal/metrics"
	"sellwatch/internal/models"
)

// FreshnessProbe counts a category's front-page listings that were never seen.
type FreshnessProbe interface {
	Freshness(ctx context.Context, category models.Category) (int, error)
}

// Orchestrator selects the first category whose freshness reaches Threshold.
type Orchestrator struct {
	categories []models.Category
	threshold  int
	probe      FreshnessProbe
	logger     *zap.Logger
	metrics    *metrics.Metrics
}

// New returns an Orchestrator over categories in priority order.
func New(categories []models.Category, threshold int, probe FreshnessProbe, logger *zap.Logger, m *metrics.Metrics) *Orchestrator {
	cp := make([]models.Category, len(categories))
	copy(cp, categories)
	return &Orchestrator{categories: cp, threshold: threshold, probe: probe, logger: logger, metrics: m}
}

// SelectNextCategory probes categories in order and returns the first one
// with freshness >= threshold. Later categories are not probed. A probe error
// counts as zero freshness.
func (o *Orchestrator) SelectNextCategory(ctx context.Context) (models.Category, bool) {
	for _, cat := range o.categories {
		if ctx.Err() != nil {
			return models.Category{}, false
		}
		fresh, err := o.probe.Freshness(ctx, cat)
		if err != nil {
			o.logger.Warn("freshness probe failed", zap.String("category", cat.Name), zap.Error(err))
			fresh = 0
		}
		o.metrics.SetFreshness(cat.Name, fresh)
		o.logger.Info("category freshness",
			zap.String("category", cat.Name),
			zap.Int("fresh", fresh),
			zap.Int("threshold", o.threshold),
		)
		if fresh >= o.threshold {
			return cat, true
		}
	}
	return models.Category{}, false
}
