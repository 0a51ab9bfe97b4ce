// Package tracker runs the collect, announce and poll cycle for one category.
package tracker

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sellwatch/internal/collector"
	"sellwatch/internal/metrics"
	"sellwatch/internal/models"
	"sellwatch/internal/notify"
	"sellwatch/internal/poller"
	"sellwatch/internal/retry"
	"sellwatch/internal/store"
)

// Collector gathers a batch for a category.
type Collector interface {
	Collect(ctx context.Context, req collector.Request) (*models.Batch, error)
}

// Poller tracks a batch until it is done.
type Poller interface {
	PollBatch(ctx context.Context, batch *models.Batch) int
}

// Config sizes batches and paces retries.
type Config struct {
	BatchSize       int
	MaxPages        int
	CollectAttempts int
	BatchDuration   time.Duration
	CollectBackoff  time.Duration
}

// Tracker owns the coordinating goroutine of a tracking session.
type Tracker struct {
	collector Collector
	poller    Poller
	seen      store.SeenHistory
	status    store.StatusStore
	notifier  notify.Notifier
	cfg       Config
	logger    *zap.Logger
	metrics   *metrics.Metrics

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// New returns a Tracker. A nil notifier disables scan announcements.
func New(c Collector, p Poller, seen store.SeenHistory, status store.StatusStore, n notify.Notifier, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Tracker {
	if n == nil {
		n = notify.Nop{}
	}
	if cfg.CollectBackoff <= 0 {
		cfg.CollectBackoff = time.Minute
	}
	return &Tracker{
		collector: c,
		poller:    p,
		seen:      seen,
		status:    status,
		notifier:  n,
		cfg:       cfg,
		logger:    logger,
		metrics:   m,
		Now:       time.Now,
	}
}

// Run tracks category batch after batch. With window > 0 no new batch is
// collected once the window has elapsed; otherwise it runs until ctx is done.
// It returns the number of batches tracked.
func (t *Tracker) Run(ctx context.Context, category models.Category, window time.Duration) int {
	log := t.logger.With(zap.String("category", category.Name))
	var end time.Time
	if window > 0 {
		end = t.Now().Add(window)
	}
	batches := 0
	for ctx.Err() == nil {
		if !end.IsZero() && !t.Now().Before(end) {
			log.Info("session window elapsed", zap.Int("batches", batches))
			break
		}
		if err := t.Track(ctx, category); err != nil {
			if ctx.Err() != nil {
				break
			}
			log.Warn("collection failed, backing off",
				zap.Duration("backoff", t.cfg.CollectBackoff),
				zap.Error(err),
			)
			if retry.Sleep(ctx, t.cfg.CollectBackoff) != nil {
				break
			}
			continue
		}
		batches++
	}
	return batches
}

// Track collects one batch, announces it, records it as seen and polls it
// until done. Only a collection failure is returned.
func (t *Tracker) Track(ctx context.Context, category models.Category) error {
	log := t.logger.With(zap.String("category", category.Name))
	t.setStatus(ctx, models.BatchStatus{Category: category.Name, State: models.BatchStateCollecting})

	batch, err := t.collector.Collect(ctx, collector.Request{
		Category:      category,
		TargetSize:    t.cfg.BatchSize,
		MaxPages:      t.cfg.MaxPages,
		MaxAttempts:   t.cfg.CollectAttempts,
		BatchDuration: t.cfg.BatchDuration,
	})
	if err != nil {
		t.setStatus(ctx, models.BatchStatus{Category: category.Name, State: models.BatchStateFailed, Error: err.Error()})
		return fmt.Errorf("collect %s: %w", category.Name, err)
	}
	t.metrics.BatchStarted(category.Name)
	log.Info("tracking batch",
		zap.String("batch_id", batch.ID),
		zap.Int("size", len(batch.Items)),
		zap.Time("deadline", batch.Deadline),
	)

	t.announce(ctx, batch)
	t.remember(ctx, batch)
	t.setStatus(ctx, statusOf(batch, models.BatchStateTracking, 0))

	passes := t.poller.PollBatch(ctx, batch)
	done := context.WithoutCancel(ctx)
	t.forgetSold(done, batch)
	t.setStatus(done, statusOf(batch, models.BatchStateFinished, passes))
	return nil
}

// ObservePass records progress after each poller pass.
func (t *Tracker) ObservePass(batch *models.Batch, pass int, _ poller.PassResult) {
	t.setStatus(context.Background(), statusOf(batch, models.BatchStateTracking, pass))
}

func (t *Tracker) announce(ctx context.Context, batch *models.Batch) {
	names := make([]string, 0, len(batch.Items))
	for _, item := range batch.Items {
		names = append(names, item.Name)
	}
	event := models.Event{
		Kind:     models.EventScanStart,
		Category: batch.Category.Name,
		At:       batch.CreatedAt,
		Scan: &models.ScanStart{
			BatchID:  batch.ID,
			Size:     len(batch.Items),
			Names:    names,
			Deadline: batch.Deadline,
		},
	}
	if err := t.notifier.Notify(ctx, event); err != nil {
		t.logger.Warn("scan start notification failed", zap.String("category", batch.Category.Name), zap.Error(err))
	}
}

func (t *Tracker) remember(ctx context.Context, batch *models.Batch) {
	entries := make([]store.SeenEntry, 0, len(batch.Items))
	for _, item := range batch.Items {
		entries = append(entries, store.SeenEntry{
			ID:        item.ID,
			Link:      item.Link,
			Name:      item.Name,
			Subtitle:  item.Subtitle,
			Price:     item.Price,
			FirstSeen: item.StartedAt,
		})
	}
	if err := t.seen.Add(ctx, batch.Category.Name, entries); err != nil {
		t.logger.Warn("seen history update failed", zap.String("category", batch.Category.Name), zap.Error(err))
	}
}

// forgetSold drops sold items from the recent index so the history rescan
// only revisits listings that left the batch unsold.
func (t *Tracker) forgetSold(ctx context.Context, batch *models.Batch) {
	var links []string
	for _, item := range batch.Items {
		if item.IsSold() {
			links = append(links, item.Link)
		}
	}
	if len(links) == 0 {
		return
	}
	if err := t.seen.Prune(ctx, batch.Category.Name, links...); err != nil {
		t.logger.Warn("recent index prune failed", zap.String("category", batch.Category.Name), zap.Error(err))
	}
}

func (t *Tracker) setStatus(ctx context.Context, status models.BatchStatus) {
	if t.status == nil {
		return
	}
	status.UpdatedAt = t.Now()
	if err := t.status.SetStatus(ctx, status); err != nil {
		t.logger.Debug("status update failed", zap.String("category", status.Category), zap.Error(err))
	}
}

func statusOf(batch *models.Batch, state models.BatchState, passes int) models.BatchStatus {
	return models.BatchStatus{
		Category:  batch.Category.Name,
		BatchID:   batch.ID,
		State:     state,
		Size:      len(batch.Items),
		Sold:      batch.SoldCount(),
		Passes:    passes,
		CreatedAt: batch.CreatedAt,
		Deadline:  batch.Deadline,
	}
}
