// Package poller re-checks a tracked batch on a fixed cadence with a bounded
// worker pool until every item sells or the batch deadline passes.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sourcegraph/conc"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"

	"sellwatch/internal/extract"
	"sellwatch/internal/metrics"
	"sellwatch/internal/models"
	"sellwatch/internal/proxy"
	"sellwatch/internal/retry"
)

// SoldHandler is invoked once per item, by the worker that won the sold transition.
type SoldHandler interface {
	OnSold(ctx context.Context, category models.Category, item *models.TrackedItem, detail extract.DetailFields) models.SaleRecord
}

// Config controls pass cadence and per-item checks.
type Config struct {
	Concurrency     int
	CheckInterval   time.Duration
	PerItemTimeout  time.Duration
	CheckAttempts   int
	CheckRetryDelay time.Duration
}

func (c Config) withDefaults() Config {
	if c.Concurrency < 1 {
		c.Concurrency = 1
	}
	if c.CheckInterval <= 0 {
		c.CheckInterval = time.Minute
	}
	if c.PerItemTimeout <= 0 {
		c.PerItemTimeout = 20 * time.Second
	}
	if c.CheckAttempts < 2 {
		c.CheckAttempts = 2
	}
	if c.CheckRetryDelay < 0 {
		c.CheckRetryDelay = 0
	}
	return c
}

// PassResult summarises one pass.
type PassResult struct {
	Queued  int
	Checked int
	Sold    int
	Failed  int
	// Skipped items were never popped because the pass was cancelled.
	Skipped int
}

// Poller drives status passes over batches.
type Poller struct {
	browser    extract.Browser
	capability extract.Capability
	proxies    *proxy.Pool
	onSold     SoldHandler
	cfg        Config
	logger     *zap.Logger
	metrics    *metrics.Metrics

	// Now is the clock; defaults to time.Now.
	Now func() time.Time
	// AfterPass, when set, runs on the coordinating goroutine after each pass.
	AfterPass func(batch *models.Batch, pass int, result PassResult)
}

// New returns a Poller.
func New(browser extract.Browser, capability extract.Capability, proxies *proxy.Pool, onSold SoldHandler, cfg Config, logger *zap.Logger, m *metrics.Metrics) *Poller {
	return &Poller{
		browser:    browser,
		capability: capability,
		proxies:    proxies,
		onSold:     onSold,
		cfg:        cfg.withDefaults(),
		logger:     logger,
		metrics:    m,
		Now:        time.Now,
	}
}

// PollBatch runs passes every CheckInterval until the batch deadline, all
// items are sold or ctx is done. A pass in flight at the deadline finishes;
// no pass starts at or after it. It returns the number of passes run.
func (p *Poller) PollBatch(ctx context.Context, batch *models.Batch) int {
	log := p.logger.With(zap.String("category", batch.Category.Name), zap.String("batch_id", batch.ID))
	passes := 0
	for {
		if ctx.Err() != nil {
			return passes
		}
		if batch.Done(p.Now()) {
			break
		}
		passes++
		result := p.RunPass(ctx, batch)
		p.metrics.PassDone(batch.Category.Name)
		log.Info("pass finished",
			zap.Int("pass", passes),
			zap.Int("queued", result.Queued),
			zap.Int("checked", result.Checked),
			zap.Int("sold", result.Sold),
			zap.Int("failed", result.Failed),
			zap.Int("skipped", result.Skipped),
			zap.Int("batch_sold", batch.SoldCount()),
		)
		if p.AfterPass != nil {
			p.AfterPass(batch, passes, result)
		}
		if batch.AllSold() {
			break
		}
		remaining := batch.Deadline.Sub(p.Now())
		if remaining <= p.cfg.CheckInterval {
			break
		}
		if err := retry.Sleep(ctx, p.cfg.CheckInterval); err != nil {
			return passes
		}
	}
	log.Info("batch finished",
		zap.Int("passes", passes),
		zap.Int("sold", batch.SoldCount()),
		zap.Int("size", len(batch.Items)),
	)
	return passes
}

// RunPass checks every available item once using exactly Concurrency workers.
func (p *Poller) RunPass(ctx context.Context, batch *models.Batch) PassResult {
	available := batch.Available()
	q := newQueue(available)
	var stats passStats

	var wg conc.WaitGroup
	for i := 0; i < p.cfg.Concurrency; i++ {
		w := &worker{id: i, p: p, category: batch.Category}
		wg.Go(func() { w.run(ctx, q, &stats) })
	}
	if r := wg.WaitAndRecover(); r != nil {
		p.logger.Error("status worker panicked", zap.String("category", batch.Category.Name), zap.String("panic", r.String()))
	}
	return PassResult{
		Queued:  len(available),
		Checked: int(stats.checked.Load()),
		Sold:    int(stats.sold.Load()),
		Failed:  int(stats.failed.Load()),
		Skipped: q.remaining(),
	}
}

type passStats struct {
	checked atomic.Int64
	sold    atomic.Int64
	failed  atomic.Int64
}

// worker owns one proxied session, opened on first use.
type worker struct {
	id       int
	p        *Poller
	category models.Category
	sess     extract.Session
	ep       proxy.Endpoint
}

func (w *worker) run(ctx context.Context, q *queue, stats *passStats) {
	defer w.closeSession()
	for {
		if ctx.Err() != nil {
			return
		}
		item, ok := q.pop()
		if !ok {
			return
		}
		var pc panics.Catcher
		pc.Try(func() { w.checkWithRetry(ctx, item, stats) })
		if r := pc.Recovered(); r != nil {
			stats.failed.Add(1)
			w.p.logger.Error("status check panicked",
				zap.String("category", w.category.Name),
				zap.String("link", item.Link),
				zap.String("panic", r.String()),
			)
			w.closeSession()
		}
	}
}

func (w *worker) checkWithRetry(ctx context.Context, item *models.TrackedItem, stats *passStats) {
	cfg := retry.Fixed(w.p.cfg.CheckAttempts, w.p.cfg.CheckRetryDelay)
	cfg.IsRetryable = func(err error) bool { return ctx.Err() == nil }
	cfg.OnRetry = func(attempt int, err error) {
		w.p.logger.Debug("retrying status check",
			zap.String("category", w.category.Name),
			zap.String("link", item.Link),
			zap.Int("attempt", attempt),
			zap.Int("worker", w.id),
			zap.Error(err),
		)
		if errors.Is(err, extract.ErrChallenge) {
			w.closeSession()
		}
	}
	err := retry.Do(ctx, cfg, func(ctx context.Context, _ int) error {
		return w.check(ctx, item, stats)
	})
	stats.checked.Add(1)
	if err != nil {
		stats.failed.Add(1)
		if ctx.Err() != nil {
			return
		}
		w.p.logger.Warn("status check gave up",
			zap.String("category", w.category.Name),
			zap.String("link", item.Link),
			zap.Int("worker", w.id),
			zap.Error(err),
		)
	}
}

func (w *worker) check(ctx context.Context, item *models.TrackedItem, stats *passStats) error {
	if item.IsSold() {
		return nil
	}
	done := w.p.metrics.CheckStarted(w.category.Name)
	sess, err := w.session(ctx)
	if err != nil {
		done(metrics.ResultError)
		return err
	}

	checkCtx, cancel := context.WithTimeout(ctx, w.p.cfg.PerItemTimeout)
	defer cancel()
	page, err := sess.Open(checkCtx, item.Link)
	if err != nil {
		done(metrics.ResultError)
		return fmt.Errorf("open %s: %w", item.Link, err)
	}
	if extract.IsChallenge(page) {
		w.p.metrics.Challenge(w.category.Name, "check")
		done(metrics.ResultChallenge)
		return fmt.Errorf("check %s via %s: %w", item.Link, w.ep, extract.ErrChallenge)
	}
	detail, err := w.p.capability.ExtractDetail(page)
	if err != nil {
		done(metrics.ResultError)
		return fmt.Errorf("extract %s: %w", item.Link, err)
	}
	if !detail.IsSold {
		done(metrics.ResultAvailable)
		return nil
	}
	done(metrics.ResultSold)
	if item.MarkSold(w.p.Now()) {
		stats.sold.Add(1)
		w.p.onSold.OnSold(ctx, w.category, item, detail)
	}
	return nil
}

func (w *worker) session(ctx context.Context) (extract.Session, error) {
	if w.sess != nil {
		return w.sess, nil
	}
	ep := w.p.proxies.Pick()
	sess, err := w.p.browser.NewSession(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("open session via %s: %w", ep, err)
	}
	w.sess = sess
	w.ep = ep
	return sess, nil
}

func (w *worker) closeSession() {
	if w.sess == nil {
		return
	}
	if err := w.sess.Close(); err != nil {
		w.p.logger.Debug("session close error", zap.Int("worker", w.id), zap.Error(err))
	}
	w.sess = nil
}
