// Package collector gathers a fixed-size batch of listings from a category catalog.
package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"sellwatch/internal/extract"
	"sellwatch/internal/listing"
	"sellwatch/internal/metrics"
	"sellwatch/internal/models"
	"sellwatch/internal/proxy"
)

// ErrCollectionFailed is returned when every attempt ended short of the target size.
var ErrCollectionFailed = errors.New("collection failed")

var errShortBatch = errors.New("catalog exhausted before target size")

// Request describes one collection.
type Request struct {
	Category      models.Category
	TargetSize    int
	MaxPages      int
	MaxAttempts   int
	BatchDuration time.Duration
}

// Collector paginates catalogs through fresh proxied sessions.
type Collector struct {
	browser    extract.Browser
	capability extract.Capability
	proxies    *proxy.Pool
	logger     *zap.Logger
	metrics    *metrics.Metrics

	// ProxyRange restricts proxy draws to the leading entries of the pool; 0 uses all.
	ProxyRange int
	// NavTimeout bounds each catalog page navigation.
	NavTimeout time.Duration
	// Now is the clock; defaults to time.Now.
	Now func() time.Time
}

// New returns a Collector.
func New(browser extract.Browser, capability extract.Capability, proxies *proxy.Pool, logger *zap.Logger, m *metrics.Metrics) *Collector {
	return &Collector{
		browser:    browser,
		capability: capability,
		proxies:    proxies,
		logger:     logger,
		metrics:    m,
		NavTimeout: 30 * time.Second,
		Now:        time.Now,
	}
}

// Collect returns a batch of exactly req.TargetSize unique listings or an
// error wrapping ErrCollectionFailed. Partial batches are never returned.
func (c *Collector) Collect(ctx context.Context, req Request) (*models.Batch, error) {
	if req.TargetSize < 1 {
		return nil, fmt.Errorf("%w: target size must be positive", ErrCollectionFailed)
	}
	if req.MaxAttempts < 1 {
		req.MaxAttempts = 1
	}
	if req.MaxPages < 1 {
		req.MaxPages = 1
	}
	log := c.logger.With(zap.String("category", req.Category.Name))

	var errs []error
	for attempt := 1; attempt <= req.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ep := c.proxies.PickFrom(c.ProxyRange)
		log.Info("collection attempt",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", req.MaxAttempts),
			zap.Stringer("proxy", ep),
		)
		c.metrics.CollectAttempt(req.Category.Name)

		items, err := c.attempt(ctx, log, req, ep)
		if err == nil {
			now := c.Now()
			for _, item := range items {
				item.StartedAt = now
			}
			batch := models.NewBatch(req.Category, items, now, req.BatchDuration)
			log.Info("batch collected",
				zap.String("batch_id", batch.ID),
				zap.Int("size", len(items)),
				zap.Int("attempt", attempt),
			)
			return batch, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		log.Warn("collection attempt failed", zap.Int("attempt", attempt), zap.Error(err))
		errs = append(errs, fmt.Errorf("attempt %d: %w", attempt, err))
	}
	c.metrics.CollectFailed(req.Category.Name)
	return nil, fmt.Errorf("%w for %s after %d attempts: %w", ErrCollectionFailed, req.Category.Name, req.MaxAttempts, errors.Join(errs...))
}

// attempt runs one paginated scan with a fresh session. The accumulator is
// local so nothing carries over between attempts.
func (c *Collector) attempt(ctx context.Context, log *zap.Logger, req Request, ep proxy.Endpoint) ([]*models.TrackedItem, error) {
	sess, err := c.browser.NewSession(ctx, ep)
	if err != nil {
		return nil, fmt.Errorf("open session: %w", err)
	}
	defer func() {
		if err := sess.Close(); err != nil {
			log.Debug("session close error", zap.Error(err))
		}
	}()

	items := make([]*models.TrackedItem, 0, req.TargetSize)
	seen := make(map[string]bool, req.TargetSize)

	for page := 1; page <= req.MaxPages && len(items) < req.TargetSize; page++ {
		pageURL, err := listing.PageURL(req.Category.CatalogURL, page)
		if err != nil {
			return nil, err
		}
		p, err := c.open(ctx, sess, pageURL)
		if err != nil {
			return nil, fmt.Errorf("page %d: %w", page, err)
		}
		if extract.IsChallenge(p) {
			c.metrics.Challenge(req.Category.Name, "collect")
			return nil, fmt.Errorf("page %d: %w", page, extract.ErrChallenge)
		}
		tiles := c.capability.Tiles(p)
		if len(tiles) == 0 {
			log.Info("page yielded no tiles", zap.Int("page", page))
			break
		}
		added := 0
		for _, tile := range tiles {
			fields, err := c.capability.ExtractTile(tile)
			if err != nil {
				log.Debug("skipping tile", zap.Int("page", page), zap.Error(err))
				continue
			}
			link, err := listing.CanonicalURL(p.URL(), fields.Link)
			if err != nil {
				log.Debug("skipping tile link", zap.Int("page", page), zap.Error(err))
				continue
			}
			if seen[link] {
				continue
			}
			seen[link] = true
			items = append(items, models.NewTrackedItem(listing.ID(link), fields.Name, fields.Subtitle, fields.Price, link, time.Time{}))
			added++
		}
		log.Info("page scanned",
			zap.Int("page", page),
			zap.Int("tiles", len(tiles)),
			zap.Int("added", added),
			zap.Int("total", len(items)),
		)
	}

	if len(items) < req.TargetSize {
		return nil, fmt.Errorf("%w: got %d of %d", errShortBatch, len(items), req.TargetSize)
	}
	return items[:req.TargetSize], nil
}

func (c *Collector) open(ctx context.Context, sess extract.Session, url string) (extract.Page, error) {
	timeout := c.NavTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	navCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return sess.Open(navCtx, url)
}
