// Package history rechecks recently tracked listings that left the live
// tracker unsold.
package history

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"sellwatch/internal/extract"
	"sellwatch/internal/metrics"
	"sellwatch/internal/models"
	"sellwatch/internal/proxy"
	"sellwatch/internal/sale"
	"sellwatch/internal/store"
)

// Emitter publishes a finished sale record.
type Emitter interface {
	Emit(ctx context.Context, category models.Category, record models.SaleRecord, source models.SaleSource)
}

// Result summarises one category rescan.
type Result struct {
	Checked int
	Sold    int
	Failed  int
}

// Scanner rechecks the newest entries of each category's recent index.
type Scanner struct {
	browser    extract.Browser
	capability extract.Capability
	proxies    *proxy.Pool
	seen       store.SeenHistory
	emitter    Emitter
	logger     *zap.Logger
	metrics    *metrics.Metrics

	Depth       int
	Concurrency int
	// MinAge skips entries first seen less than MinAge ago; they may still
	// belong to a live batch.
	MinAge     time.Duration
	NavTimeout time.Duration
	Now        func() time.Time

	running sync.Mutex
}

// NewScanner returns a Scanner checking the 20 newest entries per category.
func NewScanner(browser extract.Browser, capability extract.Capability, proxies *proxy.Pool, seen store.SeenHistory, emitter Emitter, logger *zap.Logger, m *metrics.Metrics) *Scanner {
	return &Scanner{
		browser:     browser,
		capability:  capability,
		proxies:     proxies,
		seen:        seen,
		emitter:     emitter,
		logger:      logger,
		metrics:     m,
		Depth:       20,
		Concurrency: 20,
		NavTimeout:  20 * time.Second,
		Now:         time.Now,
	}
}

// TryScanAll runs ScanAll unless a rescan is already in progress and reports
// whether it ran.
func (s *Scanner) TryScanAll(ctx context.Context, categories []models.Category) bool {
	if !s.running.TryLock() {
		s.logger.Debug("history rescan already running")
		return false
	}
	defer s.running.Unlock()
	s.ScanAll(ctx, categories)
	return true
}

// ScanAll rescans every category in order. Failures are logged per category.
func (s *Scanner) ScanAll(ctx context.Context, categories []models.Category) {
	for _, cat := range categories {
		if ctx.Err() != nil {
			return
		}
		res, err := s.Scan(ctx, cat)
		if err != nil {
			s.logger.Warn("history rescan failed", zap.String("category", cat.Name), zap.Error(err))
			continue
		}
		s.logger.Info("history rescan finished",
			zap.String("category", cat.Name),
			zap.Int("checked", res.Checked),
			zap.Int("sold", res.Sold),
			zap.Int("failed", res.Failed),
		)
	}
}

// Scan checks the category's recent entries, records the sold ones and
// prunes them from the recent index.
func (s *Scanner) Scan(ctx context.Context, category models.Category) (Result, error) {
	entries, err := s.seen.Recent(ctx, category.Name, s.Depth)
	if err != nil {
		return Result{}, fmt.Errorf("load recent entries: %w", err)
	}
	if len(entries) == 0 {
		return Result{}, nil
	}

	var (
		mu   sync.Mutex
		res  Result
		sold []string
	)
	now := s.Now()
	p := pool.New().WithMaxGoroutines(max(1, s.Concurrency))
	for _, entry := range entries {
		if s.MinAge > 0 && now.Sub(entry.FirstSeen) < s.MinAge {
			continue
		}
		p.Go(func() {
			detail, err := s.check(ctx, category, entry.Link)
			if err == nil && detail.IsSold {
				s.record(ctx, category, entry, detail)
			}
			mu.Lock()
			defer mu.Unlock()
			res.Checked++
			switch {
			case err != nil:
				res.Failed++
				s.logger.Debug("history check failed", zap.String("link", entry.Link), zap.Error(err))
			case detail.IsSold:
				res.Sold++
				sold = append(sold, entry.Link)
			}
		})
	}
	p.Wait()

	if len(sold) > 0 {
		slices.Sort(sold)
		if err := s.seen.Prune(ctx, category.Name, sold...); err != nil {
			return res, fmt.Errorf("prune sold entries: %w", err)
		}
	}
	return res, nil
}

func (s *Scanner) check(ctx context.Context, category models.Category, link string) (extract.DetailFields, error) {
	sess, err := s.browser.NewSession(ctx, s.proxies.Pick())
	if err != nil {
		return extract.DetailFields{}, fmt.Errorf("open session: %w", err)
	}
	defer sess.Close()

	navCtx, cancel := context.WithTimeout(ctx, s.NavTimeout)
	defer cancel()
	page, err := sess.Open(navCtx, link)
	if err != nil {
		return extract.DetailFields{}, err
	}
	if extract.IsChallenge(page) {
		s.metrics.Challenge(category.Name, "history")
		return extract.DetailFields{}, extract.ErrChallenge
	}
	return s.capability.ExtractDetail(page)
}

func (s *Scanner) record(ctx context.Context, category models.Category, entry store.SeenEntry, detail extract.DetailFields) {
	item := models.NewTrackedItem(entry.ID, entry.Name, entry.Subtitle, entry.Price, entry.Link, entry.FirstSeen)
	item.MarkSold(s.Now())
	item.SetAttributes(detail.Image, detail.ColorName)
	record := sale.NewRecord(category.Name, item.Snapshot())
	s.metrics.Sold(category.Name)
	s.logger.Info("historic item sold",
		zap.String("category", category.Name),
		zap.String("listing_id", record.ListingID),
		zap.Int64("time_to_sell_ms", record.TimeToSellMs),
	)
	s.emitter.Emit(ctx, category, record, models.SourceHistory)
}
