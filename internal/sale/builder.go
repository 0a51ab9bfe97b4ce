// Package sale turns sold transitions into durable records and notifications.
package sale

import (
	"context"
	"time"

	"go.uber.org/zap"

	"sellwatch/internal/extract"
	"sellwatch/internal/listing"
	"sellwatch/internal/metrics"
	"sellwatch/internal/models"
	"sellwatch/internal/notify"
	"sellwatch/internal/store"
)

// Builder records sold items. Store and notification failures are logged and
// never undo the transition.
type Builder struct {
	store    store.SaleStore
	notifier notify.Notifier
	logger   *zap.Logger
	metrics  *metrics.Metrics

	// WriteTimeout bounds the store append and the notification each.
	WriteTimeout time.Duration
	// Claims, when set, lets only the first emission per listing through.
	Claims store.SoldClaims
}

// NewBuilder returns a Builder. A nil notifier disables notifications.
func NewBuilder(s store.SaleStore, n notify.Notifier, logger *zap.Logger, m *metrics.Metrics) *Builder {
	if n == nil {
		n = notify.Nop{}
	}
	return &Builder{store: s, notifier: n, logger: logger, metrics: m, WriteTimeout: 10 * time.Second}
}

// OnSold builds the record for an item that was just transitioned to sold by
// the caller, persists it and emits an itemSold event.
func (b *Builder) OnSold(ctx context.Context, category models.Category, item *models.TrackedItem, detail extract.DetailFields) models.SaleRecord {
	item.SetAttributes(detail.Image, detail.ColorName)
	record := NewRecord(category.Name, item.Snapshot())
	b.metrics.Sold(category.Name)
	b.logger.Info("item sold",
		zap.String("category", category.Name),
		zap.String("listing_id", record.ListingID),
		zap.String("name", record.Name),
		zap.String("price", record.Price),
		zap.Int64("time_to_sell_ms", record.TimeToSellMs),
	)
	b.Emit(ctx, category, record, models.SourceLive)
	return record
}

// Emit appends record to the category's collection and sends the itemSold
// event. It is used directly by rescans and test notifications; test records
// are only notified.
func (b *Builder) Emit(ctx context.Context, category models.Category, record models.SaleRecord, source models.SaleSource) {
	// a won transition is persisted even when the caller is shutting down
	writeCtx := context.WithoutCancel(ctx)
	if source != models.SourceTest && !b.claim(writeCtx, category, record, source) {
		return
	}
	if b.store != nil && source != models.SourceTest {
		storeCtx, cancel := context.WithTimeout(writeCtx, b.timeout())
		err := b.store.Append(storeCtx, category.StoreCollection(), record)
		cancel()
		if err != nil {
			b.logger.Error("sale store append failed",
				zap.String("category", category.Name),
				zap.String("listing_id", record.ListingID),
				zap.Error(err),
			)
		}
	}
	notifyCtx, cancel := context.WithTimeout(writeCtx, b.timeout())
	defer cancel()
	event := models.Event{
		Kind:     models.EventItemSold,
		Category: category.Name,
		At:       record.SoldAt,
		Sale:     &record,
		Source:   source,
	}
	if err := b.notifier.Notify(notifyCtx, event); err != nil {
		b.logger.Warn("sold notification failed",
			zap.String("category", category.Name),
			zap.String("listing_id", record.ListingID),
			zap.Error(err),
		)
	}
}

// claim reports whether record may be written. A claim error lets it through.
func (b *Builder) claim(ctx context.Context, category models.Category, record models.SaleRecord, source models.SaleSource) bool {
	if b.Claims == nil {
		return true
	}
	claimCtx, cancel := context.WithTimeout(ctx, b.timeout())
	defer cancel()
	ok, err := b.Claims.ClaimSold(claimCtx, record.ListingID)
	if err != nil {
		b.logger.Warn("sold claim failed",
			zap.String("category", category.Name),
			zap.String("listing_id", record.ListingID),
			zap.Error(err),
		)
		return true
	}
	if !ok {
		b.logger.Info("sale already recorded",
			zap.String("category", category.Name),
			zap.String("listing_id", record.ListingID),
			zap.String("source", string(source)),
		)
	}
	return ok
}

func (b *Builder) timeout() time.Duration {
	if b.WriteTimeout <= 0 {
		return 10 * time.Second
	}
	return b.WriteTimeout
}

// NewRecord derives a SaleRecord from a sold snapshot.
func NewRecord(category string, snap models.ItemSnapshot) models.SaleRecord {
	soldAt := snap.StartedAt
	if snap.SoldAt != nil {
		soldAt = *snap.SoldAt
	}
	ttsMs := soldAt.Sub(snap.StartedAt).Milliseconds()
	if ttsMs < 0 {
		ttsMs = 0
	}
	record := models.SaleRecord{
		ListingID:    snap.ID,
		Category:     category,
		Name:         snap.Name,
		Subtitle:     snap.Subtitle,
		Price:        snap.Price,
		Link:         snap.Link,
		Image:        snap.Image,
		ColorName:    snap.ColorName,
		ColorHex:     listing.ColorHex(snap.ColorName),
		StartedAt:    snap.StartedAt,
		SoldAt:       soldAt,
		TimeToSellMs: ttsMs,
	}
	if amount, currency, ok := listing.ParsePrice(snap.Price); ok {
		record.PriceAmount = &amount
		record.Currency = currency
	}
	return record
}
