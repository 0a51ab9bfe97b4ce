package graph

import (
	"context"
	"fmt"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"

	"sellwatch/internal/models"
)

const saleQuery = "MERGE (l:Listing {id: $id}) " +
	"SET l.name = $name, l.subtitle = $subtitle, l.price = $price, " +
	"l.price_amount = $price_amount, l.currency = $currency, l.link = $link, " +
	"l.image = coalesce($image, l.image), l.collection = $collection, " +
	"l.started_at = $started_at, l.sold_at = $sold_at, l.time_to_sell_ms = $time_to_sell_ms " +
	"MERGE (c:Category {name: $category}) " +
	"MERGE (l)-[:LISTED_IN]->(c) " +
	"FOREACH (_ IN CASE WHEN $color IS NULL THEN [] ELSE [1] END | " +
	"MERGE (co:Color {name: $color}) " +
	"SET co.hex = coalesce($color_hex, co.hex) " +
	"MERGE (l)-[:HAS_COLOR]->(co))"

// SaleWriter merges sale records into a Listing/Category/Color graph.
// Writes are idempotent per listing id.
type SaleWriter struct {
	driver DriverSessioner
	logger *zap.Logger
}

// NewSaleWriter returns a SaleWriter on driver.
func NewSaleWriter(driver DriverSessioner, logger *zap.Logger) *SaleWriter {
	return &SaleWriter{driver: driver, logger: logger}
}

// Append implements store.SaleStore. Records without a listing id are skipped.
func (w *SaleWriter) Append(ctx context.Context, collection string, record models.SaleRecord) error {
	if record.ListingID == "" {
		return nil
	}
	query, params := BuildSaleQuery(collection, record)
	if err := w.runWrite(ctx, query, params); err != nil {
		return fmt.Errorf("write sale %s: %w", record.ListingID, err)
	}
	return nil
}

func (w *SaleWriter) runWrite(ctx context.Context, query string, params map[string]any) error {
	session := w.driver.NewSession(ctx, neo4j.SessionConfig{AccessMode: neo4j.AccessModeWrite})
	defer func() {
		if err := session.Close(ctx); err != nil {
			w.logger.Warn("neo4j session close error", zap.Error(err))
		}
	}()

	_, err := session.ExecuteWrite(ctx, func(tx neo4j.ManagedTransaction) (any, error) {
		_, err := tx.Run(ctx, query, params)
		return nil, err
	})
	return err
}

// BuildSaleQuery returns the Cypher statement and parameters for record.
func BuildSaleQuery(collection string, record models.SaleRecord) (string, map[string]any) {
	category := record.Category
	if category == "" {
		category = collection
	}
	params := map[string]any{
		"id":              record.ListingID,
		"name":            record.Name,
		"subtitle":        record.Subtitle,
		"price":           record.Price,
		"price_amount":    optional(record.PriceAmount),
		"currency":        nonEmpty(record.Currency),
		"link":            record.Link,
		"image":           optional(record.Image),
		"collection":      collection,
		"category":        category,
		"color":           optional(record.ColorName),
		"color_hex":       optional(record.ColorHex),
		"started_at":      record.StartedAt.UTC(),
		"sold_at":         record.SoldAt.UTC(),
		"time_to_sell_ms": record.TimeToSellMs,
	}
	return saleQuery, params
}

func optional[T any](v *T) any {
	if v == nil {
		return nil
	}
	return *v
}

func nonEmpty(s string) any {
	if s == "" {
		return nil
	}
	return s
}
