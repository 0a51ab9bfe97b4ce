package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "modernc.org/sqlite"

	"sellwatch/internal/models"
)

//go:embed migrations/*.sql
var migrationFS embed.FS

// SQLiteSaleStore persists sale records in a local SQLite database.
type SQLiteSaleStore struct {
	db *sql.DB
}

// OpenSQLiteSaleStore opens path and applies pending migrations.
func OpenSQLiteSaleStore(path string) (*SQLiteSaleStore, error) {
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)
	if err := runMigrations(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteSaleStore{db: db}, nil
}

func runMigrations(db *sql.DB) error {
	driver, err := sqlite.WithInstance(db, &sqlite.Config{})
	if err != nil {
		return fmt.Errorf("create sqlite migrate driver: %w", err)
	}
	source, err := iofs.New(migrationFS, "migrations")
	if err != nil {
		return fmt.Errorf("create iofs source: %w", err)
	}
	m, err := migrate.NewWithInstance("iofs", source, "sqlite", driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run migrations: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SQLiteSaleStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteSaleStore) Append(ctx context.Context, collection string, r models.SaleRecord) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO sales (
    collection, listing_id, category, name, subtitle, price, price_amount, currency,
    link, image, color_name, color_hex, started_at_ms, sold_at_ms, time_to_sell_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		collection, r.ListingID, r.Category, r.Name, r.Subtitle, r.Price, r.PriceAmount, r.Currency,
		r.Link, r.Image, r.ColorName, r.ColorHex, r.StartedAt.UnixMilli(), r.SoldAt.UnixMilli(), r.TimeToSellMs,
	)
	if err != nil {
		return fmt.Errorf("insert sale %s: %w", r.ListingID, err)
	}
	return nil
}

func (s *SQLiteSaleStore) List(ctx context.Context, collection string, limit int) ([]models.SaleRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT listing_id, category, name, subtitle, price, price_amount, currency,
       link, image, color_name, color_hex, started_at_ms, sold_at_ms, time_to_sell_ms
FROM sales WHERE collection = ? ORDER BY sold_at_ms DESC, id DESC LIMIT ?`, collection, limit)
	if err != nil {
		return nil, fmt.Errorf("query sales: %w", err)
	}
	defer rows.Close()

	var out []models.SaleRecord
	for rows.Next() {
		var (
			r                 models.SaleRecord
			amount            sql.NullFloat64
			image, color, hex sql.NullString
			startedMs, soldMs int64
		)
		if err := rows.Scan(&r.ListingID, &r.Category, &r.Name, &r.Subtitle, &r.Price, &amount, &r.Currency,
			&r.Link, &image, &color, &hex, &startedMs, &soldMs, &r.TimeToSellMs); err != nil {
			return nil, fmt.Errorf("scan sale: %w", err)
		}
		r.PriceAmount = nullFloat(amount)
		r.Image = nullString(image)
		r.ColorName = nullString(color)
		r.ColorHex = nullString(hex)
		r.StartedAt = time.UnixMilli(startedMs).UTC()
		r.SoldAt = time.UnixMilli(soldMs).UTC()
		out = append(out, r)
	}
	return out, rows.Err()
}

func nullString(v sql.NullString) *string {
	if !v.Valid {
		return nil
	}
	s := v.String
	return &s
}

func nullFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
