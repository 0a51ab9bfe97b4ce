package store

import (
	"context"
	"time"
)

// SeenEntry is one listing recorded in the recent index of a category.
type SeenEntry struct {
	ID        string    `json:"id"`
	Link      string    `json:"link"`
	Name      string    `json:"name"`
	Subtitle  string    `json:"subtitle,omitempty"`
	Price     string    `json:"price"`
	FirstSeen time.Time `json:"first_seen"`
}

// SeenHistory is the persisted set of listing identifiers ever tracked.
// Identifiers are never removed; only Prune shrinks the per-category recent index.
type SeenHistory interface {
	// Add records entries. Existing identifiers keep their first-seen time.
	Add(ctx context.Context, category string, entries []SeenEntry) error
	// Seen reports, per id, whether it was recorded before.
	Seen(ctx context.Context, ids []string) ([]bool, error)
	// Recent returns up to n entries of the category, newest first.
	Recent(ctx context.Context, category string, n int) ([]SeenEntry, error)
	// Prune drops links from the category's recent index.
	Prune(ctx context.Context, category string, links ...string) error
}

// SoldClaims records which listings already produced a sale record, so the
// live tracker and the history rescan never write the same sale twice.
type SoldClaims interface {
	// ClaimSold reports true only for the first claim of id.
	ClaimSold(ctx context.Context, id string) (bool, error)
}
