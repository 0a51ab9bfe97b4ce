package store

import (
	"context"

	"sellwatch/internal/models"
)

// StatusStore persists the current batch status per category.
type StatusStore interface {
	SetStatus(ctx context.Context, status models.BatchStatus) error
	GetStatus(ctx context.Context, category string) (models.BatchStatus, bool, error)
	// ListStatuses returns the statuses present for categories, in the given order.
	ListStatuses(ctx context.Context, categories []string) ([]models.BatchStatus, error)
}
