package store

import (
	"context"
	"errors"

	"sellwatch/internal/models"
)

// SaleStore appends sale records to a named collection. Append does not dedupe.
type SaleStore interface {
	Append(ctx context.Context, collection string, record models.SaleRecord) error
}

// SaleLister reads back stored sale records, newest first.
type SaleLister interface {
	List(ctx context.Context, collection string, limit int) ([]models.SaleRecord, error)
}

// TeeSaleStore appends to every store and joins their errors.
type TeeSaleStore []SaleStore

func (t TeeSaleStore) Append(ctx context.Context, collection string, record models.SaleRecord) error {
	var errs []error
	for _, s := range t {
		if s == nil {
			continue
		}
		if err := s.Append(ctx, collection, record); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
