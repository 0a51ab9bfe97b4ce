package models

import "time"

// Batch is a fixed-size cohort of listings tracked together until Deadline.
type Batch struct {
	ID        string
	Category  Category
	Items     []*TrackedItem
	CreatedAt time.Time
	Deadline  time.Time
}

// NewBatch builds a batch whose deadline is createdAt plus duration.
func NewBatch(category Category, items []*TrackedItem, createdAt time.Time, duration time.Duration) *Batch {
	return &Batch{
		ID:        newBatchID(category.Name, createdAt),
		Category:  category,
		Items:     items,
		CreatedAt: createdAt,
		Deadline:  createdAt.Add(duration),
	}
}

// Available returns the items that have not sold yet, in batch order.
func (b *Batch) Available() []*TrackedItem {
	var out []*TrackedItem
	for _, item := range b.Items {
		if !item.IsSold() {
			out = append(out, item)
		}
	}
	return out
}

// SoldCount returns how many items have sold.
func (b *Batch) SoldCount() int {
	n := 0
	for _, item := range b.Items {
		if item.IsSold() {
			n++
		}
	}
	return n
}

// AllSold reports whether every item has sold.
func (b *Batch) AllSold() bool {
	return b.SoldCount() == len(b.Items)
}

// Expired reports whether now is at or past the deadline.
func (b *Batch) Expired(now time.Time) bool {
	return !now.Before(b.Deadline)
}

// Done reports whether the batch should be discarded.
func (b *Batch) Done(now time.Time) bool {
	return b.Expired(now) || b.AllSold()
}

func newBatchID(category string, createdAt time.Time) string {
	return category + "-" + createdAt.UTC().Format("20060102150405.000")
}
