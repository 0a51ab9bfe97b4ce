package models

import (
	"sync"
	"time"
)

// ItemState is the lifecycle state of a tracked listing.
type ItemState string

const (
	ItemStateAvailable ItemState = "available"
	ItemStateSold      ItemState = "sold"
)

// TrackedItem is one discovered listing under observation.
// State only ever moves from available to sold; MarkSold guards the transition.
type TrackedItem struct {
	ID        string
	Name      string
	Subtitle  string
	Price     string
	Link      string
	StartedAt time.Time

	mu        sync.Mutex
	state     ItemState
	soldAt    *time.Time
	image     *string
	colorName *string
}

// NewTrackedItem returns an available item discovered at startedAt.
func NewTrackedItem(id, name, subtitle, price, link string, startedAt time.Time) *TrackedItem {
	return &TrackedItem{
		ID:        id,
		Name:      name,
		Subtitle:  subtitle,
		Price:     price,
		Link:      link,
		StartedAt: startedAt,
		state:     ItemStateAvailable,
	}
}

// State returns the current lifecycle state.
func (i *TrackedItem) State() ItemState {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.state
}

// IsSold reports whether the item has transitioned to sold.
func (i *TrackedItem) IsSold() bool {
	return i.State() == ItemStateSold
}

// MarkSold flips the item to sold and returns true only for the caller that
// performed the transition. soldAt is clamped so it never precedes StartedAt.
func (i *TrackedItem) MarkSold(at time.Time) bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state == ItemStateSold {
		return false
	}
	if at.Before(i.StartedAt) {
		at = i.StartedAt
	}
	i.state = ItemStateSold
	i.soldAt = &at
	return true
}

// SetAttributes records the secondary attributes captured at the sold transition.
// It is a no-op for items that are not sold or already carry attributes.
func (i *TrackedItem) SetAttributes(image, colorName *string) {
	i.mu.Lock()
	defer i.mu.Unlock()
	if i.state != ItemStateSold || i.image != nil || i.colorName != nil {
		return
	}
	i.image = image
	i.colorName = colorName
}

// Snapshot returns a copy of the mutable fields.
func (i *TrackedItem) Snapshot() ItemSnapshot {
	i.mu.Lock()
	defer i.mu.Unlock()
	snap := ItemSnapshot{
		ID:        i.ID,
		Name:      i.Name,
		Subtitle:  i.Subtitle,
		Price:     i.Price,
		Link:      i.Link,
		State:     i.state,
		StartedAt: i.StartedAt,
		Image:     i.image,
		ColorName: i.colorName,
	}
	if i.soldAt != nil {
		soldAt := *i.soldAt
		snap.SoldAt = &soldAt
	}
	return snap
}

// ItemSnapshot is an immutable view of a TrackedItem.
type ItemSnapshot struct {
	ID        string     `json:"id"`
	Name      string     `json:"name"`
	Subtitle  string     `json:"subtitle"`
	Price     string     `json:"price"`
	Link      string     `json:"link"`
	State     ItemState  `json:"state"`
	StartedAt time.Time  `json:"started_at"`
	SoldAt    *time.Time `json:"sold_at,omitempty"`
	Image     *string    `json:"image,omitempty"`
	ColorName *string    `json:"color_name,omitempty"`
}
