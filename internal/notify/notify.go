// Package notify delivers tracker events to external channels.
package notify

import (
	"context"
	"errors"

	"sellwatch/internal/models"
)

// Notifier delivers an event. Delivery is best-effort; callers log failures.
type Notifier interface {
	Notify(ctx context.Context, event models.Event) error
}

// Multi fans an event out to every notifier and joins their errors.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, event models.Event) error {
	var errs []error
	for _, n := range m {
		if n == nil {
			continue
		}
		if err := n.Notify(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Nop discards events.
type Nop struct{}

func (Nop) Notify(context.Context, models.Event) error { return nil }
