package poller

import (
	"sync"

	"sellwatch/internal/models"
)

// queue hands each item to exactly one worker.
type queue struct {
	mu    sync.Mutex
	items []*models.TrackedItem
	next  int
}

func newQueue(items []*models.TrackedItem) *queue {
	return &queue{items: items}
}

func (q *queue) pop() (*models.TrackedItem, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.next >= len(q.items) {
		return nil, false
	}
	item := q.items[q.next]
	q.items[q.next] = nil
	q.next++
	return item, true
}

func (q *queue) remaining() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items) - q.next
}
