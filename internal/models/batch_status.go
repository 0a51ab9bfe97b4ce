package models

import "time"

// BatchState is the coarse state of a category's current batch.
type BatchState string

const (
	BatchStateCollecting BatchState = "collecting"
	BatchStateTracking   BatchState = "tracking"
	BatchStateFinished   BatchState = "finished"
	BatchStateFailed     BatchState = "failed"
)

// BatchStatus tracks the current batch of a category.
type BatchStatus struct {
	Category  string     `json:"category"`
	BatchID   string     `json:"batch_id,omitempty"`
	State     BatchState `json:"state"`
	Size      int        `json:"size"`
	Sold      int        `json:"sold"`
	Passes    int        `json:"passes"`
	CreatedAt time.Time  `json:"created_at"`
	Deadline  time.Time  `json:"deadline,omitempty"`
	UpdatedAt time.Time  `json:"updated_at"`
	Error     string     `json:"error,omitempty"`
}
