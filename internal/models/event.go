package models

import "time"

// EventKind identifies a notification event.
type EventKind string

const (
	EventScanStart EventKind = "scanStart"
	EventItemSold  EventKind = "itemSold"
)

// Event is a best-effort notification emitted by the tracker.
type Event struct {
	Kind     EventKind `json:"kind"`
	Category string    `json:"category"`
	At       time.Time `json:"at"`
	// Scan is set for scanStart events.
	Scan *ScanStart `json:"scan,omitempty"`
	// Sale is set for itemSold events.
	Sale   *SaleRecord `json:"sale,omitempty"`
	Source SaleSource  `json:"source,omitempty"`
}

// SaleSource tells where an itemSold event came from.
type SaleSource string

const (
	SourceLive    SaleSource = "live"
	SourceHistory SaleSource = "history"
	// SourceTest events are synthetic and never stored.
	SourceTest SaleSource = "test"
)

// ScanStart describes a newly collected batch.
type ScanStart struct {
	BatchID  string    `json:"batch_id"`
	Size     int       `json:"size"`
	Names    []string  `json:"names"`
	Deadline time.Time `json:"deadline"`
}
