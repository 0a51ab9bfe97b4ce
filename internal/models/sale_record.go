package models

import "time"

// SaleRecord is the durable artifact of a sold TrackedItem.
type SaleRecord struct {
	ListingID    string    `json:"listing_id"`
	Category     string    `json:"category"`
	Name         string    `json:"name"`
	Subtitle     string    `json:"subtitle,omitempty"`
	Price        string    `json:"price"`
	PriceAmount  *float64  `json:"price_amount,omitempty"`
	Currency     string    `json:"currency,omitempty"`
	Link         string    `json:"link"`
	Image        *string   `json:"image"`
	ColorName    *string   `json:"color_name"`
	ColorHex     *string   `json:"color_hex,omitempty"`
	StartedAt    time.Time `json:"started_at"`
	SoldAt       time.Time `json:"sold_at"`
	TimeToSellMs int64     `json:"time_to_sell_ms"`
}
