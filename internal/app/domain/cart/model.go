package cart

import "time"

// Item is a stored cart row: one per (user, variant).
type Item struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	VariantID int64     `json:"variant_id"`
	Quantity  int       `json:"quantity"`
	AddedAt   time.Time `json:"added_at"`
}

// Line is one cart entry denormalised for display.
type Line struct {
	ItemID    int64    `json:"item_id"`
	VariantID int64    `json:"variant_id"`
	Name      string   `json:"name"`
	Brand     string   `json:"brand,omitempty"`
	ImageURL  string   `json:"image_url,omitempty"`
	Size      string   `json:"size,omitempty"`
	Color     string   `json:"color,omitempty"`
	SKU       string   `json:"sku,omitempty"`
	Stock     int      `json:"stock"`
	Quantity  int      `json:"quantity"`
	Price     *float64 `json:"price,omitempty"`
}

// State is the full cart response with aggregates.
type State struct {
	Items      []Line  `json:"items"`
	TotalItems int     `json:"total_items"`
	TotalPrice float64 `json:"total_price"`
}
