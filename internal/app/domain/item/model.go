package item

import "time"

// Item is a catalog product. Price lives on the item as a display default;
// purchasable combinations carry their own price on the variant.
type Item struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Brand        string    `json:"brand,omitempty"`
	Color        string    `json:"color,omitempty"`
	Size         string    `json:"size,omitempty"`
	ClothingType string    `json:"clothing_type,omitempty"`
	Description  string    `json:"description,omitempty"`
	Price        *float64  `json:"price,omitempty"`
	Category     string    `json:"category,omitempty"`
	Article      string    `json:"article,omitempty"`
	Style        string    `json:"style,omitempty"`
	Collection   string    `json:"collection,omitempty"`
	ImageURL     string    `json:"image_url,omitempty"`
	Source       string    `json:"source,omitempty"`
	SourceSKU    string    `json:"source_sku,omitempty"`
	SourceURL    string    `json:"source_url,omitempty"`
	OldPrice     *float64  `json:"old_price,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`

	// Populated on read for list/detail responses.
	ImageURLs  []string  `json:"image_urls,omitempty"`
	Variants   []Variant `json:"variants,omitempty"`
	IsFavorite *bool     `json:"is_favorite,omitempty"`
}

// Variant is a purchasable size/color/stock combination of an item.
type Variant struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Size      string    `json:"size,omitempty"`
	Color     string    `json:"color,omitempty"`
	SKU       string    `json:"sku,omitempty"`
	Stock     int       `json:"stock"`
	Price     *float64  `json:"price,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Image is one gallery entry of an item; position orders the gallery.
type Image struct {
	ID       int64  `json:"id"`
	ItemID   int64  `json:"item_id"`
	URL      string `json:"image_url"`
	Position int    `json:"position"`
}

// Filter narrows and orders item listings.
type Filter struct {
	Query        string
	Category     string
	Style        string
	Collection   string
	ClothingType string
	Size         string
	MinPrice     *float64
	MaxPrice     *float64
	SortBy       string // price_asc, price_desc, newest
	Offset       int
	Limit        int
}

// Summary is the compact item shape embedded in outfit responses.
type Summary struct {
	ID       int64    `json:"id"`
	Name     string   `json:"name"`
	Brand    string   `json:"brand,omitempty"`
	ImageURL string   `json:"image_url,omitempty"`
	Price    *float64 `json:"price,omitempty"`
}

// Summarize reduces an item to its outfit-embedding shape.
func Summarize(it Item) Summary {
	return Summary{
		ID:       it.ID,
		Name:     it.Name,
		Brand:    it.Brand,
		ImageURL: it.ImageURL,
		Price:    it.Price,
	}
}
