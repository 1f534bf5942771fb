package feed

// Product is one entry of an external catalog feed, keyed by the source SKU.
type Product struct {
	SKU         string   `json:"sku"`
	Name        string   `json:"name"`
	Brand       string   `json:"brand"`
	Price       float64  `json:"price"`
	OldPrice    *float64 `json:"old_price,omitempty"`
	URL         string   `json:"url"`
	ImageURL    string   `json:"image_url"`
	ImageURLs   []string `json:"image_urls,omitempty"`
	Type        string   `json:"type,omitempty"`
	Description string   `json:"description,omitempty"`
}
