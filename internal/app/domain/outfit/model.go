package outfit

import (
	"strings"
	"time"

	"github.com/trcstyle/backend/internal/app/domain/item"
)

// Category identifies one of the five fixed outfit slots.
type Category string

const (
	CategoryTop       Category = "top"
	CategoryBottom    Category = "bottom"
	CategoryFootwear  Category = "footwear"
	CategoryAccessory Category = "accessory"
	CategoryFragrance Category = "fragrance"
)

// Categories lists the slots in display order.
var Categories = []Category{
	CategoryTop,
	CategoryBottom,
	CategoryFootwear,
	CategoryAccessory,
	CategoryFragrance,
}

// acceptable maps each slot to the item categories it accepts. Items whose
// category is blank are universal and fit any slot.
var acceptable = map[Category]map[string]struct{}{
	CategoryTop: setOf(
		"top", "tops",
		"tshirt", "shirt", "hoodie", "sweater", "jacket", "coat", "dress",
	),
	CategoryBottom: setOf(
		"bottom", "bottoms",
		"pants", "jeans", "shorts", "skirt",
	),
	CategoryFootwear:  setOf("footwear"),
	CategoryAccessory: setOf("accessories", "accessory"),
	CategoryFragrance: setOf("fragrances", "fragrance"),
}

func setOf(names ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, n := range names {
		m[n] = struct{}{}
	}
	return m
}

// Accepts reports whether an item with the given category may occupy the
// slot. Blank categories are universal.
func (c Category) Accepts(itemCategory string) bool {
	itemCategory = strings.ToLower(strings.TrimSpace(itemCategory))
	if itemCategory == "" {
		return true
	}
	set, ok := acceptable[c]
	if !ok {
		return false
	}
	_, ok = set[itemCategory]
	return ok
}

// Member links an item into an outfit under a slot category.
type Member struct {
	ItemID   int64    `json:"item_id"`
	Category Category `json:"category"`
}

// Outfit is a named bundle of items grouped into the five slots.
type Outfit struct {
	ID          int64     `json:"id"`
	Name        string    `json:"name"`
	Style       string    `json:"style"`
	Description string    `json:"description,omitempty"`
	Collection  string    `json:"collection,omitempty"`
	OwnerID     int64     `json:"owner_id"`
	Members     []Member  `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Details is the API shape of an outfit: members resolved to item summaries,
// grouped per slot, with the derived total price.
type Details struct {
	ID          int64          `json:"id"`
	Name        string         `json:"name"`
	Style       string         `json:"style"`
	Description string         `json:"description,omitempty"`
	Collection  string         `json:"collection,omitempty"`
	OwnerID     int64          `json:"owner_id"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Tops        []item.Summary `json:"tops"`
	Bottoms     []item.Summary `json:"bottoms"`
	Footwear    []item.Summary `json:"footwear"`
	Accessories []item.Summary `json:"accessories"`
	Fragrances  []item.Summary `json:"fragrances"`
	TotalPrice  float64        `json:"total_price"`
}

// Compose groups resolved member items into Details and sums the total
// price, treating items without a price as zero.
func Compose(o Outfit, members map[Category][]item.Item) Details {
	d := Details{
		ID:          o.ID,
		Name:        o.Name,
		Style:       o.Style,
		Description: o.Description,
		Collection:  o.Collection,
		OwnerID:     o.OwnerID,
		CreatedAt:   o.CreatedAt,
		UpdatedAt:   o.UpdatedAt,
		Tops:        []item.Summary{},
		Bottoms:     []item.Summary{},
		Footwear:    []item.Summary{},
		Accessories: []item.Summary{},
		Fragrances:  []item.Summary{},
	}
	for _, cat := range Categories {
		for _, it := range members[cat] {
			summary := item.Summarize(it)
			switch cat {
			case CategoryTop:
				d.Tops = append(d.Tops, summary)
			case CategoryBottom:
				d.Bottoms = append(d.Bottoms, summary)
			case CategoryFootwear:
				d.Footwear = append(d.Footwear, summary)
			case CategoryAccessory:
				d.Accessories = append(d.Accessories, summary)
			case CategoryFragrance:
				d.Fragrances = append(d.Fragrances, summary)
			}
			if it.Price != nil {
				d.TotalPrice += *it.Price
			}
		}
	}
	return d
}

// Filter narrows and orders outfit listings. OwnerID zero means all owners.
// MinPrice and MaxPrice bound the aggregated total price and are applied
// after member resolution, not by the store.
type Filter struct {
	OwnerID    int64
	Query      string
	Style      string
	Collection string
	MinPrice   *float64
	MaxPrice   *float64
	SortBy     string // price_asc, price_desc, newest
	Offset     int
	Limit      int
}
