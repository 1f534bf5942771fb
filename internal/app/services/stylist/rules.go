package stylist

import (
	"strings"

	"github.com/trcstyle/backend/internal/app/domain/item"
	"github.com/trcstyle/backend/internal/app/domain/outfit"
)

// colorHarmony maps a base color to the colors it combines with.
var colorHarmony = map[string][]string{
	"white":  {"black", "blue", "red", "green", "gray", "brown"},
	"black":  {"white", "gray", "red", "blue", "yellow"},
	"blue":   {"white", "gray", "brown", "beige", "navy"},
	"red":    {"white", "black", "gray", "beige"},
	"green":  {"white", "beige", "brown", "gray"},
	"gray":   {"white", "black", "blue", "red", "yellow"},
	"brown":  {"white", "beige", "green", "blue"},
	"beige":  {"brown", "white", "blue", "red"},
	"yellow": {"black", "gray", "brown", "blue"},
	"navy":   {"white", "beige", "gray", "red"},
	"pink":   {"white", "gray", "black", "blue"},
	"purple": {"white", "gray", "black", "beige"},
}

type styleRule struct {
	PreferredCategories []string
	Colors              []string
	Avoid               []string
}

var styleRules = map[string]styleRule{
	"casual": {
		PreferredCategories: []string{"tshirt", "jeans", "sneakers", "hoodie"},
		Colors:              []string{"blue", "white", "gray", "black"},
		Avoid:               []string{"formal", "suit", "tie"},
	},
	"formal": {
		PreferredCategories: []string{"shirt", "pants", "shoes", "jacket"},
		Colors:              []string{"black", "white", "gray", "navy"},
		Avoid:               []string{"sneakers", "tshirt", "shorts"},
	},
	"business": {
		PreferredCategories: []string{"shirt", "pants", "shoes", "blazer"},
		Colors:              []string{"navy", "gray", "white", "black"},
		Avoid:               []string{"sneakers", "shorts", "tshirt"},
	},
	"sporty": {
		PreferredCategories: []string{"tshirt", "shorts", "sneakers", "tracksuit"},
		Colors:              []string{"blue", "red", "white", "black"},
		Avoid:               []string{"formal", "dress", "heels"},
	},
}

// occasionStyles maps an occasion to the styles that suit it, most fitting
// first.
var occasionStyles = map[string][]string{
	"work":             {"business", "formal"},
	"party":            {"formal", "elegant"},
	"date":             {"elegant", "casual"},
	"casual":           {"casual", "sporty"},
	"formal event":     {"formal", "elegant"},
	"business meeting": {"business", "formal"},
	"weekend":          {"casual", "sporty"},
	"vacation":         {"casual", "sporty"},
	"gym":              {"sporty"},
	"shopping":         {"casual"},
	"dinner":           {"elegant", "formal"},
}

var outfitNames = map[string][]string{
	"casual": {
		"Urban Comfort",
		"Everyday Chic",
		"Casual Friday",
		"Relaxed Look",
		"Easygoing Style",
	},
	"formal": {
		"Business Elegance",
		"Classic Suit",
		"Sharp Dress",
		"Refined Look",
		"Formal Chic",
	},
	"business": {
		"Office Style",
		"Business Dress Code",
		"Professional Look",
		"Corporate Chic",
		"Business Professional",
	},
	"sporty": {
		"Sport Comfort",
		"Active Day",
		"Sport Chic",
		"Athletic Style",
		"Training Look",
	},
}

// slotFor places an item category into one of the five outfit slots,
// defaulting to accessory for anything unknown.
var slotFor = map[string]outfit.Category{
	"top": outfit.CategoryTop, "tops": outfit.CategoryTop,
	"shirt": outfit.CategoryTop, "tshirt": outfit.CategoryTop,
	"hoodie": outfit.CategoryTop, "sweater": outfit.CategoryTop,
	"jacket": outfit.CategoryTop, "coat": outfit.CategoryTop,
	"dress": outfit.CategoryTop,

	"bottom": outfit.CategoryBottom, "bottoms": outfit.CategoryBottom,
	"pants": outfit.CategoryBottom, "jeans": outfit.CategoryBottom,
	"shorts": outfit.CategoryBottom, "skirt": outfit.CategoryBottom,

	"footwear": outfit.CategoryFootwear, "shoes": outfit.CategoryFootwear,
	"sneakers": outfit.CategoryFootwear,

	"accessories": outfit.CategoryAccessory, "accessory": outfit.CategoryAccessory,

	"fragrances": outfit.CategoryFragrance, "fragrance": outfit.CategoryFragrance,
}

func slotOf(category string) outfit.Category {
	if slot, ok := slotFor[strings.ToLower(strings.TrimSpace(category))]; ok {
		return slot
	}
	return outfit.CategoryAccessory
}

// stylesForOccasion resolves an occasion to candidate styles. An unknown or
// empty occasion falls back to casual.
func stylesForOccasion(occasion string) []string {
	if styles, ok := occasionStyles[strings.ToLower(strings.TrimSpace(occasion))]; ok {
		return styles
	}
	return []string{"casual"}
}

// harmonious reports whether every color in the set combines with the first
// one. Items without a color are ignored; an empty set is harmonious.
func harmonious(items []item.Item) bool {
	var colors []string
	for _, it := range items {
		if c := strings.ToLower(strings.TrimSpace(it.Color)); c != "" {
			colors = append(colors, c)
		}
	}
	if len(colors) < 2 {
		return true
	}

	base := colors[0]
	compatible, ok := colorHarmony[base]
	if !ok {
		return true
	}
	for _, c := range colors[1:] {
		if c == base {
			continue
		}
		found := false
		for _, want := range compatible {
			if c == want {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

// score rates an assembled outfit from 0 to 100: a base of 50, plus 10 per
// item in a style-preferred category, 20 for color harmony and 10 for a
// 3 to 6 item size.
func score(items []item.Item, style string) int {
	if len(items) == 0 {
		return 0
	}
	total := 50

	if rule, ok := styleRules[style]; ok {
		for _, it := range items {
			category := strings.ToLower(it.Category)
			for _, pref := range rule.PreferredCategories {
				if strings.Contains(category, pref) {
					total += 10
					break
				}
			}
		}
	}
	if harmonious(items) {
		total += 20
	}
	if n := len(items); n >= 3 && n <= 6 {
		total += 10
	}
	if total > 100 {
		total = 100
	}
	return total
}
