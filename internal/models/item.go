package models

import (
	"math"
	"sort"
)

// Item represents a priceable entity with a sparse vendor -> price mapping.
// A vendor missing from Prices has not quoted the item; it is not a zero price.
type Item struct {
	ID     string             `json:"id" yaml:"id"`
	Name   string             `json:"name" yaml:"name"`
	Prices map[string]float64 `json:"prices" yaml:"prices"`
}

// NewItem creates an item with an empty price mapping
func NewItem(id, name string) Item {
	return Item{ID: id, Name: name, Prices: make(map[string]float64)}
}

// ShortID returns the last 8 characters of the item ID
func (i Item) ShortID() string {
	return shortID(i.ID)
}

// Price returns the price quoted by vendorID, if any
func (i Item) Price(vendorID string) (float64, bool) {
	p, ok := i.Prices[vendorID]
	return p, ok
}

// BestPrice returns the minimum strictly-positive price. The second return
// value is false when no vendor quoted a positive price.
func (i Item) BestPrice() (float64, bool) {
	best := math.Inf(1)
	found := false
	for _, p := range i.Prices {
		if p > 0 && p < best {
			best = p
			found = true
		}
	}
	if !found {
		return 0, false
	}
	return best, true
}

// BestVendors returns the sorted IDs of vendors quoting the best price
func (i Item) BestVendors() []string {
	best, ok := i.BestPrice()
	if !ok {
		return nil
	}
	var ids []string
	for id, p := range i.Prices {
		if p == best {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// PriceBounds returns the lowest and highest quoted prices, including zero quotes
func (i Item) PriceBounds() (lo, hi float64, ok bool) {
	for _, p := range i.Prices {
		if !ok {
			lo, hi, ok = p, p, true
			continue
		}
		lo = math.Min(lo, p)
		hi = math.Max(hi, p)
	}
	return lo, hi, ok
}

// Clone returns a deep copy of the item
func (i Item) Clone() Item {
	c := Item{ID: i.ID, Name: i.Name, Prices: make(map[string]float64, len(i.Prices))}
	for k, v := range i.Prices {
		c.Prices[k] = v
	}
	return c
}
