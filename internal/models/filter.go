package models

import (
	"fmt"
	"math"
)

// Filter selects a subsequence of items for display.
// The zero value (empty search, min 0, no max, no vendor) matches every item.
type Filter struct {
	Search   string   `json:"search,omitempty"`
	Min      float64  `json:"min"`
	Max      *float64 `json:"max,omitempty"`
	VendorID string   `json:"vendor_id,omitempty"`
	Expr     string   `json:"expr,omitempty"` // optional query expression
}

// Validate checks the price bounds
func (f Filter) Validate() error {
	if math.IsNaN(f.Min) || math.IsInf(f.Min, 0) || f.Min < 0 {
		return fmt.Errorf("min price must be a non-negative number")
	}
	if f.Max != nil {
		if math.IsNaN(*f.Max) || *f.Max < 0 {
			return fmt.Errorf("max price must be a non-negative number")
		}
		if *f.Max < f.Min {
			return fmt.Errorf("max price %.2f is below min price %.2f", *f.Max, f.Min)
		}
	}
	return nil
}

// InRange reports whether price lies within [Min, Max]; Max unset is unbounded
func (f Filter) InRange(price float64) bool {
	if price < f.Min {
		return false
	}
	return f.Max == nil || price <= *f.Max
}
