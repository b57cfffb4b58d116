// Package models defines the core data structures used throughout pricecmp
// including vendors, items, snapshots and comparison views.
package models

// Vendor represents a price-quoting entity
type Vendor struct {
	ID   string `json:"id" yaml:"id"`
	Name string `json:"name" yaml:"name"`
}

// ShortID returns the last 8 characters of the vendor ID
func (v Vendor) ShortID() string {
	return shortID(v.ID)
}

// shortID keeps the tail of id. UUIDv7 IDs lead with a millisecond
// timestamp, so their tails are the random part.
func shortID(id string) string {
	if len(id) > 8 {
		return id[len(id)-8:]
	}
	return id
}
