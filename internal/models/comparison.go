package models

// Comparison is the item-by-vendor price matrix shown to users
type Comparison struct {
	Vendors []Vendor        `json:"vendors"`
	Rows    []ComparisonRow `json:"rows"`
}

// ComparisonRow is one item line of a comparison.
// Cells follows the order of Comparison.Vendors; a nil cell means no quote.
type ComparisonRow struct {
	ItemID      string     `json:"item_id"`
	ItemName    string     `json:"item_name"`
	Cells       []*float64 `json:"cells"`
	BestPrice   *float64   `json:"best_price"`
	BestVendors []string   `json:"best_vendors,omitempty"`
}

// NewComparison builds the matrix for items against vendors
func NewComparison(vendors []Vendor, items []Item) *Comparison {
	c := &Comparison{Vendors: vendors, Rows: make([]ComparisonRow, 0, len(items))}
	for _, it := range items {
		row := ComparisonRow{
			ItemID:   it.ID,
			ItemName: it.Name,
			Cells:    make([]*float64, len(vendors)),
		}
		for i, v := range vendors {
			if p, ok := it.Price(v.ID); ok {
				p := p
				row.Cells[i] = &p
			}
		}
		if best, ok := it.BestPrice(); ok {
			row.BestPrice = &best
			row.BestVendors = it.BestVendors()
		}
		c.Rows = append(c.Rows, row)
	}
	return c
}

// IsBest reports whether the cell at vendor position i holds the row's best price
func (r ComparisonRow) IsBest(i int) bool {
	if r.BestPrice == nil || i < 0 || i >= len(r.Cells) || r.Cells[i] == nil {
		return false
	}
	return *r.Cells[i] == *r.BestPrice
}
