package models

// Snapshot is the full catalog state in creation order
type Snapshot struct {
	Vendors []Vendor `json:"vendors" yaml:"vendors"`
	Items   []Item   `json:"items" yaml:"items"`
}

// VendorIndex maps vendor IDs to their position in Vendors
func (s *Snapshot) VendorIndex() map[string]int {
	idx := make(map[string]int, len(s.Vendors))
	for i, v := range s.Vendors {
		idx[v.ID] = i
	}
	return idx
}
