package catalog

import (
	"fmt"
	"strings"

	"github.com/kilupskalvis/pricecmp/internal/models"
	"github.com/kilupskalvis/pricecmp/internal/query"
)

// Filter returns the items matching f in creation order.
//
// An item matches when its name contains f.Search case-insensitively, it has
// a price from f.VendorID (if set), at least one of its prices lies within
// [f.Min, f.Max] (items without any price always pass this check), and the
// optional f.Expr predicate holds.
func (s *Store) Filter(f models.Filter) ([]models.Item, error) {
	match, err := s.compileFilter(f)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Item, 0, len(s.items))
	for _, it := range s.items {
		if match(it) {
			out = append(out, it.Clone())
		}
	}
	return out, nil
}

// Compare builds the comparison matrix for the items matching f.
func (s *Store) Compare(f models.Filter) (*models.Comparison, error) {
	match, err := s.compileFilter(f)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var items []models.Item
	for _, it := range s.items {
		if match(it) {
			items = append(items, it)
		}
	}
	return models.NewComparison(s.vendorsLocked(), items), nil
}

// compileFilter validates f and returns its match function.
func (s *Store) compileFilter(f models.Filter) (func(models.Item) bool, error) {
	if err := f.Validate(); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
	}

	var pred *query.Predicate
	if strings.TrimSpace(f.Expr) != "" {
		p, err := query.Compile(f.Expr)
		if err != nil {
			return nil, fmt.Errorf("%v: %w", err, ErrInvalidInput)
		}
		pred = p
	}

	term := strings.ToLower(f.Search)
	return func(it models.Item) bool {
		if !strings.Contains(strings.ToLower(it.Name), term) {
			return false
		}
		if f.VendorID != "" {
			if _, ok := it.Prices[f.VendorID]; !ok {
				return false
			}
		}
		if len(it.Prices) > 0 {
			inRange := false
			for _, p := range it.Prices {
				if f.InRange(p) {
					inRange = true
					break
				}
			}
			if !inRange {
				return false
			}
		}
		if pred != nil {
			ok, err := pred.Match(it)
			if err != nil {
				s.logger.Debug("filter expression failed", "item_id", it.ID, "error", err)
				return false
			}
			if !ok {
				return false
			}
		}
		return true
	}, nil
}
