package catalog

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/kilupskalvis/pricecmp/internal/models"
)

// AddItem registers a new item with an empty price mapping.
func (s *Store) AddItem(ctx context.Context, name string) (models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Item{}, fmt.Errorf("item name is required: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	it := models.NewItem(s.uniqueID(), name)
	if err := s.persist(ctx, "add item", func(p Persister) error {
		return p.PutItem(ctx, it)
	}); err != nil {
		s.done("add_item", err)
		return models.Item{}, err
	}

	s.itemIdx[it.ID] = len(s.items)
	s.items = append(s.items, it)
	s.done("add_item", nil)
	s.logger.Debug("item added", "item_id", it.ID, "name", it.Name)
	return it.Clone(), nil
}

// RemoveItem deletes an item. Items are never referenced by other records.
func (s *Store) RemoveItem(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.itemIdx[id]
	if !ok {
		err := fmt.Errorf("item %q: %w", id, ErrNotFound)
		s.done("remove_item", err)
		return err
	}

	if err := s.persist(ctx, "remove item", func(p Persister) error {
		return p.DeleteItem(ctx, id)
	}); err != nil {
		s.done("remove_item", err)
		return err
	}

	s.items = append(s.items[:pos], s.items[pos+1:]...)
	s.reindexItems()
	s.done("remove_item", nil)
	s.logger.Debug("item removed", "item_id", id)
	return nil
}

// RenameItem changes an item's display name.
func (s *Store) RenameItem(ctx context.Context, id, name string) (models.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Item{}, fmt.Errorf("item name is required: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.itemIdx[id]
	if !ok {
		err := fmt.Errorf("item %q: %w", id, ErrNotFound)
		s.done("rename_item", err)
		return models.Item{}, err
	}

	if s.items[pos].Name == name {
		return s.items[pos].Clone(), nil
	}
	renamed := models.Item{ID: id, Name: name}
	if err := s.persist(ctx, "rename item", func(p Persister) error {
		return p.PutItem(ctx, renamed)
	}); err != nil {
		s.done("rename_item", err)
		return models.Item{}, err
	}

	s.items[pos].Name = name
	s.done("rename_item", nil)
	return s.items[pos].Clone(), nil
}

// ValidatePrice rejects NaN, infinities and negative prices.
// Zero is a valid quote; it is simply never the best price.
func ValidatePrice(price float64) error {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return fmt.Errorf("price must be a finite number: %w", ErrInvalidInput)
	}
	if price < 0 {
		return fmt.Errorf("price %v is negative: %w", price, ErrInvalidInput)
	}
	return nil
}

// UpdatePrice sets the price vendorID quotes for itemID. Both must exist.
// Setting the value already stored is a no-op.
func (s *Store) UpdatePrice(ctx context.Context, itemID, vendorID string, price float64) (models.Item, error) {
	if err := ValidatePrice(price); err != nil {
		s.observer.MutationDone("update_price", err)
		return models.Item{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.lookupPair(itemID, vendorID)
	if err != nil {
		s.done("update_price", err)
		return models.Item{}, err
	}

	it := &s.items[pos]
	if cur, ok := it.Prices[vendorID]; ok && cur == price {
		return it.Clone(), nil
	}

	if err := s.persist(ctx, "update price", func(p Persister) error {
		return p.PutPrice(ctx, itemID, vendorID, price)
	}); err != nil {
		s.done("update_price", err)
		return models.Item{}, err
	}

	it.Prices[vendorID] = price
	s.done("update_price", nil)
	s.logger.Debug("price updated", "item_id", itemID, "vendor_id", vendorID, "price", price)
	return it.Clone(), nil
}

// ClearPrice removes the quote vendorID gave for itemID, if any.
func (s *Store) ClearPrice(ctx context.Context, itemID, vendorID string) (models.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, err := s.lookupPair(itemID, vendorID)
	if err != nil {
		s.done("clear_price", err)
		return models.Item{}, err
	}

	it := &s.items[pos]
	if _, ok := it.Prices[vendorID]; !ok {
		return it.Clone(), nil
	}

	if err := s.persist(ctx, "clear price", func(p Persister) error {
		return p.DeletePrice(ctx, itemID, vendorID)
	}); err != nil {
		s.done("clear_price", err)
		return models.Item{}, err
	}

	delete(it.Prices, vendorID)
	s.done("clear_price", nil)
	return it.Clone(), nil
}

// lookupPair returns the item position after checking both IDs exist.
func (s *Store) lookupPair(itemID, vendorID string) (int, error) {
	pos, ok := s.itemIdx[itemID]
	if !ok {
		return 0, fmt.Errorf("item %q: %w", itemID, ErrNotFound)
	}
	if _, ok := s.vendorIdx[vendorID]; !ok {
		return 0, fmt.Errorf("vendor %q: %w", vendorID, ErrNotFound)
	}
	return pos, nil
}

// Items returns all items in creation order.
func (s *Store) Items() []models.Item {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.itemsLocked()
}

// Item returns a copy of the item with the given ID.
func (s *Store) Item(id string) (models.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.itemIdx[id]
	if !ok {
		return models.Item{}, fmt.Errorf("item %q: %w", id, ErrNotFound)
	}
	return s.items[pos].Clone(), nil
}

// ResolveItemID expands a full ID, a unique ID prefix or a unique short ID
// (ID suffix) into an item ID.
func (s *Store) ResolveItemID(ref string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.items))
	for i, it := range s.items {
		ids[i] = it.ID
	}
	return resolveID("item", ref, s.itemIdx, ids)
}
