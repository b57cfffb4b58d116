package catalog

import (
	"context"
	"fmt"
	"strings"

	"github.com/kilupskalvis/pricecmp/internal/models"
)

// AddVendor registers a new vendor with a fresh ID.
func (s *Store) AddVendor(ctx context.Context, name string) (models.Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Vendor{}, fmt.Errorf("vendor name is required: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	v := models.Vendor{ID: s.uniqueID(), Name: name}
	if err := s.persist(ctx, "add vendor", func(p Persister) error {
		return p.PutVendor(ctx, v)
	}); err != nil {
		s.done("add_vendor", err)
		return models.Vendor{}, err
	}

	s.vendorIdx[v.ID] = len(s.vendors)
	s.vendors = append(s.vendors, v)
	s.done("add_vendor", nil)
	s.logger.Debug("vendor added", "vendor_id", v.ID, "name", v.Name)
	return v, nil
}

// RemoveVendor deletes a vendor and strips its price from every item.
// Both happen under one lock so no reader observes a dangling price key.
func (s *Store) RemoveVendor(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.vendorIdx[id]
	if !ok {
		err := fmt.Errorf("vendor %q: %w", id, ErrNotFound)
		s.done("remove_vendor", err)
		return err
	}

	if err := s.persist(ctx, "remove vendor", func(p Persister) error {
		return p.DeleteVendor(ctx, id)
	}); err != nil {
		s.done("remove_vendor", err)
		return err
	}

	s.vendors = append(s.vendors[:pos], s.vendors[pos+1:]...)
	s.reindexVendors()
	for i := range s.items {
		delete(s.items[i].Prices, id)
	}
	s.done("remove_vendor", nil)
	s.logger.Debug("vendor removed", "vendor_id", id)
	return nil
}

// RenameVendor changes a vendor's display name.
func (s *Store) RenameVendor(ctx context.Context, id, name string) (models.Vendor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.Vendor{}, fmt.Errorf("vendor name is required: %w", ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.vendorIdx[id]
	if !ok {
		err := fmt.Errorf("vendor %q: %w", id, ErrNotFound)
		s.done("rename_vendor", err)
		return models.Vendor{}, err
	}

	v := s.vendors[pos]
	if v.Name == name {
		return v, nil
	}
	v.Name = name
	if err := s.persist(ctx, "rename vendor", func(p Persister) error {
		return p.PutVendor(ctx, v)
	}); err != nil {
		s.done("rename_vendor", err)
		return models.Vendor{}, err
	}

	s.vendors[pos] = v
	s.done("rename_vendor", nil)
	return v, nil
}

// Vendors returns all vendors in creation order.
func (s *Store) Vendors() []models.Vendor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.vendorsLocked()
}

// Vendor returns the vendor with the given ID.
func (s *Store) Vendor(id string) (models.Vendor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.vendorIdx[id]
	if !ok {
		return models.Vendor{}, fmt.Errorf("vendor %q: %w", id, ErrNotFound)
	}
	return s.vendors[pos], nil
}

// ResolveVendorID expands a full ID, a unique ID prefix or a unique short ID
// (ID suffix) into a vendor ID.
func (s *Store) ResolveVendorID(ref string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := make([]string, len(s.vendors))
	for i, v := range s.vendors {
		ids[i] = v.ID
	}
	return resolveID("vendor", ref, s.vendorIdx, ids)
}

// resolveID matches ref exactly first, then as a prefix or suffix of exactly
// one ID.
func resolveID(kind, ref string, idx map[string]int, ids []string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%s id is required: %w", kind, ErrInvalidInput)
	}
	if _, ok := idx[ref]; ok {
		return ref, nil
	}
	var match string
	for _, id := range ids {
		if strings.HasPrefix(id, ref) || strings.HasSuffix(id, ref) {
			if match != "" {
				return "", fmt.Errorf("%s id %q is ambiguous: %w", kind, ref, ErrInvalidInput)
			}
			match = id
		}
	}
	if match == "" {
		return "", fmt.Errorf("%s %q: %w", kind, ref, ErrNotFound)
	}
	return match, nil
}

// maxIDAttempts bounds how often uniqueID asks the configured generator
// before switching to newUUID.
const maxIDAttempts = 16

// uniqueID draws IDs until one is unused by any vendor or item.
// Must be called with s.mu held.
func (s *Store) uniqueID() string {
	gen := s.newID
	for attempt := 0; ; attempt++ {
		if attempt == maxIDAttempts {
			s.logger.Warn("id generator keeps colliding, using UUIDv7", "attempts", attempt)
			gen = newUUID
		}
		id := gen()
		if id == "" {
			continue
		}
		_, v := s.vendorIdx[id]
		_, i := s.itemIdx[id]
		if !v && !i {
			return id
		}
	}
}
