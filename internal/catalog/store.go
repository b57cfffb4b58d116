// Package catalog implements the in-memory state store for vendors, items
// and their prices. The store optionally mirrors every mutation to a
// Persister using a write-ahead model: the persister is written first and
// the in-memory state is changed afterwards. When the persister keeps
// failing the store degrades to memory-only mode instead of failing the
// caller.
package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"
	"github.com/kilupskalvis/pricecmp/internal/models"
)

// Store owns the vendor and item collections.
type Store struct {
	mu sync.RWMutex

	vendors   []models.Vendor
	items     []models.Item
	vendorIdx map[string]int
	itemIdx   map[string]int

	persister Persister
	retry     *RetryConfig
	newID     func() string
	logger    *slog.Logger
	observer  Observer

	persistent bool  // a persister was configured
	degradeErr error // set once the store fell back to memory-only
}

// Option configures a Store.
type Option func(*Store)

// WithPersister mirrors mutations to p. A nil persister keeps the store in memory.
func WithPersister(p Persister) Option {
	return func(s *Store) {
		s.persister = p
	}
}

// WithLogger sets the logger used for persistence warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithIDGenerator replaces the UUIDv7 generator, mostly for tests.
func WithIDGenerator(fn func() string) Option {
	return func(s *Store) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// WithRetry sets the retry policy for persister writes.
func WithRetry(cfg *RetryConfig) Option {
	return func(s *Store) {
		if cfg != nil {
			s.retry = cfg
		}
	}
}

// WithObserver registers an observer for mutations and size changes.
func WithObserver(o Observer) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// New creates an empty store. Call Load to populate it from the persister.
func New(opts ...Option) *Store {
	s := &Store{
		vendorIdx: make(map[string]int),
		itemIdx:   make(map[string]int),
		retry:     DefaultRetryConfig(),
		newID:     newUUID,
		logger:    slog.Default(),
		observer:  noopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.persistent = s.persister != nil
	return s
}

// newUUID returns a time-ordered UUIDv7, falling back to a random UUID.
func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Status describes the persistence state of the store.
type Status struct {
	Persistent bool  `json:"persistent"` // a persister was configured
	Degraded   bool  `json:"degraded"`   // persistence failed; memory only
	Err        error `json:"-"`          // wraps ErrPersistenceUnavailable when degraded
	Vendors    int   `json:"vendors"`
	Items      int   `json:"items"`
}

// Status returns the current persistence state.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Status{
		Persistent: s.persistent,
		Degraded:   s.degradeErr != nil,
		Err:        s.degradeErr,
		Vendors:    len(s.vendors),
		Items:      len(s.items),
	}
}

// Close releases the persister, if any.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.persister == nil {
		return nil
	}
	err := s.persister.Close()
	s.persister = nil
	return err
}

// Load replaces the in-memory collections with the persister's contents.
// Price keys that reference missing vendors are dropped. A load failure
// degrades the store to memory-only mode and is returned for reporting;
// the store stays usable either way.
func (s *Store) Load(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister == nil {
		return nil
	}

	snap, err := s.persister.Load(ctx)
	if err != nil {
		s.degrade("load", err)
		return s.degradeErr
	}

	s.vendors = s.vendors[:0]
	s.items = s.items[:0]
	s.vendorIdx = make(map[string]int, len(snap.Vendors))
	s.itemIdx = make(map[string]int, len(snap.Items))

	for _, v := range snap.Vendors {
		if _, dup := s.vendorIdx[v.ID]; dup {
			continue
		}
		s.vendorIdx[v.ID] = len(s.vendors)
		s.vendors = append(s.vendors, v)
	}
	for _, it := range snap.Items {
		if _, dup := s.itemIdx[it.ID]; dup {
			continue
		}
		c := models.NewItem(it.ID, it.Name)
		for vendorID, p := range it.Prices {
			if _, ok := s.vendorIdx[vendorID]; !ok {
				s.logger.Warn("dropping price for unknown vendor", "item_id", it.ID, "vendor_id", vendorID)
				continue
			}
			c.Prices[vendorID] = p
		}
		s.itemIdx[c.ID] = len(s.items)
		s.items = append(s.items, c)
	}

	s.observer.CatalogSize(len(s.vendors), len(s.items))
	s.logger.Debug("catalog loaded", "vendors", len(s.vendors), "items", len(s.items))
	return nil
}

// persist runs fn against the persister with retries. Only context errors
// are returned; any other failure degrades the store and returns nil so the
// caller applies the mutation in memory.
// Must be called with s.mu held for writing.
func (s *Store) persist(ctx context.Context, op string, fn func(p Persister) error) error {
	if s.persister == nil {
		return nil
	}
	p := s.persister
	err := s.retry.retry(ctx, op, func() error { return fn(p) })
	if err == nil {
		return nil
	}
	if isContextErr(err) {
		return err
	}
	s.degrade(op, err)
	return nil
}

// degrade detaches the persister and records the failure.
// Must be called with s.mu held for writing.
func (s *Store) degrade(op string, cause error) {
	s.degradeErr = fmt.Errorf("%s: %w: %v", op, ErrPersistenceUnavailable, cause)
	if s.persister != nil {
		if err := s.persister.Close(); err != nil {
			s.logger.Debug("close persister", "error", err)
		}
		s.persister = nil
	}
	s.logger.Warn("persistence unavailable, continuing in memory only", "op", op, "error", cause)
	s.observer.Degraded(true)
}

// done reports a finished mutation to the observer.
// Must be called with s.mu held.
func (s *Store) done(op string, err error) {
	s.observer.MutationDone(op, err)
	if err == nil {
		s.observer.CatalogSize(len(s.vendors), len(s.items))
	}
}

// reindexVendors rebuilds the vendor position index after a removal.
func (s *Store) reindexVendors() {
	s.vendorIdx = make(map[string]int, len(s.vendors))
	for i, v := range s.vendors {
		s.vendorIdx[v.ID] = i
	}
}

func (s *Store) reindexItems() {
	s.itemIdx = make(map[string]int, len(s.items))
	for i, it := range s.items {
		s.itemIdx[it.ID] = i
	}
}

// Snapshot returns a deep copy of the catalog.
func (s *Store) Snapshot() *models.Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return &models.Snapshot{Vendors: s.vendorsLocked(), Items: s.itemsLocked()}
}

func (s *Store) vendorsLocked() []models.Vendor {
	out := make([]models.Vendor, len(s.vendors))
	copy(out, s.vendors)
	return out
}

func (s *Store) itemsLocked() []models.Item {
	out := make([]models.Item, len(s.items))
	for i, it := range s.items {
		out[i] = it.Clone()
	}
	return out
}
