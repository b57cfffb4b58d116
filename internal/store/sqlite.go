// Package store provides the persistence backends for the catalog: an
// SQLite database (modernc.org/sqlite) and an embedded bbolt file. Both
// implement catalog.Persister.
package store

import (
	"context"
	"database/sql"
	"fmt"

	"golang.org/x/sync/errgroup"
	_ "modernc.org/sqlite"

	"github.com/kilupskalvis/pricecmp/internal/models"
)

// SQLiteStore persists the catalog in an SQLite database.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens (creating if needed) the database at dbPath and ensures
// the schema exists.
func NewSQLite(dbPath string) (*SQLiteStore, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying database connection for advanced queries
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// initialize creates the database schema
func (s *SQLiteStore) initialize() error {
	schema := `
	-- seq preserves creation order across renames
	CREATE TABLE IF NOT EXISTS vendors (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS items (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		id TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	);

	-- references are enforced by the catalog, not by foreign keys
	CREATE TABLE IF NOT EXISTS prices (
		item_id TEXT NOT NULL,
		vendor_id TEXT NOT NULL,
		price REAL NOT NULL,
		PRIMARY KEY (item_id, vendor_id)
	);

	CREATE INDEX IF NOT EXISTS idx_prices_vendor ON prices(vendor_id);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Load reads vendors, items and prices concurrently and assembles a snapshot.
func (s *SQLiteStore) Load(ctx context.Context) (*models.Snapshot, error) {
	var (
		vendors []models.Vendor
		items   []models.Item
		prices  map[string]map[string]float64
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		vendors, err = s.loadVendors(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		items, err = s.loadItems(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		prices, err = s.loadPrices(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i := range items {
		if p, ok := prices[items[i].ID]; ok {
			items[i].Prices = p
		}
	}
	return &models.Snapshot{Vendors: vendors, Items: items}, nil
}

func (s *SQLiteStore) loadVendors(ctx context.Context) ([]models.Vendor, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM vendors ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query vendors: %w", err)
	}
	defer rows.Close()

	var vendors []models.Vendor
	for rows.Next() {
		var v models.Vendor
		if err := rows.Scan(&v.ID, &v.Name); err != nil {
			return nil, fmt.Errorf("scan vendor: %w", err)
		}
		vendors = append(vendors, v)
	}
	return vendors, rows.Err()
}

func (s *SQLiteStore) loadItems(ctx context.Context) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, name FROM items ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		var id, name string
		if err := rows.Scan(&id, &name); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, models.NewItem(id, name))
	}
	return items, rows.Err()
}

func (s *SQLiteStore) loadPrices(ctx context.Context) (map[string]map[string]float64, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT item_id, vendor_id, price FROM prices")
	if err != nil {
		return nil, fmt.Errorf("query prices: %w", err)
	}
	defer rows.Close()

	prices := make(map[string]map[string]float64)
	for rows.Next() {
		var itemID, vendorID string
		var price float64
		if err := rows.Scan(&itemID, &vendorID, &price); err != nil {
			return nil, fmt.Errorf("scan price: %w", err)
		}
		if prices[itemID] == nil {
			prices[itemID] = make(map[string]float64)
		}
		prices[itemID][vendorID] = price
	}
	return prices, rows.Err()
}

// PutVendor inserts a vendor or renames an existing one.
func (s *SQLiteStore) PutVendor(ctx context.Context, v models.Vendor) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO vendors (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name",
		v.ID, v.Name,
	)
	if err != nil {
		return fmt.Errorf("put vendor %s: %w", v.ID, err)
	}
	return nil
}

// DeleteVendor removes the vendor and its prices in one transaction.
func (s *SQLiteStore) DeleteVendor(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM prices WHERE vendor_id = ?", id); err != nil {
			return fmt.Errorf("delete vendor prices: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM vendors WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete vendor: %w", err)
		}
		return nil
	})
}

// PutItem inserts an item or renames an existing one.
func (s *SQLiteStore) PutItem(ctx context.Context, it models.Item) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO items (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name",
		it.ID, it.Name,
	)
	if err != nil {
		return fmt.Errorf("put item %s: %w", it.ID, err)
	}
	return nil
}

// DeleteItem removes the item and its prices in one transaction.
func (s *SQLiteStore) DeleteItem(ctx context.Context, id string) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM prices WHERE item_id = ?", id); err != nil {
			return fmt.Errorf("delete item prices: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM items WHERE id = ?", id); err != nil {
			return fmt.Errorf("delete item: %w", err)
		}
		return nil
	})
}

// PutPrice sets or overwrites a single price.
func (s *SQLiteStore) PutPrice(ctx context.Context, itemID, vendorID string, price float64) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT OR REPLACE INTO prices (item_id, vendor_id, price) VALUES (?, ?, ?)",
		itemID, vendorID, price,
	)
	if err != nil {
		return fmt.Errorf("put price: %w", err)
	}
	return nil
}

// DeletePrice removes a single price.
func (s *SQLiteStore) DeletePrice(ctx context.Context, itemID, vendorID string) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM prices WHERE item_id = ? AND vendor_id = ?", itemID, vendorID)
	if err != nil {
		return fmt.Errorf("delete price: %w", err)
	}
	return nil
}

func (s *SQLiteStore) inTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}
