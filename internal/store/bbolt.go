package store

import (
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"time"

	bolt "go.etcd.io/bbolt"

	"github.com/kilupskalvis/pricecmp/internal/models"
)

// Bucket names used by the bbolt backend.
var (
	bucketVendors = []byte("vendors")
	bucketItems   = []byte("items")
	bucketPrices  = []byte("prices")
)

// priceKeySep separates item and vendor IDs in price keys.
const priceKeySep = 0x00

// record is the stored form of a vendor or item.
type record struct {
	Seq  uint64 `json:"seq"`
	ID   string `json:"id"`
	Name string `json:"name"`
}

// BoltStore persists the catalog in a bbolt database file.
type BoltStore struct {
	db *bolt.DB
}

// NewBolt opens or creates a bbolt database at the given path.
func NewBolt(dbPath string) (*BoltStore, error) {
	if err := ensureDir(dbPath); err != nil {
		return nil, err
	}

	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		for _, name := range [][]byte{bucketVendors, bucketItems, bucketPrices} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return fmt.Errorf("create bucket %s: %w", name, err)
			}
		}
		return nil
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &BoltStore{db: db}, nil
}

// Close releases the bbolt database.
func (s *BoltStore) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func priceKey(itemID, vendorID string) []byte {
	k := make([]byte, 0, len(itemID)+len(vendorID)+1)
	k = append(k, itemID...)
	k = append(k, priceKeySep)
	return append(k, vendorID...)
}

func splitPriceKey(k []byte) (itemID, vendorID string, ok bool) {
	i := bytes.IndexByte(k, priceKeySep)
	if i < 0 {
		return "", "", false
	}
	return string(k[:i]), string(k[i+1:]), true
}

func encodePrice(p float64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(p))
	return b
}

func decodePrice(b []byte) (float64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid price value of %d bytes", len(b))
	}
	return math.Float64frombits(binary.BigEndian.Uint64(b)), nil
}

// readRecords returns every record of a bucket ordered by sequence.
func readRecords(b *bolt.Bucket) ([]record, error) {
	var recs []record
	err := b.ForEach(func(_, v []byte) error {
		var r record
		if err := json.Unmarshal(v, &r); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		recs = append(recs, r)
		return nil
	})
	sort.Slice(recs, func(i, j int) bool { return recs[i].Seq < recs[j].Seq })
	return recs, err
}

// putRecord stores a record, keeping the sequence of an existing entry.
func putRecord(b *bolt.Bucket, id, name string) error {
	r := record{ID: id, Name: name}
	if existing := b.Get([]byte(id)); existing != nil {
		var old record
		if err := json.Unmarshal(existing, &old); err != nil {
			return fmt.Errorf("unmarshal record: %w", err)
		}
		r.Seq = old.Seq
	} else {
		seq, err := b.NextSequence()
		if err != nil {
			return err
		}
		r.Seq = seq
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	return b.Put([]byte(id), data)
}

// Load reads the full catalog in one read transaction.
func (s *BoltStore) Load(_ context.Context) (*models.Snapshot, error) {
	snap := &models.Snapshot{}
	err := s.db.View(func(tx *bolt.Tx) error {
		vendors, err := readRecords(tx.Bucket(bucketVendors))
		if err != nil {
			return fmt.Errorf("load vendors: %w", err)
		}
		for _, r := range vendors {
			snap.Vendors = append(snap.Vendors, models.Vendor{ID: r.ID, Name: r.Name})
		}

		items, err := readRecords(tx.Bucket(bucketItems))
		if err != nil {
			return fmt.Errorf("load items: %w", err)
		}
		pos := make(map[string]int, len(items))
		for i, r := range items {
			pos[r.ID] = i
			snap.Items = append(snap.Items, models.NewItem(r.ID, r.Name))
		}

		return tx.Bucket(bucketPrices).ForEach(func(k, v []byte) error {
			itemID, vendorID, ok := splitPriceKey(k)
			if !ok {
				return nil
			}
			i, ok := pos[itemID]
			if !ok {
				return nil
			}
			p, err := decodePrice(v)
			if err != nil {
				return fmt.Errorf("load price %s/%s: %w", itemID, vendorID, err)
			}
			snap.Items[i].Prices[vendorID] = p
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// PutVendor inserts a vendor or renames an existing one.
func (s *BoltStore) PutVendor(_ context.Context, v models.Vendor) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putRecord(tx.Bucket(bucketVendors), v.ID, v.Name)
	})
}

// DeleteVendor removes the vendor and every price it quoted.
func (s *BoltStore) DeleteVendor(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		prices := tx.Bucket(bucketPrices)
		var keys [][]byte
		if err := prices.ForEach(func(k, _ []byte) error {
			if _, vendorID, ok := splitPriceKey(k); ok && vendorID == id {
				keys = append(keys, append([]byte(nil), k...))
			}
			return nil
		}); err != nil {
			return err
		}
		for _, k := range keys {
			if err := prices.Delete(k); err != nil {
				return fmt.Errorf("delete price: %w", err)
			}
		}
		return tx.Bucket(bucketVendors).Delete([]byte(id))
	})
}

// PutItem inserts an item or renames an existing one.
func (s *BoltStore) PutItem(_ context.Context, it models.Item) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return putRecord(tx.Bucket(bucketItems), it.ID, it.Name)
	})
}

// DeleteItem removes the item and its prices.
func (s *BoltStore) DeleteItem(_ context.Context, id string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		prices := tx.Bucket(bucketPrices)
		prefix := append([]byte(id), priceKeySep)
		var keys [][]byte
		c := prices.Cursor()
		for k, _ := c.Seek(prefix); k != nil && bytes.HasPrefix(k, prefix); k, _ = c.Next() {
			keys = append(keys, append([]byte(nil), k...))
		}
		for _, k := range keys {
			if err := prices.Delete(k); err != nil {
				return fmt.Errorf("delete price: %w", err)
			}
		}
		return tx.Bucket(bucketItems).Delete([]byte(id))
	})
}

// PutPrice sets or overwrites a single price.
func (s *BoltStore) PutPrice(_ context.Context, itemID, vendorID string, price float64) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrices).Put(priceKey(itemID, vendorID), encodePrice(price))
	})
}

// DeletePrice removes a single price.
func (s *BoltStore) DeletePrice(_ context.Context, itemID, vendorID string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketPrices).Delete(priceKey(itemID, vendorID))
	})
}
