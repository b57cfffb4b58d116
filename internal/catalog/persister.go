package catalog

import (
	"context"

	"github.com/kilupskalvis/pricecmp/internal/models"
)

// Persister mirrors catalog mutations to durable storage.
// Implementations live in the store package.
type Persister interface {
	// Load returns every vendor, item and price in creation order.
	Load(ctx context.Context) (*models.Snapshot, error)

	PutVendor(ctx context.Context, v models.Vendor) error
	// DeleteVendor removes the vendor together with all of its prices.
	DeleteVendor(ctx context.Context, id string) error

	// PutItem stores the item's identity and name; prices are written separately.
	PutItem(ctx context.Context, it models.Item) error
	// DeleteItem removes the item together with all of its prices.
	DeleteItem(ctx context.Context, id string) error

	PutPrice(ctx context.Context, itemID, vendorID string, price float64) error
	DeletePrice(ctx context.Context, itemID, vendorID string) error

	Close() error
}

// Observer receives store events, typically to export metrics.
type Observer interface {
	MutationDone(op string, err error)
	CatalogSize(vendors, items int)
	Degraded(degraded bool)
}

type noopObserver struct{}

func (noopObserver) MutationDone(string, error) {}
func (noopObserver) CatalogSize(int, int)       {}
func (noopObserver) Degraded(bool)              {}
