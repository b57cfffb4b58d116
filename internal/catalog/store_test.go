package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/kilupskalvis/pricecmp/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// seqIDs returns a deterministic ID generator: id-1, id-2, ...
func seqIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	base := []Option{WithIDGenerator(seqIDs()), WithLogger(quietLogger()), WithRetry(NoRetry())}
	return New(append(base, opts...)...)
}

// memPersister is an in-memory Persister that can be told to fail.
type memPersister struct {
	mu       sync.Mutex
	snap     models.Snapshot
	failWith error
	failN    int // fail this many calls, then succeed; -1 fails forever
	calls    int
	closed   bool
}

func (m *memPersister) fail() error {
	m.calls++
	if m.failWith == nil || m.failN == 0 {
		return nil
	}
	if m.failN > 0 {
		m.failN--
	}
	return m.failWith
}

func (m *memPersister) Load(context.Context) (*models.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return nil, err
	}
	out := &models.Snapshot{Vendors: append([]models.Vendor(nil), m.snap.Vendors...)}
	for _, it := range m.snap.Items {
		out.Items = append(out.Items, it.Clone())
	}
	return out, nil
}

func (m *memPersister) PutVendor(_ context.Context, v models.Vendor) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	for i := range m.snap.Vendors {
		if m.snap.Vendors[i].ID == v.ID {
			m.snap.Vendors[i] = v
			return nil
		}
	}
	m.snap.Vendors = append(m.snap.Vendors, v)
	return nil
}

func (m *memPersister) DeleteVendor(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	for i := range m.snap.Vendors {
		if m.snap.Vendors[i].ID == id {
			m.snap.Vendors = append(m.snap.Vendors[:i], m.snap.Vendors[i+1:]...)
			break
		}
	}
	for _, it := range m.snap.Items {
		delete(it.Prices, id)
	}
	return nil
}

func (m *memPersister) PutItem(_ context.Context, it models.Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	for i := range m.snap.Items {
		if m.snap.Items[i].ID == it.ID {
			m.snap.Items[i].Name = it.Name
			return nil
		}
	}
	m.snap.Items = append(m.snap.Items, models.NewItem(it.ID, it.Name))
	return nil
}

func (m *memPersister) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	for i := range m.snap.Items {
		if m.snap.Items[i].ID == id {
			m.snap.Items = append(m.snap.Items[:i], m.snap.Items[i+1:]...)
			break
		}
	}
	return nil
}

func (m *memPersister) PutPrice(_ context.Context, itemID, vendorID string, price float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	for i := range m.snap.Items {
		if m.snap.Items[i].ID == itemID {
			m.snap.Items[i].Prices[vendorID] = price
		}
	}
	return nil
}

func (m *memPersister) DeletePrice(_ context.Context, itemID, vendorID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.fail(); err != nil {
		return err
	}
	for i := range m.snap.Items {
		if m.snap.Items[i].ID == itemID {
			delete(m.snap.Items[i].Prices, vendorID)
		}
	}
	return nil
}

func (m *memPersister) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// ==================== Vendor Tests ====================

func TestAddVendor(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	v, err := st.AddVendor(ctx, "  Acme  ")
	require.NoError(t, err)
	assert.Equal(t, "id-1", v.ID)
	assert.Equal(t, "Acme", v.Name)
	assert.Equal(t, []models.Vendor{v}, st.Vendors())
}

func TestAddVendor_BlankName(t *testing.T) {
	st := newTestStore(t)

	_, err := st.AddVendor(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Empty(t, st.Vendors())
}

func TestAddVendor_DuplicateNamesAllowed(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	a, err := st.AddVendor(ctx, "Acme")
	require.NoError(t, err)
	b, err := st.AddVendor(ctx, "Acme")
	require.NoError(t, err)
	assert.NotEqual(t, a.ID, b.ID)
}

func TestAddVendor_GeneratorCollisionIsSkipped(t *testing.T) {
	ctx := context.Background()
	ids := []string{"same", "same", "other"}
	st := newTestStore(t, WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))

	a, err := st.AddVendor(ctx, "Acme")
	require.NoError(t, err)
	b, err := st.AddItem(ctx, "Widget")
	require.NoError(t, err)
	assert.Equal(t, "same", a.ID)
	assert.Equal(t, "other", b.ID)
}

func TestDefaultIDs_UniqueUnderRapidCreation(t *testing.T) {
	ctx := context.Background()
	st := New(WithLogger(quietLogger()))

	seen := make(map[string]bool)
	for i := 0; i < 1000; i++ {
		v, err := st.AddVendor(ctx, "v")
		require.NoError(t, err)
		require.False(t, seen[v.ID], "duplicate id %s", v.ID)
		seen[v.ID] = true
	}
}

func TestRemoveVendor_NotFound(t *testing.T) {
	st := newTestStore(t)

	err := st.RemoveVendor(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveVendor_StripsPrices(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	acme, _ := st.AddVendor(ctx, "Acme")
	globex, _ := st.AddVendor(ctx, "Globex")
	widget, _ := st.AddItem(ctx, "Widget")
	gadget, _ := st.AddItem(ctx, "Gadget")
	_, err := st.UpdatePrice(ctx, widget.ID, acme.ID, 1)
	require.NoError(t, err)
	_, err = st.UpdatePrice(ctx, widget.ID, globex.ID, 2)
	require.NoError(t, err)
	_, err = st.UpdatePrice(ctx, gadget.ID, globex.ID, 3)
	require.NoError(t, err)

	require.NoError(t, st.RemoveVendor(ctx, globex.ID))

	assert.Equal(t, []models.Vendor{acme}, st.Vendors())
	items := st.Items()
	assert.Equal(t, map[string]float64{acme.ID: 1}, items[0].Prices)
	assert.Empty(t, items[1].Prices)
}

func TestRenameVendor(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	v, _ := st.AddVendor(ctx, "Acme")

	renamed, err := st.RenameVendor(ctx, v.ID, "Acme Corp")
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", renamed.Name)

	got, err := st.Vendor(v.ID)
	require.NoError(t, err)
	assert.Equal(t, "Acme Corp", got.Name)

	_, err = st.RenameVendor(ctx, v.ID, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = st.RenameVendor(ctx, "missing", "x")
	assert.ErrorIs(t, err, ErrNotFound)
}

// ==================== Item Tests ====================

func TestAddItem(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	it, err := st.AddItem(ctx, "Widget")
	require.NoError(t, err)
	assert.Equal(t, "Widget", it.Name)
	assert.NotNil(t, it.Prices)
	assert.Empty(t, it.Prices)

	_, err = st.AddItem(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidInput)
	assert.Len(t, st.Items(), 1)
}

func TestRemoveItem(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	a, _ := st.AddItem(ctx, "A")
	b, _ := st.AddItem(ctx, "B")
	c, _ := st.AddItem(ctx, "C")

	require.NoError(t, st.RemoveItem(ctx, b.ID))

	items := st.Items()
	require.Len(t, items, 2)
	assert.Equal(t, a.ID, items[0].ID)
	assert.Equal(t, c.ID, items[1].ID)

	// indexes must be rebuilt after removal
	got, err := st.Item(c.ID)
	require.NoError(t, err)
	assert.Equal(t, "C", got.Name)

	assert.ErrorIs(t, st.RemoveItem(ctx, b.ID), ErrNotFound)
}

func TestRenameItem_KeepsPrices(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	v, _ := st.AddVendor(ctx, "Acme")
	it, _ := st.AddItem(ctx, "Widget")
	_, err := st.UpdatePrice(ctx, it.ID, v.ID, 4)
	require.NoError(t, err)

	renamed, err := st.RenameItem(ctx, it.ID, "Widget XL")
	require.NoError(t, err)
	assert.Equal(t, "Widget XL", renamed.Name)
	assert.Equal(t, map[string]float64{v.ID: 4}, renamed.Prices)
}

// ==================== Price Tests ====================

func TestUpdatePrice_WriteThenRead(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	v, _ := st.AddVendor(ctx, "Acme")
	it, _ := st.AddItem(ctx, "Widget")

	for _, p := range []float64{9.99, 0, 12.345, 9.99} {
		_, err := st.UpdatePrice(ctx, it.ID, v.ID, p)
		require.NoError(t, err)

		got, err := st.Item(it.ID)
		require.NoError(t, err)
		price, ok := got.Price(v.ID)
		require.True(t, ok)
		assert.Equal(t, p, price)
	}
}

func TestUpdatePrice_Idempotent(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	st := newTestStore(t, WithPersister(p))
	v, _ := st.AddVendor(ctx, "Acme")
	it, _ := st.AddItem(ctx, "Widget")

	_, err := st.UpdatePrice(ctx, it.ID, v.ID, 5)
	require.NoError(t, err)
	before := st.Snapshot()
	calls := p.calls

	_, err = st.UpdatePrice(ctx, it.ID, v.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, before, st.Snapshot())
	assert.Equal(t, calls, p.calls, "unchanged price must not be written again")
}

func TestUpdatePrice_InvalidPrice(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	v, _ := st.AddVendor(ctx, "Acme")
	it, _ := st.AddItem(ctx, "Widget")

	for _, p := range []float64{-1, math.NaN(), math.Inf(1), math.Inf(-1)} {
		_, err := st.UpdatePrice(ctx, it.ID, v.ID, p)
		assert.ErrorIs(t, err, ErrInvalidInput, "price %v", p)
	}
	got, _ := st.Item(it.ID)
	assert.Empty(t, got.Prices)
}

func TestUpdatePrice_UnknownIDs(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	v, _ := st.AddVendor(ctx, "Acme")
	it, _ := st.AddItem(ctx, "Widget")

	_, err := st.UpdatePrice(ctx, "missing", v.ID, 1)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = st.UpdatePrice(ctx, it.ID, "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)

	got, _ := st.Item(it.ID)
	assert.Empty(t, got.Prices)
}

func TestClearPrice(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	v, _ := st.AddVendor(ctx, "Acme")
	it, _ := st.AddItem(ctx, "Widget")
	_, err := st.UpdatePrice(ctx, it.ID, v.ID, 3)
	require.NoError(t, err)

	got, err := st.ClearPrice(ctx, it.ID, v.ID)
	require.NoError(t, err)
	_, ok := got.Price(v.ID)
	assert.False(t, ok)

	// clearing again is a no-op
	_, err = st.ClearPrice(ctx, it.ID, v.ID)
	assert.NoError(t, err)

	_, err = st.ClearPrice(ctx, "missing", v.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReadsReturnCopies(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)
	v, _ := st.AddVendor(ctx, "Acme")
	it, _ := st.AddItem(ctx, "Widget")
	_, err := st.UpdatePrice(ctx, it.ID, v.ID, 3)
	require.NoError(t, err)

	items := st.Items()
	items[0].Prices[v.ID] = 100
	items[0].Name = "changed"

	got, _ := st.Item(it.ID)
	assert.Equal(t, 3.0, got.Prices[v.ID])
	assert.Equal(t, "Widget", got.Name)
}

// ==================== Invariant and Scenario Tests ====================

func TestNoDanglingPriceKeys(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	var vendors []string
	var items []string
	for i := 0; i < 5; i++ {
		it, err := st.AddItem(ctx, fmt.Sprintf("item-%d", i))
		require.NoError(t, err)
		items = append(items, it.ID)
	}

	// interleave vendor adds/removes with price updates
	for round := 0; round < 20; round++ {
		v, err := st.AddVendor(ctx, fmt.Sprintf("vendor-%d", round))
		require.NoError(t, err)
		vendors = append(vendors, v.ID)

		for i, itemID := range items {
			_, err := st.UpdatePrice(ctx, itemID, v.ID, float64(round+i))
			require.NoError(t, err)
		}
		if round%3 == 0 {
			require.NoError(t, st.RemoveVendor(ctx, vendors[0]))
			vendors = vendors[1:]
		}

		existing := make(map[string]bool)
		for _, v := range st.Vendors() {
			existing[v.ID] = true
		}
		for _, it := range st.Items() {
			for vendorID := range it.Prices {
				require.True(t, existing[vendorID], "item %s has price for removed vendor %s", it.ID, vendorID)
			}
		}
	}
}

func TestScenario_AcmeGlobexWidget(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t)

	acme, err := st.AddVendor(ctx, "Acme")
	require.NoError(t, err)
	globex, err := st.AddVendor(ctx, "Globex")
	require.NoError(t, err)
	widget, err := st.AddItem(ctx, "Widget")
	require.NoError(t, err)

	_, err = st.UpdatePrice(ctx, widget.ID, acme.ID, 9.99)
	require.NoError(t, err)
	_, err = st.UpdatePrice(ctx, widget.ID, globex.ID, 7.50)
	require.NoError(t, err)

	got, _ := st.Item(widget.ID)
	best, ok := got.BestPrice()
	require.True(t, ok)
	assert.Equal(t, 7.50, best)

	require.NoError(t, st.RemoveVendor(ctx, globex.ID))

	got, _ = st.Item(widget.ID)
	_, has := got.Prices[globex.ID]
	assert.False(t, has)
	best, ok = got.BestPrice()
	require.True(t, ok)
	assert.Equal(t, 9.99, best)
}

// ==================== Persistence Tests ====================

func TestWriteAhead_PersistsBeforeMemory(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	st := newTestStore(t, WithPersister(p))

	v, err := st.AddVendor(ctx, "Acme")
	require.NoError(t, err)
	it, err := st.AddItem(ctx, "Widget")
	require.NoError(t, err)
	_, err = st.UpdatePrice(ctx, it.ID, v.ID, 2.5)
	require.NoError(t, err)

	assert.Equal(t, []models.Vendor{v}, p.snap.Vendors)
	require.Len(t, p.snap.Items, 1)
	assert.Equal(t, map[string]float64{v.ID: 2.5}, p.snap.Items[0].Prices)

	status := st.Status()
	assert.True(t, status.Persistent)
	assert.False(t, status.Degraded)
	assert.NoError(t, status.Err)
}

func TestLoad_PrunesDanglingPrices(t *testing.T) {
	p := &memPersister{snap: models.Snapshot{
		Vendors: []models.Vendor{{ID: "v1", Name: "Acme"}},
		Items: []models.Item{
			{ID: "i1", Name: "Widget", Prices: map[string]float64{"v1": 1, "gone": 2}},
		},
	}}
	st := newTestStore(t, WithPersister(p))

	require.NoError(t, st.Load(context.Background()))
	items := st.Items()
	require.Len(t, items, 1)
	assert.Equal(t, map[string]float64{"v1": 1}, items[0].Prices)
}

func TestLoad_FailureDegrades(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{failWith: errors.New("disk on fire"), failN: -1}
	st := newTestStore(t, WithPersister(p))

	err := st.Load(ctx)
	assert.ErrorIs(t, err, ErrPersistenceUnavailable)
	assert.True(t, p.closed)

	status := st.Status()
	assert.True(t, status.Degraded)
	assert.ErrorIs(t, status.Err, ErrPersistenceUnavailable)

	// still usable
	_, err = st.AddVendor(ctx, "Acme")
	assert.NoError(t, err)
	assert.Len(t, st.Vendors(), 1)
}

func TestPersistFailure_DegradesButApplies(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{}
	st := newTestStore(t, WithPersister(p))
	v, _ := st.AddVendor(ctx, "Acme")

	p.failWith, p.failN = errors.New("readonly filesystem"), -1
	it, err := st.AddItem(ctx, "Widget")
	require.NoError(t, err)
	_, err = st.UpdatePrice(ctx, it.ID, v.ID, 4)
	require.NoError(t, err)

	assert.Len(t, st.Items(), 1)
	status := st.Status()
	assert.True(t, status.Degraded)
	assert.ErrorIs(t, status.Err, ErrPersistenceUnavailable)
	assert.Empty(t, p.snap.Items, "failed write must not reach the persister")

	// persister was detached after the first failure
	calls := p.calls
	_, err = st.AddItem(ctx, "Gadget")
	require.NoError(t, err)
	assert.Equal(t, calls, p.calls)
}

func TestPersistFailure_RetriesTransientErrors(t *testing.T) {
	ctx := context.Background()
	p := &memPersister{failWith: errors.New("database is locked"), failN: 2}
	st := newTestStore(t, WithPersister(p), WithRetry(&RetryConfig{
		MaxRetries:     3,
		InitialBackoff: time.Millisecond,
		MaxBackoff:     time.Millisecond,
	}))

	_, err := st.AddVendor(ctx, "Acme")
	require.NoError(t, err)
	assert.False(t, st.Status().Degraded)
	assert.Len(t, p.snap.Vendors, 1)
	assert.Equal(t, 3, p.calls)
}

func TestPersist_CancelledContextAbortsMutation(t *testing.T) {
	p := &memPersister{}
	st := newTestStore(t, WithPersister(p))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := st.AddVendor(ctx, "Acme")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, st.Vendors())
	assert.False(t, st.Status().Degraded)
}

func TestClose(t *testing.T) {
	p := &memPersister{}
	st := newTestStore(t, WithPersister(p))
	require.NoError(t, st.Close())
	assert.True(t, p.closed)
	assert.NoError(t, st.Close())
}

// ==================== Resolve Tests ====================

func TestResolveIDs(t *testing.T) {
	ctx := context.Background()
	ids := []string{"abc123", "abd456", "xyz789"}
	st := newTestStore(t, WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))
	_, _ = st.AddVendor(ctx, "A")
	_, _ = st.AddVendor(ctx, "B")
	_, _ = st.AddItem(ctx, "X")

	id, err := st.ResolveVendorID("abc")
	require.NoError(t, err)
	assert.Equal(t, "abc123", id)

	id, err = st.ResolveVendorID("abd456")
	require.NoError(t, err)
	assert.Equal(t, "abd456", id)

	_, err = st.ResolveVendorID("ab")
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = st.ResolveVendorID("xyz")
	assert.ErrorIs(t, err, ErrNotFound)

	id, err = st.ResolveItemID("xy")
	require.NoError(t, err)
	assert.Equal(t, "xyz789", id)

	_, err = st.ResolveItemID("")
	assert.ErrorIs(t, err, ErrInvalidInput)

	id, err = st.ResolveVendorID("456")
	require.NoError(t, err)
	assert.Equal(t, "abd456", id)
}

func TestResolveIDs_ShortIDsFromDefaultGenerator(t *testing.T) {
	ctx := context.Background()
	st := New(WithLogger(quietLogger()))

	var vendors []models.Vendor
	var items []models.Item
	for i := 0; i < 20; i++ {
		v, err := st.AddVendor(ctx, fmt.Sprintf("Vendor %d", i))
		require.NoError(t, err)
		vendors = append(vendors, v)

		it, err := st.AddItem(ctx, fmt.Sprintf("Item %d", i))
		require.NoError(t, err)
		items = append(items, it)
	}

	for _, v := range vendors {
		id, err := st.ResolveVendorID(v.ShortID())
		require.NoError(t, err, "vendor %s", v.ShortID())
		assert.Equal(t, v.ID, id)
	}
	for _, it := range items {
		id, err := st.ResolveItemID(it.ShortID())
		require.NoError(t, err, "item %s", it.ShortID())
		assert.Equal(t, it.ID, id)
	}
}

func TestUniqueID_FallsBackWhenGeneratorCollides(t *testing.T) {
	ctx := context.Background()
	st := newTestStore(t, WithIDGenerator(func() string { return "same" }))

	a, err := st.AddVendor(ctx, "Acme")
	require.NoError(t, err)
	assert.Equal(t, "same", a.ID)

	b, err := st.AddVendor(ctx, "Globex")
	require.NoError(t, err)
	assert.NotEqual(t, "same", b.ID)
	assert.Len(t, b.ID, 36)

	empty := newTestStore(t, WithIDGenerator(func() string { return "" }))
	it, err := empty.AddItem(ctx, "Widget")
	require.NoError(t, err)
	assert.NotEmpty(t, it.ID)
}

// ==================== Observer Tests ====================

type recordingObserver struct {
	mu       sync.Mutex
	ops      []string
	failures int
	vendors  int
	items    int
	degraded bool
}

func (o *recordingObserver) MutationDone(op string, err error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.ops = append(o.ops, op)
	if err != nil {
		o.failures++
	}
}

func (o *recordingObserver) CatalogSize(vendors, items int) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.vendors, o.items = vendors, items
}

func (o *recordingObserver) Degraded(d bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.degraded = d
}

func TestObserver(t *testing.T) {
	ctx := context.Background()
	obs := &recordingObserver{}
	p := &memPersister{}
	st := newTestStore(t, WithObserver(obs), WithPersister(p))

	v, _ := st.AddVendor(ctx, "Acme")
	it, _ := st.AddItem(ctx, "Widget")
	_, _ = st.UpdatePrice(ctx, it.ID, v.ID, -1)
	_ = st.RemoveItem(ctx, "missing")

	assert.Equal(t, []string{"add_vendor", "add_item", "update_price", "remove_item"}, obs.ops)
	assert.Equal(t, 2, obs.failures)
	assert.Equal(t, 1, obs.vendors)
	assert.Equal(t, 1, obs.items)
	assert.False(t, obs.degraded)

	p.failWith, p.failN = errors.New("boom"), -1
	_, _ = st.AddItem(ctx, "Gadget")
	assert.True(t, obs.degraded)
	assert.Equal(t, 2, obs.items)
}
