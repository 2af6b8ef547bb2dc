// Package ledger implements the inventory-linked order ledger: a shared
// product catalog, any number of in-progress order buckets drawing
// stock from it, and the append-only transaction log buckets finalize
// into. All monetary math stays in float64; rounding to two decimals
// happens only at the presentation boundary.
package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/kv"
	"tillpoint/backend/internal/xid"
)

var (
	ErrValidation        = errors.New("invalid input")
	ErrNotFound          = errors.New("not found")
	ErrInsufficientStock = errors.New("insufficient stock")
	ErrEmptyBucket       = errors.New("empty bucket")
)

// Persistence keys, one whole-object JSON snapshot each.
const (
	keyProducts = "products"
	keySettings = "businessSettings"
	keyLog      = "transactionLog"
)

type bucket struct {
	policy string
	items  []domain.LineItem
}

// Ledger owns the catalog, the business settings (tax rate, currency,
// per-kind document counters) and the transaction log, plus the open
// buckets. A single mutex serializes operations so every
// read-modify-write on stock is atomic with respect to other calls,
// preserving the one-event-at-a-time model the rules assume.
type Ledger struct {
	mu       sync.Mutex
	store    kv.Store
	catalog  []domain.Product
	settings domain.BusinessSettings
	log      []domain.TransactionRecord
	buckets  map[string]*bucket
}

func defaultSettings() domain.BusinessSettings {
	return domain.BusinessSettings{
		BusinessName:     "My Small Business POS",
		TaxRatePercent:   15,
		CurrencySymbol:   "R",
		SaleCounter:      1,
		InvoiceCounter:   1,
		QuotationCounter: 1,
	}
}

func demoCatalog() []domain.Product {
	return []domain.Product{
		{ID: "prod1", Name: "Laptop Pro", UnitPrice: 15000.00, StockOnHand: 10},
		{ID: "prod2", Name: "Wireless Mouse", UnitPrice: 250.00, StockOnHand: 50},
		{ID: "prod3", Name: "Mechanical Keyboard", UnitPrice: 1200.00, StockOnHand: 20},
		{ID: "prod4", Name: "USB-C Hub", UnitPrice: 400.00, StockOnHand: 35},
		{ID: "prod5", Name: "External SSD 1TB", UnitPrice: 1800.00, StockOnHand: 15},
	}
}

// New loads catalog, settings and transaction log from the store,
// default-initializing and writing back whatever is missing so counters
// exist before the first finalize.
func New(ctx context.Context, store kv.Store) (*Ledger, error) {
	l := &Ledger{
		store:   store,
		buckets: make(map[string]*bucket),
	}

	raw, ok, err := store.Get(ctx, keyProducts)
	if err != nil {
		return nil, fmt.Errorf("load products: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &l.catalog); err != nil {
			return nil, fmt.Errorf("decode products: %w", err)
		}
	}
	if len(l.catalog) == 0 {
		l.catalog = demoCatalog()
		l.persistCatalog(ctx)
	}

	raw, ok, err = store.Get(ctx, keySettings)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &l.settings); err != nil {
			return nil, fmt.Errorf("decode settings: %w", err)
		}
		// Older blobs predate the counters; bring them up to 1.
		if l.settings.SaleCounter < 1 {
			l.settings.SaleCounter = 1
		}
		if l.settings.InvoiceCounter < 1 {
			l.settings.InvoiceCounter = 1
		}
		if l.settings.QuotationCounter < 1 {
			l.settings.QuotationCounter = 1
		}
	} else {
		l.settings = defaultSettings()
	}
	l.persistSettings(ctx)

	raw, ok, err = store.Get(ctx, keyLog)
	if err != nil {
		return nil, fmt.Errorf("load transaction log: %w", err)
	}
	if ok {
		if err := json.Unmarshal(raw, &l.log); err != nil {
			return nil, fmt.Errorf("decode transaction log: %w", err)
		}
	}

	return l, nil
}

// OpenBucket registers an empty bucket under the given id. Reopening an
// existing id resets it to empty without touching stock, so callers
// should clear first if the bucket may hold catalog items.
func (l *Ledger) OpenBucket(id string, stockPolicy string) error {
	if strings.TrimSpace(id) == "" {
		return ErrValidation
	}
	if stockPolicy != domain.PolicyDeduct && stockPolicy != domain.PolicyNoDeduct {
		return ErrValidation
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	l.buckets[id] = &bucket{policy: stockPolicy, items: make([]domain.LineItem, 0, 8)}
	return nil
}

func (l *Ledger) findProduct(id string) *domain.Product {
	for i := range l.catalog {
		if l.catalog[i].ID == id {
			return &l.catalog[i]
		}
	}
	return nil
}

// AddCatalogItem adds quantity units of a catalog product to the
// bucket, merging with an existing line for the same product. Under the
// deduct policy stock is checked and decremented atomically with the
// bucket mutation, and the catalog is persisted before returning.
func (l *Ledger) AddCatalogItem(ctx context.Context, bucketID string, productID string, quantity int) (domain.LineItem, error) {
	if quantity <= 0 {
		return domain.LineItem{}, fmt.Errorf("%w: quantity must be greater than 0", ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketID]
	if !ok {
		return domain.LineItem{}, fmt.Errorf("%w: bucket %q", ErrNotFound, bucketID)
	}
	product := l.findProduct(productID)
	if product == nil {
		return domain.LineItem{}, fmt.Errorf("%w: product %q", ErrNotFound, productID)
	}
	if b.policy == domain.PolicyDeduct && product.StockOnHand < quantity {
		return domain.LineItem{}, fmt.Errorf("%w: %q has %d available", ErrInsufficientStock, product.Name, product.StockOnHand)
	}

	var line *domain.LineItem
	for i := range b.items {
		if b.items[i].Kind == domain.ItemKindCatalog && b.items[i].ProductID == productID {
			b.items[i].Quantity += quantity
			line = &b.items[i]
			break
		}
	}
	if line == nil {
		b.items = append(b.items, domain.LineItem{
			ID:        product.ID,
			ProductID: product.ID,
			Name:      product.Name,
			UnitPrice: product.UnitPrice,
			Quantity:  quantity,
			Kind:      domain.ItemKindCatalog,
			ImageRef:  product.ImageRef,
		})
		line = &b.items[len(b.items)-1]
	}

	if b.policy == domain.PolicyDeduct {
		product.StockOnHand -= quantity
		l.persistCatalog(ctx)
	}

	return *line, nil
}

// AddCustomItem appends an ad-hoc line with no inventory backing.
// Custom items are never merged, even when name and price coincide.
func (l *Ledger) AddCustomItem(ctx context.Context, bucketID string, name string, unitPrice float64, quantity int) (domain.LineItem, error) {
	_ = ctx

	name = strings.TrimSpace(name)
	// All preconditions are reported as one combined failure, matching
	// the single message the operator sees.
	if name == "" || unitPrice <= 0 || quantity <= 0 {
		return domain.LineItem{}, fmt.Errorf("%w: custom items need a name, a price > 0 and a quantity > 0", ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketID]
	if !ok {
		return domain.LineItem{}, fmt.Errorf("%w: bucket %q", ErrNotFound, bucketID)
	}

	line := domain.LineItem{
		ID:        xid.New("custom"),
		Name:      name,
		UnitPrice: unitPrice,
		Quantity:  quantity,
		Kind:      domain.ItemKindCustom,
	}
	b.items = append(b.items, line)
	return line, nil
}

// AdjustQuantity moves a line by exactly one unit. A decrement that
// would reach zero removes the line entirely: zero-quantity lines are
// never persisted.
func (l *Ledger) AdjustQuantity(ctx context.Context, bucketID string, lineID string, delta int) error {
	if delta != 1 && delta != -1 {
		return fmt.Errorf("%w: delta must be +1 or -1", ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketID]
	if !ok {
		return fmt.Errorf("%w: bucket %q", ErrNotFound, bucketID)
	}
	idx := indexOfLine(b.items, lineID)
	if idx < 0 {
		return fmt.Errorf("%w: line item %q", ErrNotFound, lineID)
	}
	line := &b.items[idx]

	deductable := b.policy == domain.PolicyDeduct && line.Kind == domain.ItemKindCatalog
	var product *domain.Product
	if deductable {
		product = l.findProduct(line.ProductID)
	}

	if delta > 0 {
		if deductable {
			if product == nil || product.StockOnHand <= 0 {
				return fmt.Errorf("%w: cannot add more %q", ErrInsufficientStock, line.Name)
			}
			product.StockOnHand--
		}
		line.Quantity++
	} else {
		if line.Quantity <= 1 {
			b.items = append(b.items[:idx], b.items[idx+1:]...)
		} else {
			line.Quantity--
		}
		if deductable && product != nil {
			product.StockOnHand++
		}
	}

	if deductable {
		l.persistCatalog(ctx)
	}
	return nil
}

// RemoveItem deletes the line and, for deduct-policy catalog items,
// gives the entire remaining quantity back to stock.
func (l *Ledger) RemoveItem(ctx context.Context, bucketID string, lineID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketID]
	if !ok {
		return fmt.Errorf("%w: bucket %q", ErrNotFound, bucketID)
	}
	idx := indexOfLine(b.items, lineID)
	if idx < 0 {
		return fmt.Errorf("%w: line item %q", ErrNotFound, lineID)
	}

	removed := b.items[idx]
	b.items = append(b.items[:idx], b.items[idx+1:]...)

	if b.policy == domain.PolicyDeduct && removed.Kind == domain.ItemKindCatalog {
		if product := l.findProduct(removed.ProductID); product != nil {
			product.StockOnHand += removed.Quantity
		}
		l.persistCatalog(ctx)
	}
	return nil
}

// ClearBucket abandons the bucket: catalog quantities go back to stock
// under the deduct policy and the bucket is emptied. Clearing an empty
// bucket is a no-op, not an error.
func (l *Ledger) ClearBucket(ctx context.Context, bucketID string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketID]
	if !ok {
		return fmt.Errorf("%w: bucket %q", ErrNotFound, bucketID)
	}
	if len(b.items) == 0 {
		return nil
	}

	restored := false
	if b.policy == domain.PolicyDeduct {
		for _, item := range b.items {
			if item.Kind != domain.ItemKindCatalog {
				continue
			}
			if product := l.findProduct(item.ProductID); product != nil {
				product.StockOnHand += item.Quantity
				restored = true
			}
		}
	}
	b.items = b.items[:0]

	if restored {
		l.persistCatalog(ctx)
	}
	return nil
}

// Totals recomputes subtotal/tax/total from the live bucket. No running
// totals are kept anywhere, so repeated recalculation cannot drift.
func (l *Ledger) Totals(bucketID string) (domain.Totals, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketID]
	if !ok {
		return domain.Totals{}, fmt.Errorf("%w: bucket %q", ErrNotFound, bucketID)
	}
	return l.totalsLocked(b), nil
}

func (l *Ledger) totalsLocked(b *bucket) domain.Totals {
	subtotal := 0.0
	for _, item := range b.items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	tax := subtotal * (l.settings.TaxRatePercent / 100)
	return domain.Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal + tax,
	}
}

// Snapshot returns a render-ready copy of the bucket and its totals.
func (l *Ledger) Snapshot(bucketID string) (domain.BucketSnapshot, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketID]
	if !ok {
		return domain.BucketSnapshot{}, fmt.Errorf("%w: bucket %q", ErrNotFound, bucketID)
	}

	items := make([]domain.LineItem, len(b.items))
	copy(items, b.items)
	return domain.BucketSnapshot{
		Kind:        bucketID,
		StockPolicy: b.policy,
		Items:       items,
		Totals:      l.totalsLocked(b),
	}, nil
}

// Finalize converts the bucket into an immutable TransactionRecord:
// next counter for the document kind, deep-copied items, totals at this
// instant. The bucket is emptied WITHOUT restoring stock (the sale is
// real), which is the one place emptying and abandoning differ.
func (l *Ledger) Finalize(ctx context.Context, bucketID string, documentKind string, meta map[string]string) (domain.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.buckets[bucketID]
	if !ok {
		return domain.TransactionRecord{}, fmt.Errorf("%w: bucket %q", ErrNotFound, bucketID)
	}
	if len(b.items) == 0 {
		return domain.TransactionRecord{}, ErrEmptyBucket
	}

	var counter *int
	var prefix string
	switch documentKind {
	case domain.DocKindSale:
		counter, prefix = &l.settings.SaleCounter, "SALE"
	case domain.DocKindInvoice:
		counter, prefix = &l.settings.InvoiceCounter, "INV"
	case domain.DocKindQuotation:
		counter, prefix = &l.settings.QuotationCounter, "QUO"
	default:
		return domain.TransactionRecord{}, fmt.Errorf("%w: unknown document kind %q", ErrValidation, documentKind)
	}

	number := fmt.Sprintf("%05d", *counter)
	*counter++

	items := make([]domain.LineItem, len(b.items))
	copy(items, b.items)

	var metaCopy map[string]string
	if len(meta) > 0 {
		metaCopy = make(map[string]string, len(meta))
		for k, v := range meta {
			metaCopy[k] = v
		}
	}

	totals := l.totalsLocked(b)
	record := domain.TransactionRecord{
		ID:             prefix + "-" + number,
		Number:         number,
		Kind:           documentKind,
		Date:           time.Now().UTC(),
		Items:          items,
		Subtotal:       totals.Subtotal,
		Tax:            totals.Tax,
		Total:          totals.Total,
		CurrencySymbol: l.settings.CurrencySymbol,
		Meta:           metaCopy,
	}

	l.log = append(l.log, record)
	b.items = b.items[:0]

	l.persistSettings(ctx)
	l.persistLog(ctx)
	return record, nil
}

// Transactions returns the log newest-first.
func (l *Ledger) Transactions() []domain.TransactionRecord {
	l.mu.Lock()
	defer l.mu.Unlock()

	records := make([]domain.TransactionRecord, 0, len(l.log))
	for i := len(l.log) - 1; i >= 0; i-- {
		records = append(records, l.log[i])
	}
	return records
}

func (l *Ledger) Transaction(id string) (domain.TransactionRecord, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	for _, record := range l.log {
		if record.ID == id {
			return record, nil
		}
	}
	return domain.TransactionRecord{}, fmt.Errorf("%w: transaction %q", ErrNotFound, id)
}

// DeleteTransaction removes the record from the log. Stock is NOT
// restored: deletion is a bookkeeping correction, not an undo of the
// sale. The original applies this consistently even though the
// complementary clear/abandon path does restore; we keep the observed
// behavior.
func (l *Ledger) DeleteTransaction(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i, record := range l.log {
		if record.ID == id {
			l.log = append(l.log[:i], l.log[i+1:]...)
			l.persistLog(ctx)
			return nil
		}
	}
	return fmt.Errorf("%w: transaction %q", ErrNotFound, id)
}

func indexOfLine(items []domain.LineItem, lineID string) int {
	for i := range items {
		if items[i].ID == lineID {
			return i
		}
	}
	return -1
}

// Persistence is synchronous and whole-value: failures are logged, not
// propagated, so a flaky store never rolls back an in-memory mutation
// that already happened.
func (l *Ledger) persistCatalog(ctx context.Context) {
	l.persist(ctx, keyProducts, l.catalog)
}

func (l *Ledger) persistSettings(ctx context.Context) {
	l.persist(ctx, keySettings, l.settings)
}

func (l *Ledger) persistLog(ctx context.Context) {
	if l.log == nil {
		l.persist(ctx, keyLog, []domain.TransactionRecord{})
		return
	}
	l.persist(ctx, keyLog, l.log)
}

func (l *Ledger) persist(ctx context.Context, key string, value any) {
	raw, err := json.Marshal(value)
	if err != nil {
		log.Printf("[ledger] WARN: encode %s: %v", key, err)
		return
	}
	if err := l.store.Set(ctx, key, raw); err != nil {
		log.Printf("[ledger] WARN: persist %s: %v", key, err)
	}
}
