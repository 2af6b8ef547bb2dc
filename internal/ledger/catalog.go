package ledger

import (
	"context"
	"fmt"
	"strings"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/xid"
)

// Products returns a copy of the catalog in insertion order.
func (l *Ledger) Products() []domain.Product {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Product, len(l.catalog))
	copy(out, l.catalog)
	return out
}

func (l *Ledger) Product(id string) (domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if p := l.findProduct(id); p != nil {
		return *p, nil
	}
	return domain.Product{}, fmt.Errorf("%w: product %q", ErrNotFound, id)
}

// SearchProducts does a case-insensitive substring match on name. An
// empty query returns the whole catalog.
func (l *Ledger) SearchProducts(query string) []domain.Product {
	query = strings.ToLower(strings.TrimSpace(query))

	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]domain.Product, 0, len(l.catalog))
	for _, p := range l.catalog {
		if query == "" || strings.Contains(strings.ToLower(p.Name), query) {
			out = append(out, p)
		}
	}
	return out
}

func (l *Ledger) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return domain.Product{}, fmt.Errorf("%w: name is required", ErrValidation)
	}
	if req.UnitPrice <= 0 {
		return domain.Product{}, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
	}
	if req.StockOnHand < 0 {
		return domain.Product{}, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	id := strings.TrimSpace(req.ID)
	if id == "" {
		id = xid.New("prod")
	} else if l.findProduct(id) != nil {
		return domain.Product{}, fmt.Errorf("%w: product %q already exists", ErrValidation, id)
	}

	product := domain.Product{
		ID:          id,
		Name:        name,
		UnitPrice:   req.UnitPrice,
		StockOnHand: req.StockOnHand,
		ImageRef:    strings.TrimSpace(req.ImageRef),
	}
	l.catalog = append(l.catalog, product)
	l.persistCatalog(ctx)
	return product, nil
}

func (l *Ledger) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	product := l.findProduct(id)
	if product == nil {
		return domain.Product{}, fmt.Errorf("%w: product %q", ErrNotFound, id)
	}

	// Validate into a copy so a rejected field never leaves earlier
	// fields half-applied on the live catalog entry.
	updated := *product
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return domain.Product{}, fmt.Errorf("%w: name is required", ErrValidation)
		}
		updated.Name = name
	}
	if req.UnitPrice != nil {
		if *req.UnitPrice <= 0 {
			return domain.Product{}, fmt.Errorf("%w: price must be greater than 0", ErrValidation)
		}
		updated.UnitPrice = *req.UnitPrice
	}
	if req.StockOnHand != nil {
		if *req.StockOnHand < 0 {
			return domain.Product{}, fmt.Errorf("%w: stock cannot be negative", ErrValidation)
		}
		updated.StockOnHand = *req.StockOnHand
	}
	if req.ImageRef != nil {
		updated.ImageRef = strings.TrimSpace(*req.ImageRef)
	}

	*product = updated
	l.persistCatalog(ctx)
	return updated, nil
}

// DeleteProduct refuses while any open bucket still references the
// product; deleting it would strand lines that can no longer restore
// stock on remove.
func (l *Ledger) DeleteProduct(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	idx := -1
	for i := range l.catalog {
		if l.catalog[i].ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return fmt.Errorf("%w: product %q", ErrNotFound, id)
	}

	for bucketID, b := range l.buckets {
		for _, item := range b.items {
			if item.Kind == domain.ItemKindCatalog && item.ProductID == id {
				return fmt.Errorf("%w: product %q is in open order %q", ErrValidation, id, bucketID)
			}
		}
	}

	l.catalog = append(l.catalog[:idx], l.catalog[idx+1:]...)
	l.persistCatalog(ctx)
	return nil
}

func (l *Ledger) Settings() domain.BusinessSettings {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.settings
}

// UpdateSettings applies the non-nil fields. Counters are not client
// writable; they only move through Finalize.
func (l *Ledger) UpdateSettings(ctx context.Context, req domain.SettingsUpdateRequest) (domain.BusinessSettings, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	// Same stance as UpdateProduct: stage into a copy and commit only
	// once every field has passed validation.
	next := l.settings
	if req.BusinessName != nil {
		name := strings.TrimSpace(*req.BusinessName)
		if name == "" {
			return domain.BusinessSettings{}, fmt.Errorf("%w: business name is required", ErrValidation)
		}
		next.BusinessName = name
	}
	if req.TaxRatePercent != nil {
		if *req.TaxRatePercent < 0 || *req.TaxRatePercent > 100 {
			return domain.BusinessSettings{}, fmt.Errorf("%w: tax rate must be between 0 and 100", ErrValidation)
		}
		next.TaxRatePercent = *req.TaxRatePercent
	}
	if req.CurrencySymbol != nil {
		symbol := strings.TrimSpace(*req.CurrencySymbol)
		if symbol == "" {
			return domain.BusinessSettings{}, fmt.Errorf("%w: currency symbol is required", ErrValidation)
		}
		next.CurrencySymbol = symbol
	}
	if req.BusinessAddress != nil {
		next.BusinessAddress = strings.TrimSpace(*req.BusinessAddress)
	}
	if req.BusinessPhone != nil {
		next.BusinessPhone = strings.TrimSpace(*req.BusinessPhone)
	}
	if req.BusinessEmail != nil {
		next.BusinessEmail = strings.TrimSpace(*req.BusinessEmail)
	}
	if req.BusinessRegNo != nil {
		next.BusinessRegNo = strings.TrimSpace(*req.BusinessRegNo)
	}
	if req.TaxNumber != nil {
		next.TaxNumber = strings.TrimSpace(*req.TaxNumber)
	}
	if req.BankName != nil {
		next.BankName = strings.TrimSpace(*req.BankName)
	}
	if req.AccountHolder != nil {
		next.AccountHolder = strings.TrimSpace(*req.AccountHolder)
	}
	if req.AccountNumber != nil {
		next.AccountNumber = strings.TrimSpace(*req.AccountNumber)
	}
	if req.BranchCode != nil {
		next.BranchCode = strings.TrimSpace(*req.BranchCode)
	}
	if req.BusinessLogo != nil {
		next.BusinessLogo = strings.TrimSpace(*req.BusinessLogo)
	}

	l.settings = next
	l.persistSettings(ctx)
	return l.settings, nil
}
