// Package service ties the ledger and the document exporters to the
// bucket kinds the terminal pages work with: sale, invoice, quotation
// and special-order, each with a fixed stock policy.
package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/export"
	"tillpoint/backend/internal/ledger"
)

const (
	BucketSale         = "sale"
	BucketInvoice      = "invoice"
	BucketQuotation    = "quotation"
	BucketSpecialOrder = "special-order"
)

// Quotations and special orders are paperwork, not stock movements.
var bucketPolicies = map[string]string{
	BucketSale:         domain.PolicyDeduct,
	BucketInvoice:      domain.PolicyDeduct,
	BucketQuotation:    domain.PolicyNoDeduct,
	BucketSpecialOrder: domain.PolicyNoDeduct,
}

type Service struct {
	ledger *ledger.Ledger
}

// New opens the standard buckets on the given ledger.
func New(l *ledger.Ledger) (*Service, error) {
	for kind, policy := range bucketPolicies {
		if err := l.OpenBucket(kind, policy); err != nil {
			return nil, fmt.Errorf("open bucket %s: %w", kind, err)
		}
	}
	return &Service{ledger: l}, nil
}

func validBucket(kind string) error {
	if _, ok := bucketPolicies[kind]; !ok {
		return fmt.Errorf("%w: unknown bucket kind %q", ledger.ErrNotFound, kind)
	}
	return nil
}

func (s *Service) Products(search string) []domain.Product {
	return s.ledger.SearchProducts(search)
}

func (s *Service) CreateProduct(ctx context.Context, req domain.ProductCreateRequest) (domain.Product, error) {
	return s.ledger.CreateProduct(ctx, req)
}

func (s *Service) UpdateProduct(ctx context.Context, id string, req domain.ProductUpdateRequest) (domain.Product, error) {
	return s.ledger.UpdateProduct(ctx, id, req)
}

func (s *Service) DeleteProduct(ctx context.Context, id string) error {
	return s.ledger.DeleteProduct(ctx, id)
}

func (s *Service) Settings() domain.BusinessSettings {
	return s.ledger.Settings()
}

func (s *Service) UpdateSettings(ctx context.Context, req domain.SettingsUpdateRequest) (domain.BusinessSettings, error) {
	return s.ledger.UpdateSettings(ctx, req)
}

func (s *Service) Bucket(kind string) (domain.BucketSnapshot, error) {
	if err := validBucket(kind); err != nil {
		return domain.BucketSnapshot{}, err
	}
	return s.ledger.Snapshot(kind)
}

func (s *Service) ClearBucket(ctx context.Context, kind string) error {
	if err := validBucket(kind); err != nil {
		return err
	}
	return s.ledger.ClearBucket(ctx, kind)
}

// AddItem routes on ProductID: present means a catalog add, absent
// means a custom line. An omitted quantity defaults to 1; explicit
// values, zero included, go to the ledger as given.
func (s *Service) AddItem(ctx context.Context, kind string, req domain.AddItemRequest) (domain.LineItem, error) {
	if err := validBucket(kind); err != nil {
		return domain.LineItem{}, err
	}
	quantity := 1
	if req.Quantity != nil {
		quantity = *req.Quantity
	}
	if productID := strings.TrimSpace(req.ProductID); productID != "" {
		return s.ledger.AddCatalogItem(ctx, kind, productID, quantity)
	}
	return s.ledger.AddCustomItem(ctx, kind, req.Name, req.UnitPrice, quantity)
}

func (s *Service) AdjustQuantity(ctx context.Context, kind string, lineID string, delta int) (domain.BucketSnapshot, error) {
	if err := validBucket(kind); err != nil {
		return domain.BucketSnapshot{}, err
	}
	if err := s.ledger.AdjustQuantity(ctx, kind, lineID, delta); err != nil {
		return domain.BucketSnapshot{}, err
	}
	return s.ledger.Snapshot(kind)
}

func (s *Service) RemoveItem(ctx context.Context, kind string, lineID string) (domain.BucketSnapshot, error) {
	if err := validBucket(kind); err != nil {
		return domain.BucketSnapshot{}, err
	}
	if err := s.ledger.RemoveItem(ctx, kind, lineID); err != nil {
		return domain.BucketSnapshot{}, err
	}
	return s.ledger.Snapshot(kind)
}

// documentKindFor resolves the document kind a bucket finalizes into.
// Only special-order buckets choose per request; the others are fixed.
func documentKindFor(bucket string, requested string) (string, error) {
	switch bucket {
	case BucketSale:
		return domain.DocKindSale, nil
	case BucketInvoice:
		return domain.DocKindInvoice, nil
	case BucketQuotation:
		return domain.DocKindQuotation, nil
	case BucketSpecialOrder:
		switch requested {
		case "", domain.DocKindInvoice:
			return domain.DocKindInvoice, nil
		case domain.DocKindQuotation:
			return domain.DocKindQuotation, nil
		default:
			return "", fmt.Errorf("%w: special orders finalize as invoice or quotation, not %q", ledger.ErrValidation, requested)
		}
	default:
		return "", fmt.Errorf("%w: unknown bucket kind %q", ledger.ErrNotFound, bucket)
	}
}

// Finalize turns the bucket into a transaction record and renders the
// matching document in one step, so the terminal can offer the download
// immediately.
func (s *Service) Finalize(ctx context.Context, kind string, req domain.FinalizeRequest) (domain.TransactionRecord, export.File, error) {
	docKind, err := documentKindFor(kind, req.DocumentKind)
	if err != nil {
		return domain.TransactionRecord{}, export.File{}, err
	}
	record, err := s.ledger.Finalize(ctx, kind, docKind, req.Meta)
	if err != nil {
		return domain.TransactionRecord{}, export.File{}, err
	}
	file, err := export.Document(record, s.ledger.Settings())
	if err != nil {
		return domain.TransactionRecord{}, export.File{}, err
	}
	return record, file, nil
}

func (s *Service) Transactions() []domain.TransactionRecord {
	return s.ledger.Transactions()
}

func (s *Service) Transaction(id string) (domain.TransactionRecord, error) {
	return s.ledger.Transaction(id)
}

func (s *Service) DeleteTransaction(ctx context.Context, id string) error {
	return s.ledger.DeleteTransaction(ctx, id)
}

// Document re-renders the printable HTML for a logged transaction.
func (s *Service) Document(id string) (export.File, error) {
	record, err := s.ledger.Transaction(id)
	if err != nil {
		return export.File{}, err
	}
	return export.Document(record, s.ledger.Settings())
}

// HardwareReceipt builds ESC/POS bytes for a logged transaction.
func (s *Service) HardwareReceipt(id string) (export.HardwareReceipt, error) {
	record, err := s.ledger.Transaction(id)
	if err != nil {
		return export.HardwareReceipt{}, err
	}
	return export.BuildHardwareReceipt(record, s.ledger.Settings()), nil
}

// SalesReport renders the full transaction log as of now.
func (s *Service) SalesReport() (export.File, error) {
	return export.SalesReport(s.ledger.Transactions(), s.ledger.Settings(), time.Now().UTC())
}
