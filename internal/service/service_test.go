package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"tillpoint/backend/internal/domain"
	"tillpoint/backend/internal/kv"
	"tillpoint/backend/internal/ledger"
)

func qty(v int) *int {
	return &v
}

func newTestService(t *testing.T) *Service {
	t.Helper()
	l, err := ledger.New(context.Background(), kv.NewMemory())
	if err != nil {
		t.Fatalf("ledger.New: %v", err)
	}
	s, err := New(l)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return s
}

func TestNewOpensStandardBuckets(t *testing.T) {
	s := newTestService(t)

	for kind, policy := range map[string]string{
		BucketSale:         domain.PolicyDeduct,
		BucketInvoice:      domain.PolicyDeduct,
		BucketQuotation:    domain.PolicyNoDeduct,
		BucketSpecialOrder: domain.PolicyNoDeduct,
	} {
		snap, err := s.Bucket(kind)
		if err != nil {
			t.Fatalf("Bucket(%s): %v", kind, err)
		}
		if snap.StockPolicy != policy {
			t.Fatalf("bucket %s policy = %q, want %q", kind, snap.StockPolicy, policy)
		}
	}

	if _, err := s.Bucket("layaway"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown kind, got %v", err)
	}
}

func TestAddItemRoutesOnProductID(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	line, err := s.AddItem(ctx, BucketSale, domain.AddItemRequest{ProductID: "prod1"})
	if err != nil {
		t.Fatalf("AddItem catalog: %v", err)
	}
	if line.Kind != domain.ItemKindCatalog || line.Quantity != 1 {
		t.Fatalf("expected catalog line qty 1, got %+v", line)
	}

	line, err = s.AddItem(ctx, BucketSale, domain.AddItemRequest{Name: "Courier", UnitPrice: 80, Quantity: qty(2)})
	if err != nil {
		t.Fatalf("AddItem custom: %v", err)
	}
	if line.Kind != domain.ItemKindCustom || line.Quantity != 2 {
		t.Fatalf("expected custom line qty 2, got %+v", line)
	}
}

func TestAddItemExplicitZeroQuantityRejected(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	// An omitted quantity means 1; a literal zero is not a default
	// request and must fail validation.
	if _, err := s.AddItem(ctx, BucketSale, domain.AddItemRequest{ProductID: "prod1", Quantity: qty(0)}); !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("expected ErrValidation for explicit zero quantity, got %v", err)
	}
	snap, err := s.Bucket(BucketSale)
	if err != nil {
		t.Fatalf("Bucket: %v", err)
	}
	if len(snap.Items) != 0 {
		t.Fatalf("rejected add must not reach the bucket, got %d items", len(snap.Items))
	}
}

func TestQuotationBucketLeavesStockAlone(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.AddItem(ctx, BucketQuotation, domain.AddItemRequest{ProductID: "prod1", Quantity: qty(3)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	products := s.Products("")
	for _, p := range products {
		if p.ID == "prod1" && p.StockOnHand != 10 {
			t.Fatalf("quotation add changed stock: %d", p.StockOnHand)
		}
	}
}

func TestFinalizeSaleBucket(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.AddItem(ctx, BucketSale, domain.AddItemRequest{ProductID: "prod2", Quantity: qty(2)}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	record, file, err := s.Finalize(ctx, BucketSale, domain.FinalizeRequest{})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if record.Kind != domain.DocKindSale || record.ID != "SALE-00001" {
		t.Fatalf("unexpected record %+v", record)
	}
	if file.Name != "receipt_SALE-00001.html" {
		t.Fatalf("unexpected document name %q", file.Name)
	}
	if !strings.Contains(string(file.Data), "Wireless Mouse") {
		t.Fatalf("expected item in rendered document")
	}
}

func TestSpecialOrderFinalizeKinds(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	add := func() {
		t.Helper()
		if _, err := s.AddItem(ctx, BucketSpecialOrder, domain.AddItemRequest{Name: "Custom build", UnitPrice: 5000, Quantity: qty(1)}); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
	}

	add()
	record, _, err := s.Finalize(ctx, BucketSpecialOrder, domain.FinalizeRequest{})
	if err != nil {
		t.Fatalf("Finalize default: %v", err)
	}
	if record.Kind != domain.DocKindInvoice {
		t.Fatalf("expected default invoice, got %q", record.Kind)
	}

	add()
	record, _, err = s.Finalize(ctx, BucketSpecialOrder, domain.FinalizeRequest{DocumentKind: domain.DocKindQuotation})
	if err != nil {
		t.Fatalf("Finalize quotation: %v", err)
	}
	if record.Kind != domain.DocKindQuotation {
		t.Fatalf("expected quotation, got %q", record.Kind)
	}

	add()
	if _, _, err := s.Finalize(ctx, BucketSpecialOrder, domain.FinalizeRequest{DocumentKind: domain.DocKindSale}); !errors.Is(err, ledger.ErrValidation) {
		t.Fatalf("expected ErrValidation for sale kind, got %v", err)
	}
}

func TestFinalizeEmptyBucket(t *testing.T) {
	s := newTestService(t)

	if _, _, err := s.Finalize(context.Background(), BucketSale, domain.FinalizeRequest{}); !errors.Is(err, ledger.ErrEmptyBucket) {
		t.Fatalf("expected ErrEmptyBucket, got %v", err)
	}
}

func TestFinalizeMetaPassthrough(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.AddItem(ctx, BucketInvoice, domain.AddItemRequest{ProductID: "prod3"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	meta := map[string]string{"customerName": "J. Moloi", "customerPhone": "0821234567"}
	record, file, err := s.Finalize(ctx, BucketInvoice, domain.FinalizeRequest{Meta: meta})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if record.Meta["customerName"] != "J. Moloi" {
		t.Fatalf("meta not preserved: %+v", record.Meta)
	}
	if !strings.Contains(string(file.Data), "J. Moloi") {
		t.Fatalf("expected customer name on the invoice")
	}
}

func TestDocumentAndReceiptForLoggedTransaction(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	if _, err := s.AddItem(ctx, BucketSale, domain.AddItemRequest{ProductID: "prod4"}); err != nil {
		t.Fatalf("AddItem: %v", err)
	}
	record, _, err := s.Finalize(ctx, BucketSale, domain.FinalizeRequest{})
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}

	file, err := s.Document(record.ID)
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if file.Name != "receipt_"+record.ID+".html" {
		t.Fatalf("unexpected document name %q", file.Name)
	}

	receipt, err := s.HardwareReceipt(record.ID)
	if err != nil {
		t.Fatalf("HardwareReceipt: %v", err)
	}
	if receipt.TransactionID != record.ID {
		t.Fatalf("unexpected receipt %+v", receipt)
	}

	if _, err := s.Document("SALE-99999"); !errors.Is(err, ledger.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSalesReportCoversLog(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if _, err := s.AddItem(ctx, BucketSale, domain.AddItemRequest{ProductID: "prod2"}); err != nil {
			t.Fatalf("AddItem: %v", err)
		}
		if _, _, err := s.Finalize(ctx, BucketSale, domain.FinalizeRequest{}); err != nil {
			t.Fatalf("Finalize: %v", err)
		}
	}

	file, err := s.SalesReport()
	if err != nil {
		t.Fatalf("SalesReport: %v", err)
	}
	html := string(file.Data)
	if !strings.Contains(html, "SALE-00001") || !strings.Contains(html, "SALE-00002") {
		t.Fatalf("expected both transactions in report:\n%s", html)
	}
}
