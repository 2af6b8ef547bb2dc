package export

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"tillpoint/backend/internal/domain"
)

func sampleRecord(kind string) domain.TransactionRecord {
	return domain.TransactionRecord{
		ID:             "INV-00007",
		Number:         "00007",
		Kind:           kind,
		Date:           time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC),
		Items:          []domain.LineItem{{ID: "p1", Name: "Widget", UnitPrice: 19.999, Quantity: 2, Kind: domain.ItemKindCatalog}},
		Subtotal:       39.998,
		Tax:            5.9997,
		Total:          45.9977,
		CurrencySymbol: "R",
	}
}

func sampleSettings() domain.BusinessSettings {
	return domain.BusinessSettings{
		BusinessName:   "Tillpoint Traders",
		TaxRatePercent: 15,
		CurrencySymbol: "R",
		BankName:       "First Bank",
		AccountNumber:  "123456",
	}
}

func TestDocumentFileNames(t *testing.T) {
	cases := []struct {
		kind string
		want string
	}{
		{domain.DocKindInvoice, "invoice_00007.html"},
		{domain.DocKindQuotation, "quotation_00007.html"},
		{domain.DocKindSale, "receipt_INV-00007.html"},
	}
	for _, tc := range cases {
		record := sampleRecord(tc.kind)
		if got := FileName(record); got != tc.want {
			t.Fatalf("FileName(%s) = %q, want %q", tc.kind, got, tc.want)
		}
	}
}

func TestDocumentRoundsAtPresentation(t *testing.T) {
	file, err := Document(sampleRecord(domain.DocKindInvoice), sampleSettings())
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	html := string(file.Data)

	// Stored amounts are unrounded; the page shows two decimals.
	for _, want := range []string{"R40.00", "R6.00", "R46.00", "R20.00"} {
		if !strings.Contains(html, want) {
			t.Fatalf("expected %q in rendered document:\n%s", want, html)
		}
	}
	if !strings.Contains(html, "Tillpoint Traders") {
		t.Fatalf("expected business name in document")
	}
	if !strings.Contains(html, "First Bank") {
		t.Fatalf("expected banking details on invoice")
	}
}

func TestDocumentEscapesItemNames(t *testing.T) {
	record := sampleRecord(domain.DocKindInvoice)
	record.Items[0].Name = `<script>alert("x")</script>`

	file, err := Document(record, sampleSettings())
	if err != nil {
		t.Fatalf("Document: %v", err)
	}
	if strings.Contains(string(file.Data), "<script>alert") {
		t.Fatalf("item name not escaped")
	}
}

func TestSalesReport(t *testing.T) {
	records := []domain.TransactionRecord{
		sampleRecord(domain.DocKindSale),
		sampleRecord(domain.DocKindInvoice),
	}
	now := time.Date(2026, 3, 14, 17, 0, 0, 0, time.UTC)

	file, err := SalesReport(records, sampleSettings(), now)
	if err != nil {
		t.Fatalf("SalesReport: %v", err)
	}
	if file.Name != "Sales_Report_2026-03-14.html" {
		t.Fatalf("unexpected file name %q", file.Name)
	}
	html := string(file.Data)
	if !strings.Contains(html, "Transactions: 2") {
		t.Fatalf("expected transaction count in report")
	}
	if !strings.Contains(html, "R92.00") {
		t.Fatalf("expected grand total R92.00 in report:\n%s", html)
	}
}

func TestBuildHardwareReceipt(t *testing.T) {
	receipt := BuildHardwareReceipt(sampleRecord(domain.DocKindSale), sampleSettings())

	if receipt.FileName != "receipt-INV-00007.bin" {
		t.Fatalf("unexpected file name %q", receipt.FileName)
	}
	if !strings.Contains(receipt.PreviewText, "Widget x2") {
		t.Fatalf("expected item line in preview:\n%s", receipt.PreviewText)
	}
	if !strings.Contains(receipt.PreviewText, "Total    : R46.00") {
		t.Fatalf("expected total in preview:\n%s", receipt.PreviewText)
	}

	raw, err := base64.StdEncoding.DecodeString(receipt.EscposBase64)
	if err != nil {
		t.Fatalf("decode escpos: %v", err)
	}
	if len(raw) < 6 || raw[0] != 0x1b || raw[1] != 0x40 {
		t.Fatalf("expected ESC @ init prefix, got % x", raw[:2])
	}
	tail := raw[len(raw)-4:]
	if tail[0] != 0x1d || tail[1] != 0x56 {
		t.Fatalf("expected cut command suffix, got % x", tail)
	}
}
