// Package export renders finalized transactions into printable
// artifacts: standalone HTML documents for invoices, quotations, sale
// receipts and sales reports, plus raw ESC/POS bytes for thermal
// receipt printers. Amounts are rounded to two decimals here and
// nowhere earlier.
package export

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"html/template"
	"strconv"
	"strings"
	"time"

	"tillpoint/backend/internal/domain"
)

// File is a rendered document ready to hand to the client.
type File struct {
	Name        string `json:"file_name"`
	ContentType string `json:"content_type"`
	Data        []byte `json:"data"`
}

// HardwareReceipt carries ESC/POS bytes for a local printer bridge.
type HardwareReceipt struct {
	TransactionID string `json:"transaction_id"`
	EscposBase64  string `json:"escpos_base64"`
	PreviewText   string `json:"preview_text"`
	FileName      string `json:"file_name"`
}

func money(symbol string, amount float64) string {
	return fmt.Sprintf("%s%.2f", symbol, amount)
}

// FileName is deterministic per record so re-exporting the same
// transaction yields the same name.
func FileName(record domain.TransactionRecord) string {
	switch record.Kind {
	case domain.DocKindInvoice:
		return fmt.Sprintf("invoice_%s.html", record.Number)
	case domain.DocKindQuotation:
		return fmt.Sprintf("quotation_%s.html", record.Number)
	default:
		return fmt.Sprintf("receipt_%s.html", record.ID)
	}
}

type documentData struct {
	Title    string
	Record   domain.TransactionRecord
	Settings domain.BusinessSettings
	Date     string
	Lines    []documentLine
	Subtotal string
	Tax      string
	Total    string
	TaxRate  string
}

type documentLine struct {
	Name      string
	Quantity  int
	UnitPrice string
	LineTotal string
}

// documentHTMLTmpl renders all three document kinds; html/template
// auto-escapes the business and item fields.
var documentHTMLTmpl = template.Must(template.New("document").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>{{.Title}} {{.Record.Number}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
    .totals td { border: none; text-align: right; }
  </style>
</head>
<body>
  <h2>{{.Settings.BusinessName}}</h2>
  {{if .Settings.BusinessAddress}}<p>{{.Settings.BusinessAddress}}</p>{{end}}
  {{if .Settings.BusinessPhone}}<p>{{.Settings.BusinessPhone}}{{if .Settings.BusinessEmail}} | {{.Settings.BusinessEmail}}{{end}}</p>{{end}}
  {{if .Settings.TaxNumber}}<p>Tax No: {{.Settings.TaxNumber}}</p>{{end}}

  <h3>{{.Title}} {{.Record.ID}}</h3>
  <p>Date: {{.Date}}</p>
  {{range $k, $v := .Record.Meta}}<p>{{$k}}: {{$v}}</p>{{end}}

  <table>
    <thead><tr><th>Item</th><th>Qty</th><th>Unit Price</th><th>Total</th></tr></thead>
    <tbody>{{range .Lines}}<tr><td>{{.Name}}</td><td style="text-align:right;">{{.Quantity}}</td><td style="text-align:right;">{{.UnitPrice}}</td><td style="text-align:right;">{{.LineTotal}}</td></tr>{{end}}</tbody>
  </table>

  <table class="totals">
    <tr><td>Subtotal: {{.Subtotal}}</td></tr>
    <tr><td>Tax ({{.TaxRate}}%): {{.Tax}}</td></tr>
    <tr><td><strong>Total: {{.Total}}</strong></td></tr>
  </table>

  {{if .Settings.BankName}}
  <h3>Banking Details</h3>
  <p>{{.Settings.BankName}}{{if .Settings.AccountHolder}} | {{.Settings.AccountHolder}}{{end}}</p>
  {{if .Settings.AccountNumber}}<p>Account: {{.Settings.AccountNumber}}{{if .Settings.BranchCode}} | Branch: {{.Settings.BranchCode}}{{end}}</p>{{end}}
  {{end}}
</body>
</html>
`))

func documentTitle(kind string) string {
	switch kind {
	case domain.DocKindInvoice:
		return "Invoice"
	case domain.DocKindQuotation:
		return "Quotation"
	default:
		return "Receipt"
	}
}

// Document renders the record as a standalone printable HTML page.
func Document(record domain.TransactionRecord, settings domain.BusinessSettings) (File, error) {
	symbol := record.CurrencySymbol
	if symbol == "" {
		symbol = settings.CurrencySymbol
	}

	data := documentData{
		Title:    documentTitle(record.Kind),
		Record:   record,
		Settings: settings,
		Date:     record.Date.Format("2006-01-02 15:04:05"),
		Subtotal: money(symbol, record.Subtotal),
		Tax:      money(symbol, record.Tax),
		Total:    money(symbol, record.Total),
		TaxRate:  strconv.FormatFloat(settings.TaxRatePercent, 'f', -1, 64),
	}
	for _, item := range record.Items {
		data.Lines = append(data.Lines, documentLine{
			Name:      item.Name,
			Quantity:  item.Quantity,
			UnitPrice: money(symbol, item.UnitPrice),
			LineTotal: money(symbol, item.UnitPrice*float64(item.Quantity)),
		})
	}

	var buf bytes.Buffer
	if err := documentHTMLTmpl.Execute(&buf, data); err != nil {
		return File{}, fmt.Errorf("render %s: %w", record.ID, err)
	}
	return File{
		Name:        FileName(record),
		ContentType: "text/html; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

type reportData struct {
	Date     string
	Settings domain.BusinessSettings
	Rows     []reportRow
	Count    int
	Total    string
}

type reportRow struct {
	ID    string
	Kind  string
	Date  string
	Items int
	Total string
}

var salesReportHTMLTmpl = template.Must(template.New("sales-report").Parse(`<!doctype html>
<html>
<head>
  <meta charset="utf-8" />
  <title>Sales Report {{.Date}}</title>
  <style>
    body { font-family: sans-serif; margin: 24px; }
    table { width: 100%; border-collapse: collapse; margin-top: 8px; }
    th, td { border: 1px solid #ddd; padding: 6px; font-size: 13px; }
    h2, h3 { margin-bottom: 4px; }
  </style>
</head>
<body>
  <h2>{{.Settings.BusinessName}}</h2>
  <h3>Sales Report {{.Date}}</h3>
  <p>Transactions: {{.Count}} | Grand Total: {{.Total}}</p>

  <table>
    <thead><tr><th>Document</th><th>Kind</th><th>Date</th><th>Items</th><th>Total</th></tr></thead>
    <tbody>{{range .Rows}}<tr><td>{{.ID}}</td><td>{{.Kind}}</td><td>{{.Date}}</td><td style="text-align:right;">{{.Items}}</td><td style="text-align:right;">{{.Total}}</td></tr>{{end}}</tbody>
  </table>
</body>
</html>
`))

// SalesReport renders the transaction log as a printable summary, named
// after the day it was generated.
func SalesReport(records []domain.TransactionRecord, settings domain.BusinessSettings, now time.Time) (File, error) {
	data := reportData{
		Date:     now.Format("2006-01-02"),
		Settings: settings,
		Count:    len(records),
	}
	grand := 0.0
	for _, record := range records {
		itemCount := 0
		for _, item := range record.Items {
			itemCount += item.Quantity
		}
		data.Rows = append(data.Rows, reportRow{
			ID:    record.ID,
			Kind:  record.Kind,
			Date:  record.Date.Format("2006-01-02 15:04"),
			Items: itemCount,
			Total: money(settings.CurrencySymbol, record.Total),
		})
		grand += record.Total
	}
	data.Total = money(settings.CurrencySymbol, grand)

	var buf bytes.Buffer
	if err := salesReportHTMLTmpl.Execute(&buf, data); err != nil {
		return File{}, fmt.Errorf("render sales report: %w", err)
	}
	return File{
		Name:        fmt.Sprintf("Sales_Report_%s.html", data.Date),
		ContentType: "text/html; charset=utf-8",
		Data:        buf.Bytes(),
	}, nil
}

// BuildHardwareReceipt produces ESC/POS bytes for the record: init,
// one line per row, then a partial cut.
func BuildHardwareReceipt(record domain.TransactionRecord, settings domain.BusinessSettings) HardwareReceipt {
	symbol := record.CurrencySymbol
	if symbol == "" {
		symbol = settings.CurrencySymbol
	}

	lines := []string{
		settings.BusinessName,
		"========================",
		documentTitle(record.Kind) + ": " + record.ID,
		"Date: " + record.Date.Format("2006-01-02 15:04:05"),
		"------------------------",
	}
	for _, item := range record.Items {
		lines = append(lines, fmt.Sprintf("%s x%d", item.Name, item.Quantity))
		lines = append(lines, "  "+money(symbol, item.UnitPrice*float64(item.Quantity)))
	}
	lines = append(lines,
		"------------------------",
		"Subtotal : "+money(symbol, record.Subtotal),
		"Tax      : "+money(symbol, record.Tax),
		"Total    : "+money(symbol, record.Total),
		"========================",
		"Thank you",
		"",
	)

	escpos := []byte{0x1b, 0x40}
	for _, line := range lines {
		escpos = append(escpos, []byte(line)...)
		escpos = append(escpos, '\n')
	}
	escpos = append(escpos, []byte{0x1d, 0x56, 0x41, 0x10}...)

	return HardwareReceipt{
		TransactionID: record.ID,
		EscposBase64:  base64.StdEncoding.EncodeToString(escpos),
		PreviewText:   strings.Join(lines, "\n"),
		FileName:      fmt.Sprintf("receipt-%s.bin", record.ID),
	}
}
