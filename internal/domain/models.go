package domain

import "time"

// Product is an inventory catalog entry. JSON field names match the
// persisted catalog blob so existing data stays readable.
type Product struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"price"`
	StockOnHand int     `json:"stock"`
	ImageRef    string  `json:"image,omitempty"`
}

type ProductCreateRequest struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	UnitPrice   float64 `json:"price"`
	StockOnHand int     `json:"stock"`
	ImageRef    string  `json:"image,omitempty"`
}

type ProductUpdateRequest struct {
	Name        *string  `json:"name,omitempty"`
	UnitPrice   *float64 `json:"price,omitempty"`
	StockOnHand *int     `json:"stock,omitempty"`
	ImageRef    *string  `json:"image,omitempty"`
}

const (
	ItemKindCatalog = "catalog"
	ItemKindCustom  = "custom"
)

// LineItem is one row of an order bucket. Catalog items keep a reference
// to their product and capture name/price at add time; custom items have
// no inventory backing and never touch stock.
type LineItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name"`
	UnitPrice float64 `json:"price"`
	Quantity  int     `json:"quantity"`
	Kind      string  `json:"kind"`
	ImageRef  string  `json:"image,omitempty"`
}

const (
	PolicyDeduct   = "deduct"
	PolicyNoDeduct = "noDeduct"
)

const (
	DocKindSale      = "sale"
	DocKindInvoice   = "invoice"
	DocKindQuotation = "quotation"
)

// TransactionRecord is the immutable snapshot appended to the
// transaction log when a bucket is finalized. Meta carries opaque
// per-page fields (customer details, equipment info) untouched.
type TransactionRecord struct {
	ID             string            `json:"id"`
	Number         string            `json:"number"`
	Kind           string            `json:"kind"`
	Date           time.Time         `json:"date"`
	Items          []LineItem        `json:"items"`
	Subtotal       float64           `json:"subtotal"`
	Tax            float64           `json:"tax"`
	Total          float64           `json:"total"`
	CurrencySymbol string            `json:"currency"`
	Meta           map[string]string `json:"meta,omitempty"`
}

// BusinessSettings mirrors the persisted settings blob, counters included.
type BusinessSettings struct {
	BusinessName     string  `json:"businessName"`
	TaxRatePercent   float64 `json:"taxRate"`
	CurrencySymbol   string  `json:"currencySymbol"`
	BusinessAddress  string  `json:"businessAddress"`
	BusinessPhone    string  `json:"businessPhone"`
	BusinessEmail    string  `json:"businessEmail"`
	BusinessRegNo    string  `json:"businessRegNo"`
	TaxNumber        string  `json:"taxNumber"`
	BankName         string  `json:"bankName"`
	AccountHolder    string  `json:"accountHolder"`
	AccountNumber    string  `json:"accountNumber"`
	BranchCode       string  `json:"branchCode"`
	BusinessLogo     string  `json:"businessLogo"`
	SaleCounter      int     `json:"saleCounter"`
	InvoiceCounter   int     `json:"invoiceCounter"`
	QuotationCounter int     `json:"quotationCounter"`
}

type SettingsUpdateRequest struct {
	BusinessName    *string  `json:"businessName,omitempty"`
	TaxRatePercent  *float64 `json:"taxRate,omitempty"`
	CurrencySymbol  *string  `json:"currencySymbol,omitempty"`
	BusinessAddress *string  `json:"businessAddress,omitempty"`
	BusinessPhone   *string  `json:"businessPhone,omitempty"`
	BusinessEmail   *string  `json:"businessEmail,omitempty"`
	BusinessRegNo   *string  `json:"businessRegNo,omitempty"`
	TaxNumber       *string  `json:"taxNumber,omitempty"`
	BankName        *string  `json:"bankName,omitempty"`
	AccountHolder   *string  `json:"accountHolder,omitempty"`
	AccountNumber   *string  `json:"accountNumber,omitempty"`
	BranchCode      *string  `json:"branchCode,omitempty"`
	BusinessLogo    *string  `json:"businessLogo,omitempty"`
}

// AddItemRequest adds a line to a bucket. A non-empty ProductID selects a
// catalog item (Name/UnitPrice are ignored); otherwise the request
// describes a custom item. An omitted Quantity defaults to 1; an
// explicit zero is rejected like any other invalid quantity.
type AddItemRequest struct {
	ProductID string  `json:"product_id,omitempty"`
	Name      string  `json:"name,omitempty"`
	UnitPrice float64 `json:"price,omitempty"`
	Quantity  *int    `json:"quantity,omitempty"`
}

type AdjustQuantityRequest struct {
	Delta int `json:"delta"`
}

type FinalizeRequest struct {
	DocumentKind string            `json:"document_kind,omitempty"`
	Meta         map[string]string `json:"meta,omitempty"`
}

type Totals struct {
	Subtotal float64 `json:"subtotal"`
	Tax      float64 `json:"tax"`
	Total    float64 `json:"total"`
}

// BucketSnapshot is the render-ready view of one in-progress bucket.
type BucketSnapshot struct {
	Kind        string     `json:"kind"`
	StockPolicy string     `json:"stock_policy"`
	Items       []LineItem `json:"items"`
	Totals      Totals     `json:"totals"`
}
