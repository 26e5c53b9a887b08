package model

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Currency is the invoice currency. Only GHS and USD are offered by the editor.
type Currency string

const (
	CurrencyGHS Currency = "GHS"
	CurrencyUSD Currency = "USD"
)

// Valid reports whether c is one of the supported currencies.
func (c Currency) Valid() bool {
	return c == CurrencyGHS || c == CurrencyUSD
}

// DateLayout is the ISO calendar date format used for date and dueDate.
const DateLayout = "2006-01-02"

// CompanyDetails is the issuing company block.
type CompanyDetails struct {
	Name    string  `json:"name"`
	Address string  `json:"address"`
	Email   string  `json:"email"`
	Phone   string  `json:"phone"`
	LogoURL *string `json:"logoUrl"` // base64 data URI, nil when no logo
}

// CustomerDetails is the bill-to block.
type CustomerDetails struct {
	Name        string `json:"name"`
	CompanyName string `json:"companyName"`
	Address     string `json:"address"`
	Email       string `json:"email"`
	ReferenceID string `json:"referenceId"` // container number or booking ref
}

// LineItem is one billable row of an invoice.
type LineItem struct {
	ID          string `json:"id"`
	Description string `json:"description"`
	Dimensions  string `json:"dimensions,omitempty"`
	Weight      Number `json:"weight"` // informational, never priced
	Unit        string `json:"unit"`
	CBM         Number `json:"cbm"`
	Qty         Number `json:"qty"`
	Rate        Number `json:"rate"`
	Amount      Number `json:"amount"`
	// AmountOverridden is set while a manually typed amount is authoritative.
	AmountOverridden bool `json:"amountOverridden,omitempty"`
}

// InvoiceRecord is the whole invoice being edited.
type InvoiceRecord struct {
	InvoiceNumber string          `json:"invoiceNumber"`
	Date          string          `json:"date"`
	DueDate       string          `json:"dueDate"`
	Currency      Currency        `json:"currency"`
	Company       CompanyDetails  `json:"company"`
	Customer      CustomerDetails `json:"customer"`
	Items         []LineItem      `json:"items"`
	Notes         string          `json:"notes"`

	// Extra holds top-level fields written by a newer schema; they are kept
	// and written back unchanged.
	Extra map[string]json.RawMessage `json:"-"`
}

// MarshalJSON always emits items as an array and merges Extra back in.
func (r InvoiceRecord) MarshalJSON() ([]byte, error) {
	type plain InvoiceRecord
	p := plain(r)
	if p.Items == nil {
		p.Items = []LineItem{}
	}
	known, err := json.Marshal(p)
	if err != nil || len(r.Extra) == 0 {
		return known, err
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(known, &fields); err != nil {
		return nil, err
	}
	for k, v := range r.Extra {
		if _, ok := fields[k]; !ok {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// Clone returns a deep copy of r.
func (r *InvoiceRecord) Clone() *InvoiceRecord {
	if r == nil {
		return nil
	}
	c := *r
	if r.Company.LogoURL != nil {
		logo := *r.Company.LogoURL
		c.Company.LogoURL = &logo
	}
	if r.Items != nil {
		c.Items = make([]LineItem, len(r.Items))
		copy(c.Items, r.Items)
	}
	if r.Extra != nil {
		c.Extra = make(map[string]json.RawMessage, len(r.Extra))
		for k, v := range r.Extra {
			c.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return &c
}

// ItemIndex returns the position of the item with the given id, or -1.
func (r *InvoiceRecord) ItemIndex(id string) int {
	for i := range r.Items {
		if r.Items[i].ID == id {
			return i
		}
	}
	return -1
}

// NewItemID returns a fresh line item id.
func NewItemID() string {
	return uuid.NewString()
}

// NewLineItem returns the blank row the editor appends.
func NewLineItem() LineItem {
	return LineItem{
		ID:     NewItemID(),
		Weight: NumberFromFloat(0),
		Unit:   "pcs",
		CBM:    NumberFromFloat(0),
		Qty:    NumberFromFloat(1),
		Rate:   NumberFromFloat(0),
		Amount: NumberFromFloat(0),
	}
}

// DefaultInvoice returns the template a session starts from when nothing usable
// is stored. Dates are derived from now in UTC.
func DefaultInvoice(now time.Time) *InvoiceRecord {
	now = now.UTC()
	return &InvoiceRecord{
		InvoiceNumber: "INV-2023-001",
		Date:          now.Format(DateLayout),
		DueDate:       now.AddDate(0, 0, 7).Format(DateLayout),
		Currency:      CurrencyUSD,
		Company: CompanyDetails{
			Name:    "Atlantic Sea Freight Ltd",
			Address: "Tema Harbour, Ghana",
			Email:   "ops@atlanticfreight.gh",
			Phone:   "+233 55 123 4567",
		},
		Items: []LineItem{
			{
				ID:          "1",
				Description: "20ft Container - General Goods",
				Dimensions:  "6.06m x 2.44m x 2.59m",
				Weight:      NumberFromFloat(2200),
				Unit:        "Container",
				CBM:         NumberFromFloat(33.2),
				Qty:         NumberFromFloat(1),
				Rate:        NumberFromFloat(2500),
				Amount:      NumberFromFloat(2500),
			},
		},
		Notes: "Please make checks payable to Atlantic Sea Freight Ltd.\nPayment due within 14 days of invoice date.",
	}
}

// InvoicePatch holds the top-level fields that can be edited.
type InvoicePatch struct {
	InvoiceNumber *string   `json:"invoiceNumber"`
	Date          *string   `json:"date"`
	DueDate       *string   `json:"dueDate"`
	Currency      *Currency `json:"currency"`
	Notes         *string   `json:"notes"`
}

// CompanyPatch holds the company fields that can be edited. The logo has its
// own endpoint.
type CompanyPatch struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Email   *string `json:"email"`
	Phone   *string `json:"phone"`
}

// CustomerPatch holds the customer fields that can be edited.
type CustomerPatch struct {
	Name        *string `json:"name"`
	CompanyName *string `json:"companyName"`
	Address     *string `json:"address"`
	Email       *string `json:"email"`
	ReferenceID *string `json:"referenceId"`
}
