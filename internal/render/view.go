// Package render turns an invoice record into a printable HTML document or a
// single-page PDF.
package render

import (
	"html/template"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/seafreight/backend/internal/model"
)

// Placeholders shown when a company field is left empty.
const (
	placeholderCompanyName = "Your Company Name"
	placeholderAddress     = "123 Ocean Drive, Port City"
	placeholderEmail       = "contact@logistics.com"
	placeholderPhone       = "+233 20 000 0000"
	placeholderCustomer    = "Customer Name"
	placeholderReference   = "N/A"
	footerText             = "Generated by InvoiceGen"
)

// InvoiceView is the display-ready form of a record shared by both renderers.
type InvoiceView struct {
	Number   string
	Date     string
	DueDate  string
	Currency model.Currency
	Symbol   string

	Company  CompanyView
	BillTo   BillToView
	Items    []ItemView
	Subtotal string
	TotalCBM string
	Total    string
	Notes    string
	Footer   string
}

type CompanyView struct {
	Name    string
	Address string
	Email   string
	Phone   string
	// LogoURL is set only for image data URIs.
	LogoURL template.URL
}

type BillToView struct {
	Heading   string
	Contact   string // shown under Heading when a company name is present
	Address   string
	Email     string
	Reference string
}

type ItemView struct {
	Description string
	Dimensions  string
	Unit        string
	Qty         string
	Weight      string
	CBM         string
	Rate        string
	Amount      string
}

// NewInvoiceView formats rec for display.
func NewInvoiceView(rec *model.InvoiceRecord) InvoiceView {
	totals := model.ComputeTotals(rec.Items)
	v := InvoiceView{
		Number:   rec.InvoiceNumber,
		Date:     rec.Date,
		DueDate:  rec.DueDate,
		Currency: rec.Currency,
		Symbol:   model.CurrencySymbol(rec.Currency),
		Company: CompanyView{
			Name:    orDefault(rec.Company.Name, placeholderCompanyName),
			Address: orDefault(rec.Company.Address, placeholderAddress),
			Email:   orDefault(rec.Company.Email, placeholderEmail),
			Phone:   orDefault(rec.Company.Phone, placeholderPhone),
		},
		BillTo: BillToView{
			Heading:   firstNonEmpty(rec.Customer.CompanyName, rec.Customer.Name, placeholderCustomer),
			Address:   rec.Customer.Address,
			Email:     rec.Customer.Email,
			Reference: orDefault(rec.Customer.ReferenceID, placeholderReference),
		},
		Subtotal: model.FormatMoney(totals.Subtotal),
		TotalCBM: model.FormatCBM(totals.TotalCBM),
		Total:    model.FormatMoney(totals.Total),
		Notes:    rec.Notes,
		Footer:   footerText,
	}
	if rec.Customer.CompanyName != "" {
		v.BillTo.Contact = rec.Customer.Name
	}
	if logo := rec.Company.LogoURL; logo != nil && strings.HasPrefix(*logo, "data:image/") {
		v.Company.LogoURL = template.URL(*logo)
	}

	v.Items = make([]ItemView, 0, len(rec.Items))
	for _, item := range rec.Items {
		v.Items = append(v.Items, ItemView{
			Description: item.Description,
			Dimensions:  item.Dimensions,
			Unit:        item.Unit,
			Qty:         item.Qty.Decimal().String(),
			Weight:      formatWeight(item.Weight.Decimal()),
			CBM:         item.CBM.Decimal().StringFixed(2),
			Rate:        model.FormatMoney(item.Rate.Decimal()),
			Amount:      model.FormatMoney(item.Amount.Decimal()),
		})
	}
	return v
}

func formatWeight(w decimal.Decimal) string {
	if !w.IsPositive() {
		return "-"
	}
	return w.String() + " kg"
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
