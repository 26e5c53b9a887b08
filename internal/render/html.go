package render

import (
	"bytes"
	"html/template"

	"github.com/seafreight/backend/internal/model"
)

const invoiceHTMLTemplate = `<!doctype html>
<html lang="en">
<head>
  <meta charset="utf-8" />
  <title>Invoice {{.Number}}</title>
  <style>
    @page { size: A4; margin: 0; }
    * { box-sizing: border-box; }
    body {
      margin: 0;
      font-family: "Helvetica Neue", Arial, sans-serif;
      font-size: 14px;
      color: #0f172a;
      background: #ffffff;
    }
    .invoice {
      position: relative;
      max-width: 210mm;
      min-height: 297mm;
      margin: 0 auto;
      padding: 48px 40px 80px;
      border-top: 16px solid #0284c7;
    }
    .header { display: flex; justify-content: space-between; align-items: flex-start; }
    .brand { display: flex; gap: 16px; align-items: flex-start; }
    .logo { width: 96px; height: 96px; object-fit: contain; border-radius: 4px; }
    .logo-placeholder { width: 96px; height: 96px; background: #f0f9ff; border-radius: 4px; }
    .brand h1 { margin: 0; font-size: 24px; }
    .muted { color: #64748b; }
    .muted p { margin: 2px 0; }
    .meta { text-align: right; }
    .meta h2 { margin: 0 0 16px; font-size: 36px; font-weight: 300; color: #0284c7; text-transform: uppercase; letter-spacing: 0.1em; }
    .meta p { margin: 4px 0; color: #475569; }
    .meta strong { color: #0f172a; }
    .parties { display: grid; grid-template-columns: 1fr 1fr; gap: 48px; margin-top: 48px; }
    .label { color: #0284c7; font-weight: bold; text-transform: uppercase; font-size: 11px; letter-spacing: 0.05em; margin-bottom: 8px; }
    .billto-name { font-weight: bold; font-size: 18px; }
    .shipment { background: #f8fafc; border: 1px solid #f1f5f9; border-radius: 4px; padding: 16px; }
    .reference { font-family: monospace; font-weight: bold; font-size: 18px; }
    table { width: 100%; border-collapse: collapse; margin-top: 48px; }
    th { background: #0284c7; color: #ffffff; padding: 12px; font-size: 13px; text-align: center; }
    th.desc { width: 30%; text-align: left; }
    th.num { text-align: right; }
    td { padding: 12px; border-bottom: 1px solid #f1f5f9; color: #475569; text-align: center; }
    td.desc { text-align: left; color: #1e293b; }
    td.num { text-align: right; }
    td.amount { color: #0f172a; font-weight: bold; }
    td.unit { text-transform: uppercase; font-size: 12px; }
    .dims { font-size: 12px; color: #64748b; margin-top: 4px; }
    .empty { padding: 32px; color: #94a3b8; font-style: italic; }
    .totals { display: flex; justify-content: flex-end; margin-top: 32px; }
    .totals div.box { width: 256px; }
    .row { display: flex; justify-content: space-between; color: #475569; margin-bottom: 12px; }
    .grand { border-top: 2px solid #e2e8f0; padding-top: 12px; display: flex; justify-content: space-between; align-items: center; }
    .grand span:first-child { font-weight: bold; font-size: 20px; }
    .grand span:last-child { font-weight: bold; font-size: 24px; color: #0284c7; }
    .notes { margin-top: 48px; padding-top: 24px; border-top: 1px solid #e2e8f0; }
    .notes h4 { margin: 0 0 8px; }
    .notes p { white-space: pre-wrap; color: #475569; margin: 0; }
    .footer { position: absolute; bottom: 40px; left: 40px; right: 40px; text-align: center; color: #94a3b8; font-size: 12px; }
  </style>
</head>
<body>
  <div class="invoice">
    <div class="header">
      <div class="brand">
        {{if .Company.LogoURL}}<img class="logo" src="{{.Company.LogoURL}}" alt="Company Logo" />{{else}}<div class="logo-placeholder"></div>{{end}}
        <div>
          <h1>{{.Company.Name}}</h1>
          <div class="muted">
            <p>{{.Company.Address}}</p>
            <p>{{.Company.Email}}</p>
            <p>{{.Company.Phone}}</p>
          </div>
        </div>
      </div>
      <div class="meta">
        <h2>Invoice</h2>
        <p>Invoice #: <strong>{{.Number}}</strong></p>
        <p>Date: <strong>{{.Date}}</strong></p>
        <p>Due Date: <strong>{{.DueDate}}</strong></p>
      </div>
    </div>

    <div class="parties">
      <div>
        <div class="label">Bill To</div>
        <div class="billto-name">{{.BillTo.Heading}}</div>
        {{if .BillTo.Contact}}<p>{{.BillTo.Contact}}</p>{{end}}
        <p>{{.BillTo.Address}}</p>
        <p>{{.BillTo.Email}}</p>
      </div>
      <div>
        <div class="label">Shipment Details</div>
        <div class="shipment">
          <div class="muted">Reference / Booking No.</div>
          <div class="reference">{{.BillTo.Reference}}</div>
          <div class="muted">Sea Freight Service</div>
        </div>
      </div>
    </div>

    <table>
      <thead>
        <tr>
          <th class="desc">Description</th>
          <th>Unit</th>
          <th>Qty</th>
          <th>Weight</th>
          <th>CBM</th>
          <th class="num">Rate</th>
          <th class="num">Amount</th>
        </tr>
      </thead>
      <tbody>
        {{range .Items}}
        <tr>
          <td class="desc">
            <div>{{.Description}}</div>
            {{if .Dimensions}}<div class="dims">Dims: {{.Dimensions}}</div>{{end}}
          </td>
          <td class="unit">{{.Unit}}</td>
          <td>{{.Qty}}</td>
          <td>{{.Weight}}</td>
          <td>{{.CBM}}</td>
          <td class="num">{{$.Symbol}}{{.Rate}}</td>
          <td class="num amount">{{$.Symbol}}{{.Amount}}</td>
        </tr>
        {{else}}
        <tr><td colspan="7" class="empty">No items added yet.</td></tr>
        {{end}}
      </tbody>
    </table>

    <div class="totals">
      <div class="box">
        <div class="row"><span>Subtotal</span><span>{{.Symbol}}{{.Subtotal}}</span></div>
        <div class="row"><span>Total CBM</span><span>{{.TotalCBM}}</span></div>
        <div class="grand"><span>Total</span><span>{{.Symbol}}{{.Total}}</span></div>
      </div>
    </div>

    <div class="notes">
      <h4>Notes &amp; Instructions</h4>
      <p>{{.Notes}}</p>
    </div>

    <div class="footer"><p>{{.Footer}}</p></div>
  </div>
</body>
</html>
`

// HTMLRenderer renders the print-ready invoice document.
type HTMLRenderer struct {
	tpl *template.Template
}

func NewHTMLRenderer() *HTMLRenderer {
	return &HTMLRenderer{
		tpl: template.Must(template.New("invoice").Parse(invoiceHTMLTemplate)),
	}
}

func (r *HTMLRenderer) RenderHTML(rec *model.InvoiceRecord) (string, error) {
	var buf bytes.Buffer
	if err := r.tpl.Execute(&buf, NewInvoiceView(rec)); err != nil {
		return "", err
	}
	return buf.String(), nil
}
