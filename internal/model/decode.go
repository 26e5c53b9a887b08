package model

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// ErrMalformedRecord is returned by DecodeInvoice when a stored blob cannot be
// used at all; callers fall back to the default template.
var ErrMalformedRecord = errors.New("malformed invoice record")

// DecodeInvoice rebuilds a record from a stored blob against tmpl.
//
// Top-level fields present in the blob override the template, company and
// customer are merged key by key, and items replace the template's items with
// every numeric field coerced to a finite number. Unknown top-level fields are
// kept in Extra. Fields of the wrong JSON type keep the template value.
func DecodeInvoice(blob []byte, tmpl *InvoiceRecord) (*InvoiceRecord, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(blob, &top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}
	if top == nil {
		return nil, fmt.Errorf("%w: not an object", ErrMalformedRecord)
	}
	rawItems, ok := top["items"]
	if !ok {
		return nil, fmt.Errorf("%w: items missing", ErrMalformedRecord)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(rawItems, &items); err != nil || items == nil {
		return nil, fmt.Errorf("%w: items is not an array", ErrMalformedRecord)
	}

	rec := tmpl.Clone()
	rec.Extra = nil
	for key, raw := range top {
		switch key {
		case "invoiceNumber":
			mergeField(raw, &rec.InvoiceNumber)
		case "date":
			mergeField(raw, &rec.Date)
		case "dueDate":
			mergeField(raw, &rec.DueDate)
		case "currency":
			mergeField(raw, &rec.Currency)
		case "notes":
			mergeField(raw, &rec.Notes)
		case "company":
			mergeField(raw, &rec.Company)
		case "customer":
			mergeField(raw, &rec.Customer)
		case "items":
		default:
			if rec.Extra == nil {
				rec.Extra = make(map[string]json.RawMessage)
			}
			rec.Extra[key] = raw
		}
	}

	rec.Items = make([]LineItem, 0, len(items))
	seen := make(map[string]bool, len(items))
	for _, raw := range items {
		item, ok := decodeItem(raw)
		if !ok {
			continue
		}
		if item.ID == "" || seen[item.ID] {
			item.ID = NewItemID()
		}
		seen[item.ID] = true
		rec.Items = append(rec.Items, item)
	}
	return rec, nil
}

// mergeField decodes raw over dst. encoding/json leaves dst untouched for null
// and for a mismatched type, and only overwrites the keys present in an
// object, which is exactly the merge we want, so the error is ignored.
func mergeField(raw json.RawMessage, dst any) {
	_ = json.Unmarshal(raw, dst)
}

func decodeItem(raw json.RawMessage) (LineItem, bool) {
	if !bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")) {
		return LineItem{}, false
	}
	var item LineItem
	mergeField(raw, &item)
	item.Weight = item.Weight.Coerce()
	item.CBM = item.CBM.Coerce()
	item.Qty = item.Qty.Coerce()
	item.Rate = item.Rate.Coerce()
	item.Amount = item.Amount.Coerce()
	return item, true
}
