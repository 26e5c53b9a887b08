package service

import "errors"

var (
	// ErrItemNotFound is returned when no line item has the given id.
	ErrItemNotFound = errors.New("line item not found")
	// ErrInvalidField is returned for an unknown line item field name.
	ErrInvalidField = errors.New("invalid field")
	// ErrInvalidCurrency is returned when the currency is not GHS or USD.
	ErrInvalidCurrency = errors.New("invalid currency")
	// ErrInvalidDate is returned when a date is not YYYY-MM-DD.
	ErrInvalidDate = errors.New("invalid date")
	// ErrAssistPending is returned while a text-assist call for the same target is outstanding.
	ErrAssistPending = errors.New("assist already pending")
	// ErrInvalidImage is returned when an uploaded logo cannot be decoded.
	ErrInvalidImage = errors.New("invalid image")
)
