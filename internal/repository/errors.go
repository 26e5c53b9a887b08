package repository

import "errors"

// ErrNotFound is returned when the slot holds no usable record.
var ErrNotFound = errors.New("not found")
