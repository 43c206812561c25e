package apperrors

import "errors"

var (
	ErrNotFound      = errors.New("not found")
	ErrNoData        = errors.New("no data to export")
	ErrUnknownKind   = errors.New("unknown entity kind")
	ErrMissingColumn = errors.New("missing required column")
	ErrEmptyBatch    = errors.New("no valid rows in file")
	ErrNoOrders      = errors.New("no order data available")
)
