package models

import "errors"

// Validation errors. The HTTP layer maps them to 400.
var (
	ErrEmptyQuery      = errors.New("query cannot be empty")
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrNegativePrice   = errors.New("price cannot be negative")
	ErrInvalidSaleType = errors.New("sale type must be fixed or auction")
	ErrInvalidPrice    = errors.New("min price cannot exceed max price")
)
