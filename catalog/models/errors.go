package models

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidPage  = errors.New("invalid page")
	ErrInvalidSort  = errors.New("invalid sort")
	ErrInvalidQuery = errors.New("invalid query")
)
