package models

import "fmt"

const (
	DefaultPageNumber = 1
	DefaultPageSize   = 50
	MaxPageSize       = 500
)

// Page is a 1-based page request.
type Page struct {
	Number int
	Size   int
}

func DefaultPage() Page {
	return Page{Number: DefaultPageNumber, Size: DefaultPageSize}
}

func (p Page) Validate() error {
	if p.Number < 1 {
		return fmt.Errorf("%w: page_number must be >= 1", ErrInvalidPage)
	}
	if p.Size < 1 || p.Size > MaxPageSize {
		return fmt.Errorf("%w: page_size must be between 1 and %d", ErrInvalidPage, MaxPageSize)
	}
	return nil
}

// Offset is the number of documents preceding the page.
func (p Page) Offset() int {
	return p.Size*p.Number - p.Size
}
