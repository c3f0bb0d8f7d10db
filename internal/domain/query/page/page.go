package page

import (
	"fmt"

	"github.com/kailas-cloud/solrq/internal/domain"
)

// DefaultSize is the page size used when none is given.
const DefaultSize = 10

// Page is a zero-based page request.
type Page struct {
	number int
	size   int
}

// New validates and creates a Page. Number must be >= 0 and size >= 1.
func New(number, size int) (Page, error) {
	if number < 0 {
		return Page{}, fmt.Errorf("page number must not be negative, got %d: %w", number, domain.ErrInvalidArgument)
	}
	if size < 1 {
		return Page{}, fmt.Errorf("page size must be at least 1, got %d: %w", size, domain.ErrInvalidArgument)
	}
	return Page{number: number, size: size}, nil
}

// Default returns the first page with DefaultSize.
func Default() Page { return Page{number: 0, size: DefaultSize} }

// Number returns the zero-based page number.
func (p Page) Number() int { return p.number }

// Size returns the page size.
func (p Page) Size() int { return p.size }

// Offset returns the index of the first item on the page.
func (p Page) Offset() int { return p.number * p.size }

// Next returns the following page.
func (p Page) Next() Page { return Page{number: p.number + 1, size: p.size} }
