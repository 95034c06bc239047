// Package pager slices ordered result lists into fixed-size pages.
package pager

import (
	"fmt"
	"strings"

	"github.com/starford/notebox/internal/apperr"
)

// DefaultSize is the page size used when none is configured.
const DefaultSize = 2

// Direction selects which way Advance moves.
type Direction int

const (
	Prev Direction = iota
	Next
)

// ParseDirection maps "prev"/"next" (case-insensitive) to a Direction.
func ParseDirection(s string) (Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "prev", "previous":
		return Prev, nil
	case "next":
		return Next, nil
	}
	return 0, fmt.Errorf("%w: unknown direction %q", apperr.ErrValidation, s)
}

func (d Direction) String() string {
	if d == Prev {
		return "prev"
	}
	return "next"
}

// Page is one bounded slice of an ordered list.
type Page[T any] struct {
	Items      []T  `json:"items"`
	Number     int  `json:"page"`
	Size       int  `json:"page_size"`
	Pages      int  `json:"pages"`
	TotalItems int  `json:"total"`
	HasPrev    bool `json:"has_prev"`
	HasNext    bool `json:"has_next"`
}

// PageCount returns the number of pages needed for total items. The last page
// may be partial; when total is an exact multiple of size it is exactly full
// and no trailing empty page exists.
func PageCount(total, size int) int {
	if total <= 0 || size <= 0 {
		return 0
	}
	return (total + size - 1) / size
}

// Paginate returns the first page of items.
func Paginate[T any](items []T, size int) (Page[T], error) {
	return At(items, size, 1)
}

// At returns page number (1-based) of items. Numbers outside [1, last] are
// clamped. An empty list yields apperr.ErrNoResults.
func At[T any](items []T, size, number int) (Page[T], error) {
	if size <= 0 {
		return Page[T]{}, fmt.Errorf("%w: page size must be positive, got %d", apperr.ErrValidation, size)
	}
	if len(items) == 0 {
		return Page[T]{}, apperr.ErrNoResults
	}

	pages := PageCount(len(items), size)
	number = clamp(number, 1, pages)

	start := (number - 1) * size
	end := min(start+size, len(items))

	return Page[T]{
		Items:      items[start:end],
		Number:     number,
		Size:       size,
		Pages:      pages,
		TotalItems: len(items),
		HasPrev:    number > 1,
		HasNext:    number < pages,
	}, nil
}

// Advance moves from page number in dir over total items. Moving past either
// end leaves the number unchanged.
func Advance(number, total, size int, dir Direction) int {
	last := max(PageCount(total, size), 1)
	number = clamp(number, 1, last)
	switch dir {
	case Prev:
		if number > 1 {
			number--
		}
	case Next:
		if number < last {
			number++
		}
	}
	return number
}

func clamp(n, lo, hi int) int {
	if n < lo {
		return lo
	}
	if n > hi {
		return hi
	}
	return n
}
