// Package paginator splits an ordered result set into numbered pages.
package paginator

import (
	"errors"
	"strconv"
	"strings"
)

// PerPage is the page size of every listing.
const PerPage = 10

var (
	// ErrInvalidPage is returned for a page parameter that is not a positive integer.
	ErrInvalidPage = errors.New("page number is not a positive integer")
	// ErrEmptyPage is returned for a page past the last one.
	ErrEmptyPage = errors.New("page contains no results")
)

// Paginator knows the size of the result set, not the rows themselves.
type Paginator struct {
	Count   int64
	PerPage int
}

func New(count int64, perPage int) Paginator {
	if perPage <= 0 {
		perPage = PerPage
	}
	return Paginator{Count: count, PerPage: perPage}
}

// NumPages is never less than 1: an empty list still has an empty first page.
func (p Paginator) NumPages() int {
	if p.Count <= 0 {
		return 1
	}
	return int((p.Count + int64(p.PerPage) - 1) / int64(p.PerPage))
}

// Page validates the raw ?page= value. An empty value means page 1.
func (p Paginator) Page(raw string) (Page, error) {
	number := 1
	if raw = strings.TrimSpace(raw); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			return Page{}, ErrInvalidPage
		}
		number = n
	}
	if number > p.NumPages() {
		return Page{}, ErrEmptyPage
	}
	return Page{Number: number, paginator: p}, nil
}

// Page is one window of the result set.
type Page struct {
	Number    int
	paginator Paginator
}

func (pg Page) Offset() int         { return (pg.Number - 1) * pg.paginator.PerPage }
func (pg Page) Limit() int          { return pg.paginator.PerPage }
func (pg Page) Count() int64        { return pg.paginator.Count }
func (pg Page) NumPages() int       { return pg.paginator.NumPages() }
func (pg Page) HasPrevious() bool   { return pg.Number > 1 }
func (pg Page) HasNext() bool       { return pg.Number < pg.NumPages() }
func (pg Page) HasOtherPages() bool { return pg.HasPrevious() || pg.HasNext() }
func (pg Page) PreviousNumber() int { return pg.Number - 1 }
func (pg Page) NextNumber() int     { return pg.Number + 1 }

// PageRange lists the page numbers for the pager widget.
func (pg Page) PageRange() []int {
	n := pg.NumPages()
	pages := make([]int, n)
	for i := range pages {
		pages[i] = i + 1
	}
	return pages
}

// Result pairs a page with the rows fetched for it.
type Result[T any] struct {
	Page
	Items []T
}

// Len is handy in templates: {{ .Page.Len }}.
func (r Result[T]) Len() int { return len(r.Items) }
