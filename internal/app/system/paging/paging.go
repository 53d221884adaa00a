// internal/app/system/paging/paging.go
package paging

import (
	"net/http"
	"strconv"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// DefaultPerPage is the page size used when the caller does not ask for one.
const DefaultPerPage = 10

// MaxPerPage caps per_page so a caller cannot pull whole collections in one
// request.
const MaxPerPage = 100

// Page is a parsed pagination request.
type Page struct {
	Page    int
	PerPage int
	SortBy  string
}

// Parse reads page, per_page, and sort_by from the query string, clamping
// them to sane values.
func Parse(r *http.Request) Page {
	p := Page{Page: 1, PerPage: DefaultPerPage}

	if n, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && n >= 1 {
		p.Page = n
	}
	if n, err := strconv.Atoi(r.URL.Query().Get("per_page")); err == nil && n >= 1 {
		if n > MaxPerPage {
			n = MaxPerPage
		}
		p.PerPage = n
	}
	p.SortBy = r.URL.Query().Get("sort_by")
	return p
}

// FindOptions builds the Mongo find options for this page: sort (requested
// field or date_created, newest first), skip, and limit+1 so the caller can
// detect a following page.
func (p Page) FindOptions() *options.FindOptions {
	sortField := p.SortBy
	if sortField == "" {
		sortField = "date_created"
	}
	return options.Find().
		SetSort(bson.D{{Key: sortField, Value: -1}}).
		SetSkip(int64((p.Page - 1) * p.PerPage)).
		SetLimit(int64(p.PerPage + 1))
}

// Trim cuts a limit+1 fetch down to the page size and reports whether a
// following page exists.
func Trim[T any](items []T, p Page) ([]T, bool) {
	if len(items) > p.PerPage {
		return items[:p.PerPage], true
	}
	return items, false
}

// Envelope is the list-response wrapper all collection endpoints share.
type Envelope[T any] struct {
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	HasNext bool `json:"has_next"`
	Docs    []T  `json:"docs"`
}

// Wrap builds the list envelope for a trimmed page.
func Wrap[T any](items []T, p Page, hasNext bool) Envelope[T] {
	if items == nil {
		items = []T{}
	}
	return Envelope[T]{Page: p.Page, PerPage: p.PerPage, HasNext: hasNext, Docs: items}
}
