// Package paging implements the pagination contract shared by every
// resource list: a normalised page plus the client-side filter/slice
// fallback used when the backend returns an unpaginated collection.
package paging

import (
	"strings"

	"github.com/terzoomedia/hasad-go/internal/models"
)

// Page is a normalised page of entities plus paging metadata, uniform
// across resources. Pages are constructed fresh on every list request and
// never mutated in place.
type Page[T any] struct {
	Items       []T `json:"items"`
	Total       int `json:"total"`
	CurrentPage int `json:"current_page"`
	LastPage    int `json:"last_page"`
	PerPage     int `json:"per_page"`
}

// FromMeta builds a page from a server-paginated response. The backend
// already filtered and sliced; the metadata is taken as authoritative with
// in-range clamping.
func FromMeta[T any](items []T, meta *models.Pagination, params models.ListParams) Page[T] {
	if items == nil {
		items = []T{}
	}

	total := meta.Total
	if total < len(items) {
		total = len(items)
	}
	lastPage := meta.LastPage
	if lastPage < 1 {
		lastPage = 1
	}
	current := meta.CurrentPage
	if current < 1 {
		current = firstNonZero(params.Page, 1)
	}
	if current > lastPage {
		current = lastPage
	}

	return Page[T]{
		Items:       items,
		Total:       total,
		CurrentPage: current,
		LastPage:    lastPage,
		PerPage:     firstNonZero(meta.PerPage, params.PerPage, len(items)),
	}
}

// Apply reproduces the server contract locally for endpoints that return the
// full collection without pagination metadata: a case-insensitive substring
// filter over the searchable text of each item, then a slice to the
// requested page. With no requested page size the whole result set forms a
// single page, matching what the backend omission implies.
func Apply[T any](items []T, params models.ListParams, searchText func(T) string) Page[T] {
	filtered := items
	query := strings.ToLower(strings.TrimSpace(params.Query))
	if query != "" && searchText != nil {
		filtered = make([]T, 0, len(items))
		for _, item := range items {
			if strings.Contains(strings.ToLower(searchText(item)), query) {
				filtered = append(filtered, item)
			}
		}
	}
	if filtered == nil {
		filtered = []T{}
	}

	total := len(filtered)
	perPage := params.PerPage
	if perPage <= 0 {
		perPage = total
	}

	lastPage := 1
	if perPage > 0 {
		lastPage = (total + perPage - 1) / perPage
		if lastPage < 1 {
			lastPage = 1
		}
	}

	current := params.Page
	if current < 1 {
		current = 1
	}
	if current > lastPage {
		current = lastPage
	}

	start := (current - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if perPage <= 0 || end > total {
		end = total
	}

	return Page[T]{
		Items:       filtered[start:end],
		Total:       total,
		CurrentPage: current,
		LastPage:    lastPage,
		PerPage:     firstNonZero(perPage, total),
	}
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v > 0 {
			return v
		}
	}
	return 0
}
