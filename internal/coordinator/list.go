// Package coordinator holds the per-screen view state: current page,
// filters, and the fetch lifecycle. Each coordinator owns its collection
// exclusively and guards against out-of-order responses with a
// monotonically increasing request token, so a slow early response can
// never overwrite a fresher one.
package coordinator

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/paging"
)

// Fetcher loads one page for the coordinator's resource.
type Fetcher[T any] func(ctx context.Context, params models.ListParams) (paging.Page[T], error)

// List drives fetch-on-mount, fetch-on-filter-change, and page adjustment
// after deletion for one list screen.
type List[T any] struct {
	mu       sync.Mutex
	fetch    Fetcher[T]
	params   models.ListParams
	page     paging.Page[T]
	loading  bool
	token    uint64
	cancel   context.CancelFunc
	onChange func(paging.Page[T])
	logger   *zap.Logger
}

// NewList builds a coordinator with default params.
func NewList[T any](fetch Fetcher[T], defaults models.ListParams, logger *zap.Logger) *List[T] {
	if defaults.Page < 1 {
		defaults.Page = 1
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &List[T]{fetch: fetch, params: defaults, logger: logger}
}

// OnChange registers a callback invoked with every accepted page.
func (l *List[T]) OnChange(fn func(paging.Page[T])) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.onChange = fn
}

// Load fetches the current params. Responses belonging to a superseded
// request are discarded: last write wins, keyed by request token. The
// loading flag always resolves, on success or failure.
func (l *List[T]) Load(ctx context.Context) error {
	l.mu.Lock()
	if l.cancel != nil {
		l.cancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	l.cancel = cancel
	l.token++
	token := l.token
	params := l.params
	l.loading = true
	l.mu.Unlock()

	page, err := l.fetch(fetchCtx, params)

	l.mu.Lock()
	defer l.mu.Unlock()

	if token != l.token {
		// A newer request owns the state now; this response is stale.
		l.logger.Debug("discarding stale list response")
		return nil
	}
	l.loading = false
	if err != nil {
		// Previously rendered data stays intact on failure.
		return err
	}

	l.page = page
	if l.onChange != nil {
		l.onChange(page)
	}
	return nil
}

// SetPage navigates to a page and refetches.
func (l *List[T]) SetPage(ctx context.Context, page int) error {
	l.mu.Lock()
	if page < 1 {
		page = 1
	}
	l.params.Page = page
	l.mu.Unlock()
	return l.Load(ctx)
}

// SetQuery applies a search term, resets to the first page, and refetches.
func (l *List[T]) SetQuery(ctx context.Context, query string) error {
	l.mu.Lock()
	l.params.Query = query
	l.params.Page = 1
	l.mu.Unlock()
	return l.Load(ctx)
}

// SetSort applies a sort key, resets to the first page, and refetches.
func (l *List[T]) SetSort(ctx context.Context, sort string) error {
	l.mu.Lock()
	l.params.Sort = sort
	l.params.Page = 1
	l.mu.Unlock()
	return l.Load(ctx)
}

// Refresh refetches with unchanged params.
func (l *List[T]) Refresh(ctx context.Context) error {
	return l.Load(ctx)
}

// AfterDelete refetches following a deletion, stepping back one page when
// the deletion emptied the current page so the view never lands on an
// out-of-range page.
func (l *List[T]) AfterDelete(ctx context.Context) error {
	l.mu.Lock()
	if len(l.page.Items) <= 1 && l.params.Page > 1 {
		l.params.Page--
	}
	l.mu.Unlock()
	return l.Load(ctx)
}

// Page returns the last accepted page.
func (l *List[T]) Page() paging.Page[T] {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.page
}

// Params returns the current list params.
func (l *List[T]) Params() models.ListParams {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.params
}

// Loading reports whether the latest request is still in flight.
func (l *List[T]) Loading() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.loading
}

// Close cancels any in-flight fetch, used when the owning view goes away.
func (l *List[T]) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.token++
}
