package coordinator

import (
	"context"
	"sync"

	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/workflow"
)

// Detail holds one entity for a detail screen and merges updated copies
// returned by mutations. The same token discipline as List applies.
type Detail[T any] struct {
	mu     sync.Mutex
	fetch  func(ctx context.Context, id int) (T, error)
	id     int
	entity T
	loaded bool
	token  uint64
}

// NewDetail builds a detail coordinator for one entity id.
func NewDetail[T any](id int, fetch func(ctx context.Context, id int) (T, error)) *Detail[T] {
	return &Detail[T]{id: id, fetch: fetch}
}

// Load fetches the entity, discarding stale responses.
func (d *Detail[T]) Load(ctx context.Context) error {
	d.mu.Lock()
	d.token++
	token := d.token
	id := d.id
	d.mu.Unlock()

	entity, err := d.fetch(ctx, id)

	d.mu.Lock()
	defer d.mu.Unlock()
	if token != d.token {
		return nil
	}
	if err != nil {
		return err
	}
	d.entity = entity
	d.loaded = true
	return nil
}

// Merge replaces the held entity with a server-confirmed copy, as returned
// by a workflow transition or update.
func (d *Detail[T]) Merge(entity T) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.entity = entity
	d.loaded = true
	d.token++
}

// Entity returns the held entity and whether one has been loaded.
func (d *Detail[T]) Entity() (T, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.entity, d.loaded
}

// ReportActions returns the workflow operations currently allowed for a
// report. List rows and detail surfaces both call this; neither re-derives
// status booleans of its own.
func ReportActions(report models.ServiceReport) []workflow.Action {
	return workflow.AllowedActions(report.Status)
}

// VisitCompletable reports whether the complete affordance should be
// enabled for a visit.
func VisitCompletable(visit models.Visit) bool {
	return workflow.CompletableVisit(visit.Status)
}
