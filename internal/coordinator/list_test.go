package coordinator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/paging"
)

type item struct {
	ID   int
	Name string
}

func pageOf(ids ...int) paging.Page[item] {
	items := make([]item, len(ids))
	for i, id := range ids {
		items[i] = item{ID: id, Name: fmt.Sprintf("item-%d", id)}
	}
	return paging.Page[item]{Items: items, Total: len(items), CurrentPage: 1, LastPage: 1, PerPage: len(items)}
}

func TestLoadPopulatesPage(t *testing.T) {
	fetch := func(ctx context.Context, params models.ListParams) (paging.Page[item], error) {
		return pageOf(1, 2, 3), nil
	}
	list := NewList(fetch, models.ListParams{}, nil)

	require.NoError(t, list.Load(context.Background()))
	require.False(t, list.Loading())
	require.Len(t, list.Page().Items, 3)
}

func TestStaleResponseDiscarded(t *testing.T) {
	firstStarted := make(chan struct{})
	release := make(chan struct{})
	var calls int
	var mu sync.Mutex

	fetch := func(ctx context.Context, params models.ListParams) (paging.Page[item], error) {
		mu.Lock()
		calls++
		call := calls
		mu.Unlock()
		if call == 1 {
			close(firstStarted)
			<-release
			return pageOf(1), nil // slow, superseded response
		}
		return pageOf(2), nil
	}
	list := NewList(fetch, models.ListParams{}, nil)

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		require.NoError(t, list.Load(context.Background()))
	}()

	<-firstStarted
	require.NoError(t, list.SetQuery(context.Background(), "beta"))
	close(release)
	wg.Wait()

	// The first response returned last but must not overwrite the second.
	page := list.Page()
	require.Len(t, page.Items, 1)
	require.Equal(t, 2, page.Items[0].ID)
	require.False(t, list.Loading())
}

func TestLoadErrorKeepsPreviousPage(t *testing.T) {
	var fail bool
	fetch := func(ctx context.Context, params models.ListParams) (paging.Page[item], error) {
		if fail {
			return paging.Page[item]{}, errors.New("backend down")
		}
		return pageOf(1, 2), nil
	}
	list := NewList(fetch, models.ListParams{}, nil)
	require.NoError(t, list.Load(context.Background()))

	fail = true
	require.Error(t, list.Refresh(context.Background()))
	require.Len(t, list.Page().Items, 2)
	require.False(t, list.Loading())
}

func TestSetQueryResetsToFirstPage(t *testing.T) {
	var gotParams models.ListParams
	fetch := func(ctx context.Context, params models.ListParams) (paging.Page[item], error) {
		gotParams = params
		return pageOf(), nil
	}
	list := NewList(fetch, models.ListParams{Page: 4, PerPage: 10}, nil)

	require.NoError(t, list.SetQuery(context.Background(), "acme"))
	require.Equal(t, 1, gotParams.Page)
	require.Equal(t, "acme", gotParams.Query)

	require.NoError(t, list.SetPage(context.Background(), 3))
	require.NoError(t, list.SetSort(context.Background(), "name"))
	require.Equal(t, 1, gotParams.Page)
	require.Equal(t, "name", gotParams.Sort)
}

func TestAfterDeleteStepsBackFromEmptiedPage(t *testing.T) {
	var gotPage int
	fetch := func(ctx context.Context, params models.ListParams) (paging.Page[item], error) {
		gotPage = params.Page
		page := pageOf(9)
		page.CurrentPage = params.Page
		return page, nil
	}
	list := NewList(fetch, models.ListParams{Page: 3, PerPage: 10}, nil)
	require.NoError(t, list.Load(context.Background()))
	require.Equal(t, 3, gotPage)

	// The page holds one item; deleting it must step back to page 2.
	require.NoError(t, list.AfterDelete(context.Background()))
	require.Equal(t, 2, gotPage)
}

func TestAfterDeleteStaysOnPopulatedPage(t *testing.T) {
	var gotPage int
	fetch := func(ctx context.Context, params models.ListParams) (paging.Page[item], error) {
		gotPage = params.Page
		page := pageOf(1, 2, 3)
		page.CurrentPage = params.Page
		return page, nil
	}
	list := NewList(fetch, models.ListParams{Page: 2, PerPage: 10}, nil)
	require.NoError(t, list.Load(context.Background()))

	require.NoError(t, list.AfterDelete(context.Background()))
	require.Equal(t, 2, gotPage)
}

func TestOnChangeFiresForAcceptedPages(t *testing.T) {
	fetch := func(ctx context.Context, params models.ListParams) (paging.Page[item], error) {
		return pageOf(1), nil
	}
	list := NewList(fetch, models.ListParams{}, nil)

	var notified int
	list.OnChange(func(paging.Page[item]) { notified++ })

	require.NoError(t, list.Load(context.Background()))
	require.NoError(t, list.Refresh(context.Background()))
	require.Equal(t, 2, notified)
}

func TestDetailLoadAndMerge(t *testing.T) {
	report := models.ServiceReport{ID: 5, Status: models.ReportDraft}
	fetch := func(ctx context.Context, id int) (models.ServiceReport, error) {
		require.Equal(t, 5, id)
		return report, nil
	}
	detail := NewDetail(5, fetch)

	_, loaded := detail.Entity()
	require.False(t, loaded)

	require.NoError(t, detail.Load(context.Background()))
	got, loaded := detail.Entity()
	require.True(t, loaded)
	require.Equal(t, models.ReportDraft, got.Status)

	updated := report
	updated.Status = models.ReportSubmitted
	detail.Merge(updated)
	got, _ = detail.Entity()
	require.Equal(t, models.ReportSubmitted, got.Status)
}

func TestReportActionsFollowWorkflow(t *testing.T) {
	draft := models.ServiceReport{Status: models.ReportDraft}
	require.Len(t, ReportActions(draft), 1)

	approved := models.ServiceReport{Status: models.ReportApproved}
	require.Empty(t, ReportActions(approved))
}

func TestVisitCompletableGuard(t *testing.T) {
	require.True(t, VisitCompletable(models.Visit{Status: models.VisitScheduled}))
	require.False(t, VisitCompletable(models.Visit{Status: models.VisitCompleted}))
}
