package paging

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terzoomedia/hasad-go/internal/models"
)

type row struct {
	ID   int
	Name string
}

func rows(n int) []row {
	out := make([]row, n)
	for i := range out {
		out[i] = row{ID: i + 1, Name: fmt.Sprintf("item-%02d", i+1)}
	}
	return out
}

func rowText(r row) string { return r.Name }

func TestFromMetaHonoursServerMetadata(t *testing.T) {
	meta := &models.Pagination{CurrentPage: 2, LastPage: 5, PerPage: 10, Total: 48}
	page := FromMeta(rows(10), meta, models.ListParams{Page: 2, PerPage: 10})

	require.Equal(t, 48, page.Total)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 5, page.LastPage)
	require.Equal(t, 10, page.PerPage)
	require.Len(t, page.Items, 10)
}

func TestFromMetaClampsOutOfRangeCurrent(t *testing.T) {
	meta := &models.Pagination{CurrentPage: 9, LastPage: 3, PerPage: 10, Total: 25}
	page := FromMeta(rows(5), meta, models.ListParams{})
	require.Equal(t, 3, page.CurrentPage)
}

func TestFromMetaTotalNeverBelowItemCount(t *testing.T) {
	meta := &models.Pagination{CurrentPage: 1, LastPage: 1, PerPage: 10, Total: 2}
	page := FromMeta(rows(5), meta, models.ListParams{})
	require.Equal(t, 5, page.Total)
}

func TestApplyNoPerPageIsSinglePage(t *testing.T) {
	page := Apply(rows(7), models.ListParams{}, rowText)

	require.Equal(t, 7, page.Total)
	require.Equal(t, 1, page.CurrentPage)
	require.Equal(t, 1, page.LastPage)
	require.Len(t, page.Items, 7)
}

func TestApplySlicesToRequestedPage(t *testing.T) {
	page := Apply(rows(25), models.ListParams{Page: 3, PerPage: 10}, rowText)

	require.Equal(t, 25, page.Total)
	require.Equal(t, 3, page.CurrentPage)
	require.Equal(t, 3, page.LastPage)
	require.Len(t, page.Items, 5)
	require.Equal(t, 21, page.Items[0].ID)
}

func TestApplyFiltersCaseInsensitively(t *testing.T) {
	items := []row{{1, "Alpha Pump"}, {2, "beta valve"}, {3, "ALPHA motor"}}
	page := Apply(items, models.ListParams{Query: "  alpha "}, rowText)

	require.Equal(t, 2, page.Total)
	require.Len(t, page.Items, 2)
}

func TestApplyFilterThenSlice(t *testing.T) {
	items := make([]row, 0, 30)
	for i := 1; i <= 30; i++ {
		name := fmt.Sprintf("other-%02d", i)
		if i%2 == 0 {
			name = fmt.Sprintf("match-%02d", i)
		}
		items = append(items, row{ID: i, Name: name})
	}

	page := Apply(items, models.ListParams{Query: "match", Page: 2, PerPage: 10}, rowText)
	require.Equal(t, 15, page.Total)
	require.Equal(t, 2, page.CurrentPage)
	require.Equal(t, 2, page.LastPage)
	require.Len(t, page.Items, 5)
}

func TestApplyClampsPageBeyondLast(t *testing.T) {
	page := Apply(rows(10), models.ListParams{Page: 99, PerPage: 5}, rowText)
	require.Equal(t, 2, page.CurrentPage)
	require.Len(t, page.Items, 5)
}

func TestApplyEmptyResultStillValidPage(t *testing.T) {
	page := Apply(rows(5), models.ListParams{Query: "nomatch", PerPage: 10}, rowText)
	require.Equal(t, 0, page.Total)
	require.Equal(t, 1, page.CurrentPage)
	require.Equal(t, 1, page.LastPage)
	require.NotNil(t, page.Items)
	require.Empty(t, page.Items)
}
