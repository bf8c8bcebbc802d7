package service

import (
	"context"
	"io"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terzoomedia/hasad-go/internal/models"
)

func TestVisitCompleteIsIdempotentLocally(t *testing.T) {
	api, counter := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	svc := NewVisitService(api, nil, nil)

	for _, status := range []models.VisitStatus{models.VisitCompleted, models.VisitCancelled} {
		visit := models.Visit{ID: 3, Status: status}
		updated, msg, err := svc.Complete(context.Background(), visit)
		require.NoError(t, err)
		require.Empty(t, msg)
		require.Equal(t, visit, updated)
	}
	require.Equal(t, int64(0), counter.Calls())
}

func TestVisitCompletePostsForOpenVisit(t *testing.T) {
	api, counter := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/api/v1/visits/3/complete", r.URL.Path)
		jsonResponse(t, w, http.StatusOK, `{"success":true,"message":"Visit marked as completed","data":{"visit":{"id":3,"status":"completed"}}}`)
	}))
	svc := NewVisitService(api, nil, nil)

	updated, msg, err := svc.Complete(context.Background(), models.Visit{ID: 3, Status: models.VisitInProgress})
	require.NoError(t, err)
	require.Equal(t, "Visit marked as completed", msg)
	require.Equal(t, models.VisitCompleted, updated.Status)
	require.Equal(t, int64(1), counter.Calls())
}

func TestVisitCreateDefaultsToScheduled(t *testing.T) {
	var gotBody []byte
	api, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		jsonResponse(t, w, http.StatusCreated, `{"success":true,"data":{"visit":{"id":8,"status":"scheduled"}}}`)
	}))
	svc := NewVisitService(api, nil, nil)

	_, _, err := svc.Create(context.Background(), CreateVisitRequest{
		ClientID:       1,
		AssignedUserID: 2,
		Service:        "Irrigation check",
		ScheduledAt:    "2026-09-01 09:00:00",
	})
	require.NoError(t, err)
	require.Contains(t, string(gotBody), `"status":"scheduled"`)
}

func TestVisitCreateRejectsUnknownStatus(t *testing.T) {
	api, counter := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	svc := NewVisitService(api, nil, nil)

	_, _, err := svc.Create(context.Background(), CreateVisitRequest{
		ClientID:       1,
		AssignedUserID: 2,
		Service:        "Irrigation check",
		Status:         "paused",
		ScheduledAt:    "2026-09-01 09:00:00",
	})
	require.Error(t, err)
	require.Equal(t, int64(0), counter.Calls())
}

func TestCalendarCoercesDates(t *testing.T) {
	api, _ := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "2026-08-01", r.URL.Query().Get("from"))
		require.Equal(t, "2026-08-31", r.URL.Query().Get("to"))
		jsonResponse(t, w, http.StatusOK, `{"success":true,"data":[{"id":1,"title":"Acme visit","start":"2026-08-05"}]}`)
	}))
	svc := NewVisitService(api, nil, nil)

	items, err := svc.Calendar(context.Background(), "2026-08-01T00:00:00Z", "2026-08-31")
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, "Acme visit", items[0].Title)
}

func TestCalendarRejectsBadDates(t *testing.T) {
	api, counter := newTestBackend(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	svc := NewVisitService(api, nil, nil)

	_, err := svc.Calendar(context.Background(), "", "2026-08-31")
	require.EqualError(t, err, "date is required")

	_, err = svc.Calendar(context.Background(), "next tuesday", "2026-08-31")
	require.EqualError(t, err, "invalid date format")

	require.Equal(t, int64(0), counter.Calls())
}
