package transport

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terzoomedia/hasad-go/internal/session"
	"github.com/terzoomedia/hasad-go/pkg/config"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
)

func newTestClient(t *testing.T, handler http.Handler, opts ...Option) (*Client, *session.Store) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	sess := session.New("", time.Hour, nil)
	client, err := New(config.APIConfig{BaseURL: server.URL + "/api/v1", Timeout: 5 * time.Second}, sess, nil, opts...)
	require.NoError(t, err)
	return client, sess
}

func TestDoInjectsBearerAndRequestID(t *testing.T) {
	var gotAuth, gotRequestID, gotAccept string
	client, sess := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotRequestID = r.Header.Get("X-Request-ID")
		gotAccept = r.Header.Get("Accept")
		w.Write([]byte(`{"success":true,"data":[]}`)) //nolint:errcheck
	}))
	require.NoError(t, sess.Login("abc123", nil))

	_, err := client.Do(context.Background(), http.MethodGet, "/clients", nil)
	require.NoError(t, err)
	require.Equal(t, "Bearer abc123", gotAuth)
	require.NotEmpty(t, gotRequestID)
	require.Equal(t, "application/json", gotAccept)
}

func TestDoOmitsBearerWhenLoggedOut(t *testing.T) {
	var gotAuth string
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Write([]byte(`{"success":true}`)) //nolint:errcheck
	}))

	_, err := client.Do(context.Background(), http.MethodGet, "/roles", nil)
	require.NoError(t, err)
	require.Empty(t, gotAuth)
}

func TestUnauthorizedClearsSessionAndFiresHook(t *testing.T) {
	hookFired := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"success":false,"message":"Unauthenticated."}`)) //nolint:errcheck
	})
	client, sess := newTestClient(t, handler, WithAuthExpiredHook(func() { hookFired = true }))
	require.NoError(t, sess.Login("stale", nil))

	_, err := client.Do(context.Background(), http.MethodGet, "/clients", nil)
	require.Error(t, err)

	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrUnauthorized.Code, appErr.Code)
	require.Equal(t, "Unauthenticated.", appErr.Message)
	require.False(t, sess.Authenticated())
	require.True(t, hookFired)
}

func TestUnauthorizedWhileLoggedOutDoesNotFireHook(t *testing.T) {
	hookFired := false
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})
	client, _ := newTestClient(t, handler, WithAuthExpiredHook(func() { hookFired = true }))

	_, err := client.Do(context.Background(), http.MethodGet, "/clients", nil)
	require.Error(t, err)
	require.False(t, hookFired)
}

func TestNotFoundMapsToTypedError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"message":"Client not found"}`)) //nolint:errcheck
	}))

	_, err := client.Do(context.Background(), http.MethodGet, "/clients/99", nil)
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrNotFound.Code, appErr.Code)
	require.Equal(t, "Client not found", appErr.Message)
}

func TestUnprocessableCarriesFieldMapAndFlattenedMessage(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		w.Write([]byte(`{"success":false,"errors":{"email":["The email has already been taken."],"name":["The name field is required."]}}`)) //nolint:errcheck
	}))

	_, err := client.Do(context.Background(), http.MethodPost, "/clients", &RequestOpts{JSON: map[string]string{}})
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrUnprocessable.Code, appErr.Code)
	require.Equal(t, []string{"The email has already been taken."}, appErr.Fields["email"])
	require.Equal(t, "The email has already been taken., The name field is required.", appErr.Message)
}

func TestUnexpectedStatusKeepsStatusCode(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))

	_, err := client.Do(context.Background(), http.MethodGet, "/clients", nil)
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, apperrors.ErrTransport.Code, appErr.Code)
	require.Equal(t, http.StatusBadGateway, appErr.Status)
}

func TestDownloadExtractsDispositionFilename(t *testing.T) {
	payload := []byte("id,name\n1,Acme\n")
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", `attachment; filename="clients.csv"`)
		w.Write(payload) //nolint:errcheck
	}))

	blob, err := client.Download(context.Background(), "/clients/export/csv", nil)
	require.NoError(t, err)
	require.Equal(t, "clients.csv", blob.Filename)
	require.Equal(t, payload, blob.Data)
	require.Equal(t, "text/csv", blob.ContentType)
}

func TestDownloadFailureReturnsTypedError(t *testing.T) {
	client, _ := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"Export failed"}`)) //nolint:errcheck
	}))

	blob, err := client.Download(context.Background(), "/clients/export/csv", nil)
	require.Nil(t, blob)
	var appErr *apperrors.Error
	require.True(t, errors.As(err, &appErr))
	require.Equal(t, "Export failed", appErr.Message)
}

func TestDispositionFilename(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{`attachment; filename="report.pdf"`, "report.pdf"},
		{`attachment; filename*=UTF-8''%D8%AA%D9%82%D8%B1%D9%8A%D8%B1.pdf`, "تقرير.pdf"},
		{"", ""},
		{"attachment", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, dispositionFilename(tc.header), "header %q", tc.header)
	}
}
