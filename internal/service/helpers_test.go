package service

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/terzoomedia/hasad-go/internal/session"
	"github.com/terzoomedia/hasad-go/internal/transport"
	"github.com/terzoomedia/hasad-go/pkg/config"
	"github.com/terzoomedia/hasad-go/pkg/storage"
)

// countingHandler wraps a handler and counts requests, so tests can assert
// that local guards short-circuit before any network traffic.
type countingHandler struct {
	calls   atomic.Int64
	handler http.Handler
}

func (c *countingHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c.calls.Add(1)
	c.handler.ServeHTTP(w, r)
}

func (c *countingHandler) Calls() int64 {
	return c.calls.Load()
}

func newTestBackend(t *testing.T, handler http.Handler) (*transport.Client, *countingHandler) {
	t.Helper()
	counter := &countingHandler{handler: handler}
	server := httptest.NewServer(counter)
	t.Cleanup(server.Close)

	sess := session.New("", time.Hour, nil)
	client, err := transport.New(config.APIConfig{BaseURL: server.URL + "/api/v1", Timeout: 5 * time.Second}, sess, nil)
	require.NoError(t, err)
	return client, counter
}

func newTestDownloads(t *testing.T) *storage.Downloads {
	t.Helper()
	downloads, err := storage.NewDownloads(t.TempDir())
	require.NoError(t, err)
	return downloads
}

func jsonResponse(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, err := w.Write([]byte(body))
	require.NoError(t, err)
}
