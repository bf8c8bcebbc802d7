// Package service exposes one module per backend resource. Every service
// normalises the backend's response shapes through internal/envelope,
// reproduces the pagination contract through internal/paging, and validates
// inputs before any network call.
package service

import (
	"context"
	"net/url"
	"strconv"

	"github.com/terzoomedia/hasad-go/internal/envelope"
	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/transport"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
)

// api is the outbound surface the services consume, implemented by
// transport.Client.
type api interface {
	Do(ctx context.Context, method, path string, opts *transport.RequestOpts) (*envelope.Envelope, error)
	Download(ctx context.Context, path string, query url.Values) (*transport.Blob, error)
}

// requireID rejects non-positive identifiers before they reach the network.
func requireID(id int, what string) error {
	if id <= 0 {
		return apperrors.Clone(apperrors.ErrValidation, "invalid "+what+" id")
	}
	return nil
}

// idPath joins a resource path with a validated numeric id.
func idPath(resource string, id int) string {
	return resource + "/" + strconv.Itoa(id)
}

// listQuery renders ListParams into query values. Search and sort pass
// through verbatim; zero values are omitted.
func listQuery(params models.ListParams) url.Values {
	q := url.Values{}
	if params.Page > 0 {
		q.Set("page", strconv.Itoa(params.Page))
	}
	if params.PerPage > 0 {
		q.Set("per_page", strconv.Itoa(params.PerPage))
	}
	if params.Query != "" {
		q.Set("q", params.Query)
	}
	if params.Sort != "" {
		q.Set("sort", params.Sort)
	}
	return q
}

// message picks the backend's success message or a default.
func message(env *envelope.Envelope, fallback string) string {
	if env != nil && env.Message != "" {
		return env.Message
	}
	return fallback
}
