package service

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/terzoomedia/hasad-go/internal/envelope"
	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/paging"
	"github.com/terzoomedia/hasad-go/internal/transport"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
	"github.com/terzoomedia/hasad-go/pkg/storage"
)

const clientsPath = "/clients"

// CreateClientRequest is the payload for creating a client.
type CreateClientRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// UpdateClientRequest is the payload for updating a client.
type UpdateClientRequest struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone" validate:"required"`
	Address string `json:"address,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	ZipCode string `json:"zip_code,omitempty"`
	Notes   string `json:"notes,omitempty"`
}

// ClientService wraps the client resource endpoints.
type ClientService struct {
	api       api
	validator *validator.Validate
	downloads *storage.Downloads
	logger    *zap.Logger
}

// NewClientService creates an instance of ClientService.
func NewClientService(api api, validate *validator.Validate, downloads *storage.Downloads, logger *zap.Logger) *ClientService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClientService{api: api, validator: validate, downloads: downloads, logger: logger}
}

// List returns a page of clients, falling back to client-side filtering and
// slicing when the backend omits pagination metadata.
func (s *ClientService) List(ctx context.Context, params models.ListParams) (paging.Page[models.Client], error) {
	var zero paging.Page[models.Client]

	env, err := s.api.Do(ctx, http.MethodGet, clientsPath, &transport.RequestOpts{Query: listQuery(params)})
	if err != nil {
		return zero, err
	}

	items, meta, err := envelope.Collection[models.Client](env, "clients")
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode clients")
	}
	if meta != nil {
		return paging.FromMeta(items, meta, params), nil
	}
	return paging.Apply(items, params, clientSearchText), nil
}

// Get returns one client by id.
func (s *ClientService) Get(ctx context.Context, id int) (models.Client, error) {
	if err := requireID(id, "client"); err != nil {
		return models.Client{}, err
	}
	env, err := s.api.Do(ctx, http.MethodGet, idPath(clientsPath, id), nil)
	if err != nil {
		return models.Client{}, err
	}
	return envelope.Entity[models.Client](env, "client")
}

// Create adds a client and returns it with the backend's success message.
func (s *ClientService) Create(ctx context.Context, req CreateClientRequest) (models.Client, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Client{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid client payload")
	}

	env, err := s.api.Do(ctx, http.MethodPost, clientsPath, &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.Client{}, "", err
	}

	client, err := envelope.Entity[models.Client](env, "client")
	if err != nil {
		return models.Client{}, "", err
	}
	return client, message(env, "Client created successfully"), nil
}

// Update modifies a client.
func (s *ClientService) Update(ctx context.Context, id int, req UpdateClientRequest) (models.Client, string, error) {
	if err := requireID(id, "client"); err != nil {
		return models.Client{}, "", err
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Client{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid client payload")
	}

	env, err := s.api.Do(ctx, http.MethodPut, idPath(clientsPath, id), &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.Client{}, "", err
	}

	client, err := envelope.Entity[models.Client](env, "client")
	if err != nil {
		return models.Client{}, "", err
	}
	return client, message(env, "Client updated successfully"), nil
}

// Delete removes a client. Failures propagate to the caller.
func (s *ClientService) Delete(ctx context.Context, id int) (string, error) {
	if err := requireID(id, "client"); err != nil {
		return "", err
	}
	env, err := s.api.Do(ctx, http.MethodDelete, idPath(clientsPath, id), nil)
	if err != nil {
		return "", err
	}
	return message(env, "Client deleted successfully"), nil
}

// ExportCSV downloads the backend's CSV export into the downloads directory
// and returns the saved path. A failed download writes nothing.
func (s *ClientService) ExportCSV(ctx context.Context) (string, error) {
	blob, err := s.api.Download(ctx, clientsPath+"/export/csv", nil)
	if err != nil {
		return "", err
	}
	return s.downloads.Save(blob.Filename, "clients-export", ".csv", blob.Data)
}

func clientSearchText(c models.Client) string {
	return strings.Join([]string{c.Name, c.Email, c.Phone, c.CompanyName}, " ")
}
