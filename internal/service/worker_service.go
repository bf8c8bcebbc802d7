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
)

const workersPath = "/workers"

// CreateWorkerRequest is the payload for creating a worker account.
type CreateWorkerRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role,omitempty"`
}

// UpdateWorkerRequest is the payload for updating a worker. The password
// pair is sent only when a new password is supplied.
type UpdateWorkerRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password,omitempty" validate:"omitempty,min=6"`
	PasswordConfirmation string `json:"password_confirmation,omitempty" validate:"eqfield=Password"`
	Role                 string `json:"role,omitempty"`
}

// WorkerService wraps the worker resource endpoints.
type WorkerService struct {
	api       api
	validator *validator.Validate
	logger    *zap.Logger
}

// NewWorkerService creates an instance of WorkerService.
func NewWorkerService(api api, validate *validator.Validate, logger *zap.Logger) *WorkerService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WorkerService{api: api, validator: validate, logger: logger}
}

// List returns a page of workers. The workers endpoint predates server-side
// search, so filtering and slicing happen locally whenever pagination
// metadata is missing.
func (s *WorkerService) List(ctx context.Context, params models.ListParams) (paging.Page[models.Worker], error) {
	var zero paging.Page[models.Worker]

	env, err := s.api.Do(ctx, http.MethodGet, workersPath, &transport.RequestOpts{Query: listQuery(params)})
	if err != nil {
		return zero, err
	}

	items, meta, err := envelope.Collection[models.Worker](env, "workers")
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode workers")
	}
	if meta != nil {
		return paging.FromMeta(items, meta, params), nil
	}
	return paging.Apply(items, params, workerSearchText), nil
}

// Get returns one worker by id.
func (s *WorkerService) Get(ctx context.Context, id int) (models.Worker, error) {
	if err := requireID(id, "worker"); err != nil {
		return models.Worker{}, err
	}
	env, err := s.api.Do(ctx, http.MethodGet, idPath(workersPath, id), nil)
	if err != nil {
		return models.Worker{}, err
	}
	return envelope.Entity[models.Worker](env, "worker")
}

// Create adds a worker. The role defaults to "worker" when unset.
func (s *WorkerService) Create(ctx context.Context, req CreateWorkerRequest) (models.Worker, string, error) {
	if req.Role == "" {
		req.Role = "worker"
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Worker{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid worker payload")
	}

	env, err := s.api.Do(ctx, http.MethodPost, workersPath, &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.Worker{}, "", err
	}

	worker, err := envelope.Entity[models.Worker](env, "worker")
	if err != nil {
		return models.Worker{}, "", err
	}
	return worker, message(env, "Worker created successfully"), nil
}

// Update modifies a worker, omitting the password pair unless changed.
func (s *WorkerService) Update(ctx context.Context, id int, req UpdateWorkerRequest) (models.Worker, string, error) {
	if err := requireID(id, "worker"); err != nil {
		return models.Worker{}, "", err
	}
	if req.Role == "" {
		req.Role = "worker"
	}
	if req.Password == "" {
		req.PasswordConfirmation = ""
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Worker{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid worker payload")
	}

	env, err := s.api.Do(ctx, http.MethodPut, idPath(workersPath, id), &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.Worker{}, "", err
	}

	worker, err := envelope.Entity[models.Worker](env, "worker")
	if err != nil {
		return models.Worker{}, "", err
	}
	return worker, message(env, "Worker updated successfully"), nil
}

// Delete removes a worker.
func (s *WorkerService) Delete(ctx context.Context, id int) (string, error) {
	if err := requireID(id, "worker"); err != nil {
		return "", err
	}
	env, err := s.api.Do(ctx, http.MethodDelete, idPath(workersPath, id), nil)
	if err != nil {
		return "", err
	}
	return message(env, "Worker deleted successfully"), nil
}

// Visits lists the visits assigned to one worker, with the same local
// pagination fallback as the worker list.
func (s *WorkerService) Visits(ctx context.Context, workerID int, params models.ListParams) (paging.Page[models.Visit], error) {
	var zero paging.Page[models.Visit]

	if err := requireID(workerID, "worker"); err != nil {
		return zero, err
	}

	env, err := s.api.Do(ctx, http.MethodGet, idPath(workersPath, workerID)+"/visits", &transport.RequestOpts{Query: listQuery(params)})
	if err != nil {
		return zero, err
	}

	items, meta, err := envelope.Collection[models.Visit](env, "visits")
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode worker visits")
	}
	if meta != nil {
		return paging.FromMeta(items, meta, params), nil
	}
	return paging.Apply(items, params, visitSearchText), nil
}

func workerSearchText(w models.Worker) string {
	return strings.Join([]string{w.Name, w.Email}, " ")
}
