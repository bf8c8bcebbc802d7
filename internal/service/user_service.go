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

const usersPath = "/users"

// CreateUserRequest is the payload for creating a dashboard user. Role is a
// role name such as Admin or Technician.
type CreateUserRequest struct {
	Name                 string `json:"name" validate:"required"`
	Email                string `json:"email" validate:"required,email"`
	Password             string `json:"password" validate:"required,min=6"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Role                 string `json:"role" validate:"required"`
}

// UpdateUserRequest is the payload for updating a user; empty fields are
// omitted from the request.
type UpdateUserRequest struct {
	Name                 string `json:"name,omitempty"`
	Email                string `json:"email,omitempty" validate:"omitempty,email"`
	Password             string `json:"password,omitempty" validate:"omitempty,min=6"`
	PasswordConfirmation string `json:"password_confirmation,omitempty" validate:"eqfield=Password"`
	Role                 string `json:"role,omitempty"`
}

// UserService wraps the user resource endpoints. Users arrive nested under
// data.users on this backend.
type UserService struct {
	api       api
	validator *validator.Validate
	downloads *storage.Downloads
	logger    *zap.Logger
}

// NewUserService creates an instance of UserService.
func NewUserService(api api, validate *validator.Validate, downloads *storage.Downloads, logger *zap.Logger) *UserService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{api: api, validator: validate, downloads: downloads, logger: logger}
}

// List returns a page of users with the shared pagination fallback.
func (s *UserService) List(ctx context.Context, params models.ListParams) (paging.Page[models.User], error) {
	var zero paging.Page[models.User]

	env, err := s.api.Do(ctx, http.MethodGet, usersPath, &transport.RequestOpts{Query: listQuery(params)})
	if err != nil {
		return zero, err
	}

	items, meta, err := envelope.Collection[models.User](env, "users")
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode users")
	}
	if meta != nil {
		return paging.FromMeta(items, meta, params), nil
	}
	return paging.Apply(items, params, userSearchText), nil
}

// Get returns one user by id.
func (s *UserService) Get(ctx context.Context, id int) (models.User, error) {
	if err := requireID(id, "user"); err != nil {
		return models.User{}, err
	}
	env, err := s.api.Do(ctx, http.MethodGet, idPath(usersPath, id), nil)
	if err != nil {
		return models.User{}, err
	}
	return envelope.Entity[models.User](env, "user")
}

// Create adds a user.
func (s *UserService) Create(ctx context.Context, req CreateUserRequest) (models.User, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.User{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid user payload")
	}

	env, err := s.api.Do(ctx, http.MethodPost, usersPath, &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.User{}, "", err
	}

	user, err := envelope.Entity[models.User](env, "user")
	if err != nil {
		return models.User{}, "", err
	}
	return user, message(env, "User created successfully"), nil
}

// Update modifies a user.
func (s *UserService) Update(ctx context.Context, id int, req UpdateUserRequest) (models.User, string, error) {
	if err := requireID(id, "user"); err != nil {
		return models.User{}, "", err
	}
	if req.Password == "" {
		req.PasswordConfirmation = ""
	}
	if err := s.validator.Struct(req); err != nil {
		return models.User{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid user payload")
	}

	env, err := s.api.Do(ctx, http.MethodPut, idPath(usersPath, id), &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.User{}, "", err
	}

	user, err := envelope.Entity[models.User](env, "user")
	if err != nil {
		return models.User{}, "", err
	}
	return user, message(env, "User updated successfully"), nil
}

// Delete removes a user.
func (s *UserService) Delete(ctx context.Context, id int) (string, error) {
	if err := requireID(id, "user"); err != nil {
		return "", err
	}
	env, err := s.api.Do(ctx, http.MethodDelete, idPath(usersPath, id), nil)
	if err != nil {
		return "", err
	}
	return message(env, "User deleted successfully"), nil
}

// ExportCSV downloads the users CSV export and returns the saved path.
func (s *UserService) ExportCSV(ctx context.Context) (string, error) {
	blob, err := s.api.Download(ctx, usersPath+"/export/csv", nil)
	if err != nil {
		return "", err
	}
	return s.downloads.Save(blob.Filename, "users-export", ".csv", blob.Data)
}

func userSearchText(u models.User) string {
	return strings.Join([]string{u.Name, u.Email}, " ")
}
