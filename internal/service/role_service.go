package service

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/terzoomedia/hasad-go/internal/envelope"
	"github.com/terzoomedia/hasad-go/internal/models"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
)

// RoleService reads the role catalogue used by user and worker forms.
type RoleService struct {
	api    api
	logger *zap.Logger
}

// NewRoleService creates an instance of RoleService.
func NewRoleService(api api, logger *zap.Logger) *RoleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RoleService{api: api, logger: logger}
}

// List returns all roles. The endpoint is unpaginated.
func (s *RoleService) List(ctx context.Context) ([]models.Role, error) {
	env, err := s.api.Do(ctx, http.MethodGet, "/roles", nil)
	if err != nil {
		return nil, err
	}
	roles, _, err := envelope.Collection[models.Role](env, "roles")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode roles")
	}
	return roles, nil
}
