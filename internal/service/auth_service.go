package service

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/session"
	"github.com/terzoomedia/hasad-go/internal/transport"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
)

// LoginRequest carries the login form fields.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

// AuthService performs login and logout against the session store. Token
// issuance is entirely the backend's; this side only consumes the result.
type AuthService struct {
	api       api
	session   *session.Store
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService creates an instance of AuthService.
func NewAuthService(api api, sess *session.Store, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{api: api, session: sess, validator: validate, logger: logger}
}

// Login authenticates and persists the returned credentials as the single
// source of truth for subsequent requests.
func (s *AuthService) Login(ctx context.Context, req LoginRequest) (*models.User, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid login payload")
	}

	env, err := s.api.Do(ctx, http.MethodPost, "/auth/login", &transport.RequestOpts{JSON: req})
	if err != nil {
		return nil, "", err
	}

	var payload struct {
		Token string       `json:"token"`
		User  *models.User `json:"user"`
	}
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &payload); err != nil {
			return nil, "", apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode login response")
		}
	}
	if payload.Token == "" {
		return nil, "", apperrors.Clone(apperrors.ErrMissingEntity, "token not found in response")
	}

	if err := s.session.Login(payload.Token, payload.User); err != nil {
		s.logger.Warn("failed to persist credentials", zap.Error(err))
	}
	return payload.User, message(env, "Logged in successfully"), nil
}

// Logout clears the session locally. The backend keeps no session state to
// invalidate.
func (s *AuthService) Logout() {
	s.session.Logout()
}
