package service

import (
	"context"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/terzoomedia/hasad-go/internal/envelope"
	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/paging"
	"github.com/terzoomedia/hasad-go/internal/transport"
	"github.com/terzoomedia/hasad-go/internal/workflow"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
)

const visitsPath = "/visits"

const apiDateLayout = "2006-01-02"

// CreateVisitRequest is the payload for scheduling a visit.
type CreateVisitRequest struct {
	ClientID       int    `json:"client_id" validate:"required,gt=0"`
	AssignedUserID int    `json:"assigned_user_id" validate:"required,gt=0"`
	Service        string `json:"service" validate:"required"`
	Status         string `json:"status" validate:"required,oneof=scheduled in_progress completed cancelled"`
	ScheduledAt    string `json:"scheduled_at" validate:"required"`
	Notes          string `json:"notes,omitempty"`
}

// VisitService wraps the visit resource endpoints, including the schedule
// calendar and the one-way completion transition.
type VisitService struct {
	api       api
	validator *validator.Validate
	logger    *zap.Logger
}

// NewVisitService creates an instance of VisitService.
func NewVisitService(api api, validate *validator.Validate, logger *zap.Logger) *VisitService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VisitService{api: api, validator: validate, logger: logger}
}

// List returns a page of visits.
func (s *VisitService) List(ctx context.Context, params models.ListParams) (paging.Page[models.Visit], error) {
	var zero paging.Page[models.Visit]

	env, err := s.api.Do(ctx, http.MethodGet, visitsPath, &transport.RequestOpts{Query: listQuery(params)})
	if err != nil {
		return zero, err
	}

	items, meta, err := envelope.Collection[models.Visit](env, "visits")
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode visits")
	}
	if meta != nil {
		return paging.FromMeta(items, meta, params), nil
	}
	return paging.Apply(items, params, visitSearchText), nil
}

// Create schedules a visit.
func (s *VisitService) Create(ctx context.Context, req CreateVisitRequest) (models.Visit, string, error) {
	if req.Status == "" {
		req.Status = string(models.VisitScheduled)
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Visit{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid visit payload")
	}

	env, err := s.api.Do(ctx, http.MethodPost, visitsPath, &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.Visit{}, "", err
	}

	visit, err := envelope.Entity[models.Visit](env, "visit")
	if err != nil {
		return models.Visit{}, "", err
	}
	return visit, message(env, "Visit created successfully"), nil
}

// Calendar returns the visits between two dates as calendar events. Dates
// are validated and coerced to YYYY-MM-DD before the request goes out.
func (s *VisitService) Calendar(ctx context.Context, from, to string) ([]models.CalendarItem, error) {
	fromDate, err := toAPIDate(from)
	if err != nil {
		return nil, err
	}
	toDate, err := toAPIDate(to)
	if err != nil {
		return nil, err
	}

	query := url.Values{}
	query.Set("from", fromDate)
	query.Set("to", toDate)

	env, err := s.api.Do(ctx, http.MethodGet, visitsPath+"/calendar", &transport.RequestOpts{Query: query})
	if err != nil {
		return nil, err
	}

	items, _, err := envelope.Collection[models.CalendarItem](env, "calendar")
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode calendar")
	}
	return items, nil
}

// Complete marks a visit completed. Completing a visit that is already
// completed or cancelled is a local no-op: the guard returns the visit
// unchanged without any network call.
func (s *VisitService) Complete(ctx context.Context, visit models.Visit) (models.Visit, string, error) {
	if err := requireID(visit.ID, "visit"); err != nil {
		return visit, "", err
	}
	if !workflow.CompletableVisit(visit.Status) {
		return visit, "", nil
	}

	env, err := s.api.Do(ctx, http.MethodPost, idPath(visitsPath, visit.ID)+"/complete", nil)
	if err != nil {
		return visit, "", err
	}

	updated, err := envelope.Entity[models.Visit](env, "visit")
	if err != nil {
		return visit, "", err
	}
	return updated, message(env, "Visit marked as completed"), nil
}

// toAPIDate keeps valid YYYY-MM-DD values as-is and coerces any other
// parseable timestamp to the date-only form the calendar endpoint expects.
func toAPIDate(value string) (string, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return "", apperrors.Clone(apperrors.ErrValidation, "date is required")
	}

	if t, err := time.Parse(apiDateLayout, trimmed); err == nil {
		return t.Format(apiDateLayout), nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02T15:04"} {
		if t, err := time.Parse(layout, trimmed); err == nil {
			return t.Format(apiDateLayout), nil
		}
	}
	return "", apperrors.Clone(apperrors.ErrValidation, "invalid date format")
}

func visitSearchText(v models.Visit) string {
	return strings.Join([]string{v.Service, string(v.Status), v.ClientName}, " ")
}
