package service

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
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

const (
	vehiclesPath    = "/vehicles"
	vehicleLogsPath = "/vehicle-logs"
)

// CreateVehicleRequest is the payload for registering a vehicle.
type CreateVehicleRequest struct {
	Name           string `json:"name" validate:"required"`
	PlateNumber    string `json:"plate_number" validate:"required"`
	AssignedUserID int    `json:"assigned_user_id" validate:"required,gt=0"`
}

// UpdateVehicleRequest is the payload for updating a vehicle; zero fields
// are omitted.
type UpdateVehicleRequest struct {
	Name           string `json:"name,omitempty"`
	PlateNumber    string `json:"plate_number,omitempty"`
	AssignedUserID int    `json:"assigned_user_id,omitempty" validate:"omitempty,gt=0"`
}

// CreateVehicleLogRequest is the payload for a monthly vehicle log entry.
type CreateVehicleLogRequest struct {
	VehicleID       int     `json:"vehicle_id" validate:"required,gt=0"`
	Month           string  `json:"month" validate:"required"`
	Kilometers      float64 `json:"kilometers" validate:"gte=0"`
	FuelLiters      float64 `json:"fuel_liters" validate:"gte=0"`
	MaintenanceCost float64 `json:"maintenance_cost" validate:"gte=0"`
	Notes           string  `json:"notes,omitempty"`
}

// UpdateVehicleLogRequest is the payload for updating a log entry.
type UpdateVehicleLogRequest struct {
	VehicleID       int      `json:"vehicle_id,omitempty" validate:"omitempty,gt=0"`
	Month           string   `json:"month,omitempty"`
	Kilometers      *float64 `json:"kilometers,omitempty" validate:"omitempty,gte=0"`
	FuelLiters      *float64 `json:"fuel_liters,omitempty" validate:"omitempty,gte=0"`
	MaintenanceCost *float64 `json:"maintenance_cost,omitempty" validate:"omitempty,gte=0"`
	Notes           string   `json:"notes,omitempty"`
}

// VehicleService wraps the vehicle and vehicle-log resource endpoints.
type VehicleService struct {
	api       api
	validator *validator.Validate
	downloads *storage.Downloads
	logger    *zap.Logger
}

// NewVehicleService creates an instance of VehicleService.
func NewVehicleService(api api, validate *validator.Validate, downloads *storage.Downloads, logger *zap.Logger) *VehicleService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &VehicleService{api: api, validator: validate, downloads: downloads, logger: logger}
}

// List returns a page of vehicles.
func (s *VehicleService) List(ctx context.Context, params models.ListParams) (paging.Page[models.Vehicle], error) {
	var zero paging.Page[models.Vehicle]

	env, err := s.api.Do(ctx, http.MethodGet, vehiclesPath, &transport.RequestOpts{Query: listQuery(params)})
	if err != nil {
		return zero, err
	}

	items, meta, err := envelope.Collection[models.Vehicle](env, "vehicles")
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode vehicles")
	}
	if meta != nil {
		return paging.FromMeta(items, meta, params), nil
	}
	return paging.Apply(items, params, vehicleSearchText), nil
}

// Get returns one vehicle by id.
func (s *VehicleService) Get(ctx context.Context, id int) (models.Vehicle, error) {
	if err := requireID(id, "vehicle"); err != nil {
		return models.Vehicle{}, err
	}
	env, err := s.api.Do(ctx, http.MethodGet, idPath(vehiclesPath, id), nil)
	if err != nil {
		return models.Vehicle{}, err
	}
	return envelope.Entity[models.Vehicle](env, "vehicle")
}

// Create registers a vehicle.
func (s *VehicleService) Create(ctx context.Context, req CreateVehicleRequest) (models.Vehicle, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.Vehicle{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid vehicle payload")
	}

	env, err := s.api.Do(ctx, http.MethodPost, vehiclesPath, &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.Vehicle{}, "", err
	}

	vehicle, err := envelope.Entity[models.Vehicle](env, "vehicle")
	if err != nil {
		return models.Vehicle{}, "", err
	}
	return vehicle, message(env, "Vehicle created successfully"), nil
}

// Update modifies a vehicle.
func (s *VehicleService) Update(ctx context.Context, id int, req UpdateVehicleRequest) (models.Vehicle, string, error) {
	if err := requireID(id, "vehicle"); err != nil {
		return models.Vehicle{}, "", err
	}
	if err := s.validator.Struct(req); err != nil {
		return models.Vehicle{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid vehicle payload")
	}

	env, err := s.api.Do(ctx, http.MethodPut, idPath(vehiclesPath, id), &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.Vehicle{}, "", err
	}

	vehicle, err := envelope.Entity[models.Vehicle](env, "vehicle")
	if err != nil {
		return models.Vehicle{}, "", err
	}
	return vehicle, message(env, "Vehicle updated successfully"), nil
}

// Delete removes a vehicle.
func (s *VehicleService) Delete(ctx context.Context, id int) (string, error) {
	if err := requireID(id, "vehicle"); err != nil {
		return "", err
	}
	env, err := s.api.Do(ctx, http.MethodDelete, idPath(vehiclesPath, id), nil)
	if err != nil {
		return "", err
	}
	return message(env, "Vehicle deleted successfully"), nil
}

// ExportCSV downloads the vehicles CSV export.
func (s *VehicleService) ExportCSV(ctx context.Context) (string, error) {
	blob, err := s.api.Download(ctx, vehiclesPath+"/export/csv", nil)
	if err != nil {
		return "", err
	}
	return s.downloads.Save(blob.Filename, "vehicles-export", ".csv", blob.Data)
}

// ListLogs returns a page of vehicle logs, optionally filtered to one
// vehicle.
func (s *VehicleService) ListLogs(ctx context.Context, vehicleID int, params models.ListParams) (paging.Page[models.VehicleLog], error) {
	var zero paging.Page[models.VehicleLog]

	query := listQuery(params)
	if vehicleID > 0 {
		query.Set("vehicle_id", strconv.Itoa(vehicleID))
	}

	env, err := s.api.Do(ctx, http.MethodGet, vehicleLogsPath, &transport.RequestOpts{Query: query})
	if err != nil {
		return zero, err
	}

	items, meta, err := envelope.Collection[models.VehicleLog](env, "vehicle_logs")
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode vehicle logs")
	}
	if meta != nil {
		return paging.FromMeta(items, meta, params), nil
	}
	return paging.Apply(items, params, vehicleLogSearchText), nil
}

// GetLog returns one vehicle log entry.
func (s *VehicleService) GetLog(ctx context.Context, id int) (models.VehicleLog, error) {
	if err := requireID(id, "vehicle log"); err != nil {
		return models.VehicleLog{}, err
	}
	env, err := s.api.Do(ctx, http.MethodGet, idPath(vehicleLogsPath, id), nil)
	if err != nil {
		return models.VehicleLog{}, err
	}
	return envelope.Entity[models.VehicleLog](env, "vehicle_log")
}

// CreateLog records a monthly vehicle log entry.
func (s *VehicleService) CreateLog(ctx context.Context, req CreateVehicleLogRequest) (models.VehicleLog, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.VehicleLog{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid vehicle log payload")
	}

	env, err := s.api.Do(ctx, http.MethodPost, vehicleLogsPath, &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.VehicleLog{}, "", err
	}

	log, err := envelope.Entity[models.VehicleLog](env, "vehicle_log")
	if err != nil {
		return models.VehicleLog{}, "", err
	}
	return log, message(env, "Vehicle log created successfully"), nil
}

// UpdateLog modifies a vehicle log entry.
func (s *VehicleService) UpdateLog(ctx context.Context, id int, req UpdateVehicleLogRequest) (models.VehicleLog, string, error) {
	if err := requireID(id, "vehicle log"); err != nil {
		return models.VehicleLog{}, "", err
	}
	if err := s.validator.Struct(req); err != nil {
		return models.VehicleLog{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid vehicle log payload")
	}

	env, err := s.api.Do(ctx, http.MethodPut, idPath(vehicleLogsPath, id), &transport.RequestOpts{JSON: req})
	if err != nil {
		return models.VehicleLog{}, "", err
	}

	log, err := envelope.Entity[models.VehicleLog](env, "vehicle_log")
	if err != nil {
		return models.VehicleLog{}, "", err
	}
	return log, message(env, "Vehicle log updated successfully"), nil
}

// DeleteLog removes a vehicle log entry.
func (s *VehicleService) DeleteLog(ctx context.Context, id int) (string, error) {
	if err := requireID(id, "vehicle log"); err != nil {
		return "", err
	}
	env, err := s.api.Do(ctx, http.MethodDelete, idPath(vehicleLogsPath, id), nil)
	if err != nil {
		return "", err
	}
	return message(env, "Vehicle log deleted successfully"), nil
}

// ExportLogsCSV downloads the vehicle-logs CSV export, optionally filtered
// to one vehicle.
func (s *VehicleService) ExportLogsCSV(ctx context.Context, vehicleID int) (string, error) {
	var query url.Values
	if vehicleID > 0 {
		query = url.Values{"vehicle_id": []string{strconv.Itoa(vehicleID)}}
	}
	blob, err := s.api.Download(ctx, vehicleLogsPath+"/export/csv", query)
	if err != nil {
		return "", err
	}
	return s.downloads.Save(blob.Filename, "vehicle-logs-export", ".csv", blob.Data)
}

func vehicleSearchText(v models.Vehicle) string {
	return strings.Join([]string{v.Name, v.PlateNumber}, " ")
}

func vehicleLogSearchText(l models.VehicleLog) string {
	return strings.Join([]string{l.Month, l.Notes}, " ")
}
