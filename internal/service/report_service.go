package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/terzoomedia/hasad-go/internal/envelope"
	"github.com/terzoomedia/hasad-go/internal/models"
	"github.com/terzoomedia/hasad-go/internal/paging"
	"github.com/terzoomedia/hasad-go/internal/transport"
	"github.com/terzoomedia/hasad-go/internal/workflow"
	apperrors "github.com/terzoomedia/hasad-go/pkg/errors"
	"github.com/terzoomedia/hasad-go/pkg/export"
	"github.com/terzoomedia/hasad-go/pkg/storage"
)

const reportsPath = "/reports"

// ReportImage is a file attachment on a report creation request.
type ReportImage struct {
	Filename string
	Data     []byte
}

// CreateReportRequest is the payload for filing a service report. The
// backend expects multipart form encoding with array fields as key[] parts
// and empty optional fields present as empty strings, not omitted.
type CreateReportRequest struct {
	ClientID         int      `validate:"required,gt=0"`
	VisitID          *int     `validate:"omitempty,gt=0"`
	AssignedUserID   *int     `validate:"omitempty,gt=0"`
	ReportedAt       string   `validate:"required"`
	ServiceLocation  string   `validate:"required"`
	Lat              *float64 `validate:"omitempty,latitude"`
	Lng              *float64 `validate:"omitempty,longitude"`
	ServiceTypes     []string `validate:"min=1"`
	Observations     []string
	Description      string `validate:"required"`
	ActionsTaken     string `validate:"required"`
	Recommendations  string
	Rating           *int `validate:"omitempty,min=1,max=5"`
	CompanyPhone     string
	CompanySignature string
	WorkerSignature  string
	Images           []ReportImage
}

// ReportService wraps the service-report endpoints and enforces the
// approval workflow guards before anything touches the network.
type ReportService struct {
	api       api
	validator *validator.Validate
	downloads *storage.Downloads
	pdf       *export.PDFExporter
	logger    *zap.Logger
}

// NewReportService creates an instance of ReportService.
func NewReportService(api api, validate *validator.Validate, downloads *storage.Downloads, logger *zap.Logger) *ReportService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		api:       api,
		validator: validate,
		downloads: downloads,
		pdf:       export.NewPDFExporter(),
		logger:    logger,
	}
}

// List returns a page of reports.
func (s *ReportService) List(ctx context.Context, params models.ListParams) (paging.Page[models.ServiceReport], error) {
	return s.list(ctx, reportsPath, params)
}

// PendingApproval returns the reports awaiting an approval decision.
func (s *ReportService) PendingApproval(ctx context.Context, params models.ListParams) (paging.Page[models.ServiceReport], error) {
	return s.list(ctx, reportsPath+"/pending-approval", params)
}

func (s *ReportService) list(ctx context.Context, path string, params models.ListParams) (paging.Page[models.ServiceReport], error) {
	var zero paging.Page[models.ServiceReport]

	env, err := s.api.Do(ctx, http.MethodGet, path, &transport.RequestOpts{Query: listQuery(params)})
	if err != nil {
		return zero, err
	}

	items, meta, err := envelope.Collection[models.ServiceReport](env, "reports")
	if err != nil {
		return zero, apperrors.Wrap(err, apperrors.ErrTransport.Code, 0, "failed to decode reports")
	}
	if meta != nil {
		return paging.FromMeta(items, meta, params), nil
	}
	return paging.Apply(items, params, reportSearchText), nil
}

// Get returns one report by id.
func (s *ReportService) Get(ctx context.Context, id int) (models.ServiceReport, error) {
	if err := requireID(id, "report"); err != nil {
		return models.ServiceReport{}, err
	}
	env, err := s.api.Do(ctx, http.MethodGet, idPath(reportsPath, id), nil)
	if err != nil {
		return models.ServiceReport{}, err
	}
	return envelope.Entity[models.ServiceReport](env, "report")
}

// Create files a new report. Reports always start before submission; the
// workflow operations are the only way forward from there.
func (s *ReportService) Create(ctx context.Context, req CreateReportRequest) (models.ServiceReport, string, error) {
	if err := s.validator.Struct(req); err != nil {
		return models.ServiceReport{}, "", apperrors.Wrap(err, apperrors.ErrValidation.Code, apperrors.ErrValidation.Status, "invalid report payload")
	}

	body, contentType, err := encodeReportForm(req)
	if err != nil {
		return models.ServiceReport{}, "", apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "failed to encode report form")
	}

	env, err := s.api.Do(ctx, http.MethodPost, reportsPath, &transport.RequestOpts{Body: body, ContentType: contentType})
	if err != nil {
		return models.ServiceReport{}, "", err
	}

	report, err := envelope.Entity[models.ServiceReport](env, "report")
	if err != nil {
		return models.ServiceReport{}, "", err
	}
	return report, message(env, "Report created successfully"), nil
}

// Submit moves a draft report to submitted. The guard is advisory: a report
// whose status already rules the transition out is rejected locally with no
// network call, leaving state untouched.
func (s *ReportService) Submit(ctx context.Context, report models.ServiceReport) (models.ServiceReport, string, error) {
	return s.transition(ctx, report, workflow.ActionSubmit, nil, "Report submitted successfully")
}

// Approve moves a submitted report to approved.
func (s *ReportService) Approve(ctx context.Context, report models.ServiceReport) (models.ServiceReport, string, error) {
	return s.transition(ctx, report, workflow.ActionApprove, nil, "Report approved successfully")
}

// Reject moves a submitted report to rejected. The reason comes from a
// human prompt; an empty reason blocks the operation before any request.
func (s *ReportService) Reject(ctx context.Context, report models.ServiceReport, reason string) (models.ServiceReport, string, error) {
	if !workflow.ValidReason(reason) {
		return report, "", apperrors.Clone(apperrors.ErrValidation, "rejection reason is required")
	}
	payload := map[string]string{"reason": strings.TrimSpace(reason)}
	return s.transition(ctx, report, workflow.ActionReject, payload, "Report rejected successfully")
}

func (s *ReportService) transition(ctx context.Context, report models.ServiceReport, action workflow.Action, payload any, fallbackMsg string) (models.ServiceReport, string, error) {
	if err := requireID(report.ID, "report"); err != nil {
		return report, "", err
	}
	if !workflow.Can(report.Status, action) {
		return report, "", apperrors.Clone(apperrors.ErrConflict,
			fmt.Sprintf("cannot %s a %s report", action, displayStatus(report.Status)))
	}

	opts := &transport.RequestOpts{}
	if payload != nil {
		opts.JSON = payload
	}

	env, err := s.api.Do(ctx, http.MethodPost, idPath(reportsPath, report.ID)+"/"+string(action), opts)
	if err != nil {
		return report, "", err
	}

	updated, err := envelope.Entity[models.ServiceReport](env, "report")
	if err != nil {
		// Some backends acknowledge the transition without embedding the
		// entity; re-fetch by id so the caller always sees fresh state.
		var appErr *apperrors.Error
		if errors.As(err, &appErr) && appErr.Code == apperrors.ErrMissingEntity.Code {
			updated, err = s.Get(ctx, report.ID)
		}
		if err != nil {
			return report, "", err
		}
	}
	return updated, message(env, fallbackMsg), nil
}

// DownloadPDF fetches the rendered report PDF from the backend and saves it
// into the downloads directory.
func (s *ReportService) DownloadPDF(ctx context.Context, id int) (string, error) {
	if err := requireID(id, "report"); err != nil {
		return "", err
	}
	blob, err := s.api.Download(ctx, idPath(reportsPath, id)+"/pdf", nil)
	if err != nil {
		return "", err
	}
	return s.downloads.Save(blob.Filename, fmt.Sprintf("report-%d", id), ".pdf", blob.Data)
}

// RenderPDF renders a local summary PDF for a fetched report, used when the
// backend's PDF endpoint is not available.
func (s *ReportService) RenderPDF(report models.ServiceReport) (string, error) {
	if err := requireID(report.ID, "report"); err != nil {
		return "", err
	}

	doc := export.ReportDocument{
		Title: fmt.Sprintf("Service Report #%d", report.ID),
		Sections: []export.ReportSection{
			{Label: "Client", Lines: []string{report.ClientName}},
			{Label: "Reported At", Lines: []string{report.ReportedAt}},
			{Label: "Location", Lines: []string{report.ServiceLocation}},
			{Label: "Service Types", Lines: report.ServiceTypes},
			{Label: "Observations", Lines: report.Observations},
			{Label: "Description", Lines: []string{report.Description}},
			{Label: "Actions Taken", Lines: []string{report.ActionsTaken}},
			{Label: "Recommendations", Lines: []string{report.Recommendations}},
			{Label: "Status", Lines: []string{displayStatus(report.Status)}},
		},
	}
	if report.Status == models.ReportRejected && report.RejectionReason != nil {
		doc.Sections = append(doc.Sections, export.ReportSection{
			Label: "Rejection Reason", Lines: []string{*report.RejectionReason},
		})
	}

	data, err := s.pdf.RenderReport(doc)
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrInternal.Code, apperrors.ErrInternal.Status, "failed to render report pdf")
	}
	return s.downloads.Save(fmt.Sprintf("report-%d-summary.pdf", report.ID), fmt.Sprintf("report-%d", report.ID), ".pdf", data)
}

// encodeReportForm builds the multipart body. Optional scalars are written
// as empty strings when unset and empty arrays as a single empty key[]
// part, mirroring what the backend's form handler expects.
func encodeReportForm(req CreateReportRequest) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	form := multipart.NewWriter(buf)

	writeValue := func(key, value string) error {
		return form.WriteField(key, value)
	}
	writeOptInt := func(key string, value *int) error {
		if value == nil {
			return writeValue(key, "")
		}
		return writeValue(key, strconv.Itoa(*value))
	}
	writeOptFloat := func(key string, value *float64) error {
		if value == nil {
			return writeValue(key, "")
		}
		return writeValue(key, strconv.FormatFloat(*value, 'f', -1, 64))
	}
	writeArray := func(key string, values []string) error {
		if len(values) == 0 {
			return writeValue(key+"[]", "")
		}
		for _, v := range values {
			if err := writeValue(key+"[]", v); err != nil {
				return err
			}
		}
		return nil
	}

	steps := []func() error{
		func() error { return writeValue("client_id", strconv.Itoa(req.ClientID)) },
		func() error { return writeOptInt("visit_id", req.VisitID) },
		func() error { return writeOptInt("assigned_user_id", req.AssignedUserID) },
		func() error { return writeValue("reported_at", req.ReportedAt) },
		func() error { return writeValue("service_location", req.ServiceLocation) },
		func() error { return writeOptFloat("lat", req.Lat) },
		func() error { return writeOptFloat("lng", req.Lng) },
		func() error { return writeArray("service_types", req.ServiceTypes) },
		func() error { return writeArray("observations", req.Observations) },
		func() error { return writeValue("description", req.Description) },
		func() error { return writeValue("actions_taken", req.ActionsTaken) },
		func() error { return writeValue("recommendations", req.Recommendations) },
		func() error {
			if req.Rating == nil {
				return writeValue("rating", "")
			}
			return writeValue("rating", strconv.Itoa(*req.Rating))
		},
		func() error { return writeValue("company_phone", req.CompanyPhone) },
		func() error { return writeValue("company_signature", req.CompanySignature) },
		func() error { return writeValue("worker_signature", req.WorkerSignature) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			return nil, "", err
		}
	}

	if len(req.Images) == 0 {
		if err := writeValue("images[]", ""); err != nil {
			return nil, "", err
		}
	} else {
		for _, img := range req.Images {
			part, err := form.CreateFormFile("images[]", img.Filename)
			if err != nil {
				return nil, "", err
			}
			if _, err := part.Write(img.Data); err != nil {
				return nil, "", err
			}
		}
	}

	if err := form.Close(); err != nil {
		return nil, "", err
	}
	return buf, form.FormDataContentType(), nil
}

func displayStatus(status models.ReportStatus) string {
	if status == "" {
		return string(models.ReportDraft)
	}
	return string(status)
}

func reportSearchText(r models.ServiceReport) string {
	return strings.Join([]string{r.ClientName, r.ServiceLocation, string(r.Status)}, " ")
}
