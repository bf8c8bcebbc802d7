package models

// ReportStatus enumerates the service-report approval lifecycle.
type ReportStatus string

const (
	ReportDraft     ReportStatus = "draft"
	ReportSubmitted ReportStatus = "submitted"
	ReportApproved  ReportStatus = "approved"
	ReportRejected  ReportStatus = "rejected"
)

// ServiceReport is the write-up a worker files after a visit. Reports are
// never deleted through this client; they only move through the approval
// workflow.
type ServiceReport struct {
	ID                   int          `json:"id"`
	ClientID             int          `json:"client_id,omitempty"`
	ClientName           string       `json:"client_name,omitempty"`
	VisitID              *int         `json:"visit_id,omitempty"`
	AssignedUserID       *int         `json:"assigned_user_id,omitempty"`
	AssignedUserName     string       `json:"assigned_user_name,omitempty"`
	ReportedAt           string       `json:"reported_at,omitempty"`
	ServiceLocation      string       `json:"service_location,omitempty"`
	Lat                  string       `json:"lat,omitempty"`
	Lng                  string       `json:"lng,omitempty"`
	ServiceTypes         []string     `json:"service_types,omitempty"`
	Observations         []string     `json:"observations,omitempty"`
	Description          string       `json:"description,omitempty"`
	ActionsTaken         string       `json:"actions_taken,omitempty"`
	Recommendations      string       `json:"recommendations,omitempty"`
	Rating               *int         `json:"rating,omitempty"`
	CompanyPhone         string       `json:"company_phone,omitempty"`
	CompanySignaturePath *string      `json:"company_signature_path,omitempty"`
	WorkerSignaturePath  *string      `json:"worker_signature_path,omitempty"`
	Status               ReportStatus `json:"status,omitempty"`
	RejectionReason      *string      `json:"rejection_reason,omitempty"`
	Images               []string     `json:"images,omitempty"`
	CreatedAt            string       `json:"created_at,omitempty"`
	UpdatedAt            string       `json:"updated_at,omitempty"`
}
