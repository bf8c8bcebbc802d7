package models

// VisitStatus enumerates the lifecycle of a scheduled visit.
type VisitStatus string

const (
	VisitScheduled  VisitStatus = "scheduled"
	VisitInProgress VisitStatus = "in_progress"
	VisitCompleted  VisitStatus = "completed"
	VisitCancelled  VisitStatus = "cancelled"
)

// Visit is a scheduled service call belonging to one client and one worker.
type Visit struct {
	ID               int         `json:"id"`
	ClientID         int         `json:"client_id"`
	ClientName       string      `json:"client_name,omitempty"`
	AssignedUserID   int         `json:"assigned_user_id"`
	AssignedUserName string      `json:"assigned_user_name,omitempty"`
	Service          string      `json:"service"`
	Status           VisitStatus `json:"status"`
	ScheduledAt      string      `json:"scheduled_at"`
	CompletedAt      *string     `json:"completed_at,omitempty"`
	Notes            *string     `json:"notes,omitempty"`
	Client           *VisitRef   `json:"client,omitempty"`
	AssignedUser     *VisitRef   `json:"assigned_user,omitempty"`
	CreatedAt        string      `json:"created_at,omitempty"`
	UpdatedAt        string      `json:"updated_at,omitempty"`
}

// VisitRef is the embedded summary of a related record on a visit.
type VisitRef struct {
	ID          int    `json:"id"`
	Name        string `json:"name,omitempty"`
	Email       string `json:"email,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
}

// CalendarItem is one visit rendered as a calendar event.
type CalendarItem struct {
	ID            any            `json:"id"`
	Title         string         `json:"title"`
	Start         string         `json:"start"`
	End           *string        `json:"end,omitempty"`
	AllDay        bool           `json:"allDay,omitempty"`
	ExtendedProps map[string]any `json:"extendedProps,omitempty"`
}
