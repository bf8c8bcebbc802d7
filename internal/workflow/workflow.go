// Package workflow is the single definition of the service-report approval
// lifecycle and the visit completion guard. Both the list-row actions and
// the detail surface query this table; no view re-derives status booleans.
//
// draft -> submitted -> approved | rejected
//
// Transitions are monotonic. Approved and rejected are terminal, mutually
// exclusive, and final: a rejected report cannot later be approved, nor the
// reverse. The client guard is advisory only; the backend remains
// authoritative.
package workflow

import (
	"strings"

	"github.com/terzoomedia/hasad-go/internal/models"
)

// Action is a report workflow operation.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
)

var allowed = map[models.ReportStatus][]Action{
	models.ReportDraft:     {ActionSubmit},
	models.ReportSubmitted: {ActionApprove, ActionReject},
	models.ReportApproved:  {},
	models.ReportRejected:  {},
}

// AllowedActions returns the operations permitted from the given status. An
// unknown or empty status is treated as draft, matching how the backend
// reports freshly created records.
func AllowedActions(status models.ReportStatus) []Action {
	actions, ok := allowed[normalize(status)]
	if !ok {
		return allowed[models.ReportDraft]
	}
	return actions
}

// Can reports whether the action is permitted from the status.
func Can(status models.ReportStatus, action Action) bool {
	for _, a := range AllowedActions(status) {
		if a == action {
			return true
		}
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func Terminal(status models.ReportStatus) bool {
	s := normalize(status)
	return s == models.ReportApproved || s == models.ReportRejected
}

// ValidReason reports whether a human-supplied rejection reason is usable.
// An empty or whitespace-only reason must block the reject call entirely.
func ValidReason(reason string) bool {
	return strings.TrimSpace(reason) != ""
}

// CompletableVisit reports whether completing the visit would change
// anything. Completing an already-completed or cancelled visit is a local
// no-op with no network call.
func CompletableVisit(status models.VisitStatus) bool {
	switch status {
	case models.VisitCompleted, models.VisitCancelled:
		return false
	default:
		return true
	}
}

func normalize(status models.ReportStatus) models.ReportStatus {
	if status == "" {
		return models.ReportDraft
	}
	return models.ReportStatus(strings.ToLower(string(status)))
}
