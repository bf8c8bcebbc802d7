package workflow

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/terzoomedia/hasad-go/internal/models"
)

func TestAllowedActionsPerStatus(t *testing.T) {
	require.Equal(t, []Action{ActionSubmit}, AllowedActions(models.ReportDraft))
	require.Equal(t, []Action{ActionApprove, ActionReject}, AllowedActions(models.ReportSubmitted))
	require.Empty(t, AllowedActions(models.ReportApproved))
	require.Empty(t, AllowedActions(models.ReportRejected))
}

func TestEmptyOrUnknownStatusTreatedAsDraft(t *testing.T) {
	require.Equal(t, []Action{ActionSubmit}, AllowedActions(""))
	require.Equal(t, []Action{ActionSubmit}, AllowedActions("pending_review"))
}

func TestStatusMatchingIsCaseInsensitive(t *testing.T) {
	require.True(t, Can("Submitted", ActionApprove))
	require.True(t, Terminal("APPROVED"))
}

func TestTerminalStatesAdmitNoTransition(t *testing.T) {
	for _, status := range []models.ReportStatus{models.ReportApproved, models.ReportRejected} {
		require.True(t, Terminal(status))
		for _, action := range []Action{ActionSubmit, ActionApprove, ActionReject} {
			require.False(t, Can(status, action), "%s must not allow %s", status, action)
		}
	}
}

func TestRejectedCannotBeApprovedAndViceVersa(t *testing.T) {
	require.False(t, Can(models.ReportRejected, ActionApprove))
	require.False(t, Can(models.ReportApproved, ActionReject))
}

func TestDraftCannotSkipSubmission(t *testing.T) {
	require.False(t, Can(models.ReportDraft, ActionApprove))
	require.False(t, Can(models.ReportDraft, ActionReject))
}

func TestValidReason(t *testing.T) {
	require.False(t, ValidReason(""))
	require.False(t, ValidReason("   \t\n"))
	require.True(t, ValidReason("missing signature"))
}

func TestCompletableVisit(t *testing.T) {
	require.True(t, CompletableVisit(models.VisitScheduled))
	require.True(t, CompletableVisit(models.VisitInProgress))
	require.False(t, CompletableVisit(models.VisitCompleted))
	require.False(t, CompletableVisit(models.VisitCancelled))
}
