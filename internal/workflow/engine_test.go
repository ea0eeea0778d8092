package workflow

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/catalog"
	"github.com/graphreq/permission-workflow/internal/domain/entity"
	domainwf "github.com/graphreq/permission-workflow/internal/domain/workflow"
)

func newTestEngine() *Engine {
	return NewEngine(catalog.New(), zap.NewNop())
}

func newTestRequest(e *Engine, permissions ...string) *entity.Request {
	req := &entity.Request{
		ID:                  "req-1",
		Requester:           "casey@example.com",
		Status:              entity.StatusPending,
		Permissions:         permissions,
		PermissionTypes:     map[string]entity.PermissionType{},
		PermissionApprovals: e.InitializeApprovals(permissions),
		History:             []entity.HistoryEntry{entity.NewSystemEntry(entity.HistoryPending, "Request submitted")},
	}
	e.RefreshAggregate(req)
	return req
}

func TestInitializeApprovals(t *testing.T) {
	e := newTestEngine()

	approvals := e.InitializeApprovals([]string{"User.Read", "Mail.ReadWrite"})

	require.Len(t, approvals, 2)
	for name, pa := range approvals {
		assert.Equal(t, name, pa.Permission)
		assert.Equal(t, entity.StatusPending, pa.Status)
		assert.Equal(t, catalog.BusinessApproverID, pa.CurrentStage)
		require.Len(t, pa.History, 1)
		assert.Equal(t, entity.HistoryPending, pa.History[0].Status)
		assert.Equal(t, entity.OriginSystem, pa.History[0].Origin)
	}
}

// User.Read requires gatekeepers only: approving as the business approver
// keeps the permission pending at the technical approver, approving as the
// technical approver settles it.
func TestDecide_LinearApproval(t *testing.T) {
	e := newTestEngine()
	req := newTestRequest(e, "User.Read")

	next, err := e.Decide(req, "User.Read", catalog.BusinessApproverID, true, "fine by business")
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, catalog.TechnicalApproverID, next.ID)

	pa := req.Approval("User.Read")
	assert.Equal(t, entity.StatusPending, pa.Status)
	assert.Equal(t, catalog.TechnicalApproverID, pa.CurrentStage)

	next, err = e.Decide(req, "User.Read", catalog.TechnicalApproverID, true, "")
	require.NoError(t, err)
	assert.Nil(t, next, "final approval advances to nobody")

	assert.Equal(t, entity.StatusApproved, pa.Status)
	assert.Equal(t, catalog.TechnicalApproverID, pa.CurrentStage, "terminal marker is the final approver")
	assert.Equal(t, entity.StatusApproved, req.Status)
}

func TestDecide_DenyStopsPermissionOnly(t *testing.T) {
	e := newTestEngine()
	req := newTestRequest(e, "User.Read", "Mail.ReadWrite")

	// Approve A fully.
	_, err := e.Decide(req, "User.Read", catalog.BusinessApproverID, true, "")
	require.NoError(t, err)
	_, err = e.Decide(req, "User.Read", catalog.TechnicalApproverID, true, "")
	require.NoError(t, err)

	// Deny B at the technical stage.
	_, err = e.Decide(req, "Mail.ReadWrite", catalog.BusinessApproverID, true, "")
	require.NoError(t, err)
	_, err = e.Decide(req, "Mail.ReadWrite", catalog.TechnicalApproverID, false, "insufficient justification")
	require.NoError(t, err)

	a := req.Approval("User.Read")
	b := req.Approval("Mail.ReadWrite")
	assert.Equal(t, entity.StatusApproved, a.Status, "denial of one permission must not touch others")
	assert.Equal(t, entity.StatusDenied, b.Status)
	assert.Equal(t, catalog.TechnicalApproverID, b.CurrentStage)

	// Multi-permission independence: one approved, one denied => aggregate denied.
	assert.Equal(t, entity.StatusDenied, req.Status)
}

func TestDecide_GuardsRejectWithoutMutation(t *testing.T) {
	e := newTestEngine()

	tests := []struct {
		name       string
		permission string
		approver   string
		wantErr    error
	}{
		{"wrong approver", "User.Read", catalog.TechnicalApproverID, domainwf.ErrNotCurrentApprover},
		{"unknown approver", "User.Read", "nobody", ErrUnknownApprover},
		{"unknown permission", "Files.Read.All", catalog.BusinessApproverID, ErrUnknownPermission},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := newTestRequest(e, "User.Read")
			before := len(req.Approval("User.Read").History)

			_, err := e.Decide(req, tt.permission, tt.approver, true, "")
			require.ErrorIs(t, err, tt.wantErr)

			pa := req.Approval("User.Read")
			assert.Equal(t, entity.StatusPending, pa.Status)
			assert.Equal(t, catalog.BusinessApproverID, pa.CurrentStage)
			assert.Len(t, pa.History, before, "rejected decision must not append history")
		})
	}
}

func TestDecide_SettledPermissionRejectsFurtherDecisions(t *testing.T) {
	e := newTestEngine()
	req := newTestRequest(e, "User.Read")

	_, err := e.Decide(req, "User.Read", catalog.BusinessApproverID, true, "")
	require.NoError(t, err)
	_, err = e.Decide(req, "User.Read", catalog.TechnicalApproverID, true, "")
	require.NoError(t, err)

	_, err = e.Decide(req, "User.Read", catalog.TechnicalApproverID, false, "changed my mind")
	assert.ErrorIs(t, err, domainwf.ErrInvalidTransition)
	assert.Equal(t, entity.StatusApproved, req.Approval("User.Read").Status)
}

func TestImplement_AllApproved(t *testing.T) {
	e := newTestEngine()
	req := newTestRequest(e, "User.Read")

	_, err := e.Decide(req, "User.Read", catalog.BusinessApproverID, true, "")
	require.NoError(t, err)
	_, err = e.Decide(req, "User.Read", catalog.TechnicalApproverID, true, "")
	require.NoError(t, err)

	requestHistoryBefore := len(req.History)
	require.NoError(t, e.Implement(req))

	pa := req.Approval("User.Read")
	assert.Equal(t, entity.StatusImplemented, pa.Status)
	assert.Equal(t, entity.StatusImplemented, req.Status)
	assert.Equal(t, entity.HistoryImplemented, pa.History[len(pa.History)-1].Status)
	assert.Len(t, req.History, requestHistoryBefore+1, "one request-level entry")
}

func TestImplement_RejectedWhileAnyPending(t *testing.T) {
	e := newTestEngine()
	req := newTestRequest(e, "User.Read", "Mail.ReadWrite")

	// Settle only the first permission.
	_, err := e.Decide(req, "User.Read", catalog.BusinessApproverID, true, "")
	require.NoError(t, err)
	_, err = e.Decide(req, "User.Read", catalog.TechnicalApproverID, true, "")
	require.NoError(t, err)

	err = e.Implement(req)
	require.ErrorIs(t, err, ErrNotAllApproved)

	// No permission may have transitioned.
	assert.Equal(t, entity.StatusApproved, req.Approval("User.Read").Status)
	assert.Equal(t, entity.StatusPending, req.Approval("Mail.ReadWrite").Status)
}

func TestRefreshAggregate_CurrentStageIsEarliestPendingCheckpoint(t *testing.T) {
	e := newTestEngine()
	req := newTestRequest(e, "User.Read", "Mail.ReadWrite")

	// Advance Mail.ReadWrite past both gatekeepers; User.Read stays at the
	// business approver.
	_, err := e.Decide(req, "Mail.ReadWrite", catalog.BusinessApproverID, true, "")
	require.NoError(t, err)
	_, err = e.Decide(req, "Mail.ReadWrite", catalog.TechnicalApproverID, true, "")
	require.NoError(t, err)

	assert.Equal(t, catalog.BusinessApproverID, req.CurrentStage)
}

// Once nothing is pending the aggregate stage names the approver behind the
// most recent decision. A revision dropping the only pending permission used
// to leave the stage pointing at the dropped checkpoint.
func TestRefreshAggregate_TerminalStageNamesLastActor(t *testing.T) {
	e := newTestEngine()
	req := newTestRequest(e, "User.Read", "Mail.ReadWrite")

	// User.Read settles at the technical approver; Mail.ReadWrite stays
	// pending at business, which holds the aggregate stage.
	_, err := e.Decide(req, "User.Read", catalog.BusinessApproverID, true, "")
	require.NoError(t, err)
	_, err = e.Decide(req, "User.Read", catalog.TechnicalApproverID, true, "")
	require.NoError(t, err)
	require.Equal(t, catalog.BusinessApproverID, req.CurrentStage)

	// Drop the pending permission in a revision.
	patch := e.PrepareRevision(req, []string{"User.Read"}, nil)
	req.Permissions = patch.Permissions
	req.PermissionTypes = patch.PermissionTypes
	req.PermissionApprovals = patch.PermissionApprovals
	req.History = patch.History
	req.Version = patch.Version
	e.RefreshAggregate(req)

	assert.Equal(t, entity.StatusApproved, req.Status)
	assert.Equal(t, catalog.TechnicalApproverID, req.CurrentStage,
		"settled request must name its last decider, not a dropped checkpoint")
}
