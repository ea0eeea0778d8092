// Package workflow implements the approval workflow core: per-permission
// approval initialization, decision transitions, bulk implementation, status
// derivation for display and revision preparation. All operations are
// synchronous and either fully apply or leave the request untouched.
package workflow

import (
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/catalog"
	"github.com/graphreq/permission-workflow/internal/domain/entity"
	domainwf "github.com/graphreq/permission-workflow/internal/domain/workflow"
)

var (
	// ErrUnknownPermission is returned when a permission is not part of the request
	ErrUnknownPermission = errors.New("permission is not part of this request")

	// ErrUnknownApprover is returned when the acting approver is not in the directory
	ErrUnknownApprover = errors.New("approver not found in directory")

	// ErrNotAllApproved is returned when implementation is attempted before
	// every permission in the request is approved
	ErrNotAllApproved = errors.New("not every permission is approved")
)

// Engine orchestrates the approval workflow over the static catalog.
type Engine struct {
	catalog *catalog.Catalog
	logger  *zap.Logger
}

// NewEngine creates a new workflow engine
func NewEngine(cat *catalog.Catalog, logger *zap.Logger) *Engine {
	return &Engine{
		catalog: cat,
		logger:  logger,
	}
}

// Catalog exposes the engine's reference data to display surfaces.
func (e *Engine) Catalog() *catalog.Catalog {
	return e.catalog
}

// InitializeApprovals builds the initial approval record for every selected
// permission: pending at the first approver with a single system "Pending"
// history entry. Used on first submission.
func (e *Engine) InitializeApprovals(selected []string) map[string]*entity.PermissionApproval {
	first := e.catalog.FirstApprover()

	approvals := make(map[string]*entity.PermissionApproval, len(selected))
	for _, name := range selected {
		approvals[name] = &entity.PermissionApproval{
			Permission:   name,
			Status:       entity.StatusPending,
			CurrentStage: first.ID,
			History: []entity.HistoryEntry{
				entity.NewSystemEntry(entity.HistoryPending, "Request submitted"),
			},
		}
	}
	return approvals
}

// Decide applies a single approve/deny decision to one permission of the
// request. The decision is only valid when the permission is pending and the
// actor holds its current stage; otherwise a typed error is returned and the
// request is not mutated. On approve the stage advances along the
// permission's own resolved chain; approving as the last approver settles the
// permission. On deny the permission is denied immediately; other permissions
// in the request are unaffected.
//
// When the stage advanced, the new current approver is returned so callers
// can notify them.
func (e *Engine) Decide(req *entity.Request, permission, approverID string, approve bool, comment string) (*entity.Approver, error) {
	pa := req.Approval(permission)
	if pa == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownPermission, permission)
	}

	actor, ok := e.catalog.ApproverByID(approverID)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownApprover, approverID)
	}

	var action domainwf.Action
	if approve {
		nextStage := ""
		if next, found := e.catalog.NextApprover([]string{permission}, approverID); found {
			nextStage = next.ID
		}
		action = domainwf.Approve(approverID, nextStage)
	} else {
		action = domainwf.Deny(approverID)
	}

	next, err := domainwf.Transition(stateOf(pa), action)
	if err != nil {
		return nil, err
	}

	decision := entity.HistoryApproved
	if !approve {
		decision = entity.HistoryDenied
	}
	pa.History = append(pa.History, entity.NewApproverEntry(actor, decision, comment))
	applyState(pa, next)
	e.RefreshAggregate(req)

	e.logger.Info("Decision recorded",
		zap.String("request_id", req.ID),
		zap.String("permission", permission),
		zap.String("approver", approverID),
		zap.String("decision", decision),
		zap.String("permission_status", pa.Status))

	if approve && next.Phase == domainwf.PhasePending {
		advanced, _ := e.catalog.ApproverByID(next.CurrentStage)
		return &advanced, nil
	}
	return nil, nil
}

// Implement transitions every permission of the request to implemented. Valid
// only when every permission is approved; otherwise nothing is mutated. One
// system history entry is appended per permission plus one request-level
// entry. Not reversible.
func (e *Engine) Implement(req *entity.Request) error {
	for _, name := range req.Permissions {
		pa := req.Approval(name)
		if pa == nil || pa.Status != entity.StatusApproved {
			return fmt.Errorf("%w: %s", ErrNotAllApproved, name)
		}
	}

	for _, name := range req.Permissions {
		pa := req.Approval(name)
		next, err := domainwf.Transition(stateOf(pa), domainwf.Implement())
		if err != nil {
			// Unreachable after the guard above; surface rather than hide.
			return err
		}
		pa.History = append(pa.History, entity.NewSystemEntry(entity.HistoryImplemented, "Permission implemented"))
		applyState(pa, next)
	}

	req.History = append(req.History, entity.NewSystemEntry(entity.HistoryImplemented, "All permissions implemented"))
	e.RefreshAggregate(req)

	e.logger.Info("Request implemented",
		zap.String("request_id", req.ID),
		zap.Int("permissions", len(req.Permissions)))
	return nil
}

// RefreshAggregate recomputes the request's derived status and current stage
// from its per-permission approval records.
func (e *Engine) RefreshAggregate(req *entity.Request) {
	req.Status = req.DeriveStatus()

	// The aggregate current stage is the earliest pending checkpoint across
	// all permissions.
	bestOrder := -1
	for _, name := range req.Permissions {
		pa := req.Approval(name)
		if pa == nil || pa.Status != entity.StatusPending {
			continue
		}
		a, ok := e.catalog.ApproverByID(pa.CurrentStage)
		if !ok {
			continue
		}
		if bestOrder == -1 || a.Order < bestOrder {
			bestOrder = a.Order
			req.CurrentStage = a.ID
		}
	}
	if bestOrder != -1 {
		return
	}

	// Nothing pending: the terminal marker is the approver behind the most
	// recent human decision across all permissions.
	var latest time.Time
	for _, name := range req.Permissions {
		pa := req.Approval(name)
		if pa == nil {
			continue
		}
		for i := len(pa.History) - 1; i >= 0; i-- {
			h := pa.History[i]
			if h.Origin != entity.OriginHuman || h.ApproverID == "" {
				continue
			}
			if h.Timestamp.After(latest) {
				latest = h.Timestamp
				req.CurrentStage = h.ApproverID
			}
			break
		}
	}
}

// stateOf maps a stored approval record onto the tagged state machine.
func stateOf(pa *entity.PermissionApproval) domainwf.State {
	switch pa.Status {
	case entity.StatusApproved:
		return domainwf.ApprovedBy(pa.CurrentStage)
	case entity.StatusDenied:
		return domainwf.DeniedByStage(pa.CurrentStage)
	case entity.StatusImplemented:
		return domainwf.Implemented()
	default:
		return domainwf.PendingAt(pa.CurrentStage)
	}
}

// applyState writes a state machine result back onto the approval record.
func applyState(pa *entity.PermissionApproval, s domainwf.State) {
	switch s.Phase {
	case domainwf.PhasePending:
		pa.Status = entity.StatusPending
		pa.CurrentStage = s.CurrentStage
	case domainwf.PhaseApproved:
		pa.Status = entity.StatusApproved
		pa.CurrentStage = s.CurrentStage
	case domainwf.PhaseDenied:
		pa.Status = entity.StatusDenied
		pa.CurrentStage = s.DeniedBy
	case domainwf.PhaseImplemented:
		pa.Status = entity.StatusImplemented
	}
}
