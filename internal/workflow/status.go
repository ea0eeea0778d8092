package workflow

import (
	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
)

// DeriveApproverStatus computes the effective display status of one approver
// within a permission's chain. The layered resolution keeps the progress bar
// consistent even when history is sparse: order comparison substitutes for
// missing explicit history.
//
// Resolution order, first match wins:
//  1. chain settled (approved/implemented): everyone is approved
//  2. denied: approvers before the denier approved, the denier denied,
//     approvers after it never reached
//  3. an explicit history entry by this approver wins outright
//  4. this approver holds the current stage
//  5. pending and ranked before the current stage: already passed
//  6. default pending
func (e *Engine) DeriveApproverStatus(approver entity.Approver, pa *entity.PermissionApproval) string {
	if pa == nil {
		return entity.ViewPending
	}

	if pa.Status == entity.StatusApproved || pa.Status == entity.StatusImplemented {
		return entity.ViewApproved
	}

	if pa.Status == entity.StatusDenied {
		if denier, ok := e.denier(pa.History); ok {
			switch {
			case approver.ID == denier.ID:
				return entity.ViewDenied
			case approver.Order < denier.Order:
				return entity.ViewApproved
			default:
				return entity.ViewPending
			}
		}
		// No qualifying human denial on record; fall through to the
		// history / stage checks.
	}

	for i := len(pa.History) - 1; i >= 0; i-- {
		h := pa.History[i]
		if h.ApproverID != approver.ID || h.ApproverID == "" {
			continue
		}
		switch h.Status {
		case entity.HistoryApproved:
			return entity.ViewApproved
		case entity.HistoryDenied:
			return entity.ViewDenied
		}
	}

	if approver.ID == pa.CurrentStage {
		return entity.ViewCurrent
	}

	if pa.Status == entity.StatusPending {
		if current, ok := e.catalog.ApproverByID(pa.CurrentStage); ok && approver.Order < current.Order {
			return entity.ViewApproved
		}
	}

	return entity.ViewPending
}

// denier finds the approver behind the most recent human denial entry.
// Entries written by this service carry the approver's identity; entries
// keyed only by role label (imported from older data) fall back to a role
// lookup, which is ambiguous when two approvers share the label.
func (e *Engine) denier(history []entity.HistoryEntry) (entity.Approver, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		h := history[i]
		if h.Status != entity.HistoryDenied || h.Origin != entity.OriginHuman {
			continue
		}

		if h.ApproverID != "" {
			if a, ok := e.catalog.ApproverByID(h.ApproverID); ok {
				return a, true
			}
		}

		matches := e.catalog.ApproversByRole(h.Stage)
		if len(matches) > 1 {
			e.logger.Warn("Role-keyed denial entry is ambiguous",
				zap.String("role", h.Stage),
				zap.Int("candidates", len(matches)))
		}
		if len(matches) > 0 {
			return matches[0], true
		}
	}
	return entity.Approver{}, false
}

// ApproverView pairs an approver with their derived status for one permission.
type ApproverView struct {
	Approver entity.Approver `json:"approver"`
	Status   string          `json:"status"`
}

// PermissionProgress renders the full chain of a permission with each
// approver's derived status, in order.
func (e *Engine) PermissionProgress(pa *entity.PermissionApproval) []ApproverView {
	if pa == nil {
		return nil
	}
	chain := e.catalog.ResolveApprovers([]string{pa.Permission})
	views := make([]ApproverView, 0, len(chain))
	for _, a := range chain {
		views = append(views, ApproverView{Approver: a, Status: e.DeriveApproverStatus(a, pa)})
	}
	return views
}
