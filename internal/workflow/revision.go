package workflow

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/graphreq/permission-workflow/internal/domain/entity"
	domainwf "github.com/graphreq/permission-workflow/internal/domain/workflow"
)

// RevisionChanges describes the delta between the original selection and a
// resubmission.
type RevisionChanges struct {
	Added       []string `json:"added"`
	Removed     []string `json:"removed"`
	Resubmitted []string `json:"resubmitted"` // retained permissions whose prior status was denied
}

// RevisionPatch is the partial request state a revision produces. The store
// merges it into the original request; maps are full replacements.
type RevisionPatch struct {
	Permissions         []string
	PermissionTypes     map[string]entity.PermissionType
	PermissionApprovals map[string]*entity.PermissionApproval
	History             []entity.HistoryEntry
	Version             int
	Changes             RevisionChanges
}

// PrepareRevision computes the revision of a request against a new permission
// selection. Added permissions and retained permissions that were denied are
// reset to pending at the first approver with their prior history preserved
// and a resubmission entry appended; removed permissions drop out entirely;
// approved, implemented and still-pending permissions pass through unchanged.
// One request-level system entry summarizes the delta and the version counter
// is incremented.
func (e *Engine) PrepareRevision(original *entity.Request, selection []string, data map[string]entity.PermissionType) *RevisionPatch {
	first := e.catalog.FirstApprover()

	prior := make(map[string]bool, len(original.Permissions))
	for _, name := range original.Permissions {
		prior[name] = true
	}
	selected := make(map[string]bool, len(selection))
	for _, name := range selection {
		selected[name] = true
	}

	var changes RevisionChanges
	for _, name := range original.Permissions {
		if !selected[name] {
			changes.Removed = append(changes.Removed, name)
		}
	}

	approvals := make(map[string]*entity.PermissionApproval, len(selection))
	for _, name := range selection {
		if !prior[name] {
			changes.Added = append(changes.Added, name)
			approvals[name] = &entity.PermissionApproval{
				Permission:   name,
				Status:       entity.StatusPending,
				CurrentStage: first.ID,
				History: []entity.HistoryEntry{
					entity.NewSystemEntry(entity.HistoryPending, "Added in revision"),
				},
			}
			continue
		}

		pa := original.Approval(name)
		if pa == nil {
			// Selection lists a permission the original claims but never
			// initialized; treat as added.
			changes.Added = append(changes.Added, name)
			approvals[name] = &entity.PermissionApproval{
				Permission:   name,
				Status:       entity.StatusPending,
				CurrentStage: first.ID,
				History: []entity.HistoryEntry{
					entity.NewSystemEntry(entity.HistoryPending, "Added in revision"),
				},
			}
			continue
		}

		if pa.Status != entity.StatusDenied {
			// Approved, implemented or in-flight: a revision must never
			// reopen it.
			approvals[name] = pa.Clone()
			continue
		}

		changes.Resubmitted = append(changes.Resubmitted, name)
		reopened := pa.Clone()
		next, err := domainwf.Transition(stateOf(reopened), domainwf.Revise(first.ID))
		if err != nil {
			// Denied is the only phase that reaches here; Revise cannot fail.
			e.logger.Error("Revision transition failed", zap.String("permission", name), zap.Error(err))
			approvals[name] = pa.Clone()
			continue
		}
		reopened.History = append(reopened.History, entity.NewSystemEntry(entity.HistoryResubmitted, "Permission resubmitted after denial"))
		applyState(reopened, next)
		approvals[name] = reopened
	}

	types := make(map[string]entity.PermissionType, len(selection))
	for _, name := range selection {
		if t, ok := data[name]; ok {
			types[name] = t
		} else if t, ok := original.PermissionTypes[name]; ok {
			types[name] = t
		}
	}

	history := append(append([]entity.HistoryEntry(nil), original.History...),
		entity.NewSystemEntry(entity.HistoryRevision, summarize(changes)))

	return &RevisionPatch{
		Permissions:         append([]string(nil), selection...),
		PermissionTypes:     types,
		PermissionApprovals: approvals,
		History:             history,
		Version:             original.Version + 1,
		Changes:             changes,
	}
}

// summarize renders the revision delta for the request-level audit trail.
func summarize(c RevisionChanges) string {
	var parts []string
	if len(c.Added) > 0 {
		parts = append(parts, fmt.Sprintf("Added: %s", strings.Join(c.Added, ", ")))
	}
	if len(c.Removed) > 0 {
		parts = append(parts, fmt.Sprintf("Removed: %s", strings.Join(c.Removed, ", ")))
	}
	if len(c.Resubmitted) > 0 {
		parts = append(parts, fmt.Sprintf("Resubmitted: %s", strings.Join(c.Resubmitted, ", ")))
	}
	if len(parts) == 0 {
		return "Revision with no permission changes"
	}
	return strings.Join(parts, "; ")
}
