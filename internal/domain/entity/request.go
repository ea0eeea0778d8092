package entity

import "time"

// PermissionType records how a permission was requested and why.
type PermissionType struct {
	IsApplication bool   `json:"is_application"`
	IsDelegated   bool   `json:"is_delegated"`
	Justification string `json:"justification"`
}

// PermissionApproval is the mutable approval state of one (request, permission)
// pair. History is append-only; entries are never mutated or removed, even
// across revisions.
type PermissionApproval struct {
	Permission   string         `json:"permission"`
	Status       string         `json:"status"`
	CurrentStage string         `json:"current_stage"` // approver ID
	History      []HistoryEntry `json:"history"`
}

// Clone returns a deep copy so that snapshots handed to the cache or the UI
// can never alias the authoritative state.
func (p *PermissionApproval) Clone() *PermissionApproval {
	if p == nil {
		return nil
	}
	cp := *p
	cp.History = append([]HistoryEntry(nil), p.History...)
	return &cp
}

// Request is the aggregate: one user submission covering one or more Graph
// permissions, each with its own independent approval chain. A request is
// created on first submission, mutated in place on resubmission (same ID,
// Version incremented) and never deleted.
type Request struct {
	ID            string    `json:"id"`
	Requester     string    `json:"requester"`
	Status        string    `json:"status"`
	CurrentStage  string    `json:"current_stage"`
	SubmittedDate time.Time `json:"submitted_date"`
	Version       int       `json:"version"`

	// Permissions preserves the user's selection order.
	Permissions            []string                       `json:"permissions"`
	PermissionTypes        map[string]PermissionType      `json:"permission_types"`
	PermissionApprovals    map[string]*PermissionApproval `json:"permission_approvals"`
	AdditionalRequirements []string                       `json:"additional_requirements,omitempty"`
	History                []HistoryEntry                 `json:"history"`
}

// Clone returns a deep copy of the request.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	cp.Permissions = append([]string(nil), r.Permissions...)
	cp.AdditionalRequirements = append([]string(nil), r.AdditionalRequirements...)
	cp.History = append([]HistoryEntry(nil), r.History...)
	cp.PermissionTypes = make(map[string]PermissionType, len(r.PermissionTypes))
	for k, v := range r.PermissionTypes {
		cp.PermissionTypes[k] = v
	}
	cp.PermissionApprovals = make(map[string]*PermissionApproval, len(r.PermissionApprovals))
	for k, v := range r.PermissionApprovals {
		cp.PermissionApprovals[k] = v.Clone()
	}
	return &cp
}

// DeriveStatus computes the aggregate status from the per-permission approval
// records: approved iff every permission is approved, implemented iff every
// permission is implemented, denied iff at least one permission is denied and
// every other permission is settled (approved, implemented or denied),
// otherwise pending.
func (r *Request) DeriveStatus() string {
	if len(r.PermissionApprovals) == 0 {
		return StatusPending
	}

	allApproved := true
	allImplemented := true
	anyDenied := false
	restSettled := true

	for _, pa := range r.PermissionApprovals {
		switch pa.Status {
		case StatusApproved:
			allImplemented = false
		case StatusImplemented:
			allApproved = false
		case StatusDenied:
			anyDenied = true
			allApproved = false
			allImplemented = false
		default:
			allApproved = false
			allImplemented = false
			restSettled = false
		}
	}

	switch {
	case allApproved:
		return StatusApproved
	case allImplemented:
		return StatusImplemented
	case anyDenied && restSettled:
		return StatusDenied
	default:
		return StatusPending
	}
}

// Approval returns the approval record for a permission, or nil when the
// permission is not part of this request.
func (r *Request) Approval(permission string) *PermissionApproval {
	return r.PermissionApprovals[permission]
}
