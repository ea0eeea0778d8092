package entity

// Approver represents a member of the approval chain. Approvers are defined
// at process start and never created or destroyed at runtime.
type Approver struct {
	ID   string `json:"id"`
	Role string `json:"role"` // display category, NOT unique across approvers
	Name string `json:"name"`
	// Order is a strict ascending rank defining workflow sequence. Values are
	// globally comparable across all approvers, not just within one
	// permission's approver subset.
	Order int `json:"order"`
}

// PermissionDefinition maps a Graph permission name to the additional
// approvers it requires beyond the fixed gatekeepers.
type PermissionDefinition struct {
	Name                string   `json:"name"`
	RequiredApproverIDs []string `json:"required_approver_ids"`
}
