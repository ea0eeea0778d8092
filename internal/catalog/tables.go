package catalog

import "github.com/graphreq/permission-workflow/internal/domain/entity"

// Gatekeeper approver IDs. Every request passes through both, regardless of
// which permissions are selected.
const (
	BusinessApproverID  = "business-approver"
	TechnicalApproverID = "technical-approver"
)

// defaultApprovers is the approver directory the service ships with. Order is
// a unique global rank across all approvers.
var defaultApprovers = []entity.Approver{
	{ID: BusinessApproverID, Role: "Business Approver", Name: "Dana Whitfield", Order: 1},
	{ID: TechnicalApproverID, Role: "Technical Approver", Name: "Priya Raman", Order: 2},
	{ID: "exchange-team", Role: "Implementation Team", Name: "Exchange Online Team", Order: 3},
	{ID: "sharepoint-team", Role: "Implementation Team", Name: "SharePoint Team", Order: 4},
	{ID: "identity-team", Role: "Implementation Team", Name: "Identity Platform Team", Order: 5},
	{ID: "security-team", Role: "Security Review", Name: "Security Review Board", Order: 6},
}

// defaultPermissions maps Microsoft Graph permission names to the additional
// approvers they require beyond the gatekeepers. Permissions absent from this
// table resolve to the gatekeepers alone.
var defaultPermissions = []entity.PermissionDefinition{
	{Name: "User.Read", RequiredApproverIDs: nil},
	{Name: "User.ReadBasic.All", RequiredApproverIDs: nil},
	{Name: "User.Read.All", RequiredApproverIDs: []string{"identity-team"}},
	{Name: "User.ReadWrite.All", RequiredApproverIDs: []string{"identity-team", "security-team"}},
	{Name: "Mail.Read", RequiredApproverIDs: []string{"exchange-team"}},
	{Name: "Mail.ReadWrite", RequiredApproverIDs: []string{"exchange-team"}},
	{Name: "Mail.Send", RequiredApproverIDs: []string{"exchange-team", "security-team"}},
	{Name: "Calendars.Read", RequiredApproverIDs: []string{"exchange-team"}},
	{Name: "Calendars.ReadWrite", RequiredApproverIDs: []string{"exchange-team"}},
	{Name: "Files.Read.All", RequiredApproverIDs: []string{"sharepoint-team"}},
	{Name: "Files.ReadWrite.All", RequiredApproverIDs: []string{"sharepoint-team", "security-team"}},
	{Name: "Sites.Read.All", RequiredApproverIDs: []string{"sharepoint-team"}},
	{Name: "Sites.ReadWrite.All", RequiredApproverIDs: []string{"sharepoint-team", "security-team"}},
	{Name: "Group.Read.All", RequiredApproverIDs: []string{"identity-team"}},
	{Name: "Group.ReadWrite.All", RequiredApproverIDs: []string{"identity-team", "security-team"}},
	{Name: "Directory.Read.All", RequiredApproverIDs: []string{"identity-team"}},
	{Name: "Directory.ReadWrite.All", RequiredApproverIDs: []string{"identity-team", "security-team"}},
	{Name: "Application.ReadWrite.All", RequiredApproverIDs: []string{"identity-team", "security-team"}},
	{Name: "Chat.Read", RequiredApproverIDs: nil},
	{Name: "Chat.ReadWrite", RequiredApproverIDs: []string{"security-team"}},
}
