package entity

// Status constants for a Request and for each PermissionApproval
const (
	StatusPending     = "PENDING"
	StatusApproved    = "APPROVED"
	StatusDenied      = "DENIED"
	StatusImplemented = "IMPLEMENTED"
)

// History action constants recorded in HistoryEntry.Status
const (
	HistoryPending     = "PENDING"
	HistoryApproved    = "APPROVED"
	HistoryDenied      = "DENIED"
	HistoryImplemented = "IMPLEMENTED"
	HistoryResubmitted = "RESUBMITTED"
	HistoryRevision    = "REVISION"
)

// Origin constants for HistoryEntry.Origin
const (
	OriginHuman  = "HUMAN"
	OriginSystem = "SYSTEM"
)

// SystemStage is recorded as the stage label for entries not authored by an approver
const SystemStage = "System"

// View status constants returned when deriving an approver's effective status
// for display (a permission chain rendered as a progress bar)
const (
	ViewPending  = "PENDING"
	ViewCurrent  = "CURRENT"
	ViewApproved = "APPROVED"
	ViewDenied   = "DENIED"
)
