package entity

import "time"

// HistoryEntry is one immutable line of the audit trail. Entries are keyed on
// the acting approver's stable identity; Stage carries the role label for
// display only. Origin distinguishes human decisions from system-generated
// entries (resubmission markers, bulk implementation).
type HistoryEntry struct {
	ApproverID string    `json:"approver_id,omitempty"` // empty for system entries
	Stage      string    `json:"stage"`                 // approver role or "System"
	Status     string    `json:"status"`
	Origin     string    `json:"origin"`
	Timestamp  time.Time `json:"timestamp"`
	Comment    string    `json:"comment,omitempty"`
}

// NewSystemEntry builds a system-authored history entry.
func NewSystemEntry(status, comment string) HistoryEntry {
	return HistoryEntry{
		Stage:     SystemStage,
		Status:    status,
		Origin:    OriginSystem,
		Timestamp: time.Now().UTC(),
		Comment:   comment,
	}
}

// NewApproverEntry builds a history entry recording an approver's decision.
func NewApproverEntry(approver Approver, status, comment string) HistoryEntry {
	return HistoryEntry{
		ApproverID: approver.ID,
		Stage:      approver.Role,
		Status:     status,
		Origin:     OriginHuman,
		Timestamp:  time.Now().UTC(),
		Comment:    comment,
	}
}
