package workflow

// Phase identifies the lifecycle phase of a single permission's approval chain
type Phase string

const (
	PhasePending     Phase = "PENDING"
	PhaseApproved    Phase = "APPROVED"
	PhaseDenied      Phase = "DENIED"
	PhaseImplemented Phase = "IMPLEMENTED"
)

var validPhases = map[Phase]bool{
	PhasePending:     true,
	PhaseApproved:    true,
	PhaseDenied:      true,
	PhaseImplemented: true,
}

// IsValid returns true if the phase is a valid workflow phase
func (p Phase) IsValid() bool {
	return validPhases[p]
}

// IsTerminal returns true if no further transitions are allowed from the
// phase. Denied is not terminal: a revision may reopen it.
func (p Phase) IsTerminal() bool {
	return p == PhaseImplemented
}

// String returns the string representation of the phase
func (p Phase) String() string {
	return string(p)
}

// State is the tagged approval state of one permission. The payload fields
// are only meaningful for the phases that carry them.
type State struct {
	Phase Phase

	// CurrentStage is the approver whose turn it is (Pending), or the final
	// approver that settled the chain (Approved).
	CurrentStage string

	// DeniedBy is the approver that denied the permission (Denied only).
	DeniedBy string
}

// PendingAt returns a pending state awaiting the given approver
func PendingAt(stage string) State {
	return State{Phase: PhasePending, CurrentStage: stage}
}

// ApprovedBy returns an approved state settled by the given final approver
func ApprovedBy(finalStage string) State {
	return State{Phase: PhaseApproved, CurrentStage: finalStage}
}

// DeniedByStage returns a denied state attributed to the given approver
func DeniedByStage(stage string) State {
	return State{Phase: PhaseDenied, CurrentStage: stage, DeniedBy: stage}
}

// Implemented returns the terminal implemented state
func Implemented() State {
	return State{Phase: PhaseImplemented}
}
