package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when an action is not allowed in the
	// current phase
	ErrInvalidTransition = errors.New("invalid approval state transition")

	// ErrNotCurrentApprover is returned when the acting approver does not
	// hold the permission's current stage
	ErrNotCurrentApprover = errors.New("approver is not the current stage")
)
