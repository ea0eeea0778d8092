package workflow

import "fmt"

// Transition applies an action to a permission's approval state and returns
// the resulting state. It is pure: on error the input state is returned
// unchanged and nothing is mutated.
//
// Allowed transitions:
//
//	Pending   -- Approve (by current stage) --> Pending at next stage, or
//	                                            Approved when no next stage
//	Pending   -- Deny (by current stage)    --> Denied
//	Approved  -- Implement                  --> Implemented
//	Denied    -- Revise                     --> Pending at first stage
func Transition(s State, a Action) (State, error) {
	switch a.Kind {
	case ActionApprove:
		if s.Phase != PhasePending {
			return s, fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, a.Kind, s.Phase)
		}
		if a.ActorID != s.CurrentStage {
			return s, fmt.Errorf("%w: actor %s, current stage %s", ErrNotCurrentApprover, a.ActorID, s.CurrentStage)
		}
		if a.NextStage == "" {
			return ApprovedBy(a.ActorID), nil
		}
		return PendingAt(a.NextStage), nil

	case ActionDeny:
		if s.Phase != PhasePending {
			return s, fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, a.Kind, s.Phase)
		}
		if a.ActorID != s.CurrentStage {
			return s, fmt.Errorf("%w: actor %s, current stage %s", ErrNotCurrentApprover, a.ActorID, s.CurrentStage)
		}
		return DeniedByStage(a.ActorID), nil

	case ActionImplement:
		if s.Phase != PhaseApproved {
			return s, fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, a.Kind, s.Phase)
		}
		return Implemented(), nil

	case ActionRevise:
		if s.Phase != PhaseDenied {
			return s, fmt.Errorf("%w: %s in phase %s", ErrInvalidTransition, a.Kind, s.Phase)
		}
		return PendingAt(a.FirstStage), nil

	default:
		return s, fmt.Errorf("%w: unknown action %s", ErrInvalidTransition, a.Kind)
	}
}
