package workflow

// ActionKind represents an event that can cause a state transition
type ActionKind string

const (
	ActionApprove   ActionKind = "APPROVE"
	ActionDeny      ActionKind = "DENY"
	ActionImplement ActionKind = "IMPLEMENT"
	ActionRevise    ActionKind = "REVISE"
)

// String returns the string representation of the action kind
func (k ActionKind) String() string {
	return string(k)
}

// Action carries an event and the data the transition needs.
type Action struct {
	Kind ActionKind

	// ActorID is the approver taking the action (Approve, Deny).
	ActorID string

	// NextStage is the approver after the actor in the resolved chain
	// (Approve only); empty means the actor is the last approver.
	NextStage string

	// FirstStage is the first approver of the chain, the stage a revision
	// resets to (Revise only).
	FirstStage string
}

// Approve builds an approve action by the given actor, advancing to next
// (empty next settles the chain).
func Approve(actorID, nextStage string) Action {
	return Action{Kind: ActionApprove, ActorID: actorID, NextStage: nextStage}
}

// Deny builds a deny action by the given actor.
func Deny(actorID string) Action {
	return Action{Kind: ActionDeny, ActorID: actorID}
}

// Implement builds the bulk-implementation action.
func Implement() Action {
	return Action{Kind: ActionImplement}
}

// Revise builds a revision action resetting the chain to its first approver.
func Revise(firstStage string) Action {
	return Action{Kind: ActionRevise, FirstStage: firstStage}
}
