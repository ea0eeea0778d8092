package workflow

import (
	"errors"
	"testing"
)

func TestPhase_IsTerminal(t *testing.T) {
	tests := []struct {
		phase    Phase
		expected bool
	}{
		{PhasePending, false},
		{PhaseApproved, false},
		{PhaseDenied, false},
		{PhaseImplemented, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.phase), func(t *testing.T) {
			if got := tt.phase.IsTerminal(); got != tt.expected {
				t.Errorf("Phase.IsTerminal() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestPhase_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		phase    Phase
		expected bool
	}{
		{"pending", PhasePending, true},
		{"implemented", PhaseImplemented, true},
		{"invalid phase", Phase("INVALID"), false},
		{"empty phase", Phase(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.phase.IsValid(); got != tt.expected {
				t.Errorf("Phase.IsValid() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestTransition_ApproveAdvancesStage(t *testing.T) {
	state := PendingAt("biz-approver")

	next, err := Transition(state, Approve("biz-approver", "tech-approver"))
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if next.Phase != PhasePending {
		t.Errorf("Phase = %s, want %s", next.Phase, PhasePending)
	}
	if next.CurrentStage != "tech-approver" {
		t.Errorf("CurrentStage = %s, want tech-approver", next.CurrentStage)
	}
}

func TestTransition_FinalApproveSettlesChain(t *testing.T) {
	state := PendingAt("tech-approver")

	next, err := Transition(state, Approve("tech-approver", ""))
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if next.Phase != PhaseApproved {
		t.Errorf("Phase = %s, want %s", next.Phase, PhaseApproved)
	}
	if next.CurrentStage != "tech-approver" {
		t.Errorf("CurrentStage = %s, want tech-approver (terminal marker)", next.CurrentStage)
	}
}

func TestTransition_DenyStopsChain(t *testing.T) {
	state := PendingAt("tech-approver")

	next, err := Transition(state, Deny("tech-approver"))
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if next.Phase != PhaseDenied {
		t.Errorf("Phase = %s, want %s", next.Phase, PhaseDenied)
	}
	if next.DeniedBy != "tech-approver" {
		t.Errorf("DeniedBy = %s, want tech-approver", next.DeniedBy)
	}
}

func TestTransition_WrongActorRejected(t *testing.T) {
	state := PendingAt("biz-approver")

	for _, action := range []Action{
		Approve("tech-approver", ""),
		Deny("tech-approver"),
	} {
		got, err := Transition(state, action)
		if !errors.Is(err, ErrNotCurrentApprover) {
			t.Errorf("Transition(%s) error = %v, want ErrNotCurrentApprover", action.Kind, err)
		}
		if got != state {
			t.Errorf("Transition(%s) mutated state on error", action.Kind)
		}
	}
}

func TestTransition_InvalidTransitions(t *testing.T) {
	tests := []struct {
		name   string
		state  State
		action Action
	}{
		{"approve approved", ApprovedBy("tech-approver"), Approve("tech-approver", "")},
		{"approve denied", DeniedByStage("tech-approver"), Approve("tech-approver", "")},
		{"approve implemented", Implemented(), Approve("tech-approver", "")},
		{"deny approved", ApprovedBy("tech-approver"), Deny("tech-approver")},
		{"deny implemented", Implemented(), Deny("tech-approver")},
		{"implement pending", PendingAt("biz-approver"), Implement()},
		{"implement denied", DeniedByStage("tech-approver"), Implement()},
		{"implement twice", Implemented(), Implement()},
		{"revise pending", PendingAt("biz-approver"), Revise("biz-approver")},
		{"revise approved", ApprovedBy("tech-approver"), Revise("biz-approver")},
		{"revise implemented", Implemented(), Revise("biz-approver")},
		{"unknown action", PendingAt("biz-approver"), Action{Kind: ActionKind("BOGUS")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Transition(tt.state, tt.action)
			if !errors.Is(err, ErrInvalidTransition) {
				t.Errorf("Transition() error = %v, want ErrInvalidTransition", err)
			}
			if got != tt.state {
				t.Error("Transition() mutated state on error")
			}
		})
	}
}

func TestTransition_ImplementFromApproved(t *testing.T) {
	next, err := Transition(ApprovedBy("impl-team"), Implement())
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if next.Phase != PhaseImplemented {
		t.Errorf("Phase = %s, want %s", next.Phase, PhaseImplemented)
	}
}

func TestTransition_ReviseReopensDenied(t *testing.T) {
	next, err := Transition(DeniedByStage("tech-approver"), Revise("biz-approver"))
	if err != nil {
		t.Fatalf("Transition() error = %v", err)
	}
	if next.Phase != PhasePending {
		t.Errorf("Phase = %s, want %s", next.Phase, PhasePending)
	}
	if next.CurrentStage != "biz-approver" {
		t.Errorf("CurrentStage = %s, want biz-approver", next.CurrentStage)
	}
	if next.DeniedBy != "" {
		t.Errorf("DeniedBy = %s, want cleared", next.DeniedBy)
	}
}
