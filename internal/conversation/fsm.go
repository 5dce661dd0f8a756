// Package conversation implements the booking dialog driven by inbound chat messages.
package conversation

import (
	"fmt"

	"barbershop/internal/model"
)

// stateNone stands for "no record": before the first message and after a cancellation.
const stateNone model.State = ""

// FSM holds the allowed transitions of the booking dialog.
type FSM struct {
	transitions map[model.State][]model.State
}

func NewFSM() *FSM {
	return &FSM{
		transitions: map[model.State][]model.State{
			stateNone:                 {model.StateAwaitingName},
			model.StateAwaitingName:   {model.StateAwaitingTime},
			model.StateAwaitingTime:   {model.StateHasAppointment},
			model.StateHasAppointment: {stateNone},
		},
	}
}

// CanTransition checks if transition is allowed.
func (f *FSM) CanTransition(from, to model.State) bool {
	for _, s := range f.transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}

// Check returns an error for a transition the dialog does not allow.
func (f *FSM) Check(from, to model.State) error {
	if !f.CanTransition(from, to) {
		return fmt.Errorf("invalid transition %q -> %q", from, to)
	}
	return nil
}
