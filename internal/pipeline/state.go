package pipeline

import (
	"github.com/toyz/kiln/internal/annotations"
	"github.com/toyz/kiln/internal/errors"
)

// State is the progress of one matched declaration through its orchestrator.
type State int

const (
	Scanning State = iota
	Classifying
	Validating
	Naming
	Emitting
	Done
	Rejected
)

func (s State) String() string {
	switch s {
	case Scanning:
		return "scanning"
	case Classifying:
		return "classifying"
	case Validating:
		return "validating"
	case Naming:
		return "naming"
	case Emitting:
		return "emitting"
	case Done:
		return "done"
	case Rejected:
		return "rejected"
	}
	return "unknown"
}

// Terminal reports whether no further transition is allowed.
func (s State) Terminal() bool {
	return s == Done || s == Rejected
}

var transitions = map[State][]State{
	Scanning:    {Classifying},
	Classifying: {Validating},
	Validating:  {Naming, Rejected},
	Naming:      {Emitting},
	Emitting:    {Done},
}

// machine tracks one declaration. Illegal transitions are defects in the
// orchestrator, never user errors.
type machine struct {
	family annotations.Family
	target string
	state  State
}

func newMachine(family annotations.Family, target string) *machine {
	return &machine{family: family, target: target, state: Scanning}
}

func (m *machine) advance(to State) error {
	for _, next := range transitions[m.state] {
		if next == to {
			m.state = to
			return nil
		}
	}
	return errors.Internal("%s orchestrator moved %s from %s to %s", m.family, m.target, m.state, to)
}
