// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package pipeline

import (
	"errors"
	"fmt"
)

// ErrInvalidTransition is returned when a pass runs out of order.
var ErrInvalidTransition = errors.New("pipeline: invalid state transition")

// State is the per-frame state of a Pipeline.
type State int

const (
	// StateIdle means no frame has started yet.
	StateIdle State = iota

	// StateCapturing means the target layer is being rendered.
	StateCapturing

	// StatePremultiplying means the premultiply pass is running.
	StatePremultiplying

	// StateDownscaling means a box-filter pass is running.
	StateDownscaling

	// StateExpanding means an edge-expand pass is running.
	StateExpanding

	// StateReady means the last pass holds the mosaic texture.
	StateReady

	// StateDiscarded means the frame is over and pass contents are gone.
	StateDiscarded
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "Idle"
	case StateCapturing:
		return "Capturing"
	case StatePremultiplying:
		return "Premultiplying"
	case StateDownscaling:
		return "Downscaling"
	case StateExpanding:
		return "Expanding"
	case StateReady:
		return "Ready"
	case StateDiscarded:
		return "Discarded"
	default:
		return fmt.Sprintf("Unknown(%d)", int(s))
	}
}

// transitions lists the states reachable from each state. Downscaling and
// Expanding repeat once per pass.
var transitions = map[State][]State{
	StateIdle:           {StateCapturing},
	StateCapturing:      {StatePremultiplying, StateDownscaling, StateExpanding, StateReady},
	StatePremultiplying: {StateDownscaling, StateExpanding, StateReady},
	StateDownscaling:    {StateDownscaling, StateExpanding, StateReady},
	StateExpanding:      {StateExpanding, StateReady},
	StateReady:          {StateDiscarded},
	StateDiscarded:      {StateCapturing},
}

// CanTransition reports whether to may follow from.
func CanTransition(from, to State) bool {
	for _, s := range transitions[from] {
		if s == to {
			return true
		}
	}
	return false
}
