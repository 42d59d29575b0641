package graphicsstate

import (
	"errors"

	"github.com/tsawler/pdfbatch/model"
)

// ErrStackUnderflow is returned by Restore without a matching Save.
var ErrStackUnderflow = errors.New("graphics state stack underflow")

// State is the part of the PDF graphics state that affects where paths land.
type State struct {
	CTM       model.Matrix
	LineWidth float64
}

// DefaultState returns the state at the start of a content stream.
func DefaultState() State {
	return State{CTM: model.Identity(), LineWidth: 1}
}

// Stack holds the current state and the states saved by q.
type Stack struct {
	current State
	saved   []State
}

// NewStack returns a stack holding DefaultState.
func NewStack() *Stack {
	return &Stack{current: DefaultState()}
}

// Current returns the active state.
func (s *Stack) Current() State {
	return s.current
}

// Save pushes the active state (q).
func (s *Stack) Save() {
	s.saved = append(s.saved, s.current)
}

// Restore pops the last saved state (Q).
func (s *Stack) Restore() error {
	n := len(s.saved)
	if n == 0 {
		return ErrStackUnderflow
	}
	s.current = s.saved[n-1]
	s.saved = s.saved[:n-1]
	return nil
}

// Depth returns the number of saved states.
func (s *Stack) Depth() int {
	return len(s.saved)
}

// Concat prepends m to the CTM (cm).
func (s *Stack) Concat(m model.Matrix) {
	s.current.CTM = m.Multiply(s.current.CTM)
}

// SetLineWidth sets the stroke width in user space (w).
func (s *Stack) SetLineWidth(width float64) {
	s.current.LineWidth = width
}
