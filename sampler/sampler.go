// Package sampler implements the closed sum type of stationary-Richardson
// samplers whose Markov chains have the target Gaussian as their stationary
// distribution: MCSOR, Cholesky, and the Hogwild smoother. multigrid builds
// on top of these same types. Every concrete sampler satisfies Sampler.
package sampler

import (
	"github.com/nfriess-labs/gmrfsample/gmerrors"
	"github.com/nfriess-labs/gmrfsample/ziggurat"
)

// Callback is invoked once per Apply with the iteration index, the current
// sample, and the opaque user state registered alongside it.
type Callback func(it int, y []float64, state any) error

// Deleter releases the resources owned by a callback's user state. It runs
// exactly once, when the callback is replaced or when CallbackSlot.Clear is
// called. The samplers have no teardown method, so a state still registered
// when its sampler is dropped is never passed to its deleter.
type Deleter func(state any)

// CallbackSlot holds at most one callback and its user state, enforcing the
// ownership-transfer invariant: setting a new callback on a slot that
// already holds one first runs the old state's deleter.
type CallbackSlot struct {
	cb      Callback
	state   any
	deleter Deleter
	armed   bool
}

// Set installs cb with the given user state and deleter, running the
// previous deleter (if any) first. A nil deleter is allowed when the state
// needs no cleanup.
func (s *CallbackSlot) Set(cb Callback, state any, deleter Deleter) {
	s.Clear()
	s.cb = cb
	s.state = state
	s.deleter = deleter
	s.armed = true
}

// Clear runs the current deleter, if any, and empties the slot.
func (s *CallbackSlot) Clear() {
	if s.armed && s.deleter != nil {
		s.deleter(s.state)
	}
	s.cb = nil
	s.state = nil
	s.deleter = nil
	s.armed = false
}

// Fire invokes the registered callback, if any, returning nil when the slot
// is empty. A callback error is wrapped as a gmerrors Callback error, which
// keeps errors.Is working against the original cause.
func (s *CallbackSlot) Fire(it int, y []float64) error {
	if !s.armed {
		return nil
	}
	if err := s.cb(it, y, s.state); err != nil {
		return gmerrors.Callback(component, err)
	}
	return nil
}

// Sampler is the capability set every concrete sampler variant (MCSOR,
// Cholesky, Multigrid, Hogwild) implements: a closed sum type with inlined
// dispatch rather than an open inheritance hierarchy, per the design notes
// this module follows.
type Sampler interface {
	// Apply transforms y in place into the next state of the chain given
	// the fixed right-hand side b.
	Apply(b, y []float64) error
	// SetCallback installs or replaces the per-iteration callback.
	SetCallback(cb Callback, state any, deleter Deleter)
	// SetRNG installs the standard-normal source this sampler draws from.
	SetRNG(rng *ziggurat.RNG)
}
