package richardson

import "github.com/nfriess-labs/gmrfsample/gmerrors"

// QoI accumulates the scalar quantity of interest q = <m, x> for a fixed
// measurement vector m, one value per callback invocation, ready to be fed
// straight into package iact.
type QoI struct {
	m     []float64
	chain []float64
}

// NewQoI builds a QoI accumulator measured against the fixed vector m.
func NewQoI(m []float64) *QoI {
	return &QoI{m: m}
}

// Callback adapts Update to the richardson.Run/sampler.Callback signature.
func (q *QoI) Callback(it int, x []float64, state any) error {
	return q.Update(x)
}

// Update evaluates <m, x> and appends it to the chain.
func (q *QoI) Update(x []float64) error {
	if len(x) != len(q.m) {
		return gmerrors.Structuralf(component, "QoI.Update: expected length %d, got %d", len(q.m), len(x))
	}
	sum := 0.0
	for i, v := range x {
		sum += q.m[i] * v
	}
	q.chain = append(q.chain, sum)
	return nil
}

// Chain returns the accumulated scalar chain. The returned slice aliases
// internal state and must not be mutated by the caller.
func (q *QoI) Chain() []float64 { return q.chain }
