package alloc

// DetachGuard holds a reference to an Allocator and calls Detach on scope
// exit unless Release was called first, so a half-successful attach never
// leaves the allocator attached (spec.md §5).
type DetachGuard struct {
	a        *Allocator
	released bool
}

// NewDetachGuard wraps a.
func NewDetachGuard(a *Allocator) *DetachGuard {
	return &DetachGuard{a: a}
}

// Release disarms the guard; its Close becomes a no-op.
func (g *DetachGuard) Release() {
	g.released = true
}

// Close detaches the allocator unless Release was called. Safe to call
// multiple times.
func (g *DetachGuard) Close() {
	if g.released || g.a == nil {
		return
	}
	g.a.Detach()
	g.released = true
}
