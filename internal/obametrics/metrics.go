// Package obametrics exposes Prometheus metrics for the allocator. All
// methods are nil-safe so components can hold a *Allocator metrics field
// that is nil when metrics are disabled.
package obametrics

import "github.com/prometheus/client_golang/prometheus"

// Allocator groups the counters and gauges the slab allocator updates.
type Allocator struct {
	AllocTotal      prometheus.Counter
	FreeTotal       prometheus.Counter
	ReallocTotal    prometheus.Counter
	SlabGrowthTotal prometheus.Counter
	InvalidTotal    prometheus.Counter

	FreeSpaceBytes prometheus.Gauge
	SlabBytes      prometheus.Gauge
	SlabCount      prometheus.Gauge
}

// NewAllocator creates and, if reg is non-nil, registers allocator metrics
// under the given namespace/subsystem.
func NewAllocator(reg prometheus.Registerer, namespace string) *Allocator {
	m := &Allocator{
		AllocTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "alloc_total",
			Help:      "Total number of successful alloc calls.",
		}),
		FreeTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "free_total",
			Help:      "Total number of free calls.",
		}),
		ReallocTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "realloc_total",
			Help:      "Total number of realloc calls.",
		}),
		SlabGrowthTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "slab_growth_total",
			Help:      "Total number of slabs appended due to free-space exhaustion.",
		}),
		InvalidTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "free_space_invalid_total",
			Help:      "Total number of transitions of free-space state into Invalid.",
		}),
		FreeSpaceBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "free_space_bytes",
			Help:      "Total bytes currently tracked across both free lists.",
		}),
		SlabBytes: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "slab_bytes",
			Help:      "Total bytes owned across all slabs.",
		}),
		SlabCount: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "alloc",
			Name:      "slab_count",
			Help:      "Current number of slabs.",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.AllocTotal, m.FreeTotal, m.ReallocTotal, m.SlabGrowthTotal, m.InvalidTotal,
			m.FreeSpaceBytes, m.SlabBytes, m.SlabCount,
		)
	}
	return m
}

// IncAlloc records a successful alloc call.
func (m *Allocator) IncAlloc() {
	if m == nil {
		return
	}
	m.AllocTotal.Inc()
}

// IncFree records a free call.
func (m *Allocator) IncFree() {
	if m == nil {
		return
	}
	m.FreeTotal.Inc()
}

// IncRealloc records a realloc call.
func (m *Allocator) IncRealloc() {
	if m == nil {
		return
	}
	m.ReallocTotal.Inc()
}

// IncSlabGrowth records a new slab being appended.
func (m *Allocator) IncSlabGrowth() {
	if m == nil {
		return
	}
	m.SlabGrowthTotal.Inc()
}

// IncInvalid records a transition of free-space state into Invalid.
func (m *Allocator) IncInvalid() {
	if m == nil {
		return
	}
	m.InvalidTotal.Inc()
}

// SetGauges updates the point-in-time gauges.
func (m *Allocator) SetGauges(freeSpaceBytes, slabBytes, slabCount int) {
	if m == nil {
		return
	}
	m.FreeSpaceBytes.Set(float64(freeSpaceBytes))
	m.SlabBytes.Set(float64(slabBytes))
	m.SlabCount.Set(float64(slabCount))
}
