package snoopsim

import "sync/atomic"

// Metrics tracks bus-level statistics for a simulation run. It
// implements the bus observer interface; the simulator attaches one
// Metrics per bus.
type Metrics struct {
	// BusBytes is the total data moved across the bus
	BusBytes atomic.Uint64

	// Invalidations counts invalidating or updating transactions:
	// BusRdX under MSI/MESI, BusUpd under Dragon
	Invalidations atomic.Uint64

	// Evictions counts writebacks that won bus arbitration; only the
	// Dragon bus reports them, so it stays zero for MSI and MESI runs
	Evictions atomic.Uint64
}

// NewMetrics creates a new metrics instance
func NewMetrics() *Metrics {
	return &Metrics{}
}

// ObserveBusBytes records n bytes moved across the bus
func (m *Metrics) ObserveBusBytes(n uint64) {
	m.BusBytes.Add(n)
}

// ObserveInvalidation records one invalidating/updating transaction
func (m *Metrics) ObserveInvalidation() {
	m.Invalidations.Add(1)
}

// ObserveWriteback records one writeback transaction
func (m *Metrics) ObserveWriteback() {
	m.Evictions.Add(1)
}

// MetricsSnapshot is a point-in-time copy of the counters
type MetricsSnapshot struct {
	BusBytes      uint64
	Invalidations uint64
	Evictions     uint64
}

// Snapshot returns a consistent copy of the current counters
func (m *Metrics) Snapshot() MetricsSnapshot {
	return MetricsSnapshot{
		BusBytes:      m.BusBytes.Load(),
		Invalidations: m.Invalidations.Load(),
		Evictions:     m.Evictions.Load(),
	}
}
