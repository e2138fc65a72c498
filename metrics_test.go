package snoopsim

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMetricsObservation(t *testing.T) {
	m := NewMetrics()

	m.ObserveBusBytes(16)
	m.ObserveBusBytes(4)
	m.ObserveInvalidation()
	m.ObserveWriteback()
	m.ObserveWriteback()

	snap := m.Snapshot()
	assert.Equal(t, uint64(20), snap.BusBytes)
	assert.Equal(t, uint64(1), snap.Invalidations)
	assert.Equal(t, uint64(2), snap.Evictions)
}

func TestMetricsSnapshotIsCopy(t *testing.T) {
	m := NewMetrics()
	m.ObserveBusBytes(8)

	snap := m.Snapshot()
	m.ObserveBusBytes(8)
	assert.Equal(t, uint64(8), snap.BusBytes)
	assert.Equal(t, uint64(16), m.Snapshot().BusBytes)
}
