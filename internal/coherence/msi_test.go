package coherence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-snoopsim/internal/cache"
)

// fakeBus records queued messages without processing them.
type fakeBus struct {
	queued []*Message
}

func (f *fakeBus) Queue(m *Message) { f.queued = append(f.queued, m) }

func (f *fakeBus) pop(t *testing.T) *Message {
	t.Helper()
	require.NotEmpty(t, f.queued)
	m := f.queued[0]
	f.queued = f.queued[1:]
	return m
}

// callback tracks whether the processor was resumed.
type callback struct{ fired int }

func (cb *callback) fn() func() {
	return func() { cb.fired++ }
}

func newMSI(t *testing.T) (*MSI, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	return NewMSI(0, bus, cache.NewStore(1024, 16, 1, cache.Invalid)), bus
}

func TestMSIReadMiss(t *testing.T) {
	c, bus := newMSI(t)
	var cb callback

	c.PrRd(0x40, cb.fn())
	assert.Zero(t, cb.fired, "miss must not resume the processor")

	m := bus.pop(t)
	assert.Equal(t, BusRd, m.Kind)
	assert.Equal(t, uint64(0x40), m.Addr)

	c.Complete(m)
	assert.Equal(t, 1, cb.fired)
	assert.Equal(t, cache.Shared, c.store.GetState(0x40))
	assert.Equal(t, Stats{Misses: 1, SharedAccesses: 1}, c.Stats())
}

func TestMSIReadHits(t *testing.T) {
	c, _ := newMSI(t)
	var cb callback

	c.store.SetState(0x40, cache.Shared)
	c.PrRd(0x40, cb.fn())
	assert.Equal(t, 1, cb.fired)
	assert.Equal(t, Stats{Hits: 1, SharedAccesses: 1}, c.Stats())

	c.store.SetState(0x80, cache.Modified)
	c.PrRd(0x80, cb.fn())
	assert.Equal(t, 2, cb.fired)
	assert.Equal(t, Stats{Hits: 2, SharedAccesses: 1, PrivateAccesses: 1}, c.Stats())
}

func TestMSIWriteFromShared(t *testing.T) {
	// S is not writable under MSI: a store must reacquire ownership
	c, bus := newMSI(t)
	var cb callback

	c.store.SetState(0x40, cache.Shared)
	c.PrWr(0x40, cb.fn())
	assert.Zero(t, cb.fired)

	m := bus.pop(t)
	assert.Equal(t, BusRdX, m.Kind)

	c.Complete(m)
	assert.Equal(t, cache.Modified, c.store.GetState(0x40))
	assert.Equal(t, Stats{Misses: 1, PrivateAccesses: 1}, c.Stats())
}

func TestMSIWriteHitModified(t *testing.T) {
	c, bus := newMSI(t)
	var cb callback

	c.store.SetState(0x40, cache.Modified)
	c.PrWr(0x40, cb.fn())
	assert.Equal(t, 1, cb.fired)
	assert.Empty(t, bus.queued)
	assert.Equal(t, Stats{Hits: 1, PrivateAccesses: 1}, c.Stats())
}

func TestMSISnoopBusRd(t *testing.T) {
	c, _ := newMSI(t)

	// Invalid: nothing to contribute
	reply := c.Snoop(&Message{Kind: BusRd, Sender: 1, Addr: 0x40})
	assert.Equal(t, SnoopReply{}, reply)

	// Shared holder reports shared, no flush
	c.store.SetState(0x40, cache.Shared)
	reply = c.Snoop(&Message{Kind: BusRd, Sender: 1, Addr: 0x40})
	assert.Equal(t, SnoopReply{Shared: true}, reply)
	assert.Equal(t, cache.Shared, c.store.GetState(0x40))

	// Modified holder flushes and downgrades
	c.store.SetState(0x80, cache.Modified)
	reply = c.Snoop(&Message{Kind: BusRd, Sender: 1, Addr: 0x80})
	assert.Equal(t, SnoopReply{Flush: true, Shared: true}, reply)
	assert.Equal(t, cache.Shared, c.store.GetState(0x80))
}

func TestMSISnoopBusRdX(t *testing.T) {
	c, _ := newMSI(t)

	c.store.SetState(0x40, cache.Shared)
	reply := c.Snoop(&Message{Kind: BusRdX, Sender: 1, Addr: 0x40})
	assert.Equal(t, SnoopReply{}, reply)
	assert.Equal(t, cache.Invalid, c.store.GetState(0x40))

	c.store.SetState(0x80, cache.Modified)
	reply = c.Snoop(&Message{Kind: BusRdX, Sender: 1, Addr: 0x80})
	assert.Equal(t, SnoopReply{Flush: true}, reply)
	assert.Equal(t, cache.Invalid, c.store.GetState(0x80))
}

func TestMSIDirtyEvictionQueuesWriteback(t *testing.T) {
	c, bus := newMSI(t)
	var cb callback

	// fill set 0 of the direct-mapped cache with a dirty line
	c.PrWr(0, cb.fn())
	c.Complete(bus.pop(t))
	require.Equal(t, cache.Modified, c.store.GetState(0))

	// conflicting read miss evicts it on completion
	c.PrRd(1024, cb.fn())
	m := bus.pop(t)
	require.Equal(t, BusRd, m.Kind)
	c.Complete(m)

	wb := bus.pop(t)
	assert.Equal(t, BusWB, wb.Kind)
	assert.Equal(t, uint64(0), wb.Addr)
	assert.Equal(t, cache.Invalid, c.store.GetState(0))
	assert.Equal(t, cache.Shared, c.store.GetState(1024))
}

func TestMSICleanEvictionNoWriteback(t *testing.T) {
	c, bus := newMSI(t)
	var cb callback

	c.PrRd(0, cb.fn())
	c.Complete(bus.pop(t))

	c.PrRd(1024, cb.fn())
	c.Complete(bus.pop(t))
	assert.Empty(t, bus.queued, "evicting a Shared line must not write back")
}

func TestMSICompleteWithoutOutstandingPanics(t *testing.T) {
	c, _ := newMSI(t)
	assert.Panics(t, func() {
		c.Complete(&Message{Kind: BusRd, Sender: 0, Addr: 0x40})
	})
}

func TestMSIDoubleSendPanics(t *testing.T) {
	c, _ := newMSI(t)
	var cb callback
	c.PrRd(0x40, cb.fn())
	assert.Panics(t, func() {
		c.PrRd(0x80, cb.fn())
	})
}
