package coherence

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ehrlich-b/go-snoopsim/internal/cache"
)

func newDragon(t *testing.T) (*Dragon, *fakeBus) {
	t.Helper()
	bus := &fakeBus{}
	return NewDragon(0, bus, cache.NewStore(1024, 16, 1, cache.Invalid)), bus
}

func TestDragonReadMiss(t *testing.T) {
	c, bus := newDragon(t)
	var cb callback

	c.PrRd(0x40, cb.fn())
	m := bus.pop(t)
	require.Equal(t, BusRd, m.Kind)
	assert.Equal(t, FromRead, m.Origin)

	m.Shared = true
	c.Complete(m)
	assert.Equal(t, cache.SharedClean, c.store.GetState(0x40))
	assert.Equal(t, Stats{Misses: 1, SharedAccesses: 1}, c.Stats())
}

func TestDragonReadMissExclusive(t *testing.T) {
	c, bus := newDragon(t)
	var cb callback

	c.PrRd(0x40, cb.fn())
	m := bus.pop(t)
	m.Shared = false
	c.Complete(m)
	assert.Equal(t, cache.Exclusive, c.store.GetState(0x40))
	assert.Equal(t, Stats{Misses: 1, PrivateAccesses: 1}, c.Stats())
}

func TestDragonWriteMissUnshared(t *testing.T) {
	c, bus := newDragon(t)
	var cb callback

	c.PrWr(0x40, cb.fn())
	m := bus.pop(t)
	require.Equal(t, BusRd, m.Kind)
	assert.Equal(t, FromWrite, m.Origin)

	m.Shared = false
	c.Complete(m)
	assert.Equal(t, 1, cb.fired)
	assert.Equal(t, cache.Modified, c.store.GetState(0x40))
	assert.Equal(t, Stats{Misses: 1, PrivateAccesses: 1}, c.Stats())
}

func TestDragonWriteMissSharedTwoPhase(t *testing.T) {
	c, bus := newDragon(t)
	var cb callback

	c.PrWr(0x40, cb.fn())
	m := bus.pop(t)
	require.Equal(t, BusRd, m.Kind)

	// a sharer exists: the fetch must chain into a BusUpd before the
	// block is installed
	m.Shared = true
	c.Complete(m)
	assert.Zero(t, cb.fired, "processor must stay stalled through phase two")
	assert.Equal(t, cache.Invalid, c.store.GetState(0x40))

	upd := bus.pop(t)
	require.Equal(t, BusUpd, upd.Kind)
	upd.Shared = true
	c.Complete(upd)
	assert.Equal(t, 1, cb.fired)
	assert.Equal(t, cache.SharedModified, c.store.GetState(0x40))
	assert.Equal(t, Stats{Misses: 1, SharedAccesses: 1}, c.Stats())
}

func TestDragonWriteHitSharedClean(t *testing.T) {
	c, bus := newDragon(t)
	var cb callback

	c.store.SetState(0x40, cache.SharedClean)
	c.PrWr(0x40, cb.fn())
	assert.Zero(t, cb.fired, "shared write hits still round-trip the bus")

	m := bus.pop(t)
	require.Equal(t, BusUpd, m.Kind)

	m.Shared = true
	c.Complete(m)
	assert.Equal(t, 1, cb.fired)
	assert.Equal(t, cache.SharedModified, c.store.GetState(0x40))
	assert.Equal(t, Stats{Hits: 1, SharedAccesses: 1}, c.Stats())
}

func TestDragonWriteHitLastSharerGone(t *testing.T) {
	c, bus := newDragon(t)
	var cb callback

	c.store.SetState(0x40, cache.SharedModified)
	c.PrWr(0x40, cb.fn())

	m := bus.pop(t)
	m.Shared = false
	c.Complete(m)
	assert.Equal(t, cache.Modified, c.store.GetState(0x40))
	assert.Equal(t, Stats{Hits: 1, PrivateAccesses: 1}, c.Stats())
}

func TestDragonWriteHitExclusive(t *testing.T) {
	c, bus := newDragon(t)
	var cb callback

	c.store.SetState(0x40, cache.Exclusive)
	c.PrWr(0x40, cb.fn())

	assert.Equal(t, 1, cb.fired)
	assert.Empty(t, bus.queued, "E to M transition stays off the bus")
	assert.Equal(t, cache.Modified, c.store.GetState(0x40))
	assert.Equal(t, Stats{Hits: 1, PrivateAccesses: 1}, c.Stats())
}

func TestDragonSnoopBusRd(t *testing.T) {
	cases := []struct {
		name  string
		state cache.State
		want  SnoopReply
		after cache.State
	}{
		{"invalid", cache.Invalid, SnoopReply{}, cache.Invalid},
		{"exclusive", cache.Exclusive, SnoopReply{Shared: true}, cache.SharedClean},
		{"shared clean", cache.SharedClean, SnoopReply{Shared: true}, cache.SharedClean},
		{"shared modified", cache.SharedModified, SnoopReply{Flush: true, Shared: true}, cache.SharedModified},
		{"modified", cache.Modified, SnoopReply{Flush: true, Shared: true}, cache.SharedModified},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newDragon(t)
			c.store.SetState(0x40, tc.state)
			reply := c.Snoop(&Message{Kind: BusRd, Sender: 1, Addr: 0x40})
			assert.Equal(t, tc.want, reply)
			assert.Equal(t, tc.after, c.store.GetState(0x40))
		})
	}
}

func TestDragonSnoopBusUpd(t *testing.T) {
	cases := []struct {
		name  string
		state cache.State
		want  SnoopReply
		after cache.State
	}{
		{"invalid", cache.Invalid, SnoopReply{}, cache.Invalid},
		{"shared clean", cache.SharedClean, SnoopReply{Shared: true}, cache.SharedClean},
		{"shared modified", cache.SharedModified, SnoopReply{Shared: true}, cache.SharedClean},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, _ := newDragon(t)
			c.store.SetState(0x40, tc.state)
			reply := c.Snoop(&Message{Kind: BusUpd, Sender: 1, Addr: 0x40})
			assert.Equal(t, tc.want, reply)
			assert.Equal(t, tc.after, c.store.GetState(0x40))
		})
	}
}

func TestDragonSharedModifiedEvictionWritesBack(t *testing.T) {
	c, bus := newDragon(t)
	var cb callback

	c.store.SetState(0, cache.SharedModified)
	c.PrRd(1024, cb.fn())
	m := bus.pop(t)
	m.Shared = false
	c.Complete(m)

	wb := bus.pop(t)
	assert.Equal(t, BusWB, wb.Kind)
	assert.Equal(t, uint64(0), wb.Addr)
}
