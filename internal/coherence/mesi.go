package coherence

import "github.com/ehrlich-b/go-snoopsim/internal/cache"

// MESI extends MSI with an Exclusive state: a read miss that no other
// cache can serve installs as Exclusive, and a later write upgrades
// E to M silently, without bus traffic.
type MESI struct {
	controller
}

// NewMESI creates a MESI controller for core id backed by store.
func NewMESI(id int, bus Bus, store *cache.Store) *MESI {
	return &MESI{controller: newController(id, bus, store)}
}

func (c *MESI) PrRd(addr uint64, done func()) {
	switch c.store.GetState(addr) {
	case cache.Invalid:
		// shared/private classification waits for the completion,
		// which knows whether any other cache held the block
		c.stats.Misses++
		c.send(BusRd, addr, OriginNone, done)
		return
	case cache.Shared:
		c.stats.Hits++
		c.stats.SharedAccesses++
	case cache.Exclusive, cache.Modified:
		c.stats.Hits++
		c.stats.PrivateAccesses++
	}
	done()
}

func (c *MESI) PrWr(addr uint64, done func()) {
	switch c.store.GetState(addr) {
	case cache.Invalid, cache.Shared:
		c.stats.Misses++
		c.stats.PrivateAccesses++
		c.send(BusRdX, addr, OriginNone, done)
		return
	case cache.Exclusive:
		// silent upgrade
		c.store.SetState(addr, cache.Modified)
		c.stats.Hits++
		c.stats.PrivateAccesses++
	case cache.Modified:
		c.stats.Hits++
		c.stats.PrivateAccesses++
	}
	done()
}

func (c *MESI) Snoop(m *Message) SnoopReply {
	state := c.store.GetState(m.Addr)
	switch m.Kind {
	case BusRd:
		switch state {
		case cache.Modified:
			c.store.SetState(m.Addr, cache.Shared)
			return SnoopReply{Flush: true, Shared: true}
		case cache.Exclusive:
			// clean copy: downgrade and report shared, memory supplies
			// the data
			c.store.SetState(m.Addr, cache.Shared)
			return SnoopReply{Shared: true}
		case cache.Shared:
			return SnoopReply{Shared: true}
		}
	case BusRdX:
		switch state {
		case cache.Modified, cache.Exclusive:
			c.store.SetState(m.Addr, cache.Invalid)
			return SnoopReply{Flush: true}
		case cache.Shared:
			c.store.SetState(m.Addr, cache.Invalid)
		}
	}
	return SnoopReply{}
}

func (c *MESI) Complete(m *Message) {
	p := c.take(m)
	switch m.Kind {
	case BusRd:
		if m.Shared {
			c.install(m.Addr, cache.Shared, mesiDirty)
			c.stats.SharedAccesses++
		} else {
			c.install(m.Addr, cache.Exclusive, mesiDirty)
			c.stats.PrivateAccesses++
		}
	case BusRdX:
		c.install(m.Addr, cache.Modified, mesiDirty)
	}
	p.done()
}

func mesiDirty(s cache.State) bool { return s == cache.Modified }
