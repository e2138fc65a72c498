package coherence

import "github.com/ehrlich-b/go-snoopsim/internal/cache"

// Dragon is an update-based protocol: writes to shared blocks broadcast
// the new word with BusUpd instead of invalidating other copies. A write
// miss is a two-phase sequence: a BusRd fetches the block, and if any
// other cache holds it, a follow-on BusUpd propagates the write before
// the block is installed as SharedModified.
type Dragon struct {
	controller
}

// NewDragon creates a Dragon controller for core id backed by store.
func NewDragon(id int, bus Bus, store *cache.Store) *Dragon {
	return &Dragon{controller: newController(id, bus, store)}
}

func (c *Dragon) PrRd(addr uint64, done func()) {
	switch c.store.GetState(addr) {
	case cache.Invalid:
		c.stats.Misses++
		c.send(BusRd, addr, FromRead, done)
		return
	case cache.SharedClean, cache.SharedModified:
		c.stats.Hits++
		c.stats.SharedAccesses++
	case cache.Exclusive, cache.Modified:
		c.stats.Hits++
		c.stats.PrivateAccesses++
	}
	done()
}

func (c *Dragon) PrWr(addr uint64, done func()) {
	switch c.store.GetState(addr) {
	case cache.Invalid:
		c.stats.Misses++
		c.send(BusRd, addr, FromWrite, done)
		return
	case cache.SharedClean, cache.SharedModified:
		// hit, but the word must go on the bus; whether the block ends
		// up Sm or M depends on whether any sharer remains
		c.stats.Hits++
		c.send(BusUpd, addr, OriginNone, done)
		return
	case cache.Exclusive:
		c.store.SetState(addr, cache.Modified)
		c.stats.Hits++
		c.stats.PrivateAccesses++
	case cache.Modified:
		c.stats.Hits++
		c.stats.PrivateAccesses++
	}
	done()
}

func (c *Dragon) Snoop(m *Message) SnoopReply {
	state := c.store.GetState(m.Addr)
	switch m.Kind {
	case BusRd:
		switch state {
		case cache.Exclusive:
			c.store.SetState(m.Addr, cache.SharedClean)
			return SnoopReply{Shared: true}
		case cache.SharedClean:
			return SnoopReply{Shared: true}
		case cache.SharedModified:
			// owner keeps responsibility for the dirty block
			return SnoopReply{Flush: true, Shared: true}
		case cache.Modified:
			c.store.SetState(m.Addr, cache.SharedModified)
			return SnoopReply{Flush: true, Shared: true}
		}
	case BusUpd:
		// E/M copies cannot observe an update: any BusRd by the writer
		// would already have downgraded them
		switch state {
		case cache.SharedModified:
			c.store.SetState(m.Addr, cache.SharedClean)
			return SnoopReply{Shared: true}
		case cache.SharedClean:
			return SnoopReply{Shared: true}
		}
	}
	return SnoopReply{}
}

func (c *Dragon) Complete(m *Message) {
	p := c.take(m)
	switch m.Kind {
	case BusRd:
		if p.origin == FromWrite {
			if m.Shared {
				// phase two: the block stays uninstalled until the
				// update round-trips the bus
				p.kind = BusUpd
				p.upgraded = true
				c.pending = p
				c.bus.Queue(&Message{Kind: BusUpd, Sender: c.id, Addr: m.Addr})
				return
			}
			c.install(m.Addr, cache.Modified, dragonDirty)
			c.stats.PrivateAccesses++
		} else {
			if m.Shared {
				c.install(m.Addr, cache.SharedClean, dragonDirty)
				c.stats.SharedAccesses++
			} else {
				c.install(m.Addr, cache.Exclusive, dragonDirty)
				c.stats.PrivateAccesses++
			}
		}
	case BusUpd:
		if p.upgraded {
			// completing a write-miss sequence
			c.install(m.Addr, cache.SharedModified, dragonDirty)
			c.stats.SharedAccesses++
		} else if m.Shared {
			c.install(m.Addr, cache.SharedModified, dragonDirty)
			c.stats.SharedAccesses++
		} else {
			// last sharer disappeared; the write owns the block
			c.install(m.Addr, cache.Modified, dragonDirty)
			c.stats.PrivateAccesses++
		}
	}
	p.done()
}

func dragonDirty(s cache.State) bool {
	return s == cache.Modified || s == cache.SharedModified
}
