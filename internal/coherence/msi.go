package coherence

import "github.com/ehrlich-b/go-snoopsim/internal/cache"

// MSI is the three-state invalidation protocol. A write always acquires
// exclusive ownership via BusRdX, even from Shared.
type MSI struct {
	controller
}

// NewMSI creates an MSI controller for core id backed by store.
func NewMSI(id int, bus Bus, store *cache.Store) *MSI {
	return &MSI{controller: newController(id, bus, store)}
}

func (c *MSI) PrRd(addr uint64, done func()) {
	switch c.store.GetState(addr) {
	case cache.Invalid:
		c.stats.Misses++
		c.stats.SharedAccesses++
		c.send(BusRd, addr, OriginNone, done)
		return
	case cache.Shared:
		c.stats.Hits++
		c.stats.SharedAccesses++
	case cache.Modified:
		c.stats.Hits++
		c.stats.PrivateAccesses++
	}
	done()
}

func (c *MSI) PrWr(addr uint64, done func()) {
	switch c.store.GetState(addr) {
	case cache.Invalid, cache.Shared:
		c.stats.Misses++
		c.stats.PrivateAccesses++
		c.send(BusRdX, addr, OriginNone, done)
		return
	case cache.Modified:
		c.stats.Hits++
		c.stats.PrivateAccesses++
	}
	done()
}

func (c *MSI) Snoop(m *Message) SnoopReply {
	state := c.store.GetState(m.Addr)
	switch m.Kind {
	case BusRd:
		if state == cache.Modified {
			c.store.SetState(m.Addr, cache.Shared)
			return SnoopReply{Flush: true, Shared: true}
		}
		return SnoopReply{Shared: state == cache.Shared}
	case BusRdX:
		switch state {
		case cache.Shared:
			c.store.SetState(m.Addr, cache.Invalid)
		case cache.Modified:
			c.store.SetState(m.Addr, cache.Invalid)
			return SnoopReply{Flush: true}
		}
	}
	return SnoopReply{}
}

func (c *MSI) Complete(m *Message) {
	p := c.take(m)
	target := cache.Shared
	if m.Kind == BusRdX {
		target = cache.Modified
	}
	c.install(m.Addr, target, msiDirty)
	p.done()
}

func msiDirty(s cache.State) bool { return s == cache.Modified }
