package coherence

import (
	"fmt"

	"github.com/ehrlich-b/go-snoopsim/internal/cache"
	"github.com/ehrlich-b/go-snoopsim/internal/interfaces"
	"github.com/ehrlich-b/go-snoopsim/internal/logging"
)

// pending is the one outstanding bus transaction a controller can have.
// The processor stalls on a miss, so a single slot replaces a request
// table; upgraded records a Dragon write miss that has fetched the block
// and is waiting on its follow-on BusUpd.
type pending struct {
	addr     uint64
	kind     Kind
	origin   Origin
	upgraded bool
	done     func()
}

// controller holds the state and behavior shared by every protocol:
// cache ownership, counters, the pending slot, and the dirty-eviction
// writeback rule.
type controller struct {
	id      int
	bus     Bus
	store   *cache.Store
	logger  interfaces.Logger
	pending *pending
	retired bool
	stats   Stats
}

func newController(id int, bus Bus, store *cache.Store) controller {
	return controller{
		id:     id,
		bus:    bus,
		store:  store,
		logger: logging.Default().WithCore(id),
	}
}

func (c *controller) CoreID() int { return c.id }

func (c *controller) Retired() bool { return c.retired }

func (c *controller) Retire() { c.retired = true }

func (c *controller) Stats() Stats { return c.stats }

// send queues a transaction for this controller's own processor request
// and arms the pending slot.
func (c *controller) send(kind Kind, addr uint64, origin Origin, done func()) {
	if c.pending != nil {
		panic(fmt.Sprintf("coherence: core %d queued %s with transaction already outstanding", c.id, kind))
	}
	c.pending = &pending{addr: addr, kind: kind, origin: origin, done: done}
	c.logger.Debug("queue", "kind", kind, "addr", addr)
	c.bus.Queue(&Message{Kind: kind, Sender: c.id, Addr: addr, Origin: origin})
}

// take consumes the pending slot for a completed transaction.
func (c *controller) take(m *Message) *pending {
	p := c.pending
	if p == nil {
		panic(fmt.Sprintf("coherence: core %d completed %s with no outstanding transaction", c.id, m.Kind))
	}
	if p.addr != m.Addr || p.kind != m.Kind {
		panic(fmt.Sprintf("coherence: core %d completed %s addr %d, outstanding %s addr %d",
			c.id, m.Kind, m.Addr, p.kind, p.addr))
	}
	c.pending = nil
	return p
}

// install writes the fetched block's state, queueing a writeback if the
// insertion evicted a dirty line. dirty is the protocol's dirty-state
// predicate (M, or M/Sm for Dragon).
func (c *controller) install(addr uint64, next cache.State, dirty func(cache.State) bool) {
	ev, evicted := c.store.SetState(addr, next)
	if evicted && dirty(ev.State) {
		c.logger.Debug("dirty eviction", "addr", ev.Addr, "state", ev.State)
		c.bus.Queue(&Message{Kind: BusWB, Sender: c.id, Addr: ev.Addr})
	}
}
