// Package bus implements the shared snooping bus that serializes
// coherence transactions and models their timing.
//
// The bus owns a FIFO of queued messages and processes one transaction
// at a time. When a message wins arbitration the bus fans it out to
// every other live controller in the same cycle, gathers their snoop
// replies, and arms two countdown timers: memory latency for the
// transaction itself and, if a peer supplies the block, the
// cache-to-cache transfer (one cycle per byte of the block). The initiator's completion is delivered the
// cycle the earlier timer expires; the bus stays busy until the memory
// timer drains either way.
//
// The three protocols share this skeleton and differ only in
// arbitration: which transaction kinds exist, how bytes and
// invalidations are accounted, and Dragon's same-cycle BusUpd.
package bus

import (
	"fmt"

	"github.com/ehrlich-b/go-snoopsim/internal/coherence"
	"github.com/ehrlich-b/go-snoopsim/internal/constants"
	"github.com/ehrlich-b/go-snoopsim/internal/interfaces"
	"github.com/ehrlich-b/go-snoopsim/internal/logging"
)

// arbiter is the protocol-specific half of the bus: it processes a
// freshly dequeued message (fanout, accounting, timer arming).
type arbiter interface {
	arbitrate(b *Bus, m *coherence.Message)
}

// Bus is the shared bus for one simulation. It is driven by Tick once
// per cycle after all processors have ticked.
type Bus struct {
	blockSize   int
	arb         arbiter
	obs         interfaces.BusObserver
	logger      interfaces.Logger
	controllers []coherence.Snooper

	queue  []*coherence.Message
	active *coherence.Message

	// countdown timers; -1 means idle
	countdownMemory int
	countdownCache  int
}

func newBus(blockSize int, arb arbiter, obs interfaces.BusObserver) *Bus {
	return &Bus{
		blockSize:       blockSize,
		arb:             arb,
		obs:             obs,
		logger:          logging.Default(),
		countdownMemory: -1,
		countdownCache:  -1,
	}
}

// NewMSI creates a bus arbitrating MSI transactions. obs may be nil.
func NewMSI(blockSize int, obs interfaces.BusObserver) *Bus {
	return newBus(blockSize, msiArbiter{}, obs)
}

// NewMESI creates a bus arbitrating MESI transactions. obs may be nil.
func NewMESI(blockSize int, obs interfaces.BusObserver) *Bus {
	return newBus(blockSize, mesiArbiter{}, obs)
}

// NewDragon creates a bus arbitrating Dragon transactions. obs may be nil.
func NewDragon(blockSize int, obs interfaces.BusObserver) *Bus {
	return newBus(blockSize, dragonArbiter{}, obs)
}

// Attach registers a controller for snoop fanout. Fanout order follows
// attachment order, which keeps runs deterministic.
func (b *Bus) Attach(c coherence.Snooper) {
	b.controllers = append(b.controllers, c)
}

// Queue enqueues a message. Implements coherence.Bus.
func (b *Bus) Queue(m *coherence.Message) {
	b.queue = append(b.queue, m)
}

// Busy reports whether a transaction is in flight or waiting.
func (b *Bus) Busy() bool {
	return b.countdownMemory >= 0 || len(b.queue) > 0
}

// Tick advances the bus by one cycle.
func (b *Bus) Tick() {
	if b.countdownMemory >= 0 {
		if b.countdownCache >= 0 {
			if b.countdownCache == 0 {
				// cache-to-cache transfer done; the timer is only
				// armed for kinds that carry a completion
				b.complete(b.active)
				b.active = nil
				b.countdownCache--
				b.countdownMemory--
				return
			}
			b.countdownCache--
		}
		if b.countdownMemory == 0 {
			if b.active != nil && b.active.Kind != coherence.BusWB {
				b.complete(b.active)
			}
			b.active = nil
			// a cache countdown longer than the memory latency must
			// not bleed into the next transaction
			b.countdownCache = -1
		}
		b.countdownMemory--
		return
	}

	if len(b.queue) == 0 {
		return
	}
	m := b.queue[0]
	b.queue = b.queue[1:]
	b.active = m
	b.logger.Debug("arbitrate", "kind", m.Kind, "sender", m.Sender, "addr", m.Addr)
	b.arb.arbitrate(b, m)
}

// armMemory starts the main-memory countdown for the active message.
func (b *Bus) armMemory() {
	b.countdownMemory = constants.MemLatency - 1
}

// armCache starts the cache-to-cache countdown for the active message.
func (b *Bus) armCache() {
	b.countdownCache = b.blockSize - 1
}

// complete delivers the initiator-bound reply.
func (b *Bus) complete(m *coherence.Message) {
	for _, c := range b.controllers {
		if c.CoreID() == m.Sender {
			c.Complete(m)
			return
		}
	}
	panic(fmt.Sprintf("bus: no controller for sender %d", m.Sender))
}

// fanout snoops every other live controller in attachment order and
// aggregates the replies. When breakOnFlush is set the first flusher
// ends the fanout: exactly one peer supplies the block, and controllers
// after it do not observe the transaction this cycle.
func (b *Bus) fanout(m *coherence.Message, breakOnFlush bool) coherence.SnoopReply {
	var agg coherence.SnoopReply
	for _, c := range b.controllers {
		if c.CoreID() == m.Sender || c.Retired() {
			continue
		}
		reply := c.Snoop(m)
		agg.Shared = agg.Shared || reply.Shared
		if reply.Flush {
			agg.Flush = true
			agg.Shared = true
			if breakOnFlush {
				return agg
			}
		}
	}
	return agg
}

func (b *Bus) accountBytes(n int) {
	if b.obs != nil {
		b.obs.ObserveBusBytes(uint64(n))
	}
}

func (b *Bus) accountInvalidation() {
	if b.obs != nil {
		b.obs.ObserveInvalidation()
	}
}

func (b *Bus) accountWriteback() {
	if b.obs != nil {
		b.obs.ObserveWriteback()
	}
}
