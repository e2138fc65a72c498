package bus

import (
	"fmt"

	"github.com/ehrlich-b/go-snoopsim/internal/coherence"
	"github.com/ehrlich-b/go-snoopsim/internal/constants"
)

// dragonArbiter arbitrates Dragon transactions. BusUpd moves a single
// word, queries every sharer (no early exit: each sharer must observe
// the update), and completes in the same cycle it wins arbitration.
// Writebacks are counted as evictions.
type dragonArbiter struct{}

func (dragonArbiter) arbitrate(b *Bus, m *coherence.Message) {
	switch m.Kind {
	case coherence.BusRd:
		b.accountBytes(b.blockSize)
		reply := b.fanout(m, true)
		m.Shared = reply.Shared
		if reply.Flush {
			b.armCache()
		}
		b.armMemory()
	case coherence.BusUpd:
		b.accountBytes(constants.WordSize)
		b.accountInvalidation()
		reply := b.fanout(m, false)
		m.Shared = reply.Shared
		b.complete(m)
		b.active = nil
	case coherence.BusWB:
		b.accountBytes(b.blockSize)
		b.accountWriteback()
		b.armMemory()
	default:
		panic(fmt.Sprintf("bus: %s transaction on Dragon bus", m.Kind))
	}
}
