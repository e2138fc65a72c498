package bus

import (
	"fmt"

	"github.com/ehrlich-b/go-snoopsim/internal/coherence"
)

// mesiArbiter arbitrates MESI transactions. BusRd fanout additionally
// aggregates the share status so the initiator can pick between Shared
// and Exclusive on completion.
type mesiArbiter struct{}

func (mesiArbiter) arbitrate(b *Bus, m *coherence.Message) {
	switch m.Kind {
	case coherence.BusRd:
		b.accountBytes(b.blockSize)
		reply := b.fanout(m, true)
		m.Shared = reply.Shared
		if reply.Flush {
			b.armCache()
		}
		b.armMemory()
	case coherence.BusRdX:
		b.accountBytes(b.blockSize)
		b.accountInvalidation()
		if reply := b.fanout(m, true); reply.Flush {
			b.armCache()
		}
		b.armMemory()
	case coherence.BusWB:
		b.accountBytes(b.blockSize)
		b.armMemory()
	default:
		panic(fmt.Sprintf("bus: %s transaction on MESI bus", m.Kind))
	}
}
