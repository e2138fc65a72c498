package bus

import (
	"fmt"

	"github.com/ehrlich-b/go-snoopsim/internal/coherence"
)

// msiArbiter arbitrates MSI transactions. Only a Modified holder ever
// flushes, and the initiator installs a fixed target state, so BusRd
// fanout does not need to aggregate a share status.
type msiArbiter struct{}

func (msiArbiter) arbitrate(b *Bus, m *coherence.Message) {
	switch m.Kind {
	case coherence.BusRd:
		b.accountBytes(b.blockSize)
		if reply := b.fanout(m, true); reply.Flush {
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
		panic(fmt.Sprintf("bus: %s transaction on MSI bus", m.Kind))
	}
}
