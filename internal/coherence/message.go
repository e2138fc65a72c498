// Package coherence implements the per-core cache controllers for the
// MSI, MESI and Dragon snooping protocols.
//
// Controllers translate processor reads and writes into cache state
// transitions and bus transactions, and answer bus snoops for
// transactions initiated by other cores. A controller never blocks: a
// miss queues a message and returns, and the stored completion callback
// fires when the bus delivers the transaction back to the initiator.
package coherence

import "fmt"

// Kind identifies a bus transaction type.
type Kind uint8

const (
	// BusRd requests a block for reading (all protocols).
	BusRd Kind = iota
	// BusRdX requests a block for exclusive ownership, invalidating
	// other copies (MSI, MESI).
	BusRdX
	// BusUpd broadcasts a written word to other sharers (Dragon).
	BusUpd
	// BusWB writes a dirty block back to memory. Writebacks carry no
	// completion; the bus consumes them.
	BusWB
)

func (k Kind) String() string {
	switch k {
	case BusRd:
		return "BusRd"
	case BusRdX:
		return "BusRdX"
	case BusUpd:
		return "BusUpd"
	case BusWB:
		return "BusWB"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Origin is the Dragon-only hint recording which processor operation
// produced a BusRd, so the initiator knows how to install the block when
// the transaction completes.
type Origin uint8

const (
	OriginNone Origin = iota
	FromRead
	FromWrite
)

// Message is one bus transaction. The bus owns a message once queued;
// Shared is filled in by the bus during fanout and is only meaningful on
// the initiator-bound completion.
type Message struct {
	Kind   Kind
	Sender int
	Addr   uint64
	Origin Origin
	Shared bool
}

// SnoopReply is a non-initiator controller's answer to a snooped
// transaction. Flush signals that this cache supplies the block in a
// cache-to-cache transfer; Shared signals that this cache holds a valid
// copy.
type SnoopReply struct {
	Flush  bool
	Shared bool
}

// Bus is the controllers' handle for queueing transactions.
type Bus interface {
	Queue(*Message)
}

// Snooper is the bus-facing side of a cache controller.
type Snooper interface {
	// CoreID returns the owning core's id, which doubles as the
	// message sender id.
	CoreID() int
	// Snoop reacts to a transaction initiated by another controller.
	Snoop(*Message) SnoopReply
	// Complete delivers the initiator-bound reply for this
	// controller's outstanding transaction and resumes the processor.
	Complete(*Message)
	// Retired reports whether the owning core has finished its trace.
	// Retired controllers are skipped during fanout.
	Retired() bool
}

// Stats are the per-core access counters a controller maintains.
type Stats struct {
	Hits            uint64
	Misses          uint64
	PrivateAccesses uint64
	SharedAccesses  uint64
}

// Controller is the full per-core controller surface: the bus side plus
// the processor side and lifecycle.
type Controller interface {
	Snooper
	// PrRd handles a processor load. On a hit done runs synchronously;
	// on a miss it is deferred until the bus completes the fetch.
	PrRd(addr uint64, done func())
	// PrWr handles a processor store with the same discipline as PrRd.
	PrWr(addr uint64, done func())
	// Retire marks the owning core as finished.
	Retire()
	// Stats returns the counters accumulated so far.
	Stats() Stats
}
