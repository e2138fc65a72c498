package constants

// Simulation timing constants
//
// The bus charges every block-granularity transaction (BusRd, BusRdX,
// BusWB) the full memory latency; a cache-to-cache transfer takes one
// cycle per byte of the block, and the initiator completes at whichever
// of the two finishes first. A BusUpd carries a single
// word and completes in the cycle it wins arbitration.
const (
	// MemLatency is the cost in cycles of a main-memory access.
	MemLatency = 100

	// WordSize is the machine word size in bytes. A BusUpd transaction
	// moves exactly one word on the bus.
	WordSize = 4
)

// Default simulation configuration constants
const (
	// DefaultCacheSize is the default per-core cache size in bytes
	DefaultCacheSize = 1024

	// DefaultBlockSize is the default cache block size in bytes
	DefaultBlockSize = 16

	// DefaultAssoc is the default set associativity
	DefaultAssoc = 1

	// DefaultNumCores is the default number of simulated cores
	DefaultNumCores = 4

	// DefaultSweepWorkers is the default concurrency for parameter sweeps
	DefaultSweepWorkers = 4
)
