// Package interfaces provides internal interface definitions for go-snoopsim.
// These are separate from the public interfaces to avoid circular imports
// between the main package and internal packages.
package interfaces

// Logger interface for optional logging.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// BusObserver receives bus-level accounting events during a run.
// The bus tick is single-threaded; implementations that are shared across
// concurrently running simulations must be thread-safe.
type BusObserver interface {
	// ObserveBusBytes records n bytes moved across the bus.
	ObserveBusBytes(n uint64)
	// ObserveInvalidation records one invalidating or updating
	// transaction (BusRdX, or BusUpd under Dragon).
	ObserveInvalidation()
	// ObserveWriteback records one BusWB won arbitration. Only the
	// Dragon bus reports writebacks; the MSI and MESI buses do not.
	ObserveWriteback()
}
