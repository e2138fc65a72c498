// Package cache implements the set-associative block store backing each
// cache controller.
//
// The store is protocol ignorant: it maps addresses to coherence states
// without interpreting them, and only compares against the configured
// default state to decide whether a line exists. Replacement is strict
// LRU per set: position 0 of a set is the least recently used line, the
// last position the most recently used.
package cache

import "fmt"

// State is a coherence state as stored per cache line. The full alphabet
// covers every supported protocol; each controller uses its own subset.
type State uint8

const (
	// Invalid marks a block that is not present. Lines are never stored
	// in this state; it doubles as the store's default state.
	Invalid State = iota
	// Shared (MSI/MESI)
	Shared
	// Exclusive (MESI/Dragon)
	Exclusive
	// Modified (all protocols)
	Modified
	// SharedClean (Dragon)
	SharedClean
	// SharedModified (Dragon)
	SharedModified
)

func (s State) String() string {
	switch s {
	case Invalid:
		return "I"
	case Shared:
		return "S"
	case Exclusive:
		return "E"
	case Modified:
		return "M"
	case SharedClean:
		return "Sc"
	case SharedModified:
		return "Sm"
	}
	return fmt.Sprintf("State(%d)", uint8(s))
}

// Evicted describes a line pushed out of a full set.
type Evicted struct {
	Addr  uint64
	State State
}

type line struct {
	tag   uint64
	state State
}

// Store holds (tag, state) lines grouped into sets. Sets are created
// lazily on first insertion and each holds at most assoc lines.
type Store struct {
	blockSize    uint64
	assoc        int
	numSets      uint64
	defaultState State
	sets         map[uint64][]line
}

// NewStore creates a store for the given geometry. Sizes are in bytes and
// must divide evenly; the caller validates them.
func NewStore(cacheSize, blockSize, assoc int, defaultState State) *Store {
	return &Store{
		blockSize:    uint64(blockSize),
		assoc:        assoc,
		numSets:      uint64(cacheSize / blockSize / assoc),
		defaultState: defaultState,
		sets:         make(map[uint64][]line),
	}
}

// NumSets returns the number of sets in the store.
func (s *Store) NumSets() int {
	return int(s.numSets)
}

// decompose splits an address into its set index and tag. The block
// offset bits are discarded; the simulator never tracks data values.
func (s *Store) decompose(addr uint64) (index, tag uint64) {
	block := addr / s.blockSize
	return block % s.numSets, block / s.numSets
}

// blockAddr reconstructs the base address of the block identified by
// (tag, index).
func (s *Store) blockAddr(tag, index uint64) uint64 {
	return (tag*s.numSets + index) * s.blockSize
}

// GetState returns the state of the block containing addr, promoting the
// line to most recently used on a hit. A block that is not present
// reports the default state; the set is not created.
func (s *Store) GetState(addr uint64) State {
	index, tag := s.decompose(addr)
	set := s.sets[index]
	for i, ln := range set {
		if ln.tag == tag {
			if i != len(set)-1 {
				copy(set[i:], set[i+1:])
				set[len(set)-1] = ln
			}
			return ln.state
		}
	}
	return s.defaultState
}

// SetState sets or replaces the state of the block containing addr and
// promotes the line to most recently used. Setting the default state
// removes the line instead; a line is never stored in the default state.
// When an insertion overflows a full set the least recently used line is
// evicted and returned.
func (s *Store) SetState(addr uint64, next State) (Evicted, bool) {
	index, tag := s.decompose(addr)
	set := s.sets[index]

	for i, ln := range set {
		if ln.tag == tag {
			if next == s.defaultState {
				s.sets[index] = append(set[:i], set[i+1:]...)
				return Evicted{}, false
			}
			copy(set[i:], set[i+1:])
			set[len(set)-1] = line{tag: tag, state: next}
			return Evicted{}, false
		}
	}

	// Tag absent: transitions to the default state do not materialize a line.
	if next == s.defaultState {
		return Evicted{}, false
	}

	if len(set) < s.assoc {
		s.sets[index] = append(set, line{tag: tag, state: next})
		return Evicted{}, false
	}

	victim := set[0]
	copy(set, set[1:])
	set[len(set)-1] = line{tag: tag, state: next}
	return Evicted{
		Addr:  s.blockAddr(victim.tag, index),
		State: victim.state,
	}, true
}
