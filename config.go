package snoopsim

import (
	"fmt"
	"strings"

	"github.com/ehrlich-b/go-snoopsim/internal/constants"
)

// Protocol selects the coherence protocol a simulation runs.
type Protocol string

const (
	MSI    Protocol = "msi"
	MESI   Protocol = "mesi"
	Dragon Protocol = "dragon"
)

// ParseProtocol converts a user-supplied protocol name.
func ParseProtocol(s string) (Protocol, error) {
	switch Protocol(strings.ToLower(s)) {
	case MSI:
		return MSI, nil
	case MESI:
		return MESI, nil
	case Dragon:
		return Dragon, nil
	}
	return "", NewError("PARSE_PROTOCOL", ErrCodeUnknownProtocol, fmt.Sprintf("unrecognized protocol %q", s))
}

// Config describes one simulation run. Sizes are in bytes and must be
// powers of two; the word size is fixed at 4 bytes.
type Config struct {
	Protocol    Protocol
	TracePrefix string // trace files are <TracePrefix>_<core>.data
	CacheSize   int
	BlockSize   int
	Assoc       int
	NumCores    int
}

// DefaultConfig returns a configuration with the default geometry.
// Protocol and TracePrefix must still be set.
func DefaultConfig() Config {
	return Config{
		CacheSize: constants.DefaultCacheSize,
		BlockSize: constants.DefaultBlockSize,
		Assoc:     constants.DefaultAssoc,
		NumCores:  constants.DefaultNumCores,
	}
}

// NumSets returns the number of cache sets the geometry produces.
func (c *Config) NumSets() int {
	return c.CacheSize / c.BlockSize / c.Assoc
}

// Validate checks the configuration, failing fast before any simulation
// state is built.
func (c *Config) Validate() error {
	const op = "VALIDATE_CONFIG"

	if _, err := ParseProtocol(string(c.Protocol)); err != nil {
		return err
	}
	if c.TracePrefix == "" {
		return NewError(op, ErrCodeInvalidParameters, "trace prefix is empty")
	}
	if c.NumCores < 1 {
		return NewError(op, ErrCodeInvalidParameters, fmt.Sprintf("core count %d, want at least 1", c.NumCores))
	}
	if !isPowerOfTwo(c.CacheSize) || !isPowerOfTwo(c.BlockSize) || !isPowerOfTwo(c.Assoc) {
		return NewError(op, ErrCodeInvalidGeometry,
			fmt.Sprintf("cache size %d, block size %d and associativity %d must be powers of two",
				c.CacheSize, c.BlockSize, c.Assoc))
	}
	if c.BlockSize < constants.WordSize {
		return NewError(op, ErrCodeInvalidGeometry,
			fmt.Sprintf("block size %d is smaller than the %d-byte word", c.BlockSize, constants.WordSize))
	}
	if c.CacheSize < c.BlockSize*c.Assoc {
		return NewError(op, ErrCodeInvalidGeometry,
			fmt.Sprintf("cache size %d cannot hold %d ways of %d-byte blocks", c.CacheSize, c.Assoc, c.BlockSize))
	}
	return nil
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
