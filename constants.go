package snoopsim

import "github.com/ehrlich-b/go-snoopsim/internal/constants"

// Re-export constants for public API
const (
	MemLatency       = constants.MemLatency
	WordSize         = constants.WordSize
	DefaultCacheSize = constants.DefaultCacheSize
	DefaultBlockSize = constants.DefaultBlockSize
	DefaultAssoc     = constants.DefaultAssoc
	DefaultNumCores  = constants.DefaultNumCores
)
