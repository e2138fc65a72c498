// Package snoopsim simulates a shared-bus multiprocessor cache
// hierarchy, comparing snooping coherence protocols (MSI, MESI, Dragon)
// under recorded per-core memory reference traces.
//
// A simulation wires one set-associative cache and cache controller per
// core to a single shared bus. Each simulated cycle every processor
// ticks once in core order, then the bus ticks: processors replay their
// traces and stall on misses; the bus serializes one coherence
// transaction at a time and models memory and cache-to-cache transfer
// latency. The run produces per-core hit/miss and sharing statistics
// plus bus-level traffic counters.
package snoopsim

import (
	"context"
	"fmt"

	"github.com/ehrlich-b/go-snoopsim/internal/bus"
	"github.com/ehrlich-b/go-snoopsim/internal/cache"
	"github.com/ehrlich-b/go-snoopsim/internal/coherence"
	"github.com/ehrlich-b/go-snoopsim/internal/logging"
	"github.com/ehrlich-b/go-snoopsim/internal/processor"
	"github.com/ehrlich-b/go-snoopsim/internal/trace"
)

// Simulator owns the components of one simulation run.
type Simulator struct {
	cfg     Config
	logger  *logging.Logger
	metrics *Metrics

	bus         *bus.Bus
	controllers []coherence.Controller
	processors  []*processor.Processor
	readers     []*trace.Reader

	hasRun bool
}

// New builds a simulator for cfg, opening one trace file per core. It
// fails fast on configuration and trace-open errors; no partial
// simulation is left behind.
func New(cfg Config) (*Simulator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	s := &Simulator{
		cfg:     cfg,
		logger:  logging.Default(),
		metrics: NewMetrics(),
	}

	switch cfg.Protocol {
	case MSI:
		s.bus = bus.NewMSI(cfg.BlockSize, s.metrics)
	case MESI:
		s.bus = bus.NewMESI(cfg.BlockSize, s.metrics)
	case Dragon:
		s.bus = bus.NewDragon(cfg.BlockSize, s.metrics)
	}

	for core := 0; core < cfg.NumCores; core++ {
		r, err := trace.Open(trace.Path(cfg.TracePrefix, core))
		if err != nil {
			s.Close()
			return nil, NewCoreError("OPEN_TRACE", core, ErrCodeTraceOpen, err)
		}
		s.readers = append(s.readers, r)

		store := cache.NewStore(cfg.CacheSize, cfg.BlockSize, cfg.Assoc, cache.Invalid)
		var ctrl coherence.Controller
		switch cfg.Protocol {
		case MSI:
			ctrl = coherence.NewMSI(core, s.bus, store)
		case MESI:
			ctrl = coherence.NewMESI(core, s.bus, store)
		case Dragon:
			ctrl = coherence.NewDragon(core, s.bus, store)
		}
		s.bus.Attach(ctrl)
		s.controllers = append(s.controllers, ctrl)
		s.processors = append(s.processors, processor.New(core, r, ctrl, s.logger.WithCore(core)))
	}

	s.logger.Info("simulator ready",
		"protocol", cfg.Protocol, "cores", cfg.NumCores,
		"cache_size", cfg.CacheSize, "block_size", cfg.BlockSize,
		"assoc", cfg.Assoc, "sets", cfg.NumSets())
	return s, nil
}

// Run drives the simulation to completion and returns the collected
// statistics. A simulator runs once. Cancellation stops the run between
// cycles and returns the context's error.
func (s *Simulator) Run(ctx context.Context) (*Result, error) {
	if s.hasRun {
		return nil, NewError("RUN", ErrCodeAlreadyRun, "Run called twice")
	}
	s.hasRun = true
	defer s.Close()

	running := len(s.processors)
	retired := make([]bool, len(s.processors))

	for running > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for core, p := range s.processors {
			if retired[core] {
				continue
			}
			if !p.Tick() {
				retired[core] = true
				s.controllers[core].Retire()
				running--
				if err := p.Err(); err != nil {
					s.logger.WithError(err).Warn("core aborted on malformed trace", "core", core)
				} else {
					s.logger.Debug("core finished", "core", core, "cycles", p.Cycles())
				}
			}
		}
		s.bus.Tick()
	}

	return s.collect(), nil
}

// Close releases the trace readers. Run closes them itself; Close is
// for simulators that were built but never run.
func (s *Simulator) Close() error {
	var firstErr error
	for _, r := range s.readers {
		if err := r.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	s.readers = nil
	return firstErr
}

func (s *Simulator) collect() *Result {
	res := &Result{
		Config: s.cfg,
		Bus:    s.metrics.Snapshot(),
	}
	for core, ctrl := range s.controllers {
		stats := ctrl.Stats()
		p := s.processors[core]
		cr := CoreResult{
			Core:            core,
			Hits:            stats.Hits,
			Misses:          stats.Misses,
			PrivateAccesses: stats.PrivateAccesses,
			SharedAccesses:  stats.SharedAccesses,
			WriteLatency:    p.WriteLatency(),
			Writes:          p.Writes(),
			Cycles:          p.Cycles(),
		}
		if err := p.Err(); err != nil {
			cr.Incomplete = true
			cr.Err = NewCoreError("RUN", core, ErrCodeTraceFormat, err)
		}
		res.Cores = append(res.Cores, cr)
	}
	return res
}

// String describes the simulator configuration.
func (s *Simulator) String() string {
	return fmt.Sprintf("snoopsim(%s, %d cores, %dB cache)", s.cfg.Protocol, s.cfg.NumCores, s.cfg.CacheSize)
}
