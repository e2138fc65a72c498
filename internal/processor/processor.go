// Package processor models a trace-driven core.
//
// A processor replays its recorded instruction stream one tick at a
// time. Memory references go to the cache controller; the processor
// stalls until the controller's callback fires, which happens in the
// same call for a hit and cycles later for a miss. Compute bursts burn
// cycles locally.
package processor

import (
	"errors"
	"io"

	"github.com/ehrlich-b/go-snoopsim/internal/trace"
)

// CacheController is the processor-facing side of a cache controller.
type CacheController interface {
	PrRd(addr uint64, done func())
	PrWr(addr uint64, done func())
}

// Processor replays one core's trace against its cache controller.
type Processor struct {
	core   int
	trace  *trace.Reader
	ctrl   CacheController
	logger interface {
		Debug(msg string, args ...any)
	}

	stalled   bool
	countdown uint64 // compute cycles remaining
	cycles    uint64

	writes       uint64
	writeLatency uint64
	writeStart   uint64
	writePending bool

	finished bool
	err      error
}

// New creates a processor for core that reads r and issues memory
// references to ctrl.
func New(core int, r *trace.Reader, ctrl CacheController, logger interface {
	Debug(msg string, args ...any)
}) *Processor {
	return &Processor{core: core, trace: r, ctrl: ctrl, logger: logger}
}

// Tick advances the core by one cycle. It returns false once the trace
// is exhausted or fails; the core is then retired and must not be
// ticked again.
func (p *Processor) Tick() bool {
	if p.finished {
		return false
	}
	p.cycles++

	if p.countdown > 0 {
		p.countdown--
		return true
	}
	if p.stalled {
		return true
	}

	in, err := p.trace.Next()
	if errors.Is(err, io.EOF) {
		p.finished = true
		return false
	}
	if err != nil {
		p.err = err
		p.finished = true
		return false
	}

	p.logger.Debug("issue", "op", in.Op, "operand", in.Operand, "cycle", p.cycles)
	switch in.Op {
	case trace.Compute:
		if in.Operand > 0 {
			p.countdown = in.Operand - 1
		}
	case trace.Load:
		p.stalled = true
		p.ctrl.PrRd(in.Operand, p.resume)
	case trace.Store:
		p.stalled = true
		p.writes++
		p.writeStart = p.cycles
		p.writePending = true
		p.ctrl.PrWr(in.Operand, p.resume)
	}
	return true
}

// resume is the controller's callback: it clears the stall and closes
// out write-latency accounting. A write that hits resolves within its
// own cycle and contributes zero latency.
func (p *Processor) resume() {
	p.stalled = false
	if p.writePending {
		p.writeLatency += p.cycles - p.writeStart
		p.writePending = false
	}
}

// Cycles returns the number of cycles the core has run.
func (p *Processor) Cycles() uint64 { return p.cycles }

// Writes returns the number of stores issued.
func (p *Processor) Writes() uint64 { return p.writes }

// WriteLatency returns the cycles spent stalled on stores.
func (p *Processor) WriteLatency() uint64 { return p.writeLatency }

// Err returns the trace error that stopped the core, if any.
func (p *Processor) Err() error { return p.err }
