package snoopsim

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/olekukonko/tablewriter"
)

// CoreResult holds one core's statistics for a completed run.
type CoreResult struct {
	Core            int
	Hits            uint64
	Misses          uint64
	PrivateAccesses uint64
	SharedAccesses  uint64
	WriteLatency    uint64
	Writes          uint64
	Cycles          uint64

	// Incomplete marks a core whose trace failed mid-run; the counters
	// cover the instructions consumed before the failure.
	Incomplete bool
	Err        error
}

// Accesses returns the number of memory references the core made.
func (r CoreResult) Accesses() uint64 {
	return r.Hits + r.Misses
}

// MissRate returns misses over accesses, or 0 for a core that made no
// memory references.
func (r CoreResult) MissRate() float64 {
	if r.Accesses() == 0 {
		return 0
	}
	return float64(r.Misses) / float64(r.Accesses())
}

// AvgWriteLatency returns the mean store stall in cycles, or 0 for a
// core that never wrote.
func (r CoreResult) AvgWriteLatency() float64 {
	if r.Writes == 0 {
		return 0
	}
	return float64(r.WriteLatency) / float64(r.Writes)
}

// Result is the full outcome of one simulation run.
type Result struct {
	Config Config
	Cores  []CoreResult
	Bus    MetricsSnapshot
}

var csvHeader = []string{
	"core", "cache size", "miss count", "hit count", "miss rate",
	"private data accesses", "shared data accesses",
	"total write latency", "total writes", "avg write latency",
	"cycle count", "incomplete",
}

// WriteCSV appends the result to w: a header, one row per core, and one
// trailing row with the bus totals. The eviction column is only
// populated for Dragon runs.
func (r *Result) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range r.Cores {
		row := []string{
			strconv.Itoa(c.Core),
			strconv.Itoa(r.Config.CacheSize),
			strconv.FormatUint(c.Misses, 10),
			strconv.FormatUint(c.Hits, 10),
			fmt.Sprintf("%.6f", c.MissRate()),
			strconv.FormatUint(c.PrivateAccesses, 10),
			strconv.FormatUint(c.SharedAccesses, 10),
			strconv.FormatUint(c.WriteLatency, 10),
			strconv.FormatUint(c.Writes, 10),
			fmt.Sprintf("%.2f", c.AvgWriteLatency()),
			strconv.FormatUint(c.Cycles, 10),
			strconv.FormatBool(c.Incomplete),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	evictions := ""
	if r.Config.Protocol == Dragon {
		evictions = strconv.FormatUint(r.Bus.Evictions, 10)
	}
	busRow := []string{
		"bus", "", "", "", "", "", "", "", "", "", "", "",
	}
	busRow[1] = strconv.FormatUint(r.Bus.BusBytes, 10)
	busRow[2] = strconv.FormatUint(r.Bus.Invalidations, 10)
	busRow[3] = evictions
	if err := cw.Write(busRow); err != nil {
		return err
	}

	cw.Flush()
	return cw.Error()
}

// WriteTable renders a human-readable summary to w.
func (r *Result) WriteTable(w io.Writer) {
	fmt.Fprintf(w, "protocol=%s cache=%dB block=%dB assoc=%d\n",
		r.Config.Protocol, r.Config.CacheSize, r.Config.BlockSize, r.Config.Assoc)

	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{
		"Core", "Hits", "Misses", "Miss Rate", "Private", "Shared",
		"Writes", "Avg Wr Latency", "Cycles",
	})
	for _, c := range r.Cores {
		core := strconv.Itoa(c.Core)
		if c.Incomplete {
			core += "*"
		}
		table.Append([]string{
			core,
			strconv.FormatUint(c.Hits, 10),
			strconv.FormatUint(c.Misses, 10),
			fmt.Sprintf("%.4f", c.MissRate()),
			strconv.FormatUint(c.PrivateAccesses, 10),
			strconv.FormatUint(c.SharedAccesses, 10),
			strconv.FormatUint(c.Writes, 10),
			fmt.Sprintf("%.2f", c.AvgWriteLatency()),
			strconv.FormatUint(c.Cycles, 10),
		})
	}
	table.Render()

	fmt.Fprintf(w, "bus: %d bytes, %d invalidations/updates", r.Bus.BusBytes, r.Bus.Invalidations)
	if r.Config.Protocol == Dragon {
		fmt.Fprintf(w, ", %d evictions", r.Bus.Evictions)
	}
	fmt.Fprintln(w)
	for _, c := range r.Cores {
		if c.Incomplete {
			fmt.Fprintf(w, "* core %d incomplete: %v\n", c.Core, c.Err)
		}
	}
}
