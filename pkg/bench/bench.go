// Package bench models benchmark result documents.
//
// The shape follows Google Benchmark's JSON output: each benchmark binary
// emits a Suite containing a list of result Entries, and a results document
// collects the suites of one full run keyed by suite name. Entries carry a
// handful of optional numeric fields (timings, rates) plus user-defined
// counters; which fields are present varies by benchmark, so optional fields
// are pointers and absence is distinguishable from zero.
//
// The package only reads these structures. Extraction of metric values from
// them lives in the extract package.
package bench

import (
	"encoding/json"
	"fmt"
	"os"
)

// Entry is a single benchmark result within a suite.
type Entry struct {
	// Name is the benchmark's reported name (e.g. "BM_AddOrderLatency/1000").
	Name string `json:"name"`

	// RunType distinguishes iterations from aggregates ("", "iteration",
	// "aggregate"). Informational only.
	RunType string `json:"run_type,omitempty"`

	// Iterations is the iteration count reported by the framework.
	Iterations int64 `json:"iterations,omitempty"`

	// RealTime is wall-clock time per iteration, in TimeUnit units.
	RealTime *float64 `json:"real_time,omitempty"`

	// CPUTime is CPU time per iteration, in TimeUnit units.
	CPUTime *float64 `json:"cpu_time,omitempty"`

	// TimeUnit is the unit for RealTime and CPUTime (typically "ns").
	TimeUnit string `json:"time_unit,omitempty"`

	// ItemsPerSecond is the framework's generic throughput field.
	ItemsPerSecond *float64 `json:"items_per_second,omitempty"`

	// BytesPerSecond is the framework's byte-rate field.
	BytesPerSecond *float64 `json:"bytes_per_second,omitempty"`

	// NsPerOp is a per-operation nanosecond cost emitted by some suites,
	// used to derive throughput when no rate field is present.
	NsPerOp *float64 `json:"ns_per_op,omitempty"`

	// Explicit rate fields emitted as top-level keys by older suites.
	OperationsPerSecond *float64 `json:"OperationsPerSecond,omitempty"`
	MessagesPerSec      *float64 `json:"MessagesPerSec,omitempty"`
	OrdersPerSec        *float64 `json:"OrdersPerSec,omitempty"`

	// Counters holds user-defined counters by name.
	Counters map[string]Counter `json:"counters,omitempty"`
}

// Counter is a user-defined counter attached to an Entry. Benchmark
// frameworks emit counters either as bare numbers or as small records
// carrying a "value" field with a "real_time" fallback; both forms
// unmarshal into this type.
type Counter struct {
	// Number is set when the counter was a bare JSON number.
	Number *float64

	// Value and RealTime are set when the counter was a record.
	Value    *float64
	RealTime *float64
}

// UnmarshalJSON accepts either a bare number or a counter record.
func (c *Counter) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		c.Number = &n
		return nil
	}

	var rec struct {
		Value    *float64 `json:"value"`
		RealTime *float64 `json:"real_time"`
	}
	if err := json.Unmarshal(data, &rec); err != nil {
		return fmt.Errorf("counter is neither a number nor a record: %w", err)
	}
	c.Value = rec.Value
	c.RealTime = rec.RealTime
	return nil
}

// Float returns the counter's numeric value, preferring an explicit value
// field over the real_time fallback over a bare number. A counter with no
// recognizable value yields 0.
func (c Counter) Float() float64 {
	switch {
	case c.Value != nil:
		return *c.Value
	case c.RealTime != nil:
		return *c.RealTime
	case c.Number != nil:
		return *c.Number
	}
	return 0
}

// Suite is the output of one benchmark binary: a context block (machine
// info, which this package does not interpret) and a list of entries.
type Suite struct {
	Context    map[string]any `json:"context,omitempty"`
	Benchmarks []Entry        `json:"benchmarks"`
}

// Document is a results file covering a full run, keyed by suite name.
type Document struct {
	Benchmarks map[string]*Suite `json:"benchmarks"`
}

// ParseSuite decodes a single suite's JSON output.
func ParseSuite(data []byte) (*Suite, error) {
	var s Suite
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("could not parse benchmark output: %w", err)
	}
	return &s, nil
}

// LoadDocument reads and decodes a results document from disk.
func LoadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read results file %s: %w", path, err)
	}

	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("could not parse results file %s: %w", path, err)
	}
	if d.Benchmarks == nil {
		return nil, fmt.Errorf("results file %s has no benchmarks section", path)
	}
	return &d, nil
}
