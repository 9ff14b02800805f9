// Package extract locates a named metric's numeric value inside benchmark
// result entries.
//
// Benchmark names and metric identifiers only loosely correspond, so
// location is heuristic: an ordered list of strategies is tried in fixed
// priority order and the first hit wins. Callers supply the name patterns to
// match against, making the mapping from metric identifiers to benchmark
// names explicit configuration rather than a built-in table.
//
// Two distinct failure modes are surfaced: ErrNotFound means no entry
// matched the metric at all, while a *FieldError means an entry matched but
// carried no recognizable numeric field. The distinction matters to callers
// that report "metric missing" differently from "metric unreadable".
package extract

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/quantfabric/perfgate/pkg/bench"
)

// ErrNotFound reports that no benchmark entry matched the metric.
var ErrNotFound = errors.New("metric not found in benchmark results")

// FieldError reports that an entry matched the metric's patterns but
// exposed no recognizable numeric field.
type FieldError struct {
	Metric    string
	Benchmark string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("benchmark %q matched metric %q but has no recognized numeric field", e.Benchmark, e.Metric)
}

// Value is a located metric value together with the entry it came from.
type Value struct {
	Metric    string
	Benchmark string
	Value     float64
}

// strategy attempts to resolve a metric from a list of entries. Strategies
// are pure: they inspect the entries and either produce a value or decline.
type strategy func(entries []bench.Entry, metricID string, patterns []string) (Value, bool)

// Locate resolves metricID to a numeric value from the given entries.
//
// Patterns are matched as case-insensitive substrings of the entry name;
// when empty, the metric identifier itself is used. Strategies are tried in
// priority order:
//
//  1. pattern match with rate-aware field selection (counters and explicit
//     rate fields win over timings for throughput-flavored metrics)
//  2. pattern match with generic timing extraction only
//  3. scan of every entry's counters, matching patterns against counter
//     names with underscores stripped
//
// Returns ErrNotFound when every strategy declines, or a *FieldError when
// an entry matched but carried no usable number.
func Locate(entries []bench.Entry, metricID string, patterns []string) (Value, error) {
	if len(patterns) == 0 {
		patterns = []string{metricID}
	}

	var fieldErr *FieldError
	strategies := []strategy{
		func(e []bench.Entry, id string, p []string) (Value, bool) {
			return matchRateAware(e, id, p, &fieldErr)
		},
		matchTiming,
		matchCounters,
	}

	for _, s := range strategies {
		if v, ok := s(entries, metricID, patterns); ok {
			return v, nil
		}
	}

	if fieldErr != nil {
		return Value{}, fieldErr
	}
	return Value{}, ErrNotFound
}

// matchesAny reports whether any pattern is a case-insensitive substring of
// the entry name.
func matchesAny(name string, patterns []string) bool {
	lower := strings.ToLower(name)
	for _, p := range patterns {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

// rateLike reports whether the metric identifier denotes a throughput-style
// measurement rather than a latency.
func rateLike(metricID string) bool {
	id := strings.ToLower(metricID)
	return strings.Contains(id, "throughput") ||
		strings.Contains(id, "ops_sec") ||
		strings.Contains(id, "msgs_sec") ||
		strings.Contains(id, "per_sec")
}

// matchRateAware is the primary strategy: scan for an entry whose name
// matches a pattern, preferring rate-style fields for rate-like metrics
// before falling back to generic timing extraction. A matched entry with no
// usable field records a FieldError and lets later entries try.
func matchRateAware(entries []bench.Entry, metricID string, patterns []string, fieldErr **FieldError) (Value, bool) {
	isRate := rateLike(metricID)

	for i := range entries {
		e := &entries[i]
		if !matchesAny(e.Name, patterns) {
			continue
		}

		if isRate {
			if v, ok := rateCounter(e); ok {
				return Value{Metric: metricID, Benchmark: e.Name, Value: v}, true
			}
			if v, ok := explicitRate(e); ok {
				return Value{Metric: metricID, Benchmark: e.Name, Value: v}, true
			}
			if v, ok := derivedThroughput(e, metricID); ok {
				return Value{Metric: metricID, Benchmark: e.Name, Value: v}, true
			}
		}

		v, ok := timingValue(e)
		if !ok {
			if *fieldErr == nil {
				*fieldErr = &FieldError{Metric: metricID, Benchmark: e.Name}
			}
			continue
		}
		return Value{Metric: metricID, Benchmark: e.Name, Value: v}, true
	}

	return Value{}, false
}

// matchTiming is the fallback substring scan: any entry matching a pattern
// yields its generic timing value, with no rate/latency branching.
func matchTiming(entries []bench.Entry, metricID string, patterns []string) (Value, bool) {
	for i := range entries {
		e := &entries[i]
		if !matchesAny(e.Name, patterns) {
			continue
		}
		if v, ok := timingValue(e); ok {
			return Value{Metric: metricID, Benchmark: e.Name, Value: v}, true
		}
	}
	return Value{}, false
}

// matchCounters is the last-resort strategy: scan every entry's counters for
// a name containing any pattern, comparing with underscores stripped so
// "ops_per_second" matches "opspersecond" and vice versa.
func matchCounters(entries []bench.Entry, metricID string, patterns []string) (Value, bool) {
	for i := range entries {
		e := &entries[i]
		for _, name := range sortedCounterNames(e) {
			squashed := strings.ReplaceAll(strings.ToLower(name), "_", "")
			for _, p := range patterns {
				if strings.Contains(squashed, strings.ReplaceAll(strings.ToLower(p), "_", "")) {
					return Value{Metric: metricID, Benchmark: e.Name, Value: e.Counters[name].Float()}, true
				}
			}
		}
	}
	return Value{}, false
}

// rateCounter returns the value of the first counter whose name suggests a
// rate. Counter names are visited in sorted order so resolution is
// deterministic.
func rateCounter(e *bench.Entry) (float64, bool) {
	for _, name := range sortedCounterNames(e) {
		lower := strings.ToLower(name)
		if strings.Contains(lower, "per_second") || strings.Contains(lower, "throughput") {
			return e.Counters[name].Float(), true
		}
	}
	return 0, false
}

// explicitRate returns the first known top-level rate field, in fixed
// priority order.
func explicitRate(e *bench.Entry) (float64, bool) {
	switch {
	case e.OperationsPerSecond != nil:
		return *e.OperationsPerSecond, true
	case e.MessagesPerSec != nil:
		return *e.MessagesPerSec, true
	case e.OrdersPerSec != nil:
		return *e.OrdersPerSec, true
	case e.ItemsPerSecond != nil:
		return *e.ItemsPerSecond, true
	}
	return 0, false
}

// derivedThroughput computes ops/sec from a per-operation nanosecond cost
// for metrics that ask for a derived allocation throughput.
func derivedThroughput(e *bench.Entry, metricID string) (float64, bool) {
	if e.NsPerOp == nil || *e.NsPerOp <= 0 {
		return 0, false
	}
	if !strings.Contains(strings.ToLower(metricID), "allocation_throughput") {
		return 0, false
	}
	return 1e9 / *e.NsPerOp, true
}

// timingValue extracts the primary value of an entry: real time over CPU
// time over item rate over byte rate.
func timingValue(e *bench.Entry) (float64, bool) {
	switch {
	case e.RealTime != nil:
		return *e.RealTime, true
	case e.CPUTime != nil:
		return *e.CPUTime, true
	case e.ItemsPerSecond != nil:
		return *e.ItemsPerSecond, true
	case e.BytesPerSecond != nil:
		return *e.BytesPerSecond, true
	}
	return 0, false
}

func sortedCounterNames(e *bench.Entry) []string {
	if len(e.Counters) == 0 {
		return nil
	}
	names := make([]string, 0, len(e.Counters))
	for name := range e.Counters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
