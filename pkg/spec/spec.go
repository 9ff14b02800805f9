// Package spec loads and validates the two specification documents the
// validator runs against: a targets document for the directional policy and
// a baselines document for the baseline-deviation policy.
//
// Both are JSON. Structural problems (unparsable syntax, zero or negative
// expected values, unknown directions at load time) are fatal: they surface
// as errors before any evaluation starts, never as per-metric outcomes.
package spec

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/quantfabric/perfgate/pkg/policy"
)

var validate = validator.New()

// TargetSpec is one metric's expectation under the directional policy.
type TargetSpec struct {
	// Target is the expected value. Must be positive; it divides the
	// deviation computation.
	Target float64 `json:"target" validate:"required,gt=0"`

	// Tolerance is the allowed one-sided degradation percentage.
	Tolerance float64 `json:"tolerance" validate:"gte=0"`

	// Direction says which way the metric improves: "lower" or "higher".
	Direction policy.Direction `json:"direction" validate:"required,oneof=lower higher"`

	// Patterns are the benchmark-name substrings used to locate the
	// metric. When omitted the metric identifier itself is used.
	Patterns []string `json:"patterns,omitempty"`
}

// Targets maps metric identifiers to their target specs.
type Targets map[string]TargetSpec

// LoadTargets reads and validates a targets document.
func LoadTargets(path string) (Targets, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read targets file %s: %w", path, err)
	}

	var t Targets
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("could not parse targets file %s: %w", path, err)
	}
	if len(t) == 0 {
		return nil, fmt.Errorf("targets file %s defines no metrics", path)
	}

	for id, ts := range t {
		if err := validate.Struct(ts); err != nil {
			return nil, fmt.Errorf("invalid target spec for metric %q: %w", id, err)
		}
	}
	return t, nil
}

// MetricIDs returns the metric identifiers in sorted order, so evaluation
// and report output are deterministic.
func (t Targets) MetricIDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// PatternsFor returns the name patterns for a metric, defaulting to the
// metric identifier itself.
func (t Targets) PatternsFor(id string) []string {
	if ts, ok := t[id]; ok && len(ts.Patterns) > 0 {
		return ts.Patterns
	}
	return []string{id}
}

// GlobalSettings carries document-wide defaults for the baseline policy.
type GlobalSettings struct {
	// DefaultTolerancePercent applies to metrics with no tolerance of
	// their own.
	DefaultTolerancePercent float64 `json:"default_tolerance_percent" validate:"required,gt=0"`
}

// MetricBaseline is one metric's expectation under the baseline policy.
type MetricBaseline struct {
	// Baseline is the stored expected value. Must be positive.
	Baseline float64 `json:"baseline" validate:"required,gt=0"`

	// TolerancePercent overrides the global default when set.
	TolerancePercent *float64 `json:"tolerance_percent,omitempty" validate:"omitempty,gte=0"`

	// Critical marks the metric for the hard-failure exit policy.
	Critical bool `json:"critical,omitempty"`
}

// Spec converts the baseline into the policy package's evaluation input.
func (m MetricBaseline) Spec() *policy.BaselineSpec {
	return &policy.BaselineSpec{
		Baseline:  m.Baseline,
		Tolerance: m.TolerancePercent,
		Critical:  m.Critical,
	}
}

// SuiteBaselines groups the baselines of one benchmark suite.
type SuiteBaselines struct {
	Metrics map[string]MetricBaseline `json:"metrics"`
}

// MetricIDs returns the suite's metric identifiers in sorted order.
func (s SuiteBaselines) MetricIDs() []string {
	ids := make([]string, 0, len(s.Metrics))
	for id := range s.Metrics {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Baselines is the baseline-policy specification document.
type Baselines struct {
	GlobalSettings GlobalSettings            `json:"global_settings"`
	Benchmarks     map[string]SuiteBaselines `json:"benchmarks"`
}

// LoadBaselines reads and validates a baselines document.
func LoadBaselines(path string) (*Baselines, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read baseline file %s: %w", path, err)
	}

	var b Baselines
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("could not parse baseline file %s: %w", path, err)
	}
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("invalid baseline file %s: %w", path, err)
	}
	return &b, nil
}

// Validate checks the document's structural invariants.
func (b *Baselines) Validate() error {
	if err := validate.Struct(b.GlobalSettings); err != nil {
		return fmt.Errorf("global_settings: %w", err)
	}
	if len(b.Benchmarks) == 0 {
		return fmt.Errorf("no benchmarks defined")
	}
	for suite, sb := range b.Benchmarks {
		for id, mb := range sb.Metrics {
			if err := validate.Struct(mb); err != nil {
				return fmt.Errorf("benchmark %q metric %q: %w", suite, id, err)
			}
		}
	}
	return nil
}

// SuiteNames returns the configured suite names in sorted order.
func (b *Baselines) SuiteNames() []string {
	names := make([]string, 0, len(b.Benchmarks))
	for name := range b.Benchmarks {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CriticalOnly returns a copy of the document restricted to critical
// metrics, used by quick mode. Suites left with no metrics are dropped.
func (b *Baselines) CriticalOnly() *Baselines {
	out := &Baselines{
		GlobalSettings: b.GlobalSettings,
		Benchmarks:     make(map[string]SuiteBaselines),
	}
	for suite, sb := range b.Benchmarks {
		metrics := make(map[string]MetricBaseline)
		for id, mb := range sb.Metrics {
			if mb.Critical {
				metrics[id] = mb
			}
		}
		if len(metrics) > 0 {
			out.Benchmarks[suite] = SuiteBaselines{Metrics: metrics}
		}
	}
	return out
}
