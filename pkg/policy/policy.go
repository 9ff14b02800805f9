// Package policy classifies observed metric values against expectations.
//
// Two tolerance policies coexist and deliberately stay separate:
//
//   - the directional policy fails only on degradation relative to a fixed
//     target, keyed by which direction counts as an improvement — faster
//     than expected is never a failure;
//   - the baseline policy applies a symmetric deviation band around a stored
//     baseline with a warning zone, so large improvements are flagged too
//     (a surprising speedup often means the benchmark stopped measuring
//     what it used to).
//
// Both produce MetricOutcome values consumed by the report package.
package policy

import "fmt"

// Outcome is the classification of a single metric evaluation.
type Outcome string

const (
	Pass    Outcome = "PASS"
	Warning Outcome = "WARNING"
	Fail    Outcome = "FAIL"
	Missing Outcome = "MISSING"
	Error   Outcome = "ERROR"
)

// Outcomes lists every classification in display order.
var Outcomes = []Outcome{Pass, Warning, Fail, Missing, Error}

// Tag returns the short status tag used in report lines.
func (o Outcome) Tag() string {
	switch o {
	case Pass:
		return "[PASS]"
	case Warning:
		return "[WARN]"
	case Fail:
		return "[FAIL]"
	case Missing:
		return "[MISS]"
	case Error:
		return "[ERR!]"
	}
	return "[????]"
}

// Direction says which way a metric improves.
type Direction string

const (
	// LowerIsBetter marks latency-style metrics.
	LowerIsBetter Direction = "lower"

	// HigherIsBetter marks throughput-style metrics.
	HigherIsBetter Direction = "higher"
)

// MetricOutcome records the evaluation of one metric. It is immutable once
// constructed.
type MetricOutcome struct {
	// Name is the metric identifier.
	Name string

	// Expected is the target or baseline the metric was compared against.
	Expected float64

	// Observed is the extracted value (zero for MISSING and ERROR).
	Observed float64

	// Deviation is the signed percentage deviation from Expected.
	Deviation float64

	// Tolerance is the tolerance percentage that was applied.
	Tolerance float64

	// Outcome is the classification.
	Outcome Outcome

	// Critical marks metrics whose failure alone fails the whole run.
	// Only the baseline policy sets it.
	Critical bool

	// Message is the human-readable explanation.
	Message string
}

// String renders the outcome as a single report line.
func (m MetricOutcome) String() string {
	critical := ""
	if m.Critical {
		critical = " [CRITICAL]"
	}
	return fmt.Sprintf("%s %s: %.1f (expected: %.1f, deviation: %+.1f%%, tolerance: ±%.1f%%)%s",
		m.Outcome.Tag(), m.Name, m.Observed, m.Expected, m.Deviation, m.Tolerance, critical)
}

// EvaluateDirectional applies the only-degradation-fails policy: the value
// fails only when it is worse than target by more than tolerancePercent in
// the direction that matters. A value exactly on the tolerance boundary
// passes. An unrecognized direction always fails with a diagnostic.
func EvaluateDirectional(observed, target, tolerancePercent float64, dir Direction) (bool, string) {
	deviation := deviationPercent(observed, target)

	// Thresholds are computed as target*(100+tol)/100 rather than
	// target*(1+tol/100): the latter rounds tol/100 before multiplying and
	// can push an exactly-on-boundary value to the wrong side.
	switch dir {
	case LowerIsBetter:
		if observed > target*(100+tolerancePercent)/100 {
			return false, fmt.Sprintf("DEGRADED: %.1f > %.1f (+%.1f%%)", observed, target, deviation)
		}
		return true, fmt.Sprintf("GOOD: %.1f vs %.1f (%+.1f%%)", observed, target, deviation)

	case HigherIsBetter:
		if observed < target*(100-tolerancePercent)/100 {
			return false, fmt.Sprintf("DEGRADED: %.1f < %.1f (%.1f%%)", observed, target, deviation)
		}
		return true, fmt.Sprintf("GOOD: %.1f vs %.1f (%+.1f%%)", observed, target, deviation)
	}

	return false, fmt.Sprintf("UNKNOWN DIRECTION: %s", dir)
}

// deviationPercent is the signed percent deviation of observed from
// expected. Multiplying before dividing keeps round-number cases exact.
func deviationPercent(observed, expected float64) float64 {
	return (observed - expected) * 100 / expected
}

// BaselineSpec is the expected-value configuration for one metric under the
// baseline policy.
type BaselineSpec struct {
	// Baseline is the stored expected value. Must be non-zero; it divides
	// the deviation computation.
	Baseline float64

	// Tolerance is the allowed deviation percentage. Nil means the
	// evaluator's default applies.
	Tolerance *float64

	// Critical marks the metric for the aggregator's hard-failure policy.
	Critical bool
}

// BaselineEvaluator classifies values against stored baselines using a
// symmetric deviation band: within tolerance is PASS, within twice the
// tolerance is WARNING, beyond that is FAIL. Strict mode escalates WARNING
// to FAIL.
type BaselineEvaluator struct {
	// DefaultTolerance applies when a metric's spec has no tolerance of
	// its own.
	DefaultTolerance float64

	// Strict escalates the warning zone to FAIL.
	Strict bool
}

// Evaluate classifies one metric. A nil spec yields MISSING; a non-nil
// extractErr yields ERROR with the baseline preserved. Both boundaries are
// inclusive on the passing side: deviation exactly at tolerance is PASS,
// exactly at twice the tolerance is WARNING.
func (ev *BaselineEvaluator) Evaluate(name string, spec *BaselineSpec, observed float64, extractErr error) MetricOutcome {
	if spec == nil {
		return MetricOutcome{
			Name:    name,
			Outcome: Missing,
			Message: "no baseline configured for metric",
		}
	}

	tolerance := ev.DefaultTolerance
	if spec.Tolerance != nil {
		tolerance = *spec.Tolerance
	}

	if extractErr != nil {
		return MetricOutcome{
			Name:      name,
			Expected:  spec.Baseline,
			Tolerance: tolerance,
			Outcome:   Error,
			Critical:  spec.Critical,
			Message:   fmt.Sprintf("could not extract value: %v", extractErr),
		}
	}

	deviation := deviationPercent(observed, spec.Baseline)

	var outcome Outcome
	switch {
	case abs(deviation) <= tolerance:
		outcome = Pass
	case abs(deviation) <= tolerance*2:
		outcome = Warning
		if ev.Strict {
			outcome = Fail
		}
	default:
		outcome = Fail
	}

	return MetricOutcome{
		Name:      name,
		Expected:  spec.Baseline,
		Observed:  observed,
		Deviation: deviation,
		Tolerance: tolerance,
		Outcome:   outcome,
		Critical:  spec.Critical,
		Message:   fmt.Sprintf("deviation %+.1f%% against tolerance ±%.1f%%", deviation, tolerance),
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
