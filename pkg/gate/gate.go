// Package gate drives a validation run: it walks a specification document,
// locates each metric in the benchmark results, applies the configured
// tolerance policy, and emits one MetricOutcome per metric.
//
// Metrics are evaluated sequentially and independently; a metric that cannot
// be located or read becomes an outcome, never an abort, so one bad metric
// cannot take down the batch.
package gate

import (
	"errors"
	"io"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/quantfabric/perfgate/pkg/bench"
	"github.com/quantfabric/perfgate/pkg/extract"
	"github.com/quantfabric/perfgate/pkg/policy"
	"github.com/quantfabric/perfgate/pkg/spec"
)

// Directional validates results against a targets document using the
// only-degradation-fails policy.
type Directional struct {
	targets spec.Targets
	logger  *logrus.Logger
}

// NewDirectional creates a directional gate. A nil logger discards
// diagnostics.
func NewDirectional(targets spec.Targets, logger *logrus.Logger) *Directional {
	return &Directional{targets: targets, logger: ensureLogger(logger)}
}

// Validate evaluates every configured metric against the given suites.
// Suites are searched in sorted-name order and the first suite holding the
// metric wins. Metrics found nowhere become MISSING outcomes; metrics whose
// matching entry has no usable number become ERROR outcomes. Both count
// against the run.
func (d *Directional) Validate(suites map[string]*bench.Suite) []policy.MetricOutcome {
	names := suiteNames(suites)

	outcomes := make([]policy.MetricOutcome, 0, len(d.targets))
	for _, id := range d.targets.MetricIDs() {
		ts := d.targets[id]
		outcomes = append(outcomes, d.validateOne(id, ts, names, suites))
	}
	return outcomes
}

func (d *Directional) validateOne(id string, ts spec.TargetSpec, names []string, suites map[string]*bench.Suite) policy.MetricOutcome {
	patterns := d.targets.PatternsFor(id)

	var fieldErr *extract.FieldError
	for _, name := range names {
		v, err := extract.Locate(suites[name].Benchmarks, id, patterns)
		if err != nil {
			var fe *extract.FieldError
			if errors.As(err, &fe) && fieldErr == nil {
				fieldErr = fe
			}
			continue
		}

		passed, msg := policy.EvaluateDirectional(v.Value, ts.Target, ts.Tolerance, ts.Direction)
		outcome := policy.Fail
		if passed {
			outcome = policy.Pass
		}
		return policy.MetricOutcome{
			Name:      id,
			Expected:  ts.Target,
			Observed:  v.Value,
			Deviation: (v.Value - ts.Target) * 100 / ts.Target,
			Tolerance: ts.Tolerance,
			Outcome:   outcome,
			Message:   msg,
		}
	}

	if fieldErr != nil {
		d.logger.Warnf("metric %s: %v", id, fieldErr)
		return policy.MetricOutcome{
			Name:      id,
			Expected:  ts.Target,
			Tolerance: ts.Tolerance,
			Outcome:   policy.Error,
			Message:   fieldErr.Error(),
		}
	}

	d.logger.Debugf("metric %s not found in any suite", id)
	return policy.MetricOutcome{
		Name:      id,
		Expected:  ts.Target,
		Tolerance: ts.Tolerance,
		Outcome:   policy.Missing,
		Message:   "NOT FOUND",
	}
}

// Baseline validates a results document against a baselines document using
// the symmetric deviation-band policy.
type Baseline struct {
	baselines *spec.Baselines
	evaluator *policy.BaselineEvaluator
	logger    *logrus.Logger
}

// NewBaseline creates a baseline gate. The evaluator's default tolerance
// comes from the document's global settings; strict escalates warnings to
// failures. A nil logger discards diagnostics.
func NewBaseline(baselines *spec.Baselines, strict bool, logger *logrus.Logger) *Baseline {
	return &Baseline{
		baselines: baselines,
		evaluator: &policy.BaselineEvaluator{
			DefaultTolerance: baselines.GlobalSettings.DefaultTolerancePercent,
			Strict:           strict,
		},
		logger: ensureLogger(logger),
	}
}

// Validate evaluates every metric the baselines document declares, suite by
// suite in sorted order. Suites absent from the results are logged and
// skipped; their metrics produce no outcomes.
func (g *Baseline) Validate(doc *bench.Document) []policy.MetricOutcome {
	var outcomes []policy.MetricOutcome

	for _, suiteName := range g.baselines.SuiteNames() {
		suite, ok := doc.Benchmarks[suiteName]
		if !ok || suite == nil {
			g.logger.Warnf("no results found for benchmark %s", suiteName)
			continue
		}

		sb := g.baselines.Benchmarks[suiteName]
		for _, id := range sb.MetricIDs() {
			outcomes = append(outcomes, g.ValidateMetric(suiteName, id, suite))
		}
	}
	return outcomes
}

// ValidateMetric evaluates a single metric against one suite's results.
// A metric the baselines document does not declare yields MISSING.
func (g *Baseline) ValidateMetric(suiteName, metricID string, suite *bench.Suite) policy.MetricOutcome {
	sb, ok := g.baselines.Benchmarks[suiteName]
	if !ok {
		return g.evaluator.Evaluate(metricID, nil, 0, nil)
	}
	mb, ok := sb.Metrics[metricID]
	if !ok {
		return g.evaluator.Evaluate(metricID, nil, 0, nil)
	}

	v, err := extract.Locate(suite.Benchmarks, metricID, nil)
	if err != nil {
		g.logger.Warnf("could not extract %s from %s: %v", metricID, suiteName, err)
		return g.evaluator.Evaluate(metricID, mb.Spec(), 0, err)
	}
	return g.evaluator.Evaluate(metricID, mb.Spec(), v.Value, nil)
}

func suiteNames(suites map[string]*bench.Suite) []string {
	names := make([]string, 0, len(suites))
	for name := range suites {
		names = append(names, name)
	}
	// Sorted so metric resolution across suites is deterministic.
	sort.Strings(names)
	return names
}

func ensureLogger(logger *logrus.Logger) *logrus.Logger {
	if logger != nil {
		return logger
	}
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
