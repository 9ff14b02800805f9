// Package report aggregates metric outcomes into a validation report: a
// grouped detail view, per-classification counts, a pass rate, and the
// process exit code the build gate uses.
package report

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/quantfabric/perfgate/pkg/policy"
)

// Report is the aggregation of one validation run. It is constructed once
// by Aggregate and not mutated afterwards.
type Report struct {
	// Outcomes holds the per-metric results in evaluation order.
	Outcomes []policy.MetricOutcome

	// Summary counts outcomes per classification.
	Summary map[policy.Outcome]int
}

// Aggregate builds a Report from per-metric outcomes.
func Aggregate(outcomes []policy.MetricOutcome) *Report {
	summary := make(map[policy.Outcome]int, len(policy.Outcomes))
	for _, o := range policy.Outcomes {
		summary[o] = 0
	}
	for _, m := range outcomes {
		summary[m.Outcome]++
	}
	return &Report{Outcomes: outcomes, Summary: summary}
}

// Total returns the number of evaluated metrics.
func (r *Report) Total() int {
	return len(r.Outcomes)
}

// PassRate returns the percentage of metrics that passed.
func (r *Report) PassRate() float64 {
	total := r.Total()
	if total == 0 {
		total = 1
	}
	return float64(r.Summary[policy.Pass]) * 100 / float64(total)
}

// Failures returns the number of FAIL outcomes.
func (r *Report) Failures() int {
	return r.Summary[policy.Fail]
}

// CriticalFailures returns the number of FAIL outcomes on critical metrics.
func (r *Report) CriticalFailures() int {
	n := 0
	for _, m := range r.Outcomes {
		if m.Critical && m.Outcome == policy.Fail {
			n++
		}
	}
	return n
}

// AllPassed reports whether every metric passed. Missing and unreadable
// metrics count against the run.
func (r *Report) AllPassed() bool {
	return r.Summary[policy.Pass] == r.Total()
}

// Group is a display bucket of outcomes sharing a metric-id prefix.
type Group struct {
	Name     string
	Outcomes []policy.MetricOutcome
}

// Groups buckets outcomes by the substring before the first underscore of
// the metric identifier, sorted by bucket name. Grouping is cosmetic; it
// has no effect on the verdict.
func (r *Report) Groups() []Group {
	byName := make(map[string][]policy.MetricOutcome)
	for _, m := range r.Outcomes {
		name := m.Name
		if i := strings.Index(name, "_"); i > 0 {
			name = name[:i]
		}
		byName[name] = append(byName[name], m)
	}

	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)

	groups := make([]Group, 0, len(names))
	for _, name := range names {
		groups = append(groups, Group{Name: name, Outcomes: byName[name]})
	}
	return groups
}

// BaselineExitCode derives the process exit code for the baseline policy:
// any critical failure is a hard failure; ordinary failures only gate the
// build in strict mode.
func (r *Report) BaselineExitCode(strict bool) int {
	if r.CriticalFailures() > 0 {
		return 1
	}
	if r.Failures() > 0 && strict {
		return 1
	}
	return 0
}

// DirectionalExitCode derives the process exit code for the directional
// policy: zero only when every metric passed.
func (r *Report) DirectionalExitCode() int {
	if r.AllPassed() {
		return 0
	}
	return 1
}

// WriteDetailed writes the grouped per-metric lines. Passing metrics are
// omitted unless showPassing is set.
func (r *Report) WriteDetailed(w io.Writer, showPassing bool) {
	fmt.Fprintln(w, "\nDetailed Performance Validation Results:")
	fmt.Fprintln(w, strings.Repeat("=", 60))

	for _, g := range r.Groups() {
		fmt.Fprintf(w, "\n%s:\n", strings.ToUpper(g.Name))
		fmt.Fprintln(w, strings.Repeat("-", 30))
		for _, m := range g.Outcomes {
			if showPassing || m.Outcome != policy.Pass {
				fmt.Fprintf(w, "  %s\n", m)
			}
		}
	}
}

// WriteSummary writes the per-classification counts and the pass rate.
func (r *Report) WriteSummary(w io.Writer) {
	fmt.Fprintln(w, "\nPerformance Validation Summary:")
	fmt.Fprintln(w, strings.Repeat("=", 40))
	fmt.Fprintf(w, "Total metrics validated: %d\n", r.Total())
	fmt.Fprintf(w, "Passed:   %d\n", r.Summary[policy.Pass])
	fmt.Fprintf(w, "Warnings: %d\n", r.Summary[policy.Warning])
	fmt.Fprintf(w, "Failed:   %d\n", r.Summary[policy.Fail])
	fmt.Fprintf(w, "Missing:  %d\n", r.Summary[policy.Missing])
	fmt.Fprintf(w, "Errors:   %d\n", r.Summary[policy.Error])
	fmt.Fprintf(w, "\nPass rate: %.1f%%\n", r.PassRate())
}

// WriteSimple writes the flat per-metric status lines and pass count used
// by the directional mode.
func (r *Report) WriteSimple(w io.Writer) {
	for _, m := range r.Outcomes {
		mark := "PASS"
		if m.Outcome != policy.Pass {
			mark = "FAIL"
		}
		fmt.Fprintf(w, "[%s] %s: %s\n", mark, m.Name, m.Message)
	}

	verdict := "PASS"
	if !r.AllPassed() {
		verdict = "FAIL"
	}
	fmt.Fprintf(w, "\nSummary: %d/%d metrics passed\n", r.Summary[policy.Pass], r.Total())
	fmt.Fprintf(w, "Overall Result: %s\n", verdict)
}

// BaselineVerdict returns the final verdict line for the baseline policy,
// matching the exit code from BaselineExitCode.
func (r *Report) BaselineVerdict(strict bool) string {
	if n := r.CriticalFailures(); n > 0 {
		return fmt.Sprintf("CRITICAL FAILURE: %d critical metrics failed", n)
	}
	if n := r.Failures(); n > 0 {
		return fmt.Sprintf("WARNING: %d metrics failed (non-critical)", n)
	}
	return "SUCCESS: All performance metrics within acceptable ranges"
}
