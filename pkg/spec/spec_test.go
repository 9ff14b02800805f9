package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantfabric/perfgate/pkg/policy"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadTargets(t *testing.T) {
	path := writeFile(t, "targets.json", `{
		"order_addition_ns": {
			"target": 1400, "tolerance": 15, "direction": "lower",
			"patterns": ["AddOrderLatency"]
		},
		"mixed_operations_ops_sec": {
			"target": 1100000, "tolerance": 20, "direction": "higher"
		}
	}`)

	targets, err := LoadTargets(path)
	require.NoError(t, err)
	require.Len(t, targets, 2)

	oa := targets["order_addition_ns"]
	assert.Equal(t, 1400.0, oa.Target)
	assert.Equal(t, 15.0, oa.Tolerance)
	assert.Equal(t, policy.LowerIsBetter, oa.Direction)
	assert.Equal(t, []string{"AddOrderLatency"}, oa.Patterns)

	mo := targets["mixed_operations_ops_sec"]
	assert.Equal(t, policy.HigherIsBetter, mo.Direction)
	assert.Empty(t, mo.Patterns)
}

func TestTargets_MetricIDsSorted(t *testing.T) {
	targets := Targets{
		"b_metric": {Target: 1, Direction: policy.LowerIsBetter},
		"a_metric": {Target: 1, Direction: policy.LowerIsBetter},
	}
	assert.Equal(t, []string{"a_metric", "b_metric"}, targets.MetricIDs())
}

func TestTargets_PatternsFor(t *testing.T) {
	targets := Targets{
		"with_patterns": {Target: 1, Direction: policy.LowerIsBetter, Patterns: []string{"BM_Foo", "Foo"}},
		"bare":          {Target: 1, Direction: policy.LowerIsBetter},
	}

	assert.Equal(t, []string{"BM_Foo", "Foo"}, targets.PatternsFor("with_patterns"))
	assert.Equal(t, []string{"bare"}, targets.PatternsFor("bare"))
	assert.Equal(t, []string{"unknown"}, targets.PatternsFor("unknown"))
}

func TestLoadTargets_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"m": {`},
		{"empty document", `{}`},
		{"zero target", `{"m": {"target": 0, "tolerance": 10, "direction": "lower"}}`},
		{"negative target", `{"m": {"target": -5, "tolerance": 10, "direction": "lower"}}`},
		{"negative tolerance", `{"m": {"target": 5, "tolerance": -1, "direction": "lower"}}`},
		{"unknown direction", `{"m": {"target": 5, "tolerance": 1, "direction": "sideways"}}`},
		{"missing direction", `{"m": {"target": 5, "tolerance": 1}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "targets.json", tt.content)
			_, err := LoadTargets(path)
			assert.Error(t, err)
		})
	}
}

func TestLoadTargets_MissingFile(t *testing.T) {
	_, err := LoadTargets(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)
}

const baselineDoc = `{
	"global_settings": {"default_tolerance_percent": 10},
	"benchmarks": {
		"order_book": {
			"metrics": {
				"order_addition_ns": {"baseline": 1400, "critical": true},
				"order_cancellation_ns": {"baseline": 1500, "tolerance_percent": 15}
			}
		},
		"ring_buffer": {
			"metrics": {
				"single_operation_ns": {"baseline": 30}
			}
		}
	}
}`

func TestLoadBaselines(t *testing.T) {
	path := writeFile(t, "baselines.json", baselineDoc)

	b, err := LoadBaselines(path)
	require.NoError(t, err)

	assert.Equal(t, 10.0, b.GlobalSettings.DefaultTolerancePercent)
	assert.Equal(t, []string{"order_book", "ring_buffer"}, b.SuiteNames())

	ob := b.Benchmarks["order_book"]
	assert.Equal(t, []string{"order_addition_ns", "order_cancellation_ns"}, ob.MetricIDs())

	oa := ob.Metrics["order_addition_ns"]
	assert.True(t, oa.Critical)
	assert.Nil(t, oa.TolerancePercent)

	oc := ob.Metrics["order_cancellation_ns"]
	require.NotNil(t, oc.TolerancePercent)
	assert.Equal(t, 15.0, *oc.TolerancePercent)
}

func TestMetricBaseline_Spec(t *testing.T) {
	tol := 15.0
	mb := MetricBaseline{Baseline: 1500, TolerancePercent: &tol, Critical: true}

	s := mb.Spec()
	assert.Equal(t, 1500.0, s.Baseline)
	require.NotNil(t, s.Tolerance)
	assert.Equal(t, 15.0, *s.Tolerance)
	assert.True(t, s.Critical)
}

func TestLoadBaselines_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"malformed json", `{"global_settings": {`},
		{"missing global default", `{"global_settings": {}, "benchmarks": {"s": {"metrics": {"m": {"baseline": 1}}}}}`},
		{"no benchmarks", `{"global_settings": {"default_tolerance_percent": 10}}`},
		{"zero baseline", `{"global_settings": {"default_tolerance_percent": 10}, "benchmarks": {"s": {"metrics": {"m": {"baseline": 0}}}}}`},
		{"negative tolerance", `{"global_settings": {"default_tolerance_percent": 10}, "benchmarks": {"s": {"metrics": {"m": {"baseline": 1, "tolerance_percent": -2}}}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, "baselines.json", tt.content)
			_, err := LoadBaselines(path)
			assert.Error(t, err)
		})
	}
}

func TestBaselines_CriticalOnly(t *testing.T) {
	path := writeFile(t, "baselines.json", baselineDoc)
	b, err := LoadBaselines(path)
	require.NoError(t, err)

	quick := b.CriticalOnly()
	assert.Equal(t, []string{"order_book"}, quick.SuiteNames(),
		"suites with no critical metrics are dropped")
	assert.Equal(t, []string{"order_addition_ns"}, quick.Benchmarks["order_book"].MetricIDs())
	assert.Equal(t, 10.0, quick.GlobalSettings.DefaultTolerancePercent)

	// The original document is untouched.
	assert.Len(t, b.Benchmarks["order_book"].Metrics, 2)
}
