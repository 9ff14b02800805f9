package runner

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// writeFakeBenchmark installs a shell script that emits the given stdout
// and exits with the given code.
func writeFakeBenchmark(t *testing.T, dir, name, stdout string, exitCode int) {
	t.Helper()
	script := "#!/bin/sh\ncat <<'EOF'\n" + stdout + "\nEOF\nexit " +
		strconv.Itoa(exitCode) + "\n"
	if err := os.WriteFile(filepath.Join(dir, name), []byte(script), 0755); err != nil {
		t.Fatal(err)
	}
}

const fakeOutput = `{
	"context": {"host_name": "ci"},
	"benchmarks": [
		{"name": "AddOrderLatency", "real_time": 1350.0, "time_unit": "ns"}
	]
}`

func TestRunner_Run(t *testing.T) {
	dir := t.TempDir()
	writeFakeBenchmark(t, dir, "order_book_benchmark", fakeOutput, 0)

	r, err := New(dir, quietLogger(), WithLaunchInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := r.Run(context.Background(), []string{"order_book_benchmark"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	suite, ok := res.Suites["order_book_benchmark"]
	if !ok {
		t.Fatal("suite missing from result")
	}
	if len(suite.Benchmarks) != 1 || suite.Benchmarks[0].Name != "AddOrderLatency" {
		t.Errorf("unexpected suite contents: %+v", suite.Benchmarks)
	}
	if len(res.Failed) != 0 || len(res.Skipped) != 0 {
		t.Errorf("expected clean run, got failed=%v skipped=%v", res.Failed, res.Skipped)
	}
}

func TestRunner_MissingExecutableSkipped(t *testing.T) {
	r, err := New(t.TempDir(), quietLogger(), WithLaunchInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := r.Run(context.Background(), []string{"no_such_benchmark"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(res.Skipped) != 1 || res.Skipped[0] != "no_such_benchmark" {
		t.Errorf("expected skip, got %+v", res)
	}
	if len(res.Failed) != 0 {
		t.Errorf("missing executable is a skip, not a failure: %+v", res.Failed)
	}
}

func TestRunner_FailuresDoNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	writeFakeBenchmark(t, dir, "broken_benchmark", "boom", 1)
	writeFakeBenchmark(t, dir, "garbage_benchmark", "{not json", 0)
	writeFakeBenchmark(t, dir, "good_benchmark", fakeOutput, 0)

	r, err := New(dir, quietLogger(), WithLaunchInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	res, err := r.Run(context.Background(),
		[]string{"broken_benchmark", "garbage_benchmark", "good_benchmark"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	if len(res.Failed) != 2 {
		t.Errorf("expected two failures, got %v", res.Failed)
	}
	if _, ok := res.Suites["good_benchmark"]; !ok {
		t.Error("good benchmark should still have run")
	}
}

func TestRunner_ContextCancellation(t *testing.T) {
	dir := t.TempDir()
	writeFakeBenchmark(t, dir, "bench", fakeOutput, 0)

	r, err := New(dir, quietLogger(), WithLaunchInterval(time.Hour))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = r.Run(ctx, []string{"bench", "bench"})
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestRunner_OptionsValidated(t *testing.T) {
	if _, err := New("", quietLogger()); err == nil {
		t.Error("empty build dir should be rejected")
	}
	if _, err := New(t.TempDir(), nil); err == nil {
		t.Error("nil logger should be rejected")
	}
	if _, err := New(t.TempDir(), quietLogger(), WithTimeout(-time.Second)); err == nil {
		t.Error("negative timeout should be rejected")
	}
	if _, err := New(t.TempDir(), quietLogger(), WithLaunchInterval(0)); err == nil {
		t.Error("zero launch interval should be rejected")
	}
}

func TestResult_Document(t *testing.T) {
	dir := t.TempDir()
	writeFakeBenchmark(t, dir, "bench", fakeOutput, 0)

	r, err := New(dir, quietLogger(), WithLaunchInterval(time.Millisecond))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	res, err := r.Run(context.Background(), []string{"bench"})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	doc := res.Document()
	if doc.Benchmarks["bench"] != res.Suites["bench"] {
		t.Error("document should wrap the run's suites")
	}
}
