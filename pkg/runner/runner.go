// Package runner invokes benchmark executables and collects their JSON
// output.
//
// Each benchmark binary is run with --benchmark_format=json under a
// per-run timeout. Launches are paced with a rate limiter so back-to-back
// benchmark processes don't contend with each other and skew the very
// numbers being validated. A missing executable is skipped; a run that
// exits non-zero or emits unparsable output marks that suite as failed
// without aborting the batch.
package runner

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"

	"github.com/quantfabric/perfgate/pkg/bench"
)

const (
	// DefaultTimeout bounds a single benchmark run.
	DefaultTimeout = 60 * time.Second

	// DefaultLaunchInterval is the minimum spacing between benchmark
	// launches.
	DefaultLaunchInterval = time.Second
)

// Runner executes benchmark binaries from a build directory.
type Runner struct {
	buildDir string
	timeout  time.Duration
	limiter  *rate.Limiter
	logger   *logrus.Logger
}

// Option is a functional option for configuring a Runner.
type Option func(*Runner) error

// WithTimeout sets the per-benchmark timeout.
func WithTimeout(d time.Duration) Option {
	return func(r *Runner) error {
		if d <= 0 {
			return fmt.Errorf("timeout must be positive, got %v", d)
		}
		r.timeout = d
		return nil
	}
}

// WithLaunchInterval sets the minimum spacing between benchmark launches.
func WithLaunchInterval(d time.Duration) Option {
	return func(r *Runner) error {
		if d <= 0 {
			return fmt.Errorf("launch interval must be positive, got %v", d)
		}
		r.limiter = rate.NewLimiter(rate.Every(d), 1)
		return nil
	}
}

// New creates a Runner for the given build directory.
func New(buildDir string, logger *logrus.Logger, opts ...Option) (*Runner, error) {
	if buildDir == "" {
		return nil, fmt.Errorf("runner: build directory must not be empty")
	}
	if logger == nil {
		return nil, fmt.Errorf("runner: logger must not be nil")
	}

	r := &Runner{
		buildDir: buildDir,
		timeout:  DefaultTimeout,
		limiter:  rate.NewLimiter(rate.Every(DefaultLaunchInterval), 1),
		logger:   logger,
	}
	for _, opt := range opts {
		if err := opt(r); err != nil {
			return nil, fmt.Errorf("runner: %w", err)
		}
	}
	return r, nil
}

// Result is the outcome of one full run.
type Result struct {
	// Suites holds the parsed output of every benchmark that ran cleanly,
	// keyed by benchmark name.
	Suites map[string]*bench.Suite

	// Failed lists benchmarks that were present but could not produce
	// usable output.
	Failed []string

	// Skipped lists benchmarks whose executable was not found.
	Skipped []string
}

// Run executes the named benchmarks sequentially. It returns early only
// when the context is cancelled; individual benchmark failures are recorded
// in the Result.
func (r *Runner) Run(ctx context.Context, names []string) (*Result, error) {
	res := &Result{Suites: make(map[string]*bench.Suite, len(names))}

	for _, name := range names {
		if err := r.limiter.Wait(ctx); err != nil {
			return res, fmt.Errorf("runner: %w", err)
		}

		path := filepath.Join(r.buildDir, name)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			r.logger.Warnf("skipping %s: executable not found", name)
			res.Skipped = append(res.Skipped, name)
			continue
		}

		suite, err := r.runOne(ctx, name, path)
		if err != nil {
			r.logger.Errorf("benchmark %s failed: %v", name, err)
			res.Failed = append(res.Failed, name)
			continue
		}
		res.Suites[name] = suite
	}
	return res, nil
}

func (r *Runner) runOne(ctx context.Context, name, path string) (*bench.Suite, error) {
	r.logger.Infof("running %s", name)

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, path, "--benchmark_format=json")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w (stderr: %s)", name, err, bytes.TrimSpace(stderr.Bytes()))
	}

	suite, err := bench.ParseSuite(stdout.Bytes())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return suite, nil
}

// Document assembles a run's suites into a results document, the same shape
// a results file on disk has.
func (res *Result) Document() *bench.Document {
	return &bench.Document{Benchmarks: res.Suites}
}
