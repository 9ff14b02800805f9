package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantfabric/perfgate/pkg/gate"
	"github.com/quantfabric/perfgate/pkg/report"
	"github.com/quantfabric/perfgate/pkg/runner"
	"github.com/quantfabric/perfgate/pkg/spec"
)

func newRunCmd() *cobra.Command {
	var (
		targetsPath string
		buildDir    string
		benchmarks  []string
		critical    []string
		quick       bool
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run benchmark binaries and check them against targets",
		Long: `Run invokes each benchmark binary with --benchmark_format=json, collects
the output, and applies the fixed-target policy as in "check". Quick mode
runs only the critical subset of benchmarks. A benchmark that fails to run
fails the whole gate.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets, err := spec.LoadTargets(targetsPath)
			if err != nil {
				return err
			}

			r, err := runner.New(buildDir, logger, runner.WithTimeout(timeout))
			if err != nil {
				return err
			}

			names := benchmarks
			if quick {
				names = critical
			}

			fmt.Println("Running benchmark validation...")
			res, err := r.Run(cmd.Context(), names)
			if err != nil {
				return err
			}

			outcomes := gate.NewDirectional(targets, logger).Validate(res.Suites)
			rep := report.Aggregate(outcomes)
			rep.WriteSimple(os.Stdout)

			if len(res.Failed) > 0 {
				fmt.Printf("\n%d benchmarks failed to run: %v\n", len(res.Failed), res.Failed)
				return errValidationFailed
			}
			if rep.DirectionalExitCode() != 0 {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&targetsPath, "targets", "performance_targets.json", "targets configuration file")
	cmd.Flags().StringVar(&buildDir, "build-dir", "build", "directory containing benchmark executables")
	cmd.Flags().StringSliceVar(&benchmarks, "benchmarks", []string{
		"timing_benchmark",
		"order_book_benchmark",
		"end_to_end_benchmark",
		"object_pool_benchmark",
		"ring_buffer_benchmark",
		"feed_handler_benchmark",
	}, "benchmark executables to run")
	cmd.Flags().StringSliceVar(&critical, "critical-benchmarks", []string{
		"timing_benchmark",
		"order_book_benchmark",
		"end_to_end_benchmark",
	}, "benchmark subset used by --quick")
	cmd.Flags().BoolVar(&quick, "quick", false, "run only the critical benchmark subset")
	cmd.Flags().DurationVar(&timeout, "timeout", runner.DefaultTimeout, "per-benchmark timeout")
	return cmd
}
