package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quantfabric/perfgate/pkg/bench"
	"github.com/quantfabric/perfgate/pkg/gate"
	"github.com/quantfabric/perfgate/pkg/report"
	"github.com/quantfabric/perfgate/pkg/spec"
)

func newCheckCmd() *cobra.Command {
	var (
		targetsPath string
		resultsPath string
	)

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check benchmark results against fixed performance targets",
		Long: `Check compares a benchmark results file against fixed targets using an
asymmetric tolerance: a metric fails only when it degrades past its target
by more than the tolerance in the direction that matters. Improvements
always pass. Any metric that cannot be located fails the run.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			targets, err := spec.LoadTargets(targetsPath)
			if err != nil {
				return err
			}

			doc, err := bench.LoadDocument(resultsPath)
			if err != nil {
				return err
			}

			outcomes := gate.NewDirectional(targets, logger).Validate(doc.Benchmarks)
			r := report.Aggregate(outcomes)
			r.WriteSimple(os.Stdout)

			if r.DirectionalExitCode() != 0 {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&targetsPath, "targets", "performance_targets.json", "targets configuration file")
	cmd.Flags().StringVar(&resultsPath, "results", "benchmark_results/latest_results.json", "results file to check")
	return cmd
}
