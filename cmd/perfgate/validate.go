package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/quantfabric/perfgate/pkg/bench"
	"github.com/quantfabric/perfgate/pkg/gate"
	"github.com/quantfabric/perfgate/pkg/report"
	"github.com/quantfabric/perfgate/pkg/spec"
)

func newValidateCmd() *cobra.Command {
	var (
		baselinePath string
		resultsPath  string
		strict       bool
		showPassing  bool
		quick        bool
	)

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Validate benchmark results against stored baselines",
		Long: `Validate compares a benchmark results file against stored baselines using
a symmetric deviation band: within tolerance passes, within twice the
tolerance warns, beyond that fails. Strict mode escalates warnings to
failures. A failing critical metric always gates the build; other failures
gate only in strict mode.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			baselines, err := spec.LoadBaselines(baselinePath)
			if err != nil {
				return err
			}
			if quick {
				baselines = baselines.CriticalOnly()
			}

			doc, err := bench.LoadDocument(resultsPath)
			if err != nil {
				return err
			}

			fmt.Println("Validating performance against baselines...")
			fmt.Printf("Baseline file: %s\n", baselinePath)
			fmt.Printf("Results file: %s\n", resultsPath)
			fmt.Printf("Strict mode: %s\n", onOff(strict))

			outcomes := gate.NewBaseline(baselines, strict, logger).Validate(doc)
			r := report.Aggregate(outcomes)
			r.WriteDetailed(os.Stdout, showPassing)
			r.WriteSummary(os.Stdout)
			fmt.Printf("\n%s\n", r.BaselineVerdict(strict))

			if r.BaselineExitCode(strict) != 0 {
				return errValidationFailed
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&baselinePath, "baseline", "performance_baselines.json", "baseline configuration file")
	cmd.Flags().StringVar(&resultsPath, "results", "benchmark_results/latest_results.json", "results file to validate")
	cmd.Flags().BoolVar(&strict, "strict", false, "treat warnings as failures and gate on any failure")
	cmd.Flags().BoolVar(&showPassing, "show-passing", false, "show passing metrics in the detailed output")
	cmd.Flags().BoolVar(&quick, "quick", false, "validate critical metrics only")
	return cmd
}

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
