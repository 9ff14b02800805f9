// Command perfgate validates benchmark results against expected performance
// characteristics and exits non-zero when the build should be gated.
//
// Three modes are provided:
//
//	perfgate validate  — compare a results file against stored baselines
//	                     (symmetric deviation band with a warning zone)
//	perfgate check     — compare a results file against fixed targets
//	                     (only degradation fails)
//	perfgate run       — invoke benchmark binaries, then apply the targets
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// errValidationFailed signals a gate failure that has already been reported
// on stdout; it carries no further diagnostic.
var errValidationFailed = errors.New("performance validation failed")

var (
	verbose bool
	logger  = logrus.New()
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "perfgate",
		Short:         "Performance benchmark validation gate",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			logger.SetOutput(os.Stderr)
			logger.SetLevel(logrus.InfoLevel)
			if verbose {
				logger.SetLevel(logrus.DebugLevel)
			}
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	root.AddCommand(newValidateCmd())
	root.AddCommand(newCheckCmd())
	root.AddCommand(newRunCmd())
	return root
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		if !errors.Is(err, errValidationFailed) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}
