package commands

import (
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	verbose bool
	logger  = zap.NewNop()
)

// Execute runs the spectro command line.
func Execute() error {
	return NewRootCmd().Execute()
}

// NewRootCmd builds the command tree. Output goes to the command's out
// writer so that callers can capture it.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "spectro",
		Short:        "Estimate spectral lines from a diffraction photograph",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			l, err := newLogger(verbose)
			if err != nil {
				return err
			}
			logger = l
			return nil
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = logger.Sync()
		},
	}

	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log every pipeline stage")

	root.AddCommand(analyzeCmd(), pitchCmd())
	return root
}

// newLogger returns a JSON logger on stderr at Info, or Debug when verbose.
func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.Sampling = nil
	return cfg.Build()
}
