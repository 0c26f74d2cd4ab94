// Package cli assembles the sqlinsight command tree.
package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/luckyjian/sqlinsight/internal/config"
	"github.com/luckyjian/sqlinsight/internal/logging"
)

// NewRootCmd builds and returns the root cobra.Command for the sqlinsight CLI.
func NewRootCmd() *cobra.Command {
	var (
		cfgFile   string
		verbosity int
	)

	// cfg and log are shared pointers populated in PersistentPreRunE before
	// any subcommand runs, ensuring environment variables and config file
	// are loaded.
	cfg := &config.Config{}
	log := &zerolog.Logger{}

	root := &cobra.Command{
		Use:   "sqlinsight",
		Short: "Least-intrusion MySQL/PostgreSQL observability collector",
		Long: "sqlinsight probes what a database server actually permits, negotiates the " +
			"deepest safe collection level, and emits one machine-readable envelope per " +
			"cycle: baseline status and schema inventories at Level 0, plus a windowed " +
			"slow-log capture with digests and error-log alerts at Level 1.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			applyFlagOverrides(cmd, loaded)
			if err := loaded.Validate(); err != nil {
				return fmt.Errorf("invalid config: %w", err)
			}
			*cfg = *loaded
			*log = logging.New(os.Stderr, verbosity)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "Config file path (default ~/.sqlinsight/config.yaml)")
	root.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "Increase log verbosity (-v debug, -vv trace)")
	root.PersistentFlags().String("engine", "", "Database engine: mysql|postgres")
	root.PersistentFlags().String("level", "", "Requested collection level: level0|level1")
	root.PersistentFlags().String("output", "", "Envelope format: json|pretty|yaml")

	root.AddCommand(newCollectCmd(cfg, log))

	return root
}

// applyFlagOverrides lets the convenience flags win over file and environment
// values without a second viper pass.
func applyFlagOverrides(cmd *cobra.Command, cfg *config.Config) {
	if flag := cmd.Flags().Lookup("engine"); flag != nil && flag.Changed {
		cfg.Engine = flag.Value.String()
	}
	if flag := cmd.Flags().Lookup("level"); flag != nil && flag.Changed {
		cfg.Level = flag.Value.String()
	}
	if flag := cmd.Flags().Lookup("output"); flag != nil && flag.Changed {
		cfg.Output = flag.Value.String()
	}
}

// Execute runs the root command and exits with code 1 on error.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}
