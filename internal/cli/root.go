// Package cli holds the ledger's cobra commands.
package cli

import (
	"fmt"
	"os"

	"community-ledger/internal/config"
	"community-ledger/internal/infrastructure/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigFile string
	LogLevel   string
}

func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "ledger",
		Short: "Community loan ledger",
		Long: `Community loan ledger: members borrow against the pooled contributions
of their community, repay, and share the interest.`,
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "", "YAML config file (overrides LEDGER_CONFIG_FILE)")
	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error); overrides LOG_LEVEL")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewMigrateCommand(opts))
	cmd.AddCommand(NewScanOverdueCommand(opts))

	return cmd
}

// load resolves configuration and builds the logger every command starts from.
func (o *RootOptions) load() (*config.Config, *zap.Logger, error) {
	if o.ConfigFile != "" {
		if err := os.Setenv("LEDGER_CONFIG_FILE", o.ConfigFile); err != nil {
			return nil, nil, err
		}
	}
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("config: %w", err)
	}
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	return cfg, log, nil
}
