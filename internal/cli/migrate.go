package cli

import (
	"fmt"

	"community-ledger/internal/adapter/repository/mysql"
	"community-ledger/internal/infrastructure/db"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the ledger schema",
		Long: `Auto-migrates every ledger table and seeds the community lock row.
Safe to run repeatedly.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			gdb, err := db.OpenGorm(cfg.MySQLDSN(), db.DefaultOptions(log))
			if err != nil {
				return fmt.Errorf("open mysql: %w", err)
			}
			if sqlDB, err := gdb.DB(); err == nil {
				defer sqlDB.Close()
			}

			if err := mysql.Migrate(gdb, cfg.CommunityID); err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
			log.Info("schema migrated", zap.String("community_id", cfg.CommunityID))
			fmt.Fprintln(cmd.OutOrStdout(), "migrated")
			return nil
		},
	}
}
