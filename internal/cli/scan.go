package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"community-ledger/internal/adapter/events"
	"community-ledger/internal/adapter/repository/mysql"
	"community-ledger/internal/infrastructure/cache"
	"community-ledger/internal/infrastructure/db"
	"community-ledger/internal/usecase/overdue"

	"github.com/spf13/cobra"
)

// ScanOptions holds flags for the scan-overdue command.
type ScanOptions struct {
	*RootOptions
	Once bool
}

func NewScanOverdueCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan-overdue",
		Short: "Emit overdue events for approved loans past their due date",
		Long: `Scans approved loans with a remaining balance whose due date has passed
and emits one overdue event per loan per scan. Loans are never modified.

Without --once the scan repeats every OVERDUE_SCAN_INTERVAL until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(cmd, opts)
		},
	}
	cmd.Flags().BoolVar(&opts.Once, "once", false, "scan a single time and exit")
	return cmd
}

func runScan(cmd *cobra.Command, opts *ScanOptions) error {
	cfg, log, err := opts.load()
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
	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer rdb.Close()

	publisher := events.Fanout{
		events.NewRedisStream(rdb, cfg.EventStream, streamMaxLen),
		events.NewLog(log),
	}
	scanner := overdue.NewScanner(mysql.NewLoanRepository(gdb), publisher, cfg.OverdueScanInterval, log)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if opts.Once {
		return scanOnce(ctx, scanner, cmd.OutOrStdout())
	}
	scanner.Run(ctx)
	return nil
}

// scanOnce runs a single scan and prints one overdue loan id per line.
func scanOnce(ctx context.Context, s *overdue.Scanner, out io.Writer) error {
	ls, err := s.ScanOnce(ctx)
	if err != nil {
		return fmt.Errorf("scan overdue: %w", err)
	}
	for _, l := range ls {
		fmt.Fprintf(out, "%s\t%s\t%s\n", l.LoanID, l.MemberID, l.RemainingAmount.StringFixed(2))
	}
	fmt.Fprintf(out, "%d overdue\n", len(ls))
	return nil
}
