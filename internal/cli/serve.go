package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"community-ledger/internal/adapter/events"
	httpadp "community-ledger/internal/adapter/http"
	"community-ledger/internal/adapter/middleware"
	"community-ledger/internal/adapter/repository/mysql"
	"community-ledger/internal/config"
	"community-ledger/internal/infrastructure/cache"
	"community-ledger/internal/infrastructure/db"
	"community-ledger/internal/infrastructure/worker"
	"community-ledger/internal/usecase/approval"
	"community-ledger/internal/usecase/eligibility"
	"community-ledger/internal/usecase/loan"
	"community-ledger/internal/usecase/overdue"
	"community-ledger/internal/usecase/repayment"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	streamMaxLen    = 100_000
	workerQueueSize = 256
	shutdownTimeout = 10 * time.Second
)

func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the overdue scanner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := rootOpts.load()
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return serve(ctx, cfg, log)
		},
	}
}

func serve(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	gdb, err := db.OpenGorm(cfg.MySQLDSN(), db.DefaultOptions(log))
	if err != nil {
		return fmt.Errorf("open mysql: %w", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		return err
	}
	defer sqlDB.Close()

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisPass, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer rdb.Close()

	// Two pools: settlement tasks publish events, and a task must never
	// queue behind itself.
	eventPool := worker.NewPool(cfg.WorkerCount, workerQueueSize)
	settlePool := worker.NewPool(cfg.WorkerCount, workerQueueSize)

	app, err := build(cfg, gdb, rdb, eventPool, settlePool, log)
	if err != nil {
		return err
	}

	scanCtx, cancelScan := context.WithCancel(ctx)
	scanDone := make(chan struct{})
	go func() {
		defer close(scanDone)
		app.scanner.Run(scanCtx)
	}()

	addr := ":" + cfg.AppPort
	errc := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", addr))
		if err := app.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
		close(errc)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		log.Info("shutting down")
	case serveErr = <-errc:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := app.echo.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown", zap.Error(err))
	}
	cancelScan()
	<-scanDone
	// settlement first: its tasks still publish through the event pool
	settlePool.Stop()
	eventPool.Stop()
	log.Info("stopped")
	return serveErr
}

type application struct {
	echo    *echo.Echo
	scanner *overdue.Scanner
}

// build wires repositories, use cases and handlers onto a fresh echo instance.
func build(cfg *config.Config, gdb *gorm.DB, rdb *redis.Client, eventPool, settlePool *worker.Pool, log *zap.Logger) (*application, error) {
	rate, err := cfg.InterestRate()
	if err != nil {
		return nil, err
	}
	tx := mysql.NewGormUoW(gdb, cfg.CommunityID)
	reads := tx.Repos()

	publisher := events.NewAsync(events.Fanout{
		events.NewRedisStream(rdb, cfg.EventStream, streamMaxLen),
		events.NewLog(log),
	}, eventPool, log)

	engine := eligibility.NewEngine(rate)
	loans := loan.NewUsecase(tx, reads, engine, publisher,
		loan.Policy{InterestRatePercent: rate, Term: cfg.LoanTerm()}, log.Named("loan"))
	approvals := approval.NewUsecase(tx, engine, publisher, log.Named("approval"))
	distributor := repayment.NewInterestDistributor(tx, publisher, log.Named("interest"))
	payments := repayment.NewUsecase(tx, reads, distributor, settlePool, publisher, log.Named("repayment"))
	scanner := overdue.NewScanner(reads.Loans, publisher, cfg.OverdueScanInterval, log.Named("overdue"))

	sqlDB, err := gdb.DB()
	if err != nil {
		return nil, err
	}
	health := httpadp.NewHandler().
		WithCheck("mysql", sqlDB.PingContext).
		WithCheck("redis", func(ctx context.Context) error { return rdb.Ping(ctx).Err() })

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Logger(), echomw.Recover())

	httpadp.Register(e, httpadp.Handlers{
		Health:    health,
		Loans:     httpadp.NewLoanHandler(loans, scanner),
		Approvals: httpadp.NewApprovalHandler(approvals),
		Payments:  httpadp.NewPaymentHandler(payments),
	}, middleware.Idempotency(rdb, cfg.IdempotencyTTL(), log.Named("idempotency")))

	return &application{echo: e, scanner: scanner}, nil
}
