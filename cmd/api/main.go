package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"p2p-lending/internal/adapter/events"
	httpadp "p2p-lending/internal/adapter/http"
	"p2p-lending/internal/adapter/middleware"
	"p2p-lending/internal/adapter/repository/mysql"
	"p2p-lending/internal/config"
	"p2p-lending/internal/infrastructure/cache"
	"p2p-lending/internal/infrastructure/db"
	"p2p-lending/internal/infrastructure/metrics"
	"p2p-lending/internal/usecase/funding"
	"p2p-lending/internal/usecase/lifecycle"
	"p2p-lending/internal/usecase/matching"
	"p2p-lending/internal/usecase/repayment"
	"p2p-lending/pkg/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("service exited with error", "err", err)
		os.Exit(1)
	}
	logger.Info("service stopped")
}

func openDB(cfg *config.Config) (*gorm.DB, error) {
	if cfg.DBDriver == config.DriverSQLite {
		return db.OpenSQLite(cfg.SQLitePath)
	}
	return db.OpenGorm(cfg.MySQLDSN())
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	gdb, err := openDB(cfg)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer func() { _ = db.Close(gdb) }()
	if err := db.Migrate(gdb); err != nil {
		return err
	}

	rdb, err := cache.OpenRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		return fmt.Errorf("open redis: %w", err)
	}
	defer func() { _ = rdb.Close() }()

	m := metrics.New()
	pub := m.Publisher(events.Fanout{
		events.NewLog(logger),
		events.NewStream(rdb, cfg.EventStream, cfg.EventStreamMaxLen),
	})

	loans := mysql.NewLoanRepository(gdb)
	investments := mysql.NewInvestmentRepository(gdb)
	installments := mysql.NewInstallmentRepository(gdb)
	borrowers := mysql.NewBorrowerRepository(gdb)
	lenders := mysql.NewLenderRepository(gdb)
	tx := mysql.NewGormUoW(gdb)

	lc := lifecycle.NewUsecase(loans, tx, repayment.NewScheduler(), pub)
	fund := funding.NewUsecase(loans, investments, tx, lc, pub)
	pay := repayment.NewUsecase(loans, installments, tx, lc, pub).
		WithReminders(cache.NewDeduper(rdb, "p2p"), cfg.ReminderWindow())
	match := matching.NewUsecase(loans, investments, lenders)

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = httpadp.NewValidator()
	e.Use(echomw.Recover(), middleware.RequestLogger(logger), m.Middleware())
	e.GET("/metrics", echo.WrapHandler(m.Handler()))
	httpadp.Register(e, httpadp.Handlers{
		Health:      httpadp.NewHandler(),
		Loans:       httpadp.NewLoanHandler(lc),
		Investments: httpadp.NewInvestmentHandler(fund),
		Repayments:  httpadp.NewRepaymentHandler(pay),
		Profiles:    httpadp.NewProfileHandler(borrowers, lenders, match),
	}, middleware.NewIdempotency(rdb, cfg.IdempotencyTTL()).Middleware())

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		addr := ":" + cfg.AppPort
		logger.Info("listening", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout())
		defer cancel()
		logger.Info("shutting down")
		return e.Shutdown(sctx)
	})
	g.Go(func() error {
		sweepLoop(gctx, pay, m, cfg.SweepInterval(), logger)
		return nil
	})
	return g.Wait()
}

// sweepLoop runs the overdue/reminder sweep at startup and then every
// interval until ctx ends. A failed sweep is logged and retried next tick.
func sweepLoop(ctx context.Context, uc *repayment.Usecase, m *metrics.Metrics, interval time.Duration, logger *slog.Logger) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		res, err := uc.Sweep(ctx, time.Now().UTC())
		if res != nil {
			m.ObserveSweep(res.MarkedOverdue, res.Reminders)
		}
		if err != nil && ctx.Err() == nil {
			logger.Error("repayment sweep failed", "err", err)
		} else if res != nil && (res.MarkedOverdue > 0 || res.Reminders > 0) {
			logger.Info("repayment sweep", "marked_overdue", res.MarkedOverdue, "reminders", res.Reminders)
		}

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}
