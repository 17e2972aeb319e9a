// Package main runs the fund performance HTTP service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"syscall"
	"time"

	"github.com/oklog/run"

	"fund-valuation/internal/api"
	"fund-valuation/internal/cache"
	"fund-valuation/internal/config"
	"fund-valuation/internal/fixtures"
	"fund-valuation/internal/performance"
	"fund-valuation/internal/storage"
	chstore "fund-valuation/internal/storage/clickhouse"
	"fund-valuation/internal/storage/memory"
	"fund-valuation/internal/storage/migrations"
	pgstore "fund-valuation/internal/storage/postgres"
)

// stores holds the three storage implementations the service reads.
type stores struct {
	funds  storage.FundStore
	allocs storage.AllocationEventStore
	prices storage.PriceHistoryStore
}

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	migrate := flag.Bool("migrate", false, "Apply embedded migrations before serving")
	seed := flag.Bool("seed", false, "Load the demo data set into the configured stores")
	flag.Parse()

	logger := log.New(os.Stdout, "[server] ", log.LstdFlags|log.Lshortfile)

	cfg, err := flags.Load()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatalf("Invalid config: %v", err)
	}
	alignment, err := cfg.Alignment()
	if err != nil {
		logger.Fatalf("Invalid alignment: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st, cleanup, err := createStores(ctx, cfg, *migrate, logger)
	if err != nil {
		logger.Fatalf("Failed to create stores: %v", err)
	}
	defer cleanup()

	if cfg.UseMemory || *seed {
		if err := fixtures.LoadFixtures(ctx, st.funds, st.allocs, st.prices); err != nil {
			logger.Fatalf("Failed to load demo data: %v", err)
		}
		logger.Printf("Loaded demo data (fund %s)", fixtures.DemoFundAddress)
	}

	svc := performance.NewService(st.funds, st.allocs, st.prices,
		performance.WithAlignment(alignment),
		performance.WithLogger(log.New(os.Stdout, "[performance] ", log.LstdFlags)),
	)

	var calc performance.Calculator = svc
	if cfg.CacheEnabled() {
		client, err := cache.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatalf("Failed to connect to redis: %v", err)
		}
		rc := cache.NewRedisCache(client, cfg.Redis.TTL)
		defer rc.Close()
		calc = cache.NewCachedCalculator(svc, rc, svc.AlignmentName(), logger)
		logger.Printf("Result cache enabled (redis %s, ttl %v)", cfg.Redis.Addr, cfg.Redis.TTL)
	}

	handler := api.NewHandler(calc,
		api.WithReference(func() uint32 { return cfg.Reference(time.Now()) }),
		api.WithTimeout(cfg.RequestTimeout),
		api.WithLogger(logger),
	)

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           handler.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var g run.Group
	g.Add(func() error {
		logger.Printf("Starting HTTP server on %s (alignment %s)", cfg.HTTPAddr, svc.AlignmentName())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}, func(error) {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Printf("HTTP shutdown error: %v", err)
		}
	})
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sig run.SignalError
	if err != nil && !errors.As(err, &sig) {
		logger.Printf("Server stopped: %v", err)
		cleanup()
		os.Exit(1)
	}
	logger.Println("Server stopped")
}

// createStores returns memory stores or connects to PostgreSQL and ClickHouse,
// applying migrations first when migrate is set.
func createStores(ctx context.Context, cfg *config.Config, migrate bool, logger *log.Logger) (*stores, func(), error) {
	if cfg.UseMemory {
		return &stores{
			funds:  memory.NewFundStore(),
			allocs: memory.NewAllocationEventStore(),
			prices: memory.NewPriceHistoryStore(),
		}, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}

	var chConn *chstore.Conn
	if migrate {
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate postgres: %w", err)
		}
		chConn, err = migrations.RunClickhouseMigrations(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("migrate clickhouse: %w", err)
		}
		logger.Println("Migrations applied")
	} else {
		chConn, err = chstore.NewConn(ctx, cfg.ClickHouse.DSN)
		if err != nil {
			pool.Close()
			return nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
		}
	}

	st := &stores{
		funds:  pgstore.NewFundStore(pool),
		allocs: pgstore.NewAllocationEventStore(pool),
		prices: chstore.NewPriceHistoryStore(chConn),
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}

	return st, cleanup, nil
}
