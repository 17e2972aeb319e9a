// Package main prints the historical valuation of one fund.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"fund-valuation/internal/api"
	"fund-valuation/internal/config"
	"fund-valuation/internal/domain"
	"fund-valuation/internal/fixtures"
	"fund-valuation/internal/performance"
	"fund-valuation/internal/reporting"
	"fund-valuation/internal/storage"
	chstore "fund-valuation/internal/storage/clickhouse"
	"fund-valuation/internal/storage/memory"
	pgstore "fund-valuation/internal/storage/postgres"
	"fund-valuation/internal/verification"
)

func main() {
	flags := config.RegisterFlags(flag.CommandLine)
	fund := flag.String("fund", "", "Fund address (required)")
	at := flag.String("at", "", "Reference time in Unix seconds (default: configured reference or now)")
	format := flag.String("format", "json", "Output format: json, csv, markdown")
	verbose := flag.Bool("verbose", false, "Log calculation details to stderr")
	verify := flag.Bool("verify", false, "Compute twice and report whether both runs match")
	flag.Parse()

	if *fund == "" {
		fmt.Fprintln(os.Stderr, "Error: --fund is required")
		flag.Usage()
		os.Exit(1)
	}
	if *format != "json" && *format != "csv" && *format != "markdown" {
		fmt.Fprintf(os.Stderr, "Error: unknown format %q\n", *format)
		os.Exit(1)
	}

	cfg, err := flags.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		fmt.Fprintln(os.Stderr, "Use --use-memory to run against the demo data set")
		os.Exit(1)
	}

	reference := cfg.Reference(time.Now())
	if *at != "" {
		reference, err = config.ParseTimestamp(*at)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	alignment, err := cfg.Alignment()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	if cfg.RequestTimeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), cfg.RequestTimeout)
	}
	defer cancel()

	funds, allocs, prices, cleanup, err := createStores(ctx, cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error connecting to storage: %v\n", err)
		os.Exit(1)
	}
	defer cleanup()

	logOut := io.Discard
	if *verbose {
		logOut = os.Stderr
	}
	svc := performance.NewService(funds, allocs, prices,
		performance.WithAlignment(alignment),
		performance.WithLogger(log.New(logOut, "[performance] ", log.LstdFlags)),
	)

	if *verify {
		res := verification.NewVerifier(svc).Verify(ctx, verification.Request{FundAddress: *fund, Reference: reference})
		if !printVerification(os.Stdout, res) {
			cleanup()
			os.Exit(1)
		}
		return
	}

	perf, err := svc.Calculate(ctx, *fund, reference)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		cleanup()
		os.Exit(1)
	}

	switch *format {
	case "csv":
		_, err = io.WriteString(os.Stdout, reporting.RenderCSV(reporting.BuildReport(perf, svc.AlignmentName(), time.Now())))
	case "markdown":
		_, err = io.WriteString(os.Stdout, reporting.RenderMarkdown(reporting.BuildReport(perf, svc.AlignmentName(), time.Now())))
	default:
		err = writeJSON(os.Stdout, perf)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		cleanup()
		os.Exit(1)
	}
}

func createStores(ctx context.Context, cfg *config.Config) (
	storage.FundStore, storage.AllocationEventStore, storage.PriceHistoryStore, func(), error,
) {
	if cfg.UseMemory {
		funds := memory.NewFundStore()
		allocs := memory.NewAllocationEventStore()
		prices := memory.NewPriceHistoryStore()
		if err := fixtures.LoadFixtures(ctx, funds, allocs, prices); err != nil {
			return nil, nil, nil, nil, err
		}
		return funds, allocs, prices, func() {}, nil
	}

	pool, err := pgstore.NewPool(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns)
	if err != nil {
		return nil, nil, nil, nil, fmt.Errorf("connect to postgres: %w", err)
	}
	chConn, err := chstore.NewConn(ctx, cfg.ClickHouse.DSN)
	if err != nil {
		pool.Close()
		return nil, nil, nil, nil, fmt.Errorf("connect to clickhouse: %w", err)
	}

	cleanup := func() {
		chConn.Close()
		pool.Close()
	}
	return pgstore.NewFundStore(pool), pgstore.NewAllocationEventStore(pool), chstore.NewPriceHistoryStore(chConn), cleanup, nil
}

func writeJSON(w io.Writer, perf *domain.FundPerformance) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(api.NewPerformanceResponse(perf))
}

// printVerification reports a verification result and returns whether it matched.
func printVerification(w io.Writer, res verification.VerificationResult) bool {
	if res.Err != nil {
		fmt.Fprintf(w, "FAIL %s at %d: %v\n", res.FundAddress, res.Reference, res.Err)
		return false
	}
	if !res.Match {
		fmt.Fprintf(w, "DIVERGED %s at %d\n", res.FundAddress, res.Reference)
		for _, d := range res.Divergences {
			fmt.Fprintf(w, "  %s: %s != %s\n", d.Field, d.Expected, d.Actual)
		}
		return false
	}
	fmt.Fprintf(w, "OK %s at %d sha256=%s\n", res.FundAddress, res.Reference, res.Hash)
	return true
}
