package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/austin-mroz/stk/internal/config"
	_ "github.com/austin-mroz/stk/internal/domains"
	"github.com/austin-mroz/stk/internal/storage"
	"github.com/austin-mroz/stk/pkg/stk"
)

func main() {
	if err := run(context.Background(), os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usageError("missing command")
	}

	switch args[0] {
	case "run":
		return runRun(ctx, args[1:])
	case "resume":
		return runResume(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "progress":
		return runProgress(ctx, args[1:])
	case "compare":
		return runCompare(args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: stkctl <run|resume|runs|progress|compare> [flags]", msg)
}

func newClient(storeKind, dbPath string) (*stk.Client, error) {
	return stk.New(stk.Options{StoreKind: storeKind, DBPath: dbPath})
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	configPath := fs.String("config", "", "run configuration file (yaml)")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *configPath == "" {
		return usageError("run requires -config")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, cfg)
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func runResume(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resume", flag.ContinueOnError)
	outputDir := fs.String("output", "", "output directory of the interrupted run")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *outputDir == "" {
		return usageError("resume requires -output")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Resume(ctx, *outputDir)
	if err != nil {
		return err
	}
	printSummary(summary)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stk.db", "sqlite database path")
	limit := fs.Int("limit", 20, "maximum runs to list")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	records, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(records) > *limit {
		records = records[len(records)-*limit:]
	}
	for _, r := range records {
		created := r.CreatedAtUTC
		if t, err := time.Parse(time.RFC3339, r.CreatedAtUTC); err == nil {
			created = humanize.Time(t)
		}
		fmt.Printf("run=%s created=%s domain=%s seed=%d population=%d generations=%d/%d best=%.6f exited_early=%t\n",
			r.RunID, created, r.Domain, r.Seed, r.PopulationSize, r.CompletedGens, r.Generations, r.BestScaled, r.ExitedEarly)
	}
	return nil
}

func runProgress(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("progress", flag.ContinueOnError)
	runID := fs.String("run", "", "run id")
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "stk.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("progress requires -run")
	}

	client, err := newClient(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshots, ok, err := client.Progress(ctx, *runID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no progress recorded for run %s", *runID)
	}
	for _, s := range snapshots {
		fmt.Printf("generation=%d scaled_min=%.6f scaled_max=%.6f scaled_mean=%.6f\n",
			s.Generation, s.Scaled.Min, s.Scaled.Max, s.Scaled.Mean)
	}
	return nil
}

func runCompare(args []string) error {
	fs := flag.NewFlagSet("compare", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	paths := fs.Args()
	if len(paths) < 2 {
		return usageError("compare requires at least two population checkpoint paths")
	}

	cmp, err := stk.Compare(paths)
	if err != nil {
		return err
	}
	for _, e := range cmp.Entries {
		fmt.Printf("checkpoint=%s population=%s size=%d best=%.6f mean=%.6f\n",
			e.Path, e.Name, e.Size, e.BestScaled, e.MeanScaled)
	}
	fmt.Printf("winner=%s identity=%s best=%.6f\n", cmp.BestPath, cmp.BestIdentity, cmp.BestScaled)
	return nil
}

func printSummary(summary stk.RunSummary) {
	for _, d := range summary.Diagnostics {
		fmt.Printf("generation=%d best=%.6f mean=%.6f min=%.6f size=%d failed=%d duplicates=%d\n",
			d.Generation, d.BestScaled, d.MeanScaled, d.MinScaled, d.PopulationSize, d.FailedCount, d.Duplicates)
	}
	fmt.Printf("run=%s output=%s generations=%d exited_early=%t best=%.6f elapsed=%s\n",
		summary.RunID, summary.OutputDir, summary.CompletedGenerations, summary.ExitedEarly,
		summary.BestScaled, humanize.RelTime(time.Now().Add(-summary.Elapsed), time.Now(), "", ""))
}
