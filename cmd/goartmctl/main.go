package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"goartm/internal/artifacts"
	"goartm/internal/batches"
	"goartm/internal/config"
	"goartm/internal/model"
	"goartm/internal/storage"
)

const exportsDir = "exports"

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
	case "init":
		return runInit(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "scores":
		return runScores(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	case "resolve":
		return runResolve(ctx, args[1:])
	case "config":
		return runConfig(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "goartm.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()

	if err := store.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "goartm.db", "sqlite database path")
	limit := fs.Int("limit", 20, "max runs to list")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *limit <= 0 {
		return errors.New("limit must be > 0")
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	runs, err := store.ListRuns(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if len(runs) > *limit {
		runs = runs[len(runs)-*limit:]
	}

	if *jsonOut {
		return printJSON(runs)
	}
	for _, r := range runs {
		fmt.Printf("run_id=%s mode=%s batches=%d syncs=%d topics=%d started=%s\n",
			r.ID, r.Mode, r.Batches, r.Synchronizations, r.Topics,
			r.StartedAt.UTC().Format("2006-01-02T15:04:05Z"))
	}
	return nil
}

func runScores(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("scores", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "goartm.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "use the most recent run")
	jsonOut := fs.Bool("json", false, "emit score tracks as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	id, err := pickRun(ctx, store, *runID, *latest)
	if err != nil {
		return err
	}
	tracks, ok, err := store.GetScoreTracks(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("no score tracks for run %s", id)
	}

	if *jsonOut {
		return printJSON(tracks)
	}
	for _, track := range tracks {
		fmt.Printf("%s (%s):", track.Name, track.Kind)
		for _, sample := range track.Samples {
			if sample.Placeholder {
				fmt.Print(" -")
				continue
			}
			fmt.Printf(" %g", sample.Value.Scalar)
		}
		fmt.Println()
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "goartm.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id")
	latest := fs.Bool("latest", false, "export the most recent run")
	outDir := fs.String("out", exportsDir, "export output directory")
	if err := fs.Parse(args); err != nil {
		return err
	}

	store, err := storage.NewStore(*storeKind, *dbPath)
	if err != nil {
		return err
	}
	defer func() {
		_ = storage.CloseIfSupported(store)
	}()
	if err := store.Init(ctx); err != nil {
		return err
	}

	id, err := pickRun(ctx, store, *runID, *latest)
	if err != nil {
		return err
	}
	record, ok, err := store.GetRun(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("run not found: %s", id)
	}
	tracks, _, err := store.GetScoreTracks(ctx, id)
	if err != nil {
		return err
	}

	runDir, err := artifacts.WriteRunArtifacts(*outDir, record, tracks)
	if err != nil {
		return err
	}
	err = artifacts.AppendRunIndex(*outDir, artifacts.RunIndexEntry{
		RunID:            record.ID,
		Mode:             record.Mode,
		Passes:           record.Passes,
		Batches:          record.Batches,
		Synchronizations: record.Synchronizations,
		Topics:           record.Topics,
		CreatedAtUTC:     record.StartedAt.UTC().Format("2006-01-02T15:04:05Z"),
	})
	if err != nil {
		return err
	}

	fmt.Printf("exported run_id=%s to=%s\n", id, filepath.Clean(runDir))
	return nil
}

func runResolve(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ContinueOnError)
	dataPath := fs.String("data-path", "", "batches folder")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *dataPath == "" {
		return errors.New("resolve requires --data-path")
	}

	// Only the native layout can be inspected without an engine session;
	// other formats are converted during a fit call.
	list, err := batches.Resolve(ctx, nil, batches.Request{
		DataPath: *dataPath,
		Format:   model.FormatBatches,
	})
	if err != nil {
		return err
	}
	for _, batch := range list {
		fmt.Println(batch)
	}
	fmt.Printf("%d batches\n", len(list))
	return nil
}

func runConfig(_ context.Context, args []string) error {
	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	file := fs.String("file", "goartm.yaml", "session configuration file")
	jsonOut := fs.Bool("json", false, "emit the parsed configuration as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := config.Load(*file)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(cfg)
	}
	topics := cfg.Topics
	if len(cfg.TopicNames) > 0 {
		topics = len(cfg.TopicNames)
	}
	fmt.Printf("config ok: topics=%d regularizers=%d scores=%d store=%s\n",
		topics, len(cfg.Regularizers), len(cfg.Scores), orDefault(cfg.Store.Kind, "memory"))
	return nil
}

func pickRun(ctx context.Context, store storage.Store, runID string, latest bool) (string, error) {
	if runID != "" && latest {
		return "", errors.New("use either --run-id or --latest, not both")
	}
	if runID != "" {
		return runID, nil
	}
	if !latest {
		return "", errors.New("requires --run-id or --latest")
	}
	runs, err := store.ListRuns(ctx)
	if err != nil {
		return "", err
	}
	if len(runs) == 0 {
		return "", errors.New("no runs available")
	}
	return runs[len(runs)-1].ID, nil
}

func printJSON(payload any) error {
	data, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: goartmctl <init|runs|scores|export|resolve|config> [flags]", msg)
}
