package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"sort"

	"dendra/internal/model"
	"dendra/internal/node"
	"dendra/internal/storage"
	"dendra/internal/tree"
	"dendra/pkg/dendra"
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
	case "init":
		return runInit(ctx, args[1:])
	case "run":
		return runRun(ctx, args[1:])
	case "runs":
		return runRuns(ctx, args[1:])
	case "history":
		return runHistory(ctx, args[1:])
	case "tree":
		return runTree(ctx, args[1:])
	case "summary":
		return runSummary(ctx, args[1:])
	case "export":
		return runExport(ctx, args[1:])
	default:
		return usageError(fmt.Sprintf("unknown command: %s", args[0]))
	}
}

func runInit(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("init", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dendra.db", "sqlite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dendra.New(dendra.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	if err := client.Init(ctx); err != nil {
		return err
	}

	fmt.Printf("initialized store=%s\n", *storeKind)
	return nil
}

func runRun(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dendra.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id (generated when empty)")
	epochs := fs.Int("epochs", 50, "propagation passes to run")
	depthLimit := fs.Int("depth-limit", 3, "tree depth limit (0 makes the root its own leaf)")
	seed := fs.Int64("seed", 1, "seed for all randomness in the run")
	goal := fs.String("goal", "", "pin every epoch to one goal: stability|chaos|inversion (empty = random mix)")
	verbose := fs.Bool("verbose", false, "print per-node observations")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dendra.New(dendra.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Run(ctx, dendra.RunRequest{
		RunID:      *runID,
		Epochs:     *epochs,
		DepthLimit: *depthLimit,
		Seed:       *seed,
		Goal:       model.Goal(*goal),
		Hooks:      printHooks(*verbose),
	})
	if err != nil {
		return err
	}

	fmt.Printf("run=%s epochs=%d depth-limit=%d nodes=%d final-output=%.4f root-mood=%s\n",
		summary.RunID, summary.Epochs, summary.DepthLimit, summary.NodeCount, summary.FinalOutput, summary.FinalRootMood)
	return nil
}

// printHooks builds the printing observation sink. The core never formats
// anything itself; observation formatting lives here, at the process edge.
func printHooks(verbose bool) tree.Hooks {
	hooks := tree.Hooks{
		OnEpoch: func(report model.EpochReport) {
			fmt.Printf("epoch=%d goal=%s output=%.4f root-mood=%s\n",
				report.Epoch, report.Goal, report.Output, report.RootMood)
		},
	}
	if !verbose {
		return hooks
	}
	hooks.OnNode = func(obs node.Observation) {
		if obs.Weights == nil {
			fmt.Printf("  leaf (%d,%d) goal=%s output=%.4f mood=%s\n",
				obs.Coordinate.Depth, obs.Coordinate.Index, obs.Goal, obs.Output, obs.Mood)
			return
		}
		fmt.Printf("  node (%d,%d) goal=%s output=%.4f mood=%s weights=%v\n",
			obs.Coordinate.Depth, obs.Coordinate.Index, obs.Goal, obs.Output, obs.Mood, obs.Weights)
	}
	hooks.OnGrowth = func(growth node.Growth) {
		fmt.Printf("  growth (%d,%d) -> (%d,%d)\n",
			growth.Parent.Depth, growth.Parent.Index, growth.Child.Depth, growth.Child.Index)
	}
	return hooks
}

func runRuns(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("runs", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dendra.db", "sqlite database path")
	jsonOut := fs.Bool("json", false, "emit runs list as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	client, err := dendra.New(dendra.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	runs, err := client.Runs(ctx)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}
	if *jsonOut {
		return printJSON(runs)
	}
	for _, run := range runs {
		fmt.Printf("run=%s epochs=%d depth-limit=%d seed=%d nodes=%d\n",
			run.ID, run.Epochs, run.DepthLimit, run.Seed, run.NodeCount)
	}
	return nil
}

func runHistory(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dendra.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id")
	jsonOut := fs.Bool("json", false, "emit history as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("history requires -run-id")
	}

	client, err := dendra.New(dendra.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	history, err := client.EpochHistory(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(history)
	}
	for _, report := range history {
		fmt.Printf("epoch=%d goal=%s output=%.4f root-mood=%s\n",
			report.Epoch, report.Goal, report.Output, report.RootMood)
	}
	return nil
}

func runTree(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("tree", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dendra.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id")
	jsonOut := fs.Bool("json", false, "emit snapshot as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("tree requires -run-id")
	}

	client, err := dendra.New(dendra.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	snapshot, err := client.Snapshot(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(snapshot)
	}
	for _, record := range snapshot.Nodes {
		fmt.Printf("node (%d,%d) mood=%s weights=%v history=%d\n",
			record.Coordinate.Depth, record.Coordinate.Index, record.Mood, record.Weights, len(record.History))
	}
	return nil
}

func runSummary(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("summary", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dendra.db", "sqlite database path")
	runID := fs.String("run-id", "", "run id")
	jsonOut := fs.Bool("json", false, "emit summary as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("summary requires -run-id")
	}

	client, err := dendra.New(dendra.Options{StoreKind: *storeKind, DBPath: *dbPath})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	report, err := client.Summary(ctx, *runID)
	if err != nil {
		return err
	}
	if *jsonOut {
		return printJSON(report)
	}
	fmt.Printf("run=%s epochs=%d nodes=%d max-depth=%d\n", report.RunID, report.Epochs, report.NodeCount, report.MaxDepth)
	fmt.Printf("output mean=%.4f std=%.4f final-root-mood=%s\n", report.MeanOutput, report.StdOutput, report.FinalRootMood)
	goals := make([]string, 0, len(report.GoalCounts))
	for goal := range report.GoalCounts {
		goals = append(goals, string(goal))
	}
	sort.Strings(goals)
	for _, goal := range goals {
		fmt.Printf("goal %s: %d epochs\n", goal, report.GoalCounts[model.Goal(goal)])
	}
	moods := make([]string, 0, len(report.MoodCounts))
	for mood := range report.MoodCounts {
		moods = append(moods, string(mood))
	}
	sort.Strings(moods)
	for _, mood := range moods {
		fmt.Printf("mood %s: %d nodes\n", mood, report.MoodCounts[model.Mood(mood)])
	}
	return nil
}

func runExport(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("export", flag.ContinueOnError)
	storeKind := fs.String("store", storage.DefaultStoreKind(), "store backend: memory|sqlite")
	dbPath := fs.String("db-path", "dendra.db", "sqlite database path")
	exportsDir := fs.String("exports-dir", "exports", "directory for exported run documents")
	runID := fs.String("run-id", "", "run id")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *runID == "" {
		return usageError("export requires -run-id")
	}

	client, err := dendra.New(dendra.Options{StoreKind: *storeKind, DBPath: *dbPath, ExportsDir: *exportsDir})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()

	summary, err := client.Export(ctx, *runID)
	if err != nil {
		return err
	}
	fmt.Printf("exported run=%s path=%s\n", summary.RunID, summary.Path)
	return nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func usageError(msg string) error {
	return fmt.Errorf("%s\nusage: dendractl <init|run|runs|history|tree|summary|export> [flags]", msg)
}
