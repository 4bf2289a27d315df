package dendra

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"dendra/internal/model"
	"dendra/internal/storage"
)

func newMemoryClient(t *testing.T) *Client {
	t.Helper()
	client, err := New(Options{StoreKind: "memory", ExportsDir: t.TempDir()})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	t.Cleanup(func() {
		_ = client.Close()
	})
	return client
}

func TestNewRejectsUnknownStore(t *testing.T) {
	if _, err := New(Options{StoreKind: "bogus"}); err == nil {
		t.Fatal("expected error for unknown store kind")
	}
}

func TestRunArchivesAndDefaults(t *testing.T) {
	client := newMemoryClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{Seed: 11, DepthLimit: 0})
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if summary.RunID == "" {
		t.Fatal("run id not generated")
	}
	if summary.Epochs != 50 {
		t.Fatalf("epochs = %d, want default 50", summary.Epochs)
	}
	if summary.NodeCount != 1 {
		t.Fatalf("node count = %d, want 1 for depth limit 0", summary.NodeCount)
	}

	runs, err := client.Runs(ctx)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	if len(runs) != 1 || runs[0].ID != summary.RunID {
		t.Fatalf("unexpected runs: %+v", runs)
	}
	if runs[0].SchemaVersion != storage.CurrentSchemaVersion || runs[0].CodecVersion != storage.CurrentCodecVersion {
		t.Fatalf("run record not versioned: %+v", runs[0].VersionedRecord)
	}

	history, err := client.EpochHistory(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("epoch history: %v", err)
	}
	if len(history) != 50 {
		t.Fatalf("history length = %d, want 50", len(history))
	}
	if history[len(history)-1].Output != summary.FinalOutput {
		t.Fatalf("final output mismatch: %f vs %f", history[len(history)-1].Output, summary.FinalOutput)
	}

	snapshot, err := client.Snapshot(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if snapshot.RunID != summary.RunID || len(snapshot.Nodes) != 1 {
		t.Fatalf("unexpected snapshot: run=%s nodes=%d", snapshot.RunID, len(snapshot.Nodes))
	}
}

func TestRunPinnedGoal(t *testing.T) {
	client := newMemoryClient(t)
	ctx := context.Background()

	summary, err := client.Run(ctx, RunRequest{
		RunID:      "pinned",
		Epochs:     6,
		DepthLimit: 1,
		Seed:       3,
		Goal:       model.GoalInversion,
	})
	if err != nil {
		t.Fatalf("run: %v", err)
	}

	history, err := client.EpochHistory(ctx, summary.RunID)
	if err != nil {
		t.Fatalf("epoch history: %v", err)
	}
	for i, report := range history {
		if report.Goal != model.GoalInversion {
			t.Fatalf("epoch %d goal = %s, want inversion", i, report.Goal)
		}
	}
}

func TestRunDeterministicForSeed(t *testing.T) {
	ctx := context.Background()
	run := func(t *testing.T) RunSummary {
		client := newMemoryClient(t)
		summary, err := client.Run(ctx, RunRequest{RunID: "fixed", Epochs: 10, DepthLimit: 2, Seed: 77})
		if err != nil {
			t.Fatalf("run: %v", err)
		}
		return summary
	}

	first := run(t)
	second := run(t)
	if first != second {
		t.Fatalf("summaries differ for identical seeds:\n%+v\n%+v", first, second)
	}
}

func TestSummary(t *testing.T) {
	client := newMemoryClient(t)
	ctx := context.Background()

	if _, err := client.Run(ctx, RunRequest{RunID: "sum", Epochs: 8, DepthLimit: 2, Seed: 5}); err != nil {
		t.Fatalf("run: %v", err)
	}

	report, err := client.Summary(ctx, "sum")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if report.RunID != "sum" || report.Epochs != 8 {
		t.Fatalf("unexpected report: %+v", report)
	}
	if report.NodeCount < 13 {
		t.Fatalf("node count = %d, want >= 13 for depth limit 2", report.NodeCount)
	}
	if report.MaxDepth != 2 {
		t.Fatalf("max depth = %d, want 2", report.MaxDepth)
	}
	total := 0
	for _, count := range report.GoalCounts {
		total += count
	}
	if total != 8 {
		t.Fatalf("goal counts sum to %d, want 8", total)
	}

	if _, err := client.Summary(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestExport(t *testing.T) {
	exportsDir := t.TempDir()
	client, err := New(Options{StoreKind: "memory", ExportsDir: exportsDir})
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	defer func() {
		_ = client.Close()
	}()
	ctx := context.Background()

	if _, err := client.Run(ctx, RunRequest{RunID: "exp", Epochs: 4, DepthLimit: 1, Seed: 2}); err != nil {
		t.Fatalf("run: %v", err)
	}

	summary, err := client.Export(ctx, "exp")
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	if summary.Path != filepath.Join(exportsDir, "exp.json") {
		t.Fatalf("unexpected export path: %s", summary.Path)
	}

	data, err := os.ReadFile(summary.Path)
	if err != nil {
		t.Fatalf("read export: %v", err)
	}
	var doc runExport
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("decode export: %v", err)
	}
	if doc.Run.ID != "exp" || len(doc.History) != 4 || doc.Snapshot.RunID != "exp" {
		t.Fatalf("unexpected export document: run=%s history=%d snapshot=%s",
			doc.Run.ID, len(doc.History), doc.Snapshot.RunID)
	}

	if _, err := client.Export(ctx, ""); err == nil {
		t.Fatal("expected error for empty run id")
	}
	if _, err := client.Export(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing run")
	}
}

func TestLookupMissingRun(t *testing.T) {
	client := newMemoryClient(t)
	ctx := context.Background()

	if _, err := client.EpochHistory(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing history")
	}
	if _, err := client.Snapshot(ctx, "missing"); err == nil {
		t.Fatal("expected error for missing snapshot")
	}
}
