//go:build sqlite

package main

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRunCommandSQLitePersistsAcrossCommands(t *testing.T) {
	workdir := t.TempDir()
	dbPath := filepath.Join(workdir, "dendra.db")
	runID := "cli-sqlite"

	if err := run(context.Background(), []string{
		"run",
		"-store", "sqlite",
		"-db-path", dbPath,
		"-run-id", runID,
		"-epochs", "4",
		"-depth-limit", "2",
		"-seed", "17",
	}); err != nil {
		t.Fatalf("run command: %v", err)
	}
	if _, err := os.Stat(dbPath); err != nil {
		t.Fatalf("expected sqlite db at %s: %v", dbPath, err)
	}

	out, err := captureStdout(func() error {
		return run(context.Background(), []string{"runs", "-store", "sqlite", "-db-path", dbPath})
	})
	if err != nil {
		t.Fatalf("runs command: %v", err)
	}
	if !strings.Contains(out, "run="+runID) {
		t.Fatalf("runs output missing %s: %s", runID, out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"history", "-store", "sqlite", "-db-path", dbPath, "-run-id", runID})
	})
	if err != nil {
		t.Fatalf("history command: %v", err)
	}
	if !strings.Contains(out, "epoch=3") {
		t.Fatalf("history output missing final epoch: %s", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"tree", "-store", "sqlite", "-db-path", dbPath, "-run-id", runID})
	})
	if err != nil {
		t.Fatalf("tree command: %v", err)
	}
	if !strings.Contains(out, "node (0,0)") || !strings.Contains(out, "node (2,") {
		t.Fatalf("tree output missing nodes: %s", out)
	}

	out, err = captureStdout(func() error {
		return run(context.Background(), []string{"summary", "-store", "sqlite", "-db-path", dbPath, "-run-id", runID})
	})
	if err != nil {
		t.Fatalf("summary command: %v", err)
	}
	if !strings.Contains(out, "run="+runID) || !strings.Contains(out, "max-depth=2") {
		t.Fatalf("unexpected summary output: %s", out)
	}

	exportsDir := filepath.Join(workdir, "exports")
	out, err = captureStdout(func() error {
		return run(context.Background(), []string{
			"export",
			"-store", "sqlite",
			"-db-path", dbPath,
			"-exports-dir", exportsDir,
			"-run-id", runID,
		})
	})
	if err != nil {
		t.Fatalf("export command: %v", err)
	}
	exportPath := filepath.Join(exportsDir, runID+".json")
	if !strings.Contains(out, "exported run="+runID) {
		t.Fatalf("unexpected export output: %s", out)
	}
	if _, err := os.Stat(exportPath); err != nil {
		t.Fatalf("expected export at %s: %v", exportPath, err)
	}
}
