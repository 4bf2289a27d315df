// Package dendra is the embedding API for the signal propagation tree: it
// runs simulations, archives their reports through a pluggable store, and
// answers inspection queries about past runs.
package dendra

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"dendra/internal/model"
	"dendra/internal/stats"
	"dendra/internal/storage"
	"dendra/internal/tree"
)

const (
	defaultDBPath     = "dendra.db"
	defaultExportsDir = "exports"
	defaultEpochs     = 50
)

type Options struct {
	StoreKind  string
	DBPath     string
	ExportsDir string
}

type Client struct {
	store      storage.Store
	exportsDir string
	started    bool
}

// RunRequest configures one simulation run. Epochs defaults to 50 when zero;
// DepthLimit zero is meaningful (the root acts as its own leaf) and is passed
// through as-is. Goal pins every epoch to one goal tag; empty means uniform
// random over stability/chaos/inversion.
type RunRequest struct {
	RunID      string
	Epochs     int
	DepthLimit int
	Seed       int64
	Activation string
	Goal       model.Goal
	Hooks      tree.Hooks
}

type RunSummary struct {
	RunID         string     `json:"run_id"`
	Epochs        int        `json:"epochs"`
	DepthLimit    int        `json:"depth_limit"`
	Seed          int64      `json:"seed"`
	NodeCount     int        `json:"node_count"`
	FinalOutput   float64    `json:"final_output"`
	FinalRootMood model.Mood `json:"final_root_mood"`
}

type ExportSummary struct {
	RunID string `json:"run_id"`
	Path  string `json:"path"`
}

type runExport struct {
	Run      model.RunRecord     `json:"run"`
	History  []model.EpochReport `json:"history"`
	Snapshot model.TreeSnapshot  `json:"snapshot"`
}

func New(opts Options) (*Client, error) {
	storeKind := opts.StoreKind
	if storeKind == "" {
		storeKind = storage.DefaultStoreKind()
	}
	dbPath := opts.DBPath
	if dbPath == "" {
		dbPath = defaultDBPath
	}
	exportsDir := opts.ExportsDir
	if exportsDir == "" {
		exportsDir = defaultExportsDir
	}

	store, err := storage.NewStore(storeKind, dbPath)
	if err != nil {
		return nil, err
	}

	return &Client{
		store:      store,
		exportsDir: exportsDir,
	}, nil
}

func (c *Client) Close() error {
	return storage.CloseIfSupported(c.store)
}

func (c *Client) Init(ctx context.Context) error {
	if c.started {
		return nil
	}
	if err := c.store.Init(ctx); err != nil {
		return err
	}
	c.started = true
	return nil
}

// Run executes one simulation to completion and archives its run record,
// epoch history, and final tree snapshot.
func (c *Client) Run(ctx context.Context, req RunRequest) (RunSummary, error) {
	if err := c.Init(ctx); err != nil {
		return RunSummary{}, err
	}
	if req.Epochs == 0 {
		req.Epochs = defaultEpochs
	}
	runID := req.RunID
	if runID == "" {
		runID = uuid.NewString()
	}

	var selector tree.GoalSelector
	if req.Goal != "" {
		goal := req.Goal
		selector = func() model.Goal { return goal }
	}

	t, err := tree.New(tree.Config{
		Seed:         req.Seed,
		Activation:   req.Activation,
		GoalSelector: selector,
		Hooks:        req.Hooks,
	})
	if err != nil {
		return RunSummary{}, err
	}

	history, err := t.RunEpochs(ctx, req.Epochs, req.DepthLimit)
	if err != nil {
		return RunSummary{}, err
	}

	snapshot := t.Snapshot(runID)
	snapshot.VersionedRecord = currentVersion()
	run := model.RunRecord{
		VersionedRecord: currentVersion(),
		ID:              runID,
		Epochs:          req.Epochs,
		DepthLimit:      req.DepthLimit,
		Seed:            req.Seed,
		NodeCount:       t.NodeCount(),
	}

	if err := c.store.SaveRun(ctx, run); err != nil {
		return RunSummary{}, fmt.Errorf("save run %s: %w", runID, err)
	}
	if err := c.store.SaveEpochHistory(ctx, runID, history); err != nil {
		return RunSummary{}, fmt.Errorf("save epoch history %s: %w", runID, err)
	}
	if err := c.store.SaveSnapshot(ctx, snapshot); err != nil {
		return RunSummary{}, fmt.Errorf("save snapshot %s: %w", runID, err)
	}

	final := history[len(history)-1]
	return RunSummary{
		RunID:         runID,
		Epochs:        req.Epochs,
		DepthLimit:    req.DepthLimit,
		Seed:          req.Seed,
		NodeCount:     t.NodeCount(),
		FinalOutput:   final.Output,
		FinalRootMood: final.RootMood,
	}, nil
}

func (c *Client) Runs(ctx context.Context) ([]model.RunRecord, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	return c.store.ListRuns(ctx)
}

func (c *Client) EpochHistory(ctx context.Context, runID string) ([]model.EpochReport, error) {
	if err := c.Init(ctx); err != nil {
		return nil, err
	}
	history, ok, err := c.store.GetEpochHistory(ctx, runID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("epoch history not found for run: %s", runID)
	}
	return history, nil
}

func (c *Client) Snapshot(ctx context.Context, runID string) (model.TreeSnapshot, error) {
	if err := c.Init(ctx); err != nil {
		return model.TreeSnapshot{}, err
	}
	snapshot, ok, err := c.store.GetSnapshot(ctx, runID)
	if err != nil {
		return model.TreeSnapshot{}, err
	}
	if !ok {
		return model.TreeSnapshot{}, fmt.Errorf("snapshot not found for run: %s", runID)
	}
	return snapshot, nil
}

// Summary builds the condensed run report used by the CLI summary command.
func (c *Client) Summary(ctx context.Context, runID string) (stats.RunReport, error) {
	if err := c.Init(ctx); err != nil {
		return stats.RunReport{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return stats.RunReport{}, err
	}
	if !ok {
		return stats.RunReport{}, fmt.Errorf("run not found: %s", runID)
	}
	history, ok, err := c.store.GetEpochHistory(ctx, runID)
	if err != nil {
		return stats.RunReport{}, err
	}
	if !ok {
		return stats.RunReport{}, fmt.Errorf("epoch history not found for run: %s", runID)
	}
	snapshot, ok, err := c.store.GetSnapshot(ctx, runID)
	if err != nil {
		return stats.RunReport{}, err
	}
	if !ok {
		return stats.RunReport{}, fmt.Errorf("snapshot not found for run: %s", runID)
	}
	return stats.BuildRunReport(run, history, snapshot)
}

// Export writes a run's record, history, and snapshot as one JSON document
// under the exports directory.
func (c *Client) Export(ctx context.Context, runID string) (ExportSummary, error) {
	if runID == "" {
		return ExportSummary{}, errors.New("run id is required")
	}
	if err := c.Init(ctx); err != nil {
		return ExportSummary{}, err
	}
	run, ok, err := c.store.GetRun(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	if !ok {
		return ExportSummary{}, fmt.Errorf("run not found: %s", runID)
	}
	history, _, err := c.store.GetEpochHistory(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}
	snapshot, _, err := c.store.GetSnapshot(ctx, runID)
	if err != nil {
		return ExportSummary{}, err
	}

	if err := os.MkdirAll(c.exportsDir, 0o755); err != nil {
		return ExportSummary{}, err
	}
	path := filepath.Join(c.exportsDir, runID+".json")
	data, err := json.MarshalIndent(runExport{Run: run, History: history, Snapshot: snapshot}, "", "  ")
	if err != nil {
		return ExportSummary{}, err
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return ExportSummary{}, err
	}
	return ExportSummary{RunID: runID, Path: path}, nil
}

func currentVersion() model.VersionedRecord {
	return model.VersionedRecord{
		SchemaVersion: storage.CurrentSchemaVersion,
		CodecVersion:  storage.CurrentCodecVersion,
	}
}
