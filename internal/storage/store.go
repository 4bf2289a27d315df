package storage

import (
	"context"

	"dendra/internal/model"
)

// Store persists run reports: the per-epoch history and the final tree
// snapshot of completed simulation runs. The core tree itself is never
// persisted mid-run; it exists only in memory for the duration of a run.
type Store interface {
	Init(ctx context.Context) error
	SaveRun(ctx context.Context, run model.RunRecord) error
	GetRun(ctx context.Context, id string) (model.RunRecord, bool, error)
	ListRuns(ctx context.Context) ([]model.RunRecord, error)
	SaveSnapshot(ctx context.Context, snapshot model.TreeSnapshot) error
	GetSnapshot(ctx context.Context, runID string) (model.TreeSnapshot, bool, error)
	SaveEpochHistory(ctx context.Context, runID string, history []model.EpochReport) error
	GetEpochHistory(ctx context.Context, runID string) ([]model.EpochReport, bool, error)
}
