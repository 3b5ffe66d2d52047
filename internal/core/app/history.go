package app

import (
	"context"
	"time"

	"nsguard/internal/core/errors"
	"nsguard/internal/core/ports"
	"nsguard/internal/data/history"
)

// HistoryRecorder persists run results and builds trend reports from them.
type HistoryRecorder struct {
	store       ports.HistoryStore
	projectKey  string
	projectRoot string
	now         func() time.Time
}

func NewHistoryRecorder(store ports.HistoryStore, projectKey, projectRoot string) *HistoryRecorder {
	return &HistoryRecorder{
		store:       store,
		projectKey:  projectKey,
		projectRoot: projectRoot,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Record saves res and returns the trend over the runs of the last window.
func (h *HistoryRecorder) Record(ctx context.Context, res Result, window time.Duration) (history.TrendReport, error) {
	snapshot := SnapshotOf(res)
	snapshot.CommitHash, snapshot.CommitTimestamp = history.ResolveGitMetadata(ctx, h.projectRoot)
	if err := h.store.SaveSnapshot(ctx, h.projectKey, snapshot); err != nil {
		return history.TrendReport{}, errors.AddContext(errors.Wrap(err, errors.CodeInternal, "save history snapshot"), errors.CtxRunID, res.RunID)
	}

	var since time.Time
	if window > 0 {
		since = h.now().Add(-window)
	}
	snapshots, err := h.store.LoadSnapshots(ctx, h.projectKey, since)
	if err != nil {
		return history.TrendReport{}, errors.Wrap(err, errors.CodeInternal, "load history snapshots")
	}
	return history.BuildTrendReport(snapshots, window)
}

// SnapshotOf converts a run result into its history row.
func SnapshotOf(res Result) history.Snapshot {
	return history.Snapshot{
		RunID:           res.RunID,
		Timestamp:       res.StartedAt,
		Language:        res.Language,
		State:           res.State.String(),
		DocumentCount:   res.Documents,
		DependencyCount: res.Dependencies,
		ViolationCount:  res.Violations,
		IssueCount:      len(res.Issues),
		Truncated:       res.Truncated,
		DurationMS:      res.Duration.Milliseconds(),
	}
}
