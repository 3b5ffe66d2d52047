package ports

import (
	"context"
	"time"

	"nsguard/internal/core/policy"
	"nsguard/internal/data/history"
	"nsguard/internal/engine/analysis"
)

// Host turns a source tree into analysis documents for one language.
type Host interface {
	Language() string
	Load(ctx context.Context, root string) ([]analysis.Document, error)
}

// PolicyProvider serves the effective dependency policy.
type PolicyProvider interface {
	Path() string
	Refresh()
	Snapshot() (*policy.Policy, policy.State, error)
}

// HistoryStore abstracts snapshot persistence for trend reports.
type HistoryStore interface {
	SaveSnapshot(ctx context.Context, projectKey string, snapshot history.Snapshot) error
	LoadSnapshots(ctx context.Context, projectKey string, since time.Time) ([]history.Snapshot, error)
}
