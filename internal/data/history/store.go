package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

const (
	driverName        = "sqlite"
	maxAttempts       = 5
	defaultProjectKey = "default"
)

// Store persists run snapshots in a sqlite database.
type Store struct {
	path string
	db   *sql.DB
	mu   sync.Mutex
}

func Open(path string) (*Store, error) {
	cleanPath := strings.TrimSpace(path)
	if cleanPath == "" {
		return nil, fmt.Errorf("history path must not be empty")
	}
	if info, err := os.Stat(cleanPath); err == nil && info.IsDir() {
		return nil, fmt.Errorf("history path %q is a directory, expected file", cleanPath)
	}

	dir := filepath.Dir(cleanPath)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create history directory %q: %w", dir, err)
		}
	}

	// busy_timeout + WAL reduce lock conflicts while watch mode re-runs.
	dsn := fmt.Sprintf("file:%s?_pragma=busy_timeout(2000)&_pragma=journal_mode(WAL)", cleanPath)
	db, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite history %q: %w", cleanPath, err)
	}
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite history %q: %w", cleanPath, err)
	}
	if err := EnsureSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize sqlite schema %q: %w", cleanPath, err)
	}

	return &Store{path: cleanPath, db: db}, nil
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) Path() string {
	if s == nil {
		return ""
	}
	return s.path
}

// SaveSnapshot inserts or replaces the snapshot keyed by its run id.
func (s *Store) SaveSnapshot(ctx context.Context, projectKey string, snapshot Snapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if strings.TrimSpace(snapshot.RunID) == "" {
		return fmt.Errorf("snapshot run id must not be empty")
	}
	snapshot.ProjectKey = normalizeProjectKey(projectKey)
	if snapshot.Timestamp.IsZero() {
		snapshot.Timestamp = time.Now().UTC()
	}
	if snapshot.SchemaVersion == 0 {
		snapshot.SchemaVersion = SchemaVersion
	}
	if snapshot.SchemaVersion != SchemaVersion {
		return fmt.Errorf("unsupported snapshot schema version %d", snapshot.SchemaVersion)
	}

	commitTS := ""
	if !snapshot.CommitTimestamp.IsZero() {
		commitTS = snapshot.CommitTimestamp.UTC().Format(time.RFC3339Nano)
	}
	truncated := 0
	if snapshot.Truncated {
		truncated = 1
	}

	query := `
INSERT INTO runs (
  run_id, project_key, schema_version, ts_utc, commit_hash, commit_ts_utc, language, state,
  document_count, dependency_count, violation_count, issue_count, truncated, duration_ms
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT(run_id) DO UPDATE SET
  project_key=excluded.project_key,
  schema_version=excluded.schema_version,
  ts_utc=excluded.ts_utc,
  commit_hash=excluded.commit_hash,
  commit_ts_utc=excluded.commit_ts_utc,
  language=excluded.language,
  state=excluded.state,
  document_count=excluded.document_count,
  dependency_count=excluded.dependency_count,
  violation_count=excluded.violation_count,
  issue_count=excluded.issue_count,
  truncated=excluded.truncated,
  duration_ms=excluded.duration_ms
`
	return s.withRetry(ctx, "save snapshot", func() error {
		_, err := s.db.ExecContext(ctx,
			query,
			snapshot.RunID,
			snapshot.ProjectKey,
			snapshot.SchemaVersion,
			snapshot.Timestamp.UTC().Format(time.RFC3339Nano),
			snapshot.CommitHash,
			commitTS,
			snapshot.Language,
			snapshot.State,
			snapshot.DocumentCount,
			snapshot.DependencyCount,
			snapshot.ViolationCount,
			snapshot.IssueCount,
			truncated,
			snapshot.DurationMS,
		)
		return err
	})
}

// LoadSnapshots returns the project's snapshots at or after since, oldest first.
// A zero since loads everything.
func (s *Store) LoadSnapshots(ctx context.Context, projectKey string, since time.Time) ([]Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	query := `
SELECT
  run_id, project_key, schema_version, ts_utc, commit_hash, commit_ts_utc, language, state,
  document_count, dependency_count, violation_count, issue_count, truncated, duration_ms
FROM runs
WHERE project_key = ?`
	args := []any{normalizeProjectKey(projectKey)}
	if !since.IsZero() {
		query += " AND ts_utc >= ?"
		args = append(args, since.UTC().Format(time.RFC3339Nano))
	}
	query += " ORDER BY ts_utc ASC, run_id ASC"

	var rows *sql.Rows
	err := s.withRetry(ctx, "load snapshots", func() error {
		var qErr error
		rows, qErr = s.db.QueryContext(ctx, query, args...)
		return qErr
	})
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	snapshots := make([]Snapshot, 0)
	for rows.Next() {
		var (
			tsRaw       string
			commitTSRaw string
			truncated   int
			snapshot    Snapshot
		)
		if err := rows.Scan(
			&snapshot.RunID,
			&snapshot.ProjectKey,
			&snapshot.SchemaVersion,
			&tsRaw,
			&snapshot.CommitHash,
			&commitTSRaw,
			&snapshot.Language,
			&snapshot.State,
			&snapshot.DocumentCount,
			&snapshot.DependencyCount,
			&snapshot.ViolationCount,
			&snapshot.IssueCount,
			&truncated,
			&snapshot.DurationMS,
		); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}

		ts, err := time.Parse(time.RFC3339Nano, tsRaw)
		if err != nil {
			return nil, fmt.Errorf("parse snapshot timestamp %q: %w", tsRaw, err)
		}
		snapshot.Timestamp = ts.UTC()
		if commitTSRaw != "" {
			commitTS, err := time.Parse(time.RFC3339Nano, commitTSRaw)
			if err != nil {
				return nil, fmt.Errorf("parse commit timestamp %q: %w", commitTSRaw, err)
			}
			snapshot.CommitTimestamp = commitTS.UTC()
		}
		snapshot.Truncated = truncated != 0

		snapshots = append(snapshots, snapshot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snapshots, nil
}

func (s *Store) withRetry(ctx context.Context, op string, fn func() error) error {
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err
		if !isLockError(err) || attempt == maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%s: %w", op, ctx.Err())
		case <-time.After(time.Duration(attempt*25) * time.Millisecond):
		}
	}
	return fmt.Errorf("%s: %w", op, lastErr)
}

func normalizeProjectKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		return defaultProjectKey
	}
	return key
}

func isLockError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "database is locked") || strings.Contains(msg, "busy")
}

func IsCorruptError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "malformed") || strings.Contains(msg, "not a database") || errors.Is(err, os.ErrInvalid)
}
