package history

import "time"

const SchemaVersion = 1

// Snapshot records the outcome of one analysis run.
type Snapshot struct {
	SchemaVersion   int       `json:"schema_version"`
	RunID           string    `json:"run_id"`
	ProjectKey      string    `json:"project_key"`
	Timestamp       time.Time `json:"timestamp"`
	CommitHash      string    `json:"commit_hash,omitempty"`
	CommitTimestamp time.Time `json:"commit_timestamp,omitempty"`
	Language        string    `json:"language"`
	State           string    `json:"state"`
	DocumentCount   int       `json:"document_count"`
	DependencyCount int       `json:"dependency_count"`
	ViolationCount  int       `json:"violation_count"`
	IssueCount      int       `json:"issue_count"`
	Truncated       bool      `json:"truncated"`
	DurationMS      int64     `json:"duration_ms"`
}

type TrendPoint struct {
	Timestamp         time.Time `json:"timestamp"`
	RunID             string    `json:"run_id"`
	CommitHash        string    `json:"commit_hash,omitempty"`
	State             string    `json:"state"`
	DocumentCount     int       `json:"document_count"`
	DependencyCount   int       `json:"dependency_count"`
	ViolationCount    int       `json:"violation_count"`
	DeltaDocuments    int       `json:"delta_documents"`
	DeltaDependencies int       `json:"delta_dependencies"`
	DeltaViolations   int       `json:"delta_violations"`
	AvgViolations     float64   `json:"avg_violations"`
	WindowHours       float64   `json:"window_hours"`
}

type TrendReport struct {
	SchemaVersion int          `json:"schema_version"`
	Since         time.Time    `json:"since"`
	Until         time.Time    `json:"until"`
	Window        string       `json:"window"`
	RunCount      int          `json:"run_count"`
	Points        []TrendPoint `json:"points"`
}
