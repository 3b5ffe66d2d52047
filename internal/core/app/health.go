package app

import (
	"context"
	"fmt"
	"time"

	"nsguard/internal/core/policy"
	"nsguard/internal/core/ports"
	"nsguard/internal/shared/util"
)

type HealthStatus struct {
	Status     string            `json:"status"`
	Timestamp  time.Time         `json:"timestamp"`
	Components map[string]string `json:"components"`
}

type HealthService struct {
	analyzer *Analyzer
	policies ports.PolicyProvider
}

func NewHealthService(analyzer *Analyzer, policies ports.PolicyProvider) *HealthService {
	return &HealthService{analyzer: analyzer, policies: policies}
}

func (s *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:     "up",
		Timestamp:  time.Now().UTC(),
		Components: make(map[string]string),
	}

	// Policy
	if s.policies == nil {
		status.Status = "degraded"
		status.Components["policy"] = "missing"
	} else {
		_, state, err := s.policies.Snapshot()
		switch state {
		case policy.StateConfigError:
			status.Status = "degraded"
			status.Components["policy"] = fmt.Sprintf("%s: %v", state, err)
		default:
			status.Components["policy"] = state.String()
		}
	}

	// Last run
	if s.analyzer == nil {
		status.Status = "degraded"
		status.Components["analyzer"] = "missing"
	} else if last, ok := s.analyzer.LastResult(); ok {
		status.Components["last_run"] = fmt.Sprintf("ok (%d documents, %d violations, %s)",
			last.Documents, last.Violations, last.StartedAt.Format(time.RFC3339))
	} else {
		status.Components["last_run"] = "pending"
	}

	status.Components["heap_mb"] = fmt.Sprintf("%d", util.GetHeapAllocMB())
	return status
}
