package history

import (
	"fmt"
	"math"
	"time"
)

// BuildTrendReport turns ordered snapshots into per-run deltas and a moving
// average of violations over window.
func BuildTrendReport(snapshots []Snapshot, window time.Duration) (TrendReport, error) {
	if len(snapshots) == 0 {
		return TrendReport{}, fmt.Errorf("no snapshots available")
	}

	points := make([]TrendPoint, 0, len(snapshots))
	for i, current := range snapshots {
		point := TrendPoint{
			Timestamp:       current.Timestamp,
			RunID:           current.RunID,
			CommitHash:      current.CommitHash,
			State:           current.State,
			DocumentCount:   current.DocumentCount,
			DependencyCount: current.DependencyCount,
			ViolationCount:  current.ViolationCount,
		}
		if i > 0 {
			prev := snapshots[i-1]
			point.DeltaDocuments = current.DocumentCount - prev.DocumentCount
			point.DeltaDependencies = current.DependencyCount - prev.DependencyCount
			point.DeltaViolations = current.ViolationCount - prev.ViolationCount
		}
		point.AvgViolations = round2(movingAverage(snapshots, i, window))
		point.WindowHours = round2(window.Hours())
		points = append(points, point)
	}

	return TrendReport{
		SchemaVersion: SchemaVersion,
		Since:         snapshots[0].Timestamp,
		Until:         snapshots[len(snapshots)-1].Timestamp,
		Window:        window.String(),
		RunCount:      len(points),
		Points:        points,
	}, nil
}

func movingAverage(snapshots []Snapshot, index int, window time.Duration) float64 {
	if window <= 0 {
		return float64(snapshots[index].ViolationCount)
	}

	cutoff := snapshots[index].Timestamp.Add(-window)
	total, count := 0, 0
	for i := index; i >= 0; i-- {
		if snapshots[i].Timestamp.Before(cutoff) {
			break
		}
		total += snapshots[i].ViolationCount
		count++
	}
	if count == 0 {
		return 0
	}
	return float64(total) / float64(count)
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
