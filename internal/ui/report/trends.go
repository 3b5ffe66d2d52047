package report

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"nsguard/internal/data/history"
)

func RenderTrendTSV(report history.TrendReport) ([]byte, error) {
	var buf strings.Builder

	buf.WriteString("Timestamp\tRun\tCommit\tState\tDocuments\tDependencies\tViolations\tDeltaDocuments\tDeltaDependencies\tDeltaViolations\tAvgViolations\tWindowHours\n")
	for _, point := range report.Points {
		buf.WriteString(fmt.Sprintf(
			"%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.2f\t%.2f\n",
			point.Timestamp.Format(time.RFC3339),
			point.RunID,
			point.CommitHash,
			point.State,
			point.DocumentCount,
			point.DependencyCount,
			point.ViolationCount,
			point.DeltaDocuments,
			point.DeltaDependencies,
			point.DeltaViolations,
			point.AvgViolations,
			point.WindowHours,
		))
	}

	return []byte(buf.String()), nil
}

func RenderTrendJSON(report history.TrendReport) ([]byte, error) {
	return json.MarshalIndent(report, "", "  ")
}

// TrendSummary describes the latest run against the one before it.
func TrendSummary(report history.TrendReport) string {
	if len(report.Points) == 0 {
		return "no history"
	}
	last := report.Points[len(report.Points)-1]
	return fmt.Sprintf("%d runs since %s: violations %d (%+d), avg %.2f over %s",
		report.RunCount,
		report.Since.Format(time.RFC3339),
		last.ViolationCount,
		last.DeltaViolations,
		last.AvgViolations,
		report.Window,
	)
}
