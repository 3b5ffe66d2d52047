package formats

import (
	"fmt"
	"strings"
	"time"

	"nsguard/internal/core/app"
	"nsguard/internal/shared/util"
)

// GenerateText renders issues in the compiler style understood by editors and
// CI log parsers, followed by a one-line summary:
//
//	internal/api/handler.go(12,5,12,17): warning NSG001: Illegal namespace reference: ...
func GenerateText(projectRoot string, res app.Result) string {
	var buf strings.Builder
	for _, issue := range res.Issues {
		location := "nsguard"
		if issue.Path != "" {
			location = util.RelativePath(projectRoot, issue.Path)
			if seg := issue.Segment; seg.StartLine > 0 {
				location = fmt.Sprintf("%s(%d,%d,%d,%d)", location, seg.StartLine, seg.StartColumn, seg.EndLine, seg.EndColumn)
			}
		}
		fmt.Fprintf(&buf, "%s: %s %s: %s\n", location, issue.Severity, issue.Code, issue.Message)
	}

	summary := fmt.Sprintf("%s: %d documents, %d dependencies, %d violations", res.State, res.Documents, res.Dependencies, res.Violations)
	if res.Truncated {
		summary += fmt.Sprintf(" (%d reported)", len(res.Issues)-1)
	}
	fmt.Fprintf(&buf, "%s in %s\n", summary, res.Duration.Round(time.Millisecond))
	return buf.String()
}
