package formats

import (
	"fmt"
	"strings"

	"nsguard/internal/core/app"
	"nsguard/internal/shared/util"
)

// GenerateTSV renders one row per issue. Issues without a dependency leave the
// namespace and type columns empty.
func GenerateTSV(projectRoot string, res app.Result) (string, error) {
	var buf strings.Builder

	buf.WriteString("Code\tSeverity\tFromNamespace\tFromType\tToNamespace\tToType\tFile\tLine\tColumn\tEndLine\tEndColumn\tMessage\n")
	for _, issue := range res.Issues {
		var fromNS, fromType, toNS, toType string
		if dep := issue.Dependency; dep != nil {
			fromNS, fromType, toNS, toType = dep.FromNamespace, dep.FromType, dep.ToNamespace, dep.ToType
		}
		file := ""
		if issue.Path != "" {
			file = util.RelativePath(projectRoot, issue.Path)
		}
		buf.WriteString(fmt.Sprintf("%s\t%s\t%s\t%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\t%s\n",
			issue.Code,
			issue.Severity,
			fromNS,
			fromType,
			toNS,
			toType,
			file,
			issue.Segment.StartLine,
			issue.Segment.StartColumn,
			issue.Segment.EndLine,
			issue.Segment.EndColumn,
			tsvField(issue.Message),
		))
	}

	return buf.String(), nil
}

func tsvField(s string) string {
	return strings.NewReplacer("\t", " ", "\n", " ", "\r", "").Replace(s)
}
