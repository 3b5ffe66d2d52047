package formats

import (
	"encoding/json"

	"nsguard/internal/core/app"
	"nsguard/internal/shared/util"
	"nsguard/internal/shared/version"
)

// SARIF v2.1.0 schema – see https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json

const (
	sarifSchema  = "https://schemastore.azurewebsites.net/schemas/json/sarif-2.1.0-rtm.5.json"
	sarifVersion = "2.1.0"
)

// sarifReport is the top-level SARIF document.
type sarifReport struct {
	Schema  string     `json:"$schema"`
	Version string     `json:"version"`
	Runs    []sarifRun `json:"runs"`
}

type sarifRun struct {
	Tool       sarifTool      `json:"tool"`
	Results    []sarifResult  `json:"results"`
	Properties map[string]any `json:"properties,omitempty"`
}

type sarifTool struct {
	Driver sarifDriver `json:"driver"`
}

type sarifDriver struct {
	Name           string      `json:"name"`
	Version        string      `json:"version"`
	InformationURI string      `json:"informationUri,omitempty"`
	Rules          []sarifRule `json:"rules"`
}

type sarifRule struct {
	ID               string                 `json:"id"`
	Name             string                 `json:"name"`
	ShortDescription sarifMessage           `json:"shortDescription"`
	DefaultConfig    sarifRuleDefaultConfig `json:"defaultConfiguration"`
}

type sarifRuleDefaultConfig struct {
	Level string `json:"level"`
}

type sarifResult struct {
	RuleID     string          `json:"ruleId"`
	RuleIndex  int             `json:"ruleIndex"`
	Level      string          `json:"level"`
	Message    sarifMessage    `json:"message"`
	Locations  []sarifLocation `json:"locations,omitempty"`
	Properties map[string]any  `json:"properties,omitempty"`
}

type sarifMessage struct {
	Text string `json:"text"`
}

type sarifLocation struct {
	PhysicalLocation sarifPhysicalLocation `json:"physicalLocation"`
}

type sarifPhysicalLocation struct {
	ArtifactLocation sarifArtifactLocation `json:"artifactLocation"`
	Region           *sarifRegion          `json:"region,omitempty"`
}

type sarifArtifactLocation struct {
	URI       string `json:"uri"`
	URIBaseID string `json:"uriBaseId"`
}

type sarifRegion struct {
	StartLine   int           `json:"startLine,omitempty"`
	StartColumn int           `json:"startColumn,omitempty"`
	EndLine     int           `json:"endLine,omitempty"`
	EndColumn   int           `json:"endColumn,omitempty"`
	Snippet     *sarifSnippet `json:"snippet,omitempty"`
}

type sarifSnippet struct {
	Text string `json:"text"`
}

// defaultLevels is the level each rule reports at unless the issue says otherwise.
var defaultLevels = map[string]string{
	app.CodeIllegalDependency: "warning",
	app.CodeTooManyIssues:     "warning",
	app.CodeNoPolicy:          "note",
	app.CodePolicyError:       "error",
	app.CodeDisabled:          "note",
}

// GenerateSARIF builds a SARIF v2.1.0 document from an analysis result.
// All file URIs are made relative to projectRoot so reports are safe to share.
func GenerateSARIF(projectRoot string, res app.Result) ([]byte, error) {
	rules, index := buildSARIFRules()
	results := make([]sarifResult, 0, len(res.Issues))

	for _, issue := range res.Issues {
		result := sarifResult{
			RuleID:    issue.Code,
			RuleIndex: index[issue.Code],
			Level:     severityToLevel(issue.Severity),
			Message:   sarifMessage{Text: issue.Message},
		}
		if issue.Path != "" {
			loc := sarifLocation{
				PhysicalLocation: sarifPhysicalLocation{
					ArtifactLocation: sarifArtifactLocation{
						URI:       util.RelativePath(projectRoot, issue.Path),
						URIBaseID: "%SRCROOT%",
					},
				},
			}
			if seg := issue.Segment; seg.StartLine > 0 {
				loc.PhysicalLocation.Region = &sarifRegion{
					StartLine:   seg.StartLine,
					StartColumn: seg.StartColumn,
					EndLine:     seg.EndLine,
					EndColumn:   seg.EndColumn,
				}
				if seg.Text != "" {
					loc.PhysicalLocation.Region.Snippet = &sarifSnippet{Text: seg.Text}
				}
			}
			result.Locations = []sarifLocation{loc}
		}
		if dep := issue.Dependency; dep != nil {
			result.Properties = map[string]any{
				"fromNamespace": dep.FromNamespace,
				"fromType":      dep.FromType,
				"toNamespace":   dep.ToNamespace,
				"toType":        dep.ToType,
			}
		}
		results = append(results, result)
	}

	report := sarifReport{
		Schema:  sarifSchema,
		Version: sarifVersion,
		Runs: []sarifRun{
			{
				Tool: sarifTool{
					Driver: sarifDriver{
						Name:    "nsguard",
						Version: version.Version,
						Rules:   rules,
					},
				},
				Results: results,
				Properties: map[string]any{
					"runId":        res.RunID,
					"language":     res.Language,
					"policyState":  res.State.String(),
					"documents":    res.Documents,
					"dependencies": res.Dependencies,
					"violations":   res.Violations,
					"truncated":    res.Truncated,
				},
			},
		},
	}

	return json.MarshalIndent(report, "", "  ")
}

// buildSARIFRules lists every rule so ruleIndex is stable across runs.
func buildSARIFRules() ([]sarifRule, map[string]int) {
	rules := make([]sarifRule, 0, len(app.Rules))
	index := make(map[string]int, len(app.Rules))
	for i, rule := range app.Rules {
		index[rule.Code] = i
		rules = append(rules, sarifRule{
			ID:               rule.Code,
			Name:             rule.Name,
			ShortDescription: sarifMessage{Text: rule.Description},
			DefaultConfig:    sarifRuleDefaultConfig{Level: defaultLevels[rule.Code]},
		})
	}
	return rules, index
}

func severityToLevel(severity app.Severity) string {
	switch severity {
	case app.SeverityError:
		return "error"
	case app.SeverityWarning:
		return "warning"
	default:
		return "note"
	}
}
