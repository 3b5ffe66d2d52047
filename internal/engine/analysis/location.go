package analysis

// Locate returns the 1-based segment to report for node. Generic names are
// reported by their first token so the type argument list is left out.
func Locate(node Node) SourceSegment {
	var reported Token = node
	if node.Kind() == NodeKindGenericName {
		if first := node.FirstToken(); first != nil {
			reported = first
		}
	}

	span := reported.Span()
	return SourceSegment{
		StartLine:   span.Start.Line + 1,
		StartColumn: span.Start.Column + 1,
		EndLine:     span.End.Line + 1,
		EndColumn:   span.End.Column + 1,
		Text:        reported.Text(),
		Path:        span.Path,
	}
}
