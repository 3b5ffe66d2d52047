package analysis

import "fmt"

// SourceSegment is a 1-based source span used in reports.
type SourceSegment struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
	Text        string
	Path        string
}

func (s SourceSegment) String() string {
	return fmt.Sprintf("%s(%d,%d,%d,%d)", s.Path, s.StartLine, s.StartColumn, s.EndLine, s.EndColumn)
}

// TypeDependency is one directed edge: a type in FromNamespace references a type in ToNamespace.
type TypeDependency struct {
	FromNamespace string
	FromType      string
	ToNamespace   string
	ToType        string
	Segment       SourceSegment
}

func (d TypeDependency) String() string {
	return fmt.Sprintf("%s.%s -> %s.%s", d.FromNamespace, d.FromType, d.ToNamespace, d.ToType)
}
