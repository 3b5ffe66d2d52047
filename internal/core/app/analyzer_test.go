package app

import (
	"context"
	"errors"
	"iter"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nsguard/internal/core/policy"
	"nsguard/internal/engine/analysis"
)

type stubType struct {
	name, namespace string
}

func (t *stubType) Name() string              { return t.name }
func (t *stubType) Kind() analysis.TypeKind   { return analysis.TypeKindStruct }
func (t *stubType) Namespace() (string, bool) { return t.namespace, true }
func (t *stubType) IsAnonymous() bool         { return false }

type stubNode struct {
	parent *stubNode
	kind   analysis.NodeKind
	span   analysis.LineSpan
	text   string
}

func (n *stubNode) Span() analysis.LineSpan    { return n.span }
func (n *stubNode) Text() string               { return n.text }
func (n *stubNode) Kind() analysis.NodeKind    { return n.kind }
func (n *stubNode) FirstToken() analysis.Token { return n }
func (n *stubNode) Parent() analysis.Node {
	if n.parent == nil {
		return nil
	}
	return n.parent
}

type stubModel struct {
	declared map[*stubNode]analysis.TypeSymbol
	refs     map[*stubNode]analysis.TypeSymbol
}

func (m *stubModel) ExpressionType(node analysis.Node) analysis.TypeSymbol {
	if t, ok := m.refs[node.(*stubNode)]; ok {
		return t
	}
	return nil
}

func (m *stubModel) BoundSymbol(analysis.Node) analysis.Symbol { return nil }

func (m *stubModel) DeclaredType(node analysis.Node) analysis.TypeSymbol {
	if t, ok := m.declared[node.(*stubNode)]; ok {
		return t
	}
	return nil
}

type stubDocument struct {
	path  string
	model *stubModel
	nodes []*stubNode
}

func (d *stubDocument) Path() string                  { return d.path }
func (d *stubDocument) Model() analysis.SemanticModel { return d.model }
func (d *stubDocument) Nodes() iter.Seq[analysis.Node] {
	return func(yield func(analysis.Node) bool) {
		for _, n := range d.nodes {
			if !yield(n) {
				return
			}
		}
	}
}

// newDocument builds a document whose single type in namespace from
// references each of targets ("ns Type") on its own line.
func newDocument(path, from string, targets ...string) *stubDocument {
	decl := &stubNode{kind: analysis.NodeKindTypeDeclaration, span: analysis.LineSpan{Path: path}}
	doc := &stubDocument{
		path: path,
		model: &stubModel{
			declared: map[*stubNode]analysis.TypeSymbol{decl: &stubType{name: "Foo", namespace: from}},
			refs:     make(map[*stubNode]analysis.TypeSymbol),
		},
	}
	for i, target := range targets {
		ns, name, _ := strings.Cut(target, " ")
		ref := &stubNode{
			parent: decl,
			span: analysis.LineSpan{
				Path:  path,
				Start: analysis.Position{Line: i + 1, Column: 4},
				End:   analysis.Position{Line: i + 1, Column: 4 + len(name)},
			},
			text: name,
		}
		doc.model.refs[ref] = &stubType{name: name, namespace: ns}
		doc.nodes = append(doc.nodes, ref)
	}
	return doc
}

type stubHost struct {
	docs  []analysis.Document
	err   error
	loads int
}

func (h *stubHost) Language() string { return "go" }

func (h *stubHost) Load(context.Context, string) ([]analysis.Document, error) {
	h.loads++
	return h.docs, h.err
}

type stubPolicies struct {
	policy    *policy.Policy
	state     policy.State
	err       error
	refreshes int
}

func (p *stubPolicies) Path() string { return "nsguard.policy.toml" }
func (p *stubPolicies) Refresh()     { p.refreshes++ }
func (p *stubPolicies) Snapshot() (*policy.Policy, policy.State, error) {
	return p.policy, p.state, p.err
}

func enabledPolicies(t *testing.T, doc string) *stubPolicies {
	t.Helper()
	p, err := policy.Parse(doc)
	require.NoError(t, err)
	return &stubPolicies{policy: p, state: policy.StateEnabled}
}

func newTestAnalyzer(t *testing.T, host *stubHost, policies *stubPolicies) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer(host, policies, ".", AnalyzerOptions{Concurrency: 2, CacheSize: 16})
	require.NoError(t, err)
	return a
}

func TestNewAnalyzer_RequiresCollaborators(t *testing.T) {
	_, err := NewAnalyzer(nil, &stubPolicies{}, ".", AnalyzerOptions{})
	assert.Error(t, err)
	_, err = NewAnalyzer(&stubHost{}, nil, ".", AnalyzerOptions{})
	assert.Error(t, err)
}

func TestAnalyzer_RunReportsIllegalDependencies(t *testing.T) {
	host := &stubHost{docs: []analysis.Document{
		newDocument("b.go", "app", "lib Client", "data Repo"),
		newDocument("a.go", "app", "data Conn"),
	}}
	policies := enabledPolicies(t, "[[allowed]]\nfrom = \"app\"\nto = \"lib\"\n")
	a := newTestAnalyzer(t, host, policies)

	res, err := a.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, policies.refreshes)
	assert.Equal(t, 1, host.loads)
	assert.Equal(t, policy.StateEnabled, res.State)
	assert.Equal(t, 2, res.Documents)
	assert.Equal(t, 3, res.Dependencies)
	assert.Equal(t, 2, res.Violations)
	assert.False(t, res.Truncated)
	assert.True(t, res.Failed())
	assert.NotEmpty(t, res.RunID)

	require.Len(t, res.Issues, 2)
	assert.Equal(t, "a.go", res.Issues[0].Path)
	assert.Equal(t, "Illegal namespace reference: app (type: Foo) -> data (type: Conn)", res.Issues[0].Message)
	assert.Equal(t, "b.go", res.Issues[1].Path)
	assert.Equal(t, 3, res.Issues[1].Segment.StartLine)
	assert.Equal(t, 5, res.Issues[1].Segment.StartColumn)
	require.NotNil(t, res.Issues[1].Dependency)
	assert.Equal(t, "Repo", res.Issues[1].Dependency.ToType)

	last, ok := a.LastResult()
	require.True(t, ok)
	assert.Equal(t, res.RunID, last.RunID)
}

// flippingPolicies has no policy on its first read and an enabled one on every
// later read, as when the policy file appears between two reads.
type flippingPolicies struct {
	stubPolicies
	enabled *policy.Policy
	reads   int
}

func (p *flippingPolicies) Snapshot() (*policy.Policy, policy.State, error) {
	p.reads++
	if p.reads == 1 {
		return nil, policy.StateNoConfigSource, nil
	}
	return p.enabled, policy.StateEnabled, nil
}

func TestAnalyzer_RunUsesOneSnapshot(t *testing.T) {
	enabled, err := policy.Parse("enabled = true\n")
	require.NoError(t, err)
	policies := &flippingPolicies{enabled: enabled}
	host := &stubHost{docs: []analysis.Document{newDocument("a.go", "app", "x A")}}
	a, err := NewAnalyzer(host, policies, ".", AnalyzerOptions{Concurrency: 1})
	require.NoError(t, err)

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, policies.reads)
	assert.Equal(t, 0, host.loads)
	assert.Equal(t, policy.StateNoConfigSource, res.State)
	require.Len(t, res.Issues, 1)
	assert.Equal(t, CodeNoPolicy, res.Issues[0].Code)
	assert.False(t, res.Failed())
}

func TestAnalyzer_TruncatesAtMaxIssueCount(t *testing.T) {
	host := &stubHost{docs: []analysis.Document{
		newDocument("a.go", "app", "x A", "x B", "x C", "x D"),
	}}
	policies := enabledPolicies(t, "max_issue_count = 2\n")
	a := newTestAnalyzer(t, host, policies)

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Truncated)
	assert.Equal(t, 4, res.Violations)
	require.Len(t, res.Issues, 3)
	assert.Equal(t, CodeIllegalDependency, res.Issues[1].Code)
	assert.Equal(t, CodeTooManyIssues, res.Issues[2].Code)
}

func TestAnalyzer_UnlimitedIssues(t *testing.T) {
	host := &stubHost{docs: []analysis.Document{
		newDocument("a.go", "app", "x A", "x B", "x C"),
	}}
	a := newTestAnalyzer(t, host, enabledPolicies(t, "max_issue_count = 0\n"))

	res, err := a.Run(context.Background())
	require.NoError(t, err)
	assert.False(t, res.Truncated)
	assert.Len(t, res.Issues, 3)
}

func TestAnalyzer_StatesSkipLoading(t *testing.T) {
	disabledPolicy, err := policy.Parse("enabled = false\ninfo_importance = \"high\"\n")
	require.NoError(t, err)

	cases := []struct {
		name     string
		policies *stubPolicies
		code     string
		severity Severity
		failed   bool
	}{
		{"no source", &stubPolicies{state: policy.StateNoConfigSource}, CodeNoPolicy, SeverityNote, false},
		{"config error", &stubPolicies{state: policy.StateConfigError, err: errors.New("bad toml")}, CodePolicyError, SeverityError, true},
		{"disabled", &stubPolicies{policy: disabledPolicy, state: policy.StateDisabled}, CodeDisabled, SeverityWarning, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			host := &stubHost{docs: []analysis.Document{newDocument("a.go", "app", "x A")}}
			a := newTestAnalyzer(t, host, tc.policies)

			res, err := a.Run(context.Background())
			require.NoError(t, err)
			assert.Equal(t, 0, host.loads)
			require.Len(t, res.Issues, 1)
			assert.Equal(t, tc.code, res.Issues[0].Code)
			assert.Equal(t, tc.severity, res.Issues[0].Severity)
			assert.Equal(t, "nsguard.policy.toml", res.Issues[0].Path)
			assert.Equal(t, tc.failed, res.Failed())
		})
	}
}

func TestAnalyzer_LoadError(t *testing.T) {
	host := &stubHost{err: errors.New("go list failed")}
	a := newTestAnalyzer(t, host, enabledPolicies(t, ""))

	_, err := a.Run(context.Background())
	require.Error(t, err)
	_, ok := a.LastResult()
	assert.False(t, ok)
}

func TestAnalyzer_AnalyzeHonoursCancellation(t *testing.T) {
	a := newTestAnalyzer(t, &stubHost{}, enabledPolicies(t, ""))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := a.Analyze(ctx, []analysis.Document{newDocument("a.go", "app", "x A")})
	assert.Error(t, err)
}
