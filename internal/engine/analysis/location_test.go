package analysis

import "testing"

func TestLocate_FullSpanIsOneBased(t *testing.T) {
	node := &fakeNode{fakeToken: fakeToken{span: span("src/a.go", 0, 0, 2, 5), text: "Foo.Bar"}}

	got := Locate(node)

	want := SourceSegment{StartLine: 1, StartColumn: 1, EndLine: 3, EndColumn: 6, Text: "Foo.Bar", Path: "src/a.go"}
	if got != want {
		t.Fatalf("Locate() = %+v, want %+v", got, want)
	}
}

func TestLocate_GenericNameUsesFirstToken(t *testing.T) {
	node := &fakeNode{
		fakeToken: fakeToken{span: span("a.go", 4, 8, 4, 24), text: "List<Customer>"},
		kind:      NodeKindGenericName,
		first:     &fakeToken{span: span("a.go", 4, 8, 4, 12), text: "List"},
	}

	got := Locate(node)

	if got.Text != "List" {
		t.Fatalf("expected identifier text only, got %q", got.Text)
	}
	if got.StartLine != 5 || got.StartColumn != 9 || got.EndLine != 5 || got.EndColumn != 13 {
		t.Fatalf("unexpected generic name span: %+v", got)
	}
}

func TestLocate_NonGenericIgnoresFirstToken(t *testing.T) {
	node := &fakeNode{
		fakeToken: fakeToken{span: span("a.go", 1, 0, 1, 9), text: "new Bar()"},
		first:     &fakeToken{span: span("a.go", 1, 0, 1, 3), text: "new"},
	}

	if got := Locate(node); got.Text != "new Bar()" || got.EndColumn != 10 {
		t.Fatalf("expected full span, got %+v", got)
	}
}

func TestAncestors_StopsAtRoot(t *testing.T) {
	root := &fakeNode{}
	mid := &fakeNode{parent: root}
	leaf := &fakeNode{parent: mid}

	var got []Node
	for a := range Ancestors(leaf) {
		got = append(got, a)
	}
	if len(got) != 2 || got[0] != Node(mid) || got[1] != Node(root) {
		t.Fatalf("unexpected ancestor chain: %v", got)
	}
}
