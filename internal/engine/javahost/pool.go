package javahost

import (
	"sync"
	"sync/atomic"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
)

// parserPool recycles Java parsers across files.
//
//	sp := pool.Get()
//	defer pool.Put(sp)
//	tree := sp.Parse(source, nil)
type parserPool struct {
	lang   *sitter.Language
	pool   sync.Pool
	leased atomic.Int64
}

func newParserPool() *parserPool {
	p := &parserPool{lang: sitter.NewLanguage(tree_sitter_java.Language())}
	p.pool.New = func() any {
		sp := sitter.NewParser()
		sp.SetLanguage(p.lang)
		return sp
	}
	return p
}

func (p *parserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// Reset clears the language on some builds.
	sp.SetLanguage(p.lang)
	p.leased.Add(1)
	return sp
}

func (p *parserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	p.leased.Add(-1)
	sp.Reset()
	p.pool.Put(sp)
}

// Leased returns the number of parsers currently checked out.
func (p *parserPool) Leased() int64 {
	return p.leased.Load()
}
