package ast

import (
	"strings"

	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/token"
	"github.com/viant/biome/tokenstream"
)

// Parser builds a Decl tree from a token.Stream. It is shared by the model
// description grammar and the data-set grammar (§6): both are sequences of
// `keyword(args) [body]?` declarations, optionally preceded by notes.
type Parser struct {
	s    *tokenstream.Stream
	sink *diagnostics.Sink
}

// New constructs a Parser reading from s, reporting errors to sink.
func New(s *tokenstream.Stream, sink *diagnostics.Sink) *Parser {
	return &Parser{s: s, sink: sink}
}

// ParseFile parses a full sequence of top-level declarations until EOF. An
// optional leading bare quoted string is captured as a doc string on the
// first declaration.
func (p *Parser) ParseFile() []*Decl {
	var decls []*Decl
	var doc string
	if p.s.Peek(0).Kind == token.QuotedString && p.s.Peek(1).Kind == token.Identifier {
		doc = p.s.Next().StrVal
	}
	for !p.s.AtEOF() {
		d := p.parseDecl()
		if d == nil {
			break
		}
		if doc != "" {
			d.DocString = doc
			doc = ""
		}
		decls = append(decls, d)
	}
	return decls
}

func (p *Parser) errf(loc diagnostics.SourceLoc, format string, args ...interface{}) {
	if p.sink != nil {
		p.sink.Fatalf(diagnostics.Parsing, loc, format, args...)
	}
}

// parseNotes consumes zero or more `@name(args)` notes preceding a decl.
func (p *Parser) parseNotes() []*Note {
	var notes []*Note
	for p.s.Peek(0).IsPunct('@') {
		loc := p.s.Next().Loc // consume '@'
		nameTok := p.s.Next()
		note := &Note{Name: nameTok.Raw, Loc: loc}
		if p.s.Peek(0).IsPunct('(') {
			note.Args = p.parseArgList()
		}
		notes = append(notes, note)
	}
	return notes
}

func (p *Parser) parseDecl() *Decl {
	notes := p.parseNotes()
	kw := p.s.Next()
	if kw.Kind == token.EOF {
		return nil
	}
	if kw.Kind != token.Identifier {
		p.errf(kw.Loc, "expected declaration keyword, got %q", kw.Raw)
		return nil
	}
	d := &Decl{Keyword: kw.Raw, Loc: kw.Loc, Notes: notes}
	if p.s.Peek(0).IsPunct('(') {
		d.Args = p.parseArgList()
	}
	// notes may also trail the argument list, e.g. index_set(...) @sub(...)
	d.Notes = append(d.Notes, p.parseNotes()...)
	switch {
	case p.s.Peek(0).IsPunct('{'):
		d.Body = p.parseBracedBody()
	case p.s.Peek(0).IsPunct('['):
		d.Body = p.parseBracketedBody()
	}
	return d
}

func (p *Parser) parseArgList() []*Arg {
	p.s.Next() // '('
	var args []*Arg
	for !p.s.Peek(0).IsPunct(')') && p.s.Peek(0).Kind != token.EOF {
		args = append(args, p.parseArg())
		if p.s.Peek(0).IsPunct(',') {
			p.s.Next()
		}
	}
	if p.s.Peek(0).IsPunct(')') {
		p.s.Next()
	}
	return args
}

func (p *Parser) parseArg() *Arg {
	t := p.s.Peek(0)
	switch {
	case t.Kind == token.Identifier && p.s.Peek(1).IsPunct('('):
		// inline declaration
		inline := p.parseDecl()
		return &Arg{Kind: ArgInlineDecl, Inline: inline, Loc: t.Loc}
	case t.Kind == token.Identifier:
		chain := p.parseIdentChain()
		return &Arg{Kind: ArgIdentChain, Chain: chain, Loc: t.Loc}
	default:
		p.s.Next()
		return &Arg{Kind: ArgLiteral, Literal: t, Loc: t.Loc}
	}
}

// parseIdentChain parses a scope-path identifier chain `a\b\c` as consumed
// from the lexer: identifiers separated by backslash punctuation tokens, per
// spec.md §6 "Backslash is the scope-path separator in serial references."
func (p *Parser) parseIdentChain() []string {
	first := p.s.Next()
	chain := []string{first.Raw}
	for p.s.Peek(0).IsPunct('\\') {
		p.s.Next()
		part := p.s.Next()
		chain = append(chain, part.Raw)
	}
	return chain
}

func (p *Parser) parseBracedBody() *Body {
	loc := p.s.Next().Loc // '{'
	body := &Body{Kind: BodyBraced, Loc: loc}
	for !p.s.Peek(0).IsPunct('}') && p.s.Peek(0).Kind != token.EOF {
		d := p.parseDecl()
		if d == nil {
			break
		}
		body.Decls = append(body.Decls, d)
	}
	if p.s.Peek(0).IsPunct('}') {
		p.s.Next()
	}
	return body
}

func (p *Parser) parseBracketedBody() *Body {
	loc := p.s.Next().Loc // '['
	body := &Body{Kind: BodyBracketed, Loc: loc}

	// directed_graph arrows: detect by presence of '->' after the first
	// value, which never occurs in plain value lists or sub-tables.
	if p.looksLikeArrowSequence() {
		for !p.s.Peek(0).IsPunct(']') && p.s.Peek(0).Kind != token.EOF {
			body.Arrows = append(body.Arrows, p.parseArrow())
			if p.s.Peek(0).IsPunct(';') {
				p.s.Next()
			}
		}
	} else if p.looksLikeSubTable() {
		for !p.s.Peek(0).IsPunct(']') && p.s.Peek(0).Kind != token.EOF {
			body.SubTables = append(body.SubTables, p.parseSubTable())
			if p.s.Peek(0).IsPunct(';') {
				p.s.Next()
			}
		}
	} else {
		for !p.s.Peek(0).IsPunct(']') && p.s.Peek(0).Kind != token.EOF {
			body.Values = append(body.Values, p.parseArg())
		}
	}
	if p.s.Peek(0).IsPunct(']') {
		p.s.Next()
	}
	return body
}

func (p *Parser) looksLikeArrowSequence() bool {
	// Scan ahead (bounded) for '->' before ']' or ';' at depth 0.
	depth := 0
	for k := 0; ; k++ {
		t := p.s.Peek(k)
		if t.Kind == token.EOF {
			return false
		}
		if t.IsPunct('[') {
			depth++
		}
		if t.IsPunct(']') {
			if depth == 0 {
				return false
			}
			depth--
		}
		if depth == 0 && t.IsPunct(';') {
			return false
		}
		if depth == 0 && t.IsOperator("->") {
			return true
		}
		if k > 64 {
			return false
		}
	}
}

func (p *Parser) looksLikeSubTable() bool {
	// A sub-table entry is `key : [ ... ]`; detect a ':' within the next 8
	// tokens, before any ';', ']' or EOF.
	for k := 0; k < 8; k++ {
		t := p.s.Peek(k)
		if t.Kind == token.EOF || t.IsPunct(';') || t.IsPunct(']') {
			return false
		}
		if t.IsPunct(':') {
			return true
		}
	}
	return false
}

func (p *Parser) parseSubTable() *SubTable {
	key := p.parseArg()
	loc := key.Loc
	if p.s.Peek(0).IsPunct(':') {
		p.s.Next()
	}
	st := &SubTable{ParentKey: key, Loc: loc}
	if p.s.Peek(0).IsPunct('[') {
		p.s.Next()
		for !p.s.Peek(0).IsPunct(']') && p.s.Peek(0).Kind != token.EOF {
			st.Values = append(st.Values, p.parseArg())
		}
		if p.s.Peek(0).IsPunct(']') {
			p.s.Next()
		}
	}
	return st
}

func (p *Parser) parseArrow() *Arrow {
	first := p.parseArrowNode()
	arrow := &Arrow{Nodes: []*ArrowNode{first}, Loc: first.Loc}
	for p.s.Peek(0).IsOperator("->") {
		p.s.Next()
		arrow.Nodes = append(arrow.Nodes, p.parseArrowNode())
	}
	return arrow
}

func (p *Parser) parseArrowNode() *ArrowNode {
	name := p.s.Next()
	node := &ArrowNode{Name: name.Raw, Loc: name.Loc}
	if p.s.Peek(0).IsPunct('[') {
		p.s.Next()
		for !p.s.Peek(0).IsPunct(']') && p.s.Peek(0).Kind != token.EOF {
			node.Indexes = append(node.Indexes, p.parseArg())
			if p.s.Peek(0).IsPunct(',') {
				p.s.Next()
			}
		}
		if p.s.Peek(0).IsPunct(']') {
			p.s.Next()
		}
	}
	return node
}

// IsIdent reports whether an Arg is an identifier chain equal to name
// (single-element chain), used for recognizing keyword-like flag tokens
// inside series header flag-sets (e.g. [step_interpolate][unit]).
func (a *Arg) IsIdent(name string) bool {
	return a.Kind == ArgIdentChain && len(a.Chain) == 1 && strings.EqualFold(a.Chain[0], name)
}
