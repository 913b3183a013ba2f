// Package tokenstream implements C2: a lazy token queue with k-ahead peek
// over a source buffer, grounded on original_source/src/peek_queue.h and
// shaped like the teacher's pull-based tree-sitter parser entry points
// (Analyzer.AnalyzeSourceCode walks a lazily-produced node stream).
package tokenstream

import "github.com/viant/biome/token"

// Source produces tokens on demand; lexer.Lexer satisfies this.
type Source interface {
	Next() token.Token
}

// Stream is a lazily filled, append-only token buffer supporting k-ahead Peek without
// consuming, Next to consume, and a single-token Backup.
type Stream struct {
	src      Source
	buf      []token.Token
	consumed int
}

// New wraps src in a peekable Stream.
func New(src Source) *Stream {
	return &Stream{src: src}
}

// fill ensures at least n+1 tokens are buffered ahead of the consumed point.
func (s *Stream) fill(n int) {
	for len(s.buf)-s.consumed <= n {
		s.buf = append(s.buf, s.src.Next())
	}
}

// Peek returns the token k positions ahead (0 = next token to be consumed)
// without advancing the stream.
func (s *Stream) Peek(k int) token.Token {
	s.fill(k)
	return s.buf[s.consumed+k]
}

// Next consumes and returns the next token.
func (s *Stream) Next() token.Token {
	s.fill(0)
	t := s.buf[s.consumed]
	s.consumed++
	return t
}

// Backup rewinds the stream by one token (the last one returned by Next).
// It is only valid immediately after a Next call.
func (s *Stream) Backup() {
	if s.consumed > 0 {
		s.consumed--
	}
}

// AtEOF reports whether the next token is the end-of-file sentinel.
func (s *Stream) AtEOF() bool {
	return s.Peek(0).Kind == token.EOF
}
