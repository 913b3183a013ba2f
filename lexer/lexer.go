// Package lexer is the collaborator tokenizer for the model and data-set
// grammars. Per spec.md §1 the character-level lexer is out of the core's
// scope (treated as a collaborator); this implementation exists so the
// in-scope token stream (tokenstream) and parsers have something runnable to
// sit on, grounded on original_source/src/lexer.cpp's documented token
// kinds and exact-double-parsing table.
package lexer

import (
	"math"
	"strings"
	"unicode"

	"github.com/viant/biome/diagnostics"
	"github.com/viant/biome/token"
)

// powersOfTen10 supports exact double parsing for mantissas up to 2^53 and
// exponents in [-22,22], per spec.md §4.8.
var powersOfTen10 = [...]float64{
	1e0, 1e1, 1e2, 1e3, 1e4, 1e5, 1e6, 1e7, 1e8, 1e9, 1e10,
	1e11, 1e12, 1e13, 1e14, 1e15, 1e16, 1e17, 1e18, 1e19, 1e20, 1e21, 1e22,
}

// Lexer tokenizes a source buffer, producing tokens on demand via Next.
// DateMode, when enabled, allows date/time literal recognition.
type Lexer struct {
	src      []byte
	file     string
	pos      int
	line     int
	col      int
	DateMode bool
	sink     *diagnostics.Sink
}

// New constructs a Lexer over src, attributing diagnostics to file.
func New(src []byte, file string, sink *diagnostics.Sink) *Lexer {
	return &Lexer{src: src, file: file, line: 1, col: 1, sink: sink}
}

func (l *Lexer) loc() diagnostics.SourceLoc {
	return diagnostics.SourceLoc{File: l.file, Line: l.line, Column: l.col}
}

func (l *Lexer) peekByte() byte {
	if l.pos >= len(l.src) {
		return 0
	}
	return l.src[l.pos]
}

func (l *Lexer) advance() byte {
	c := l.src[l.pos]
	l.pos++
	if c == '\n' {
		l.line++
		l.col = 1
	} else {
		l.col++
	}
	return c
}

func isIdentStart(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c))
}

func isIdentCont(c byte) bool {
	return c == '_' || unicode.IsLetter(rune(c)) || unicode.IsDigit(rune(c))
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// skipTrivia consumes whitespace and `#`-prefixed line comments.
func (l *Lexer) skipTrivia() {
	for l.pos < len(l.src) {
		c := l.peekByte()
		switch {
		case c == ' ' || c == '\t' || c == '\r' || c == '\n':
			l.advance()
		case c == '#':
			for l.pos < len(l.src) && l.peekByte() != '\n' {
				l.advance()
			}
		default:
			return
		}
	}
}

// Next returns the next token in the stream, or an EOF token at end of input.
func (l *Lexer) Next() token.Token {
	l.skipTrivia()
	loc := l.loc()
	if l.pos >= len(l.src) {
		return token.Token{Kind: token.EOF, Loc: loc}
	}
	c := l.peekByte()

	switch {
	case isIdentStart(c):
		return l.lexIdentifier(loc)
	case c == '"':
		return l.lexQuotedString(loc)
	case isDigit(c) || (c == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1])):
		return l.lexNumberOrDate(loc)
	case c == '<' || c == '>' || c == '!' || c == '-':
		return l.lexOperatorOrPunct(loc)
	default:
		l.advance()
		return token.Token{Kind: token.Punctuation, Raw: string(c), Loc: loc}
	}
}

func (l *Lexer) lexIdentifier(loc diagnostics.SourceLoc) token.Token {
	start := l.pos
	for l.pos < len(l.src) && isIdentCont(l.peekByte()) {
		l.advance()
	}
	raw := string(l.src[start:l.pos])
	switch strings.ToLower(raw) {
	case "true":
		return token.Token{Kind: token.Boolean, Raw: raw, Loc: loc, BoolVal: true}
	case "false":
		return token.Token{Kind: token.Boolean, Raw: raw, Loc: loc, BoolVal: false}
	case "nan":
		return token.Token{Kind: token.Real, Raw: raw, Loc: loc, RealVal: math.NaN()}
	default:
		return token.Token{Kind: token.Identifier, Raw: raw, Loc: loc, StrVal: raw}
	}
}

func (l *Lexer) lexQuotedString(loc diagnostics.SourceLoc) token.Token {
	l.advance() // opening quote
	var b strings.Builder
	for l.pos < len(l.src) && l.peekByte() != '"' {
		c := l.advance()
		if c == '\\' && l.pos < len(l.src) {
			c = l.advance()
		}
		b.WriteByte(c)
	}
	if l.pos < len(l.src) {
		l.advance() // closing quote
	} else if l.sink != nil {
		l.sink.Fatalf(diagnostics.Parsing, loc, "unterminated quoted string")
	}
	raw := b.String()
	return token.Token{Kind: token.QuotedString, Raw: raw, Loc: loc, StrVal: raw}
}

func (l *Lexer) lexNumberOrDate(loc diagnostics.SourceLoc) token.Token {
	start := l.pos
	if l.peekByte() == '-' {
		l.advance()
	}
	for l.pos < len(l.src) && isDigit(l.peekByte()) {
		l.advance()
	}
	// Date literal: YYYY-MM-DD
	if l.DateMode && l.peekByte() == '-' && l.pos+1 < len(l.src) && isDigit(l.src[l.pos+1]) {
		if isDateShape(l.src[start:]) {
			return l.lexDate(loc, start)
		}
	}
	isReal := false
	if l.peekByte() == '.' {
		isReal = true
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.advance()
		}
	}
	if l.peekByte() == 'e' || l.peekByte() == 'E' {
		save := l.pos
		saveLine, saveCol := l.line, l.col
		l.advance()
		if l.peekByte() == '+' || l.peekByte() == '-' {
			l.advance()
		}
		if isDigit(l.peekByte()) {
			isReal = true
			for l.pos < len(l.src) && isDigit(l.peekByte()) {
				l.advance()
			}
		} else {
			l.pos, l.line, l.col = save, saveLine, saveCol
		}
	}
	raw := string(l.src[start:l.pos])
	// Time literal: hh:mm:ss (only reached when no '.'/'e' triggered above and
	// a ':' immediately follows the digit run).
	if l.DateMode && !isReal && l.peekByte() == ':' {
		return l.lexTime(loc, start)
	}
	if isReal {
		return token.Token{Kind: token.Real, Raw: raw, Loc: loc, RealVal: parseExactDouble(raw)}
	}
	var n int64
	for _, ch := range raw {
		if ch == '-' {
			continue
		}
		n = n*10 + int64(ch-'0')
	}
	if strings.HasPrefix(raw, "-") {
		n = -n
	}
	return token.Token{Kind: token.Integer, Raw: raw, Loc: loc, IntVal: n}
}

func isDateShape(rest []byte) bool {
	// Require exactly YYYY-MM-DD shape: 4 digits, '-', 2 digits, '-', 2 digits.
	if len(rest) < 10 {
		return false
	}
	for _, i := range []int{0, 1, 2, 3, 5, 6, 8, 9} {
		if !isDigit(rest[i]) {
			return false
		}
	}
	return rest[4] == '-' && rest[7] == '-'
}

func (l *Lexer) lexDate(loc diagnostics.SourceLoc, start int) token.Token {
	// consume "-MM-DD"
	for i := 0; i < 6; i++ {
		l.advance()
	}
	raw := string(l.src[start:l.pos])
	// optionally composed with a time via '+'
	if l.peekByte() == '+' {
		l.advance()
		timeStart := l.pos
		for l.pos < len(l.src) && (isDigit(l.peekByte()) || l.peekByte() == ':') {
			l.advance()
		}
		raw = raw + "+" + string(l.src[timeStart:l.pos])
	}
	return token.Token{Kind: token.Date, Raw: raw, Loc: loc, StrVal: raw}
}

func (l *Lexer) lexTime(loc diagnostics.SourceLoc, start int) token.Token {
	for l.peekByte() == ':' {
		l.advance()
		for l.pos < len(l.src) && isDigit(l.peekByte()) {
			l.advance()
		}
	}
	raw := string(l.src[start:l.pos])
	return token.Token{Kind: token.Time, Raw: raw, Loc: loc, StrVal: raw}
}

func (l *Lexer) lexOperatorOrPunct(loc diagnostics.SourceLoc) token.Token {
	c := l.advance()
	if l.pos < len(l.src) {
		two := string([]byte{c, l.peekByte()})
		switch two {
		case "<=", ">=", "!=", "->":
			l.advance()
			return token.Token{Kind: token.Operator, Raw: two, Loc: loc}
		}
	}
	return token.Token{Kind: token.Punctuation, Raw: string(c), Loc: loc}
}

// parseExactDouble parses a decimal literal exactly for mantissas up to 2^53
// and exponents within [-22,22] by scaling the integer mantissa with the
// powers-of-ten table, falling back to strconv-equivalent manual parsing
// otherwise (still correct, just not guaranteed table-exact).
func parseExactDouble(raw string) float64 {
	neg := false
	s := raw
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}
	mantissaStr := s
	exp := 0
	if i := strings.IndexAny(s, "eE"); i >= 0 {
		mantissaStr = s[:i]
		expPart := s[i+1:]
		sign := 1
		if strings.HasPrefix(expPart, "+") {
			expPart = expPart[1:]
		} else if strings.HasPrefix(expPart, "-") {
			sign = -1
			expPart = expPart[1:]
		}
		for _, ch := range expPart {
			exp = exp*10 + int(ch-'0')
		}
		exp *= sign
	}
	fracDigits := 0
	if dot := strings.IndexByte(mantissaStr, '.'); dot >= 0 {
		fracDigits = len(mantissaStr) - dot - 1
		mantissaStr = mantissaStr[:dot] + mantissaStr[dot+1:]
	}
	var mantissa uint64
	exact := len(mantissaStr) <= 15
	for _, ch := range mantissaStr {
		if ch < '0' || ch > '9' {
			continue
		}
		mantissa = mantissa*10 + uint64(ch-'0')
	}
	exp -= fracDigits
	if exact && exp >= -22 && exp <= 22 && mantissa < (1<<53) {
		v := float64(mantissa)
		if exp >= 0 {
			v *= powersOfTen10[exp]
		} else {
			v /= powersOfTen10[-exp]
		}
		if neg {
			v = -v
		}
		return v
	}
	// Fallback path for out-of-table-range literals.
	v := float64(mantissa) * math.Pow(10, float64(exp))
	if neg {
		v = -v
	}
	return v
}
