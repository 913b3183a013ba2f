// Package token defines the lexical token kinds shared by the lexer
// collaborator and the in-scope token stream (tokenstream).
package token

import "github.com/viant/biome/diagnostics"

// Kind enumerates the token kinds recognized by the model/data-set grammars,
// per spec.md §4.8.
type Kind int

const (
	Invalid Kind = iota
	Identifier
	QuotedString
	Integer
	Real
	Boolean
	Date
	Time
	Punctuation
	Operator
	EOF
)

func (k Kind) String() string {
	switch k {
	case Identifier:
		return "identifier"
	case QuotedString:
		return "quoted_string"
	case Integer:
		return "integer"
	case Real:
		return "real"
	case Boolean:
		return "boolean"
	case Date:
		return "date"
	case Time:
		return "time"
	case Punctuation:
		return "punctuation"
	case Operator:
		return "operator"
	case EOF:
		return "eof"
	default:
		return "invalid"
	}
}

// Token is one lexical unit with its decoded value and source location.
type Token struct {
	Kind Kind
	Raw  string
	Loc  diagnostics.SourceLoc

	// Decoded payloads; only the field matching Kind is meaningful.
	StrVal  string
	IntVal  int64
	RealVal float64
	BoolVal bool
}

// IsPunct reports whether the token is the given single-character punctuation.
func (t Token) IsPunct(ch byte) bool {
	return t.Kind == Punctuation && len(t.Raw) == 1 && t.Raw[0] == ch
}

// IsOperator reports whether the token is the given multi-char operator.
func (t Token) IsOperator(op string) bool {
	return t.Kind == Operator && t.Raw == op
}
