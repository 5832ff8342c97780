package tokenizer

import (
	"errors"
	"strings"
)

// Sentinel errors
var (
	ErrUnterminatedString     = errors.New("unterminated string literal")
	ErrUnterminatedIdentifier = errors.New("unterminated quoted identifier")
	ErrUnterminatedComment    = errors.New("unterminated block comment")
	ErrInvalidNumber          = errors.New("invalid number format")
)

// TokenType represents the type of a token
type TokenType int

const (
	EOF TokenType = iota
	WHITESPACE
	WORD              // identifiers and keywords, original case kept
	QUOTED_IDENTIFIER // "name", `name`
	STRING            // 'text', E'text', $tag$text$tag$
	NUMBER
	OPENED_PARENS // (
	CLOSED_PARENS // )
	COMMA         // ,
	SEMICOLON     // ;
	DOT           // .
	OPERATOR      // =, <>, ::, ||, ...
	LINE_COMMENT  // -- comment
	BLOCK_COMMENT // /* comment */
	OTHER
)

// String returns the string representation of TokenType
func (t TokenType) String() string {
	switch t {
	case EOF:
		return "EOF"
	case WHITESPACE:
		return "WHITESPACE"
	case WORD:
		return "WORD"
	case QUOTED_IDENTIFIER:
		return "QUOTED_IDENTIFIER"
	case STRING:
		return "STRING"
	case NUMBER:
		return "NUMBER"
	case OPENED_PARENS:
		return "OPENED_PARENS"
	case CLOSED_PARENS:
		return "CLOSED_PARENS"
	case COMMA:
		return "COMMA"
	case SEMICOLON:
		return "SEMICOLON"
	case DOT:
		return "DOT"
	case OPERATOR:
		return "OPERATOR"
	case LINE_COMMENT:
		return "LINE_COMMENT"
	case BLOCK_COMMENT:
		return "BLOCK_COMMENT"
	case OTHER:
		return "OTHER"
	default:
		return "UNKNOWN"
	}
}

// Position represents a position in the source text. Line and Column are
// 1-based and count runes; Offset is the byte offset.
type Position struct {
	Line   int
	Column int
	Offset int
}

// Token represents a token
type Token struct {
	Type     TokenType
	Value    string
	Position Position
}

// String returns the string representation of Token
func (t Token) String() string {
	return t.Type.String() + ": " + t.Value
}

// End returns the byte offset just past the token.
func (t Token) End() int {
	return t.Position.Offset + len(t.Value)
}

// IsComment reports whether the token is a line or block comment.
func (t Token) IsComment() bool {
	return t.Type == LINE_COMMENT || t.Type == BLOCK_COMMENT
}

// IsWord reports whether the token is the given bare word, ignoring case.
func (t Token) IsWord(word string) bool {
	return t.Type == WORD && strings.EqualFold(t.Value, word)
}

// Identifier returns the name an identifier token refers to. Quoted identifiers
// are unwrapped and doubled quotes collapsed; other tokens return their value.
func (t Token) Identifier() string {
	if t.Type != QUOTED_IDENTIFIER || len(t.Value) < 2 {
		return t.Value
	}

	quote := t.Value[:1]
	inner := t.Value[1 : len(t.Value)-1]

	return strings.ReplaceAll(inner, quote+quote, quote)
}
