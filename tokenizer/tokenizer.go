package tokenizer

import (
	"fmt"
	"iter"
	"strings"
	"unicode"
	"unicode/utf8"
)

// TokenIterator uses Go 1.24 iterator pattern
type TokenIterator iter.Seq2[Token, error]

// SqlTokenizer is a tokenizer that returns an iterator
type SqlTokenizer struct {
	input   string
	options TokenizerOptions
}

// TokenizerOptions are options for the tokenizer
type TokenizerOptions struct {
	SkipWhitespace bool
	SkipComments   bool
}

// NewSqlTokenizer creates a new SqlTokenizer
func NewSqlTokenizer(input string, options ...TokenizerOptions) *SqlTokenizer {
	opts := TokenizerOptions{}
	if len(options) > 0 {
		opts = options[0]
	}

	return &SqlTokenizer{
		input:   input,
		options: opts,
	}
}

// Tokens returns an iterator of tokens. The final token is always EOF unless
// the caller stops early.
func (t *SqlTokenizer) Tokens() TokenIterator {
	return func(yield func(Token, error) bool) {
		tokenizer := &tokenizer{
			input:  t.input,
			line:   1,
			column: 1,
		}

		for {
			token, err := tokenizer.nextToken()
			if err != nil {
				if !yield(Token{}, err) {
					return
				}

				continue
			}

			if token.Type == EOF {
				yield(token, nil)
				return
			}

			// Filtering based on options
			if t.options.SkipWhitespace && token.Type == WHITESPACE {
				continue
			}

			if t.options.SkipComments && token.IsComment() {
				continue
			}

			if !yield(token, nil) {
				return
			}
		}
	}
}

// AllTokens gets all tokens as a slice. The first error encountered is
// returned together with the tokens read so far.
func (t *SqlTokenizer) AllTokens() ([]Token, error) {
	tokens := make([]Token, 0, 64)

	for token, err := range t.Tokens() {
		if err != nil {
			return tokens, err
		}

		tokens = append(tokens, token)
	}

	return tokens, nil
}

// Significant returns the tokens of input without whitespace, comments and the
// trailing EOF.
func Significant(input string) ([]Token, error) {
	tokens, err := NewSqlTokenizer(input, TokenizerOptions{
		SkipWhitespace: true,
		SkipComments:   true,
	}).AllTokens()
	if err != nil {
		return nil, err
	}

	if len(tokens) > 0 && tokens[len(tokens)-1].Type == EOF {
		tokens = tokens[:len(tokens)-1]
	}

	return tokens, nil
}

// Internal tokenizer implementation. offset is a byte offset into input.
type tokenizer struct {
	input  string
	offset int
	line   int
	column int
}

const operatorChars = "=<>!+-*/%|&^~:?@#"

// nextToken gets the next token
func (t *tokenizer) nextToken() (Token, error) {
	if t.atEOF() {
		return Token{Type: EOF, Position: t.mark()}, nil
	}

	start := t.mark()
	c := t.current()

	switch {
	case unicode.IsSpace(c):
		for !t.atEOF() && unicode.IsSpace(t.current()) {
			t.advance()
		}

		return t.tokenFrom(WHITESPACE, start), nil
	case c == '-' && t.peekByte(1) == '-':
		for !t.atEOF() && t.current() != '\n' {
			t.advance()
		}

		return t.tokenFrom(LINE_COMMENT, start), nil
	case c == '/' && t.peekByte(1) == '*':
		return t.readBlockComment(start)
	case c == '\'':
		return t.readQuoted(start, '\'', STRING, false)
	case c == '"' || c == '`':
		return t.readQuoted(start, c, QUOTED_IDENTIFIER, false)
	case c == '$':
		return t.readDollar(start)
	case c == '(':
		t.advance()
		return t.tokenFrom(OPENED_PARENS, start), nil
	case c == ')':
		t.advance()
		return t.tokenFrom(CLOSED_PARENS, start), nil
	case c == ',':
		t.advance()
		return t.tokenFrom(COMMA, start), nil
	case c == ';':
		t.advance()
		return t.tokenFrom(SEMICOLON, start), nil
	case isDigit(c) || (c == '.' && isDigit(rune(t.peekByte(1)))):
		return t.readNumber(start)
	case c == '.':
		t.advance()
		return t.tokenFrom(DOT, start), nil
	case unicode.IsLetter(c) || c == '_':
		return t.readWord(start)
	case strings.ContainsRune(operatorChars, c):
		return t.readOperator(start), nil
	default:
		t.advance()
		return t.tokenFrom(OTHER, start), nil
	}
}

func (t *tokenizer) atEOF() bool {
	return t.offset >= len(t.input)
}

// current returns the rune at the current offset, or 0 at the end of input.
func (t *tokenizer) current() rune {
	if t.atEOF() {
		return 0
	}

	r, _ := utf8.DecodeRuneInString(t.input[t.offset:])

	return r
}

// peekByte looks ahead n bytes
func (t *tokenizer) peekByte(n int) byte {
	i := t.offset + n
	if i >= len(t.input) {
		return 0
	}

	return t.input[i]
}

// advance moves past the current rune
func (t *tokenizer) advance() {
	if t.atEOF() {
		return
	}

	r, size := utf8.DecodeRuneInString(t.input[t.offset:])
	t.offset += size

	if r == '\n' {
		t.line++
		t.column = 1
	} else {
		t.column++
	}
}

func (t *tokenizer) mark() Position {
	return Position{Line: t.line, Column: t.column, Offset: t.offset}
}

func (t *tokenizer) tokenFrom(tokenType TokenType, start Position) Token {
	return Token{
		Type:     tokenType,
		Value:    t.input[start.Offset:t.offset],
		Position: start,
	}
}

// readBlockComment reads /* ... */ comments
func (t *tokenizer) readBlockComment(start Position) (Token, error) {
	t.advance()
	t.advance()

	for {
		if t.atEOF() {
			return Token{}, fmt.Errorf("%w at line %d, column %d", ErrUnterminatedComment, start.Line, start.Column)
		}

		if t.current() == '*' && t.peekByte(1) == '/' {
			t.advance()
			t.advance()

			return t.tokenFrom(BLOCK_COMMENT, start), nil
		}

		t.advance()
	}
}

// readQuoted reads a string literal or quoted identifier. A doubled delimiter
// stands for the delimiter itself; backslash escapes apply only to E'' strings.
func (t *tokenizer) readQuoted(start Position, delimiter rune, tokenType TokenType, backslash bool) (Token, error) {
	t.advance() // opening delimiter

	for {
		if t.atEOF() {
			if tokenType == QUOTED_IDENTIFIER {
				return Token{}, fmt.Errorf("%w: %c at line %d, column %d", ErrUnterminatedIdentifier, delimiter, start.Line, start.Column)
			}

			return Token{}, fmt.Errorf("%w: %c at line %d, column %d", ErrUnterminatedString, delimiter, start.Line, start.Column)
		}

		c := t.current()

		if backslash && c == '\\' {
			t.advance()
			t.advance()

			continue
		}

		t.advance()

		if c == delimiter {
			if !t.atEOF() && t.current() == delimiter {
				t.advance()
				continue
			}

			return t.tokenFrom(tokenType, start), nil
		}
	}
}

// readDollar reads a PostgreSQL dollar-quoted string such as $$text$$ or
// $fn$text$fn$. A '$' that does not open one is returned as OTHER.
func (t *tokenizer) readDollar(start Position) (Token, error) {
	end := t.offset + 1
	for end < len(t.input) && (isASCIILetter(t.input[end]) || t.input[end] == '_' || (end > t.offset+1 && isDigit(rune(t.input[end])))) {
		end++
	}

	if end >= len(t.input) || t.input[end] != '$' {
		t.advance()
		return t.tokenFrom(OTHER, start), nil
	}

	tag := t.input[t.offset : end+1]

	closing := strings.Index(t.input[end+1:], tag)
	if closing < 0 {
		for !t.atEOF() {
			t.advance()
		}

		return Token{}, fmt.Errorf("%w: %s at line %d, column %d", ErrUnterminatedString, tag, start.Line, start.Column)
	}

	stop := end + 1 + closing + len(tag)
	for t.offset < stop {
		t.advance()
	}

	return t.tokenFrom(STRING, start), nil
}

// readNumber reads numeric literals
func (t *tokenizer) readNumber(start Position) (Token, error) {
	for isDigit(t.current()) {
		t.advance()
	}

	if t.current() == '.' {
		t.advance()

		for isDigit(t.current()) {
			t.advance()
		}
	}

	if c := t.current(); c == 'e' || c == 'E' {
		t.advance()

		if c := t.current(); c == '+' || c == '-' {
			t.advance()
		}

		if !isDigit(t.current()) {
			return Token{}, fmt.Errorf("%w: invalid exponent at line %d, column %d", ErrInvalidNumber, start.Line, start.Column)
		}

		for isDigit(t.current()) {
			t.advance()
		}
	}

	return t.tokenFrom(NUMBER, start), nil
}

// readWord reads identifiers and keywords. A single-letter prefix directly
// followed by a quote forms a prefixed string such as E'...' or X'...'.
func (t *tokenizer) readWord(start Position) (Token, error) {
	for {
		c := t.current()
		if !(unicode.IsLetter(c) || unicode.IsDigit(c) || c == '_' || c == '$') {
			break
		}

		t.advance()
	}

	word := t.input[start.Offset:t.offset]
	if len(word) == 1 && t.current() == '\'' && strings.ContainsAny(word, "eExXbBnN") {
		return t.readQuoted(start, '\'', STRING, word == "e" || word == "E")
	}

	return t.tokenFrom(WORD, start), nil
}

// readOperator reads a run of operator characters, stopping before a comment
// opener.
func (t *tokenizer) readOperator(start Position) Token {
	for !t.atEOF() && strings.ContainsRune(operatorChars, t.current()) {
		if t.offset > start.Offset {
			next := t.peekByte(1)
			c := t.current()

			if (c == '-' && next == '-') || (c == '/' && next == '*') {
				break
			}
		}

		t.advance()
	}

	return t.tokenFrom(OPERATOR, start)
}

func isDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

func isASCIILetter(b byte) bool {
	return (b >= 'a' && b <= 'z') || (b >= 'A' && b <= 'Z')
}
