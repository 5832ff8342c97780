// Package sqlformat pretty-prints SQL statements for humans. Comments are
// dropped, keywords are upper-cased, whitespace is collapsed and every
// top-level clause starts a new line. Subqueries are indented.
//
// The output is meant for logs and verbose listings and is not guaranteed to
// be equivalent SQL for every dialect.
package sqlformat

import (
	"strings"

	"github.com/shibukawa/ctemock/tokenizer"
)

const indentUnit = "    "

// clauseKeywords start a new line when they appear in a query context.
var clauseKeywords = map[string]bool{
	"SELECT": true, "FROM": true, "WHERE": true, "GROUP": true, "HAVING": true,
	"ORDER": true, "LIMIT": true, "OFFSET": true, "UNION": true, "INTERSECT": true,
	"EXCEPT": true, "WINDOW": true, "RETURNING": true, "VALUES": true, "SET": true,
	"JOIN": true, "LEFT": true, "RIGHT": true, "INNER": true, "FULL": true,
	"CROSS": true, "NATURAL": true, "WITH": true,
}

// joinModifiers keep a following JOIN or OUTER on the same line.
var joinModifiers = map[string]bool{
	"LEFT": true, "RIGHT": true, "INNER": true, "FULL": true, "CROSS": true,
	"NATURAL": true, "OUTER": true,
}

// callableKeywords are keywords written like function calls.
var callableKeywords = map[string]bool{
	"CAST": true, "ANY": true, "SOME": true, "ROW": true, "FILTER": true,
	"LEFT": true, "RIGHT": true,
}

// Format returns sql reformatted. Input the tokenizer rejects is returned
// trimmed but otherwise unchanged.
func Format(sql string) string {
	tokens, err := tokenizer.Significant(sql)
	if err != nil {
		return strings.TrimSpace(sql)
	}

	f := &formatter{levels: []bool{true}}
	for i := range tokens {
		f.write(tokens, i)
	}

	return strings.TrimSpace(f.out.String())
}

type formatter struct {
	out strings.Builder
	// levels records for every open parenthesis whether it holds a query.
	levels  []bool
	indent  int
	newLine bool
	// closedQuery is set right after a parenthesised query was closed.
	closedQuery bool
}

func (f *formatter) write(tokens []tokenizer.Token, i int) {
	tok := tokens[i]
	value := tok.Value

	if tok.Type == tokenizer.WORD && tokenizer.IsKeyword(value) {
		value = strings.ToUpper(value)
	}

	closedQuery := f.closedQuery
	f.closedQuery = false

	switch tok.Type {
	case tokenizer.OPENED_PARENS:
		f.emit(tokens, i, value)
		f.levels = append(f.levels, false)

		return
	case tokenizer.CLOSED_PARENS:
		if len(f.levels) > 1 {
			query := f.levels[len(f.levels)-1]
			f.levels = f.levels[:len(f.levels)-1]

			if query {
				f.indent--
				f.newLine = true
				f.closedQuery = true
			}
		}

		f.emit(tokens, i, value)

		return
	case tokenizer.COMMA:
		f.emit(tokens, i, value)

		if closedQuery && f.inQuery() {
			f.newLine = true
		}

		return
	case tokenizer.SEMICOLON:
		f.emit(tokens, i, value)
		f.out.WriteString("\n")
		f.newLine = true

		return
	}

	if tok.Type == tokenizer.WORD && (value == "SELECT" || value == "WITH") && !f.inQuery() && prevIs(tokens, i, tokenizer.OPENED_PARENS) {
		f.levels[len(f.levels)-1] = true
		f.indent++
	}

	if tok.Type == tokenizer.WORD && f.inQuery() && f.startsClause(tokens, i, value) {
		f.newLine = true
	}

	f.emit(tokens, i, value)
}

func (f *formatter) inQuery() bool {
	return f.levels[len(f.levels)-1]
}

func (f *formatter) startsClause(tokens []tokenizer.Token, i int, value string) bool {
	if !clauseKeywords[value] {
		return false
	}

	var prev string
	if i > 0 && tokens[i-1].Type == tokenizer.WORD {
		prev = strings.ToUpper(tokens[i-1].Value)
	}

	switch value {
	case "JOIN":
		return !joinModifiers[prev]
	case "LEFT", "RIGHT":
		// left(text, n) is a function call
		return !(i+1 < len(tokens) && tokens[i+1].Type == tokenizer.OPENED_PARENS)
	case "FROM":
		return prev != "DISTINCT"
	case "SET", "VALUES":
		return prev != "DEFAULT"
	}

	return true
}

func (f *formatter) emit(tokens []tokenizer.Token, i int, value string) {
	switch {
	case f.out.Len() == 0:
	case f.newLine:
		f.out.WriteString("\n")
		f.out.WriteString(strings.Repeat(indentUnit, max(f.indent, 0)))
	case needsSpace(tokens, i):
		f.out.WriteString(" ")
	}

	f.newLine = false
	f.out.WriteString(value)
}

func prevIs(tokens []tokenizer.Token, i int, tokenType tokenizer.TokenType) bool {
	return i > 0 && tokens[i-1].Type == tokenType
}

func needsSpace(tokens []tokenizer.Token, i int) bool {
	cur := tokens[i]
	prev := tokens[i-1]

	switch cur.Type {
	case tokenizer.COMMA, tokenizer.SEMICOLON, tokenizer.CLOSED_PARENS, tokenizer.DOT:
		return false
	case tokenizer.OPENED_PARENS:
		if isCallee(prev) {
			return false
		}
	case tokenizer.OPERATOR:
		if cur.Value == "::" {
			return false
		}
	}

	switch prev.Type {
	case tokenizer.OPENED_PARENS, tokenizer.DOT, tokenizer.OTHER:
		return false
	case tokenizer.OPERATOR:
		switch prev.Value {
		case "::", ":", "@":
			return false
		case "-", "+":
			return !isUnary(tokens, i-1)
		}
	}

	return true
}

// isCallee reports whether tok names a function when followed by "(".
func isCallee(tok tokenizer.Token) bool {
	switch tok.Type {
	case tokenizer.QUOTED_IDENTIFIER:
		return true
	case tokenizer.WORD:
		return !tokenizer.IsKeyword(tok.Value) || callableKeywords[strings.ToUpper(tok.Value)]
	default:
		return false
	}
}

// isUnary reports whether the sign operator at i applies to the operand after it.
func isUnary(tokens []tokenizer.Token, i int) bool {
	if i == 0 {
		return true
	}

	switch prev := tokens[i-1]; prev.Type {
	case tokenizer.OPERATOR, tokenizer.COMMA, tokenizer.OPENED_PARENS:
		return true
	case tokenizer.WORD:
		return tokenizer.IsKeyword(prev.Value)
	default:
		return false
	}
}
