package mockcte

import (
	"strings"

	"github.com/shibukawa/ctemock/tokenizer"
)

var significantOnly = tokenizer.TokenizerOptions{
	SkipWhitespace: true,
	SkipComments:   true,
}

// Merge makes mockCTE the first common table expression of sql.
//
// When the first significant token of sql (after whitespace and comments) is
// WITH, that keyword is replaced by the fragment followed by ",\n" so the
// existing CTEs follow the mock. For WITH RECURSIVE the keywords stay in place
// and the fragment's definition is inserted after them. Any other statement
// gets the fragment prepended on its own line.
//
// Merge never checks that sql uses the mocked table; see ReferencesTable.
func Merge(mockCTE, sql string) string {
	fragment := strings.TrimSpace(mockCTE)

	clause, ok := leadingWith(sql)
	if !ok {
		return fragment + "\n" + sql
	}

	if clause.recursive {
		return sql[:clause.end] + " " + fragmentBody(fragment) + ",\n" + sql[clause.end:]
	}

	return sql[:clause.start] + fragment + ",\n" + sql[clause.end:]
}

// Mock builds a mock table from rows and merges it into sql.
func Mock(sql, tableName string, rows []Row) (string, error) {
	fragment, err := Build(tableName, rows)
	if err != nil {
		return "", err
	}

	return Merge(fragment, sql), nil
}

// MockAll merges every table into sql in order. Each table becomes the new
// first CTE, so the last table is listed first.
func MockAll(sql string, tables ...Table) (string, error) {
	merged := sql

	for _, table := range tables {
		fragment, err := BuildTable(table)
		if err != nil {
			return "", err
		}

		merged = Merge(fragment, merged)
	}

	return merged, nil
}

// ReferencesTable reports whether tableName appears in sql as an unqualified
// identifier. Occurrences inside string literals and comments, and names
// qualified with a schema such as s.orders, do not count. Bare words compare
// case-insensitively, quoted identifiers exactly.
func ReferencesTable(sql, tableName string) bool {
	var prev tokenizer.Token

	for token, err := range tokenizer.NewSqlTokenizer(sql, significantOnly).Tokens() {
		if err != nil {
			return false
		}

		if prev.Type != tokenizer.DOT {
			switch token.Type {
			case tokenizer.WORD:
				if strings.EqualFold(token.Value, tableName) {
					return true
				}
			case tokenizer.QUOTED_IDENTIFIER:
				if token.Identifier() == tableName {
					return true
				}
			}
		}

		prev = token
	}

	return false
}

type withClause struct {
	start     int
	end       int
	recursive bool
}

// leadingWith locates a leading WITH or WITH RECURSIVE keyword. Only the first
// significant token decides; a tokenizer error before it means no match.
func leadingWith(sql string) (withClause, bool) {
	var clause withClause

	found := false

	for token, err := range tokenizer.NewSqlTokenizer(sql, significantOnly).Tokens() {
		if err != nil {
			break
		}

		if !found {
			if !token.IsWord("with") {
				return withClause{}, false
			}

			clause.start = token.Position.Offset
			clause.end = token.End()
			found = true

			continue
		}

		if token.IsWord("recursive") {
			clause.end = token.End()
			clause.recursive = true
		}

		break
	}

	return clause, found
}

// fragmentBody strips the leading WITH keyword from a fragment. A following
// word is the CTE name, even when it reads "recursive".
func fragmentBody(fragment string) string {
	for token, err := range tokenizer.NewSqlTokenizer(fragment, significantOnly).Tokens() {
		if err != nil || !token.IsWord("with") {
			return fragment
		}

		return strings.TrimLeft(fragment[token.End():], " \t\r\n")
	}

	return fragment
}
