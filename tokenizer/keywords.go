package tokenizer

import "strings"

// keywordSet holds the SQL keywords shared by PostgreSQL, MySQL and SQLite that
// the formatter upper-cases. Function names are not listed.
var keywordSet = map[string]struct{}{
	"ALL": {}, "AND": {}, "ANY": {}, "AS": {}, "ASC": {}, "BETWEEN": {}, "BY": {},
	"CASE": {}, "CAST": {}, "CROSS": {}, "CURRENT": {}, "DEFAULT": {}, "DELETE": {},
	"DESC": {}, "DISTINCT": {}, "ELSE": {}, "END": {}, "EXCEPT": {}, "EXISTS": {},
	"FALSE": {}, "FETCH": {}, "FILTER": {}, "FIRST": {}, "FOLLOWING": {}, "FOR": {},
	"FROM": {}, "FULL": {}, "GROUP": {}, "HAVING": {}, "ILIKE": {}, "IN": {},
	"INNER": {}, "INSERT": {}, "INTERSECT": {}, "INTO": {}, "IS": {}, "JOIN": {},
	"LAST": {}, "LATERAL": {}, "LEFT": {}, "LIKE": {}, "LIMIT": {}, "MATERIALIZED": {},
	"NATURAL": {}, "NOT": {}, "NULL": {}, "NULLS": {}, "OFFSET": {}, "ON": {},
	"OR": {}, "ORDER": {}, "OUTER": {}, "OVER": {}, "PARTITION": {}, "PRECEDING": {},
	"RANGE": {}, "RECURSIVE": {}, "RETURNING": {}, "RIGHT": {}, "ROW": {}, "ROWS": {},
	"SELECT": {}, "SET": {}, "SOME": {}, "THEN": {}, "TRUE": {}, "UNBOUNDED": {},
	"UNION": {}, "UPDATE": {}, "USING": {}, "VALUES": {}, "WHEN": {}, "WHERE": {},
	"WINDOW": {}, "WITH": {},
}

// IsKeyword reports whether word is a SQL keyword, ignoring case.
func IsKeyword(word string) bool {
	_, ok := keywordSet[strings.ToUpper(word)]
	return ok
}
