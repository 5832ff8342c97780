package models

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shibukawa/ctemock"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/text"
)

// LoadSQL reads a statement from a .sql file, or from the first sql code
// fence of a Markdown (.md, .markdown) document.
func LoadSQL(path string) (string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read sql source: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		sql, err := ExtractSQL(content)
		if err != nil {
			return "", fmt.Errorf("%s: %w", path, err)
		}

		return sql, nil
	default:
		if len(bytes.TrimSpace(content)) == 0 {
			return "", fmt.Errorf("%w: %s", ctemock.ErrEmptyContent, path)
		}

		return string(content), nil
	}
}

// ExtractSQL returns the content of the first fenced code block tagged sql.
func ExtractSQL(content []byte) (string, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(content))

	var found *ast.FencedCodeBlock

	err := ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		codeBlock, ok := n.(*ast.FencedCodeBlock)
		if !ok || !isSQLCodeBlock(codeBlock, content) {
			return ast.WalkContinue, nil
		}

		found = codeBlock

		return ast.WalkStop, nil
	})
	if err != nil {
		return "", err
	}

	if found == nil {
		return "", ctemock.ErrNoSQLBlock
	}

	var sql strings.Builder

	lines := found.Lines()
	for i := range lines.Len() {
		line := lines.At(i)
		sql.Write(line.Value(content))
	}

	result := strings.TrimRight(sql.String(), "\n")
	if strings.TrimSpace(result) == "" {
		return "", fmt.Errorf("%w: sql code block", ctemock.ErrEmptyContent)
	}

	return result, nil
}

// isSQLCodeBlock checks if a fenced code block is marked as SQL
func isSQLCodeBlock(codeBlock *ast.FencedCodeBlock, content []byte) bool {
	if codeBlock.Info == nil {
		return false
	}

	info := strings.Fields(strings.ToLower(string(codeBlock.Info.Value(content))))

	return len(info) > 0 && info[0] == "sql"
}
