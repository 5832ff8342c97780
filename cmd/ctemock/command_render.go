package main

import (
	"fmt"

	"github.com/shibukawa/ctemock/sqlformat"
)

// RenderCmd prints a statement with its mock tables spliced in.
type RenderCmd struct {
	Source string   `arg:"" help:"SQL file (.sql or .md) or example model name"`
	Mock   []string `short:"m" name:"mock" help:"Fixture file with mock tables (repeatable)" type:"existingfile"`
	Pretty bool     `name:"pretty" help:"Reformat the statement for reading"`
}

// Run executes the render command
func (cmd *RenderCmd) Run(ctx *Context) error {
	statement, err := loadStatement(cmd.Source)
	if err != nil {
		return fmt.Errorf("failed to load statement: %w", err)
	}

	merged, err := applyMocks(statement, cmd.Mock)
	if err != nil {
		return fmt.Errorf("failed to build mock tables: %w", err)
	}

	if cmd.Pretty {
		merged = sqlformat.Format(merged)
	}

	fmt.Fprintln(ctx.Stdout, merged)

	return nil
}
