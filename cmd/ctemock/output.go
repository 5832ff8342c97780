package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/google/uuid"
	"github.com/shibukawa/ctemock/mockcte"
	"github.com/shibukawa/ctemock/runner"
	"github.com/shopspring/decimal"
	"golang.org/x/text/width"
)

// OutputFormat names a result rendering.
type OutputFormat string

const (
	FormatTable    OutputFormat = "table"
	FormatJSON     OutputFormat = "json"
	FormatCSV      OutputFormat = "csv"
	FormatYAML     OutputFormat = "yaml"
	FormatMarkdown OutputFormat = "markdown"
)

// IsValidOutputFormat checks if the output format is valid
func IsValidOutputFormat(format string) bool {
	f := OutputFormat(strings.ToLower(format))
	return f == FormatTable || f == FormatJSON || f == FormatCSV || f == FormatYAML || f == FormatMarkdown
}

// Formatter formats query results
type Formatter struct {
	format OutputFormat
}

// NewFormatter creates a new result formatter
func NewFormatter(format OutputFormat) *Formatter {
	return &Formatter{format: format}
}

// Format formats query results according to the specified format
func (f *Formatter) Format(result *runner.Result, output io.Writer) error {
	switch f.format {
	case FormatTable:
		return f.formatAsTable(result, output)
	case FormatJSON:
		return f.formatAsJSON(result, output)
	case FormatCSV:
		return f.formatAsCSV(result, output)
	case FormatYAML:
		return f.formatAsYAML(result, output)
	case FormatMarkdown:
		return f.formatAsMarkdown(result, output)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidOutputFormat, f.format)
	}
}

// formatAsTable draws a boxed text table. Column widths account for
// East Asian wide characters.
func (f *Formatter) formatAsTable(result *runner.Result, output io.Writer) error {
	if result.Count() == 0 {
		_, err := fmt.Fprintln(output, "No results")
		return err
	}

	widths := make([]int, len(result.Columns))
	for i, col := range result.Columns {
		widths[i] = displayWidth(col)
	}

	cells := make([][]string, len(result.Rows))
	for r, row := range result.Rows {
		cells[r] = make([]string, len(row))
		for i, col := range row {
			cells[r][i] = formatValue(col.Value)
			widths[i] = max(widths[i], displayWidth(cells[r][i]))
		}
	}

	var buf bytes.Buffer

	separator := func() {
		buf.WriteString("+")

		for _, w := range widths {
			buf.WriteString(strings.Repeat("-", w+2))
			buf.WriteString("+")
		}

		buf.WriteString("\n")
	}

	line := func(values []string) {
		buf.WriteString("|")

		for i, v := range values {
			buf.WriteString(" ")
			buf.WriteString(v)
			buf.WriteString(strings.Repeat(" ", widths[i]-displayWidth(v)+1))
			buf.WriteString("|")
		}

		buf.WriteString("\n")
	}

	separator()
	line(result.Columns)
	separator()

	for _, row := range cells {
		line(row)
	}

	separator()
	fmt.Fprintf(&buf, "%d rows (Time: %v)\n", result.Count(), result.Duration.Round(time.Microsecond))

	_, err := output.Write(buf.Bytes())

	return err
}

// formatAsMarkdown formats results as a Markdown table
func (f *Formatter) formatAsMarkdown(result *runner.Result, output io.Writer) error {
	if result.Count() == 0 {
		_, err := fmt.Fprintln(output, "No results")
		return err
	}

	var buf bytes.Buffer

	buf.WriteString("| " + strings.Join(escapeMarkdown(result.Columns), " | ") + " |\n")
	buf.WriteString("|" + strings.Repeat(" --- |", len(result.Columns)) + "\n")

	for _, row := range result.Rows {
		values := make([]string, len(row))
		for i, col := range row {
			values[i] = formatValue(col.Value)
		}

		buf.WriteString("| " + strings.Join(escapeMarkdown(values), " | ") + " |\n")
	}

	fmt.Fprintf(&buf, "\n<!-- %d rows, Time: %v -->\n", result.Count(), result.Duration.Round(time.Microsecond))

	_, err := output.Write(buf.Bytes())

	return err
}

// formatAsJSON formats results as JSON with columns in result order
func (f *Formatter) formatAsJSON(result *runner.Result, output io.Writer) error {
	data := make([]orderedRow, len(result.Rows))
	for i, row := range result.Rows {
		data[i] = orderedRow(row)
	}

	jsonResult := struct {
		Data     []orderedRow `json:"data"`
		Count    int          `json:"count"`
		Duration string       `json:"duration"`
	}{
		Data:     data,
		Count:    result.Count(),
		Duration: result.Duration.String(),
	}

	encoder := json.NewEncoder(output)
	encoder.SetIndent("", "  ")

	return encoder.Encode(jsonResult)
}

// formatAsCSV formats results as CSV
func (f *Formatter) formatAsCSV(result *runner.Result, output io.Writer) error {
	writer := csv.NewWriter(output)

	if err := writer.Write(result.Columns); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, row := range result.Rows {
		strValues := make([]string, len(row))
		for i, col := range row {
			strValues[i] = formatValue(col.Value)
		}

		if err := writer.Write(strValues); err != nil {
			return fmt.Errorf("failed to write CSV row: %w", err)
		}
	}

	writer.Flush()

	return writer.Error()
}

// formatAsYAML formats results as YAML with columns in result order
func (f *Formatter) formatAsYAML(result *runner.Result, output io.Writer) error {
	data := make([]yaml.MapSlice, len(result.Rows))

	for i, row := range result.Rows {
		ms := make(yaml.MapSlice, len(row))
		for j, col := range row {
			ms[j] = yaml.MapItem{Key: col.Name, Value: yamlValue(col.Value)}
		}

		data[i] = ms
	}

	yamlResult := yaml.MapSlice{
		{Key: "data", Value: data},
		{Key: "count", Value: result.Count()},
		{Key: "duration", Value: result.Duration.String()},
	}

	out, err := yaml.Marshal(yamlResult)
	if err != nil {
		return fmt.Errorf("failed to marshal results to YAML: %w", err)
	}

	_, err = output.Write(out)

	return err
}

// orderedRow marshals a row as a JSON object keeping column order.
type orderedRow mockcte.Row

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("{")

	for i, col := range r {
		if i > 0 {
			buf.WriteString(",")
		}

		key, err := json.Marshal(col.Name)
		if err != nil {
			return nil, err
		}

		value, err := json.Marshal(plainValue(col.Value))
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteString(":")
		buf.Write(value)
	}

	buf.WriteString("}")

	return buf.Bytes(), nil
}

// plainValue maps result values onto types encoders render as numbers or text.
func plainValue(v any) any {
	switch val := v.(type) {
	case decimal.Decimal:
		if val.IsInteger() && val.Abs().LessThan(decimal.New(1, 18)) {
			return val.IntPart()
		}

		return json.Number(val.String())
	case []byte:
		return string(val)
	case uuid.UUID:
		return val.String()
	case time.Time:
		return val.Format(time.RFC3339Nano)
	default:
		return v
	}
}

// yamlValue is plainValue with fractional decimals as floats, which YAML
// emits unquoted.
func yamlValue(v any) any {
	if d, ok := v.(decimal.Decimal); ok && !d.IsInteger() {
		return d.InexactFloat64()
	}

	return plainValue(v)
}

// formatValue formats a value as a string
func formatValue(val any) string {
	if val == nil {
		return "NULL"
	}

	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case bool:
		return fmt.Sprintf("%t", v)
	case decimal.Decimal:
		return v.String()
	case time.Time:
		return v.Format(time.RFC3339Nano)
	case map[string]any, []any:
		data, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}

		return string(data)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func displayWidth(s string) int {
	n := 0

	for _, r := range s {
		switch width.LookupRune(r).Kind() {
		case width.EastAsianWide, width.EastAsianFullwidth:
			n += 2
		default:
			n++
		}
	}

	return n
}

func escapeMarkdown(values []string) []string {
	escaped := make([]string, len(values))
	for i, v := range values {
		escaped[i] = strings.ReplaceAll(strings.ReplaceAll(v, "|", `\|`), "\n", " ")
	}

	return escaped
}
