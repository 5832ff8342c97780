package fixture

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"github.com/shibukawa/ctemock/mockcte"
	"github.com/shopspring/decimal"
)

var (
	// ErrInvalidCSVFormat indicates a CSV rows file without a header and data.
	ErrInvalidCSVFormat = errors.New("csv rows file needs a header row and at least one data row")
	// ErrNoDatasetElement indicates a DBUnit XML file without <dataset>.
	ErrNoDatasetElement = errors.New("dbunit xml has no dataset element")
)

// LoadTableRows loads the rows for table from path. YAML and JSON files hold
// a list of mappings, CSV files a header row followed by data rows, and DBUnit
// XML datasets one element per row of which only those named table are used.
func LoadTableRows(path, table string) ([]mockcte.Row, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows file: %w", err)
		}

		return ParseCSVRows(data)
	case ".xml":
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read rows file: %w", err)
		}

		return ParseDBUnitRows(data, table)
	default:
		return LoadRows(path)
	}
}

// ParseCSVRows parses CSV content. Lines starting with # are comments and
// empty cells or NULL become null.
func ParseCSVRows(data []byte) ([]mockcte.Row, error) {
	r := csv.NewReader(strings.NewReader(string(data)))
	r.TrimLeadingSpace = true
	r.Comment = '#'

	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv rows: %w", err)
	}

	if len(records) < 2 {
		return nil, ErrInvalidCSVFormat
	}

	headers := records[0]
	rows := make([]mockcte.Row, 0, len(records)-1)

	for _, record := range records[1:] {
		if isEmptyRecord(record) {
			continue
		}

		row := make(mockcte.Row, 0, len(headers))

		for j, value := range record {
			if j >= len(headers) {
				break
			}

			header := strings.TrimSpace(headers[j])
			if header == "" {
				continue
			}

			row = append(row, mockcte.Col(header, parseCell(value)))
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// ParseDBUnitRows parses a DBUnit flat XML dataset and returns the rows of
// the elements named table, with attributes in document order.
func ParseDBUnitRows(data []byte, table string) ([]mockcte.Row, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("failed to parse dbunit xml: %w", err)
	}

	dataset := doc.SelectElement("dataset")
	if dataset == nil {
		return nil, ErrNoDatasetElement
	}

	var rows []mockcte.Row

	for _, elem := range dataset.ChildElements() {
		if !strings.EqualFold(elem.Tag, table) {
			continue
		}

		row := make(mockcte.Row, 0, len(elem.Attr))
		for _, attr := range elem.Attr {
			row = append(row, mockcte.Col(attr.Key, parseCell(attr.Value)))
		}

		rows = append(rows, row)
	}

	return rows, nil
}

// parseCell converts a textual cell into a typed value. Fractional numbers
// become decimals so they keep their exact digits.
func parseCell(value string) any {
	value = strings.TrimSpace(value)

	switch strings.ToLower(value) {
	case "", "null":
		return nil
	case "true":
		return true
	case "false":
		return false
	}

	if i, err := strconv.ParseInt(value, 10, 64); err == nil {
		return i
	}

	if d, err := decimal.NewFromString(value); err == nil && strings.ContainsAny(value, ".eE") {
		return d
	}

	if len(value) >= 2 && (value[0] == '"' && value[len(value)-1] == '"' || value[0] == '\'' && value[len(value)-1] == '\'') {
		return value[1 : len(value)-1]
	}

	return value
}

// isEmptyRecord checks if a CSV row is empty or contains only whitespace
func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}

	return true
}
