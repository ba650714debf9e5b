package export

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// Dataset defines tabular export content.
type Dataset struct {
	Headers []string
	Rows    []map[string]string
}

// CSVExporter renders Dataset records into CSV bytes.
type CSVExporter struct{}

// NewCSVExporter builds a CSV exporter.
func NewCSVExporter() *CSVExporter {
	return &CSVExporter{}
}

// Render produces CSV encoded bytes for the dataset.
func (e *CSVExporter) Render(data Dataset) ([]byte, error) {
	if len(data.Headers) == 0 {
		return nil, fmt.Errorf("csv requires at least one header")
	}
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)
	if err := writer.Write(data.Headers); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, row := range data.Rows {
		record := make([]string, len(data.Headers))
		for i, header := range data.Headers {
			record[i] = neutralizeFormula(row[header])
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// Spreadsheet tools evaluate cells starting with these characters.
func neutralizeFormula(value string) string {
	if value == "" {
		return value
	}
	switch value[0] {
	case '=', '+', '-', '@':
		return "'" + value
	}
	return value
}

// Record is one data row keyed by canonical column name. Line is 1-based and
// counts the header, so the first data row is line 2.
type Record struct {
	Line   int
	Values map[string]string
}

// Get returns the trimmed value of column.
func (r Record) Get(column string) string {
	return strings.TrimSpace(r.Values[column])
}

// CSVReader parses header-mapped CSV input. Header cells are folded
// (case, spaces, underscores, dashes) and resolved through Aliases; unknown
// headers keep their folded name.
type CSVReader struct {
	Aliases map[string]string
}

// NewCSVReader builds a reader with the given alias table.
func NewCSVReader(aliases map[string]string) *CSVReader {
	folded := make(map[string]string, len(aliases))
	for alias, canonical := range aliases {
		folded[FoldHeader(alias)] = canonical
	}
	return &CSVReader{Aliases: folded}
}

// Read consumes r entirely. Rows whose cells are all blank are skipped.
func (c *CSVReader) Read(r io.Reader) ([]string, []Record, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil, fmt.Errorf("csv is empty")
		}
		return nil, nil, fmt.Errorf("read csv header: %w", err)
	}
	columns := make([]string, len(header))
	for i, cell := range header {
		if i == 0 {
			cell = strings.TrimPrefix(cell, "\ufeff")
		}
		key := FoldHeader(cell)
		if canonical, ok := c.Aliases[key]; ok {
			key = canonical
		}
		columns[i] = key
	}

	var records []Record
	line := 1
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, nil, fmt.Errorf("read csv line %d: %w", line, err)
		}
		values := make(map[string]string, len(columns))
		blank := true
		for i, cell := range row {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			if strings.TrimSpace(cell) != "" {
				blank = false
			}
			if _, seen := values[columns[i]]; seen && strings.TrimSpace(cell) == "" {
				continue
			}
			values[columns[i]] = cell
		}
		if blank {
			continue
		}
		records = append(records, Record{Line: line, Values: values})
	}
	return columns, records, nil
}

// FoldHeader lowercases and strips separators so "Student Name",
// "student_name" and "STUDENT-NAME" compare equal.
func FoldHeader(raw string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(raw)) {
		switch r {
		case ' ', '_', '-', '.', '\t':
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
