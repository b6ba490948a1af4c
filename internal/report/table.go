package report

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
	"gopkg.in/yaml.v3"

	"github.com/dataforgoodfr/bechdelai/internal/services"
)

// Format is an output encoding for tables.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatXLSX Format = "xlsx"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(value string) (Format, error) {
	switch strings.TrimPrefix(strings.ToLower(strings.TrimSpace(value)), ".") {
	case "csv", "tsv":
		return FormatCSV, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	default:
		return "", services.Wrap(services.ErrValidation, "report", "format", fmt.Sprintf("unsupported format %q", value), nil)
	}
}

// FormatForPath infers the format from a file extension.
func FormatForPath(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Table is a rectangular result set.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

// Records returns each row as a header-keyed map. Missing cells are empty.
func (t Table) Records() []map[string]string {
	out := make([]map[string]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		rec := make(map[string]string, len(t.Headers))
		for i, h := range t.Headers {
			if i < len(row) {
				rec[h] = row[i]
			} else {
				rec[h] = ""
			}
		}
		out = append(out, rec)
	}
	return out
}

// Writer options.
type Options struct {
	// Separator is the CSV field separator, ',' when zero.
	Separator rune
}

// Write encodes t to w.
func (t Table) Write(w io.Writer, format Format, opts Options) error {
	switch format {
	case FormatCSV:
		return t.writeCSV(w, opts.Separator)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(t.Records())
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(t.Records()); err != nil {
			return err
		}
		return enc.Close()
	case FormatXLSX:
		return t.writeXLSX(w)
	default:
		return services.Wrap(services.ErrValidation, "report", "write", fmt.Sprintf("unsupported format %q", format), nil)
	}
}

func (t Table) writeCSV(w io.Writer, sep rune) error {
	cw := csv.NewWriter(w)
	if sep != 0 {
		cw.Comma = sep
	}
	if err := cw.Write(t.Headers); err != nil {
		return err
	}
	if err := cw.WriteAll(t.Rows); err != nil {
		return err
	}
	return cw.Error()
}

func (t Table) sheetName() string {
	name := strings.TrimSpace(t.Name)
	if name == "" {
		return "Sheet1"
	}
	if len(name) > 31 {
		name = name[:31]
	}
	return name
}

func (t Table) writeXLSX(w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()
	sheet := t.sheetName()
	if sheet != "Sheet1" {
		f.SetSheetName("Sheet1", sheet)
	}
	rows := append([][]string{t.Headers}, t.Rows...)
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]any, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("xlsx row %d: %w", i+1, err)
		}
	}
	return f.Write(w)
}
