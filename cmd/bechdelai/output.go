package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/dataforgoodfr/bechdelai/internal/fileutil"
	"github.com/dataforgoodfr/bechdelai/internal/report"
)

const (
	ansiBold  = "\033[1m"
	ansiReset = "\033[0m"
)

// emit prints v as JSON when --json is set, otherwise as a table.
func (c *commandContext) emit(cmd *cobra.Command, v any, headers []string, rows [][]string, aligns []columnAlignment) error {
	if c.jsonOutput() {
		return writeJSON(cmd, v)
	}
	out := cmd.OutOrStdout()
	if len(rows) == 0 {
		fmt.Fprintln(out, "No results")
		return nil
	}
	fmt.Fprintln(out, renderTable(headers, rows, aligns))
	return nil
}

func heading(out io.Writer, title string) {
	if shouldColorize(out) {
		title = ansiBold + title + ansiReset
	}
	fmt.Fprintln(out, title)
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// writeTable exports t to path, picking the format from the extension.
func writeTable(path string, t report.Table, sep rune) error {
	format, err := report.FormatForPath(path)
	if err != nil {
		return err
	}
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		return t.Write(w, format, report.Options{Separator: sep})
	})
}

// writeJSONFile writes v as indented JSON to path.
func writeJSONFile(path string, v any) error {
	return fileutil.WriteAtomic(path, 0o644, func(w io.Writer) error {
		enc := jsonEncoder(w)
		return enc.Encode(v)
	})
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 2, 64)
}

func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

func itoa(v int) string { return strconv.Itoa(v) }
