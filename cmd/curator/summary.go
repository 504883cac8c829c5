package main

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/mattn/go-isatty"

	"curator/internal/runner"
)

func renderSummary(out io.Writer, summary *runner.Summary) {
	colorize := shouldColorize(out)

	for _, warning := range summary.Warnings {
		line := fmt.Sprintf("duplicate collection %q in %s ignored; %s wins",
			warning.Collection, warning.File, warning.FirstFile)
		fmt.Fprintln(out, statusLine("WARN", line, colorize))
	}

	for _, path := range summary.Dumps {
		fmt.Fprintln(out, statusLine("DUMP", path, colorize))
	}

	if len(summary.Results) > 0 {
		rows := make([][]string, 0, len(summary.Results))
		for _, result := range summary.Results {
			status := "in sync"
			switch {
			case result.Err != nil:
				status = "error: " + result.Err.Error()
			case result.Failed():
				status = "incomplete"
			case result.Created:
				status = "created"
			case result.Changed():
				status = "updated"
			}
			rows = append(rows, []string{
				result.Library,
				result.Collection,
				strconv.Itoa(result.Added),
				strconv.Itoa(result.Removed),
				strconv.Itoa(result.Moved),
				strconv.Itoa(len(result.Unresolved)),
				status,
			})
		}
		headers := []string{"Library", "Collection", "Added", "Removed", "Moved", "Unresolved", "Status"}
		fmt.Fprintln(out, renderTable(headers, rows, 3, 4, 5, 6))
	}

	for _, result := range summary.Results {
		for _, failure := range result.Unresolved {
			line := fmt.Sprintf("%s / %s: %v", result.Library, result.Collection, failure.Err)
			fmt.Fprintln(out, statusLine("WARN", line, colorize))
		}
	}
	for _, err := range summary.Errors {
		fmt.Fprintln(out, statusLine("ERROR", err.Error(), colorize))
	}
}

// renderTable renders rows already shaped to the header width. numericColumns
// are 1-based indexes of count columns, right-aligned for scanning.
func renderTable(headers []string, rows [][]string, numericColumns ...int) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)

	header := make(table.Row, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		r := make(table.Row, len(row))
		for i, cell := range row {
			r[i] = cell
		}
		tw.AppendRow(r)
	}

	configs := make([]table.ColumnConfig, 0, len(numericColumns))
	for _, column := range numericColumns {
		configs = append(configs, table.ColumnConfig{
			Number:      column,
			Align:       text.AlignRight,
			AlignHeader: text.AlignLeft,
		})
	}
	tw.SetColumnConfigs(configs)

	return tw.Render()
}

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiYellow = "\x1b[33m"
)

func statusLine(label, message string, colorize bool) string {
	line := fmt.Sprintf("[%s] %s", label, message)
	if !colorize {
		return line
	}
	switch label {
	case "ERROR":
		return ansiRed + line + ansiReset
	case "WARN":
		return ansiYellow + line + ansiReset
	}
	return line
}

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
