package ui

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/fatih/color"
)

// Table renders rows under a colored header with aligned columns
type Table struct {
	writer  io.Writer
	headers []string
	rows    [][]string
	noColor bool
}

// NewTable creates a new table with the given headers
func NewTable(w io.Writer, headers []string, noColor bool) *Table {
	return &Table{
		writer:  w,
		headers: headers,
		noColor: noColor,
	}
}

// AddRow adds a row. Cells past the header count are dropped.
func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

// Len returns the number of rows added
func (t *Table) Len() int {
	return len(t.rows)
}

// Render renders the table to the writer
func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, header := range t.headers {
		widths[i] = utf8.RuneCountInString(header)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) && utf8.RuneCountInString(cell) > widths[i] {
				widths[i] = utf8.RuneCountInString(cell)
			}
		}
	}

	bold := paint(t.noColor, color.Bold, color.FgCyan)
	t.renderLine(widths, t.headers, func(s string) string { return bold.Sprint(s) })

	gray := paint(t.noColor, color.FgHiBlack)
	separators := make([]string, len(widths))
	for i, width := range widths {
		separators[i] = strings.Repeat("─", width)
	}
	t.renderLine(widths, separators, func(s string) string { return gray.Sprint(s) })

	for _, row := range t.rows {
		t.renderLine(widths, row, nil)
	}
}

func (t *Table) renderLine(widths []int, cells []string, style func(string) string) {
	n := len(cells)
	if n > len(widths) {
		n = len(widths)
	}
	for i := 0; i < n; i++ {
		cell := cells[i]
		if i < n-1 {
			cell = padRight(cell, widths[i])
		}
		if style != nil {
			cell = style(cell)
		}
		fmt.Fprint(t.writer, cell)
		if i < n-1 {
			fmt.Fprint(t.writer, "  ")
		}
	}
	fmt.Fprintln(t.writer)
}

// padRight pads a string with spaces on the right to reach the target width
func padRight(s string, width int) string {
	n := utf8.RuneCountInString(s)
	if n >= width {
		return s
	}
	return s + strings.Repeat(" ", width-n)
}
