// Package dump renders columnar, human-readable listings (component
// P's rendering half): a thin wrapper over go-pretty's table writer
// that the pybc package's Dump functions call with already-resolved
// string columns, kept free of any pybc dependency to avoid an import
// cycle with the package whose values it prints.
package dump

import (
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
)

// RenderTable writes one row per entry in rows, aligned under header,
// to w. Analogous to dis.dis()'s column-aligned listing, generalized
// to whatever caller-supplied columns a component wants to show.
func RenderTable(w io.Writer, title string, header []string, rows [][]string) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	if title != "" {
		t.SetTitle(title)
	}
	headerRow := make(table.Row, len(header))
	for i, h := range header {
		headerRow[i] = h
	}
	t.AppendHeader(headerRow)
	for _, r := range rows {
		row := make(table.Row, len(r))
		for i, c := range r {
			row[i] = c
		}
		t.AppendRow(row)
	}
	t.Render()
}
