package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// detailWidthMax caps the trailing column, where ledger details and tool
// descriptions can run long, so the table stays within a typical terminal.
const detailWidthMax = 56

// renderTable lays out full-width string rows under headers in the rounded
// style shared by status, deps, and config show. The last column wraps at
// detailWidthMax instead of stretching the table.
func renderTable(headers []string, rows [][]string) string {
	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.SetColumnConfigs([]table.ColumnConfig{{
		Number:           len(headers),
		WidthMax:         detailWidthMax,
		WidthMaxEnforcer: text.WrapSoft,
	}})

	header := make(table.Row, 0, len(headers))
	for _, name := range headers {
		header = append(header, name)
	}
	tw.AppendHeader(header)

	for _, row := range rows {
		cells := make(table.Row, 0, len(row))
		for _, cell := range row {
			cells = append(cells, cell)
		}
		tw.AppendRow(cells)
	}
	return tw.Render()
}
