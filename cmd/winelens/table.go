package main

import (
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

type column struct {
	title string
	right bool
}

var (
	wineColumns = []column{
		{title: "#", right: true},
		{title: "Wine"},
		{title: "Tier"},
		{title: "Conf", right: true},
		{title: "List price", right: true},
		{title: "Window"},
	}
	recordColumns = []column{
		{title: "ID"},
		{title: "Wine"},
		{title: "Vintage", right: true},
		{title: "Region"},
		{title: "Color"},
		{title: "Score", right: true},
	}
	historyColumns = []column{
		{title: "Session"},
		{title: "Started"},
		{title: "Ended"},
		{title: "Location"},
		{title: "Wines", right: true},
	}
)

// renderTable draws rows under columns. A non-empty footer is placed under
// the last row, left to right; missing cells stay blank.
func renderTable(columns []column, rows [][]string, footer ...string) string {
	if len(columns) == 0 {
		return ""
	}

	tw := table.NewWriter()
	tw.SetStyle(table.StyleRounded)
	tw.AppendHeader(toRow(columns, func(i int) string { return columns[i].title }))
	for _, row := range rows {
		tw.AppendRow(toRow(columns, func(i int) string { return cell(row, i) }))
	}
	if len(footer) > 0 {
		tw.AppendFooter(toRow(columns, func(i int) string { return cell(footer, i) }))
	}

	configs := make([]table.ColumnConfig, 0, len(columns))
	for i, col := range columns {
		align := text.AlignLeft
		if col.right {
			align = text.AlignRight
		}
		configs = append(configs, table.ColumnConfig{
			Number:           i + 1,
			Align:            align,
			AlignFooter:      align,
			AlignHeader:      text.AlignLeft,
			WidthMax:         48,
			WidthMaxEnforcer: text.WrapSoft,
		})
	}
	tw.SetColumnConfigs(configs)
	return tw.Render()
}

func toRow(columns []column, value func(int) string) table.Row {
	row := make(table.Row, len(columns))
	for i := range columns {
		row[i] = value(i)
	}
	return row
}

func cell(values []string, i int) string {
	if i < len(values) {
		return values[i]
	}
	return ""
}
