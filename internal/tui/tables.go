// internal/tui/tables.go
package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	bbtable "github.com/evertras/bubble-table/table"

	"github.com/dbdeck/dbdeck/internal/db"
	"github.com/dbdeck/dbdeck/internal/value"
)

// Cap cell width so one wide text column cannot push the rest off screen.
const maxCellWidth = 40

// newTable creates a bubble-table themed from the active palette.
func newTable(cols []bbtable.Column) bbtable.Model {
	return bbtable.New(cols).
		WithBaseStyle(lipgloss.NewStyle().
			Foreground(TextPrimary())).
		HeaderStyle(lipgloss.NewStyle().
			Foreground(AccentColor()).
			Bold(true)).
		HighlightStyle(lipgloss.NewStyle().
			Foreground(SuccessColor()).
			Bold(true)).
		Focused(true).
		BorderRounded()
}

// ValueStyle returns a style keyed on the decoded kind, so nulls, numbers
// and timestamps read apart at a glance.
func ValueStyle(v value.Value) lipgloss.Style {
	switch v.Kind {
	case value.KindNull:
		return lipgloss.NewStyle().Foreground(TextFaint()).Italic(true)
	case value.KindInt, value.KindFloat, value.KindDecimal:
		return lipgloss.NewStyle().Foreground(TextSecondary())
	case value.KindBool:
		return lipgloss.NewStyle().Foreground(WarningColor())
	case value.KindTimestamp, value.KindTimestampTz:
		return lipgloss.NewStyle().Foreground(SuccessColor())
	case value.KindUUID:
		return lipgloss.NewStyle().Foreground(HighlightColor())
	case value.KindJSON, value.KindArray:
		return lipgloss.NewStyle().Foreground(AccentColor())
	case value.KindBytes, value.KindUnparsed:
		return lipgloss.NewStyle().Foreground(TextFaint())
	default:
		return lipgloss.NewStyle().Foreground(TextPrimary())
	}
}

// rowTable builds a table from decoded rows. Columns are keyed by index,
// not name, because a query may select the same column name twice.
func rowTable(columns []db.Column, rows [][]value.Value, pageSize int, footer string) bbtable.Model {
	if len(columns) == 0 {
		return bbtable.New(nil)
	}

	headers := make([]string, len(columns))
	for i, c := range columns {
		headers[i] = c.Name
	}
	display := make([][]string, len(rows))
	for i, r := range rows {
		display[i] = make([]string, len(r))
		for j, v := range r {
			display[i][j] = v.Display()
		}
	}

	widths := calculateColumnWidths(headers, display)
	cols := make([]bbtable.Column, len(columns))
	for i, c := range columns {
		w := widths[c.Name]
		if w > maxCellWidth {
			w = maxCellWidth
		}
		cols[i] = bbtable.NewColumn(colKey(i), c.Name, w)
	}

	tableRows := make([]bbtable.Row, len(rows))
	for i, r := range rows {
		rowData := bbtable.RowData{}
		for j := range r {
			if j < len(columns) {
				rowData[colKey(j)] = bbtable.NewStyledCell(display[i][j], ValueStyle(r[j]))
			}
		}
		tableRows[i] = bbtable.NewRow(rowData)
	}

	t := newTable(cols).WithRows(tableRows)
	if pageSize > 0 {
		t = t.WithPageSize(pageSize)
	} else {
		t = t.WithNoPagination()
	}
	if footer != "" {
		t = t.WithStaticFooter(footer)
	}
	return t
}

// columnTable builds a table for table column metadata.
func columnTable(columns []db.Column) bbtable.Model {
	headers := []string{"Name", "Type", "Null", "Default"}
	rowsData := make([][]string, len(columns))
	for i, c := range columns {
		nullStr := "YES"
		if !c.Nullable {
			nullStr = "NO"
		}
		rowsData[i] = []string{c.Name, c.Type, nullStr, c.Default}
	}

	widths := calculateColumnWidths(headers, rowsData)
	cols := make([]bbtable.Column, 0, len(headers))
	for _, h := range headers {
		w := widths[h]
		if w > maxCellWidth {
			w = maxCellWidth
		}
		cols = append(cols, bbtable.NewColumn(h, h, w))
	}

	rows := make([]bbtable.Row, len(rowsData))
	for i, rd := range rowsData {
		rows[i] = bbtable.NewRow(bbtable.RowData{
			"Name": rd[0],
			"Type": bbtable.NewStyledCell(rd[1], lipgloss.NewStyle().
				Foreground(WarningColor())),
			"Null":    rd[2],
			"Default": bbtable.NewStyledCell(rd[3], MetaStyle),
		})
	}

	return newTable(cols).WithRows(rows)
}

func colKey(i int) string {
	return fmt.Sprintf("c%d", i)
}

func calculateColumnWidths(headers []string, rows [][]string) map[string]int {
	widths := make(map[string]int)
	for _, h := range headers {
		widths[h] = len(h)
	}

	for _, row := range rows {
		for i, val := range row {
			if i < len(headers) {
				if len(val) > widths[headers[i]] {
					widths[headers[i]] = len(val)
				}
			}
		}
	}

	// Add padding
	for h := range widths {
		widths[h] += 2
	}

	return widths
}
