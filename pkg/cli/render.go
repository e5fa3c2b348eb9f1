package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/psaab/birdlg/pkg/lg"
)

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	upStyle     = cellStyle.Foreground(lipgloss.Color("10"))
	downStyle   = cellStyle.Foreground(lipgloss.Color("11"))
)

var protocolHeaders = []string{"Name", "Protocol", "Table", "State", "Since", "Info"}

const stateColumn = 3

// renderProtocols writes rows as a table in the order given.
func renderProtocols(w io.Writer, rows []lg.ProtocolRow, width int) {
	if len(rows) == 0 {
		fmt.Fprintln(w, "No data")
		return
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers(protocolHeaders...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == stateColumn && row >= 0 && row < len(rows) {
				if strings.EqualFold(rows[row].State, "up") {
					return upStyle
				}
				return downStyle
			}
			return cellStyle
		})
	for _, r := range rows {
		t.Row(r.Name, r.Protocol, r.Table, r.State, r.Since, r.Info)
	}
	if width > 0 {
		t.Width(width)
	}

	fmt.Fprintln(w, t.Render())
	fmt.Fprintf(w, "Showing 1 to %d of %d entries\n", len(rows), len(rows))
}
