package lg

import "strings"

// ProtocolRow is one line of "show protocols" output.
type ProtocolRow struct {
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Table    string `json:"table"`
	State    string `json:"state"`
	Since    string `json:"since"`
	Info     string `json:"info"`
}

// ParseProtocols converts "show protocols" output into rows, in input order.
//
// Blank lines and the header (any line starting with "Name") are skipped.
// The first five whitespace-separated fields map to name, protocol, table,
// state and since; everything after them is joined with single spaces into
// Info. Short lines yield empty fields rather than an error.
func ParseProtocols(raw string) []ProtocolRow {
	var rows []ProtocolRow
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSuffix(line, "\r")
		if strings.TrimSpace(line) == "" || strings.HasPrefix(line, "Name") {
			continue
		}
		fields := strings.Fields(line)
		var col [5]string
		copy(col[:], fields)
		row := ProtocolRow{
			Name:     col[0],
			Protocol: col[1],
			Table:    col[2],
			State:    col[3],
			Since:    col[4],
		}
		if len(fields) > 5 {
			row.Info = strings.Join(fields[5:], " ")
		}
		rows = append(rows, row)
	}
	return rows
}
