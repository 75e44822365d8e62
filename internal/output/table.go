package output

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Table writes a tab-aligned table.
func Table(out io.Writer, headers []string, rows [][]string) error {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	if len(headers) > 0 {
		fmt.Fprintln(w, strings.Join(headers, "\t"))
	}
	for _, row := range rows {
		fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	return w.Flush()
}
