package cli

import (
	"fmt"
	"io"

	"github.com/javelinws/javelin/internal/jvm"
)

// printTable outputs data in a human-readable table format
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}

	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	// Print header
	for i, header := range headers {
		fmt.Fprintf(w, "%-*s  ", widths[i], header)
	}
	fmt.Fprintln(w)

	// Print separator
	for i := range headers {
		for j := 0; j < widths[i]; j++ {
			fmt.Fprint(w, "-")
		}
		fmt.Fprint(w, "  ")
	}
	fmt.Fprintln(w)

	// Print rows
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprintf(w, "%-*s  ", widths[i], cell)
			}
		}
		fmt.Fprintln(w)
	}
}

// runtimeRows renders catalog entries as table rows.
func runtimeRows(runtimes []jvm.LocalRuntime) [][]string {
	rows := make([][]string, 0, len(runtimes))
	for _, rt := range runtimes {
		managed := "no"
		if rt.Managed {
			managed = "yes"
		}
		active := "no"
		if rt.Active {
			active = "yes"
		}
		rows = append(rows, []string{
			rt.Vendor,
			rt.Version.String(),
			string(rt.OS),
			managed,
			active,
			rt.JavaHome,
		})
	}
	return rows
}

var runtimeHeaders = []string{"VENDOR", "VERSION", "OS", "MANAGED", "ACTIVE", "JAVA_HOME"}
