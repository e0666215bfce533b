package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/trackjobs/trackjobs/app/store"
	"github.com/trackjobs/trackjobs/app/table"
)

// renderTable writes jobs in aligned columns. The directory column is wide
// and noisy, so it is shown only on request.
func renderTable(w io.Writer, t *table.Table, withDir bool) {
	cols := make([]table.Column, 0, len(table.Columns()))
	for _, col := range table.Columns() {
		if col == table.ColDirectory && !withDir {
			continue
		}
		cols = append(cols, col)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	names := make([]string, len(cols))
	for i, col := range cols {
		names[i] = col.Name()
	}
	fmt.Fprintln(tw, strings.Join(names, "\t"))

	for _, j := range t.Jobs() {
		cells := make([]string, len(cols))
		for i, col := range cols {
			cells[i] = j.Cell(col)
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	tw.Flush()
}

// renderPasses writes recent reconcile passes, newest first.
func renderPasses(w io.Writer, passes []store.Pass) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Started\tDuration\tLines\tMatched\tAssumed\tError")
	for _, p := range passes {
		dur := p.Finished().Sub(p.Started()).Round(time.Millisecond)
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\n",
			p.Started().Format("2006-01-02 15:04:05"), dur, p.Lines, p.Matched, p.Assumed, p.Error)
	}
	tw.Flush()
}
