// Package store persists the job table and the reconcile history. The table
// lives in a CSV file with a header row and follows a strict snapshot-in,
// snapshot-out contract: load the whole table once, write the whole table
// back once. No incremental writes, the reconcile atomicity guarantee depends
// on it.
package store

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/go-pkgz/lgr"

	"github.com/trackjobs/trackjobs/app/table"
)

// CSV loads and saves the job table as a CSV snapshot.
type CSV struct {
	Path string
}

// Load reads the whole table. A missing file yields an empty table, any other
// problem (bad header, malformed row) is an error.
func (s *CSV) Load() (table.Table, error) {
	f, err := os.Open(s.Path)
	if os.IsNotExist(err) {
		log.Printf("[DEBUG] no table file at %s, starting empty", s.Path)
		return table.Table{}, nil
	}
	if err != nil {
		return table.Table{}, fmt.Errorf("can't open table file %s: %w", s.Path, err)
	}
	defer f.Close() //nolint:gosec // read-only file

	rd := csv.NewReader(f)
	records, err := rd.ReadAll()
	if err != nil {
		return table.Table{}, fmt.Errorf("can't read table file %s: %w", s.Path, err)
	}
	if len(records) == 0 {
		return table.Table{}, nil
	}

	header := table.Header()
	if len(records[0]) != len(header) {
		return table.Table{}, fmt.Errorf("table file %s: got %d columns, want %d", s.Path, len(records[0]), len(header))
	}
	for i, name := range header {
		if records[0][i] != name {
			return table.Table{}, fmt.Errorf("table file %s: column %d is %q, want %q", s.Path, i, records[0][i], name)
		}
	}

	jobs := make([]table.Job, 0, len(records)-1)
	for n, rec := range records[1:] {
		j, err := rowToJob(rec)
		if err != nil {
			return table.Table{}, fmt.Errorf("table file %s row %d: %w", s.Path, n+1, err)
		}
		jobs = append(jobs, j)
	}
	return table.FromJobs(jobs)
}

// Save overwrites the table file with the full table including header.
func (s *CSV) Save(t *table.Table) error {
	if err := os.MkdirAll(filepath.Dir(s.Path), 0o700); err != nil {
		return fmt.Errorf("can't make table file location: %w", err)
	}

	f, err := os.Create(s.Path)
	if err != nil {
		return fmt.Errorf("can't create table file %s: %w", s.Path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(table.Header()); err != nil {
		_ = f.Close()
		return fmt.Errorf("can't write table header: %w", err)
	}
	for _, j := range t.Jobs() {
		if err := w.Write(jobToRow(j)); err != nil {
			_ = f.Close()
			return fmt.Errorf("can't write job %d: %w", j.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		_ = f.Close()
		return fmt.Errorf("can't flush table file %s: %w", s.Path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("can't close table file %s: %w", s.Path, err)
	}
	log.Printf("[DEBUG] saved %d jobs to %s", t.Len(), s.Path)
	return nil
}

func rowToJob(rec []string) (table.Job, error) {
	cols := table.Columns()
	if len(rec) != len(cols) {
		return table.Job{}, fmt.Errorf("got %d cells, want %d", len(rec), len(cols))
	}
	var j table.Job
	for i, col := range cols {
		v, err := table.Convert(rec[i], col.Kind())
		if err != nil {
			return table.Job{}, err
		}
		switch col {
		case table.ColID:
			j.ID = int(v.Int)
		case table.ColName:
			j.Name = v.Text
		case table.ColJobScript:
			j.JobScript = v.Text
		case table.ColStatus:
			j.Status = v.Text
		case table.ColChecked:
			j.Checked = v.Bool
		case table.ColComments:
			j.Comments = v.Text
		case table.ColDirectory:
			j.Directory = v.Text
		case table.ColDate:
			j.Date = v.Text
		}
	}
	return j, nil
}

func jobToRow(j table.Job) []string {
	cols := table.Columns()
	rec := make([]string, len(cols))
	for i, col := range cols {
		rec[i] = j.Cell(col)
	}
	return rec
}
