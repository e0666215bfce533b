package table

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	log "github.com/go-pkgz/lgr"
)

// Job is one tracked batch job, a single row of the table.
type Job struct {
	ID        int
	Name      string
	JobScript string
	Status    string // empty means not reported yet
	Checked   bool   // true once a terminal status was confirmed
	Comments  string // free text, append-only
	Directory string
	Date      string // ISO date of record creation, immutable
}

// Table is an ordered collection of jobs keyed by unique id. Insertion order
// is preserved for display only. The zero value is an empty, usable table.
type Table struct {
	jobs []Job
}

// FromJobs builds a table from already-formed records, enforcing id
// uniqueness.
func FromJobs(jobs []Job) (Table, error) {
	var t Table
	for _, j := range jobs {
		if t.Exists(j.ID) {
			return Table{}, fmt.Errorf("job with id %d appears twice: %w", j.ID, ErrDuplicateID)
		}
		t.jobs = append(t.jobs, j)
	}
	return t, nil
}

// Exists reports whether a job with the given id is present.
func (t *Table) Exists(id int) bool { return t.find(id) != nil }

// Len returns the number of records.
func (t *Table) Len() int { return len(t.jobs) }

// Jobs returns a copy of all records in insertion order.
func (t *Table) Jobs() []Job {
	res := make([]Job, len(t.jobs))
	copy(res, t.jobs)
	return res
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() Table {
	res, _ := FromJobs(t.Jobs()) // ids are unique already
	return res
}

// Add creates a new record with empty status and comments, checked unset and
// the creation date set to today. Fails if the id is already taken.
func (t *Table) Add(id int, name, directory, jobScript string) (Job, error) {
	if t.Exists(id) {
		return Job{}, fmt.Errorf("job with id %d already in table: %w", id, ErrDuplicateID)
	}
	j := Job{
		ID:        id,
		Name:      name,
		JobScript: jobScript,
		Directory: directory,
		Date:      time.Now().Format("2006-01-02"),
	}
	t.jobs = append(t.jobs, j)
	return j, nil
}

// Delete removes the record with the given id. Deleting an absent id is a
// no-op.
func (t *Table) Delete(id int) {
	for i, j := range t.jobs {
		if j.ID == id {
			t.jobs = append(t.jobs[:i], t.jobs[i+1:]...)
			return
		}
	}
}

// Directory returns the job's working directory. For an unknown id it warns
// and falls back to the current working directory, it never fails. This is a
// read-only convenience, the caller most likely wants to cd somewhere.
func (t *Table) Directory(id int) string {
	if j := t.find(id); j != nil {
		return j.Directory
	}
	log.Printf("[WARN] no job with id %d in table, returning current directory", id)
	wd, err := os.Getwd()
	if err != nil {
		log.Printf("[WARN] can't get working directory, %v", err)
		return "."
	}
	return wd
}

// SetStatus sets the job's status unconditionally. A non-empty comment is
// appended to existing comments by literal concatenation, no separator.
// checked=true marks the job checked; checked=false never clears the flag.
func (t *Table) SetStatus(id int, status, comment string, checked bool) error {
	j := t.find(id)
	if j == nil {
		return fmt.Errorf("can't set status for job %d: %w", id, ErrNotFound)
	}
	j.Status = status
	if comment != "" {
		j.Comments += comment
	}
	if checked {
		j.Checked = true
	}
	return nil
}

// SetField assigns a single cell of the record. With convert=true the raw
// value is coerced to the column's declared kind first; with convert=false a
// text column gets the raw string verbatim (typed columns always parse).
// Reassigning the id to one used by a different record is rejected.
func (t *Table) SetField(id int, col Column, raw string, convert bool) (Job, error) {
	j := t.find(id)
	if j == nil {
		return Job{}, fmt.Errorf("can't update job %d: %w", id, ErrNotFound)
	}

	var v Value
	if convert || col.Kind() != KindText {
		var err error
		if v, err = Convert(raw, col.Kind()); err != nil {
			return Job{}, err
		}
	} else {
		v = Value{Kind: KindText, Text: raw}
	}

	if col == ColID {
		if newID := int(v.Int); newID != id && t.Exists(newID) {
			return Job{}, fmt.Errorf("can't update id: job with id %d already in table: %w", newID, ErrDuplicateID)
		}
	}

	j.setCell(col, v)
	return *j, nil
}

// Filter returns a new table with matching rows only; the receiver is
// untouched. Bool and int columns match by equality, text columns by
// substring containment.
func (t *Table) Filter(col Column, raw string) (Table, error) {
	v, err := Convert(raw, col.Kind())
	if err != nil {
		return Table{}, err
	}

	var res Table
	for _, j := range t.jobs {
		c := j.cell(col)
		var match bool
		switch col.Kind() {
		case KindInt:
			match = c.Int == v.Int
		case KindBool:
			match = c.Bool == v.Bool
		default:
			match = strings.Contains(c.Text, v.Text)
		}
		if match {
			res.jobs = append(res.jobs, j)
		}
	}
	return res, nil
}

// Sort returns a new table ordered by the column's typed value, ascending by
// default. Equal rows keep their relative order.
func (t *Table) Sort(col Column, descending bool) Table {
	res := t.Clone()
	sort.SliceStable(res.jobs, func(a, b int) bool {
		va, vb := res.jobs[a].cell(col), res.jobs[b].cell(col)
		if descending {
			va, vb = vb, va
		}
		return cellLess(va, vb)
	})
	return res
}

// Select returns a view with only the records matching the given ids,
// preserving table order.
func (t *Table) Select(ids ...int) Table {
	want := make(map[int]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	var res Table
	for _, j := range t.jobs {
		if want[j.ID] {
			res.jobs = append(res.jobs, j)
		}
	}
	return res
}

// Unchecked returns a view with the records not yet checked.
func (t *Table) Unchecked() Table {
	var res Table
	for _, j := range t.jobs {
		if !j.Checked {
			res.jobs = append(res.jobs, j)
		}
	}
	return res
}

// UncheckedIDs lists the ids of all unchecked records in table order.
func (t *Table) UncheckedIDs() []int {
	var res []int
	for _, j := range t.jobs {
		if !j.Checked {
			res = append(res, j.ID)
		}
	}
	return res
}

// Cell returns the string form of a record's cell, as stored in the table
// file.
func (j Job) Cell(col Column) string {
	v := j.cell(col)
	switch v.Kind {
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindBool:
		return strconv.FormatBool(v.Bool)
	default:
		return v.Text
	}
}

func (t *Table) find(id int) *Job {
	for i := range t.jobs {
		if t.jobs[i].ID == id {
			return &t.jobs[i]
		}
	}
	return nil
}

func (j Job) cell(col Column) Value {
	switch col {
	case ColID:
		return Value{Kind: KindInt, Int: int64(j.ID)}
	case ColName:
		return Value{Kind: KindText, Text: j.Name}
	case ColJobScript:
		return Value{Kind: KindText, Text: j.JobScript}
	case ColStatus:
		return Value{Kind: KindText, Text: j.Status}
	case ColChecked:
		return Value{Kind: KindBool, Bool: j.Checked}
	case ColComments:
		return Value{Kind: KindText, Text: j.Comments}
	case ColDirectory:
		return Value{Kind: KindText, Text: j.Directory}
	case ColDate:
		return Value{Kind: KindText, Text: j.Date}
	}
	return Value{Kind: KindText}
}

func (j *Job) setCell(col Column, v Value) {
	switch col {
	case ColID:
		j.ID = int(v.Int)
	case ColName:
		j.Name = v.Text
	case ColJobScript:
		j.JobScript = v.Text
	case ColStatus:
		j.Status = v.Text
	case ColChecked:
		j.Checked = v.Bool
	case ColComments:
		j.Comments = v.Text
	case ColDirectory:
		j.Directory = v.Text
	case ColDate:
		j.Date = v.Text
	}
}

func cellLess(a, b Value) bool {
	switch a.Kind {
	case KindInt:
		return a.Int < b.Int
	case KindFloat:
		return a.Float < b.Float
	case KindBool:
		return !a.Bool && b.Bool
	default:
		return a.Text < b.Text
	}
}
