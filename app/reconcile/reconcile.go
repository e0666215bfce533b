// Package reconcile merges live scheduler output back into the job table.
// It updates the status of every unchecked job from the query result and
// marks jobs that vanished from the queue with a sentinel for human review.
package reconcile

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	log "github.com/go-pkgz/lgr"

	"github.com/trackjobs/trackjobs/app/table"
)

// StatusAssumed marks jobs that were unchecked but never appeared in the
// query output, typically because they left the queue. It signals "presumed
// finished, needs confirmation", not a confirmed outcome, and never sets the
// checked flag.
const StatusAssumed = "Finished?"

// Querier supplies raw status lines from the external scheduler.
type Querier interface {
	Lines(ctx context.Context) ([]string, error)
}

// Summary describes one completed reconcile pass.
type Summary struct {
	Started    time.Time
	Finished   time.Time
	Lines      int   // status lines returned by the query
	Matched    int   // unchecked jobs updated from query output
	AssumedIDs []int // unchecked jobs absent from output, set to StatusAssumed
}

// ParseError reports a status line whose job-id portion is not a valid
// integer after normalization. Fatal to the pass, a partially understood
// query result must not be merged silently.
type ParseError struct {
	Line string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("can't parse status line %q: %v", e.Line, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// Run performs one reconcile pass: queries the scheduler, sets the status of
// every unchecked job that appears in the output (first line per id wins) and
// falls back to StatusAssumed for unchecked jobs that don't. Mutations happen
// on a clone, so on any error the caller's table is left exactly as it was.
func Run(ctx context.Context, tbl *table.Table, q Querier) (table.Table, Summary, error) {
	sum := Summary{Started: time.Now()}

	work := tbl.Clone()
	remaining := map[int]bool{}
	for _, id := range work.UncheckedIDs() {
		remaining[id] = true
	}
	log.Printf("[DEBUG] reconcile pass started, %d unchecked jobs", len(remaining))

	lines, err := q.Lines(ctx)
	if err != nil {
		return table.Table{}, Summary{}, err
	}
	sum.Lines = len(lines)

	for _, line := range lines {
		id, status, err := parseLine(line)
		if err != nil {
			return table.Table{}, Summary{}, err
		}
		if !remaining[id] {
			// either checked already, or an earlier line claimed this id
			continue
		}
		if err := work.SetStatus(id, status, "", false); err != nil {
			return table.Table{}, Summary{}, fmt.Errorf("can't record status for job %d: %w", id, err)
		}
		delete(remaining, id)
		sum.Matched++
	}

	for id := range remaining {
		if err := work.SetStatus(id, StatusAssumed, "", false); err != nil {
			return table.Table{}, Summary{}, fmt.Errorf("can't mark job %d as assumed finished: %w", id, err)
		}
		sum.AssumedIDs = append(sum.AssumedIDs, id)
	}
	sort.Ints(sum.AssumedIDs)

	sum.Finished = time.Now()
	log.Printf("[INFO] reconcile pass done, %d lines, %d matched, %d assumed finished",
		sum.Lines, sum.Matched, len(sum.AssumedIDs))
	return work, sum, nil
}

// parseLine splits a query output line into job id and status text. The
// status is everything after the first whitespace run, trimmed but otherwise
// kept as-is (it may contain internal whitespace).
func parseLine(line string) (id int, status string, err error) {
	l := strings.TrimSpace(strings.ReplaceAll(line, `"`, ""))
	i := strings.IndexFunc(l, unicode.IsSpace)
	if i < 0 {
		return 0, "", &ParseError{Line: line, Err: fmt.Errorf("no status field")}
	}
	id, err = normalizeID(l[:i])
	if err != nil {
		return 0, "", &ParseError{Line: line, Err: err}
	}
	return id, strings.TrimSpace(l[i:]), nil
}

// normalizeID reduces scheduler-specific job-id decorations to a bare integer
// id. Array tasks (42_3), host qualifiers (17.node03) and array range markers
// (8[2]) are all truncated, in that order, regardless of which scheduler
// produced the id.
func normalizeID(raw string) (int, error) {
	for _, sep := range []string{"_", ".", "["} {
		if i := strings.Index(raw, sep); i >= 0 {
			raw = raw[:i]
		}
	}
	return strconv.Atoi(raw)
}
