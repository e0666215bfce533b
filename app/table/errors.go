package table

import "errors"

// ErrDuplicateID reported when an add or id change targets an id already used
// by another record.
var ErrDuplicateID = errors.New("duplicate job id")

// ErrNotFound reported when a mutation targets an id not present in the table.
var ErrNotFound = errors.New("job not found")
