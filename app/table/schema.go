// Package table implements the in-memory job table: a fixed-schema, ordered
// collection of job records with typed columns.
package table

import "fmt"

// Kind is the declared value type of a column. The set of kinds is closed and
// resolved once at schema definition, never derived from formatted type names.
type Kind int

// known column kinds
const (
	KindInt Kind = iota
	KindFloat
	KindBool
	KindText
)

func (k Kind) String() string {
	switch k {
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Column identifies one of the fixed table columns.
type Column int

// table columns, in storage order
const (
	ColID Column = iota
	ColName
	ColJobScript
	ColStatus
	ColChecked
	ColComments
	ColDirectory
	ColDate
)

var columnDefs = [...]struct {
	name string
	kind Kind
}{
	ColID:        {"ID", KindInt},
	ColName:      {"Name", KindText},
	ColJobScript: {"Job_script", KindText},
	ColStatus:    {"Status", KindText},
	ColChecked:   {"Checked?", KindBool},
	ColComments:  {"Comments", KindText},
	ColDirectory: {"Directory", KindText},
	ColDate:      {"Date", KindText},
}

// Name returns the column's header name as stored in the table file.
func (c Column) Name() string { return columnDefs[c].name }

// Kind returns the column's declared value kind.
func (c Column) Kind() Kind { return columnDefs[c].kind }

// Columns lists all table columns in storage order.
func Columns() []Column {
	res := make([]Column, len(columnDefs))
	for i := range columnDefs {
		res[i] = Column(i)
	}
	return res
}

// Header returns the column names in storage order.
func Header() []string {
	res := make([]string, len(columnDefs))
	for i, d := range columnDefs {
		res[i] = d.name
	}
	return res
}

// ParseColumn resolves a header name to a Column. Names match exactly.
func ParseColumn(name string) (Column, error) {
	for i, d := range columnDefs {
		if d.name == name {
			return Column(i), nil
		}
	}
	return 0, fmt.Errorf("unknown column %q", name)
}
