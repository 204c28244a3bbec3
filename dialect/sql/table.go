package sql

import (
	"fmt"
	"slices"
)

// RelKind is the cardinality of a hydrated relation.
type RelKind uint8

// Relation kinds.
const (
	// RelOne hydrates a single optional record.
	RelOne RelKind = iota + 1
	// RelMany hydrates a list of records.
	RelMany
)

// String returns the relation kind name.
func (k RelKind) String() string {
	switch k {
	case RelOne:
		return "one"
	case RelMany:
		return "many"
	default:
		return fmt.Sprintf("RelKind(%d)", k)
	}
}

// ColumnKind tells the relation projection how to render a column in
// JSON so that it decodes back into the Go field type.
type ColumnKind uint8

// Column kinds.
const (
	ColumnPlain ColumnKind = iota
	ColumnBool
	// ColumnTime is a timestamp without time zone, rendered as UTC.
	ColumnTime
	ColumnTimeTZ
	ColumnJSON
)

// Column is a column of a related table.
type Column struct {
	Name string
	Kind ColumnKind
}

// Relation describes how to hydrate a related table into a JSON column.
//
// For RelOne relations the related row is joined on
// Table.ForeignColumn = owner.LocalColumn. For RelMany relations it is
// aggregated by a correlated subquery with the same condition, or, when
// Through is set, through the junction table:
//
//	Through.ThroughLocal = owner.LocalColumn
//	Through.ThroughForeign = Table.ForeignColumn
type Relation struct {
	// Name is the name of the projected column and of the JSON key.
	Name           string
	Kind           RelKind
	Table          string
	Columns        []Column
	LocalColumn    string
	ForeignColumn  string
	Through        string
	ThroughLocal   string
	ThroughForeign string
}

// ColumnNames returns the names of the related table columns.
func (r Relation) ColumnNames() []string {
	names := make([]string, len(r.Columns))
	for i, c := range r.Columns {
		names[i] = c.Name
	}
	return names
}

// TableInfo describes a generated table.
type TableInfo struct {
	Name       string
	StructName string
	Columns    []string
	Relations  []Relation
}

// HasColumn reports if the table has the given column.
func (t TableInfo) HasColumn(name string) bool {
	return slices.Contains(t.Columns, name)
}

// Relation returns the relation with the given name.
func (t TableInfo) Relation(name string) (Relation, bool) {
	for _, r := range t.Relations {
		if r.Name == name {
			return r, true
		}
	}
	return Relation{}, false
}

// SelectValues holds the values of selected columns that have no
// matching record field, such as aggregates and relation columns.
type SelectValues map[string]any

// Set stores the scanned value of a column.
func (s *SelectValues) Set(name string, value any) {
	if *s == nil {
		*s = make(SelectValues)
	}
	(*s)[name] = value
}

// Get returns the value of a selected column.
func (s SelectValues) Get(name string) (any, error) {
	v, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("sql: value was not selected: %q", name)
	}
	if p, ok := v.(*any); ok {
		if p == nil {
			return nil, nil
		}
		return *p, nil
	}
	return v, nil
}
