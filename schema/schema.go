package schema

import (
	"slices"

	"github.com/syssam/tablegen/schema/edge"
	"github.com/syssam/tablegen/schema/field"
)

type (
	// Field is a table column.
	Field struct {
		// Name is the column name.
		Name string
		// Type is the declared column type.
		Type field.Type
		// Nullable reports if the column accepts NULL.
		Nullable bool
		// Default holds the SQL default expression, if any.
		Default *string
		// Input controls the presence of the field in insert/update inputs.
		Input field.InputMode
	}

	// Index is a table index.
	Index struct {
		Name    string
		Columns []string
		Unique  bool
	}

	// Relationship links a table to another one.
	Relationship struct {
		// Column is the local foreign-key column, or "id" for reverse
		// relationships.
		Column string
		// ReferencesTable is the related table. For many-to-many
		// relationships, it is the junction table.
		ReferencesTable string
		// Type is the relationship cardinality.
		Type edge.Rel
	}

	// TableSchema is the canonical schema of one table.
	TableSchema struct {
		Name          string
		StructName    string
		Fields        []*Field
		Relationships []*Relationship
		Indexes       []*Index
		// Alters are field overrides folded into Fields by Finalize.
		Alters    []*Field
		finalized bool
	}
)

// HasDefault reports if the field has a default expression.
func (f *Field) HasDefault() bool { return f.Default != nil }

// AutoGenerated reports if the field is produced by the database.
func (f *Field) AutoGenerated() bool { return f.Input == field.InputAutoGenerated }

// InInsert reports if the field is part of the insert input.
func (f *Field) InInsert() bool { return f.Input != field.InputAutoGenerated }

// InUpdate reports if the field is part of the update input.
func (f *Field) InUpdate() bool { return f.Input != field.InputAutoGenerated }

// Clone returns a deep copy of the field.
func (f *Field) Clone() *Field {
	c := *f
	if f.Default != nil {
		d := *f.Default
		c.Default = &d
	}
	return &c
}

// IsReverse reports if the referenced table holds the foreign key.
func (r *Relationship) IsReverse() bool { return r.Column == "id" }

// New returns an empty schema for the given table.
func New(name string) *TableSchema {
	return &TableSchema{Name: name}
}

// Apply merges one fragment contribution into the schema. Fields must
// not already exist; relationships and indexes are merged as sets, and
// alters are queued for Finalize.
func (t *TableSchema) Apply(fr *Fragment) error {
	if t.Name == "" {
		t.Name = fr.TableName
	}
	if t.StructName == "" {
		t.StructName = fr.StructName
	}
	for _, d := range fr.Fields {
		if t.HasField(d.Name) {
			return &DuplicateFieldError{Table: t.Name, Field: d.Name}
		}
		t.Fields = append(t.Fields, d.Field())
	}
	for _, r := range fr.Relationships {
		rel := r.Relationship()
		if !slices.ContainsFunc(t.Relationships, func(o *Relationship) bool { return *o == *rel }) {
			t.Relationships = append(t.Relationships, rel)
		}
	}
	for _, d := range fr.Indexes {
		idx := d.Index()
		if i := slices.IndexFunc(t.Indexes, func(o *Index) bool { return o.Name == idx.Name }); i >= 0 {
			t.Indexes[i] = idx
			continue
		}
		t.Indexes = append(t.Indexes, idx)
	}
	for _, d := range fr.Alters {
		t.Alters = append(t.Alters, d.Field())
	}
	return nil
}

// Finalize folds the queued alters into the field set. An alter replaces
// the field with the same name and keeps its position; later alters win.
// Alters naming an unknown field are appended. Finalize is idempotent.
func (t *TableSchema) Finalize() {
	if t.finalized {
		return
	}
	t.finalized = true
	for _, a := range t.Alters {
		if i := t.fieldIndex(a.Name); i >= 0 {
			t.Fields[i] = a.Clone()
			continue
		}
		t.Fields = append(t.Fields, a.Clone())
	}
}

// Finalized reports if Finalize was called.
func (t *TableSchema) Finalized() bool { return t.finalized }

// Field returns the field with the given name, or nil.
func (t *TableSchema) Field(name string) *Field {
	if i := t.fieldIndex(name); i >= 0 {
		return t.Fields[i]
	}
	return nil
}

// HasField reports if the schema has a field with the given name.
func (t *TableSchema) HasField(name string) bool { return t.fieldIndex(name) >= 0 }

func (t *TableSchema) fieldIndex(name string) int {
	return slices.IndexFunc(t.Fields, func(f *Field) bool { return f.Name == name })
}

// Clone returns a deep copy of the schema.
func (t *TableSchema) Clone() *TableSchema {
	c := &TableSchema{
		Name:       t.Name,
		StructName: t.StructName,
		finalized:  t.finalized,
	}
	for _, f := range t.Fields {
		c.Fields = append(c.Fields, f.Clone())
	}
	for _, a := range t.Alters {
		c.Alters = append(c.Alters, a.Clone())
	}
	for _, r := range t.Relationships {
		rel := *r
		c.Relationships = append(c.Relationships, &rel)
	}
	for _, idx := range t.Indexes {
		c.Indexes = append(c.Indexes, &Index{Name: idx.Name, Columns: slices.Clone(idx.Columns), Unique: idx.Unique})
	}
	return c
}
