package gen

import (
	"github.com/syssam/tablegen/schema"
	"github.com/syssam/tablegen/schema/edge"
	"github.com/syssam/tablegen/schema/field"
)

type (
	// Graph holds the accepted tables of a generation run in discovery
	// order, with their relations resolved.
	Graph struct {
		Config *Config
		Tables []*Table
		byName map[string]*Table
	}

	// Table is the generation model of one table.
	Table struct {
		Name       string
		StructName string
		Fields     []*Field
		// ID is the "id" field, if any. CRUD operations are emitted only
		// for tables that have one.
		ID        *Field
		Relations []*Relation
		Indexes   []*schema.Index
		Schema    *schema.TableSchema
	}

	// Field is a column of a table.
	Field struct {
		Name string
		// StructField is the name of the record struct field.
		StructField string
		// Type is the base type; Nullable carries the optional variant.
		Type     field.Type
		Nullable bool
		Default  *string
		Input    field.InputMode
	}

	// Relation is a relationship resolved against the graph.
	Relation struct {
		// Name is the relation field name, also used as JSON key and
		// projected column name.
		Name        string
		StructField string
		Type        edge.Rel
		Many        bool
		Owner       *Table
		Target      *Table
		// Through is the junction table of many-to-many relations.
		Through        *Table
		LocalColumn    string
		ForeignColumn  string
		ThroughLocal   string
		ThroughForeign string
	}
)

// NewGraph builds the graph of the given schemas. Tables are created
// first; relations are resolved in a second pass once every table is
// known. Relations whose target is not part of the graph are skipped.
func NewGraph(c *Config, schemas ...*schema.TableSchema) *Graph {
	if c == nil {
		c = MustNewConfig()
	}
	g := &Graph{Config: c, byName: make(map[string]*Table, len(schemas))}
	for _, s := range schemas {
		t := newTable(c.Namer, s)
		g.Tables = append(g.Tables, t)
		g.byName[t.Name] = t
	}
	res := NewSchemas(schemas...)
	for _, t := range g.Tables {
		g.resolve(t, res)
	}
	return g
}

func newTable(n Namer, s *schema.TableSchema) *Table {
	t := &Table{
		Name:       s.Name,
		StructName: s.StructName,
		Indexes:    s.Indexes,
		Schema:     s,
	}
	if t.StructName == "" {
		t.StructName = pascal(n, s.Name, true)
	}
	for _, f := range s.Fields {
		gf := &Field{
			Name:        f.Name,
			StructField: GoName(f.Name),
			Type:        f.Type.Base(),
			Nullable:    f.Nullable,
			Default:     f.Default,
			Input:       f.Input,
		}
		t.Fields = append(t.Fields, gf)
		if f.Name == "id" {
			t.ID = gf
		}
	}
	return t
}

func (g *Graph) resolve(t *Table, res Resolver) {
	for _, rel := range t.Schema.Relationships {
		l, err := resolveRelationship(t.Schema, rel, res)
		if err != nil {
			g.Config.Logger.WithField("table", t.Name).WithField("rule", err.rule).
				Warnf("skipping relationship %s->%s: %s", rel.Column, rel.ReferencesTable, err.msg)
			continue
		}
		target, ok := g.byName[l.target]
		if !ok {
			g.Config.Logger.WithField("table", t.Name).
				Warnf("skipping relationship %s->%s: table %q is not generated", rel.Column, rel.ReferencesTable, l.target)
			continue
		}
		name := relationFieldName(g.Config.Namer, *rel)
		r := &Relation{
			Name:           name,
			StructField:    GoName(name),
			Type:           rel.Type,
			Many:           l.many,
			Owner:          t,
			Target:         target,
			LocalColumn:    l.local,
			ForeignColumn:  l.foreign,
			ThroughLocal:   l.throughLocal,
			ThroughForeign: l.throughForeign,
		}
		if l.through != "" {
			through, ok := g.byName[l.through]
			if !ok {
				g.Config.Logger.WithField("table", t.Name).
					Warnf("skipping relationship %s: junction table %q is not generated", name, l.through)
				continue
			}
			r.Through = through
		}
		t.Relations = append(t.Relations, r)
	}
}

// Table returns the table with the given name, or nil.
func (g *Graph) Table(name string) *Table {
	return g.byName[name]
}

// Field returns the field with the given name, or nil.
func (t *Table) Field(name string) *Field {
	for _, f := range t.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// HasID reports if the table has an "id" field.
func (t *Table) HasID() bool { return t.ID != nil }

// SelectAll returns the query text selecting every column of the table.
func (t *Table) SelectAll() string {
	return "SELECT " + t.Name + ".* FROM " + t.Name
}

// FileName returns the name of the generated file of the table.
func (t *Table) FileName() string {
	name := SnakeCase(t.StructName)
	switch {
	case name == "registry":
		name += "_table"
	case len(name) > 5 && name[len(name)-5:] == "_test":
		name += "_table"
	}
	return name + ".go"
}

// QueryName returns the name of the query builder type.
func (t *Table) QueryName() string { return t.StructName + "Query" }

// InsertName returns the name of the insert input type.
func (t *Table) InsertName() string { return t.StructName + "Insert" }

// UpdateName returns the name of the partial update input type.
func (t *Table) UpdateName() string { return t.StructName + "Update" }

// RelationsName returns the name of the variant holding all relations.
func (t *Table) RelationsName() string { return t.StructName + "WithRelations" }

// InsertFields returns the fields of the insert input.
func (t *Table) InsertFields() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if f.Input != field.InputAutoGenerated {
			fs = append(fs, f)
		}
	}
	return fs
}

// UpdateFields returns the fields of the partial update input.
func (t *Table) UpdateFields() []*Field {
	var fs []*Field
	for _, f := range t.Fields {
		if f.Input != field.InputAutoGenerated && f != t.ID {
			fs = append(fs, f)
		}
	}
	return fs
}

// TableConst returns the name of the table name constant.
func (t *Table) TableConst() string { return t.StructName + "Table" }

// SelectAllConst returns the name of the select-all query constant.
func (t *Table) SelectAllConst() string { return t.StructName + "SelectAll" }

// ColumnConst returns the name of the column name constant of f.
func (t *Table) ColumnConst(f *Field) string { return t.StructName + "Column" + f.StructField }

// ColumnsVar returns the name of the column list variable.
func (t *Table) ColumnsVar() string { return t.StructName + "Columns" }

// RelationsVar returns the name of the relation metadata list variable.
func (t *Table) RelationsVar() string { return t.StructName + "Relations" }

// FromRowFunc returns the name of the row decoder of the record or of
// the variant called name.
func FromRowFunc(name string) string { return name + "FromRow" }

// Identifiers returns every package-level identifier generated for the
// table, in declaration order. Two tables of one package must not share
// any of them.
func (t *Table) Identifiers() []string {
	names := []string{t.StructName, t.TableConst(), t.SelectAllConst()}
	for _, f := range t.Fields {
		names = append(names, t.ColumnConst(f))
	}
	names = append(names, t.ColumnsVar())
	for _, r := range t.Relations {
		names = append(names, r.MetaVar())
	}
	names = append(names, t.RelationsVar(), FromRowFunc(t.StructName))
	if t.HasID() {
		names = append(names,
			t.InsertName(), "Insert"+t.StructName,
			"Find"+t.StructName+"ByID",
			t.UpdateName(), "Update"+t.StructName,
			"Delete"+t.StructName,
		)
	}
	names = append(names, t.QueryName(), "New"+t.QueryName())
	if len(t.Relations) > 0 {
		variants := []string{t.RelationsName()}
		for _, r := range t.Relations {
			variants = append(variants, r.VariantName())
		}
		for _, v := range variants {
			names = append(names, v, "New"+v, FromRowFunc(v))
		}
	}
	return names
}

// Optional reports if the field may be omitted on insert.
func (f *Field) Optional() bool { return f.Input == field.InputOptional }

// AutoGenerated reports if the field is produced by the database.
func (f *Field) AutoGenerated() bool { return f.Input == field.InputAutoGenerated }

// IsJSON reports if the field holds a JSON document.
func (f *Field) IsJSON() bool { return f.Type == field.TypeJSON }

// Pointer reports if the record field is a pointer. JSON fields are
// json.RawMessage, where nil stands for NULL.
func (f *Field) Pointer() bool { return f.Nullable && !f.IsJSON() }

// MetaVar returns the name of the relation metadata variable.
func (r *Relation) MetaVar() string { return r.Owner.StructName + "Relation" + r.StructField }

// VariantName returns the name of the variant holding the relation.
func (r *Relation) VariantName() string {
	return r.Owner.StructName + "With" + r.StructField
}

// One reports if the relation hydrates a single record.
func (r *Relation) One() bool { return !r.Many }
