package gen

import (
	"fmt"
	"go/token"
	"regexp"
	"slices"

	"github.com/syssam/tablegen/schema"
	"github.com/syssam/tablegen/schema/edge"
	"github.com/syssam/tablegen/schema/field"
)

// Resolver looks up canonical schemas by table name.
type Resolver interface {
	Lookup(name string) (*schema.TableSchema, bool)
}

// Schemas is a Resolver over a set of merged schemas.
type Schemas map[string]*schema.TableSchema

// NewSchemas indexes the schemas by table name.
func NewSchemas(ts ...*schema.TableSchema) Schemas {
	s := make(Schemas, len(ts))
	for _, t := range ts {
		s[t.Name] = t
	}
	return s
}

// Lookup implements the Resolver interface.
func (s Schemas) Lookup(name string) (*schema.TableSchema, bool) {
	t, ok := s[name]
	return t, ok
}

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// reservedFields are record methods a field name must not shadow.
var reservedFields = map[string]bool{
	"Value": true,
}

// Validate checks a canonical schema before generation. It returns nil or
// a *TableError holding every violated rule; any violation rejects the
// whole table.
func Validate(t *schema.TableSchema, r Resolver) error {
	return validate(t, r, Naive)
}

func validate(t *schema.TableSchema, r Resolver, n Namer) error {
	v := &validator{table: t, resolver: r, namer: n}
	v.name()
	v.fields()
	v.indexes()
	v.relationships()
	if len(v.errs) == 0 {
		return nil
	}
	return &TableError{Table: t.Name, Errors: v.errs}
}

type validator struct {
	table    *schema.TableSchema
	resolver Resolver
	namer    Namer
	errs     []*ValidationError
}

func (v *validator) add(rule Rule, field, rel, format string, args ...any) {
	v.errs = append(v.errs, &ValidationError{
		Table:        v.table.Name,
		Rule:         rule,
		Field:        field,
		Relationship: rel,
		Message:      fmt.Sprintf(format, args...),
	})
}

func (v *validator) name() {
	t := v.table
	if !identRe.MatchString(t.Name) {
		v.add(InvalidName, "", "", "table name %q is not a valid identifier", t.Name)
	}
	if t.StructName != "" && (!token.IsIdentifier(t.StructName) || !token.IsExported(t.StructName)) {
		v.add(InvalidName, "", "", "struct name %q is not an exported Go identifier", t.StructName)
	}
}

func (v *validator) fields() {
	var (
		seen   = make(map[string]bool, len(v.table.Fields))
		goName = make(map[string]string, len(v.table.Fields))
	)
	for _, f := range v.table.Fields {
		if seen[f.Name] {
			v.add(DuplicateField, f.Name, "", "field declared more than once")
			continue
		}
		seen[f.Name] = true
		if !identRe.MatchString(f.Name) || GoName(f.Name) == "" {
			v.add(InvalidName, f.Name, "", "field name is not a valid identifier")
		} else if n := GoName(f.Name); reservedFields[n] {
			v.add(InvalidName, f.Name, "", "field name collides with the generated method %s", n)
		} else if prev, ok := goName[n]; ok {
			v.add(DuplicateField, f.Name, "", "field maps to Go name %s, also used by %q", n, prev)
		} else {
			goName[n] = f.Name
		}
		if !f.Type.Valid() {
			v.add(InvalidType, f.Name, "", "unknown field type %s", f.Type)
			continue
		}
		if f.Nullable != f.Type.IsOptional() {
			v.add(NullabilityMismatch, f.Name, "", "nullable is %t but type is %s", f.Nullable, f.Type)
		}
		if !f.Nullable && !f.HasDefault() && f.Input == field.InputOptional {
			v.add(MissingDefaultForRequiredField, f.Name, "", "non-nullable optional field has no default")
		}
	}
}

func (v *validator) indexes() {
	for _, idx := range v.table.Indexes {
		if len(idx.Columns) == 0 {
			v.add(UnknownIndexColumn, "", "", "index %q has no columns", idx.Name)
		}
		for _, c := range idx.Columns {
			if !v.table.HasField(c) {
				v.add(UnknownIndexColumn, c, "", "index %q references unknown column %q", idx.Name, c)
			}
		}
	}
}

func (v *validator) relationships() {
	var names []string
	for _, rel := range v.table.Relationships {
		name := relationFieldName(v.namer, *rel)
		label := rel.Column + "->" + rel.ReferencesTable
		if _, err := resolveRelationship(v.table, rel, v.resolver); err != nil {
			v.add(err.rule, err.field, label, "%s", err.msg)
			continue
		}
		switch n := GoName(name); {
		case slices.Contains(names, n):
			v.add(DuplicateField, "", label, "relation name %q declared more than once", name)
		case v.fieldGoName(n):
			v.add(DuplicateField, "", label, "relation name %q collides with a field", name)
		default:
			names = append(names, n)
		}
	}
}

func (v *validator) fieldGoName(n string) bool {
	return slices.ContainsFunc(v.table.Fields, func(f *schema.Field) bool { return GoName(f.Name) == n })
}

// link is a relationship resolved against the registry.
type link struct {
	target         string
	through        string
	many           bool
	local          string
	foreign        string
	throughLocal   string
	throughForeign string
}

type linkError struct {
	rule  Rule
	field string
	msg   string
}

func linkErr(rule Rule, field, format string, args ...any) *linkError {
	return &linkError{rule: rule, field: field, msg: fmt.Sprintf(format, args...)}
}

// resolveRelationship computes the join columns of a relationship. A
// forward relationship joins the local column to the referenced id. A
// reverse or one-to-many relationship joins the local id to the column
// of the referenced table that points back at the owner. A many-to-many
// relationship goes through its junction table, which must point at the
// owner and at one other table.
func resolveRelationship(owner *schema.TableSchema, rel *schema.Relationship, r Resolver) (*link, *linkError) {
	ref, ok := r.Lookup(rel.ReferencesTable)
	if !ok {
		return nil, linkErr(UnknownReferencedTable, "", "references unknown table %q", rel.ReferencesTable)
	}
	switch {
	case rel.Type == edge.M2M:
		return resolveJunction(owner, ref, r)
	case rel.Type == edge.O2M && !rel.IsReverse():
		if !owner.HasField("id") {
			return nil, linkErr(UnknownRelationColumn, "id", "one-to-many relationship needs an id column")
		}
		if !ref.HasField(rel.Column) {
			return nil, linkErr(UnknownRelationColumn, rel.Column, "column %q not found in table %q", rel.Column, ref.Name)
		}
		return &link{target: ref.Name, many: true, local: "id", foreign: rel.Column}, nil
	case rel.Type == edge.O2M || (rel.Type == edge.O2O && rel.IsReverse()):
		if !owner.HasField("id") {
			return nil, linkErr(UnknownRelationColumn, "id", "reverse relationship needs an id column")
		}
		fk, ok := backReference(ref, owner.Name)
		if !ok {
			return nil, linkErr(UnknownRelationColumn, "", "table %q has no column referencing %q", ref.Name, owner.Name)
		}
		return &link{target: ref.Name, many: rel.Type == edge.O2M, local: "id", foreign: fk}, nil
	case rel.Type == edge.M2O || rel.Type == edge.O2O:
		if !owner.HasField(rel.Column) {
			return nil, linkErr(UnknownRelationColumn, rel.Column, "column %q not found", rel.Column)
		}
		if !ref.HasField("id") {
			return nil, linkErr(UnknownRelationColumn, "", "table %q has no id column", ref.Name)
		}
		return &link{target: ref.Name, local: rel.Column, foreign: "id"}, nil
	default:
		return nil, linkErr(InvalidType, "", "unknown relationship type %s", rel.Type)
	}
}

func resolveJunction(owner, j *schema.TableSchema, r Resolver) (*link, *linkError) {
	if !owner.HasField("id") {
		return nil, linkErr(InvalidJunctionTable, "id", "many-to-many relationship needs an id column")
	}
	local, ok := backReference(j, owner.Name)
	if !ok {
		return nil, linkErr(InvalidJunctionTable, "", "junction table %q has no column referencing %q", j.Name, owner.Name)
	}
	for _, rel := range j.Relationships {
		if rel.IsReverse() || rel.Type.IsMany() || rel.Column == local || !j.HasField(rel.Column) {
			continue
		}
		far, ok := r.Lookup(rel.ReferencesTable)
		if !ok || !far.HasField("id") {
			continue
		}
		return &link{
			target:         far.Name,
			through:        j.Name,
			many:           true,
			local:          "id",
			foreign:        "id",
			throughLocal:   local,
			throughForeign: rel.Column,
		}, nil
	}
	return nil, linkErr(InvalidJunctionTable, "", "junction table %q has no second foreign key", j.Name)
}

// backReference returns the column of t that references the owner table:
// a forward relationship to it, or a column named after its singular
// form with an "_id" suffix.
func backReference(t *schema.TableSchema, owner string) (string, bool) {
	for _, rel := range t.Relationships {
		if rel.ReferencesTable == owner && !rel.IsReverse() && !rel.Type.IsMany() && t.HasField(rel.Column) {
			return rel.Column, true
		}
	}
	for _, n := range []Namer{Naive, Inflect} {
		if c := n.Singular(owner) + "_id"; t.HasField(c) {
			return c, true
		}
	}
	return "", false
}
