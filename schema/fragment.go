package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"
	"strconv"

	"github.com/syssam/tablegen/schema/edge"
	"github.com/syssam/tablegen/schema/field"
)

type (
	// Fragment is one schema input unit. Several fragments may target the
	// same table; they are merged in registration order.
	Fragment struct {
		TableName     string            `json:"table_name" yaml:"table_name"`
		StructName    string            `json:"struct_name,omitempty" yaml:"struct_name,omitempty"`
		Fields        []FieldDef        `json:"fields,omitempty" yaml:"fields,omitempty"`
		Indexes       []IndexDef        `json:"indexes,omitempty" yaml:"indexes,omitempty"`
		Relationships []RelationshipDef `json:"relationships,omitempty" yaml:"relationships,omitempty"`
		Alters        []FieldDef        `json:"alters,omitempty" yaml:"alters,omitempty"`
		// Source is the file the fragment was read from, if any.
		Source string `json:"-" yaml:"-"`
	}

	// FieldDef is a field as declared in a fragment.
	FieldDef struct {
		Name string     `json:"name" yaml:"name"`
		Type field.Type `json:"type" yaml:"type"`
		// Nullable is inferred from the type variant when omitted.
		Nullable *bool           `json:"nullable,omitempty" yaml:"nullable,omitempty"`
		Default  *Expr           `json:"default,omitempty" yaml:"default,omitempty"`
		Input    field.InputMode `json:"input_mode,omitempty" yaml:"input_mode,omitempty"`
	}

	// IndexDef is an index as declared in a fragment.
	IndexDef struct {
		Name    string   `json:"name" yaml:"name"`
		Columns []string `json:"columns" yaml:"columns"`
		Unique  bool     `json:"unique,omitempty" yaml:"unique,omitempty"`
	}

	// RelationshipDef is a relationship as declared in a fragment.
	RelationshipDef struct {
		Column          string   `json:"column" yaml:"column"`
		ReferencesTable string   `json:"references_table" yaml:"references_table"`
		Type            edge.Rel `json:"relationship_type" yaml:"relationship_type"`
	}
)

// Expr is a default expression. In JSON it may be written as a string,
// a number or a boolean; the raw text is kept.
type Expr string

// UnmarshalJSON implements json.Unmarshaler.
func (e *Expr) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		s, err := strconv.Unquote(string(b))
		if err != nil {
			return fmt.Errorf("schema: invalid default %s: %w", b, err)
		}
		*e = Expr(s)
		return nil
	}
	var v any
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch v.(type) {
	case bool, float64:
		*e = Expr(b)
		return nil
	default:
		return fmt.Errorf("schema: default must be a scalar, got %s", b)
	}
}

// Field converts the definition to a schema field.
func (d FieldDef) Field() *Field {
	f := &Field{
		Name:     d.Name,
		Type:     d.Type,
		Nullable: d.Type.IsOptional(),
		Input:    d.Input,
	}
	if d.Nullable != nil {
		f.Nullable = *d.Nullable
	}
	if d.Default != nil {
		s := string(*d.Default)
		f.Default = &s
	}
	return f
}

// Index converts the definition to a schema index.
func (d IndexDef) Index() *Index {
	return &Index{Name: d.Name, Columns: slices.Clone(d.Columns), Unique: d.Unique}
}

// Relationship converts the definition to a schema relationship.
func (d RelationshipDef) Relationship() *Relationship {
	return &Relationship{Column: d.Column, ReferencesTable: d.ReferencesTable, Type: d.Type}
}
