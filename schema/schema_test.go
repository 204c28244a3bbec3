package schema_test

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/syssam/tablegen/schema"
	"github.com/syssam/tablegen/schema/edge"
	"github.com/syssam/tablegen/schema/field"
)

func ptr[T any](v T) *T { return &v }

func names(t *schema.TableSchema) []string {
	out := make([]string, 0, len(t.Fields))
	for _, f := range t.Fields {
		out = append(out, f.Name)
	}
	return out
}

func TestApplyAndFinalize(t *testing.T) {
	base := &schema.Fragment{
		TableName: "users",
		Fields: []schema.FieldDef{
			{Name: "id", Type: field.TypeUUID, Input: field.InputAutoGenerated},
			{Name: "x", Type: field.TypeText},
			{Name: "email", Type: field.TypeText},
		},
		Indexes: []schema.IndexDef{{Name: "users_email", Columns: []string{"email"}, Unique: true}},
	}
	evolve := &schema.Fragment{
		TableName:  "users",
		StructName: "Account",
		Fields:     []schema.FieldDef{{Name: "bio", Type: field.TypeTextOptional}},
		Alters: []schema.FieldDef{
			{Name: "x", Type: field.TypeInt64Optional, Default: ptr(schema.Expr("0"))},
		},
	}

	s := schema.New("users")
	require.NoError(t, s.Apply(base))
	require.NoError(t, s.Apply(evolve))
	assert.False(t, s.Finalized())
	s.Finalize()
	s.Finalize()

	assert.Equal(t, []string{"id", "x", "email", "bio"}, names(s))
	x := s.Field("x")
	require.NotNil(t, x)
	assert.Equal(t, field.TypeInt64Optional, x.Type)
	assert.True(t, x.Nullable)
	require.True(t, x.HasDefault())
	assert.Equal(t, "0", *x.Default)
	assert.True(t, s.Field("bio").Nullable)
	assert.Equal(t, "Account", s.StructName)
	assert.True(t, s.Field("id").AutoGenerated())
	assert.False(t, s.Field("id").InInsert())
	assert.Len(t, s.Indexes, 1)
}

func TestLastAlterWins(t *testing.T) {
	s := schema.New("posts")
	require.NoError(t, s.Apply(&schema.Fragment{
		TableName: "posts",
		Fields:    []schema.FieldDef{{Name: "title", Type: field.TypeText}, {Name: "body", Type: field.TypeText}},
		Alters:    []schema.FieldDef{{Name: "title", Type: field.TypeTextOptional}},
	}))
	require.NoError(t, s.Apply(&schema.Fragment{
		TableName: "posts",
		Alters: []schema.FieldDef{
			{Name: "title", Type: field.TypeText, Default: ptr(schema.Expr("'untitled'"))},
			{Name: "slug", Type: field.TypeTextOptional},
		},
	}))
	s.Finalize()
	assert.Equal(t, []string{"title", "body", "slug"}, names(s))
	assert.Equal(t, field.TypeText, s.Field("title").Type)
	assert.False(t, s.Field("title").Nullable)
	assert.Equal(t, "'untitled'", *s.Field("title").Default)
}

func TestDuplicateField(t *testing.T) {
	s := schema.New("users")
	fr := &schema.Fragment{TableName: "users", Fields: []schema.FieldDef{{Name: "email", Type: field.TypeText}}}
	require.NoError(t, s.Apply(fr))
	err := s.Apply(fr)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schema.ErrDuplicateField))
	var dup *schema.DuplicateFieldError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "users", dup.Table)
	assert.Equal(t, "email", dup.Field)
	assert.Contains(t, err.Error(), `"email"`)
}

func TestRelationshipSet(t *testing.T) {
	rel := schema.RelationshipDef{Column: "author_id", ReferencesTable: "users", Type: edge.M2O}
	s := schema.New("posts")
	require.NoError(t, s.Apply(&schema.Fragment{TableName: "posts", Relationships: []schema.RelationshipDef{rel}}))
	require.NoError(t, s.Apply(&schema.Fragment{TableName: "posts", Relationships: []schema.RelationshipDef{
		rel,
		{Column: "id", ReferencesTable: "comments", Type: edge.O2M},
	}}))
	require.Len(t, s.Relationships, 2)
	assert.False(t, s.Relationships[0].IsReverse())
	assert.True(t, s.Relationships[1].IsReverse())
}

func TestNullableInference(t *testing.T) {
	tests := []struct {
		def      schema.FieldDef
		nullable bool
	}{
		{schema.FieldDef{Name: "a", Type: field.TypeText}, false},
		{schema.FieldDef{Name: "b", Type: field.TypeTextOptional}, true},
		{schema.FieldDef{Name: "c", Type: field.TypeText, Nullable: ptr(true)}, true},
		{schema.FieldDef{Name: "d", Type: field.TypeBoolOptional, Nullable: ptr(false)}, false},
	}
	for _, tt := range tests {
		t.Run(tt.def.Name, func(t *testing.T) {
			assert.Equal(t, tt.nullable, tt.def.Field().Nullable)
		})
	}
}

func TestFragmentDecode(t *testing.T) {
	const js = `{
		"table_name": "posts",
		"fields": [
			{"name": "id", "type": "int64", "input_mode": "auto_generated"},
			{"name": "active", "type": "boolean", "default": true},
			{"name": "score", "type": "float64", "default": 1.5},
			{"name": "title", "type": "text", "default": "''"}
		],
		"relationships": [
			{"column": "author_id", "references_table": "users", "relationship_type": "many_to_one"}
		]
	}`
	const ym = `
table_name: posts
fields:
  - name: id
    type: int64
    input_mode: auto_generated
  - name: active
    type: boolean
    default: true
  - name: score
    type: float64
    default: 1.5
  - name: title
    type: text
    default: "''"
relationships:
  - column: author_id
    references_table: users
    relationship_type: many_to_one
`
	var fromJSON, fromYAML schema.Fragment
	require.NoError(t, json.Unmarshal([]byte(js), &fromJSON))
	require.NoError(t, yaml.Unmarshal([]byte(ym), &fromYAML))
	assert.Equal(t, fromJSON, fromYAML)

	require.Len(t, fromJSON.Fields, 4)
	assert.Equal(t, schema.Expr("true"), *fromJSON.Fields[1].Default)
	assert.Equal(t, schema.Expr("1.5"), *fromJSON.Fields[2].Default)
	assert.Equal(t, schema.Expr("''"), *fromJSON.Fields[3].Default)
	assert.Equal(t, edge.M2O, fromJSON.Relationships[0].Type)

	var bad schema.Fragment
	assert.Error(t, json.Unmarshal([]byte(`{"table_name":"x","fields":[{"name":"a","type":"text","default":{"k":1}}]}`), &bad))
}

func TestClone(t *testing.T) {
	s := schema.New("users")
	require.NoError(t, s.Apply(&schema.Fragment{
		TableName: "users",
		Fields:    []schema.FieldDef{{Name: "email", Type: field.TypeText, Default: ptr(schema.Expr("''"))}},
		Indexes:   []schema.IndexDef{{Name: "email", Columns: []string{"email"}}},
	}))
	c := s.Clone()
	*c.Fields[0].Default = "'x'"
	c.Indexes[0].Columns[0] = "other"
	assert.Equal(t, "''", *s.Fields[0].Default)
	assert.Equal(t, "email", s.Indexes[0].Columns[0])
}
