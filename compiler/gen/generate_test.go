package gen

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/dave/jennifer/jen"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tablegen/compiler/load"
	"github.com/syssam/tablegen/schema"
	"github.com/syssam/tablegen/schema/edge"
	"github.com/syssam/tablegen/schema/field"
)

// stubEmitter renders one struct per table and a list of table names.
type stubEmitter struct{}

func (stubEmitter) GenTable(g *Graph, t *Table) *jen.File {
	f := g.NewFile()
	f.Type().Id(t.StructName).StructFunc(func(grp *jen.Group) {
		for _, fd := range t.Fields {
			grp.Id(fd.StructField).String()
		}
	})
	return f
}

func (stubEmitter) GenRegistry(g *Graph) *jen.File {
	f := g.NewFile()
	f.Var().Id("Tables").Op("=").Index().String().ValuesFunc(func(grp *jen.Group) {
		for _, t := range g.Tables {
			grp.Lit(t.Name)
		}
	})
	return f
}

// brokenEmitter renders invalid Go.
type brokenEmitter struct{ stubEmitter }

func (brokenEmitter) GenTable(g *Graph, _ *Table) *jen.File {
	f := g.NewFile()
	f.Func().Id("broken").Params().Op("{")
	return f
}

func registry(t *testing.T, frs ...*schema.Fragment) *load.Registry {
	t.Helper()
	r := load.New()
	for _, fr := range frs {
		require.NoError(t, r.Register(fr))
	}
	return r
}

func usersFragment() *schema.Fragment {
	return &schema.Fragment{
		TableName: "users",
		Fields: []schema.FieldDef{
			{Name: "id", Type: field.TypeUUID, Input: field.InputAutoGenerated},
			{Name: "email", Type: field.TypeText, Input: field.InputRequired},
		},
	}
}

func postsFragment() *schema.Fragment {
	return &schema.Fragment{
		TableName: "posts",
		Fields: []schema.FieldDef{
			{Name: "id", Type: field.TypeInt64, Input: field.InputAutoGenerated},
			{Name: "author_id", Type: field.TypeUUID},
			{Name: "title", Type: field.TypeText},
		},
		Indexes: []schema.IndexDef{{Name: "posts_slug", Columns: []string{"slug"}}},
		Relationships: []schema.RelationshipDef{
			{Column: "author_id", ReferencesTable: "users", Type: edge.M2O},
		},
	}
}

func newGenerator(t *testing.T, dir string, opts ...Option) *Generator {
	t.Helper()
	c, err := NewConfig(append([]Option{WithTarget(dir), WithEmitter(stubEmitter{})}, opts...)...)
	require.NoError(t, err)
	return NewGenerator(c)
}

func TestGenerate(t *testing.T) {
	dir := t.TempDir()
	logger, hook := test.NewNullLogger()
	report, err := newGenerator(t, dir, WithLogger(logger)).Generate(context.Background(), registry(t, usersFragment()))
	require.NoError(t, err)
	require.NoError(t, report.Err())

	assert.Equal(t, []string{"users"}, report.Generated)
	assert.Equal(t, []string{filepath.Join(dir, "user.go"), filepath.Join(dir, "registry.go")}, report.Files)

	b, err := os.ReadFile(filepath.Join(dir, "user.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), "// Code generated by tablegen. DO NOT EDIT.")
	assert.Contains(t, string(b), "package models")
	assert.Contains(t, string(b), "type User struct")

	b, err = os.ReadFile(filepath.Join(dir, "registry.go"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `var Tables = []string{"users"}`)

	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, "users", hook.LastEntry().Data["table"])
}

func TestGenerateIdempotent(t *testing.T) {
	dir := t.TempDir()
	g := newGenerator(t, dir)
	reg := registry(t, usersFragment())

	_, err := g.Generate(context.Background(), reg)
	require.NoError(t, err)
	first, err := os.ReadFile(filepath.Join(dir, "user.go"))
	require.NoError(t, err)

	_, err = g.Generate(context.Background(), reg)
	require.NoError(t, err)
	second, err := os.ReadFile(filepath.Join(dir, "user.go"))
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestGenerateRejectsTable(t *testing.T) {
	dir := t.TempDir()
	logger, hook := test.NewNullLogger()
	report, err := newGenerator(t, dir, WithLogger(logger)).Generate(context.Background(), registry(t, usersFragment(), postsFragment()))
	require.NoError(t, err)

	assert.Equal(t, []string{"users"}, report.Generated)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "posts", report.Rejected[0].Table)
	assert.ErrorIs(t, report.Err(), ErrValidationFailed)
	var te *TableError
	require.ErrorAs(t, report.Err(), &te)
	assert.True(t, te.HasRule(UnknownIndexColumn))

	assert.FileExists(t, filepath.Join(dir, "user.go"))
	assert.NoFileExists(t, filepath.Join(dir, "post.go"))

	var ruleLogged, rejectLogged bool
	for _, e := range hook.AllEntries() {
		if e.Data["table"] != "posts" {
			continue
		}
		switch {
		case e.Data["rule"] == UnknownIndexColumn:
			ruleLogged = true
		case e.Message == MsgTableRejected:
			rejectLogged = true
			assert.Equal(t, logrus.ErrorLevel, e.Level)
		}
	}
	assert.True(t, ruleLogged)
	assert.True(t, rejectLogged)
}

func TestGenerateMergeFailure(t *testing.T) {
	dup := &schema.Fragment{
		TableName: "users",
		Fields:    []schema.FieldDef{{Name: "email", Type: field.TypeText}},
	}
	dir := t.TempDir()
	report, err := newGenerator(t, dir).Generate(context.Background(), registry(t, usersFragment(), dup))
	require.NoError(t, err)
	require.Len(t, report.Rejected, 1)
	assert.True(t, IsSchemaError(report.Err()))
	assert.ErrorIs(t, report.Err(), schema.ErrDuplicateField)
	assert.Empty(t, report.Generated)
	assert.FileExists(t, filepath.Join(dir, "registry.go"))
}

func TestGenerateDuplicateStructName(t *testing.T) {
	people := usersFragment()
	people.TableName = "people"
	people.StructName = "User"
	report, err := newGenerator(t, t.TempDir()).Generate(context.Background(), registry(t, usersFragment(), people))
	require.NoError(t, err)
	require.Len(t, report.Rejected, 1)
	assert.Equal(t, "people", report.Rejected[0].Table)
	var te *TableError
	require.ErrorAs(t, report.Err(), &te)
	assert.True(t, te.HasRule(DuplicateStructName))
}

func TestGenerateIdentifierClash(t *testing.T) {
	tests := []struct {
		name     string
		tables   []*schema.Fragment
		rejected string
		message  string
	}{
		{
			name: "table_const",
			tables: []*schema.Fragment{usersFragment(), {
				TableName: "user_tables",
				Fields: []schema.FieldDef{
					{Name: "id", Type: field.TypeInt64, Input: field.InputAutoGenerated},
					{Name: "name", Type: field.TypeText},
				},
			}},
			rejected: "user_tables",
			message:  `identifier UserTable is already generated for "users"`,
		},
		{
			name: "column_const",
			tables: []*schema.Fragment{usersFragment(), {
				TableName: "user_column_emails",
				Fields:    []schema.FieldDef{{Name: "value", Type: field.TypeText}},
			}},
			rejected: "user_column_emails",
			message:  `identifier UserColumnEmail is already generated for "users"`,
		},
		{
			name: "registry",
			tables: []*schema.Fragment{usersFragment(), {
				TableName:  "lookups",
				StructName: "Lookup",
				Fields:     []schema.FieldDef{{Name: "key", Type: field.TypeText}},
			}},
			rejected: "lookups",
			message:  `identifier Lookup is already generated for "registry.go"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			report, err := newGenerator(t, dir).Generate(context.Background(), registry(t, tt.tables...))
			require.NoError(t, err)
			assert.Equal(t, []string{"users"}, report.Generated)
			require.Len(t, report.Rejected, 1)
			assert.Equal(t, tt.rejected, report.Rejected[0].Table)
			var te *TableError
			require.ErrorAs(t, report.Err(), &te)
			assert.True(t, te.HasRule(DuplicateStructName))
			assert.Contains(t, te.Error(), tt.message)
			assert.Equal(t, []string{filepath.Join(dir, "user.go"), filepath.Join(dir, RegistryFile)}, report.Files)
		})
	}
}

func TestGenerateConfigErrors(t *testing.T) {
	reg := registry(t, usersFragment())

	_, err := NewGenerator(MustNewConfig(WithTarget(t.TempDir()))).Generate(context.Background(), reg)
	assert.True(t, IsConfigError(err))

	_, err = NewGenerator(MustNewConfig(WithEmitter(stubEmitter{}))).Generate(context.Background(), reg)
	assert.True(t, IsConfigError(err))
}

func TestGenerateRenderFailure(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	_, err := newGenerator(t, dir, WithEmitter(brokenEmitter{})).Generate(context.Background(), registry(t, usersFragment()))
	require.Error(t, err)
	assert.True(t, IsGenerationError(err))
	assert.NoDirExists(t, dir)
}

func TestGenerateWriteFailure(t *testing.T) {
	file := filepath.Join(t.TempDir(), "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	_, err := newGenerator(t, file).Generate(context.Background(), registry(t, usersFragment()))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerateCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newGenerator(t, t.TempDir()).Generate(ctx, registry(t, usersFragment()))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoad(t *testing.T) {
	g, report, err := newGenerator(t, t.TempDir()).Load(context.Background(), registry(t, usersFragment(), postsFragment()))
	require.NoError(t, err)
	require.Len(t, g.Tables, 1)
	assert.Equal(t, "users", g.Tables[0].Name)
	assert.Len(t, report.Rejected, 1)
	assert.Empty(t, report.Files)
}
