package sql

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tablegen/compiler/gen"
	"github.com/syssam/tablegen/compiler/load"
	"github.com/syssam/tablegen/schema"
	"github.com/syssam/tablegen/schema/edge"
	"github.com/syssam/tablegen/schema/field"
)

// TestGeneratedPackage generates a users and posts package inside the
// module and runs testdata/blogdb_test.go.txt against it.
func TestGeneratedPackage(t *testing.T) {
	if testing.Short() {
		t.Skip("builds generated code")
	}
	gobin, err := exec.LookPath("go")
	if err != nil {
		t.Skip("go command not found")
	}

	reg := load.New()
	require.NoError(t, reg.Register(&schema.Fragment{
		TableName: "users",
		Fields: []schema.FieldDef{
			{Name: "id", Type: field.TypeInt64, Input: field.InputAutoGenerated},
			{Name: "name", Type: field.TypeText, Input: field.InputRequired},
		},
		Relationships: []schema.RelationshipDef{
			{Column: "id", ReferencesTable: "posts", Type: edge.O2M},
		},
	}))
	require.NoError(t, reg.Register(&schema.Fragment{
		TableName: "posts",
		Fields: []schema.FieldDef{
			{Name: "id", Type: field.TypeInt64, Input: field.InputAutoGenerated},
			{Name: "author_id", Type: field.TypeInt64, Input: field.InputRequired},
			{Name: "title", Type: field.TypeText, Input: field.InputRequired},
		},
		Relationships: []schema.RelationshipDef{
			{Column: "author_id", ReferencesTable: "users", Type: edge.M2O},
		},
	}))

	dir, err := os.MkdirTemp(".", "blogdb")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	logger, _ := test.NewNullLogger()
	report, err := Generate(context.Background(), reg, gen.WithTarget(dir), gen.WithPackage("blogdb"), gen.WithLogger(logger))
	require.NoError(t, err)
	require.NoError(t, report.Err())
	require.Equal(t, []string{"users", "posts"}, report.Generated)

	src, err := os.ReadFile(filepath.Join("testdata", "blogdb_test.go.txt"))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "blogdb_test.go"), src, 0o644))

	cmd := exec.Command(gobin, "test", "-count=1", "./"+filepath.Base(dir))
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, string(out))
}
