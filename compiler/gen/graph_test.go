package gen

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tablegen/schema/edge"
	"github.com/syssam/tablegen/schema/field"
)

func TestNewGraph(t *testing.T) {
	g := NewGraph(MustNewConfig(), blog()...)
	require.Len(t, g.Tables, 5)

	users := g.Table("users")
	require.NotNil(t, users)
	assert.Equal(t, "User", users.StructName)
	assert.Equal(t, "user.go", users.FileName())
	assert.Equal(t, "SELECT users.* FROM users", users.SelectAll())
	require.NotNil(t, users.ID)
	assert.Equal(t, "ID", users.ID.StructField)
	assert.Equal(t, field.TypeUUID, users.ID.Type)

	require.Len(t, users.Relations, 2)
	posts := users.Relations[0]
	assert.Equal(t, "posts", posts.Name)
	assert.Equal(t, "Posts", posts.StructField)
	assert.True(t, posts.Many)
	assert.Equal(t, g.Table("posts"), posts.Target)
	assert.Equal(t, "author_id", posts.ForeignColumn)
	assert.Equal(t, "UserWithPosts", posts.VariantName())

	profile := users.Relations[1]
	assert.Equal(t, "profile", profile.Name)
	assert.True(t, profile.One())
	assert.Equal(t, edge.O2O, profile.Type)

	tags := g.Table("posts").Relations[1]
	assert.Equal(t, "post_tags", tags.Name)
	assert.Equal(t, g.Table("tags"), tags.Target)
	assert.Equal(t, g.Table("post_tags"), tags.Through)
	assert.Equal(t, "post_id", tags.ThroughLocal)
	assert.Equal(t, "tag_id", tags.ThroughForeign)
	assert.Equal(t, "PostWithPostTags", tags.VariantName())

	junction := g.Table("post_tags")
	assert.Equal(t, "PostTag", junction.StructName)
	assert.False(t, junction.HasID())
	ids := junction.Identifiers()
	assert.Subset(t, ids, []string{
		"PostTag", "PostTagTable", "PostTagSelectAll", "PostTagColumnPostID", "PostTagColumns",
		"PostTagRelationPost", "PostTagRelations", "PostTagFromRow", "PostTagQuery", "NewPostTagQuery",
		"PostTagWithRelations", "NewPostTagWithRelations", "PostTagWithTag", "PostTagWithTagFromRow",
	})
	assert.NotContains(t, ids, "InsertPostTag")
	assert.NotContains(t, ids, "FindPostTagByID")
	assert.Equal(t, "PostTag", ids[0])
}

func TestNewGraphSkipsMissingTargets(t *testing.T) {
	logger, hook := test.NewNullLogger()
	ts := blog()
	g := NewGraph(MustNewConfig(WithLogger(logger)), ts[0], ts[2])

	assert.Len(t, g.Table("users").Relations, 1)
	assert.Empty(t, g.Table("posts").Relations[1:])
	require.NotEmpty(t, hook.AllEntries())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
}

func TestTableFields(t *testing.T) {
	g := NewGraph(MustNewConfig(), blog()...)
	posts := g.Table("posts")

	var insert, update []string
	for _, f := range posts.InsertFields() {
		insert = append(insert, f.Name)
	}
	for _, f := range posts.UpdateFields() {
		update = append(update, f.Name)
	}
	assert.Equal(t, []string{"author_id", "title", "score", "meta", "published_at"}, insert)
	assert.Equal(t, insert, update)

	meta := posts.Field("meta")
	require.NotNil(t, meta)
	assert.True(t, meta.IsJSON())
	assert.True(t, meta.Nullable)
	assert.False(t, meta.Pointer())
	assert.True(t, posts.Field("score").Pointer())
	assert.True(t, posts.Field("score").Optional())
	assert.True(t, posts.Field("id").AutoGenerated())
	assert.Nil(t, posts.Field("missing"))
}

func TestTableFileName(t *testing.T) {
	tests := []struct{ name, want string }{
		{"BlogPost", "blog_post.go"},
		{"Registry", "registry_table.go"},
		{"UnitTest", "unit_test_table.go"},
		{"Test", "test.go"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, (&Table{StructName: tt.name}).FileName())
	}
}
