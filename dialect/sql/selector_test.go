package sql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/syssam/tablegen/dialect"
)

var (
	authorRel = Relation{
		Name:          "author",
		Kind:          RelOne,
		Table:         "users",
		Columns:       []Column{{Name: "id"}, {Name: "email"}},
		LocalColumn:   "author_id",
		ForeignColumn: "id",
	}
	tagsRel = Relation{
		Name:           "tags",
		Kind:           RelMany,
		Table:          "tags",
		Columns:        []Column{{Name: "id"}, {Name: "label"}},
		LocalColumn:    "id",
		ForeignColumn:  "id",
		Through:        "post_tags",
		ThroughLocal:   "post_id",
		ThroughForeign: "tag_id",
	}
	postsRel = Relation{
		Name:          "posts",
		Kind:          RelMany,
		Table:         "posts",
		Columns:       []Column{{Name: "id"}, {Name: "created_at", Kind: ColumnTime}},
		LocalColumn:   "id",
		ForeignColumn: "author_id",
	}
)

func posts() *Selector {
	return NewSelector("posts", "SELECT posts.* FROM posts")
}

func TestSelectorQuery(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Selector
		query string
		args  []any
	}{
		{
			name:  "select_all",
			build: posts,
			query: "SELECT posts.* FROM posts",
		},
		{
			name: "clause_order",
			build: func() *Selector {
				return posts().OrderBy("created_at", Desc).Where("active", OpEQ, true).Limit(10)
			},
			query: "SELECT posts.* FROM posts WHERE active = $1 ORDER BY created_at DESC LIMIT 10",
			args:  []any{true},
		},
		{
			name: "columns",
			build: func() *Selector {
				return posts().Select("id", "title")
			},
			query: "SELECT id, title FROM posts",
		},
		{
			name: "mysql_placeholders",
			build: func() *Selector {
				return posts().SetDialect(dialect.MySQL).Where("a", OpEQ, 1).Where("b", OpGT, 2)
			},
			query: "SELECT posts.* FROM posts WHERE a = ? AND b > ?",
			args:  []any{1, 2},
		},
		{
			name: "in_expansion",
			build: func() *Selector {
				return posts().Where("id", OpIn, []int{1, 2, 3}).Where("x", OpEQ, 5)
			},
			query: "SELECT posts.* FROM posts WHERE id IN ($1, $2, $3) AND x = $4",
			args:  []any{1, 2, 3, 5},
		},
		{
			name: "empty_in",
			build: func() *Selector {
				return posts().Where("id", OpIn, []int{})
			},
			query: "SELECT posts.* FROM posts WHERE 1 = 0",
		},
		{
			name: "or_group",
			build: func() *Selector {
				return posts().WhereOr(P("a", OpEQ, 1), P("b", OpIsNull, nil)).Where("c", OpLike, "x%")
			},
			query: "SELECT posts.* FROM posts WHERE (a = $1 OR b IS NULL) AND c LIKE $2",
			args:  []any{1, "x%"},
		},
		{
			name: "nested_and",
			build: func() *Selector {
				return posts().WhereOr(And(P("a", OpEQ, 1), P("b", OpNEQ, 2)), P("c", OpIsNotNull, nil))
			},
			query: "SELECT posts.* FROM posts WHERE ((a = $1 AND b <> $2) OR c IS NOT NULL)",
			args:  []any{1, 2},
		},
		{
			name: "empty_groups",
			build: func() *Selector {
				return posts().
					WhereOr().
					WhereP(And()).
					WhereOr(P("a", OpEQ, 1), And([]Predicate{}...), Or(And())).
					WhereOr(And(P("b", OpEQ, 2), Or()), P("c", OpIsNull, nil))
			},
			query: "SELECT posts.* FROM posts WHERE a = $1 AND (b = $2 OR c IS NULL)",
			args:  []any{1, 2},
		},
		{
			name: "group_having",
			build: func() *Selector {
				return posts().
					Having("COUNT(*) > ?", 5).
					Select("author_id").
					SelectAggregate("COUNT(*)", "n").
					GroupBy("author_id").
					Where("active", OpEQ, true)
			},
			query: "SELECT author_id, COUNT(*) AS n FROM posts WHERE active = $1 GROUP BY author_id HAVING COUNT(*) > $2",
			args:  []any{true, 5},
		},
		{
			name: "limit_offset",
			build: func() *Selector {
				return posts().Offset(20).Limit(10)
			},
			query: "SELECT posts.* FROM posts LIMIT 10 OFFSET 20",
		},
		{
			name: "offset_postgres",
			build: func() *Selector {
				return posts().Offset(5)
			},
			query: "SELECT posts.* FROM posts OFFSET 5",
		},
		{
			name: "offset_mysql",
			build: func() *Selector {
				return posts().SetDialect(dialect.MySQL).Offset(5)
			},
			query: "SELECT posts.* FROM posts LIMIT 18446744073709551615 OFFSET 5",
		},
		{
			name: "offset_sqlite",
			build: func() *Selector {
				return posts().SetDialect(dialect.SQLite).Offset(5)
			},
			query: "SELECT posts.* FROM posts LIMIT -1 OFFSET 5",
		},
		{
			name: "join",
			build: func() *Selector {
				return posts().Join("users", "users.id", "posts.author_id", InnerJoin).Where("users.active", OpEQ, true)
			},
			query: "SELECT posts.* FROM posts INNER JOIN users ON users.id = posts.author_id WHERE users.active = $1",
			args:  []any{true},
		},
		{
			name: "left_join",
			build: func() *Selector {
				return posts().Join("users", "users.id", "posts.author_id", LeftJoin)
			},
			query: "SELECT posts.* FROM posts LEFT JOIN users ON users.id = posts.author_id",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.build()
			defer s.Release()
			query, args, err := s.Query()
			require.NoError(t, err)
			assert.Equal(t, tt.query, query)
			if tt.args == nil {
				assert.Empty(t, args)
			} else {
				assert.Equal(t, tt.args, args)
			}
		})
	}
}

func TestSelectorDefaultSelectAll(t *testing.T) {
	s := NewSelector("users", "")
	defer s.Release()
	query, _, err := s.Query()
	require.NoError(t, err)
	assert.Equal(t, "SELECT users.* FROM users", query)
	assert.Equal(t, "users", s.Table())
	assert.Equal(t, dialect.Postgres, s.Dialect())
}

func TestSelectorErrors(t *testing.T) {
	tests := []struct {
		name  string
		build func(*Selector)
		msg   string
	}{
		{"having_args", func(s *Selector) { s.Having("COUNT(*) > ? AND SUM(x) < ?", 1) }, "2 placeholders for 1 args"},
		{"negative_limit", func(s *Selector) { s.Limit(-1) }, "negative limit"},
		{"negative_offset", func(s *Selector) { s.Offset(-3) }, "negative offset"},
		{"unknown_op", func(s *Selector) { s.Where("a", Op(42), 1) }, "unknown operator"},
		{"empty_column", func(s *Selector) { s.WhereOr(P("", OpEQ, 1)) }, "empty column"},
		{"relation_kind", func(s *Selector) { s.WithRelation(Relation{Name: "x"}) }, "unknown kind"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := posts()
			defer s.Release()
			tt.build(s)
			require.Error(t, s.Err())
			_, _, err := s.Query()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)

			// The first error is kept and Reset clears it.
			s.Limit(-5)
			assert.Contains(t, s.Err().Error(), tt.msg)
			s.Reset()
			assert.NoError(t, s.Err())
		})
	}
}

func TestSelectorLifecycle(t *testing.T) {
	s := posts()
	assert.Equal(t, StateUnbuilt, s.State())
	s.Where("active", OpEQ, true)
	assert.Equal(t, StateConfiguring, s.State())
	_, _, err := s.Query()
	require.NoError(t, err)
	assert.Equal(t, StateConfiguring, s.State())

	query, _, err := s.execute(dialect.MySQL, false)
	require.NoError(t, err)
	assert.Equal(t, "SELECT posts.* FROM posts WHERE active = ?", query)
	assert.Equal(t, StateExecuted, s.State())
	_, _, err = s.execute(dialect.MySQL, false)
	assert.ErrorIs(t, err, ErrExecuted)
	_, _, err = s.Query()
	assert.NoError(t, err)

	s.Limit(1)
	assert.ErrorIs(t, s.Err(), ErrExecuted)
	s.Reset()
	assert.Equal(t, StateUnbuilt, s.State())
	assert.NoError(t, s.Err())

	s.Release()
	assert.Equal(t, StateReleased, s.State())
	s.Release()
	s.Where("a", OpEQ, 1)
	assert.ErrorIs(t, s.Err(), ErrReleased)
	_, _, err = s.Query()
	assert.ErrorIs(t, err, ErrReleased)
	_, _, err = s.CountQuery()
	assert.ErrorIs(t, err, ErrReleased)
	assert.False(t, s.HasRelation("author"))
}

func TestSelectorResetKeepsCapacity(t *testing.T) {
	s := posts()
	defer s.Release()
	for i := 0; i < 20; i++ {
		s.Where("column_with_a_long_name", OpEQ, i)
	}
	_, _, err := s.Query()
	require.NoError(t, err)
	sqlCap, argsCap := s.a.Cap()
	require.GreaterOrEqual(t, argsCap, 20)

	s.Reset()
	gotSQL, gotArgs := s.a.Cap()
	assert.Equal(t, sqlCap, gotSQL)
	assert.Equal(t, argsCap, gotArgs)
	query, args, err := s.Query()
	require.NoError(t, err)
	assert.Equal(t, "SELECT posts.* FROM posts", query)
	assert.Empty(t, args)
}

func TestSelectorLongQualifiedName(t *testing.T) {
	table := strings.Repeat("t", qualifiedBufSize+10)
	s := NewSelector(table, "")
	defer s.Release()
	s.Join("users", "users.id", table+".user_id", InnerJoin)
	query, _, err := s.Query()
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(query, "SELECT "+table+".* FROM "+table+" INNER JOIN"), query)
}

func TestSelectorRelations(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Selector
		query string
	}{
		{
			name: "one_postgres",
			build: func() *Selector {
				return posts().WithRelation(authorRel).Where("active", OpEQ, true).OrderBy("id", Desc)
			},
			query: "SELECT posts.*, CASE WHEN rel_author.id IS NULL THEN NULL ELSE json_build_object('id', rel_author.id, 'email', rel_author.email) END AS author " +
				"FROM posts LEFT JOIN users AS rel_author ON rel_author.id = posts.author_id WHERE posts.active = $1 ORDER BY posts.id DESC",
		},
		{
			name: "many_through_postgres",
			build: func() *Selector {
				return posts().WithRelation(tagsRel).Where("active", OpEQ, true)
			},
			query: "SELECT posts.*, COALESCE((SELECT json_agg(json_build_object('id', rel_tags.id, 'label', rel_tags.label)) FROM tags AS rel_tags " +
				"INNER JOIN post_tags AS rel_tags_j ON rel_tags_j.tag_id = rel_tags.id WHERE rel_tags_j.post_id = posts.id), '[]'::json) AS tags " +
				"FROM posts WHERE active = $1",
		},
		{
			name: "many_sqlite",
			build: func() *Selector {
				return NewSelector("users", "").SetDialect(dialect.SQLite).WithRelation(postsRel)
			},
			query: "SELECT users.*, COALESCE((SELECT json_group_array(json_object('id', rel_posts.id, 'created_at', strftime('%Y-%m-%dT%H:%M:%fZ', rel_posts.created_at))) " +
				"FROM posts AS rel_posts WHERE rel_posts.author_id = users.id), json('[]')) AS posts FROM users",
		},
		{
			name: "many_mysql",
			build: func() *Selector {
				return NewSelector("users", "").SetDialect(dialect.MySQL).WithRelation(postsRel)
			},
			query: "SELECT users.*, COALESCE((SELECT JSON_ARRAYAGG(JSON_OBJECT('id', rel_posts.id, 'created_at', DATE_FORMAT(rel_posts.created_at, '%Y-%m-%dT%H:%i:%s.%fZ'))) " +
				"FROM posts AS rel_posts WHERE rel_posts.author_id = users.id), JSON_ARRAY()) AS posts FROM users",
		},
		{
			name: "one_mysql_bool",
			build: func() *Selector {
				r := authorRel
				r.Columns = []Column{{Name: "id"}, {Name: "active", Kind: ColumnBool}}
				return posts().SetDialect(dialect.MySQL).WithRelation(r)
			},
			query: "SELECT posts.*, CASE WHEN rel_author.id IS NULL THEN NULL ELSE JSON_OBJECT('id', rel_author.id, 'active', " +
				"IF(rel_author.active IS NULL, NULL, CAST(IF(rel_author.active, 'true', 'false') AS JSON))) END AS author " +
				"FROM posts LEFT JOIN users AS rel_author ON rel_author.id = posts.author_id",
		},
		{
			name: "one_postgres_time",
			build: func() *Selector {
				r := authorRel
				r.Columns = []Column{{Name: "seen_at", Kind: ColumnTime}, {Name: "meta", Kind: ColumnJSON}}
				return posts().WithRelation(r)
			},
			query: "SELECT posts.*, CASE WHEN rel_author.id IS NULL THEN NULL ELSE json_build_object('seen_at', rel_author.seen_at AT TIME ZONE 'UTC', 'meta', rel_author.meta) END AS author " +
				"FROM posts LEFT JOIN users AS rel_author ON rel_author.id = posts.author_id",
		},
		{
			name: "one_sqlite_bool_json",
			build: func() *Selector {
				r := authorRel
				r.Columns = []Column{{Name: "active", Kind: ColumnBool}, {Name: "meta", Kind: ColumnJSON}}
				return posts().SetDialect(dialect.SQLite).WithRelation(r)
			},
			query: "SELECT posts.*, CASE WHEN rel_author.id IS NULL THEN NULL ELSE json_object('active', CASE WHEN rel_author.active IS NULL THEN NULL WHEN rel_author.active THEN json('true') ELSE json('false') END, " +
				"'meta', json(rel_author.meta)) END AS author FROM posts LEFT JOIN users AS rel_author ON rel_author.id = posts.author_id",
		},
		{
			name: "columns_with_one",
			build: func() *Selector {
				return posts().Select("id", "title", "author_id").SelectAggregate("LENGTH(title)", "n").WithRelation(authorRel).Where("id", OpEQ, 1)
			},
			query: "SELECT posts.id, posts.title, posts.author_id, LENGTH(title) AS n, CASE WHEN rel_author.id IS NULL THEN NULL ELSE json_build_object('id', rel_author.id, 'email', rel_author.email) END AS author " +
				"FROM posts LEFT JOIN users AS rel_author ON rel_author.id = posts.author_id WHERE posts.id = $1",
		},
		{
			name: "deduplicated",
			build: func() *Selector {
				return posts().WithRelation(tagsRel).WithRelation(tagsRel).Select("id")
			},
			query: "SELECT id, COALESCE((SELECT json_agg(json_build_object('id', rel_tags.id, 'label', rel_tags.label)) FROM tags AS rel_tags " +
				"INNER JOIN post_tags AS rel_tags_j ON rel_tags_j.tag_id = rel_tags.id WHERE rel_tags_j.post_id = posts.id), '[]'::json) AS tags FROM posts",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.build()
			defer s.Release()
			query, _, err := s.Query()
			require.NoError(t, err)
			assert.Equal(t, tt.query, query)
		})
	}
}

func TestSelectorCountQuery(t *testing.T) {
	tests := []struct {
		name  string
		build func() *Selector
		query string
		args  []any
	}{
		{
			name: "plain",
			build: func() *Selector {
				return posts().Where("active", OpEQ, true).OrderBy("id", Asc).WithRelation(authorRel)
			},
			query: "SELECT COUNT(*) FROM posts WHERE active = $1",
			args:  []any{true},
		},
		{
			name: "paginated",
			build: func() *Selector {
				return posts().Where("active", OpEQ, true).OrderBy("id", Asc).Limit(10).Offset(10)
			},
			query: "SELECT COUNT(*) FROM (SELECT 1 FROM posts WHERE active = $1 LIMIT 10 OFFSET 10) AS count_rows",
			args:  []any{true},
		},
		{
			name: "grouped",
			build: func() *Selector {
				return posts().GroupBy("author_id").Having("COUNT(*) > ?", 1)
			},
			query: "SELECT COUNT(*) FROM (SELECT author_id FROM posts GROUP BY author_id HAVING COUNT(*) > $1) AS count_rows",
			args:  []any{1},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := tt.build()
			defer s.Release()
			query, args, err := s.CountQuery()
			require.NoError(t, err)
			assert.Equal(t, tt.query, query)
			assert.Equal(t, tt.args, args)
		})
	}
}

func TestEnumStrings(t *testing.T) {
	assert.Equal(t, "LIKE", OpLike.String())
	assert.Equal(t, "Op(99)", Op(99).String())
	assert.Equal(t, "DESC", Desc.String())
	assert.Equal(t, "ASC", Asc.String())
	assert.Equal(t, "LEFT JOIN", LeftJoin.String())
	assert.Equal(t, "executed", StateExecuted.String())
	assert.Equal(t, "many", RelMany.String())
}
