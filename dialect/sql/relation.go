package sql

import "github.com/syssam/tablegen/dialect"

// relationAlias returns the alias of the related table of a relation.
func relationAlias(r Relation) string { return "rel_" + r.Name }

// writeRelationJoin writes the LEFT JOIN of a to-one relation:
//
//	LEFT JOIN users AS rel_author ON rel_author.id = posts.author_id
func (s *Selector) writeRelationJoin(r Relation) {
	a, alias := s.a, relationAlias(r)
	a.writeString(" LEFT JOIN ")
	a.writeString(r.Table)
	a.writeString(" AS ")
	a.writeString(alias)
	a.writeString(" ON ")
	s.writeQualified(alias, r.ForeignColumn)
	a.writeString(" = ")
	s.writeQualified(s.table, r.LocalColumn)
}

// writeRelationColumn writes the projected JSON column of a relation.
// To-one relations read the joined row and yield NULL when it is
// missing. To-many relations aggregate a correlated subquery and yield
// an empty array when nothing matches.
func (s *Selector) writeRelationColumn(r Relation) {
	a, alias := s.a, relationAlias(r)
	if r.Kind == RelOne {
		a.writeString("CASE WHEN ")
		s.writeQualified(alias, r.ForeignColumn)
		a.writeString(" IS NULL THEN NULL ELSE ")
		s.writeObject(r, alias)
		a.writeString(" END AS ")
		a.writeString(r.Name)
		return
	}
	agg, empty := "json_agg", "'[]'::json"
	switch s.dialect {
	case dialect.MySQL:
		agg, empty = "JSON_ARRAYAGG", "JSON_ARRAY()"
	case dialect.SQLite:
		agg, empty = "json_group_array", "json('[]')"
	}
	a.writeString("COALESCE((SELECT ")
	a.writeString(agg)
	a.writeByte('(')
	s.writeObject(r, alias)
	a.writeString(") FROM ")
	a.writeString(r.Table)
	a.writeString(" AS ")
	a.writeString(alias)
	if r.Through != "" {
		junction := alias + "_j"
		a.writeString(" INNER JOIN ")
		a.writeString(r.Through)
		a.writeString(" AS ")
		a.writeString(junction)
		a.writeString(" ON ")
		s.writeQualified(junction, r.ThroughForeign)
		a.writeString(" = ")
		s.writeQualified(alias, r.ForeignColumn)
		a.writeString(" WHERE ")
		s.writeQualified(junction, r.ThroughLocal)
	} else {
		a.writeString(" WHERE ")
		s.writeQualified(alias, r.ForeignColumn)
	}
	a.writeString(" = ")
	s.writeQualified(s.table, r.LocalColumn)
	a.writeString("), ")
	a.writeString(empty)
	a.writeString(") AS ")
	a.writeString(r.Name)
}

// writeObject writes the JSON object constructor of the related columns.
func (s *Selector) writeObject(r Relation, alias string) {
	a := s.a
	switch s.dialect {
	case dialect.MySQL:
		a.writeString("JSON_OBJECT(")
	case dialect.SQLite:
		a.writeString("json_object(")
	default:
		a.writeString("json_build_object(")
	}
	for i, c := range r.Columns {
		if i > 0 {
			a.writeString(", ")
		}
		a.writeByte('\'')
		a.writeString(escapeStringValue(c.Name))
		a.writeString("', ")
		s.writeJSONValue(alias, c)
	}
	a.writeByte(')')
}

// writeJSONValue writes a column so that its JSON rendering decodes into
// the generated field type.
func (s *Selector) writeJSONValue(alias string, c Column) {
	a := s.a
	switch s.dialect {
	case dialect.MySQL:
		switch c.Kind {
		case ColumnTime, ColumnTimeTZ:
			a.writeString("DATE_FORMAT(")
			s.writeQualified(alias, c.Name)
			a.writeString(", '%Y-%m-%dT%H:%i:%s.%fZ')")
			return
		case ColumnBool:
			a.writeString("IF(")
			s.writeQualified(alias, c.Name)
			a.writeString(" IS NULL, NULL, CAST(IF(")
			s.writeQualified(alias, c.Name)
			a.writeString(", 'true', 'false') AS JSON))")
			return
		}
	case dialect.SQLite:
		switch c.Kind {
		case ColumnTime, ColumnTimeTZ:
			a.writeString("strftime('%Y-%m-%dT%H:%M:%fZ', ")
			s.writeQualified(alias, c.Name)
			a.writeByte(')')
			return
		case ColumnBool:
			a.writeString("CASE WHEN ")
			s.writeQualified(alias, c.Name)
			a.writeString(" IS NULL THEN NULL WHEN ")
			s.writeQualified(alias, c.Name)
			a.writeString(" THEN json('true') ELSE json('false') END")
			return
		case ColumnJSON:
			a.writeString("json(")
			s.writeQualified(alias, c.Name)
			a.writeByte(')')
			return
		}
	default:
		if c.Kind == ColumnTime {
			s.writeQualified(alias, c.Name)
			a.writeString(" AT TIME ZONE 'UTC'")
			return
		}
	}
	s.writeQualified(alias, c.Name)
}
