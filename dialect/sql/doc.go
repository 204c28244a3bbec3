// Package sql is the runtime used by generated data-access code: a
// per-query SELECT builder backed by a pooled arena, INSERT, UPDATE and
// DELETE statements, and database/sql based executors.
//
// # Selector
//
// A Selector accumulates clauses in any order and renders them in SQL
// order. Values are always bound; LIMIT and OFFSET are literals.
//
//	s := sql.NewSelector("posts", "SELECT posts.* FROM posts")
//	defer s.Release()
//	s.OrderBy("created_at", sql.Desc).
//	    Where("active", sql.OpEQ, true).
//	    Limit(10)
//	query, args, err := s.Query()
//	// SELECT posts.* FROM posts WHERE active = $1 ORDER BY created_at DESC LIMIT 10
//
// Placeholders follow the dialect: $n for Postgres and ? for MySQL and
// SQLite. Fetch, FetchOne, FetchOnly and Count switch the selector to
// the dialect of their executor.
//
// # Relations
//
// WithRelation projects a related table as one JSON column named after
// the relation. To-one relations are LEFT JOINed and yield NULL when the
// row is missing; to-many relations are aggregated by a correlated
// subquery and yield an empty array when nothing matches.
//
// # Lifecycle
//
// A selector is Unbuilt until its first clause, Configuring afterwards,
// and Executed once run. Reset returns it to Unbuilt and keeps the arena
// capacity; Release frees the arena. Clause calls on an executed or
// released selector are recorded as errors and reported by the next
// Query or execution.
package sql
