// Package sql emits the data-access code of a table graph for SQL
// databases with the Jennifer code generator.
//
// Usage:
//
//	import (
//	    "github.com/syssam/tablegen/compiler/gen"
//	    "github.com/syssam/tablegen/compiler/gen/sql"
//	)
//
//	cfg, err := gen.NewConfig(gen.WithTarget("./models"), gen.WithEmitter(sql.NewEmitter()))
//	report, err := gen.NewGenerator(cfg).Generate(ctx, reg)
//
// Generated code structure:
//
//	{output}/
//	├── registry.go   # Tables and Lookup
//	└── {table}.go    # record, CRUD, query builder, relation variants
//
// # Type Mapping
//
//	text        string            json         json.RawMessage
//	bool        bool              uuid         uuid.UUID
//	int16..64   int16..int64      timestamp    time.Time
//	float32/64  float32/float64   timestamptz  time.Time
//
// Nullable columns are pointers, except JSON columns whose nil value
// stands for NULL. Insert and update inputs use *sql.Null[T] where a
// column may be both omitted and set to NULL.
//
// The emitted code depends on the runtime packages dialect, dialect/sql,
// dialect/sql/sqlgraph and the root tablegen package.
package sql
