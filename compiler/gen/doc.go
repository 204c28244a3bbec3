// Package gen turns canonical table schemas into typed data-access code.
//
// # Architecture
//
// The pipeline is single-threaded and runs in this order:
//
//	schema fragments (compiler/load.Registry)
//	        ↓
//	   merge, one canonical schema per table
//	        ↓
//	   Validate, all-or-nothing per table
//	        ↓
//	   Graph (accepted tables, relations resolved)
//	        ↓
//	   Emitter (compiler/gen/sql)
//	        ↓
//	   one file per table + registry.go
//
// # Key Types
//
//   - Graph: the accepted tables of a run
//   - Table: a table with its fields and resolved relations
//   - Field: a column with its Go name and type
//   - Relation: a relationship with its join columns
//   - Config: generation settings, built with functional options
//
// # Error Handling
//
//   - SchemaError: fragments of a table could not be merged
//   - TableError: a table violates one or more validation rules
//   - ValidationError: one violated rule
//   - ConfigError: invalid configuration
//   - GenerationError: rendering or writing failed, the run is aborted
//
// Rejected tables do not stop the run:
//
//	report, err := gen.NewGenerator(cfg).Generate(ctx, reg)
//	if err != nil {
//	    return err // I/O or render failure
//	}
//	if err := report.Err(); err != nil {
//	    return err // one or more tables rejected
//	}
//
// # Configuration
//
//	cfg, err := gen.NewConfig(
//	    gen.WithTarget("./models"),
//	    gen.WithPackage("models"),
//	    gen.WithNaming("inflect"),
//	    gen.WithEmitter(sql.NewEmitter()),
//	)
//
// # Naming
//
// Table names are singularized and PascalCased into struct names, so
// that "blog_posts" becomes "BlogPost". The default strategy strips a
// single trailing "s"; irregular plurals are not handled ("bus" becomes
// "Bu"). Column names become struct fields with common acronyms kept in
// upper case, so that "author_id" becomes "AuthorID".
package gen
