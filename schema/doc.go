// Package schema holds the in-memory model of a table: fields,
// relationships, indexes and alter overrides.
//
// A TableSchema is created empty, populated by one or more Fragments that
// share its table name, and finalized by folding alters into fields:
//
//	t := schema.New("users")
//	if err := t.Apply(base); err != nil { ... }
//	if err := t.Apply(addBio); err != nil { ... }
//	t.Finalize()
//
// Alters replace the field of the same name in place, so field order is
// stable across schema revisions. Declaring the same field twice outside
// of alters fails with a *DuplicateFieldError.
package schema
