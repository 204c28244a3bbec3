package sql

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/syssam/tablegen"
	"github.com/syssam/tablegen/dialect"
)

// Statement is a data-modifying statement.
type Statement interface {
	// Build returns the statement text and its arguments for the dialect.
	Build(dialect string) (string, []any, error)
}

type assignment struct {
	column string
	value  any
}

// builder writes statement text with dialect placeholders.
type builder struct {
	strings.Builder
	dialect string
	args    []any
}

func (b *builder) arg(v any) {
	b.args = append(b.args, v)
	if b.dialect == dialect.Postgres {
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(len(b.args)))
		return
	}
	b.WriteByte('?')
}

func (b *builder) list(columns []string) {
	for i, c := range columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(c)
	}
}

func (b *builder) returning(columns []string) {
	if len(columns) > 0 {
		b.WriteString(" RETURNING ")
		b.list(columns)
	}
}

func (b *builder) where(preds []assignment) {
	for i, p := range preds {
		if i == 0 {
			b.WriteString(" WHERE ")
		} else {
			b.WriteString(" AND ")
		}
		b.WriteString(p.column)
		b.WriteString(" = ")
		b.arg(p.value)
	}
}

// InsertBuilder builds an INSERT statement.
type InsertBuilder struct {
	table     string
	values    []assignment
	returning []string
}

// Insert returns a builder for an INSERT into table.
func Insert(table string) *InsertBuilder {
	return &InsertBuilder{table: table}
}

// Set adds a column value.
func (i *InsertBuilder) Set(column string, value any) *InsertBuilder {
	i.values = append(i.values, assignment{column: column, value: value})
	return i
}

// Returning sets the RETURNING columns.
func (i *InsertBuilder) Returning(columns ...string) *InsertBuilder {
	i.returning = columns
	return i
}

// Build implements the Statement interface. An insert without values
// uses the column defaults.
func (i *InsertBuilder) Build(name string) (string, []any, error) {
	if i.table == "" {
		return "", nil, errors.New("sql: insert: missing table")
	}
	b := &builder{dialect: dialect.Name(name)}
	b.WriteString("INSERT INTO ")
	b.WriteString(i.table)
	switch {
	case len(i.values) > 0:
		b.WriteString(" (")
		for j, v := range i.values {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString(v.column)
		}
		b.WriteString(") VALUES (")
		for j, v := range i.values {
			if j > 0 {
				b.WriteString(", ")
			}
			b.arg(v.value)
		}
		b.WriteByte(')')
	case b.dialect == dialect.MySQL:
		b.WriteString(" () VALUES ()")
	default:
		b.WriteString(" DEFAULT VALUES")
	}
	b.returning(i.returning)
	return b.String(), b.args, nil
}

// UpdateBuilder builds an UPDATE statement.
type UpdateBuilder struct {
	table     string
	values    []assignment
	preds     []assignment
	returning []string
}

// Update returns a builder for an UPDATE of table.
func Update(table string) *UpdateBuilder {
	return &UpdateBuilder{table: table}
}

// Set adds a column assignment.
func (u *UpdateBuilder) Set(column string, value any) *UpdateBuilder {
	u.values = append(u.values, assignment{column: column, value: value})
	return u
}

// Where adds an equality condition. Conditions are joined with AND.
func (u *UpdateBuilder) Where(column string, value any) *UpdateBuilder {
	u.preds = append(u.preds, assignment{column: column, value: value})
	return u
}

// Returning sets the RETURNING columns.
func (u *UpdateBuilder) Returning(columns ...string) *UpdateBuilder {
	u.returning = columns
	return u
}

// Empty reports if the update assigns no column.
func (u *UpdateBuilder) Empty() bool { return len(u.values) == 0 }

// Build implements the Statement interface.
func (u *UpdateBuilder) Build(name string) (string, []any, error) {
	if u.table == "" {
		return "", nil, errors.New("sql: update: missing table")
	}
	if u.Empty() {
		return "", nil, fmt.Errorf("sql: update %s: no columns to set", u.table)
	}
	b := &builder{dialect: dialect.Name(name)}
	b.WriteString("UPDATE ")
	b.WriteString(u.table)
	b.WriteString(" SET ")
	for i, v := range u.values {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(v.column)
		b.WriteString(" = ")
		b.arg(v.value)
	}
	b.where(u.preds)
	b.returning(u.returning)
	return b.String(), b.args, nil
}

// DeleteBuilder builds a DELETE statement.
type DeleteBuilder struct {
	table string
	preds []assignment
}

// Delete returns a builder for a DELETE from table.
func Delete(table string) *DeleteBuilder {
	return &DeleteBuilder{table: table}
}

// Where adds an equality condition. Conditions are joined with AND.
func (d *DeleteBuilder) Where(column string, value any) *DeleteBuilder {
	d.preds = append(d.preds, assignment{column: column, value: value})
	return d
}

// Build implements the Statement interface.
func (d *DeleteBuilder) Build(name string) (string, []any, error) {
	if d.table == "" {
		return "", nil, errors.New("sql: delete: missing table")
	}
	b := &builder{dialect: dialect.Name(name)}
	b.WriteString("DELETE FROM ")
	b.WriteString(d.table)
	b.where(d.preds)
	return b.String(), b.args, nil
}

// QueryOne runs a statement with a RETURNING clause and decodes its first
// row. It fails with a *tablegen.NotFoundError when the statement
// returns nothing.
func QueryOne[T any](ctx context.Context, ex dialect.ExecQuerier, label string, stmt Statement, scan ScanFunc[T]) (T, error) {
	var zero T
	query, args, err := stmt.Build(ex.Dialect())
	if err != nil {
		return zero, err
	}
	rows, err := ex.Query(ctx, query, args)
	if err != nil {
		return zero, queryError(query, args, err)
	}
	out, err := scanAll(rows, scan)
	if err != nil {
		return zero, queryError(query, args, err)
	}
	if len(out) == 0 {
		return zero, tablegen.NewNotFoundError(label)
	}
	return out[0], nil
}

// ExecStatement runs a statement and returns the number of affected rows.
func ExecStatement(ctx context.Context, ex dialect.ExecQuerier, stmt Statement) (int64, error) {
	query, args, err := stmt.Build(ex.Dialect())
	if err != nil {
		return 0, err
	}
	n, err := ex.Exec(ctx, query, args)
	if err != nil {
		return 0, queryError(query, args, err)
	}
	return n, nil
}
