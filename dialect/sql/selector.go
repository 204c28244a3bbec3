package sql

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/syssam/tablegen/dialect"
)

// Op is a where-clause operator.
type Op uint8

// Operators.
const (
	OpEQ Op = iota + 1
	OpNEQ
	OpLT
	OpLTE
	OpGT
	OpGTE
	OpLike
	OpIn
	OpIsNull
	OpIsNotNull
)

var opText = [...]string{
	OpEQ:        "=",
	OpNEQ:       "<>",
	OpLT:        "<",
	OpLTE:       "<=",
	OpGT:        ">",
	OpGTE:       ">=",
	OpLike:      "LIKE",
	OpIn:        "IN",
	OpIsNull:    "IS NULL",
	OpIsNotNull: "IS NOT NULL",
}

// String returns the SQL text of the operator.
func (o Op) String() string {
	if o > 0 && int(o) < len(opText) {
		return opText[o]
	}
	return fmt.Sprintf("Op(%d)", o)
}

// Direction is an ORDER BY direction.
type Direction uint8

// Directions.
const (
	Asc Direction = iota
	Desc
)

// String returns the SQL keyword of the direction.
func (d Direction) String() string {
	if d == Desc {
		return "DESC"
	}
	return "ASC"
}

// JoinKind is the kind of a join clause.
type JoinKind uint8

// Join kinds.
const (
	InnerJoin JoinKind = iota
	LeftJoin
)

// String returns the SQL keyword of the join kind.
func (k JoinKind) String() string {
	if k == LeftJoin {
		return "LEFT JOIN"
	}
	return "INNER JOIN"
}

// Predicate is a where condition, or a group of conditions built with
// And or Or.
type Predicate struct {
	Column  string
	Op      Op
	Value   any
	group   []Predicate
	grouped bool
	or      bool
}

// P returns a single condition.
func P(column string, op Op, value any) Predicate {
	return Predicate{Column: column, Op: op, Value: value}
}

// Or groups conditions with OR.
func Or(preds ...Predicate) Predicate {
	return Predicate{group: preds, grouped: true, or: true}
}

// And groups conditions with AND.
func And(preds ...Predicate) Predicate {
	return Predicate{group: preds, grouped: true}
}

type (
	join struct {
		table       string
		left, right string
		kind        JoinKind
	}
	having struct {
		expr string
		args []any
	}
	order struct {
		column string
		dir    Direction
	}
)

// State is the lifecycle state of a Selector.
type State uint8

// Selector states.
const (
	// StateUnbuilt is a fresh or reset selector.
	StateUnbuilt State = iota
	// StateConfiguring is a selector with at least one clause call.
	StateConfiguring
	// StateExecuted is a selector consumed by Fetch, FetchOne or Count.
	StateExecuted
	// StateReleased is a selector whose arena was freed.
	StateReleased
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case StateUnbuilt:
		return "unbuilt"
	case StateConfiguring:
		return "configuring"
	case StateExecuted:
		return "executed"
	case StateReleased:
		return "released"
	default:
		return fmt.Sprintf("State(%d)", s)
	}
}

// qualifiedBufSize bounds the table-qualified names assembled on the
// stack. Longer names are appended to the arena piecewise.
const qualifiedBufSize = 64

// Selector is a per-query SELECT builder scoped to one Arena. Clause
// methods return the selector for chaining. Misuse, such as a clause
// call after Release, is recorded and returned by the next Query or
// execution.
//
// A Selector is confined to one goroutine; concurrent queries need
// distinct selectors.
type Selector struct {
	dialect   string
	table     string
	selectAll string
	a         *Arena
	limit     int
	offset    int
	state     State
	err       error
}

// NewSelector returns a selector for the table. selectAll is the
// precomputed "SELECT <table>.* FROM <table>" text used when the query
// has no projection, join or relation of its own. The dialect defaults
// to Postgres.
func NewSelector(table, selectAll string) *Selector {
	if selectAll == "" {
		selectAll = "SELECT " + table + ".* FROM " + table
	}
	return &Selector{
		dialect:   dialect.Postgres,
		table:     table,
		selectAll: selectAll,
		a:         NewArena(),
		limit:     -1,
		offset:    -1,
	}
}

// Table returns the table name of the selector.
func (s *Selector) Table() string { return s.table }

// Dialect returns the dialect used for placeholders.
func (s *Selector) Dialect() string { return s.dialect }

// SetDialect sets the dialect used for placeholders.
func (s *Selector) SetDialect(name string) *Selector {
	s.dialect = dialect.Name(name)
	return s
}

// State returns the lifecycle state.
func (s *Selector) State() State { return s.state }

// Err returns the first recorded misuse error.
func (s *Selector) Err() error { return s.err }

func (s *Selector) setErr(err error) {
	if s.err == nil {
		s.err = err
	}
}

// configure moves the selector to Configuring, or records why it cannot.
func (s *Selector) configure() bool {
	switch s.state {
	case StateReleased:
		s.setErr(ErrReleased)
		return false
	case StateExecuted:
		s.setErr(ErrExecuted)
		return false
	}
	s.state = StateConfiguring
	return true
}

// Select sets the projected columns, replacing the default projection.
func (s *Selector) Select(columns ...string) *Selector {
	if s.configure() {
		s.a.columns = append(s.a.columns, columns...)
	}
	return s
}

// SelectAggregate adds "expr AS alias" to the projection.
func (s *Selector) SelectAggregate(expr, alias string) *Selector {
	if s.configure() {
		s.a.columns = append(s.a.columns, expr+" AS "+alias)
	}
	return s
}

// Where adds a condition. Conditions are joined with AND.
func (s *Selector) Where(column string, op Op, value any) *Selector {
	return s.WhereP(P(column, op, value))
}

// WhereOr adds a group of conditions joined with OR. It is a no-op
// without conditions.
func (s *Selector) WhereOr(preds ...Predicate) *Selector {
	return s.WhereP(Or(preds...))
}

// WhereP adds a predicate.
func (s *Selector) WhereP(p Predicate) *Selector {
	if !s.configure() {
		return s
	}
	if p.empty() {
		return s
	}
	if err := p.check(); err != nil {
		s.setErr(err)
		return s
	}
	s.a.preds = append(s.a.preds, p)
	return s
}

// empty reports if p is a group holding no condition, at any depth.
func (p Predicate) empty() bool {
	if !p.grouped {
		return false
	}
	for _, c := range p.group {
		if !c.empty() {
			return false
		}
	}
	return true
}

func (p Predicate) check() error {
	if p.grouped {
		for _, c := range p.group {
			if c.empty() {
				continue
			}
			if err := c.check(); err != nil {
				return err
			}
		}
		return nil
	}
	if p.Column == "" {
		return errors.New("sql: where: empty column")
	}
	if p.Op == 0 || int(p.Op) >= len(opText) {
		return fmt.Errorf("sql: where %s: unknown operator %d", p.Column, p.Op)
	}
	return nil
}

// Join adds a join clause: "<kind> table ON left = right".
func (s *Selector) Join(table, left, right string, kind JoinKind) *Selector {
	if s.configure() {
		s.a.joins = append(s.a.joins, join{table: table, left: left, right: right, kind: kind})
	}
	return s
}

// WithRelation requests the eager loading of a relation as an extra
// JSON column named after the relation. Requesting the same relation
// twice has no effect.
func (s *Selector) WithRelation(r Relation) *Selector {
	if !s.configure() {
		return s
	}
	if s.HasRelation(r.Name) {
		return s
	}
	if r.Kind != RelOne && r.Kind != RelMany {
		s.setErr(fmt.Errorf("sql: relation %q: unknown kind %d", r.Name, r.Kind))
		return s
	}
	s.a.rels = append(s.a.rels, r)
	return s
}

// HasRelation reports if the relation was requested.
func (s *Selector) HasRelation(name string) bool {
	if s.a == nil {
		return false
	}
	for _, r := range s.a.rels {
		if r.Name == name {
			return true
		}
	}
	return false
}

// GroupBy adds GROUP BY columns.
func (s *Selector) GroupBy(columns ...string) *Selector {
	if s.configure() {
		s.a.groupBy = append(s.a.groupBy, columns...)
	}
	return s
}

// Having adds a HAVING expression. Each "?" in expr binds the next
// argument and is rewritten to the dialect placeholder. Several Having
// calls are joined with AND.
func (s *Selector) Having(expr string, args ...any) *Selector {
	if !s.configure() {
		return s
	}
	if n := strings.Count(expr, "?"); n != len(args) {
		s.setErr(fmt.Errorf("sql: having %q: %d placeholders for %d args", expr, n, len(args)))
		return s
	}
	s.a.having = append(s.a.having, having{expr: expr, args: args})
	return s
}

// OrderBy adds an ORDER BY term.
func (s *Selector) OrderBy(column string, dir Direction) *Selector {
	if s.configure() {
		s.a.orders = append(s.a.orders, order{column: column, dir: dir})
	}
	return s
}

// Limit sets the LIMIT clause. It is rendered as a literal.
func (s *Selector) Limit(n int) *Selector {
	if !s.configure() {
		return s
	}
	if n < 0 {
		s.setErr(fmt.Errorf("sql: negative limit %d", n))
		return s
	}
	s.limit = n
	return s
}

// Offset sets the OFFSET clause. It is rendered as a literal.
func (s *Selector) Offset(n int) *Selector {
	if !s.configure() {
		return s
	}
	if n < 0 {
		s.setErr(fmt.Errorf("sql: negative offset %d", n))
		return s
	}
	s.offset = n
	return s
}

// Reset clears every clause and misuse error and returns the selector to
// Unbuilt. The arena keeps its capacity.
func (s *Selector) Reset() *Selector {
	if s.state == StateReleased {
		s.setErr(ErrReleased)
		return s
	}
	s.a.Reset()
	s.limit, s.offset = -1, -1
	s.state = StateUnbuilt
	s.err = nil
	return s
}

// Release frees the arena. The selector must not be used afterwards;
// Release is idempotent.
func (s *Selector) Release() {
	if s.state == StateReleased {
		return
	}
	s.a.Free()
	s.a = nil
	s.state = StateReleased
}

// Query assembles the SELECT statement. The returned arguments are owned
// by the arena and stay valid until the next Query, Reset or Release.
func (s *Selector) Query() (string, []any, error) {
	if s.state == StateReleased {
		return "", nil, ErrReleased
	}
	if s.err != nil {
		return "", nil, s.err
	}
	s.begin()
	s.build()
	return string(s.a.buf), s.a.args, nil
}

// CountQuery assembles a statement counting the rows the selector would
// return. Grouped or paginated queries are counted over a subquery.
func (s *Selector) CountQuery() (string, []any, error) {
	if s.state == StateReleased {
		return "", nil, ErrReleased
	}
	if s.err != nil {
		return "", nil, s.err
	}
	s.begin()
	s.buildCount()
	return string(s.a.buf), s.a.args, nil
}

// execute builds the query for the executor dialect and consumes the
// selector.
func (s *Selector) execute(name string, count bool) (string, []any, error) {
	switch {
	case s.state == StateReleased:
		return "", nil, ErrReleased
	case s.state == StateExecuted:
		return "", nil, ErrExecuted
	case s.err != nil:
		return "", nil, s.err
	}
	if name != "" {
		s.SetDialect(name)
	}
	s.begin()
	if count {
		s.buildCount()
	} else {
		s.build()
	}
	s.state = StateExecuted
	return string(s.a.buf), s.a.args, nil
}

func (s *Selector) begin() {
	s.a.buf = s.a.buf[:0]
	clear(s.a.args)
	s.a.args = s.a.args[:0]
}

func (s *Selector) build() {
	a := s.a
	qualify := s.hasRelationJoins()
	if len(a.columns) == 0 && len(a.joins) == 0 && len(a.rels) == 0 {
		a.writeString(s.selectAll)
	} else {
		a.writeString("SELECT ")
		s.writeProjection(qualify)
		for _, r := range a.rels {
			a.writeString(", ")
			s.writeRelationColumn(r)
		}
		a.writeString(" FROM ")
		a.writeString(s.table)
	}
	s.writeJoins(true)
	s.writeTail(qualify, true)
}

func (s *Selector) buildCount() {
	a := s.a
	if len(a.groupBy) == 0 && s.limit < 0 && s.offset < 0 {
		a.writeString("SELECT COUNT(*) FROM ")
		a.writeString(s.table)
		s.writeJoins(false)
		s.writeTail(false, false)
		return
	}
	a.writeString("SELECT COUNT(*) FROM (SELECT ")
	switch {
	case len(a.columns) > 0:
		s.writeList(a.columns, false)
	case len(a.groupBy) > 0:
		s.writeList(a.groupBy, false)
	default:
		a.writeByte('1')
	}
	a.writeString(" FROM ")
	a.writeString(s.table)
	s.writeJoins(false)
	s.writeTail(false, false)
	a.writeString(") AS count_rows")
}

func (s *Selector) writeProjection(qualify bool) {
	if len(s.a.columns) > 0 {
		s.writeList(s.a.columns, qualify)
		return
	}
	s.writeQualified(s.table, "*")
}

func (s *Selector) writeJoins(relations bool) {
	a := s.a
	for _, j := range a.joins {
		a.writeByte(' ')
		a.writeString(j.kind.String())
		a.writeByte(' ')
		a.writeString(j.table)
		a.writeString(" ON ")
		a.writeString(j.left)
		a.writeString(" = ")
		a.writeString(j.right)
	}
	if !relations {
		return
	}
	for _, r := range a.rels {
		if r.Kind == RelOne {
			s.writeRelationJoin(r)
		}
	}
}

// writeTail writes the WHERE, GROUP BY, HAVING, ORDER BY, LIMIT and
// OFFSET clauses, in this order.
func (s *Selector) writeTail(qualify, orders bool) {
	a := s.a
	if len(a.preds) > 0 {
		a.writeString(" WHERE ")
		for i, p := range a.preds {
			if i > 0 {
				a.writeString(" AND ")
			}
			s.writePredicate(p, qualify, false)
		}
	}
	if len(a.groupBy) > 0 {
		a.writeString(" GROUP BY ")
		s.writeList(a.groupBy, qualify)
	}
	if len(a.having) > 0 {
		a.writeString(" HAVING ")
		for i, h := range a.having {
			if i > 0 {
				a.writeString(" AND ")
			}
			s.writeHaving(h)
		}
	}
	if orders && len(a.orders) > 0 {
		a.writeString(" ORDER BY ")
		for i, o := range a.orders {
			if i > 0 {
				a.writeString(", ")
			}
			s.writeColumn(o.column, qualify)
			a.writeByte(' ')
			a.writeString(o.dir.String())
		}
	}
	switch {
	case s.limit >= 0:
		a.writeString(" LIMIT ")
		a.buf = strconv.AppendInt(a.buf, int64(s.limit), 10)
	case s.offset >= 0 && s.dialect == dialect.MySQL:
		a.writeString(" LIMIT 18446744073709551615")
	case s.offset >= 0 && s.dialect == dialect.SQLite:
		a.writeString(" LIMIT -1")
	}
	if s.offset >= 0 {
		a.writeString(" OFFSET ")
		a.buf = strconv.AppendInt(a.buf, int64(s.offset), 10)
	}
}

func (s *Selector) writeList(columns []string, qualify bool) {
	for i, c := range columns {
		if i > 0 {
			s.a.writeString(", ")
		}
		s.writeColumn(c, qualify)
	}
}

func (s *Selector) writePredicate(p Predicate, qualify, nested bool) {
	a := s.a
	if p.grouped {
		sep := " AND "
		if p.or {
			sep = " OR "
		}
		n := 0
		for _, c := range p.group {
			if !c.empty() {
				n++
			}
		}
		wrap := n > 1 && (p.or || nested)
		if wrap {
			a.writeByte('(')
		}
		i := 0
		for _, c := range p.group {
			if c.empty() {
				continue
			}
			if i > 0 {
				a.writeString(sep)
			}
			i++
			s.writePredicate(c, qualify, true)
		}
		if wrap {
			a.writeByte(')')
		}
		return
	}
	if p.Op == OpIn {
		s.writeIn(p, qualify)
		return
	}
	s.writeColumn(p.Column, qualify)
	a.writeByte(' ')
	a.writeString(p.Op.String())
	if p.Op == OpIsNull || p.Op == OpIsNotNull {
		return
	}
	a.writeByte(' ')
	s.arg(p.Value)
}

// writeIn expands the value of an IN condition into one placeholder per
// element. An empty list matches no row.
func (s *Selector) writeIn(p Predicate, qualify bool) {
	a := s.a
	var values []any
	switch v := p.Value.(type) {
	case []any:
		values = v
	case []byte:
		values = []any{v}
	default:
		rv := reflect.ValueOf(v)
		if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
			values = make([]any, rv.Len())
			for i := range values {
				values[i] = rv.Index(i).Interface()
			}
		} else {
			values = []any{v}
		}
	}
	if len(values) == 0 {
		a.writeString("1 = 0")
		return
	}
	s.writeColumn(p.Column, qualify)
	a.writeString(" IN (")
	for i, v := range values {
		if i > 0 {
			a.writeString(", ")
		}
		s.arg(v)
	}
	a.writeByte(')')
}

func (s *Selector) writeHaving(h having) {
	a := s.a
	expr, next := h.expr, 0
	for {
		i := strings.IndexByte(expr, '?')
		if i < 0 {
			a.writeString(expr)
			return
		}
		a.writeString(expr[:i])
		s.arg(h.args[next])
		next++
		expr = expr[i+1:]
	}
}

// writeColumn writes a column reference, qualified with the selector
// table when the query joins relation tables and the column is a bare
// identifier.
func (s *Selector) writeColumn(column string, qualify bool) {
	if qualify && isBareIdent(column) {
		s.writeQualified(s.table, column)
		return
	}
	s.a.writeString(column)
}

// writeQualified writes "table.column". Fragments that fit in
// qualifiedBufSize bytes are assembled on the stack and copied in one
// append.
func (s *Selector) writeQualified(table, column string) {
	if len(table)+1+len(column) <= qualifiedBufSize {
		var stack [qualifiedBufSize]byte
		b := append(stack[:0], table...)
		b = append(b, '.')
		b = append(b, column...)
		s.a.buf = append(s.a.buf, b...)
		return
	}
	s.a.writeString(table)
	s.a.writeByte('.')
	s.a.writeString(column)
}

// arg binds a value and writes its placeholder.
func (s *Selector) arg(v any) {
	s.a.args = append(s.a.args, v)
	s.a.buf = appendPlaceholder(s.a.buf, s.dialect, len(s.a.args))
}

func appendPlaceholder(b []byte, name string, n int) []byte {
	if name == dialect.Postgres {
		b = append(b, '$')
		return strconv.AppendInt(b, int64(n), 10)
	}
	return append(b, '?')
}

func (s *Selector) hasRelationJoins() bool {
	for _, r := range s.a.rels {
		if r.Kind == RelOne {
			return true
		}
	}
	return false
}

func isBareIdent(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '_' && !('a' <= c && c <= 'z') && !('A' <= c && c <= 'Z') && !('0' <= c && c <= '9') {
			return false
		}
	}
	return true
}
