package sql

import "sync"

// Arena owns the transient state of one query: the assembled SQL text,
// the bound arguments and the clause lists. Reset truncates everything
// and keeps the capacity, so a builder reused across sequential queries
// does not allocate its clause containers again.
type Arena struct {
	buf     []byte
	args    []any
	columns []string
	preds   []Predicate
	joins   []join
	rels    []Relation
	groupBy []string
	having  []having
	orders  []order
}

var arenaPool = sync.Pool{
	New: func() any { return &Arena{buf: make([]byte, 0, 256)} },
}

// NewArena returns an empty arena from the pool.
func NewArena() *Arena {
	return arenaPool.Get().(*Arena)
}

// Reset truncates the arena, keeping its capacity.
func (a *Arena) Reset() {
	a.buf = a.buf[:0]
	clear(a.args)
	a.args = a.args[:0]
	a.columns = a.columns[:0]
	clear(a.preds)
	a.preds = a.preds[:0]
	a.joins = a.joins[:0]
	clear(a.rels)
	a.rels = a.rels[:0]
	a.groupBy = a.groupBy[:0]
	clear(a.having)
	a.having = a.having[:0]
	a.orders = a.orders[:0]
}

// Free resets the arena and returns it to the pool. The arena must not
// be used afterwards.
func (a *Arena) Free() {
	a.Reset()
	arenaPool.Put(a)
}

// Cap returns the capacity of the SQL buffer and the argument list.
func (a *Arena) Cap() (sql, args int) {
	return cap(a.buf), cap(a.args)
}

func (a *Arena) writeString(s string) { a.buf = append(a.buf, s...) }

func (a *Arena) writeByte(c byte) { a.buf = append(a.buf, c) }
