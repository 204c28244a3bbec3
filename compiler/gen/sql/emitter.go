package sql

import (
	"context"

	"github.com/dave/jennifer/jen"

	"github.com/syssam/tablegen/compiler/gen"
	"github.com/syssam/tablegen/compiler/load"
)

// Emitter implements gen.Emitter for SQL databases.
type Emitter struct{}

// NewEmitter returns the SQL emitter.
func NewEmitter() *Emitter {
	return &Emitter{}
}

var _ gen.Emitter = (*Emitter)(nil)

// Generate runs the generator with the SQL emitter. It is the
// recommended entry point for code generation.
func Generate(ctx context.Context, reg *load.Registry, opts ...gen.Option) (*gen.Report, error) {
	c, err := gen.NewConfig(append([]gen.Option{gen.WithEmitter(NewEmitter())}, opts...)...)
	if err != nil {
		return nil, err
	}
	return gen.NewGenerator(c).Generate(ctx, reg)
}

// helper carries the import paths of a generation run.
type helper struct {
	graph       *gen.Graph
	rootPkg     string
	dialectPkg  string
	sqlPkg      string
	sqlgraphPkg string
}

func newHelper(g *gen.Graph) *helper {
	return &helper{
		graph:       g,
		rootPkg:     g.RuntimePkg(""),
		dialectPkg:  g.RuntimePkg("dialect"),
		sqlPkg:      g.RuntimePkg("dialect/sql"),
		sqlgraphPkg: g.RuntimePkg("dialect/sql/sqlgraph"),
	}
}

// newFile returns a file with the header and stable import names.
func (h *helper) newFile() *jen.File {
	f := h.graph.NewFile()
	f.ImportName(h.rootPkg, "tablegen")
	f.ImportName(h.dialectPkg, "dialect")
	f.ImportName(h.sqlPkg, "sql")
	f.ImportName(h.sqlgraphPkg, "sqlgraph")
	f.ImportName(uuidPkg, "uuid")
	return f
}

// GenTable renders the file of one table.
func (e *Emitter) GenTable(g *gen.Graph, t *gen.Table) *jen.File {
	h := newHelper(g)
	f := h.newFile()
	genRecord(h, f, t)
	if t.HasID() {
		genCRUD(h, f, t)
	}
	genQuery(h, f, t)
	genVariants(h, f, t)
	return f
}

// GenRegistry renders the cross-table registry file.
func (e *Emitter) GenRegistry(g *gen.Graph) *jen.File {
	h := newHelper(g)
	f := h.newFile()
	genRegistry(h, f, g)
	return f
}

// Identifiers of generated declarations.

func tableConst(t *gen.Table) string     { return t.TableConst() }
func selectAllConst(t *gen.Table) string { return t.SelectAllConst() }
func columnsVar(t *gen.Table) string     { return t.ColumnsVar() }
func relationsVar(t *gen.Table) string   { return t.RelationsVar() }
func fromRowFunc(name string) string     { return gen.FromRowFunc(name) }
func relationVar(r *gen.Relation) string { return r.MetaVar() }

func columnConst(t *gen.Table, f *gen.Field) string { return t.ColumnConst(f) }
