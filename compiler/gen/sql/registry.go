package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/tablegen/compiler/gen"
)

// genRegistry generates the table registry in discovery order.
func genRegistry(h *helper, f *jen.File, g *gen.Graph) {
	info := jen.Qual(h.sqlPkg, "TableInfo")
	f.Comment("Tables describes every generated table in discovery order.")
	f.Var().Id("Tables").Op("=").Index().Add(info.Clone()).ValuesFunc(func(grp *jen.Group) {
		for _, t := range g.Tables {
			grp.Values(jen.Dict{
				jen.Id("Name"):       jen.Id(tableConst(t)),
				jen.Id("StructName"): jen.Lit(t.StructName),
				jen.Id("Columns"):    jen.Id(columnsVar(t)),
				jen.Id("Relations"):  jen.Id(relationsVar(t)),
			})
		}
	})

	f.Comment("Lookup returns the description of the table with the given name.")
	f.Func().Id("Lookup").Params(jen.Id("name").String()).Params(info.Clone(), jen.Bool()).Block(
		jen.For(jen.List(jen.Id("_"), jen.Id("t")).Op(":=").Range().Id("Tables")).Block(
			jen.If(jen.Id("t").Dot("Name").Op("==").Id("name")).Block(
				jen.Return(jen.Id("t"), jen.True()),
			),
		),
		jen.Return(info.Clone().Values(), jen.False()),
	)
}
