package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/tablegen/compiler/gen"
)

// chainMethod is a query builder method delegating to the selector
// method of the same name.
type chainMethod struct {
	name   string
	doc    string
	params func(h *helper) []jen.Code
	args   []jen.Code
}

var chainMethods = []chainMethod{
	{
		name:   "Select",
		doc:    "Select sets the projected columns.",
		params: func(*helper) []jen.Code { return []jen.Code{jen.Id("columns").Op("...").String()} },
		args:   []jen.Code{jen.Id("columns").Op("...")},
	},
	{
		name:   "SelectAggregate",
		doc:    "SelectAggregate adds an aggregate expression projected as alias.",
		params: func(*helper) []jen.Code { return []jen.Code{jen.List(jen.Id("expr"), jen.Id("alias")).String()} },
		args:   []jen.Code{jen.Id("expr"), jen.Id("alias")},
	},
	{
		name: "Where",
		doc:  "Where adds a condition. Conditions are joined with AND.",
		params: func(h *helper) []jen.Code {
			return []jen.Code{
				jen.Id("column").String(),
				jen.Id("op").Qual(h.sqlPkg, "Op"),
				jen.Id("value").Any(),
			}
		},
		args: []jen.Code{jen.Id("column"), jen.Id("op"), jen.Id("value")},
	},
	{
		name: "WhereOr",
		doc:  "WhereOr adds a group of conditions joined with OR.",
		params: func(h *helper) []jen.Code {
			return []jen.Code{jen.Id("preds").Op("...").Qual(h.sqlPkg, "Predicate")}
		},
		args: []jen.Code{jen.Id("preds").Op("...")},
	},
	{
		name: "Join",
		doc:  "Join adds a join clause on left = right.",
		params: func(h *helper) []jen.Code {
			return []jen.Code{
				jen.List(jen.Id("table"), jen.Id("left"), jen.Id("right")).String(),
				jen.Id("kind").Qual(h.sqlPkg, "JoinKind"),
			}
		},
		args: []jen.Code{jen.Id("table"), jen.Id("left"), jen.Id("right"), jen.Id("kind")},
	},
	{
		name:   "GroupBy",
		doc:    "GroupBy adds GROUP BY columns.",
		params: func(*helper) []jen.Code { return []jen.Code{jen.Id("columns").Op("...").String()} },
		args:   []jen.Code{jen.Id("columns").Op("...")},
	},
	{
		name: "Having",
		doc:  "Having adds a HAVING expression; each ? binds the next argument.",
		params: func(*helper) []jen.Code {
			return []jen.Code{jen.Id("expr").String(), jen.Id("args").Op("...").Any()}
		},
		args: []jen.Code{jen.Id("expr"), jen.Id("args").Op("...")},
	},
	{
		name: "OrderBy",
		doc:  "OrderBy adds an ORDER BY term.",
		params: func(h *helper) []jen.Code {
			return []jen.Code{jen.Id("column").String(), jen.Id("dir").Qual(h.sqlPkg, "Direction")}
		},
		args: []jen.Code{jen.Id("column"), jen.Id("dir")},
	},
	{
		name:   "Limit",
		doc:    "Limit sets the maximum number of rows.",
		params: func(*helper) []jen.Code { return []jen.Code{jen.Id("n").Int()} },
		args:   []jen.Code{jen.Id("n")},
	},
	{
		name:   "Offset",
		doc:    "Offset sets the number of rows to skip.",
		params: func(*helper) []jen.Code { return []jen.Code{jen.Id("n").Int()} },
		args:   []jen.Code{jen.Id("n")},
	},
	{
		name:   "Dialect",
		doc:    "Dialect sets the dialect used for placeholders.",
		params: func(*helper) []jen.Code { return []jen.Code{jen.Id("name").String()} },
		args:   []jen.Code{jen.Id("name")},
	},
	{
		name:   "Reset",
		doc:    "Reset clears every clause so the builder can be reused.",
		params: func(*helper) []jen.Code { return nil },
	},
}

// selectorMethod maps a builder method to the selector method it calls.
func selectorMethod(name string) string {
	if name == "Dialect" {
		return "SetDialect"
	}
	return name
}

// genQuery generates the query builder of the table.
func genQuery(h *helper, f *jen.File, t *gen.Table) {
	q := t.QueryName()
	recv := jen.Id("q").Op("*").Id(q)
	f.Commentf("%s builds SELECT queries of the %s table. It is confined to", q, t.Name)
	f.Comment("one goroutine and must be released once done.")
	f.Type().Id(q).Struct(
		jen.Id("sel").Op("*").Qual(h.sqlPkg, "Selector"),
	)

	f.Commentf("New%s returns a builder selecting every column of %s.", q, tableConst(t))
	f.Func().Id("New"+q).Params().Op("*").Id(q).Block(
		jen.Return(jen.Op("&").Id(q).Values(
			jen.Id("sel").Op(":").Qual(h.sqlPkg, "NewSelector").Call(jen.Id(tableConst(t)), jen.Id(selectAllConst(t))),
		)),
	)

	for _, m := range chainMethods {
		f.Comment(m.doc)
		f.Func().Params(recv.Clone()).Id(m.name).Params(m.params(h)...).Op("*").Id(q).Block(
			jen.Id("q").Dot("sel").Dot(selectorMethod(m.name)).Call(m.args...),
			jen.Return(jen.Id("q")),
		)
	}

	f.Comment("Release frees the builder. It must not be used afterwards.")
	f.Func().Params(recv.Clone()).Id("Release").Params().Block(
		jen.Id("q").Dot("sel").Dot("Release").Call(),
	)
	f.Comment("SQL returns the statement and its arguments without executing it.")
	f.Func().Params(recv.Clone()).Id("SQL").Params().Params(jen.String(), jen.Index().Any(), jen.Error()).Block(
		jen.Return(jen.Id("q").Dot("sel").Dot("Query").Call()),
	)
	f.Comment("Selector returns the underlying selector.")
	f.Func().Params(recv.Clone()).Id("Selector").Params().Op("*").Qual(h.sqlPkg, "Selector").Block(
		jen.Return(jen.Id("q").Dot("sel")),
	)

	genFetchers(h, f, t)
	f.Comment("Count returns the number of matching rows.")
	f.Func().Params(recv.Clone()).Id("Count").Params(ctxParams(h)...).Params(jen.Int(), jen.Error()).Block(
		jen.Return(jen.Qual(h.sqlPkg, "Count").Call(jen.Id("ctx"), jen.Id("ex"), jen.Id("q").Dot("sel"))),
	)

	for _, r := range t.Relations {
		f.Commentf("With%s loads the %s relation as an extra column.", r.StructField, r.Name)
		f.Func().Params(recv.Clone()).Id("With"+r.StructField).Params().Op("*").Id(q).Block(
			jen.Id("q").Dot("sel").Dot("WithRelation").Call(jen.Id(relationVar(r))),
			jen.Return(jen.Id("q")),
		)
		f.Commentf("AllWith%s returns every matching row with its %s relation.", r.StructField, r.Name)
		genFetch(h, f, t, "AllWith"+r.StructField, "With"+r.StructField, r.VariantName(), "Fetch", true)
	}
	if len(t.Relations) > 0 {
		f.Comment("WithRelations loads every relation as extra columns.")
		f.Func().Params(recv.Clone()).Id("WithRelations").Params().Op("*").Id(q).Block(
			jen.For(jen.List(jen.Id("_"), jen.Id("r")).Op(":=").Range().Id(relationsVar(t))).Block(
				jen.Id("q").Dot("sel").Dot("WithRelation").Call(jen.Id("r")),
			),
			jen.Return(jen.Id("q")),
		)
		f.Comment("AllWithRelations returns every matching row with all its relations.")
		genFetch(h, f, t, "AllWithRelations", "WithRelations", t.RelationsName(), "Fetch", true)
	}
}

// genFetchers generates All, One and Only.
func genFetchers(h *helper, f *jen.File, t *gen.Table) {
	f.Comment("All returns every matching row.")
	genFetch(h, f, t, "All", "", t.StructName, "Fetch", true)
	f.Comment("One returns the first matching row. It fails with a not-found error")
	f.Comment("when nothing matches.")
	genFetch(h, f, t, "One", "", t.StructName, "FetchOne", false)
	f.Comment("Only returns the single matching row. It fails when nothing or more")
	f.Comment("than one row matches.")
	genFetch(h, f, t, "Only", "", t.StructName, "FetchOnly", false)
}

// genFetch generates a method executing the builder with fetch and
// decoding each row into typ. with names the builder method requesting
// the relations of typ.
func genFetch(h *helper, f *jen.File, t *gen.Table, name, with, typ, fetch string, many bool) {
	out := jen.Op("*").Id(typ)
	if many {
		out = jen.Index().Op("*").Id(typ)
	}
	sel := jen.Id("q").Dot("sel")
	if with != "" {
		sel = jen.Id("q").Dot(with).Call().Dot("sel")
	}
	f.Func().Params(jen.Id("q").Op("*").Id(t.QueryName())).Id(name).Params(ctxParams(h)...).Params(out, jen.Error()).Block(
		jen.Return(jen.Qual(h.sqlPkg, fetch).Call(jen.Id("ctx"), jen.Id("ex"), sel, jen.Id(fromRowFunc(typ)))),
	)
}
