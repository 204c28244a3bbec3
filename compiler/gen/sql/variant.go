package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/tablegen/compiler/gen"
)

// genVariants generates one variant per relation and, when the table has
// relations, the variant holding all of them.
func genVariants(h *helper, f *jen.File, t *gen.Table) {
	if len(t.Relations) == 0 {
		return
	}
	genVariant(h, f, t, t.RelationsName(), t.Relations)
	for _, r := range t.Relations {
		genVariant(h, f, t, r.VariantName(), []*gen.Relation{r})
	}
}

func genVariant(h *helper, f *jen.File, t *gen.Table, name string, rels []*gen.Relation) {
	f.Commentf("%s is a %s with its hydrated relations.", name, t.StructName)
	f.Type().Id(name).StructFunc(func(grp *jen.Group) {
		for _, fd := range t.Fields {
			grp.Id(fd.StructField).Add(goType(fd)).Tag(tags(fd.Name))
		}
		for _, r := range rels {
			typ := jen.Op("*").Id(r.Target.StructName)
			if r.Many {
				typ = jen.Index().Id(r.Target.StructName)
			}
			grp.Id(r.StructField).Add(typ).Tag(map[string]string{"json": r.Name})
		}
	})

	f.Commentf("New%s returns a %s holding the fields of _e.", name, name)
	f.Func().Id("New"+name).Params(jen.Id("_e").Op("*").Id(t.StructName)).Op("*").Id(name).Block(
		jen.Return(jen.Op("&").Id(name).Values(copyFields(t, "_e"))),
	)

	f.Commentf("To%s returns the %s without its relations.", t.StructName, t.StructName)
	f.Func().Params(jen.Id("_v").Op("*").Id(name)).Id("To"+t.StructName).Params().Op("*").Id(t.StructName).Block(
		jen.Return(jen.Op("&").Id(t.StructName).Values(copyFields(t, "_v"))),
	)

	fn := fromRowFunc(name)
	f.Commentf("%s decodes the current row of rows into a %s. Relations that", fn, name)
	f.Comment("were not selected or fail to decode are left empty.")
	f.Func().Id(fn).Params(
		jen.Id("rows").Qual(h.dialectPkg, "Rows"),
		jen.Id("columns").Index().String(),
	).Params(jen.Op("*").Id(name), jen.Error()).BlockFunc(func(grp *jen.Group) {
		grp.List(jen.Id("_e"), jen.Err()).Op(":=").Id(fromRowFunc(t.StructName)).Call(jen.Id("rows"), jen.Id("columns"))
		grp.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err()))
		grp.Id("_v").Op(":=").Id("New" + name).Call(jen.Id("_e"))
		for _, r := range rels {
			decode := "DecodeOne"
			if r.Many {
				decode = "DecodeMany"
			}
			grp.If(
				jen.List(jen.Id("v"), jen.Err()).Op(":=").Id("_e").Dot("Value").Call(jen.Id(relationVar(r)).Dot("Name")),
				jen.Err().Op("==").Nil(),
			).Block(
				jen.Id("_v").Dot(r.StructField).Op("=").Qual(h.sqlgraphPkg, decode).Types(jen.Id(r.Target.StructName)).Call(jen.Id("v")),
			)
		}
		grp.Return(jen.Id("_v"), jen.Nil())
	})
}

// copyFields returns the field values of the record named src.
func copyFields(t *gen.Table, src string) jen.Dict {
	d := jen.Dict{}
	for _, fd := range t.Fields {
		d[jen.Id(fd.StructField)] = jen.Id(src).Dot(fd.StructField)
	}
	return d
}
