package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/tablegen/compiler/gen"
)

// genRecord generates the record struct, its table metadata and the
// row decoding methods.
func genRecord(h *helper, f *jen.File, t *gen.Table) {
	f.Commentf("%s is the record of the %s table.", t.StructName, t.Name)
	f.Type().Id(t.StructName).StructFunc(func(grp *jen.Group) {
		for _, fd := range t.Fields {
			grp.Id(fd.StructField).Add(goType(fd)).Tag(tags(fd.Name))
		}
		grp.Id("selectValues").Qual(h.sqlPkg, "SelectValues")
	})

	genConstants(f, t)
	genRelationMeta(h, f, t)
	genScanValues(h, f, t)
	genAssignValues(h, f, t)
	genFromRow(h, f, t)

	f.Comment("Value returns the value of a selected column that has no matching field,")
	f.Comment("such as an aggregate or a relation column.")
	f.Func().Params(jen.Id("_e").Op("*").Id(t.StructName)).Id("Value").Params(
		jen.Id("name").String(),
	).Params(jen.Any(), jen.Error()).Block(
		jen.Return(jen.Id("_e").Dot("selectValues").Dot("Get").Call(jen.Id("name"))),
	)
}

// genConstants generates the table name, the select-all query and the
// column names.
func genConstants(f *jen.File, t *gen.Table) {
	f.Const().DefsFunc(func(grp *jen.Group) {
		grp.Commentf("%s is the name of the %s table.", tableConst(t), t.StructName)
		grp.Id(tableConst(t)).Op("=").Lit(t.Name)
		grp.Commentf("%s selects every column of %s.", selectAllConst(t), tableConst(t))
		grp.Id(selectAllConst(t)).Op("=").Lit(t.SelectAll())
		for _, fd := range t.Fields {
			grp.Id(columnConst(t, fd)).Op("=").Lit(fd.Name)
		}
	})
	f.Commentf("%s holds the columns of %s in declaration order.", columnsVar(t), tableConst(t))
	f.Var().Id(columnsVar(t)).Op("=").Index().String().ValuesFunc(func(grp *jen.Group) {
		for _, fd := range t.Fields {
			grp.Id(columnConst(t, fd))
		}
	})
}

// genRelationMeta generates the hydration metadata of each relation.
func genRelationMeta(h *helper, f *jen.File, t *gen.Table) {
	if len(t.Relations) > 0 {
		f.Var().DefsFunc(func(grp *jen.Group) {
			for _, r := range t.Relations {
				grp.Commentf("%s hydrates the %s relation.", relationVar(r), r.Name)
				grp.Id(relationVar(r)).Op("=").Qual(h.sqlPkg, "Relation").Values(relationDict(h, r))
			}
		})
	}
	f.Commentf("%s holds the relations of %s.", relationsVar(t), tableConst(t))
	f.Var().Id(relationsVar(t)).Op("=").Index().Qual(h.sqlPkg, "Relation").ValuesFunc(func(grp *jen.Group) {
		for _, r := range t.Relations {
			grp.Id(relationVar(r))
		}
	})
}

func relationDict(h *helper, r *gen.Relation) jen.Dict {
	kind := "RelOne"
	if r.Many {
		kind = "RelMany"
	}
	d := jen.Dict{
		jen.Id("Name"):          jen.Lit(r.Name),
		jen.Id("Kind"):          jen.Qual(h.sqlPkg, kind),
		jen.Id("Table"):         jen.Id(tableConst(r.Target)),
		jen.Id("LocalColumn"):   jen.Lit(r.LocalColumn),
		jen.Id("ForeignColumn"): jen.Lit(r.ForeignColumn),
		jen.Id("Columns"): jen.Index().Qual(h.sqlPkg, "Column").ValuesFunc(func(grp *jen.Group) {
			for _, fd := range r.Target.Fields {
				c := []jen.Code{jen.Id("Name").Op(":").Lit(fd.Name)}
				if k := columnKind(fd); k != "" {
					c = append(c, jen.Id("Kind").Op(":").Qual(h.sqlPkg, k))
				}
				grp.Values(c...)
			}
		}),
	}
	if r.Through != nil {
		d[jen.Id("Through")] = jen.Id(tableConst(r.Through))
		d[jen.Id("ThroughLocal")] = jen.Lit(r.ThroughLocal)
		d[jen.Id("ThroughForeign")] = jen.Lit(r.ThroughForeign)
	}
	return d
}

// genScanValues generates the scanValues method that returns the scan
// destinations of the columns. Columns without a field, such as
// aggregates and relations, are scanned as any.
func genScanValues(h *helper, f *jen.File, t *gen.Table) {
	f.Comment("scanValues returns the types for scanning values from sql.Rows.")
	f.Func().Params(jen.Op("*").Id(t.StructName)).Id("scanValues").Params(
		jen.Id("columns").Index().String(),
	).Params(jen.Index().Any(), jen.Error()).BlockFunc(func(grp *jen.Group) {
		grp.Id("values").Op(":=").Make(jen.Index().Any(), jen.Len(jen.Id("columns")))
		grp.For(jen.Id("i").Op(":=").Range().Id("columns")).Block(
			jen.Switch(jen.Id("columns").Index(jen.Id("i"))).BlockFunc(func(sw *jen.Group) {
				var (
					keys   []string
					groups = make(map[string][]*gen.Field)
				)
				for _, fd := range t.Fields {
					k := scanKey(fd)
					if _, ok := groups[k]; !ok {
						keys = append(keys, k)
					}
					groups[k] = append(groups[k], fd)
				}
				for _, k := range keys {
					fs := groups[k]
					cases := make([]jen.Code, len(fs))
					for i, fd := range fs {
						cases[i] = jen.Id(columnConst(t, fd))
					}
					sw.Case(cases...).Block(
						jen.Id("values").Index(jen.Id("i")).Op("=").New(scanType(h, fs[0])),
					)
				}
				sw.Default().Block(
					jen.Id("values").Index(jen.Id("i")).Op("=").New(jen.Any()),
				)
			}),
		)
		grp.Return(jen.Id("values"), jen.Nil())
	})
}

// genAssignValues generates the assignValues method that assigns the
// scanned values to the record fields.
func genAssignValues(h *helper, f *jen.File, t *gen.Table) {
	f.Comment("assignValues assigns the values that were returned from sql.Rows (after scanning)")
	f.Commentf("to the %s fields.", t.StructName)
	f.Func().Params(jen.Id("_e").Op("*").Id(t.StructName)).Id("assignValues").Params(
		jen.Id("columns").Index().String(),
		jen.Id("values").Index().Any(),
	).Error().BlockFunc(func(grp *jen.Group) {
		grp.If(
			jen.List(jen.Id("m"), jen.Id("n")).Op(":=").List(jen.Len(jen.Id("values")), jen.Len(jen.Id("columns"))),
			jen.Id("m").Op("<").Id("n"),
		).Block(
			jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("mismatch number of scan values: %d != %d"), jen.Id("m"), jen.Id("n"))),
		)
		grp.For(jen.Id("i").Op(":=").Range().Id("columns")).Block(
			jen.Switch(jen.Id("columns").Index(jen.Id("i"))).BlockFunc(func(sw *jen.Group) {
				for _, fd := range t.Fields {
					sw.Case(jen.Id(columnConst(t, fd))).BlockFunc(func(c *jen.Group) {
						genFieldAssignment(h, c, fd)
					})
				}
				sw.Default().Block(
					jen.Id("_e").Dot("selectValues").Dot("Set").Call(jen.Id("columns").Index(jen.Id("i")), jen.Id("values").Index(jen.Id("i"))),
				)
			}),
		)
		grp.Return(jen.Nil())
	})
}

// genFieldAssignment generates the assignment of one scanned value.
func genFieldAssignment(h *helper, grp *jen.Group, fd *gen.Field) {
	value := jen.Id("values").Index(jen.Id("i"))
	mismatch := jen.Return(jen.Qual("fmt", "Errorf").Call(jen.Lit("unexpected type %T for field "+fd.Name), value.Clone()))
	target := jen.Id("_e").Dot(fd.StructField)
	if fd.IsJSON() {
		grp.If(
			jen.List(jen.Id("value"), jen.Id("ok")).Op(":=").Add(value.Clone()).Assert(jen.Op("*").Index().Byte()),
			jen.Op("!").Id("ok"),
		).Block(mismatch).Else().If(jen.Op("*").Id("value").Op("!=").Nil()).Block(
			target.Clone().Op("=").Qual(jsonPkg, "RawMessage").Call(jen.Op("*").Id("value")),
		)
		return
	}
	grp.If(
		jen.List(jen.Id("value"), jen.Id("ok")).Op(":=").Add(value.Clone()).Assert(jen.Op("*").Add(scanType(h, fd))),
		jen.Op("!").Id("ok"),
	).Block(mismatch).Else().If(jen.Id("value").Dot("Valid")).BlockFunc(func(valid *jen.Group) {
		if fd.Pointer() {
			valid.Add(target.Clone()).Op("=").New(baseType(fd))
			valid.Op("*").Add(target.Clone()).Op("=").Add(scanValue(fd))
			return
		}
		valid.Add(target.Clone()).Op("=").Add(scanValue(fd))
	})
}

// genFromRow generates the constructor decoding the current row.
func genFromRow(h *helper, f *jen.File, t *gen.Table) {
	name := fromRowFunc(t.StructName)
	f.Commentf("%s decodes the current row of rows into a %s.", name, t.StructName)
	f.Func().Id(name).Params(
		jen.Id("rows").Qual(h.dialectPkg, "Rows"),
		jen.Id("columns").Index().String(),
	).Params(jen.Op("*").Id(t.StructName), jen.Error()).Block(
		jen.Id("_e").Op(":=").Op("&").Id(t.StructName).Values(),
		jen.List(jen.Id("values"), jen.Err()).Op(":=").Id("_e").Dot("scanValues").Call(jen.Id("columns")),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.If(jen.Err().Op(":=").Id("rows").Dot("Scan").Call(jen.Id("values").Op("...")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.If(jen.Err().Op(":=").Id("_e").Dot("assignValues").Call(jen.Id("columns"), jen.Id("values")), jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Err()),
		),
		jen.Return(jen.Id("_e"), jen.Nil()),
	)
}
