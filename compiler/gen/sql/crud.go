package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/tablegen/compiler/gen"
)

// genCRUD generates the insert and update inputs and the by-id
// operations of a table that has an id column.
func genCRUD(h *helper, f *jen.File, t *gen.Table) {
	genInsert(h, f, t)
	genFind(h, f, t)
	genUpdate(h, f, t)
	genDelete(h, f, t)
}

// ctxParams returns the leading parameters of every operation.
func ctxParams(h *helper) []jen.Code {
	return []jen.Code{
		jen.Id("ctx").Qual("context", "Context"),
		jen.Id("ex").Qual(h.dialectPkg, "ExecQuerier"),
	}
}

func genInsert(h *helper, f *jen.File, t *gen.Table) {
	name := t.InsertName()
	f.Commentf("%s holds the values of a new %s row. Auto-generated columns", name, t.Name)
	f.Comment("are filled by the database; nil optional values use the column default.")
	f.Type().Id(name).StructFunc(func(grp *jen.Group) {
		for _, fd := range t.InsertFields() {
			grp.Id(fd.StructField).Add(insertType(h, fd)).Tag(map[string]string{"json": fd.Name})
		}
	})

	fn := "Insert" + t.StructName
	f.Commentf("%s inserts a %s row and returns it as stored.", fn, t.Name)
	f.Func().Id(fn).Params(
		append(ctxParams(h), jen.Id("in").Op("*").Id(name))...,
	).Params(jen.Op("*").Id(t.StructName), jen.Error()).BlockFunc(func(grp *jen.Group) {
		grp.Id("stmt").Op(":=").Qual(h.sqlPkg, "Insert").Call(jen.Id(tableConst(t)))
		for _, fd := range t.InsertFields() {
			grp.Add(insertSet(h, t, fd))
		}
		grp.Id("stmt").Dot("Returning").Call(jen.Id(columnsVar(t)).Op("..."))
		grp.List(jen.Id("_e"), jen.Err()).Op(":=").Qual(h.sqlPkg, "QueryOne").Call(
			jen.Id("ctx"), jen.Id("ex"), jen.Id(tableConst(t)), jen.Id("stmt"), jen.Id(fromRowFunc(t.StructName)),
		)
		grp.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Qual(h.sqlgraphPkg, "WrapConstraint").Call(jen.Err())),
		)
		grp.Return(jen.Id("_e"), jen.Nil())
	})
}

// insertSet generates the binding of one insert input field.
func insertSet(h *helper, t *gen.Table, fd *gen.Field) jen.Code {
	in := jen.Id("in").Dot(fd.StructField)
	set := func(v jen.Code) *jen.Statement {
		return jen.Id("stmt").Dot("Set").Call(jen.Id(columnConst(t, fd)), v)
	}
	switch {
	case fd.Optional() && fd.Nullable:
		return jen.If(in.Clone().Op("!=").Nil()).Block(set(nullArg(h, fd, jen.Op("*").Add(in.Clone()))))
	case fd.Optional() && fd.IsJSON():
		return jen.If(in.Clone().Op("!=").Nil()).Block(set(bindValue(h, fd, in.Clone())))
	case fd.Optional():
		return jen.If(in.Clone().Op("!=").Nil()).Block(set(jen.Op("*").Add(in.Clone())))
	case fd.Pointer():
		return jen.If(in.Clone().Op("!=").Nil()).Block(
			set(jen.Op("*").Add(in.Clone())),
		).Else().Block(set(jen.Nil()))
	default:
		return set(bindValue(h, fd, in.Clone()))
	}
}

// nullArg returns the bind argument of a sql.Null[T] value.
func nullArg(h *helper, fd *gen.Field, v jen.Code) jen.Code {
	if fd.IsJSON() {
		return jen.Qual(h.sqlPkg, "NullJSONArg").Call(v)
	}
	return jen.Qual(h.sqlPkg, "NullValue").Call(v)
}

// notFoundWithID generates the conversion of a not-found error into one
// carrying the requested id.
func notFoundWithID(h *helper, t *gen.Table) *jen.Statement {
	return jen.If(jen.Qual(h.rootPkg, "IsNotFound").Call(jen.Err())).Block(
		jen.Return(jen.Nil(), jen.Qual(h.rootPkg, "NewNotFoundErrorWithID").Call(jen.Id(tableConst(t)), jen.Id("id"))),
	)
}

func genFind(h *helper, f *jen.File, t *gen.Table) {
	fn := "Find" + t.StructName + "ByID"
	f.Commentf("%s returns the %s row with the given id.", fn, t.Name)
	f.Func().Id(fn).Params(
		append(ctxParams(h), jen.Id("id").Add(baseType(t.ID)))...,
	).Params(jen.Op("*").Id(t.StructName), jen.Error()).Block(
		jen.Id("q").Op(":=").Id("New"+t.QueryName()).Call().Dot("Where").Call(
			jen.Id(columnConst(t, t.ID)), jen.Qual(h.sqlPkg, "OpEQ"), jen.Id("id"),
		),
		jen.Defer().Id("q").Dot("Release").Call(),
		jen.List(jen.Id("_e"), jen.Err()).Op(":=").Id("q").Dot("One").Call(jen.Id("ctx"), jen.Id("ex")),
		notFoundWithID(h, t),
		jen.If(jen.Err().Op("!=").Nil()).Block(jen.Return(jen.Nil(), jen.Err())),
		jen.Return(jen.Id("_e"), jen.Nil()),
	)
}

func genUpdate(h *helper, f *jen.File, t *gen.Table) {
	name := t.UpdateName()
	f.Commentf("%s holds a partial update of a %s row. Nil fields are left", name, t.Name)
	f.Comment("unchanged; an invalid sql.Null sets the column to NULL.")
	f.Type().Id(name).StructFunc(func(grp *jen.Group) {
		for _, fd := range t.UpdateFields() {
			grp.Id(fd.StructField).Add(updateType(h, fd)).Tag(map[string]string{"json": fd.Name + ",omitempty"})
		}
	})

	fn := "Update" + t.StructName
	f.Commentf("%s applies in to the %s row with the given id and returns the", fn, t.Name)
	f.Comment("updated row. An empty update returns the current row.")
	f.Func().Id(fn).Params(
		append(ctxParams(h), jen.Id("id").Add(baseType(t.ID)), jen.Id("in").Op("*").Id(name))...,
	).Params(jen.Op("*").Id(t.StructName), jen.Error()).BlockFunc(func(grp *jen.Group) {
		grp.Id("stmt").Op(":=").Qual(h.sqlPkg, "Update").Call(jen.Id(tableConst(t)))
		for _, fd := range t.UpdateFields() {
			in := jen.Id("in").Dot(fd.StructField)
			v := bindValue(h, fd, jen.Op("*").Add(in.Clone()))
			if fd.Nullable {
				v = nullArg(h, fd, jen.Op("*").Add(in.Clone()))
			}
			grp.If(in.Clone().Op("!=").Nil()).Block(
				jen.Id("stmt").Dot("Set").Call(jen.Id(columnConst(t, fd)), v),
			)
		}
		grp.If(jen.Id("stmt").Dot("Empty").Call()).Block(
			jen.Return(jen.Id("Find"+t.StructName+"ByID").Call(jen.Id("ctx"), jen.Id("ex"), jen.Id("id"))),
		)
		grp.Id("stmt").Dot("Where").Call(jen.Id(columnConst(t, t.ID)), jen.Id("id")).Dot("Returning").Call(jen.Id(columnsVar(t)).Op("..."))
		grp.List(jen.Id("_e"), jen.Err()).Op(":=").Qual(h.sqlPkg, "QueryOne").Call(
			jen.Id("ctx"), jen.Id("ex"), jen.Id(tableConst(t)), jen.Id("stmt"), jen.Id(fromRowFunc(t.StructName)),
		)
		grp.Add(notFoundWithID(h, t))
		grp.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Nil(), jen.Qual(h.sqlgraphPkg, "WrapConstraint").Call(jen.Err())),
		)
		grp.Return(jen.Id("_e"), jen.Nil())
	})
}

func genDelete(h *helper, f *jen.File, t *gen.Table) {
	fn := "Delete" + t.StructName
	f.Commentf("%s deletes the %s row with the given id.", fn, t.Name)
	f.Func().Id(fn).Params(
		append(ctxParams(h), jen.Id("id").Add(baseType(t.ID)))...,
	).Error().Block(
		jen.List(jen.Id("n"), jen.Err()).Op(":=").Qual(h.sqlPkg, "ExecStatement").Call(
			jen.Id("ctx"), jen.Id("ex"),
			jen.Qual(h.sqlPkg, "Delete").Call(jen.Id(tableConst(t))).Dot("Where").Call(jen.Id(columnConst(t, t.ID)), jen.Id("id")),
		),
		jen.If(jen.Err().Op("!=").Nil()).Block(
			jen.Return(jen.Qual(h.sqlgraphPkg, "WrapConstraint").Call(jen.Err())),
		),
		jen.If(jen.Id("n").Op("==").Lit(0)).Block(
			jen.Return(jen.Qual(h.rootPkg, "NewNotFoundErrorWithID").Call(jen.Id(tableConst(t)), jen.Id("id"))),
		),
		jen.Return(jen.Nil()),
	)
}
