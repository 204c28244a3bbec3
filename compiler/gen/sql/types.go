package sql

import (
	"github.com/dave/jennifer/jen"

	"github.com/syssam/tablegen/compiler/gen"
	"github.com/syssam/tablegen/schema/field"
)

const (
	uuidPkg = "github.com/google/uuid"
	jsonPkg = "encoding/json"
)

// baseType returns the Go type of a field value, without nullability.
func baseType(f *gen.Field) jen.Code {
	switch f.Type {
	case field.TypeText:
		return jen.String()
	case field.TypeBool:
		return jen.Bool()
	case field.TypeInt16:
		return jen.Int16()
	case field.TypeInt32:
		return jen.Int32()
	case field.TypeInt64:
		return jen.Int64()
	case field.TypeFloat32:
		return jen.Float32()
	case field.TypeFloat64:
		return jen.Float64()
	case field.TypeUUID:
		return jen.Qual(uuidPkg, "UUID")
	case field.TypeTimestamp, field.TypeTimestampTZ:
		return jen.Qual("time", "Time")
	case field.TypeJSON:
		return jen.Qual(jsonPkg, "RawMessage")
	default:
		return jen.Any()
	}
}

// goType returns the Go type of the record field. Nullable fields are
// pointers, except JSON fields whose nil value stands for NULL.
func goType(f *gen.Field) jen.Code {
	if f.Pointer() {
		return jen.Op("*").Add(baseType(f))
	}
	return baseType(f)
}

// nullType returns sql.Null[T] for the field.
func nullType(h *helper, f *gen.Field) jen.Code {
	return jen.Qual(h.sqlPkg, "Null").Types(baseType(f))
}

// insertType returns the type of the field in the insert input:
//
//	required            T
//	required, nullable  *T, nil inserts NULL
//	optional            *T, nil uses the column default
//	optional, nullable  *sql.Null[T], nil uses the column default
//
// JSON fields use json.RawMessage where the others use *T.
func insertType(h *helper, f *gen.Field) jen.Code {
	switch {
	case f.Optional() && f.Nullable:
		return jen.Op("*").Add(nullType(h, f))
	case f.IsJSON():
		return baseType(f)
	case f.Optional() || f.Nullable:
		return jen.Op("*").Add(baseType(f))
	default:
		return baseType(f)
	}
}

// updateType returns the type of the field in the partial update input.
// A nil value leaves the column unchanged.
func updateType(h *helper, f *gen.Field) jen.Code {
	if f.Nullable {
		return jen.Op("*").Add(nullType(h, f))
	}
	return jen.Op("*").Add(baseType(f))
}

// scanType returns the type scanned from the driver for the field.
func scanType(h *helper, f *gen.Field) jen.Code {
	switch f.Type {
	case field.TypeText:
		return jen.Qual(h.sqlPkg, "NullString")
	case field.TypeBool:
		return jen.Qual(h.sqlPkg, "NullBool")
	case field.TypeInt16:
		return jen.Qual(h.sqlPkg, "NullInt16")
	case field.TypeInt32:
		return jen.Qual(h.sqlPkg, "NullInt32")
	case field.TypeInt64:
		return jen.Qual(h.sqlPkg, "NullInt64")
	case field.TypeFloat32, field.TypeFloat64:
		return jen.Qual(h.sqlPkg, "NullFloat64")
	case field.TypeUUID:
		return jen.Qual(uuidPkg, "NullUUID")
	case field.TypeTimestamp, field.TypeTimestampTZ:
		return jen.Qual(h.sqlPkg, "NullTime")
	case field.TypeJSON:
		return jen.Index().Byte()
	default:
		return jen.Any()
	}
}

// scanKey groups fields that share a scan type.
func scanKey(f *gen.Field) string {
	switch f.Type {
	case field.TypeFloat32, field.TypeFloat64:
		return "float"
	case field.TypeTimestamp, field.TypeTimestampTZ:
		return "time"
	default:
		return f.Type.String()
	}
}

// scanValue returns the expression reading the field value out of the
// scanned "value" variable.
func scanValue(f *gen.Field) jen.Code {
	v := jen.Id("value")
	switch f.Type {
	case field.TypeText:
		return v.Dot("String")
	case field.TypeBool:
		return v.Dot("Bool")
	case field.TypeInt16:
		return v.Dot("Int16")
	case field.TypeInt32:
		return v.Dot("Int32")
	case field.TypeInt64:
		return v.Dot("Int64")
	case field.TypeFloat32:
		return jen.Float32().Call(v.Dot("Float64"))
	case field.TypeFloat64:
		return v.Dot("Float64")
	case field.TypeUUID:
		return v.Dot("UUID")
	case field.TypeTimestamp, field.TypeTimestampTZ:
		return v.Dot("Time")
	default:
		return v
	}
}

// columnKind returns the sql.ColumnKind constant rendering the field in
// relation projections.
func columnKind(f *gen.Field) string {
	switch f.Type {
	case field.TypeBool:
		return "ColumnBool"
	case field.TypeTimestamp:
		return "ColumnTime"
	case field.TypeTimestampTZ:
		return "ColumnTimeTZ"
	case field.TypeJSON:
		return "ColumnJSON"
	default:
		return ""
	}
}

// bindValue returns the bind argument of a value of the field type.
func bindValue(h *helper, f *gen.Field, v jen.Code) jen.Code {
	if f.IsJSON() {
		return jen.Qual(h.sqlPkg, "JSONArg").Call(v)
	}
	return v
}

// tags returns the struct tags of a column.
func tags(name string) map[string]string {
	return map[string]string{"json": name, "db": name}
}
