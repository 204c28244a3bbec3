package field

import (
	"fmt"
	"strings"
)

// A Type represents a field type. Every base type has an optional
// variant that marks the column as nullable.
type Type uint8

// List of field types.
const (
	TypeInvalid Type = iota
	TypeText
	TypeBool
	TypeInt16
	TypeInt32
	TypeInt64
	TypeFloat32
	TypeFloat64
	TypeUUID
	TypeTimestamp
	TypeTimestampTZ
	TypeJSON
	endTypes
)

// optionalBit marks the optional (nullable) variant of a base type.
const optionalBit Type = 1 << 7

// Optional variants.
const (
	TypeTextOptional        = TypeText | optionalBit
	TypeBoolOptional        = TypeBool | optionalBit
	TypeInt16Optional       = TypeInt16 | optionalBit
	TypeInt32Optional       = TypeInt32 | optionalBit
	TypeInt64Optional       = TypeInt64 | optionalBit
	TypeFloat32Optional     = TypeFloat32 | optionalBit
	TypeFloat64Optional     = TypeFloat64 | optionalBit
	TypeUUIDOptional        = TypeUUID | optionalBit
	TypeTimestampOptional   = TypeTimestamp | optionalBit
	TypeTimestampTZOptional = TypeTimestampTZ | optionalBit
	TypeJSONOptional        = TypeJSON | optionalBit
)

var typeNames = [...]string{
	TypeInvalid:     "invalid",
	TypeText:        "text",
	TypeBool:        "boolean",
	TypeInt16:       "int16",
	TypeInt32:       "int32",
	TypeInt64:       "int64",
	TypeFloat32:     "float32",
	TypeFloat64:     "float64",
	TypeUUID:        "uuid",
	TypeTimestamp:   "timestamp",
	TypeTimestampTZ: "timestamptz",
	TypeJSON:        "json",
}

// aliases accepted by ParseType in addition to the canonical names.
var typeAliases = map[string]Type{
	"string":       TypeText,
	"bool":         TypeBool,
	"smallint":     TypeInt16,
	"i16":          TypeInt16,
	"int":          TypeInt32,
	"integer":      TypeInt32,
	"i32":          TypeInt32,
	"bigint":       TypeInt64,
	"i64":          TypeInt64,
	"real":         TypeFloat32,
	"f32":          TypeFloat32,
	"float":        TypeFloat64,
	"double":       TypeFloat64,
	"f64":          TypeFloat64,
	"timestamp_tz": TypeTimestampTZ,
	"jsonb":        TypeJSON,
}

// Base returns the non-optional variant of the type.
func (t Type) Base() Type { return t &^ optionalBit }

// IsOptional reports if t is the optional (nullable) variant.
func (t Type) IsOptional() bool { return t&optionalBit != 0 }

// AsOptional returns the optional variant of the type.
func (t Type) AsOptional() Type { return t | optionalBit }

// Valid reports if t is a known type.
func (t Type) Valid() bool {
	b := t.Base()
	return b > TypeInvalid && b < endTypes
}

// Numeric reports if the type is an integer or a float type.
func (t Type) Numeric() bool {
	switch t.Base() {
	case TypeInt16, TypeInt32, TypeInt64, TypeFloat32, TypeFloat64:
		return true
	}
	return false
}

// Time reports if the type is one of the timestamp types.
func (t Type) Time() bool {
	b := t.Base()
	return b == TypeTimestamp || b == TypeTimestampTZ
}

// String returns the schema name of the type, e.g. "text_optional".
func (t Type) String() string {
	if !t.Valid() {
		return typeNames[TypeInvalid]
	}
	name := typeNames[t.Base()]
	if t.IsOptional() {
		return name + "_optional"
	}
	return name
}

// ParseType parses a type name as it appears in schema fragments.
func ParseType(s string) (Type, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	optional := false
	if base, ok := strings.CutSuffix(name, "_optional"); ok {
		name, optional = base, true
	}
	t, ok := lookupType(name)
	if !ok {
		return TypeInvalid, fmt.Errorf("field: unknown type %q", s)
	}
	if optional {
		t = t.AsOptional()
	}
	return t, nil
}

func lookupType(name string) (Type, bool) {
	for t := TypeText; t < endTypes; t++ {
		if typeNames[t] == name {
			return t, true
		}
	}
	t, ok := typeAliases[name]
	return t, ok
}

// MarshalText implements encoding.TextMarshaler.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("field: cannot marshal invalid type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *Type) UnmarshalText(text []byte) error {
	v, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}
