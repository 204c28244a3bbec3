// Package field defines the closed set of column types and input modes
// used by table schemas.
//
// Every base type has an "_optional" variant that marks the column as
// nullable:
//
//	text            text_optional
//	boolean         boolean_optional
//	int16           int16_optional
//	int32           int32_optional
//	int64           int64_optional
//	float32         float32_optional
//	float64         float64_optional
//	uuid            uuid_optional
//	timestamp       timestamp_optional
//	timestamptz     timestamptz_optional
//	json            json_optional
//
// Both [Type] and [InputMode] implement encoding.TextUnmarshaler, so they
// decode directly from JSON and YAML schema fragments.
package field
