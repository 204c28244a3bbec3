package field

import (
	"fmt"
	"strings"
)

// InputMode controls whether a field is part of the generated insert
// and update inputs.
type InputMode uint8

// Input modes.
const (
	// InputRequired fields must be supplied on insert.
	InputRequired InputMode = iota
	// InputOptional fields may be omitted on insert. The database
	// default applies in that case.
	InputOptional
	// InputAutoGenerated fields are produced by the database and only
	// appear in read results.
	InputAutoGenerated
)

var inputNames = [...]string{
	InputRequired:      "required",
	InputOptional:      "optional",
	InputAutoGenerated: "auto_generated",
}

// String returns the schema name of the input mode.
func (m InputMode) String() string {
	if int(m) < len(inputNames) {
		return inputNames[m]
	}
	return fmt.Sprintf("InputMode(%d)", m)
}

// ParseInputMode parses an input mode name. An empty name is
// InputRequired.
func ParseInputMode(s string) (InputMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "required":
		return InputRequired, nil
	case "optional":
		return InputOptional, nil
	case "auto_generated", "auto", "generated":
		return InputAutoGenerated, nil
	default:
		return InputRequired, fmt.Errorf("field: unknown input mode %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m InputMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *InputMode) UnmarshalText(text []byte) error {
	v, err := ParseInputMode(string(text))
	if err != nil {
		return err
	}
	*m = v
	return nil
}
