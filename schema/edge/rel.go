package edge

import (
	"fmt"
	"strings"
)

// Rel is a relationship cardinality.
type Rel uint8

// Relationship types.
const (
	Unk Rel = iota
	O2O
	O2M
	M2O
	M2M
)

var relNames = [...]string{
	Unk: "unknown",
	O2O: "one_to_one",
	O2M: "one_to_many",
	M2O: "many_to_one",
	M2M: "many_to_many",
}

// String returns the schema name of the relationship type.
func (r Rel) String() string {
	if int(r) < len(relNames) {
		return relNames[r]
	}
	return relNames[Unk]
}

// IsMany reports if the relationship loads a sequence of related rows.
func (r Rel) IsMany() bool { return r == O2M || r == M2M }

// ParseRel parses a relationship type name.
func ParseRel(s string) (Rel, error) {
	name := strings.ToLower(strings.TrimSpace(s))
	for r := O2O; r <= M2M; r++ {
		if relNames[r] == name {
			return r, nil
		}
	}
	switch name {
	case "o2o":
		return O2O, nil
	case "o2m", "has_many":
		return O2M, nil
	case "m2o", "belongs_to":
		return M2O, nil
	case "m2m":
		return M2M, nil
	}
	return Unk, fmt.Errorf("edge: unknown relationship type %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (r Rel) MarshalText() ([]byte, error) {
	if r == Unk || int(r) >= len(relNames) {
		return nil, fmt.Errorf("edge: cannot marshal relationship type %d", uint8(r))
	}
	return []byte(r.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (r *Rel) UnmarshalText(text []byte) error {
	v, err := ParseRel(string(text))
	if err != nil {
		return err
	}
	*r = v
	return nil
}
