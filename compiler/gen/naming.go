package gen

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-openapi/inflect"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/syssam/tablegen/schema"
	"github.com/syssam/tablegen/schema/edge"
)

// Singularize strips a single trailing "s" from names longer than one
// character. Irregular plurals are not handled: "bus" becomes "bu".
func Singularize(name string) string {
	if len(name) > 1 && strings.HasSuffix(name, "s") {
		return name[:len(name)-1]
	}
	return name
}

// PascalCase splits name on underscores and capitalizes each segment,
// optionally singularizing the name first.
func PascalCase(name string, singular bool) string {
	return pascal(Naive, name, singular)
}

func pascal(n Namer, name string, singular bool) string {
	if singular {
		name = n.Singular(name)
	}
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, seg := range strings.Split(name, "_") {
		if seg == "" {
			continue
		}
		b.WriteString(caser.String(seg))
	}
	return b.String()
}

// SnakeCase inserts an underscore before each internal uppercase letter
// and lower-cases the result.
func SnakeCase(name string) string {
	var b strings.Builder
	b.Grow(len(name) + 4)
	for i, r := range name {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// AssociationName names the association of a relationship column. The
// "id" column names the referenced table, kept plural for to-many
// associations and singularized otherwise; other columns drop their
// "_id" suffix.
func AssociationName(column, table string, plural bool) string {
	if column == "id" {
		return PascalCase(table, !plural)
	}
	return PascalCase(strings.TrimSuffix(column, "_id"), false)
}

// RelationFieldName names the field holding a hydrated relationship.
// To-many relationships use the referenced table verbatim, reverse
// one-to-one relationships its singular form, and forward relationships
// the column without its "_id" suffix.
func RelationFieldName(r schema.Relationship) string {
	return relationFieldName(Naive, r)
}

func relationFieldName(n Namer, r schema.Relationship) string {
	switch {
	case r.Type == edge.M2M || r.Type == edge.O2M:
		return r.ReferencesTable
	case r.IsReverse():
		return n.Singular(r.ReferencesTable)
	default:
		return strings.TrimSuffix(r.Column, "_id")
	}
}

// Namer singularizes table names for generated identifiers.
type Namer interface {
	Singular(name string) string
}

// NamerFunc adapts a function to the Namer interface.
type NamerFunc func(string) string

// Singular implements the Namer interface.
func (f NamerFunc) Singular(name string) string { return f(name) }

var (
	// Naive strips one trailing "s".
	Naive Namer = NamerFunc(Singularize)
	// Inflect uses English inflection rules, so that "categories"
	// becomes "category" and "people" becomes "person".
	Inflect Namer = NamerFunc(inflect.Singularize)
)

// NamerByName returns the naming strategy with the given name.
func NamerByName(name string) (Namer, bool) {
	switch strings.ToLower(name) {
	case "", "naive":
		return Naive, true
	case "inflect":
		return Inflect, true
	default:
		return nil, false
	}
}

var (
	acronymsMu sync.RWMutex
	acronyms   = map[string]string{
		"Api":  "API",
		"Html": "HTML",
		"Http": "HTTP",
		"Id":   "ID",
		"Ip":   "IP",
		"Json": "JSON",
		"Sql":  "SQL",
		"Uri":  "URI",
		"Url":  "URL",
		"Uuid": "UUID",
	}
)

// AddAcronym registers a word that GoName writes in upper case.
func AddAcronym(word string) {
	acronymsMu.Lock()
	defer acronymsMu.Unlock()
	acronyms[PascalCase(strings.ToLower(word), false)] = strings.ToUpper(word)
}

// GoName returns the exported Go identifier of a column or relation name:
// its PascalCase form with acronym segments upper-cased, so that
// "author_id" becomes "AuthorID".
func GoName(name string) string {
	acronymsMu.RLock()
	defer acronymsMu.RUnlock()
	caser := cases.Title(language.Und, cases.NoLower)
	var b strings.Builder
	for _, seg := range strings.Split(name, "_") {
		if seg == "" {
			continue
		}
		seg = caser.String(seg)
		if a, ok := acronyms[seg]; ok {
			seg = a
		}
		b.WriteString(seg)
	}
	return b.String()
}
