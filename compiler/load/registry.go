package load

import (
	"errors"
	"fmt"
	"iter"

	"github.com/syssam/tablegen/schema"
)

// ErrNoTableName is returned when a fragment does not name its table.
var ErrNoTableName = errors.New("load: fragment has no table_name")

type (
	// TableInfo groups the fragments contributed to one table, in
	// registration order.
	TableInfo struct {
		Name      string
		Fragments []*schema.Fragment
	}

	// Registry holds the fragments of a generation run grouped by table
	// name. Tables keep their first-seen order.
	Registry struct {
		tables []*TableInfo
		byName map[string]*TableInfo
	}
)

// New returns an empty registry.
func New() *Registry {
	return &Registry{byName: make(map[string]*TableInfo)}
}

// Register adds a fragment to the group of its table.
func (r *Registry) Register(fr *schema.Fragment) error {
	if fr == nil {
		return errors.New("load: nil fragment")
	}
	if fr.TableName == "" {
		if fr.Source != "" {
			return &FragmentError{Path: fr.Source, Err: ErrNoTableName}
		}
		return ErrNoTableName
	}
	info, ok := r.byName[fr.TableName]
	if !ok {
		info = &TableInfo{Name: fr.TableName}
		r.byName[fr.TableName] = info
		r.tables = append(r.tables, info)
	}
	info.Fragments = append(info.Fragments, fr)
	return nil
}

// Tables returns the table names in first-seen order.
func (r *Registry) Tables() []string {
	names := make([]string, len(r.tables))
	for i, t := range r.tables {
		names[i] = t.Name
	}
	return names
}

// Info returns the registry entry of a table.
func (r *Registry) Info(name string) (*TableInfo, bool) {
	info, ok := r.byName[name]
	return info, ok
}

// Len returns the number of distinct tables.
func (r *Registry) Len() int { return len(r.tables) }

// Merge builds the canonical schema of one table: it starts from an
// empty schema, applies every fragment in registration order and folds
// the alters. Each call starts from scratch.
func (r *Registry) Merge(name string) (*schema.TableSchema, error) {
	info, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("load: unknown table %q", name)
	}
	t := schema.New(info.Name)
	for _, fr := range info.Fragments {
		if err := t.Apply(fr); err != nil {
			if fr.Source != "" {
				return nil, fmt.Errorf("%s: %w", fr.Source, err)
			}
			return nil, err
		}
	}
	t.Finalize()
	return t, nil
}

// Schemas returns a lazy sequence of canonical schemas in table order.
// The sequence is restartable: every iteration merges again from the
// registered fragments. A table that fails to merge yields a nil schema
// and its error; iteration continues with the next table.
func (r *Registry) Schemas() iter.Seq2[*schema.TableSchema, error] {
	return func(yield func(*schema.TableSchema, error) bool) {
		for _, info := range r.tables {
			if !yield(r.Merge(info.Name)) {
				return
			}
		}
	}
}

// MergeAll merges every table. Tables that fail to merge are left out of
// the result and reported by name.
func (r *Registry) MergeAll() ([]*schema.TableSchema, map[string]error) {
	var (
		merged []*schema.TableSchema
		failed map[string]error
	)
	for _, info := range r.tables {
		t, err := r.Merge(info.Name)
		if err != nil {
			if failed == nil {
				failed = make(map[string]error)
			}
			failed[info.Name] = err
			continue
		}
		merged = append(merged, t)
	}
	return merged, failed
}
