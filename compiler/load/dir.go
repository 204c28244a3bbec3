package load

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/syssam/tablegen/schema"
)

// FragmentError reports a schema file that could not be decoded.
type FragmentError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FragmentError) Error() string {
	return fmt.Sprintf("load: malformed fragment %s: %v", e.Path, e.Err)
}

// Unwrap returns the decode error.
func (e *FragmentError) Unwrap() error { return e.Err }

// IsFragmentError reports if the error is a *FragmentError.
func IsFragmentError(err error) bool {
	var e *FragmentError
	return errors.As(err, &e)
}

// IsSchemaFile reports if the file name has a schema fragment extension.
func IsSchemaFile(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".json", ".yaml", ".yml":
		return true
	default:
		return false
	}
}

// Files returns the schema files of dir, non-recursively, in natural
// filename order ("2_posts.json" sorts before "10_posts.json").
func Files(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("load: read schema dir: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") || !IsSchemaFile(e.Name()) {
			continue
		}
		names = append(names, e.Name())
	}
	slices.SortFunc(names, naturalCompare)
	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// LoadDir reads every schema file of dir and registers its fragments in
// file order.
func LoadDir(dir string) (*Registry, error) {
	paths, err := Files(dir)
	if err != nil {
		return nil, err
	}
	r := New()
	for _, p := range paths {
		frs, err := ReadFile(p)
		if err != nil {
			return nil, err
		}
		for _, fr := range frs {
			if err := r.Register(fr); err != nil {
				return nil, err
			}
		}
	}
	return r, nil
}

// ReadFile decodes the fragments of one JSON or YAML file. A file holds
// either a single fragment or a list of fragments.
func ReadFile(path string) ([]*schema.Fragment, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	var frs []*schema.Fragment
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		frs, err = decodeJSON(data)
	default:
		frs, err = decodeYAML(data)
	}
	if err != nil {
		return nil, &FragmentError{Path: path, Err: err}
	}
	for _, fr := range frs {
		fr.Source = path
	}
	return frs, nil
}

func decodeJSON(data []byte) ([]*schema.Fragment, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, errors.New("empty file")
	}
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if data[0] == '[' {
		var frs []*schema.Fragment
		if err := dec.Decode(&frs); err != nil {
			return nil, err
		}
		return frs, nil
	}
	fr := &schema.Fragment{}
	if err := dec.Decode(fr); err != nil {
		return nil, err
	}
	return []*schema.Fragment{fr}, nil
}

// decodeYAML accepts multi-document streams. Each document is a fragment
// or a list of fragments.
func decodeYAML(data []byte) ([]*schema.Fragment, error) {
	var frs []*schema.Fragment
	dec := yaml.NewDecoder(bytes.NewReader(data))
	for {
		var doc yaml.Node
		err := dec.Decode(&doc)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		if len(doc.Content) == 0 {
			continue
		}
		if doc.Content[0].Kind == yaml.SequenceNode {
			var list []*schema.Fragment
			if err := doc.Decode(&list); err != nil {
				return nil, err
			}
			frs = append(frs, list...)
			continue
		}
		fr := &schema.Fragment{}
		if err := doc.Decode(fr); err != nil {
			return nil, err
		}
		frs = append(frs, fr)
	}
	if len(frs) == 0 {
		return nil, errors.New("empty file")
	}
	return frs, nil
}

// naturalCompare orders strings with embedded numbers by numeric value.
func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		da, db := isDigit(a[0]), isDigit(b[0])
		switch {
		case da && db:
			na, ra := splitDigits(a)
			nb, rb := splitDigits(b)
			if c := compareNumeric(na, nb); c != 0 {
				return c
			}
			a, b = ra, rb
		case da != db:
			return strings.Compare(a[:1], b[:1])
		default:
			if a[0] != b[0] {
				if a[0] < b[0] {
					return -1
				}
				return 1
			}
			a, b = a[1:], b[1:]
		}
	}
	return len(a) - len(b)
}

func compareNumeric(a, b string) int {
	ta, tb := strings.TrimLeft(a, "0"), strings.TrimLeft(b, "0")
	if len(ta) != len(tb) {
		return len(ta) - len(tb)
	}
	if c := strings.Compare(ta, tb); c != 0 {
		return c
	}
	// "01" after "1".
	return len(a) - len(b)
}

func splitDigits(s string) (string, string) {
	i := 0
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	return s[:i], s[i:]
}

func isDigit(c byte) bool { return '0' <= c && c <= '9' }
