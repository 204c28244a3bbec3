package gen

import (
	"bytes"
	"os"

	"github.com/dave/jennifer/jen"
	"golang.org/x/tools/imports"
)

// output is a rendered file waiting to be written.
type output struct {
	path    string
	content []byte
}

// render renders the file into memory and normalizes it with goimports.
func render(f *jen.File, path string) (*output, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, NewGenerationError("render", path, "", err)
	}
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		return nil, NewGenerationError("format", path, "", err)
	}
	return &output{path: path, content: formatted}, nil
}

// writeAll creates the directory and writes the files, overwriting
// existing ones.
func writeAll(dir string, files []*output) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return NewGenerationError("write", dir, "create output directory", err)
	}
	for _, f := range files {
		if err := os.WriteFile(f.path, f.content, 0o644); err != nil {
			return NewGenerationError("write", f.path, "", err)
		}
	}
	return nil
}
