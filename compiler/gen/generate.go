package gen

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/dave/jennifer/jen"
	"github.com/sirupsen/logrus"

	"github.com/syssam/tablegen/compiler/load"
	"github.com/syssam/tablegen/schema"
)

// Emitter renders the source files of a graph.
//
// Emitters live in dialect packages, such as compiler/gen/sql, and are
// injected with WithEmitter to keep gen free of dialect imports.
type Emitter interface {
	// GenTable renders the file of one table: record, CRUD operations,
	// query builder and relation variants.
	GenTable(g *Graph, t *Table) *jen.File
	// GenRegistry renders the cross-table registry file.
	GenRegistry(g *Graph) *jen.File
}

// RegistryFile is the name of the cross-table registry file.
const RegistryFile = "registry.go"

// Messages of the per-table log entries. Every table of a run is logged
// exactly once with one of them.
const (
	MsgTableGenerated = "table generated"
	MsgTableRejected  = "table rejected"
)

type (
	// Generator runs the pipeline: merge, validate, build the graph, and
	// emit one file per accepted table plus the registry file.
	//
	// A run is single-threaded and a pure function of its input: running
	// it twice on the same registry writes byte-identical files.
	Generator struct {
		config *Config
	}

	// Report is the outcome of a run.
	Report struct {
		// Generated lists the generated tables in discovery order.
		Generated []string
		// Files lists the written files.
		Files []string
		// Rejected lists the tables left out of the run, with the
		// reason. Sibling tables are still generated.
		Rejected []*Rejection
	}

	// Rejection is a table that could not be generated.
	Rejection struct {
		Table string
		Err   error
	}
)

// NewGenerator returns a generator for the config.
func NewGenerator(c *Config) *Generator {
	if c == nil {
		c = MustNewConfig()
	}
	return &Generator{config: c}
}

// Config returns the generator config.
func (g *Generator) Config() *Config { return g.config }

// Err joins the errors of the rejected tables.
func (r *Report) Err() error {
	errs := make([]error, len(r.Rejected))
	for i, rj := range r.Rejected {
		errs[i] = rj.Err
	}
	return errors.Join(errs...)
}

// Error implements the error interface.
func (r *Rejection) Error() string {
	return r.Err.Error()
}

// Unwrap returns the rejection cause.
func (r *Rejection) Unwrap() error { return r.Err }

func (r *Report) reject(table string, err error) {
	r.Rejected = append(r.Rejected, &Rejection{Table: table, Err: err})
}

// Load merges and validates every registered table and builds the graph
// of the accepted ones. Nothing is written.
func (g *Generator) Load(ctx context.Context, reg *load.Registry) (*Graph, *Report, error) {
	var (
		c        = g.config
		report   = &Report{}
		accepted []*schema.TableSchema
	)
	merged, failed := reg.MergeAll()
	for _, name := range reg.Tables() {
		if err, ok := failed[name]; ok {
			g.rejected(report, name, NewSchemaError(name, "", "cannot merge fragments", err))
		}
	}
	res := NewSchemas(merged...)
	for _, t := range merged {
		if err := ctx.Err(); err != nil {
			return nil, report, err
		}
		if err := validate(t, res, c.Namer); err != nil {
			g.rejected(report, t.Name, err)
			continue
		}
		accepted = append(accepted, t)
	}
	// Rejecting a table drops the relations pointing at it, which changes
	// the identifiers of its referrers.
	for {
		graph := NewGraph(c, accepted...)
		clashes := claimIdentifiers(graph)
		if len(clashes) == 0 {
			return graph, report, nil
		}
		kept := accepted[:0:0]
		for _, t := range accepted {
			if err, ok := clashes[t.Name]; ok {
				g.rejected(report, t.Name, err)
				continue
			}
			kept = append(kept, t)
		}
		accepted = kept
	}
}

// registryIdentifiers are declared by the registry file.
var registryIdentifiers = []string{"Tables", "Lookup"}

// claimIdentifiers claims the generated identifiers of every table in
// graph order. A table declaring a name that an earlier table, the
// registry, or the table itself already declares loses, and gets a
// DuplicateStructName error.
func claimIdentifiers(g *Graph) map[string]error {
	owners := make(map[string]string)
	for _, n := range registryIdentifiers {
		owners[n] = RegistryFile
	}
	clashes := make(map[string]error)
	for _, t := range g.Tables {
		names := t.Identifiers()
		seen := make(map[string]bool, len(names))
		var dup, other string
		for _, n := range names {
			if seen[n] {
				dup, other = n, t.Name
				break
			}
			seen[n] = true
			if o, ok := owners[n]; ok {
				dup, other = n, o
				break
			}
		}
		if dup != "" {
			clashes[t.Name] = &TableError{
				Table: t.Name,
				Errors: []*ValidationError{{
					Table:   t.Name,
					Rule:    DuplicateStructName,
					Message: fmt.Sprintf("identifier %s is already generated for %q", dup, other),
				}},
			}
			continue
		}
		for _, n := range names {
			owners[n] = t.Name
		}
	}
	return clashes
}

func (g *Generator) rejected(report *Report, table string, err error) {
	report.reject(table, err)
	log := g.config.Logger.WithField("table", table)
	var te *TableError
	if errors.As(err, &te) {
		for _, v := range te.Errors {
			log.WithFields(logrus.Fields{
				"rule":         v.Rule,
				"field":        v.Field,
				"relationship": v.Relationship,
			}).Warn(v.Message)
		}
	}
	log.WithError(err).Error(MsgTableRejected)
}

// Generate runs the whole pipeline and writes the files of the accepted
// tables to the target directory. Rejected tables are reported and get no
// file. Render and I/O failures abort the run with a *GenerationError;
// nothing is written when rendering fails.
func (g *Generator) Generate(ctx context.Context, reg *load.Registry) (*Report, error) {
	c := g.config
	if c.Emitter == nil {
		return nil, NewConfigError("Emitter", nil, "no emitter set: use WithEmitter")
	}
	if c.Target == "" {
		return nil, NewConfigError("Target", nil, "missing target directory")
	}
	graph, report, err := g.Load(ctx, reg)
	if err != nil {
		return report, err
	}
	files := make([]*output, 0, len(graph.Tables)+1)
	for _, t := range graph.Tables {
		out, err := render(c.Emitter.GenTable(graph, t), filepath.Join(c.Target, t.FileName()))
		if err != nil {
			return report, err
		}
		files = append(files, out)
	}
	out, err := render(c.Emitter.GenRegistry(graph), filepath.Join(c.Target, RegistryFile))
	if err != nil {
		return report, err
	}
	files = append(files, out)
	if err := writeAll(c.Target, files); err != nil {
		return report, err
	}
	for i, t := range graph.Tables {
		report.Generated = append(report.Generated, t.Name)
		c.Logger.WithFields(logrus.Fields{
			"table": t.Name,
			"file":  files[i].path,
		}).Info(MsgTableGenerated)
	}
	for _, f := range files {
		report.Files = append(report.Files, f.path)
	}
	return report, nil
}

// NewFile returns a file of the generated package with the header
// comment.
func (g *Graph) NewFile() *jen.File {
	f := jen.NewFile(g.Config.Package)
	f.HeaderComment(g.Config.Header)
	return f
}

// RuntimePkg returns the import path of a runtime package, relative to
// the runtime module.
func (g *Graph) RuntimePkg(sub string) string {
	if sub == "" {
		return g.Config.Runtime
	}
	return g.Config.Runtime + "/" + sub
}
