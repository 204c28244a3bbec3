package gen

import (
	"errors"
	"go/token"
	"io"

	"github.com/sirupsen/logrus"
)

// DefaultRuntime is the import path of the runtime module that emitted
// code depends on.
const DefaultRuntime = "github.com/syssam/tablegen"

// DefaultHeader is the comment written at the top of each generated file.
const DefaultHeader = "Code generated by tablegen. DO NOT EDIT."

// Config holds the generation settings.
type Config struct {
	// Package is the name of the generated Go package.
	Package string
	// Target is the output directory.
	Target string
	// Header is the comment at the top of each file.
	Header string
	// Runtime is the import path of the runtime module.
	Runtime string
	// Namer singularizes table names for generated identifiers.
	Namer Namer
	// Logger receives per-table outcomes.
	Logger logrus.FieldLogger
	// Emitter renders the files. It is required by Generate.
	Emitter Emitter
}

// Option configures code generation.
type Option func(*Config) error

// WithHeader sets the file header comment.
func WithHeader(header string) Option {
	return func(c *Config) error {
		if header == "" {
			return NewConfigError("Header", nil, "header cannot be empty")
		}
		c.Header = header
		return nil
	}
}

// WithPackage sets the generated package name.
func WithPackage(pkg string) Option {
	return func(c *Config) error {
		if pkg == "" {
			return NewConfigError("Package", nil, "package cannot be empty")
		}
		if !token.IsIdentifier(pkg) || token.IsKeyword(pkg) {
			return NewConfigError("Package", pkg, "package must be a valid Go identifier")
		}
		c.Package = pkg
		return nil
	}
}

// WithTarget sets the output directory.
func WithTarget(dir string) Option {
	return func(c *Config) error {
		if dir == "" {
			return NewConfigError("Target", nil, "target directory cannot be empty")
		}
		c.Target = dir
		return nil
	}
}

// WithRuntime sets the import path of the runtime module.
func WithRuntime(path string) Option {
	return func(c *Config) error {
		if path == "" {
			return NewConfigError("Runtime", nil, "runtime import path cannot be empty")
		}
		c.Runtime = path
		return nil
	}
}

// WithNamer sets the naming strategy.
func WithNamer(n Namer) Option {
	return func(c *Config) error {
		if n == nil {
			return NewConfigError("Namer", nil, "namer cannot be nil")
		}
		c.Namer = n
		return nil
	}
}

// WithNaming sets the naming strategy by name: "naive" or "inflect".
func WithNaming(name string) Option {
	return func(c *Config) error {
		n, ok := NamerByName(name)
		if !ok {
			return NewConfigError("Naming", name, "unsupported naming; use naive or inflect")
		}
		c.Namer = n
		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(c *Config) error {
		if l == nil {
			return NewConfigError("Logger", nil, "logger cannot be nil")
		}
		c.Logger = l
		return nil
	}
}

// WithEmitter sets the file emitter.
func WithEmitter(e Emitter) Option {
	return func(c *Config) error {
		if e == nil {
			return NewConfigError("Emitter", nil, "emitter cannot be nil")
		}
		c.Emitter = e
		return nil
	}
}

// Apply applies options to the config.
// It returns the first error encountered.
func (c *Config) Apply(opts ...Option) error {
	for _, opt := range opts {
		if err := opt(c); err != nil {
			return err
		}
	}
	return nil
}

// ApplyAll applies options and collects all errors.
// Returns a joined error if any options failed.
func (c *Config) ApplyAll(opts ...Option) error {
	var errs []error
	for _, opt := range opts {
		if err := opt(c); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NewConfig creates a Config with defaults and the given options.
func NewConfig(opts ...Option) (*Config, error) {
	c := &Config{
		Package: "models",
		Header:  DefaultHeader,
		Runtime: DefaultRuntime,
		Namer:   Naive,
		Logger:  discardLogger(),
	}
	if err := c.Apply(opts...); err != nil {
		return nil, err
	}
	return c, nil
}

// MustNewConfig creates a new Config with the given options.
// It panics if any option fails.
func MustNewConfig(opts ...Option) *Config {
	c, err := NewConfig(opts...)
	if err != nil {
		panic(err)
	}
	return c
}

func discardLogger() logrus.FieldLogger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}
