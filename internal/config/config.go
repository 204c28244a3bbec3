// Package config loads the tablegen.yaml project file and the .env
// environment of the tablegen command.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// FileName is the project file looked up in the working directory.
const FileName = "tablegen.yaml"

// EnvDatabaseURL is the environment variable used when no DSN is set.
const EnvDatabaseURL = "DATABASE_URL"

type (
	// Config is the content of a project file.
	Config struct {
		Schemas  string   `yaml:"schemas"`
		Output   string   `yaml:"output"`
		Package  string   `yaml:"package"`
		Naming   string   `yaml:"naming"`
		Header   string   `yaml:"header"`
		Database Database `yaml:"database"`
	}

	// Database selects the database of the check command.
	Database struct {
		Driver string `yaml:"driver"`
		DSN    string `yaml:"dsn"`
	}
)

// Default returns the configuration used without a project file.
func Default() *Config {
	return &Config{
		Schemas:  "schemas",
		Output:   "models",
		Package:  "models",
		Naming:   "naive",
		Database: Database{Driver: "postgres"},
	}
}

// Load reads the project file at path on top of the defaults. An empty
// path reads FileName and tolerates its absence; an explicit path must
// exist. Environment references such as ${DATABASE_URL} are expanded.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = FileName
	}
	c := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
	case !explicit && errors.Is(err, fs.ErrNotExist):
		return c, nil
	default:
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(data))), c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return c, nil
}

// Validate checks the enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	switch strings.ToLower(c.Naming) {
	case "", "naive", "inflect":
	default:
		errs = append(errs, fmt.Errorf("unknown naming strategy %q", c.Naming))
	}
	switch c.Database.Driver {
	case "", "postgres", "pgx", "mysql", "sqlite":
	default:
		errs = append(errs, fmt.Errorf("unknown database driver %q", c.Database.Driver))
	}
	return errors.Join(errs...)
}

// DSN returns the configured data source name, or the value of
// DATABASE_URL.
func (c *Config) DSN() string {
	if c.Database.DSN != "" {
		return c.Database.DSN
	}
	return os.Getenv(EnvDatabaseURL)
}

// LoadEnv loads the given .env files, or ".env" when none is given, into
// the process environment. Missing files are ignored; variables that
// are already set are kept.
func LoadEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return nil
}
