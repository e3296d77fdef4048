// Package config handles vba2py.toml project configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"vba2py/translator"
)

// FileName is the project configuration file looked up by Load.
const FileName = "vba2py.toml"

// Config represents a vba2py.toml project configuration.
type Config struct {
	Source Source `toml:"source"`
	Output Output `toml:"output"`
	Batch  Batch  `toml:"batch"`

	// Dir is the directory containing the vba2py.toml file, or the working
	// directory for a default configuration.
	Dir string `toml:"-"`
}

// Source configures where modules are found and how they are read.
type Source struct {
	Dirs        []string `toml:"dirs"`
	Extensions  []string `toml:"extensions"`
	Encoding    string   `toml:"encoding"`
	HeaderLines int      `toml:"header_lines"`
	Exclude     []string `toml:"exclude"`
}

// Output configures the generated Python files.
type Output struct {
	Dir         string   `toml:"dir"`
	Indent      string   `toml:"indent"`
	Prelude     []string `toml:"prelude"`
	EmitRuntime bool     `toml:"emit_runtime"`
}

// Batch configures directory translation.
type Batch struct {
	// Workers bounds concurrent translations; 0 means GOMAXPROCS.
	Workers int `toml:"workers"`
}

// Default returns the configuration used when no vba2py.toml exists.
func Default(dir string) (*Config, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c := &Config{Dir: abs}
	c.applyDefaults(toml.MetaData{})
	return c, nil
}

// Load parses the vba2py.toml file in dir.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("unknown keys in %s: %s", path, strings.Join(keys, ", "))
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c.applyDefaults(md)
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("invalid %s: %w", path, err)
	}
	return &c, nil
}

// FindAndLoad walks up from startDir to find a vba2py.toml file and loads
// it. It returns nil without an error when no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// LoadOrDefault loads an explicit file when path is set, otherwise searches
// upwards from startDir and falls back to Default.
func LoadOrDefault(path, startDir string) (*Config, error) {
	if path != "" {
		if filepath.Base(path) != FileName {
			return nil, fmt.Errorf("config file must be named %s, got %s", FileName, path)
		}
		return Load(filepath.Dir(path))
	}
	c, err := FindAndLoad(startDir)
	if err != nil || c != nil {
		return c, err
	}
	return Default(startDir)
}

// applyDefaults fills unset values. Keys present in the file win even when
// they hold a zero value, so prelude = [] disables the import line.
func (c *Config) applyDefaults(md toml.MetaData) {
	if len(c.Source.Dirs) == 0 {
		c.Source.Dirs = []string{"."}
	}
	if len(c.Source.Extensions) == 0 {
		c.Source.Extensions = []string{".bas"}
	}
	if c.Source.Encoding == "" {
		c.Source.Encoding = "windows-1252"
	}
	if !md.IsDefined("source", "header_lines") {
		c.Source.HeaderLines = 1
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "py"
	}
	defaults := translator.DefaultOptions()
	if c.Output.Indent == "" {
		c.Output.Indent = defaults.Indent
	}
	if !md.IsDefined("output", "prelude") {
		c.Output.Prelude = defaults.Prelude
	}
	if !md.IsDefined("output", "emit_runtime") {
		c.Output.EmitRuntime = true
	}
}

func (c *Config) validate() error {
	var errs []error
	if strings.Trim(c.Output.Indent, " \t") != "" {
		errs = append(errs, fmt.Errorf("output.indent must be blanks, got %q", c.Output.Indent))
	}
	if c.Source.HeaderLines < 0 {
		errs = append(errs, fmt.Errorf("source.header_lines must not be negative, got %d", c.Source.HeaderLines))
	}
	if c.Batch.Workers < 0 {
		errs = append(errs, fmt.Errorf("batch.workers must not be negative, got %d", c.Batch.Workers))
	}
	for _, ext := range c.Source.Extensions {
		if !strings.HasPrefix(ext, ".") {
			errs = append(errs, fmt.Errorf("source.extensions entry %q must start with a dot", ext))
		}
	}
	for _, pattern := range c.Source.Exclude {
		if _, err := filepath.Match(pattern, ""); err != nil {
			errs = append(errs, fmt.Errorf("source.exclude pattern %q: %w", pattern, err))
		}
	}
	if _, err := lookupEncoding(c.Source.Encoding); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// SourceDirPaths returns absolute paths for the configured source directories.
func (c *Config) SourceDirPaths() []string {
	var paths []string
	for _, d := range c.Source.Dirs {
		paths = append(paths, c.resolve(d))
	}
	return paths
}

// OutputDir returns the absolute output directory.
func (c *Config) OutputDir() string {
	return c.resolve(c.Output.Dir)
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Dir, p)
}

// Workers resolves the batch worker count.
func (c *Config) Workers() int {
	if c.Batch.Workers > 0 {
		return c.Batch.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// TranslatorOptions returns the generator settings of the output section.
func (c *Config) TranslatorOptions() translator.Options {
	return translator.Options{
		Indent:  c.Output.Indent,
		Prelude: append([]string(nil), c.Output.Prelude...),
	}
}

// Includes reports whether a file, given relative to a source directory,
// is a module to translate.
func (c *Config) Includes(rel string) bool {
	ext := strings.ToLower(filepath.Ext(rel))
	matched := false
	for _, e := range c.Source.Extensions {
		if strings.ToLower(e) == ext {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	slashed := filepath.ToSlash(rel)
	for _, pattern := range c.Source.Exclude {
		if ok, _ := filepath.Match(pattern, filepath.Base(rel)); ok {
			return false
		}
		if ok, _ := filepath.Match(pattern, slashed); ok {
			return false
		}
	}
	return true
}
