// Package config handles resolving configuration.
package config

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/stolasapp/forge/internal/modifier"
	"github.com/stolasapp/forge/internal/source"
)

const (
	// ErrInvalidConfig is returned when a build file fails validation.
	ErrInvalidConfig Error = "invalid configuration"
)

// Error is a sentinel error returned by this package.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }

// Config is the content of a build file.
type Config struct {
	LogLevel slog.Level `yaml:"log_level"`
	DevMode  bool       `yaml:"dev_mode,omitempty"`
	// Logger enables the human-readable build report.
	Logger bool `yaml:"logger"`
	// Banner prints the banner ahead of the report.
	Banner bool `yaml:"banner"`
	// ContinueOnError runs the remaining builds after one fails.
	ContinueOnError bool    `yaml:"continue_on_error,omitempty"`
	History         History `yaml:"history,omitempty"`
	Builds          []Build `yaml:"builds"`
}

// History configures the optional build history database.
type History struct {
	Enabled bool   `yaml:"enabled,omitempty"`
	Path    string `yaml:"path,omitempty"`
}

// Build is one pipeline configuration.
type Build struct {
	Name    string `yaml:"name,omitempty"`
	Version string `yaml:"version,omitempty"`
	Input   Inputs `yaml:"input,omitempty"`
	Output  string `yaml:"output"`
	// Type is js, css, html, plain, copy or move. Inferred from Output when
	// empty.
	Type       string     `yaml:"type,omitempty"`
	Minify     bool       `yaml:"minify,omitempty"`
	Gzip       bool       `yaml:"gzip,omitempty"`
	SpanInputs bool       `yaml:"span_inputs,omitempty"`
	Replace    *bool      `yaml:"replace,omitempty"`
	Logger     *bool      `yaml:"logger,omitempty"`
	Modifiers  []Modifier `yaml:"modifiers,omitempty"`
}

// Inputs is an ordered list of input descriptors. It accepts a single path, a
// list of paths or a list of descriptor mappings.
type Inputs []Input

// Input is one input descriptor. A bare string is shorthand for File.
type Input struct {
	File     string `yaml:"file"`
	Tag      string `yaml:"tag,omitempty"`
	Select   string `yaml:"select,omitempty"`
	Markdown bool   `yaml:"markdown,omitempty"`
	Sanitize bool   `yaml:"sanitize,omitempty"`
	Charset  string `yaml:"charset,omitempty"`
}

// Modifier describes one content edit rule.
type Modifier struct {
	Action   string    `yaml:"action"`
	Match    string    `yaml:"match"`
	Regex    bool      `yaml:"regex,omitempty"`
	Contents *Contents `yaml:"contents,omitempty"`
}

// Contents is a modifier payload. A bare string is shorthand for String.
type Contents struct {
	String *string `yaml:"string,omitempty"`
	File   string  `yaml:"file,omitempty"`
	Base64 string  `yaml:"base64,omitempty"`
}

// Default returns a version of the config with all default values populated.
// Note that this configuration is _not_ valid, as at least one build must be
// declared.
func Default() *Config {
	return &Config{
		LogLevel: slog.LevelInfo,
		Logger:   true,
		Banner:   true,
		History: History{
			Path: filepath.Join(xdg.DataHome, "forge", "history.sqlite"),
		},
	}
}

// Load loads a YAML build file from a path, merges it with defaults, resolves
// relative paths against the file's directory and validates it.
//
// The file may be a full configuration, a list of builds, or a single build.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path) //nolint:gosec // allow the build file to be loaded from anywhere
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to unmarshal config file at %s: %w", path, err)
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	cfg.ResolvePaths(filepath.Dir(absPath))
	if err = cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}

// Parse decodes a build file onto the defaults without validating it.
func Parse(data []byte) (*Config, error) {
	var root yaml.Node
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	cfg := Default()
	if err := decoder.Decode(&root); errors.Is(err, io.EOF) {
		return cfg, nil
	} else if err != nil {
		return nil, err
	}
	if len(root.Content) == 0 {
		return cfg, nil
	}
	doc := root.Content[0]
	var err error
	switch {
	case doc.Kind == yaml.SequenceNode:
		err = decodeStrict(doc, &cfg.Builds)
	case doc.Kind == yaml.MappingNode && hasKey(doc, "output"):
		var build Build
		err = decodeStrict(doc, &build)
		cfg.Builds = []Build{build}
	default:
		err = decodeStrict(doc, cfg)
	}
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// decodeStrict decodes node into out, rejecting unknown fields like the
// top-level decoder does.
func decodeStrict(node *yaml.Node, out any) error {
	data, err := yaml.Marshal(node)
	if err != nil {
		return err
	}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	return decoder.Decode(out)
}

func hasKey(mapping *yaml.Node, key string) bool {
	for idx := 0; idx+1 < len(mapping.Content); idx += 2 {
		if mapping.Content[idx].Value == key {
			return true
		}
	}
	return false
}

// ResolvePaths makes every relative input, output, contents and history path
// relative to dir instead of the working directory.
func (c *Config) ResolvePaths(dir string) {
	resolve := func(path string) string {
		if path == "" || filepath.IsAbs(path) {
			return path
		}
		return filepath.Join(dir, path)
	}
	c.History.Path = resolve(c.History.Path)
	for idx := range c.Builds {
		build := &c.Builds[idx]
		build.Output = resolve(build.Output)
		for inIdx := range build.Input {
			build.Input[inIdx].File = resolve(build.Input[inIdx].File)
		}
		for modIdx := range build.Modifiers {
			if contents := build.Modifiers[modIdx].Contents; contents != nil {
				contents.File = resolve(contents.File)
			}
		}
	}
}

// Validate checks every build for completeness and every modifier for
// validity. All problems are reported together.
func (c *Config) Validate() error {
	if len(c.Builds) == 0 {
		return fmt.Errorf("%w: no builds declared", ErrInvalidConfig)
	}
	var errs []error
	for idx, build := range c.Builds {
		if err := build.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("build %d (%s): %w", idx, build.Label(), err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Label names the build for reports, falling back to its output.
func (b Build) Label() string {
	if b.Name != "" {
		return b.Name
	}
	return filepath.Base(b.Output)
}

// Validate checks a single build. Build types are checked by the
// coordinator, which also infers them.
func (b Build) Validate() error {
	var errs []error
	if b.Output == "" {
		errs = append(errs, errors.New("output is required"))
	}
	if len(b.Input) == 0 {
		errs = append(errs, errors.New("at least one input is required"))
	}
	for _, desc := range b.Descriptors() {
		if err := desc.Validate(); err != nil {
			errs = append(errs, err)
		}
	}
	if _, err := b.BuildModifiers(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// Descriptors converts the inputs into source descriptors.
func (b Build) Descriptors() []source.Descriptor {
	descriptors := make([]source.Descriptor, len(b.Input))
	for idx, in := range b.Input {
		descriptors[idx] = source.Descriptor{
			Path:     in.File,
			Tag:      in.Tag,
			Select:   in.Select,
			Markdown: in.Markdown,
			Sanitize: in.Sanitize,
			Charset:  in.Charset,
		}
	}
	return descriptors
}

// ReplaceExisting reports whether a copy build may overwrite files.
func (b Build) ReplaceExisting() bool {
	return b.Replace == nil || *b.Replace
}

// LoggerEnabled reports whether the build is reported, given the global
// setting.
func (b Build) LoggerEnabled(global bool) bool {
	if b.Logger != nil {
		return *b.Logger
	}
	return global
}

// BuildModifiers constructs the build's modifiers, in order.
func (b Build) BuildModifiers() ([]*modifier.Modifier, error) {
	mods := make([]*modifier.Modifier, 0, len(b.Modifiers))
	for idx, desc := range b.Modifiers {
		mod, err := desc.Build()
		if err != nil {
			return nil, fmt.Errorf("modifier %d: %w", idx, err)
		}
		mods = append(mods, mod)
	}
	return mods, nil
}

// Build validates the descriptor and constructs a [modifier.Modifier].
func (m Modifier) Build() (*modifier.Modifier, error) {
	action, err := modifier.ParseAction(m.Action)
	if err != nil {
		return nil, err
	}
	contents, err := m.Contents.toModifier()
	if err != nil {
		return nil, err
	}
	var opts []modifier.Option
	if m.Regex {
		opts = append(opts, modifier.AsRegex())
	}
	return modifier.New(action, []byte(m.Match), contents, opts...)
}

func (c *Contents) toModifier() (modifier.Contents, error) {
	if c == nil {
		return modifier.Contents{}, nil
	}
	set := 0
	var out modifier.Contents
	if c.String != nil {
		set++
		out = modifier.String(*c.String)
	}
	if c.File != "" {
		set++
		out = modifier.File(c.File)
	}
	if c.Base64 != "" {
		set++
		data, err := base64.StdEncoding.DecodeString(c.Base64)
		if err != nil {
			return out, fmt.Errorf("%w: bad base64 contents: %w", modifier.ErrInvalidModifier, err)
		}
		out = modifier.Bytes(data)
	}
	if set > 1 {
		return out, fmt.Errorf("%w: contents must set only one of string, file or base64", modifier.ErrInvalidModifier)
	}
	return out, nil
}
