package config

import (
	"bytes"
	"fmt"

	"github.com/goccy/go-yaml"

	"github.com/macropower/filemon/api"
)

// Validator validates configuration data against a schema.
type Validator interface {
	Validate(data any) error
}

// Loader handles validation and YAML parsing of configuration data.
type Loader struct {
	validator Validator
	data      []byte
}

// LoaderOpt configures a [Loader].
type LoaderOpt func(*Loader)

// WithValidator sets a custom validator.
func WithValidator(v Validator) LoaderOpt {
	return func(l *Loader) {
		l.validator = v
	}
}

// NewLoaderFromBytes creates a [Loader] from byte data.
func NewLoaderFromBytes(data []byte, opts ...LoaderOpt) *Loader {
	l := &Loader{
		validator: DefaultValidator,
		data:      data,
	}
	for _, opt := range opts {
		opt(l)
	}

	return l
}

// NewLoaderFromFile creates a [Loader] from a file path.
func NewLoaderFromFile(path string, opts ...LoaderOpt) (*Loader, error) {
	data, err := api.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	return NewLoaderFromBytes(data, opts...), nil
}

// Validate validates the configuration data against the schema.
func (l *Loader) Validate() error {
	var anyConfig any

	dec := yaml.NewDecoder(bytes.NewReader(l.data), yaml.AllowDuplicateMapKey())

	err := dec.Decode(&anyConfig)
	if err != nil {
		return fmt.Errorf("decode yaml: %w", err)
	}

	if l.validator != nil {
		err = l.validator.Validate(anyConfig)
		if err != nil {
			return fmt.Errorf("validate config: %w", err)
		}
	}

	return nil
}

// Load validates, parses, and returns the configuration.
func (l *Loader) Load() (*Config, error) {
	err := l.Validate()
	if err != nil {
		return nil, err
	}

	cfg := &Config{}

	dec := yaml.NewDecoder(bytes.NewReader(l.data), yaml.AllowDuplicateMapKey())

	err = dec.Decode(cfg)
	if err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}

	cfg.EnsureDefaults()

	return cfg, nil
}
