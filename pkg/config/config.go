package config

import (
	_ "embed"

	"github.com/invopop/jsonschema"

	"github.com/macropower/filemon/api"
	"github.com/macropower/filemon/pkg/dispatch"
	"github.com/macropower/filemon/pkg/schema"
)

//go:generate go run ../../internal/schemagen/main.go -o config.v1beta1.json

var (
	//go:embed config.yaml
	defaultConfigYAML []byte

	//go:embed config.v1beta1.json
	schemaJSON []byte

	ValidAPIVersions = []string{
		"filemon.jacobcolvin.com/v1beta1",
	}
	ValidKinds = []string{
		"Configuration",
	}

	DefaultValidator = schema.MustNewValidator("/config.v1beta1.json", schemaJSON)
)

//nolint:recvcheck // Must satisfy the jsonschema interface.
type Config struct {
	// APIVersion specifies the API version for this configuration.
	APIVersion string `json:"apiVersion" jsonschema:"title=API Version"`
	// Kind defines the type of configuration.
	Kind string `json:"kind" jsonschema:"title=Kind"`
	// Command is the template to run when a watched file settles.
	// The triggering file path is appended as the final argument.
	Command string `json:"command" jsonschema:"title=Command"`
	// Paths lists the directories to watch.
	Paths []string `json:"paths,omitempty" jsonschema:"title=Paths"`
	// Shell controls whether the command runs through `sh -c`.
	// Defaults to true.
	Shell *bool `json:"shell,omitempty" jsonschema:"title=Shell"`
	// MaxCommandLength caps the length of the assembled command line.
	MaxCommandLength int `json:"maxCommandLength,omitempty" jsonschema:"title=Max Command Length,minimum=1"`
}

func NewConfig() *Config {
	c := &Config{
		APIVersion: "filemon.jacobcolvin.com/v1beta1",
		Kind:       "Configuration",
	}
	c.EnsureDefaults()

	return c
}

func (c *Config) EnsureDefaults() {
	if c.Shell == nil {
		useShell := true
		c.Shell = &useShell
	}

	if c.MaxCommandLength == 0 {
		c.MaxCommandLength = dispatch.MaxCommandLen
	}
}

// UseShell reports whether commands should run through the shell.
func (c *Config) UseShell() bool {
	return c.Shell == nil || *c.Shell
}

func (c Config) JSONSchemaExtend(jss *jsonschema.Schema) {
	apiVersion, ok := jss.Properties.Get("apiVersion")
	if !ok {
		panic("apiVersion property not found in schema")
	}

	for _, version := range ValidAPIVersions {
		apiVersion.OneOf = append(apiVersion.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: version,
			Title: "API Version",
		})
	}

	_, _ = jss.Properties.Set("apiVersion", apiVersion)

	kind, ok := jss.Properties.Get("kind")
	if !ok {
		panic("kind property not found in schema")
	}

	for _, kindValue := range ValidKinds {
		kind.OneOf = append(kind.OneOf, &jsonschema.Schema{
			Type:  "string",
			Const: kindValue,
			Title: "Kind",
		})
	}

	_, _ = jss.Properties.Set("kind", kind)
}

func (c *Config) MarshalYAML() ([]byte, error) {
	return api.MarshalYAML(*c)
}

// Write writes the configuration to a path if no file exists there yet.
func (c Config) Write(path string) error {
	b, err := c.MarshalYAML()
	if err != nil {
		return err
	}

	return api.WriteIfNotExists(path, b)
}

// WriteDefault writes the embedded default configuration to a path if no
// file exists there yet.
func WriteDefault(path string) error {
	return api.WriteIfNotExists(path, defaultConfigYAML)
}

// GetPath returns the default configuration file path.
func GetPath() string {
	return api.GetConfigPath("config.yaml")
}

// DefaultConfigYAML returns the embedded default configuration.
func DefaultConfigYAML() []byte {
	return defaultConfigYAML
}
