// Command schemagen generates the JSON schema for the configuration file.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/spf13/pflag"

	"github.com/macropower/filemon/pkg/config"
)

func main() {
	outFile := pflag.StringP("out-file", "o", "schema.json", "Output file for the generated schema")
	pflag.Parse()

	err := generate(*outFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "schemagen: %v\n", err)
		os.Exit(1)
	}
}

func generate(outFile string) error {
	r := &jsonschema.Reflector{}

	// Invoked via go:generate, so the working directory is pkg/config.
	err := r.AddGoComments("github.com/macropower/filemon", "./")
	if err != nil {
		return fmt.Errorf("add go comments: %w", err)
	}

	jss := r.Reflect(&config.Config{})

	jsData, err := json.MarshalIndent(jss, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal JSON schema: %w", err)
	}

	err = os.WriteFile(outFile, append(jsData, '\n'), 0o600)
	if err != nil {
		return fmt.Errorf("write schema file: %w", err)
	}

	return nil
}
