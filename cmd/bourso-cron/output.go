package main

import (
	"fmt"
	"io"

	"gopkg.in/yaml.v3"
)

// Output formats accepted by --output.
const (
	outputText = "text"
	outputYAML = "yaml"
)

func checkOutput(format string) error {
	switch format {
	case outputText, outputYAML:
		return nil
	default:
		return fmt.Errorf("unknown output format %q (expected: text, yaml)", format)
	}
}

// writeYAML encodes v as a YAML document.
func writeYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode yaml: %w", err)
	}
	return enc.Close()
}
