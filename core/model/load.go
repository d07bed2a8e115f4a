package model

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadSpec reads a plan specification from a JSON or YAML file.
func LoadSpec(path string) (*PlanSpecification, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	spec, err := DecodeSpec(f, strings.TrimPrefix(filepath.Ext(path), "."))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return spec, nil
}

// DecodeSpec reads a plan specification in the given format, "json" or
// "yaml".
func DecodeSpec(r io.Reader, format string) (*PlanSpecification, error) {
	var spec PlanSpecification
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&spec); err != nil {
			return nil, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&spec); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("unsupported plan format: %q", format)
	}
	return &spec, nil
}
