// Copyright 2026 © The BloodTestAnalyser Authors
// SPDX-License-Identifier: Apache-2.0

package crew

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadDefinition loads a crew definition from a YAML or JSON file.
func LoadDefinition(path string) (*Definition, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("crew definition path is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return ParseJSON(data)
	default:
		return ParseYAML(data)
	}
}

// ParseYAML decodes a crew definition from YAML.
func ParseYAML(data []byte) (*Definition, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty YAML payload")
	}
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse yaml crew: %w", err)
	}
	return &def, nil
}

// ParseJSON decodes a crew definition from JSON.
func ParseJSON(data []byte) (*Definition, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON payload")
	}
	var def Definition
	if err := json.Unmarshal(data, &def); err != nil {
		return nil, fmt.Errorf("parse json crew: %w", err)
	}
	return &def, nil
}

// MarshalYAML serializes a definition to YAML.
func MarshalYAML(def *Definition) ([]byte, error) {
	if def == nil {
		return nil, fmt.Errorf("definition is nil")
	}
	return yaml.Marshal(def)
}
