package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// LoadData reads a JSON or YAML file holding template data.
func LoadData(path string) (map[string]any, error) {
	if path == "" {
		return nil, errors.New("config: data path is required")
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read data %q: %w", path, err)
	}
	return DecodeData(path, raw)
}

// DecodeData decodes raw using the format implied by name's extension. JSON is
// assumed when the extension is not .yaml or .yml.
func DecodeData(name string, raw []byte) (map[string]any, error) {
	out := map[string]any{}
	if len(bytes.TrimSpace(raw)) == 0 {
		return out, nil
	}

	switch strings.ToLower(filepath.Ext(name)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(raw, &out); err != nil {
			return nil, fmt.Errorf("config: decode yaml data %q: %w", name, err)
		}
	default:
		decoder := json.NewDecoder(bytes.NewReader(raw))
		decoder.UseNumber()
		if err := decoder.Decode(&out); err != nil {
			return nil, fmt.Errorf("config: decode json data %q: %w", name, err)
		}
	}
	return out, nil
}
