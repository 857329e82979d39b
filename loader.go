package dfsm

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/comalice/dfsm/internal/primitives"
)

// DocumentFormat names the encoding of a config document.
type DocumentFormat string

// Supported document formats. YAML is a superset of JSON, so it is also the fallback.
const (
	JSONDocument DocumentFormat = "json"
	YAMLDocument DocumentFormat = "yaml"
)

// FormatOf picks the document format from the file extension.
func FormatOf(path string) DocumentFormat {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		return JSONDocument
	}
	return YAMLDocument
}

// LoadFile reads and normalizes the config document at path.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}
	cfg, err := Decode(data, FormatOf(path))
	if err != nil {
		return Config{}, errors.Wrapf(err, "load config %s", path)
	}
	return cfg, nil
}

// Decode parses data in format and normalizes the result. Both key schemes are accepted.
func Decode(data []byte, format DocumentFormat) (Config, error) {
	raw := make(map[string]any)
	switch format {
	case JSONDocument:
		if err := json.Unmarshal(data, &raw); err != nil {
			return Config{}, primitives.NewConfigError("", "invalid JSON: "+err.Error())
		}
	case YAMLDocument, "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return Config{}, primitives.NewConfigError("", "invalid YAML: "+err.Error())
		}
	default:
		return Config{}, errors.Errorf("unknown document format %q", format)
	}
	return primitives.Normalize(raw)
}
