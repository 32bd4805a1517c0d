package ticketdoc

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format selects the encoding of ticket documents.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

var errEmptyDocument = errors.New("ticketdoc: document is empty")

// ParseFormat accepts "json", "yaml" or "yml".
func ParseFormat(value string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "", "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("ticketdoc: unsupported format %q", value)
	}
}

// FormatForPath picks YAML for .yaml and .yml files and JSON for anything else, stdin included.
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Decode reads a single document of the given format into out.
func Decode(r io.Reader, format Format, out any) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("ticketdoc: read document: %w", err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return errEmptyDocument
	}

	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, out); err != nil {
			return fmt.Errorf("ticketdoc: decode yaml: %w", err)
		}
	default:
		if err := json.Unmarshal(data, out); err != nil {
			return fmt.Errorf("ticketdoc: decode json: %w", err)
		}
	}
	return nil
}

// Encode writes v in the given format.
func Encode(w io.Writer, format Format, v any) error {
	switch format {
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("ticketdoc: encode yaml: %w", err)
		}
		return enc.Close()
	default:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(v); err != nil {
			return fmt.Errorf("ticketdoc: encode json: %w", err)
		}
		return nil
	}
}
