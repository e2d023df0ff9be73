// Package loader reads grid definitions from YAML or JSON files.
//
// A definition file lists root grids; nested grids live under the config
// key of their grid fields:
//
//	grids:
//	  - name: people
//	    table: people
//	    sortField: position
//	    fields:
//	      - field: name
//	        validators: [required, "max:80"]
//	        searchable: true
//	      - field: pets
//	        type: grid
//	        config:
//	          table: pets
//	          connectionField: ownerId
//	          fields:
//	            - field: petName
package loader

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// Format is the encoding of a definition file.
type Format string

const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// File is the top-level structure of a definition file.
type File struct {
	Grids []*domain.GridConfig `mapstructure:"grids"`
}

// FormatOf guesses the format from the file extension. Anything that is not
// .json is read as YAML.
func FormatOf(path string) Format {
	if strings.ToLower(filepath.Ext(path)) == ".json" {
		return FormatJSON
	}
	return FormatYAML
}

// Load reads the grid definitions at path.
func Load(path string) ([]*domain.GridConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read grid definitions: %w", err)
	}
	grids, err := Parse(data, FormatOf(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return grids, nil
}

// Parse decodes grid definitions. Unknown keys are rejected so typos do not
// silently drop settings; scalar values are coerced ("10" to 10).
func Parse(data []byte, format Format) ([]*domain.GridConfig, error) {
	var raw map[string]any
	switch format {
	case FormatJSON:
		if err := json.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse json: %w", err)
		}
	default:
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return nil, fmt.Errorf("failed to parse yaml: %w", err)
		}
	}
	if raw == nil {
		return nil, fmt.Errorf("no grids defined")
	}

	var file File
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &file,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(raw); err != nil {
		return nil, fmt.Errorf("failed to decode grids: %w", err)
	}
	if len(file.Grids) == 0 {
		return nil, fmt.Errorf("no grids defined")
	}
	return file.Grids, nil
}
