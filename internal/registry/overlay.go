package registry

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type overlayFile struct {
	Resolvers []Descriptor `yaml:"resolvers"`
}

// LoadOverlay reads extra resolver descriptors from a YAML file of the form:
//
//	resolvers:
//	  - key: trade_quarterly_total
//	    query_name: trade_quarterly_totals
//	    fields: [YEAR, QUARTER, TRADE_VALUE_USD_AMT]
//	    numeric_fields: [YEAR, QUARTER, TRADE_VALUE_USD_AMT]
func LoadOverlay(path string) ([]Descriptor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read registry overlay: %w", err)
	}
	return ParseOverlay(data)
}

// ParseOverlay decodes overlay YAML. Unknown keys are rejected.
func ParseOverlay(data []byte) ([]Descriptor, error) {
	var file overlayFile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&file); err != nil {
		return nil, fmt.Errorf("failed to parse registry overlay: %w", err)
	}
	return file.Resolvers, nil
}

// Load builds the registry from the built-in descriptors plus the overlay at
// overlayPath, if any. Overlay keys may not shadow built-in keys.
func Load(overlayPath string) (*Registry, error) {
	descs := Builtin()
	if overlayPath == "" {
		return New(descs...)
	}
	extra, err := LoadOverlay(overlayPath)
	if err != nil {
		return nil, err
	}
	return New(append(descs, extra...)...)
}
