package registry

import (
	"fmt"
	"maps"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// UnknownLabel is shown for balances whose identity has no label
const UnknownLabel = "?????"

// Labels maps balance identities (serial numbers) to human names
type Labels map[string]string

// BuiltinLabels returns the labels for the lab's own balances
func BuiltinLabels() Labels {
	return Labels{
		"C???":       "Sylvester Scalelone",
		"C052778878": "Dweight Johnson",
		"C105085062": "Mass Damon",
	}
}

// LoadLabels reads a YAML mapping of identity to label and merges it over the
// builtin table. An empty path returns the builtin table.
//
//	C052778878: Dweight Johnson
//	C105085062: Mass Damon
func LoadLabels(path string) (Labels, error) {
	labels := BuiltinLabels()
	if path == "" {
		return labels, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading labels file: %w", err)
	}

	var fromFile map[string]string
	if err := yaml.Unmarshal(data, &fromFile); err != nil {
		return nil, fmt.Errorf("parsing labels file %s: %w", path, err)
	}

	for identity, label := range fromFile {
		identity = strings.TrimSpace(identity)
		label = strings.TrimSpace(label)
		if identity == "" || label == "" {
			continue
		}
		labels[identity] = label
	}
	return labels, nil
}

// Lookup returns the label for identity, or UnknownLabel
func (l Labels) Lookup(identity string) string {
	if label, ok := l[identity]; ok && identity != "" {
		return label
	}
	return UnknownLabel
}

// Clone returns a copy that can be modified independently
func (l Labels) Clone() Labels {
	return maps.Clone(l)
}
