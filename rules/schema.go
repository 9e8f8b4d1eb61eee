package rules

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Rulefile is the YAML representation of a rule set plus run metadata.
type Rulefile struct {
	Version string     `yaml:"version"`
	Input   SideConfig `yaml:"input"`
	Output  SideConfig `yaml:"output"`
	Rules   []RuleDef  `yaml:"rules"`
}

// SideConfig describes one side of a run: the namespace bindings active
// for that side's paths and the path sets checked for presence/content.
// Encoding is only meaningful on the output side.
type SideConfig struct {
	Namespaces []Binding  `yaml:"namespaces"`
	Required   StringList `yaml:"required"`
	Nonempty   StringList `yaml:"nonempty"`
	Encoding   string     `yaml:"encoding"`
}

// RuleDef is the YAML representation of one rule.
type RuleDef struct {
	Name string `yaml:"name"`
	// Sources accepts a single path or a list of paths.
	Sources StringList `yaml:"sources"`
	// Destinations accepts a single path or a list; validation rejects
	// anything but exactly one.
	Destinations StringList `yaml:"destination"`
	// Foreach lists base pairs, outermost first. Each pair must have
	// exactly two components.
	Foreach [][]string `yaml:"foreach"`
	Order   *int       `yaml:"order"`
	// Transform names the implementation in the transform registry;
	// identity when empty.
	Transform string            `yaml:"transform"`
	Params    map[string]string `yaml:"params"`
}

// StringList accepts either a single YAML string or a sequence of strings.
type StringList []string

// UnmarshalYAML implements custom YAML unmarshaling for StringList.
func (s *StringList) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		var str string
		if err := node.Decode(&str); err != nil {
			return err
		}

		if str != "" {
			*s = StringList{str}
		} else {
			*s = StringList{}
		}

		return nil

	case yaml.SequenceNode:
		var arr []string
		if err := node.Decode(&arr); err != nil {
			return err
		}

		*s = arr

		return nil

	default:
		return fmt.Errorf("expected string or array, got %v", node.Kind)
	}
}

// MarshalYAML implements custom YAML marshaling for StringList.
func (s StringList) MarshalYAML() (any, error) {
	if len(s) == 1 {
		return s[0], nil
	}

	return []string(s), nil
}
