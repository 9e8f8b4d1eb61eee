package rules

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"ruledxml/internal/diagnostic"
)

// LoadFile loads and parses a YAML rulefile from the given path, building
// rule implementations from the transform registry.
func LoadFile(path string, reg *TransformRegistry) (*Set, Meta, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("failed to read rulefile %s: %w", path, err)
	}

	set, meta, err := ParseRulefile(data, reg)
	if err != nil {
		return nil, Meta{}, fmt.Errorf("rulefile %s: %w", path, err)
	}
	return set, meta, nil
}

// ParseRulefile parses YAML data into a rule set and run metadata. The
// file must contain at least one rule.
func ParseRulefile(data []byte, reg *TransformRegistry) (*Set, Meta, error) {
	if reg == nil {
		reg = NewTransformRegistry()
	}

	var rf Rulefile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, Meta{}, fmt.Errorf("failed to parse rulefile YAML: %w", err)
	}

	applyDefaults(&rf)

	if len(rf.Rules) == 0 {
		return nil, Meta{}, fmt.Errorf("expected at least one rule definition, none given")
	}

	set := NewSet()
	res := &diagnostic.Diagnostics{}

	for i := range rf.Rules {
		def := &rf.Rules[i]

		r, ok := buildRule(res, def, reg)
		if !ok {
			continue
		}

		if err := set.Add(r); err != nil {
			res.AddError(CodeDuplicateRule, err.Error(), def.Name, "")
		}
	}

	if err := res.Error(); err != nil {
		return nil, Meta{}, err
	}

	return set, metaFrom(&rf), nil
}

// applyDefaults fills in default values for optional fields.
func applyDefaults(rf *Rulefile) {
	if rf.Version == "" {
		rf.Version = "1"
	}

	if rf.Output.Encoding == "" {
		rf.Output.Encoding = "utf-8"
	}

	for i := range rf.Rules {
		if rf.Rules[i].Transform == "" {
			rf.Rules[i].Transform = "identity"
		}
	}
}

func buildRule(res *diagnostic.Diagnostics, def *RuleDef, reg *TransformRegistry) (Rule, bool) {
	if def.Name == "" {
		res.AddError("unnamed_rule", "rule definition has no name", "", "")
		return Rule{}, false
	}

	transform, ok := reg.Get(def.Transform)
	if !ok {
		res.AddError(CodeUnknownTransform,
			fmt.Sprintf("unknown transform %q (known: %v)", def.Transform, reg.Names()),
			def.Name, "")
		return Rule{}, false
	}

	impl, err := transform(def.Params)
	if err != nil {
		res.AddError("transform_params", err.Error(), def.Name, "")
		return Rule{}, false
	}

	r := Rule{
		Name:         def.Name,
		Sources:      def.Sources,
		Destinations: def.Destinations,
		Order:        def.Order,
		Impl:         impl,
	}

	if def.Foreach != nil {
		r.Foreach = []BasePair{}
		for _, pair := range def.Foreach {
			if len(pair) != 2 {
				res.AddError(CodeForeachArity,
					fmt.Sprintf("a foreach pair must have exactly two components, has %d", len(pair)),
					def.Name, "")
				return Rule{}, false
			}
			r.Foreach = append(r.Foreach, BasePair{Source: pair[0], Destination: pair[1]})
		}
	}

	return r, true
}

func metaFrom(rf *Rulefile) Meta {
	return Meta{
		InputNamespaces:  rf.Input.Namespaces,
		OutputNamespaces: rf.Output.Namespaces,
		InputRequired:    rf.Input.Required,
		InputNonempty:    rf.Input.Nonempty,
		OutputRequired:   rf.Output.Required,
		OutputNonempty:   rf.Output.Nonempty,
		OutputEncoding:   rf.Output.Encoding,
	}
}
