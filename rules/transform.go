package rules

import (
	"fmt"
	"sort"
	"strings"
)

// Transform builds a rule implementation from rulefile parameters. Named
// transforms are how YAML-loaded rules get their behavior; Go callers can
// bypass them entirely by setting Rule.Impl directly.
type Transform func(params map[string]string) (Impl, error)

// TransformRegistry holds named transforms and provides lookup.
type TransformRegistry struct {
	transforms map[string]Transform
}

// NewTransformRegistry returns a registry seeded with the built-in
// transforms: identity, constant, upper, lower, trim, join, format and
// nonempty.
func NewTransformRegistry() *TransformRegistry {
	r := &TransformRegistry{transforms: make(map[string]Transform)}
	for name, t := range builtins {
		r.transforms[name] = t
	}
	return r
}

// Register adds a custom transform. Redefining a name is rejected.
func (r *TransformRegistry) Register(name string, t Transform) error {
	if name == "" {
		return fmt.Errorf("transform has no name")
	}
	if _, exists := r.transforms[name]; exists {
		return fmt.Errorf("duplicate transform %q", name)
	}

	r.transforms[name] = t
	return nil
}

// Get returns the transform with the given name.
func (r *TransformRegistry) Get(name string) (Transform, bool) {
	t, ok := r.transforms[name]
	return t, ok
}

// Has returns true if a transform with the given name exists.
func (r *TransformRegistry) Has(name string) bool {
	_, ok := r.transforms[name]
	return ok
}

// Names returns all registered transform names, sorted.
func (r *TransformRegistry) Names() []string {
	names := make([]string, 0, len(r.transforms))
	for name := range r.transforms {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

var builtins = map[string]Transform{
	// identity passes the first source value through unchanged.
	"identity": func(map[string]string) (Impl, error) {
		return func(args []string) (string, bool) {
			return first(args), true
		}, nil
	},

	// nonempty passes the first source value through, skipping the write
	// entirely when the value is empty.
	"nonempty": func(map[string]string) (Impl, error) {
		return func(args []string) (string, bool) {
			v := first(args)
			return v, v != ""
		}, nil
	},

	// constant ignores its sources and writes the value parameter.
	"constant": func(params map[string]string) (Impl, error) {
		value, ok := params["value"]
		if !ok {
			return nil, fmt.Errorf("constant transform requires a value parameter")
		}
		return func([]string) (string, bool) {
			return value, true
		}, nil
	},

	"upper": func(map[string]string) (Impl, error) {
		return func(args []string) (string, bool) {
			return strings.ToUpper(first(args)), true
		}, nil
	},

	"lower": func(map[string]string) (Impl, error) {
		return func(args []string) (string, bool) {
			return strings.ToLower(first(args)), true
		}, nil
	},

	"trim": func(map[string]string) (Impl, error) {
		return func(args []string) (string, bool) {
			return strings.TrimSpace(first(args)), true
		}, nil
	},

	// join concatenates all source values with the separator parameter
	// (empty by default).
	"join": func(params map[string]string) (Impl, error) {
		sep := params["separator"]
		return func(args []string) (string, bool) {
			return strings.Join(args, sep), true
		}, nil
	},

	// format renders the template parameter with every source value
	// substituted positionally for %s verbs.
	"format": func(params map[string]string) (Impl, error) {
		template, ok := params["template"]
		if !ok {
			return nil, fmt.Errorf("format transform requires a template parameter")
		}
		return func(args []string) (string, bool) {
			anyArgs := make([]any, len(args))
			for i, a := range args {
				anyArgs[i] = a
			}
			return fmt.Sprintf(template, anyArgs...), true
		}, nil
	},
}

func first(args []string) string {
	if len(args) == 0 {
		return ""
	}
	return args[0]
}
