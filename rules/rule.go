package rules

import (
	"fmt"
)

// Impl is a rule implementation: a pure function from the values read at
// the rule's source paths (positionally) to an optional output value.
// Returning ok=false means "skip, write nothing".
type Impl func(args []string) (value string, ok bool)

// BasePair describes one repetition level of a foreach rule: the source
// base path that is iterated and the destination base path that receives
// one fresh element per iteration.
type BasePair struct {
	Source      string
	Destination string
}

// Rule is one mapping rule. Built once when rules are loaded; immutable
// thereafter.
type Rule struct {
	// Name uniquely identifies the rule within a Set.
	Name string
	// Sources are the input path expressions, in the positional order of
	// the implementation's arguments.
	Sources []string
	// Destinations holds the declared destination paths. A well-formed
	// rule declares exactly one; validation enforces it.
	Destinations []string
	// Foreach is the nested repetition chain, outermost pair first.
	// Nil for basic rules.
	Foreach []BasePair
	// Order is the explicit execution order, nil for auto-assignment.
	Order *int
	// Impl is the rule implementation.
	Impl Impl
}

// Destination returns the single declared destination path. Only valid on
// a validated rule.
func (r *Rule) Destination() string {
	return r.Destinations[0]
}

// IsForeach reports whether the rule declares a repetition chain.
func (r *Rule) IsForeach() bool {
	return r.Foreach != nil
}

// DuplicateRuleError reports two rules registered under the same name.
type DuplicateRuleError struct {
	Name string
}

func (e *DuplicateRuleError) Error() string {
	return fmt.Sprintf("rule %q is defined multiple times", e.Name)
}

// Set is the registration structure for rules: an insertion-ordered,
// name-unique collection. Declaration-encounter order matters; it drives
// the auto-assignment of execution order keys.
type Set struct {
	byName map[string]*Rule
	order  []string
}

// NewSet returns an empty rule set.
func NewSet() *Set {
	return &Set{byName: make(map[string]*Rule)}
}

// Add registers a rule. A duplicate name is rejected before any execution
// could take place.
func (s *Set) Add(r Rule) error {
	if r.Name == "" {
		return fmt.Errorf("rule has no name")
	}
	if _, exists := s.byName[r.Name]; exists {
		return &DuplicateRuleError{Name: r.Name}
	}

	stored := r
	s.byName[r.Name] = &stored
	s.order = append(s.order, r.Name)
	return nil
}

// Get returns the rule with the given name, or nil.
func (s *Set) Get(name string) *Rule {
	return s.byName[name]
}

// Rules returns all rules in declaration-encounter order.
func (s *Set) Rules() []*Rule {
	out := make([]*Rule, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// Len returns the number of registered rules.
func (s *Set) Len() int {
	return len(s.order)
}

// Binding associates a namespace prefix with a URI under a path scope, for
// one side of a run. A scope of "/" makes the binding globally active.
type Binding struct {
	Scope  string `yaml:"scope"`
	Prefix string `yaml:"prefix"`
	URI    string `yaml:"uri"`
}

// Meta is the run metadata supplied alongside a rule set: the two
// namespace-binding tables, the required/nonempty path sets checked before
// and after execution, and the output text encoding.
type Meta struct {
	InputNamespaces  []Binding
	OutputNamespaces []Binding
	InputRequired    []string
	InputNonempty    []string
	OutputRequired   []string
	OutputNonempty   []string
	OutputEncoding   string
}
