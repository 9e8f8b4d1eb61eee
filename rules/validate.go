package rules

import (
	"fmt"
	"strings"

	"ruledxml/internal/diagnostic"
)

// Diagnostic codes raised by Validate.
const (
	CodeMissingDestination = "missing_destination"
	CodeDestinationCount   = "destination_count"
	CodeForeachArity       = "foreach_arity"
	CodeForeachNesting     = "foreach_nesting"
	CodeDuplicateRule      = "duplicate_rule"
	CodeUnknownTransform   = "unknown_transform"
)

// Validate checks the structural well-formedness of every rule in the set.
// Validation is total and eager: all rules are checked and all findings
// collected before the result is reported; a single error finding must
// abort the run with no partial output.
func Validate(s *Set) *diagnostic.Diagnostics {
	res := &diagnostic.Diagnostics{}
	if s == nil {
		res.AddError("ruleset_is_nil", "rule set is nil", "", "")
		return res
	}

	for _, r := range s.Rules() {
		validateRule(res, r)
	}

	return res
}

func validateRule(res *diagnostic.Diagnostics, r *Rule) {
	// A rule must declare something: at least a destination.
	if len(r.Sources) == 0 && len(r.Destinations) == 0 && r.Foreach == nil && r.Order == nil {
		res.AddError(CodeMissingDestination,
			"rule declares no metadata; it requires at least a destination",
			r.Name, "")
		return
	}

	if n := len(r.Destinations); n != 1 {
		res.AddError(CodeDestinationCount,
			fmt.Sprintf("a rule must have exactly 1 destination, has %d", n),
			r.Name, "")
	}

	if r.Impl == nil {
		res.AddError("missing_implementation", "rule has no implementation", r.Name, "")
	}

	if r.IsForeach() {
		validateForeach(res, r)
	}
}

func validateForeach(res *diagnostic.Diagnostics, r *Rule) {
	if len(r.Foreach) == 0 {
		res.AddError(CodeForeachArity,
			"a foreach rule requires at least 1 base pair, has 0",
			r.Name, "")
		return
	}

	for _, pair := range r.Foreach {
		if pair.Source == "" || pair.Destination == "" {
			res.AddError(CodeForeachArity,
				"a foreach base pair must have exactly two non-empty components",
				r.Name, pair.Source+" -> "+pair.Destination)
		}
	}

	// Each outer source base must be a prefix of the next inner one,
	// checked pairwise in declaration order.
	prev := ""
	for _, pair := range r.Foreach {
		if prev != "" && !strings.HasPrefix(pair.Source, prev) {
			res.AddError(CodeForeachNesting,
				fmt.Sprintf("outer foreach base %q must be a prefix of inner foreach base %q",
					prev, pair.Source),
				r.Name, "")
		}
		prev = pair.Source
	}
}
