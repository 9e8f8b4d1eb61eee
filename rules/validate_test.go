package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func passthrough(args []string) (string, bool) {
	if len(args) == 0 {
		return "", true
	}
	return args[0], true
}

func TestValidate_AcceptsWellFormedRules(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(Rule{
		Name:         "basic",
		Sources:      []string{"/doc/title"},
		Destinations: []string{"/out/title"},
		Impl:         passthrough,
	}))
	require.NoError(t, set.Add(Rule{
		Name:         "looped",
		Sources:      []string{"/doc/e/v"},
		Destinations: []string{"/out/e/v"},
		Foreach:      []BasePair{{Source: "/doc/e", Destination: "/out/e"}},
		Impl:         passthrough,
	}))

	res := Validate(set)
	assert.False(t, res.HasErrors())
	assert.NoError(t, res.Error())
}

func TestValidate_NilSet(t *testing.T) {
	res := Validate(nil)
	assert.True(t, res.HasErrors())
}

func TestValidate_RuleWithoutAnyMetadata(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(Rule{Name: "empty", Impl: passthrough}))

	res := Validate(set)
	require.True(t, res.HasErrors())
	assert.Equal(t, CodeMissingDestination, res.Errors[0].Code)
}

func TestValidate_DestinationCount(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(Rule{
		Name:         "twoDest",
		Sources:      []string{"/doc/a"},
		Destinations: []string{"/out/a", "/out/b"},
		Impl:         passthrough,
	}))

	res := Validate(set)
	require.True(t, res.HasErrors())
	assert.Equal(t, CodeDestinationCount, res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Message, "has 2")
}

func TestValidate_ForeachNeedsAtLeastOnePair(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(Rule{
		Name:         "loopless",
		Sources:      []string{"/doc/a"},
		Destinations: []string{"/out/a"},
		Foreach:      []BasePair{},
		Impl:         passthrough,
	}))

	res := Validate(set)
	require.True(t, res.HasErrors())
	assert.Equal(t, CodeForeachArity, res.Errors[0].Code)
}

func TestValidate_ForeachEmptyComponent(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(Rule{
		Name:         "halfPair",
		Sources:      []string{"/doc/a"},
		Destinations: []string{"/out/a"},
		Foreach:      []BasePair{{Source: "/doc/e", Destination: ""}},
		Impl:         passthrough,
	}))

	res := Validate(set)
	require.True(t, res.HasErrors())
	assert.Equal(t, CodeForeachArity, res.Errors[0].Code)
}

func TestValidate_ForeachNesting(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(Rule{
		Name:         "disjoint",
		Sources:      []string{"/doc/a"},
		Destinations: []string{"/out/a"},
		Foreach: []BasePair{
			{Source: "/doc/outer", Destination: "/out/outer"},
			{Source: "/other/inner", Destination: "/out/inner"},
		},
		Impl: passthrough,
	}))

	res := Validate(set)
	require.True(t, res.HasErrors())
	assert.Equal(t, CodeForeachNesting, res.Errors[0].Code)
	assert.Contains(t, res.Errors[0].Message, "/doc/outer")
	assert.Contains(t, res.Errors[0].Message, "/other/inner")
}

func TestValidate_CollectsAllFindings(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(Rule{Name: "one", Impl: passthrough}))
	require.NoError(t, set.Add(Rule{
		Name:         "two",
		Sources:      []string{"/doc/a"},
		Destinations: []string{"/out/a", "/out/b"},
		Impl:         passthrough,
	}))

	res := Validate(set)
	assert.Len(t, res.Errors, 2)
	assert.Error(t, res.Error())
}

func TestSet_DuplicateName(t *testing.T) {
	set := NewSet()
	require.NoError(t, set.Add(Rule{Name: "dup", Destinations: []string{"/a"}, Impl: passthrough}))

	err := set.Add(Rule{Name: "dup", Destinations: []string{"/b"}, Impl: passthrough})
	require.Error(t, err)

	var dup *DuplicateRuleError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "dup", dup.Name)
}

func TestSet_RulesInDeclarationOrder(t *testing.T) {
	set := NewSet()
	for _, name := range []string{"c", "a", "b"} {
		require.NoError(t, set.Add(Rule{Name: name, Destinations: []string{"/x"}, Impl: passthrough}))
	}

	var names []string
	for _, r := range set.Rules() {
		names = append(names, r.Name)
	}
	assert.Equal(t, []string{"c", "a", "b"}, names)
	assert.Equal(t, 3, set.Len())
	assert.NotNil(t, set.Get("a"))
	assert.Nil(t, set.Get("missing"))
}
