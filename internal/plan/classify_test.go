package plan

import (
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ruledxml/rules"
)

func stubImpl(args []string) (string, bool) { return "", true }

func intPtr(n int) *int { return &n }

func buildSet(t *testing.T, rs ...rules.Rule) *rules.Set {
	t.Helper()
	set := rules.NewSet()
	for _, r := range rs {
		require.NoError(t, set.Add(r))
	}
	return set
}

func nodeNames(nodes []ProgramNode) []string {
	var out []string
	for _, n := range nodes {
		switch v := n.(type) {
		case *BasicRule:
			out = append(out, v.Rule.Name)
		case *ForeachLeaf:
			out = append(out, v.Rule.Name)
		case *IterationNode:
			out = append(out, v.SourceBase)
		}
	}
	return out
}

func TestClassify_BasicRulesKeepDeclarationOrder(t *testing.T) {
	set := buildSet(t,
		rules.Rule{Name: "first", Sources: []string{"/a"}, Destinations: []string{"/x"}, Impl: stubImpl},
		rules.Rule{Name: "second", Sources: []string{"/b"}, Destinations: []string{"/y"}, Impl: stubImpl},
		rules.Rule{Name: "third", Sources: []string{"/c"}, Destinations: []string{"/z"}, Impl: stubImpl},
	)

	prog, err := Classify(set)
	require.NoError(t, err)

	assert.Equal(t, []string{"first", "second", "third"}, nodeNames(prog.Nodes))
}

func TestClassify_ExplicitOrdersOverrideDeclaration(t *testing.T) {
	set := buildSet(t,
		rules.Rule{Name: "ruleFirst", Destinations: []string{"/x/a"}, Order: intPtr(4), Impl: stubImpl},
		rules.Rule{Name: "ruleSecond", Destinations: []string{"/x/b"}, Order: intPtr(3), Impl: stubImpl},
		rules.Rule{Name: "ruleThree", Destinations: []string{"/x/c"}, Order: intPtr(2), Impl: stubImpl},
		rules.Rule{Name: "ruleFour", Destinations: []string{"/x/d"}, Order: intPtr(1), Impl: stubImpl},
	)

	prog, err := Classify(set)
	require.NoError(t, err)

	assert.Equal(t, []string{"ruleFour", "ruleThree", "ruleSecond", "ruleFirst"},
		nodeNames(prog.Nodes))
}

func TestClassify_AutoOrdersStayAboveExplicit(t *testing.T) {
	set := buildSet(t,
		rules.Rule{Name: "auto", Destinations: []string{"/x/a"}, Impl: stubImpl},
		rules.Rule{Name: "late", Destinations: []string{"/x/b"}, Order: intPtr(100), Impl: stubImpl},
	)

	prog, err := Classify(set)
	require.NoError(t, err)

	// Declared-first but auto-ordered: its key is pushed past every
	// explicit order in the set.
	assert.Equal(t, []string{"late", "auto"}, nodeNames(prog.Nodes))
}

func TestClassify_PrefixBasesCollapseUnderSharedAncestor(t *testing.T) {
	set := buildSet(t,
		rules.Rule{Name: "onA", Sources: []string{"/a/v"}, Destinations: []string{"/o/v"}, Impl: stubImpl,
			Foreach: []rules.BasePair{{Source: "/a", Destination: "/o"}}},
		rules.Rule{Name: "onAB", Sources: []string{"/ab/v"}, Destinations: []string{"/ob/v"}, Impl: stubImpl,
			Foreach: []rules.BasePair{{Source: "/a", Destination: "/o"}, {Source: "/ab", Destination: "/ob"}}},
		rules.Rule{Name: "onAC", Sources: []string{"/ac/v"}, Destinations: []string{"/oc/v"}, Impl: stubImpl,
			Foreach: []rules.BasePair{{Source: "/a", Destination: "/o"}, {Source: "/ac", Destination: "/oc"}}},
	)

	prog, err := Classify(set)
	require.NoError(t, err)
	spew.Dump(prog)

	require.Len(t, prog.Nodes, 1)
	root, ok := prog.Nodes[0].(*IterationNode)
	require.True(t, ok)
	assert.Equal(t, "/a", root.SourceBase)

	// Both extensions nest under /a, not under each other.
	var nested []string
	for _, c := range root.Children {
		if n, ok := c.(*IterationNode); ok {
			nested = append(nested, n.SourceBase)
			assert.Len(t, n.Children, 1)
		}
	}
	assert.ElementsMatch(t, []string{"/ab", "/ac"}, nested)
}

func TestClassify_SharedOuterBaseInsertedOnce(t *testing.T) {
	set := buildSet(t,
		rules.Rule{Name: "outer", Sources: []string{"/doc/g/name"}, Destinations: []string{"/out/g/name"}, Impl: stubImpl,
			Foreach: []rules.BasePair{{Source: "/doc/g", Destination: "/out/g"}}},
		rules.Rule{Name: "inner", Sources: []string{"/doc/g/i/v"}, Destinations: []string{"/out/g/i/v"}, Impl: stubImpl,
			Foreach: []rules.BasePair{
				{Source: "/doc/g", Destination: "/out/g"},
				{Source: "/doc/g/i", Destination: "/out/g/i"},
			}},
	)

	prog, err := Classify(set)
	require.NoError(t, err)

	require.Len(t, prog.Nodes, 1)
	root := prog.Nodes[0].(*IterationNode)
	assert.Equal(t, "/doc/g", root.SourceBase)
	assert.Equal(t, "/out/g", root.DestBase)

	require.Len(t, root.Children, 2)
	leaf, ok := root.Children[0].(*ForeachLeaf)
	require.True(t, ok)
	assert.Equal(t, "outer", leaf.Rule.Name)

	nested, ok := root.Children[1].(*IterationNode)
	require.True(t, ok)
	assert.Equal(t, "/doc/g/i", nested.SourceBase)
	require.Len(t, nested.Children, 1)
	assert.Equal(t, "inner", nested.Children[0].(*ForeachLeaf).Rule.Name)
}

func TestClassify_ForestRootSortsByEarliestDescendant(t *testing.T) {
	set := buildSet(t,
		rules.Rule{Name: "plain", Destinations: []string{"/x/p"}, Order: intPtr(5), Impl: stubImpl},
		rules.Rule{Name: "looped", Sources: []string{"/a/v"}, Destinations: []string{"/o/v"}, Order: intPtr(2), Impl: stubImpl,
			Foreach: []rules.BasePair{{Source: "/a", Destination: "/o"}}},
	)

	prog, err := Classify(set)
	require.NoError(t, err)

	require.Len(t, prog.Nodes, 2)
	root, ok := prog.Nodes[0].(*IterationNode)
	require.True(t, ok)
	assert.Equal(t, 2, root.Order)
	assert.Equal(t, "plain", prog.Nodes[1].(*BasicRule).Rule.Name)
}

func TestClassify_LeavesSortWithinSiblings(t *testing.T) {
	set := buildSet(t,
		rules.Rule{Name: "second", Sources: []string{"/a/x"}, Destinations: []string{"/o/x"}, Order: intPtr(2), Impl: stubImpl,
			Foreach: []rules.BasePair{{Source: "/a", Destination: "/o"}}},
		rules.Rule{Name: "first", Sources: []string{"/a/y"}, Destinations: []string{"/o/y"}, Order: intPtr(1), Impl: stubImpl,
			Foreach: []rules.BasePair{{Source: "/a", Destination: "/o"}}},
	)

	prog, err := Classify(set)
	require.NoError(t, err)

	root := prog.Nodes[0].(*IterationNode)
	assert.Equal(t, []string{"first", "second"}, nodeNames(root.Children))
}
