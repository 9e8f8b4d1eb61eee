package plan

import (
	"ruledxml/rules"
)

// ProgramNode is one node of a classified program. It is a closed variant:
// *BasicRule, *IterationNode or *ForeachLeaf, matched exhaustively
// wherever the program is walked.
type ProgramNode interface {
	// OrderKey is the sibling sort key.
	OrderKey() int
}

// BasicRule is a rule without repetition context, applied exactly once
// per run against the whole source and destination trees.
type BasicRule struct {
	Rule  *rules.Rule
	Order int
}

func (b *BasicRule) OrderKey() int { return b.Order }

// IterationNode represents one repetition level: every source element
// matching SourceBase produces one fresh DestBase element, and the node's
// children execute once per such match with extended base contexts.
//
// Each distinct base pair occurs exactly once in a program, regardless of
// how many rules declare it; children whose base extends this node's base
// attach at the shallowest existing ancestor.
type IterationNode struct {
	SourceBase string
	DestBase   string
	Order      int
	Children   []ProgramNode
}

func (n *IterationNode) OrderKey() int { return n.Order }

// ForeachLeaf is a rule attached at the deepest level of its own declared
// foreach chain, executed once per iteration of that level.
type ForeachLeaf struct {
	Rule  *rules.Rule
	Order int
}

func (l *ForeachLeaf) OrderKey() int { return l.Order }

// Program is the classified rule set: a flat ordered list mixing basic
// rules and iteration forest roots. Sibling order is total and
// deterministic at every level.
type Program struct {
	Nodes []ProgramNode
}
