package plan

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"ruledxml/rules"
)

// Classify partitions the set into basic and foreach rules, assigns every
// rule a total execution order, builds the iteration forest from the
// declared base pairs, and sorts every sibling list. The input set must
// already be validated.
func Classify(set *rules.Set) (*Program, error) {
	ruleList := set.Rules()
	orders := assignOrders(ruleList)

	var basics []*rules.Rule
	var foreach []*rules.Rule
	for _, r := range ruleList {
		if r.IsForeach() {
			foreach = append(foreach, r)
		} else {
			basics = append(basics, r)
		}
	}

	prog := &Program{}
	for _, r := range basics {
		prog.Nodes = append(prog.Nodes, &BasicRule{Rule: r, Order: orders[r.Name]})
	}

	if len(foreach) > 0 {
		roots, err := buildForest(foreach, orders)
		if err != nil {
			return nil, err
		}
		prog.Nodes = append(prog.Nodes, roots...)
	}

	sortSiblings(prog.Nodes)
	return prog, nil
}

// assignOrders gives every rule an execution-order key: the explicit order
// if declared, else an auto-incremented key strictly greater than the
// highest explicit order in the set, assigned in declaration-encounter
// order. Explicit orders can therefore always preempt auto-assigned ones.
func assignOrders(ruleList []*rules.Rule) map[string]int {
	maxExplicit := 0
	for _, r := range ruleList {
		if r.Order != nil && *r.Order > maxExplicit {
			maxExplicit = *r.Order
		}
	}

	orders := make(map[string]int, len(ruleList))
	counter := maxExplicit
	for _, r := range ruleList {
		if r.Order != nil {
			orders[r.Name] = *r.Order
			continue
		}
		counter++
		orders[r.Name] = counter
	}
	return orders
}

// buildForest collects the distinct base pairs across all foreach rules,
// inserts them into a nesting forest, and attaches every rule as a leaf
// under its most deeply nested declared pair.
func buildForest(foreach []*rules.Rule, orders map[string]int) ([]ProgramNode, error) {
	var pairs []rules.BasePair
	seen := make(map[rules.BasePair]struct{})
	for _, r := range foreach {
		for _, pair := range r.Foreach {
			if _, ok := seen[pair]; ok {
				continue
			}
			seen[pair] = struct{}{}
			pairs = append(pairs, pair)
		}
	}

	// Sorting candidates by source base guarantees that a shared prefix is
	// inserted before any base extending it, so extensions collapse under
	// one shared ancestor regardless of declaration order.
	sort.SliceStable(pairs, func(i, j int) bool {
		return pairs[i].Source < pairs[j].Source
	})

	var roots []ProgramNode
	for _, pair := range pairs {
		insertBase(&roots, pair)
	}

	for _, r := range foreach {
		deepest := r.Foreach[len(r.Foreach)-1]
		children := findChildren(&roots, deepest.Source)
		if children == nil {
			return nil, fmt.Errorf("rule %s: no iteration level for base %s", r.Name, deepest.Source)
		}
		*children = append(*children, &ForeachLeaf{Rule: r, Order: orders[r.Name]})
	}

	for _, root := range roots {
		propagateOrder(root.(*IterationNode))
	}
	return roots, nil
}

// insertBase descends the forest, at each level entering the first
// iteration node whose source base is a prefix of the candidate, and
// inserts a new node at the first level with no such ancestor.
func insertBase(nodes *[]ProgramNode, pair rules.BasePair) {
	for {
		next := prefixAncestor(*nodes, pair.Source)
		if next == nil {
			*nodes = append(*nodes, &IterationNode{
				SourceBase: pair.Source,
				DestBase:   pair.Destination,
			})
			return
		}
		nodes = &next.Children
	}
}

// prefixAncestor returns the first iteration node in the list whose source
// base is a prefix of base, equality included.
func prefixAncestor(nodes []ProgramNode, base string) *IterationNode {
	for _, c := range nodes {
		if n, ok := c.(*IterationNode); ok && strings.HasPrefix(base, n.SourceBase) {
			return n
		}
	}
	return nil
}

// findChildren returns the children list of the iteration node whose
// source base equals base, descending through prefix ancestors.
func findChildren(nodes *[]ProgramNode, base string) *[]ProgramNode {
	for {
		var next *IterationNode
		for _, c := range *nodes {
			n, ok := c.(*IterationNode)
			if !ok {
				continue
			}
			if n.SourceBase == base {
				return &n.Children
			}
			if strings.HasPrefix(base, n.SourceBase) {
				next = n
				break
			}
		}
		if next == nil {
			return nil
		}
		nodes = &next.Children
	}
}

// propagateOrder assigns each iteration node the minimum order key of its
// descendants, so a forest root sorts among basic rules by its earliest
// rule.
func propagateOrder(n *IterationNode) int {
	minOrder := math.MaxInt
	for _, c := range n.Children {
		switch v := c.(type) {
		case *ForeachLeaf:
			if v.Order < minOrder {
				minOrder = v.Order
			}
		case *IterationNode:
			if o := propagateOrder(v); o < minOrder {
				minOrder = o
			}
		}
	}
	n.Order = minOrder
	return minOrder
}

// sortSiblings sorts a sibling list ascending by order key, recursively.
// The sort is stable; equal explicit orders keep declaration order.
func sortSiblings(nodes []ProgramNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].OrderKey() < nodes[j].OrderKey()
	})
	for _, n := range nodes {
		if it, ok := n.(*IterationNode); ok {
			sortSiblings(it.Children)
		}
	}
}
