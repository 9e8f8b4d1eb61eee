package engine

import (
	"fmt"

	"github.com/beevik/etree"
	"go.uber.org/zap"

	"ruledxml/internal/plan"
	"ruledxml/internal/xmlpath"
	"ruledxml/internal/xmltree"
	"ruledxml/rules"
)

// Option configures a run.
type Option func(*config)

type config struct {
	logger *zap.Logger
}

// WithLogger sets the logger used by the run. The default discards
// everything.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

func applyOptions(opts []Option) config {
	cfg := config{logger: zap.NewNop()}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// runState tracks the lifecycle of one run.
type runState int

const (
	statePending runState = iota
	stateExecuting
	stateDone
	stateFailed
)

// runner holds the per-run state: the two documents, the two normalized
// namespace-binding tables, and the lifecycle state.
type runner struct {
	src   *etree.Document
	dst   *etree.Document
	in    []xmlpath.Binding
	out   []xmlpath.Binding
	log   *zap.Logger
	state runState
}

// Run applies the rule set to the source document and returns the freshly
// built destination document. Validation and classification happen before
// any rule executes; a failing run returns no document at all.
func Run(src *etree.Document, set *rules.Set, meta rules.Meta, opts ...Option) (*etree.Document, error) {
	cfg := applyOptions(opts)
	log := cfg.logger

	if src == nil {
		return nil, fmt.Errorf("run: nil source document")
	}

	diags := rules.Validate(set)
	for _, w := range diags.Warnings {
		log.Warn("rule validation", zap.String("finding", w.String()))
	}
	if err := diags.Error(); err != nil {
		return nil, fmt.Errorf("invalid rule set: %w", err)
	}

	prog, err := plan.Classify(set)
	if err != nil {
		return nil, fmt.Errorf("classify rules: %w", err)
	}

	r := &runner{
		src:   src,
		dst:   etree.NewDocument(),
		in:    bindingTable(meta.InputNamespaces, log),
		out:   bindingTable(meta.OutputNamespaces, log),
		log:   log,
		state: statePending,
	}

	if err := checkRequired(src, meta.InputRequired, meta.InputNonempty, r.in, ""); err != nil {
		r.state = stateFailed
		return nil, err
	}

	r.state = stateExecuting
	if err := r.execute(prog); err != nil {
		r.state = stateFailed
		return nil, err
	}

	if err := checkRequired(r.dst, meta.OutputRequired, meta.OutputNonempty, r.out, ""); err != nil {
		r.state = stateFailed
		return nil, err
	}

	r.state = stateDone
	return r.dst, nil
}

// RunBatch applies the rule set once per element matched by basePath in
// the source document, producing one destination document per match, in
// document order.
func RunBatch(src *etree.Document, set *rules.Set, meta rules.Meta, basePath string, opts ...Option) ([]*etree.Document, error) {
	cfg := applyOptions(opts)

	if src == nil {
		return nil, fmt.Errorf("run batch: nil source document")
	}

	table := bindingTable(meta.InputNamespaces, cfg.logger)
	qp, err := qualifyPath(basePath, table)
	if err != nil {
		return nil, fmt.Errorf("batch base path: %w", err)
	}

	matches, err := xmltree.EnumerateScoped(src, qp, nil)
	if err != nil {
		return nil, fmt.Errorf("batch base path: %w", err)
	}

	outs := make([]*etree.Document, 0, len(matches))
	for i, el := range matches {
		sub := etree.NewDocument()
		sub.SetRoot(el.Copy())

		dst, err := Run(sub, set, meta, opts...)
		if err != nil {
			return nil, fmt.Errorf("batch element %d at %s: %w", i, basePath, err)
		}
		outs = append(outs, dst)
	}

	return outs, nil
}

// execute walks the classified program in sibling order.
func (r *runner) execute(prog *plan.Program) error {
	for _, node := range prog.Nodes {
		switch n := node.(type) {
		case *plan.BasicRule:
			if err := r.applyBasic(n); err != nil {
				return err
			}
		case *plan.IterationNode:
			if err := r.iterate(n, nil, nil); err != nil {
				return err
			}
		case *plan.ForeachLeaf:
			return fmt.Errorf("rule %s: foreach rule outside any iteration level", n.Rule.Name)
		}
	}
	return nil
}

// applyBasic reads the rule's sources against the whole source tree,
// invokes the implementation, and writes a present result to the
// destination path, creating intermediate elements as needed.
func (r *runner) applyBasic(n *plan.BasicRule) error {
	rule := n.Rule
	r.log.Info("applying rule", zap.String("rule", rule.Name))

	args, err := r.readSources(rule, nil)
	if err != nil {
		return err
	}

	out, ok := rule.Impl(args)
	if !ok {
		return nil
	}

	qp, err := qualifyPath(rule.Destination(), r.out)
	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	return xmltree.Write(r.dst, qp, out)
}

// iterate enumerates the source elements matching the node's source base
// under the current source context, creates one destination-base element
// per match, and recurses into the children with extended contexts.
func (r *runner) iterate(n *plan.IterationNode, srcScope, dstScope xmltree.Scope) error {
	srcQP, err := qualifyPath(n.SourceBase, r.in)
	if err != nil {
		return err
	}

	matches, err := xmltree.EnumerateScoped(r.src, srcQP, srcScope)
	if err != nil {
		return err
	}

	for _, el := range matches {
		dstQP, err := qualifyPath(n.DestBase, r.out)
		if err != nil {
			return err
		}
		created, err := xmltree.CreateScoped(r.dst, dstQP, dstScope)
		if err != nil {
			return err
		}

		childSrc := srcScope.Extend(el)
		childDst := dstScope.Extend(created)
		for _, c := range n.Children {
			switch v := c.(type) {
			case *plan.IterationNode:
				if err := r.iterate(v, childSrc, childDst); err != nil {
					return err
				}
			case *plan.ForeachLeaf:
				if err := r.applyLeaf(v, childSrc, childDst); err != nil {
					return err
				}
			case *plan.BasicRule:
				return fmt.Errorf("rule %s: basic rule inside an iteration level", v.Rule.Name)
			}
		}
	}
	return nil
}

// applyLeaf applies one foreach rule within the current iteration step,
// reading and writing under the active base contexts.
func (r *runner) applyLeaf(n *plan.ForeachLeaf, srcScope, dstScope xmltree.Scope) error {
	rule := n.Rule
	r.log.Info("applying foreach rule", zap.String("rule", rule.Name))

	args, err := r.readSources(rule, srcScope)
	if err != nil {
		return err
	}

	out, ok := rule.Impl(args)
	if !ok {
		return nil
	}

	qp, err := qualifyPath(rule.Destination(), r.out)
	if err != nil {
		return fmt.Errorf("rule %s: %w", rule.Name, err)
	}
	return xmltree.WriteScoped(r.dst, qp, out, dstScope)
}

// readSources reads every declared source path in positional order. A
// missing optional source reads as the empty string.
func (r *runner) readSources(rule *rules.Rule, scope xmltree.Scope) ([]string, error) {
	args := make([]string, 0, len(rule.Sources))
	for _, src := range rule.Sources {
		qp, err := qualifyPath(src, r.in)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		v, err := xmltree.ReadScoped(r.src, qp, scope)
		if err != nil {
			return nil, fmt.Errorf("rule %s: %w", rule.Name, err)
		}
		args = append(args, v)
	}
	return args, nil
}

// qualifyPath parses a path expression and resolves its prefixes against
// the normalized binding table.
func qualifyPath(expr string, table []xmlpath.Binding) (xmlpath.QualifiedPath, error) {
	p, err := xmlpath.Parse(expr)
	if err != nil {
		return xmlpath.QualifiedPath{}, err
	}
	prefixes, err := xmlpath.Resolve(p, table)
	if err != nil {
		return xmlpath.QualifiedPath{}, err
	}
	return p.Qualify(prefixes)
}

// bindingTable converts the public binding triples and applies the
// predefined-prefix normalization.
func bindingTable(bs []rules.Binding, log *zap.Logger) []xmlpath.Binding {
	out := make([]xmlpath.Binding, len(bs))
	for i, b := range bs {
		out[i] = xmlpath.Binding(b)
	}
	return xmlpath.Normalize(out, log)
}
