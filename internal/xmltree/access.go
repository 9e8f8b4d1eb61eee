package xmltree

import (
	"sort"

	"github.com/beevik/etree"

	"ruledxml/internal/xmlpath"
)

// Scope is the chain of active iteration base elements for one side of a
// run. It only disambiguates repeated siblings; it never owns elements.
type Scope []*etree.Element

// Contains reports whether el is a member of the chain.
func (s Scope) Contains(el *etree.Element) bool {
	for _, b := range s {
		if b == el {
			return true
		}
	}
	return false
}

// Extend returns a new chain with el appended; the receiver is unchanged.
func (s Scope) Extend(el *etree.Element) Scope {
	out := make(Scope, len(s), len(s)+1)
	copy(out, s)
	return append(out, el)
}

// pick returns the first candidate that is a member of the chain, falling
// back to the first candidate. The fallback is deliberate: a write outside
// any matching base context reuses the first sibling rather than creating
// a new one.
func (s Scope) pick(candidates []*etree.Element) *etree.Element {
	for _, c := range candidates {
		if s.Contains(c) {
			return c
		}
	}
	return candidates[0]
}

// Read returns the text or attribute value at the path, taking the first
// sibling on ambiguity. A missing path yields the empty string, never an
// error.
func Read(doc *etree.Document, p xmlpath.QualifiedPath) (string, error) {
	return ReadScoped(doc, p, nil)
}

// ReadScoped behaves like Read but resolves ambiguous siblings through the
// scope chain.
func ReadScoped(doc *etree.Document, p xmlpath.QualifiedPath, scope Scope) (string, error) {
	r := &reader{scope: scope}
	if _, err := Walk(doc, p, r); err != nil {
		return "", err
	}
	return r.value, nil
}

// Write assigns a text or attribute value at the path, creating the root
// and intermediate elements as needed.
func Write(doc *etree.Document, p xmlpath.QualifiedPath, value string) error {
	return WriteScoped(doc, p, value, nil)
}

// WriteScoped behaves like Write but resolves ambiguous siblings through
// the scope chain.
func WriteScoped(doc *etree.Document, p xmlpath.QualifiedPath, value string, scope Scope) error {
	w := &writer{scope: scope, value: value, decls: p.Decls}
	_, err := Walk(doc, p, w)
	return err
}

// Exists reports whether the path resolves to an element, or for attribute
// paths to a present attribute.
func Exists(doc *etree.Document, p xmlpath.QualifiedPath) (bool, error) {
	r := &reader{}
	finished, err := Walk(doc, p, r)
	if err != nil {
		return false, err
	}
	return finished && r.found, nil
}

// EnumerateScoped returns every element matching the final path segment
// after walking the leading segments read-only, in document order. A path
// that cannot be walked yields an empty slice.
func EnumerateScoped(doc *etree.Document, p xmlpath.QualifiedPath, scope Scope) ([]*etree.Element, error) {
	if p.IsAttribute() {
		return nil, &PathKindMismatchError{Path: p.Raw, Want: "element"}
	}
	if len(p.Segments) == 0 {
		return nil, nil
	}

	root := doc.Root()
	if root == nil {
		return nil, nil
	}

	last := p.Segments[len(p.Segments)-1]
	if len(p.Segments) == 1 {
		if nameMatches(root, last) {
			return []*etree.Element{root}, nil
		}
		return nil, nil
	}

	t := &terminal{scope: scope}
	parent := xmlpath.QualifiedPath{Segments: p.Segments[:len(p.Segments)-1], Decls: p.Decls, Raw: p.Raw}
	finished, err := Walk(doc, parent, t)
	if err != nil || !finished {
		return nil, err
	}
	return childElements(t.el, last), nil
}

// CreateScoped creates a fresh element for the final path segment, walking
// the leading segments in write mode. Each call yields a new element; this
// is the destination side of one iteration step.
func CreateScoped(doc *etree.Document, p xmlpath.QualifiedPath, scope Scope) (*etree.Element, error) {
	if p.IsAttribute() {
		return nil, &PathKindMismatchError{Path: p.Raw, Want: "element"}
	}
	if len(p.Segments) == 0 {
		return nil, &xmlpath.SyntaxError{Path: p.Raw, Reason: "does not specify an element to create"}
	}

	last := p.Segments[len(p.Segments)-1]
	if len(p.Segments) == 1 {
		if doc.Root() == nil {
			root := newElement(last, p.Decls, true)
			doc.SetRoot(root)
			return root, nil
		}
		return appendChild(doc.Root(), last, p.Decls), nil
	}

	w := &writer{scope: scope, decls: p.Decls}
	t := &terminal{scope: scope}
	parent := xmlpath.QualifiedPath{Segments: p.Segments[:len(p.Segments)-1], Decls: p.Decls, Raw: p.Raw}
	finished, err := Walk(doc, parent, strategyPair{walker: w, finisher: t})
	if err != nil {
		return nil, err
	}
	if !finished {
		return nil, &xmlpath.SyntaxError{Path: p.Raw, Reason: "cannot reach parent of element to create"}
	}
	return appendChild(t.el, last, p.Decls), nil
}

// reader resolves a path without modifying the tree; missing nodes abort.
type reader struct {
	scope Scope
	value string
	found bool
}

func (r *reader) OnMissingRoot(xmlpath.QName) *etree.Element { return nil }

func (r *reader) OnAmbiguous(candidates []*etree.Element) *etree.Element {
	return r.scope.pick(candidates)
}

func (r *reader) OnMissingChild(xmlpath.QName, *etree.Element) *etree.Element { return nil }

func (r *reader) OnFinish(el *etree.Element, attr *xmlpath.QName) error {
	if attr != nil {
		if a := findAttr(el, *attr); a != nil {
			r.value = a.Value
			r.found = true
		}
		return nil
	}
	r.value = el.Text()
	r.found = true
	return nil
}

// writer resolves a path creating missing elements, then assigns the value.
type writer struct {
	scope Scope
	value string
	decls map[string]string
}

func (w *writer) OnMissingRoot(name xmlpath.QName) *etree.Element {
	return newElement(name, w.decls, true)
}

func (w *writer) OnAmbiguous(candidates []*etree.Element) *etree.Element {
	return w.scope.pick(candidates)
}

func (w *writer) OnMissingChild(name xmlpath.QName, current *etree.Element) *etree.Element {
	return appendChild(current, name, w.decls)
}

func (w *writer) OnFinish(el *etree.Element, attr *xmlpath.QName) error {
	if attr != nil {
		el.CreateAttr(attr.Name(), w.value)
		if attr.Prefix != "" && attr.Prefix != "xml" {
			ensureDeclared(el, attr.Prefix, w.decls)
		}
		return nil
	}
	el.SetText(w.value)
	return nil
}

// terminal captures the element a walk finishes at; attribute terminals are
// a kind mismatch.
type terminal struct {
	scope Scope
	el    *etree.Element
}

func (t *terminal) OnMissingRoot(xmlpath.QName) *etree.Element { return nil }

func (t *terminal) OnAmbiguous(candidates []*etree.Element) *etree.Element {
	return t.scope.pick(candidates)
}

func (t *terminal) OnMissingChild(xmlpath.QName, *etree.Element) *etree.Element { return nil }

func (t *terminal) OnFinish(el *etree.Element, attr *xmlpath.QName) error {
	if attr != nil {
		return &PathKindMismatchError{Path: attr.Name(), Want: "element"}
	}
	t.el = el
	return nil
}

// strategyPair walks with one strategy and finishes with another, so a
// creating walk can still hand back the terminal element.
type strategyPair struct {
	walker   Strategy
	finisher Strategy
}

func (s strategyPair) OnMissingRoot(name xmlpath.QName) *etree.Element {
	return s.walker.OnMissingRoot(name)
}

func (s strategyPair) OnAmbiguous(candidates []*etree.Element) *etree.Element {
	return s.walker.OnAmbiguous(candidates)
}

func (s strategyPair) OnMissingChild(name xmlpath.QName, current *etree.Element) *etree.Element {
	return s.walker.OnMissingChild(name, current)
}

func (s strategyPair) OnFinish(el *etree.Element, attr *xmlpath.QName) error {
	return s.finisher.OnFinish(el, attr)
}

// newElement builds an element for the qualified name. A created root
// carries every namespace declaration in effect for the path, so the
// serialized document declares its prefixes where readers expect them.
func newElement(name xmlpath.QName, decls map[string]string, root bool) *etree.Element {
	el := etree.NewElement(name.Name())
	if root {
		prefixes := make([]string, 0, len(decls))
		for prefix := range decls {
			prefixes = append(prefixes, prefix)
		}
		sort.Strings(prefixes)
		for _, prefix := range prefixes {
			uri := decls[prefix]
			if prefix == "xml" || uri == "" {
				continue
			}
			el.CreateAttr(xmlnsAttr(prefix), uri)
		}
	}
	return el
}

// appendChild creates a child for the qualified name under parent and makes
// sure its prefix is declared somewhere in scope.
func appendChild(parent *etree.Element, name xmlpath.QName, decls map[string]string) *etree.Element {
	el := newElement(name, decls, false)
	parent.AddChild(el)
	if name.Prefix != "" && name.Prefix != "xml" {
		ensureDeclared(el, name.Prefix, decls)
	}
	return el
}

// ensureDeclared declares prefix on el unless an ancestor already binds it
// to the expected URI.
func ensureDeclared(el *etree.Element, prefix string, decls map[string]string) {
	uri, ok := decls[prefix]
	if !ok || uri == "" {
		return
	}
	if lookupNamespace(el, prefix) == uri {
		return
	}
	el.CreateAttr(xmlnsAttr(prefix), uri)
}

// lookupNamespace resolves a prefix against the xmlns declarations in
// scope at el.
func lookupNamespace(el *etree.Element, prefix string) string {
	for e := el; e != nil; e = e.Parent() {
		if a := e.SelectAttr(xmlnsAttr(prefix)); a != nil {
			return a.Value
		}
	}
	return ""
}

func xmlnsAttr(prefix string) string {
	if prefix == "" {
		return "xmlns"
	}
	return "xmlns:" + prefix
}
