package xmlpath

import (
	"go.uber.org/zap"
)

// XMLNamespace is the URI predefined for the xml prefix.
// https://www.w3.org/TR/REC-xml-names/#ns-decl
const XMLNamespace = "http://www.w3.org/XML/1998/namespace"

// Binding associates a namespace prefix with a URI under a path scope.
// A scope of "/" makes the binding globally active; any other scope limits
// it to paths the scope is a structural prefix of. An empty prefix declares
// the default namespace.
type Binding struct {
	Scope  string `yaml:"scope"`
	Prefix string `yaml:"prefix"`
	URI    string `yaml:"uri"`
}

// Normalize applies the predefined-prefix policy to a binding table:
// redeclarations of xml are forced onto the standard URI with a warning,
// bindings for the reserved xmlns prefix are dropped, and a global xml
// binding is synthesized if the table lacks one. The input table is not
// modified.
func Normalize(table []Binding, log *zap.Logger) []Binding {
	if log == nil {
		log = zap.NewNop()
	}

	out := make([]Binding, 0, len(table)+1)
	for _, b := range table {
		switch b.Prefix {
		case "xml":
			log.Warn("xml namespace is defined per default",
				zap.String("scope", b.Scope))
			if b.URI != XMLNamespace {
				log.Warn("xml namespace is non-standard, will be replaced",
					zap.String("uri", b.URI))
				b.URI = XMLNamespace
			}
		case "xmlns":
			log.Error("namespace prefix 'xmlns' is illegal, will be removed",
				zap.String("scope", b.Scope))
			continue
		}
		out = append(out, b)
	}

	if !hasGlobalXML(out) {
		out = append(out, Binding{Scope: "/", Prefix: "xml", URI: XMLNamespace})
	}

	return out
}

func hasGlobalXML(table []Binding) bool {
	for _, b := range table {
		if b.Prefix == "xml" && b.Scope == "/" {
			return true
		}
	}
	return false
}

// Resolve selects every binding whose scope is a structural prefix of the
// path's segment chain (or is globally scoped) and returns the resulting
// prefix map, last-write-wins per prefix. The xml prefix always resolves to
// the standard XML namespace regardless of table content.
func Resolve(p Path, table []Binding) (map[string]string, error) {
	prefixes := make(map[string]string)

	for _, b := range table {
		scope, err := Parse(b.Scope)
		if err != nil {
			return nil, err
		}
		if scopeApplies(scope.Segments, p.Segments) {
			prefixes[b.Prefix] = b.URI
		}
	}

	prefixes["xml"] = XMLNamespace
	return prefixes, nil
}

// scopeApplies reports whether the scope segment chain is a structural
// prefix of the path segment chain. Scope segments compare on the written
// prefix and local name, before any URI resolution.
func scopeApplies(scope, path []QName) bool {
	if len(scope) > len(path) {
		return false
	}
	for i, s := range scope {
		if path[i].Prefix != s.Prefix || path[i].Local != s.Local {
			return false
		}
	}
	return true
}

// QualifiedPath is a Path whose prefixes have been resolved to URIs.
// Decls carries the prefix map that was in effect, so writers can declare
// the bindings on elements they create.
type QualifiedPath struct {
	Segments []QName
	Attr     *QName
	Decls    map[string]string
	Raw      string
}

// IsAttribute reports whether the path terminates in an attribute reference.
func (p QualifiedPath) IsAttribute() bool {
	return p.Attr != nil
}

// Qualify resolves every segment prefix (and the attribute prefix, if any)
// against the given prefix map. Unprefixed names stay unqualified; an
// unresolved prefix is fatal.
func (p Path) Qualify(prefixes map[string]string) (QualifiedPath, error) {
	qp := QualifiedPath{
		Segments: make([]QName, len(p.Segments)),
		Decls:    prefixes,
		Raw:      p.Raw,
	}

	for i, seg := range p.Segments {
		q, err := qualify(seg, prefixes, p.Raw)
		if err != nil {
			return QualifiedPath{}, err
		}
		qp.Segments[i] = q
	}

	if p.Attr != nil {
		q, err := qualify(*p.Attr, prefixes, p.Raw)
		if err != nil {
			return QualifiedPath{}, err
		}
		qp.Attr = &q
	}

	return qp, nil
}

func qualify(n QName, prefixes map[string]string, raw string) (QName, error) {
	if n.Prefix == "" {
		return n, nil
	}
	if n.Prefix == "xml" {
		n.URI = XMLNamespace
		return n, nil
	}
	uri, ok := prefixes[n.Prefix]
	if !ok {
		return QName{}, &UnknownNamespaceError{Prefix: n.Prefix, Path: raw}
	}
	n.URI = uri
	return n, nil
}
