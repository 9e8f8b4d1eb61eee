package xmlpath

import (
	"fmt"
	"strings"
)

// QName is a possibly-prefixed name from a path expression. After
// qualification the URI field carries the resolved namespace URI; it stays
// empty for unprefixed names.
type QName struct {
	Prefix string
	Local  string
	URI    string
}

// Name returns the name in prefix:local form, suitable as a document tag.
func (q QName) Name() string {
	if q.Prefix == "" {
		return q.Local
	}
	return q.Prefix + ":" + q.Local
}

// String returns the Clark notation {uri}local for qualified names and the
// bare local name otherwise.
func (q QName) String() string {
	if q.URI == "" {
		return q.Local
	}
	return "{" + q.URI + "}" + q.Local
}

// Path is the parsed form of a path expression: an ordered element segment
// chain plus an optional trailing attribute reference.
type Path struct {
	// Raw is the expression the path was parsed from.
	Raw string
	// Segments are the element steps, outermost first.
	Segments []QName
	// Attr is the trailing attribute reference, nil for element paths.
	Attr *QName
}

// IsAttribute reports whether the path terminates in an attribute reference.
func (p Path) IsAttribute() bool {
	return p.Attr != nil
}

// Parse parses a path expression. The attribute suffix is split off first
// (at most one @ is allowed), the element portion is split on slashes with
// empty segments ignored, and each segment is split on the first colon into
// prefix and local name. A segment starting with a colon is unprefixed.
func Parse(expr string) (Path, error) {
	if strings.Count(expr, "@") > 1 {
		return Path{}, &SyntaxError{Path: expr, Reason: "only one @ symbol allowed"}
	}

	base, attrPart, hasAttr := strings.Cut(expr, "@")

	p := Path{Raw: expr}

	for _, seg := range strings.Split(strings.Trim(base, "/"), "/") {
		if seg == "" {
			continue
		}
		p.Segments = append(p.Segments, splitSegment(seg))
	}

	if hasAttr {
		attr, err := parseAttr(expr, attrPart)
		if err != nil {
			return Path{}, err
		}
		p.Attr = attr
	}

	return p, nil
}

func splitSegment(seg string) QName {
	if i := strings.Index(seg, ":"); i > 0 {
		return QName{Prefix: seg[:i], Local: seg[i+1:]}
	}
	return QName{Local: seg}
}

func parseAttr(expr, attrPart string) (*QName, error) {
	parts := strings.Split(attrPart, ":")
	switch len(parts) {
	case 1:
		return &QName{Local: parts[0]}, nil
	case 2:
		return &QName{Prefix: parts[0], Local: parts[1]}, nil
	default:
		return nil, &SyntaxError{Path: expr, Reason: "only one namespace allowed in attributes"}
	}
}

// SyntaxError reports a malformed path expression.
type SyntaxError struct {
	Path   string
	Reason string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("invalid path %q: %s", e.Path, e.Reason)
}

// UnknownNamespaceError reports a prefix that no applicable binding resolves.
type UnknownNamespaceError struct {
	Prefix string
	Path   string
}

func (e *UnknownNamespaceError) Error() string {
	return fmt.Sprintf("unknown namespace %s in path %s", e.Prefix, e.Path)
}
