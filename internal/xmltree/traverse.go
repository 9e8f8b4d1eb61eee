package xmltree

import (
	"fmt"

	"github.com/beevik/etree"

	"ruledxml/internal/xmlpath"
)

// Strategy supplies the traversal policies of Walk. Implementations exist
// per access mode; the walk itself never creates, picks, or reads anything
// on its own.
type Strategy interface {
	// OnMissingRoot is invoked when the document has no root element yet.
	// The returned element becomes the root; nil aborts the walk.
	OnMissingRoot(name xmlpath.QName) *etree.Element

	// OnAmbiguous picks one of several siblings matching the next segment.
	OnAmbiguous(candidates []*etree.Element) *etree.Element

	// OnMissingChild is invoked when a segment has zero matches under
	// current. The returned element becomes the new current; nil aborts.
	OnMissingChild(name xmlpath.QName, current *etree.Element) *etree.Element

	// OnFinish is invoked once with the terminal element after the full
	// segment chain is consumed. attr is the trailing attribute reference,
	// nil for element paths.
	OnFinish(el *etree.Element, attr *xmlpath.QName) error
}

// Walk traverses the path's segment chain left to right, starting at the
// (possibly absent) root, branching on the number of matching children at
// each step via the strategy. It reports whether the terminal was reached;
// an aborted walk is not an error.
func Walk(doc *etree.Document, p xmlpath.QualifiedPath, s Strategy) (bool, error) {
	current := doc.Root()

	for i, seg := range p.Segments {
		if i == 0 {
			if current == nil {
				root := s.OnMissingRoot(seg)
				if root == nil {
					return false, nil
				}
				doc.SetRoot(root)
				current = root
				continue
			}
			if nameMatches(current, seg) {
				continue
			}
			// Root exists under another name: fall through and look for
			// the segment among its children.
		}

		candidates := childElements(current, seg)
		switch len(candidates) {
		case 0:
			next := s.OnMissingChild(seg, current)
			if next == nil {
				return false, nil
			}
			current = next
		case 1:
			current = candidates[0]
		default:
			current = s.OnAmbiguous(candidates)
		}
	}

	if current == nil {
		return false, nil
	}

	return true, s.OnFinish(current, p.Attr)
}

// nameMatches reports whether the element answers to the qualified name.
// Unqualified names address elements written without a prefix; qualified
// names compare the resolved namespace URI.
func nameMatches(el *etree.Element, q xmlpath.QName) bool {
	if el.Tag != q.Local {
		return false
	}
	if q.URI == "" {
		return el.Space == ""
	}
	return el.NamespaceURI() == q.URI
}

// childElements returns the direct children of el matching the qualified name.
func childElements(el *etree.Element, q xmlpath.QName) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if nameMatches(c, q) {
			out = append(out, c)
		}
	}
	return out
}

// findAttr returns the attribute of el matching the qualified name, or nil.
func findAttr(el *etree.Element, q xmlpath.QName) *etree.Attr {
	for i := range el.Attr {
		a := &el.Attr[i]
		if a.Key != q.Local {
			continue
		}
		switch {
		case q.Prefix == "xml":
			if a.Space == "xml" {
				return a
			}
		case q.URI == "":
			if a.Space == "" {
				return a
			}
		default:
			if a.Space != "" && a.NamespaceURI() == q.URI {
				return a
			}
		}
	}
	return nil
}

// PathKindMismatchError reports a structural operation on an attribute path
// or an attribute operation on an element path.
type PathKindMismatchError struct {
	Path string
	Want string
}

func (e *PathKindMismatchError) Error() string {
	return fmt.Sprintf("path %s: expected reference to %s", e.Path, e.Want)
}
