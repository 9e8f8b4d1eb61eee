// Package xmltree walks etree documents along qualified paths.
//
// A single generalized traversal (Walk) is parameterized by a Strategy
// whose four operations decide what happens at a missing root, at an
// ambiguous sibling set, at a missing child, and at the terminal of the
// path. Every reader and writer in the package is a Strategy over that
// one walk, in a plain variant and a base-scoped variant used during
// foreach iteration.
package xmltree
