// Package xmlpath implements the restricted path grammar used by rule
// metadata: /elem1/elem2[@attr], where every element segment and the
// attribute may carry a namespace prefix (prefix:name).
//
// The package is purely functional: parsing a path, resolving prefixes
// against a scoped namespace-binding table, and qualifying the result
// never touch a document.
package xmlpath
