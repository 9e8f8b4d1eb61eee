// Package rules defines the mapping-rule model: a named, immutable rule
// with declared source paths, one destination path, an optional foreach
// repetition chain, and an implementation function.
//
// Rules enter the system one of two ways:
//   - Go callers build Rule values directly and register them in a Set.
//   - A YAML rulefile is loaded, with implementations drawn from a
//     registry of named transforms.
//
// Validate checks the structural well-formedness of every rule in a set
// eagerly, before any execution begins.
package rules
