// Package plan classifies a flat rule set into an ordered execution
// program: basic rules applied once per run, and foreach rules grouped
// under a nested iteration forest built from their declared base pairs.
package plan
