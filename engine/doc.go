// Package engine applies a validated, classified rule set to a source
// document and produces a destination document.
//
// A run is single-threaded and fully synchronous: the source tree is
// read-only for its duration, and the destination tree is exclusively
// owned by the run until it completes. Any definition or path error
// aborts the run with no output.
package engine
