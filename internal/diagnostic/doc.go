// Package diagnostic provides structured error and warning collection for
// rule-set validation.
//
// Validation is total: every rule is checked and every finding recorded
// before the run is aborted, so a defective rulefile is reported in one
// pass rather than one defect at a time.
package diagnostic
