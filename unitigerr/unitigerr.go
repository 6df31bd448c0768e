// Package unitigerr holds the error kinds the pipeline can fail with, each
// carrying the phase context a terminal failure message needs.
package unitigerr

import "fmt"

// FormatError marks an input format violation: a malformed or non-ACGT
// read record.
type FormatError struct {
	File   string
	Record int
	Reason string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("input format violation in %s, record %d: %s", e.File, e.Record, e.Reason)
}

// ContractViolation marks an internal consistency failure, such as a
// consensus observation disagreeing with an already-set base, or two
// distinct k-mers colliding on their 128-bit content hash.
type ContractViolation struct {
	Phase  string
	Reason string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("contract violation while %s: %s", e.Phase, e.Reason)
}

// ResourceError marks an allocation or other resource-exhaustion failure.
type ResourceError struct {
	Phase  string
	Reason string
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("resource exhaustion while %s: %s", e.Phase, e.Reason)
}

// Phase wraps any error with the pipeline phase it occurred in, matching
// the single terminal error with phase context that callers must report.
type Phase struct {
	Name string
	Err  error
}

func (e *Phase) Error() string {
	return fmt.Sprintf("while %s: %v", e.Name, e.Err)
}

func (e *Phase) Unwrap() error {
	return e.Err
}

// Wrap tags err with a phase name, unless err is nil.
func Wrap(phase string, err error) error {
	if err == nil {
		return nil
	}
	return &Phase{Name: phase, Err: err}
}
