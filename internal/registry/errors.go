package registry

import "fmt"

// IncompleteError reports a saga that stopped after it had started
// mutating the forge. Compensation has already been attempted.
type IncompleteError struct {
	Crate   string
	Version string
	Step    string
	Err     error
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("%s %s: %s failed: %v", e.Crate, e.Version, e.Step, e.Err)
}

func (e *IncompleteError) Unwrap() error {
	return e.Err
}
