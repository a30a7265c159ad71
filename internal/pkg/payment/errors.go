package payment

import "fmt"

// ErrorKind classifies a row level problem found while building a ledger
type ErrorKind string

const (
	DuplicateIdentity ErrorKind = "duplicated_data"
	InvalidDate       ErrorKind = "invalid_date"
)

// ComplianceError describes a malformed or duplicated payment row.
// These are collected during a build and never abort it.
type ComplianceError struct {
	Kind          ErrorKind `json:"kind"`
	Row           int       `json:"row"`
	Identity      string    `json:"identity"`
	RawExpiration string    `json:"raw_expiration,omitempty"`
}

func (e ComplianceError) String() string {
	if e.Kind == InvalidDate {
		return fmt.Sprintf("row %d: invalid expiration date %q for %s", e.Row, e.RawExpiration, e.Identity)
	}
	return fmt.Sprintf("row %d: duplicated data for %s", e.Row, e.Identity)
}

// LoaderError reports that the payment source could not be read at all
type LoaderError struct {
	Source string
	Err    error
}

func (e *LoaderError) Error() string {
	return fmt.Sprintf("failed to load payments from %s: %v", e.Source, e.Err)
}

func (e *LoaderError) Unwrap() error {
	return e.Err
}
