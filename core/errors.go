package core

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		if len(err.Fields) > 0 {
			return err.Fields[0].Field + ": " + err.Fields[0].Error
		}
		return ""
	}
	return err.Err.Error()
}

// Integrity issue kinds raised while reconciling stored fee data.
const (
	KindDataIntegrity      = "data_integrity"      // e.g. partial_amount outside [0, amount)
	KindIntegrityViolation = "integrity_violation" // duplicate ledger key
	KindOrphaned           = "orphaned"            // payment whose student does not exist
)

// IntegrityIssue describes one inconsistency found in stored data.
type IntegrityIssue struct {
	Kind       string   `json:"kind"`
	StudentID  string   `json:"student_id,omitempty"`
	PaymentIDs []string `json:"payment_ids,omitempty"`
	Message    string   `json:"message"`
}

// IntegrityError is returned when stored data breaks an invariant the caller relies on.
type IntegrityError struct {
	Issues []IntegrityIssue
}

func NewIntegrityError(issues ...IntegrityIssue) error {
	return &IntegrityError{Issues: issues}
}

func (err IntegrityError) Error() string {
	switch len(err.Issues) {
	case 0:
		return "data integrity error"
	case 1:
		return fmt.Sprintf("%s: %s", err.Issues[0].Kind, err.Issues[0].Message)
	}
	msgs := make([]string, 0, len(err.Issues))
	for _, iss := range err.Issues {
		msgs = append(msgs, iss.Kind+": "+iss.Message)
	}
	return fmt.Sprintf("%d data integrity issues: %s", len(err.Issues), strings.Join(msgs, "; "))
}

// HasKind reports whether any issue is of the given kind.
func (err IntegrityError) HasKind(kind string) bool {
	for _, iss := range err.Issues {
		if iss.Kind == kind {
			return true
		}
	}
	return false
}

// AsIntegrityError unwraps err down to an *IntegrityError, if any.
func AsIntegrityError(err error) (*IntegrityError, bool) {
	ierr, ok := errors.Cause(err).(*IntegrityError)
	return ierr, ok
}

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}
