package secret

import (
	"fmt"

	"github.com/pkg/errors"
)

// Code classifies store failures into the domain taxonomy.
type Code string

const (
	CodeNotFound          Code = "not_found"
	CodeAccessDenied      Code = "access_denied"
	CodeDecryptionFailure Code = "decryption_failure"
	CodeInternal          Code = "internal"
)

// Error wraps a transport failure for one named bundle with its taxonomy
// code. The underlying transport error, if any, stays on the cause chain.
type Error struct {
	Code Code
	Name string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("secret store %s on %q: %v", e.Code, e.Name, e.Err)
	}
	return fmt.Sprintf("secret store %s on %q", e.Code, e.Name)
}

// Cause implements the pkg/errors causer interface.
func (e *Error) Cause() error { return e.Err }

func (e *Error) Unwrap() error { return e.Err }

// Wrap classifies err under the given code for the named bundle. A nil err
// is allowed for conditions the transport reports without an error value,
// such as a missing secret.
func Wrap(err error, code Code, name string) error {
	return &Error{Code: code, Name: name, Err: err}
}

// CodeOf extracts the taxonomy code from anywhere in err's cause chain.
// Unclassified errors report CodeInternal.
func CodeOf(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return CodeInternal
}

// IsNotFound reports whether err means the named secret does not exist
// remotely.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	return CodeOf(err) == CodeNotFound
}
