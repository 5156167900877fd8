package chain

import (
	"fmt"

	"github.com/pkg/errors"
)

// ErrNotConnected is returned by remote operations attempted outside an
// open session.
var ErrNotConnected = errors.New("not connected to the secret store")

// KeyError reports a key absent from the merged view when the lookup
// supplied no default.
type KeyError struct {
	Key string
}

func (e *KeyError) Error() string {
	return fmt.Sprintf("%q not found, check the secret value in the remote store", e.Key)
}

// CastError reports a stored value that cannot be converted to the
// requested type.
type CastError struct {
	Value  any
	Target Type
}

func (e *CastError) Error() string {
	return fmt.Sprintf("cannot cast %v (%T) to %s", e.Value, e.Value, e.Target)
}
