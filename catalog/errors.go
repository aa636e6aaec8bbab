package catalog

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates no record matches the requested key (and version)
	ErrNotFound = errors.New("server not found")

	// ErrVersionNotFound indicates the key exists but holds another version
	ErrVersionNotFound = fmt.Errorf("%w: version mismatch", ErrNotFound)

	// ErrDuplicateKey indicates two records share a key
	ErrDuplicateKey = errors.New("duplicate key")

	// ErrEmptyKey indicates a record without a key
	ErrEmptyKey = errors.New("empty key")
)

// IsNotFound returns true if the error is ErrNotFound or wraps it
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
