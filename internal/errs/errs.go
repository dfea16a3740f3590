// Package errs holds the error kinds shared across the service. Domain packages
// wrap one of these with %w so the HTTP layer can map them to status codes.
package errs

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrNotEntitled      = errors.New("not entitled")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrUpstream         = errors.New("upstream unavailable")
	ErrConflict         = errors.New("conflict")
	ErrInvalid          = errors.New("invalid request")
)

// Upstream marks err as a failed call to an external dependency (postgres, stripe, s3, ...).
func Upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", service, ErrUpstream, err)
}

// Kind returns the sentinel kind err belongs to, or nil.
func Kind(err error) error {
	for _, k := range []error{ErrNotFound, ErrNotEntitled, ErrInvalidSignature, ErrConflict, ErrInvalid, ErrUpstream} {
		if errors.Is(err, k) {
			return k
		}
	}
	return nil
}
