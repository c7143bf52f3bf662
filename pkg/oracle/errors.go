package oracle

import (
	"errors"
	"fmt"
)

// UnavailableError indicates the backend could not be reached or is not
// configured. Such failures are safe to retry.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("oracle unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// RequestError indicates the backend rejected the request (invalid
// parameters, oversized prompt). Retrying the same request will not help.
type RequestError struct {
	Err error
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("oracle rejected request: %v", e.Err)
}

func (e *RequestError) Unwrap() error {
	return e.Err
}

// IsUnavailable reports whether any error in the chain is an UnavailableError.
func IsUnavailable(err error) bool {
	var ue *UnavailableError
	return errors.As(err, &ue)
}

// IsRequestError reports whether any error in the chain is a RequestError.
func IsRequestError(err error) bool {
	var re *RequestError
	return errors.As(err, &re)
}
