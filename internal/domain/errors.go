package domain

import "fmt"

// Error types for consistent error handling across the bridge.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrValidation indicates a validation error (bad input).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrCannotConnect indicates the setup health probe did not reach a healthy API.
type ErrCannotConnect struct {
	Reason string
	Err    error
}

func (e *ErrCannotConnect) Error() string {
	switch {
	case e.Reason != "" && e.Err != nil:
		return fmt.Sprintf("cannot connect: %s: %v", e.Reason, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("cannot connect: %v", e.Err)
	case e.Reason != "":
		return "cannot connect: " + e.Reason
	}
	return "cannot connect"
}

func (e *ErrCannotConnect) Unwrap() error {
	return e.Err
}

// ErrAPI indicates a failed chat call: a non-200 status, or a transport
// error when StatusCode is zero.
type ErrAPI struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *ErrAPI) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
	}
	return fmt.Sprintf("API request failed: %v", e.Err)
}

func (e *ErrAPI) Unwrap() error {
	return e.Err
}
