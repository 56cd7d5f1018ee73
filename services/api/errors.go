package api

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a failed call against the booking backend.
type ErrorKind string

const (
	KindNetwork ErrorKind = "network"
	KindTimeout ErrorKind = "timeout"
	KindStatus  ErrorKind = "status"
	KindDecode  ErrorKind = "decode"
)

var ErrResourceNotFound = errors.New("resource not found")

// Error is returned for every call that did not yield a usable response.
type Error struct {
	Op         string
	Kind       ErrorKind
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.StatusCode != 0 && e.Message != "":
		return fmt.Sprintf("%s: %s (status %d): %s", e.Op, e.Kind, e.StatusCode, e.Message)
	case e.StatusCode != 0:
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Kind, e.StatusCode)
	case e.Err != nil:
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// IsTimeout reports whether err is a backend call that ran out of time.
func IsTimeout(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindTimeout
}

// IsNetwork reports whether err is a transport failure rather than a server answer.
func IsNetwork(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Kind == KindNetwork
}
