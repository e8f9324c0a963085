package app

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrNotPDF              = errors.New("only PDF files are allowed")
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
)

// UpstreamError marks a failed call to an external gateway (embedding,
// generation, vector store, weather). It matches ErrUpstreamUnavailable.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s unavailable: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool {
	return target == ErrUpstreamUnavailable
}

func upstream(service string, err error) error {
	if err == nil {
		return nil
	}
	return &UpstreamError{Service: service, Err: err}
}
