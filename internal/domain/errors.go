package domain

import (
	"errors"
	"strings"
)

// Sentinel errors for the domain layer.
var (
	ErrNotFound   = errors.New("domain: not found")
	ErrConflict   = errors.New("domain: conflict")
	ErrValidation = errors.New("domain: validation failed")
)

// ErrSeatNotFound is returned when a seat id is absent from a chart layout.
// It matches ErrNotFound under errors.Is.
var ErrSeatNotFound = &seatNotFoundError{}

type seatNotFoundError struct{}

func (*seatNotFoundError) Error() string        { return "domain: seat not found" }
func (*seatNotFoundError) Is(target error) bool { return target == ErrNotFound }

// ValidationError describes one rejected input field.
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e ValidationError) Error() string {
	return e.Field + ": " + e.Reason
}

// ValidationErrors collects every violated field of a single input.
type ValidationErrors []ValidationError

func (v ValidationErrors) Error() string {
	parts := make([]string, 0, len(v))
	for _, e := range v {
		parts = append(parts, e.Error())
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

func (v ValidationErrors) Is(target error) bool {
	return target == ErrValidation
}

func (v ValidationErrors) orNil() error {
	if len(v) == 0 {
		return nil
	}
	return v
}
