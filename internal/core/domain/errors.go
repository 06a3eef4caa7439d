package domain

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when a request violates a business rule.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable is returned when an upstream dependency cannot answer.
	ErrUnavailable = errors.New("upstream unavailable")
)
