package contract

import "errors"

var (
	// ErrExtractionMalformed marks generation output that could not be parsed
	// against the declared schema. Handled locally, never surfaced to users.
	ErrExtractionMalformed = errors.New("extraction output malformed")

	// ErrValidation marks values rejected against a closed set or a required
	// structural constraint.
	ErrValidation = errors.New("validation failed")

	// ErrInsufficientSlots marks a turn that names an intent but lacks a
	// required field. Surfaced as a clarifying question.
	ErrInsufficientSlots = errors.New("required slots missing")

	ErrInvalidContact = errors.New("contact address is invalid")
	ErrInvalidPeriod  = errors.New("report period is invalid")

	// ErrUnavailable covers generation and storage infrastructure failures.
	ErrUnavailable = errors.New("collaborator unavailable")

	ErrRateLimited = errors.New("rate limited")
)
