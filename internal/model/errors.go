package model

import "errors"

var (
	// ErrInvalidSelection reports a field mutation outside the field's token set.
	ErrInvalidSelection = errors.New("invalid selection")
	// ErrIncompleteSelection reports that one or more fields are unset.
	ErrIncompleteSelection = errors.New("incomplete selection")
	// ErrInvalidPayload reports a payload that cannot be decoded.
	ErrInvalidPayload = errors.New("invalid payload")
)
