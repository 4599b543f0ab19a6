package types

import "errors"

// Validation errors for API input.
var (
	ErrMissingUserID = errors.New("user_id is required")
	ErrMissingTitle  = errors.New("title is required")
)
