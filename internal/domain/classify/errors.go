package classify

import "errors"

// Sentinel errors reported by classification strategies.
var (
	ErrMissingAPIKey     = errors.New("classify: missing api key")
	ErrRemoteStatus      = errors.New("classify: remote returned error status")
	ErrMalformedResponse = errors.New("classify: malformed remote response")
	ErrStrategyPanic     = errors.New("classify: strategy panicked")
)
