package contract

import "errors"

var (
	ErrConfiguration = errors.New("missing required configuration")
	ErrUpstream      = errors.New("upstream call failed")
	ErrToolArguments = errors.New("tool arguments are not valid JSON")
	ErrValidation    = errors.New("validation failed")
)
