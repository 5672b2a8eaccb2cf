package apperrors

import "errors"

var (
	// ErrValidation indicates a malformed request shape, rejected before any side effect.
	ErrValidation = errors.New("validation failed")
	// ErrSecurityRejected indicates the allowlist or injection screen denied the statement.
	ErrSecurityRejected = errors.New("statement rejected by security policy")
	// ErrUnsupportedBackend indicates an unrecognized dialect/provider combination.
	ErrUnsupportedBackend = errors.New("unsupported backend")
	// ErrInternalOnly indicates an operation that is only available when the
	// gateway's datasource is the internal engine.
	ErrInternalOnly = errors.New("operation only available for internal datasource")
	// ErrFeatureDisabled indicates the feature toggle for this endpoint is off.
	ErrFeatureDisabled = errors.New("feature disabled")
	// ErrNotFound indicates a referenced resource does not exist.
	ErrNotFound = errors.New("not found")
)
