package apperrors

import "errors"

// ErrNotFound indicates that a requested resource could not be found.
var ErrNotFound = errors.New("resource not found")

// ErrValidation indicates that input data failed validation checks.
var ErrValidation = errors.New("validation error")

// ErrDuplicate indicates that an attempt was made to create a resource that already exists.
var ErrDuplicate = errors.New("resource already exists")

// ErrInvalidState indicates an operation against a record whose lifecycle
// state does not allow it (e.g. appending a non-terminal payment to the
// ledger). This class of error is a programming defect, not a recoverable
// user condition.
var ErrInvalidState = errors.New("invalid record state")

// ErrGatewayTimeout indicates that an external authorization gateway did not
// answer within the configured bound. Retryable with a fresh idempotency key.
var ErrGatewayTimeout = errors.New("gateway authorization timed out")

// ErrGatewayDeclined indicates that an external gateway explicitly declined
// the authorization. Not retryable without new payment details.
var ErrGatewayDeclined = errors.New("gateway declined authorization")
