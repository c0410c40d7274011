package errors

import "errors"

// Common errors
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotFound      = errors.New("resource not found")
	ErrConflict      = errors.New("resource conflict")
	ErrInternalError = errors.New("internal server error")
)

// Pipeline errors
var (
	ErrValidationRejected       = errors.New("content validation rejected the video")
	ErrExtractionPartialFailure = errors.New("one or more angles failed to yield keyframes")
	ErrExtractionFailed         = errors.New("no angle yielded keyframes")
	ErrAIUnavailable            = errors.New("ai credential not configured")
	ErrAIResponseInvalid        = errors.New("ai response could not be parsed")
	ErrScoreUnresolvable        = errors.New("total weight is zero")
	ErrInvalidTransition        = errors.New("invalid analysis state transition")
	ErrRunAbandoned             = errors.New("analysis run abandoned")
	ErrRunCancelled             = errors.New("analysis run cancelled by request")
	ErrAlreadyClaimed           = errors.New("analysis already claimed by another worker")
)

// Recompute errors
var (
	ErrBatchPageWriteFailure = errors.New("recompute page write failed")
	ErrRecomputeInProgress   = errors.New("recompute already in progress")
	ErrRecomputeLockLost     = errors.New("recompute lock lost")
)
