package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates a document format no normaliser can handle.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrExtractionFailed indicates a document could not be converted to text.
	ErrExtractionFailed = errors.New("extraction failed")

	// ErrEmptyContent indicates extraction succeeded but produced no text.
	ErrEmptyContent = errors.New("empty content")

	// ErrConfigMissing indicates required settings are absent.
	ErrConfigMissing = errors.New("missing configuration")

	// ErrLLMUnavailable indicates no answer generator is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates no embedding path produced a vector.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrDimensionMismatch indicates a vector length differs from the index dimension.
	ErrDimensionMismatch = errors.New("vector dimension mismatch")

	// ErrVectorStoreUnavailable indicates the vector store rejected or failed a call.
	ErrVectorStoreUnavailable = errors.New("vector store unavailable")

	// ErrRemoteStatus indicates a remote API answered with a non-success status.
	ErrRemoteStatus = errors.New("remote call failed")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// Authentication Errors.

	// ErrAuthRequired indicates an operation needs an authenticated session.
	ErrAuthRequired = errors.New("authentication required")

	// ErrAuthExpired indicates the access token expired or was rejected.
	// There is no refresh; the user must log in again.
	ErrAuthExpired = errors.New("authentication expired")

	// ErrAuthInvalid indicates the token exchange or its response was unusable.
	ErrAuthInvalid = errors.New("authentication invalid")

	// ErrStateMismatch indicates the callback state does not match any issued attempt.
	ErrStateMismatch = errors.New("state mismatch")
)
