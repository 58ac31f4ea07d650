package github

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// AuthError represents a 401/403 response that indicates a bad or
// under-scoped credential. It is never retried.
type AuthError struct {
	StatusCode int
	Message    string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("authentication failed (status %d): %s; check credential and token scopes", e.StatusCode, e.Message)
}

// RateLimitError represents a 403/429 response carrying a rate-limit
// indication. It is retryable after backoff.
type RateLimitError struct {
	StatusCode int
	ResetTime  time.Time
	Remaining  int
}

func (e *RateLimitError) Error() string {
	if e.ResetTime.IsZero() {
		return fmt.Sprintf("GitHub API rate limit exceeded (status %d)", e.StatusCode)
	}
	return fmt.Sprintf("GitHub API rate limit exceeded (status %d), resets at %v", e.StatusCode, e.ResetTime)
}

// TransientError represents a 5xx response or a timeout. It is retryable with
// bounded backoff.
type TransientError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransientError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("transient GitHub API error (status %d): %s: %v", e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("transient GitHub API error (status %d): %s", e.StatusCode, e.Message)
}

func (e *TransientError) Unwrap() error {
	return e.Err
}

// MalformedResponseError represents a non-JSON body or a payload missing its
// data field. It is not retried.
type MalformedResponseError struct {
	Message string
	Err     error
}

func (e *MalformedResponseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("malformed GitHub API response: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("malformed GitHub API response: %s", e.Message)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Err
}

// GraphQLError represents an HTTP 200 response with a populated errors array.
// A partial data payload may still accompany it; the caller decides whether
// that payload is usable.
type GraphQLError struct {
	Messages []string
	Partial  json.RawMessage
}

func (e *GraphQLError) Error() string {
	return fmt.Sprintf("GraphQL query returned %d error(s): %v", len(e.Messages), e.Messages)
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsRateLimitError checks if an error is a rate limit error
func IsRateLimitError(err error) bool {
	var rlErr *RateLimitError
	return errors.As(err, &rlErr)
}

// IsTransientError checks if an error is a transient error
func IsTransientError(err error) bool {
	var trErr *TransientError
	return errors.As(err, &trErr)
}

// IsMalformedResponseError checks if an error is a malformed response error
func IsMalformedResponseError(err error) bool {
	var mrErr *MalformedResponseError
	return errors.As(err, &mrErr)
}

// IsGraphQLError checks if an error is a GraphQL-level error
func IsGraphQLError(err error) bool {
	var gqlErr *GraphQLError
	return errors.As(err, &gqlErr)
}

// isRetryable reports whether a transport error may be retried with backoff.
func isRetryable(err error) bool {
	return IsRateLimitError(err) || IsTransientError(err)
}
