package domain

import "fmt"

// AuthError is returned when the login response carries no token.
type AuthError struct {
	Status  int
	Message string
}

func (e *AuthError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("authentication failed: status %d", e.Status)
	}
	return fmt.Sprintf("authentication failed: status %d: %s", e.Status, e.Message)
}

type ConfigurationError struct {
	Key    string
	Reason string
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("invalid configuration %s: %s", e.Key, e.Reason)
}

// UpstreamFormatError reports a response field that is missing or has an unexpected shape.
type UpstreamFormatError struct {
	Endpoint string
	Field    string
	Err      error
}

func (e *UpstreamFormatError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("unexpected %s in %s response: %v", e.Field, e.Endpoint, e.Err)
	}
	return fmt.Sprintf("unexpected %s in %s response", e.Field, e.Endpoint)
}

func (e *UpstreamFormatError) Unwrap() error { return e.Err }

// JoinFailure is never returned by aggregate operations, only logged.
type JoinFailure struct {
	Entity string
	ID     int64
	Err    error
}

func (e *JoinFailure) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s %d not joined: %v", e.Entity, e.ID, e.Err)
	}
	return fmt.Sprintf("%s %d not found", e.Entity, e.ID)
}

func (e *JoinFailure) Unwrap() error { return e.Err }
