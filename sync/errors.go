package sync

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrRateLimited matches APIErrors with a 429 status.
	ErrRateLimited = errors.New("rate limited")

	// ErrUnauthorized matches APIErrors with a 401 or 403 status.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMissingEmail is reported for source records without an email address.
	ErrMissingEmail = errors.New("missing email address")

	// ErrAmbiguousMatch is reported when more than one contact shares an email
	// and the duplicates policy is DuplicatesError.
	ErrAmbiguousMatch = errors.New("multiple contacts found with the same email")
)

// ConfigError is returned when required configuration is missing or invalid.
// It is fatal and is raised before any network call is made.
type ConfigError struct {
	Component string
	Message   string
	Err       error
}

func (e *ConfigError) Error() string {
	if e.Component != "" {
		return fmt.Sprintf("configuration error in %s: %s", e.Component, e.Message)
	}
	return fmt.Sprintf("configuration error: %s", e.Message)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// FetchError is returned when the source cannot be read. It aborts the run.
type FetchError struct {
	Endpoint string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("failed to fetch contacts from %s: %v", e.Endpoint, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// StoreQueryError is returned by a failed search-by-email.
type StoreQueryError struct {
	Email string
	Err   error
}

func (e *StoreQueryError) Error() string {
	return fmt.Sprintf("failed to search for contact %s: %v", e.Email, e.Err)
}

func (e *StoreQueryError) Unwrap() error {
	return e.Err
}

// StoreWriteError is returned by a failed create or update.
type StoreWriteError struct {
	Op    string // "create" or "update"
	Email string
	ID    string
	Err   error
}

func (e *StoreWriteError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("failed to %s contact %s (id %s): %v", e.Op, e.Email, e.ID, e.Err)
	}
	return fmt.Sprintf("failed to %s contact %s: %v", e.Op, e.Email, e.Err)
}

func (e *StoreWriteError) Unwrap() error {
	return e.Err
}

// APIError describes a non-2xx response from one of the remote APIs.
type APIError struct {
	Service    string
	StatusCode int
	Message    string
	Category   string
	Err        error
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	if e.Category != "" {
		msg = fmt.Sprintf("%s: %s", e.Category, msg)
	}
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s API error (status %d): %s", e.Service, e.StatusCode, msg)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s API error: %v", e.Service, e.Err)
	}
	return fmt.Sprintf("%s API error: %s", e.Service, msg)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

func (e *APIError) Is(target error) bool {
	switch e.StatusCode {
	case http.StatusTooManyRequests:
		return target == ErrRateLimited
	case http.StatusUnauthorized, http.StatusForbidden:
		return target == ErrUnauthorized
	}
	return false
}
