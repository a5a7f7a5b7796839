package domain

import (
	"errors"
	"fmt"
)

// ErrCityNotFound is returned when a city name resolves to no destination.
var ErrCityNotFound = errors.New("city not found")

// AuthError reports a failed credential exchange with a provider.
type AuthError struct {
	Provider string
	Err      error
}

func (e *AuthError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("failed to get %s token: %v", e.Provider, e.Err)
}

func (e *AuthError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// SearchError wraps any failure of a travel search provider.
type SearchError struct {
	Provider string
	Err      error
}

func (e *SearchError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s search failed: %v", e.Provider, e.Err)
}

func (e *SearchError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}
