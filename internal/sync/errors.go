package sync

import (
	"errors"
	"fmt"
)

// Kind classifies a sync failure so callers can pick a response without
// string matching.
type Kind int

const (
	// KindConfig means required credentials or tenant identity are missing.
	KindConfig Kind = iota
	// KindAuth means a token refresh failed.
	KindAuth
	// KindFetch means the upstream fetch failed after the one allowed
	// refresh-and-retry.
	KindFetch
	// KindPersistence means the local commit failed and was rolled back.
	KindPersistence
)

func (k Kind) String() string {
	switch k {
	case KindConfig:
		return "config"
	case KindAuth:
		return "auth"
	case KindFetch:
		return "fetch"
	case KindPersistence:
		return "persistence"
	default:
		return "unknown"
	}
}

// Error is the sync engine's error type. It wraps the underlying cause so
// errors.Is/As keep working through it.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	return fmt.Sprintf("sync %s error: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func configError(format string, args ...interface{}) error {
	return &Error{Kind: KindConfig, Err: fmt.Errorf(format, args...)}
}

func authError(format string, args ...interface{}) error {
	return &Error{Kind: KindAuth, Err: fmt.Errorf(format, args...)}
}

func fetchError(format string, args ...interface{}) error {
	return &Error{Kind: KindFetch, Err: fmt.Errorf(format, args...)}
}

func persistenceError(format string, args ...interface{}) error {
	return &Error{Kind: KindPersistence, Err: fmt.Errorf(format, args...)}
}

// KindOf extracts the failure kind, returning ok=false for errors that did
// not originate in the sync engine.
func KindOf(err error) (Kind, bool) {
	var syncErr *Error
	if errors.As(err, &syncErr) {
		return syncErr.Kind, true
	}
	return 0, false
}
