package core

import "fmt"

// CryptoError means a fixed key or encoding step failed. It points at corrupted
// constants, not at the account.
type CryptoError struct {
	Op  string
	Err error
}

func (e *CryptoError) Error() string {
	return fmt.Sprintf("crypto error: %s: %v", e.Op, e.Err)
}

func (e *CryptoError) Unwrap() error { return e.Err }

// FingerprintRejectedError is returned when the device profile service answers with a code other than 1100.
type FingerprintRejectedError struct {
	Code int64
	Body string
}

func (e *FingerprintRejectedError) Error() string {
	return fmt.Sprintf("device profile rejected (code %d): %s", e.Code, e.Body)
}

type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("request to %s failed: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ProtocolError reports a response that is missing a field or carries an unexpected status.
type ProtocolError struct {
	Field   string
	Message string
	Body    string
}

func (e *ProtocolError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("protocol error at %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("protocol error: missing or invalid %q", e.Field)
}
