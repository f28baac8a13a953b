package models

import (
	"errors"
	"fmt"
)

// Reason classifies why a stage failed
type Reason string

const (
	ReasonMissingPrimary  Reason = "missing_primary"
	ReasonMalformedURL    Reason = "malformed_data_url"
	ReasonInvalidBase64   Reason = "invalid_base64"
	ReasonNotConfigured   Reason = "not_configured"
	ReasonWriteFailed     Reason = "write_failed"
	ReasonTransport       Reason = "transport"
	ReasonBlocked         Reason = "blocked"
	ReasonMalformedOutput Reason = "malformed_output"
	ReasonNoIdentifier    Reason = "no_identifier"
	ReasonNoBarcode       Reason = "no_barcode"
	ReasonNotFound        Reason = "not_found"
)

// ValidationError rejects a request before any side effect (HTTP 400)
type ValidationError struct {
	Reason  Reason
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// DecodeError reports an undecodable base64 payload (HTTP 400)
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Errorf("invalid base64: %w", e.Err).Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// ArchiveError is a non-fatal blob store failure
type ArchiveError struct {
	Reason Reason
	Err    error
}

func (e *ArchiveError) Error() string {
	return stageMessage("archive", e.Reason, e.Err)
}

func (e *ArchiveError) Unwrap() error {
	return e.Err
}

// GenerationError is a non-fatal generative model failure
type GenerationError struct {
	Reason Reason
	Err    error
}

func (e *GenerationError) Error() string {
	return stageMessage("generation", e.Reason, e.Err)
}

func (e *GenerationError) Unwrap() error {
	return e.Err
}

// LookupError is a non-fatal identifier or bibliographic lookup failure
type LookupError struct {
	Reason Reason
	Err    error
}

func (e *LookupError) Error() string {
	return stageMessage("lookup", e.Reason, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

func stageMessage(stage string, reason Reason, err error) string {
	if err != nil {
		return fmt.Sprintf("%s %s: %v", stage, reason, err)
	}
	return fmt.Sprintf("%s %s", stage, reason)
}

// IsClientError reports whether err should be answered with HTTP 400
func IsClientError(err error) bool {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return true
	}
	var derr *DecodeError
	return errors.As(err, &derr)
}

// ReasonOf extracts the Reason from any taxonomy error, or "" otherwise
func ReasonOf(err error) Reason {
	var (
		verr *ValidationError
		aerr *ArchiveError
		gerr *GenerationError
		lerr *LookupError
		derr *DecodeError
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &verr):
		return verr.Reason
	case errors.As(err, &derr):
		return ReasonInvalidBase64
	case errors.As(err, &aerr):
		return aerr.Reason
	case errors.As(err, &gerr):
		return gerr.Reason
	case errors.As(err, &lerr):
		return lerr.Reason
	}
	return ""
}
