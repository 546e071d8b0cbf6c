package core

import (
	"errors"
	"fmt"
)

var (
	ErrNotDetected           = errors.New("identity provider not detected")
	ErrUserDenied            = errors.New("user denied account access")
	ErrLoginRejected         = errors.New("login rejected")
	ErrRegistrationCollision = errors.New("auth descriptor limit reached")
	ErrRegistrationExhausted = errors.New("registration retry exhausted")
	ErrRegistrationFailed    = errors.New("registration failed")
	ErrRemoteCall            = errors.New("remote call failed")
	ErrNoSession             = errors.New("no session")
	ErrNegotiationInFlight   = errors.New("authentication already in progress")
	ErrSessionExpired        = errors.New("session has expired")
	ErrInvalidInput          = errors.New("invalid input")
)

// Ledger side failures
var (
	ErrTokenExpired     = errors.New("token has expired")
	ErrInvalidSignature = errors.New("invalid signature")
	ErrInvalidToken     = errors.New("invalid token")
)

// ErrorKind classifies a failure reported by the ledger service
type ErrorKind int

const (
	KindUnknown ErrorKind = iota
	KindDescriptorLimit
	KindUnauthorized
	KindSessionExpired
	KindNotFound
	KindRejected
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindDescriptorLimit:
		return "descriptor_limit"
	case KindUnauthorized:
		return "unauthorized"
	case KindSessionExpired:
		return "session_expired"
	case KindNotFound:
		return "not_found"
	case KindRejected:
		return "rejected"
	case KindUnavailable:
		return "unavailable"
	default:
		return "unknown"
	}
}

// LedgerError is a remote failure tagged with a structured kind at the adapter boundary
type LedgerError struct {
	Kind    ErrorKind
	Code    string // Code as sent by the ledger, may be empty
	Message string
	Status  int // HTTP status of the response, zero for transport failures
}

func (e *LedgerError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("ledger %s: %s", e.Code, e.Message)
	}
	return "ledger: " + e.Message
}

// Is lets callers match a tagged error against the sentinel of its kind
func (e *LedgerError) Is(target error) bool {
	switch e.Kind {
	case KindDescriptorLimit:
		return target == ErrRegistrationCollision
	case KindSessionExpired:
		return target == ErrSessionExpired
	}
	return false
}

// KindOf returns the ledger error kind carried by err, or KindUnknown
func KindOf(err error) ErrorKind {
	var ledgerErr *LedgerError
	if errors.As(err, &ledgerErr) {
		return ledgerErr.Kind
	}
	return KindUnknown
}
