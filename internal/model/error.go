package model

import "errors"

// Standard error codes for engine failures
const (
	ErrCodeValidation = "VALIDATION_ERROR"
	ErrCodeNetwork    = "NETWORK_ERROR"
	ErrCodeStock      = "STOCK_ERROR"
	ErrCodeServer     = "SERVER_ERROR"
)

// DomainError is a classified engine failure. Every error surfaced by the
// mutation coordinator is one of these; callers branch on the code, never on
// message text.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrInvalidQuantity = NewDomainError(ErrCodeValidation, "Quantity must be at least 1")
	ErrLineNotFound    = NewDomainError(ErrCodeValidation, "No matching line in cart")
	ErrInvalidKind     = NewDomainError(ErrCodeValidation, "Unknown line item kind")
	ErrEmptyCart       = NewDomainError(ErrCodeValidation, "Cart is empty")
	ErrInvalidTotal    = NewDomainError(ErrCodeValidation, "Cart total must be positive")
	ErrOutOfStock      = NewDomainError(ErrCodeStock, "Insufficient stock for requested quantity")
	ErrCartUnavailable = NewDomainError(ErrCodeNetwork, "Cart service unreachable")
)

// codeOf extracts the domain error code from err, or "" if err is not a
// DomainError.
func codeOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsValidation reports whether err is a local validation failure. Validation
// failures never reach the network and never mutate the store.
func IsValidation(err error) bool {
	return codeOf(err) == ErrCodeValidation
}

// IsStock reports whether err is a server-reported stock rejection, so the
// UI can disable further increments for the affected line.
func IsStock(err error) bool {
	return codeOf(err) == ErrCodeStock
}

// IsNetwork reports whether err is a transport failure (retryable).
func IsNetwork(err error) bool {
	return codeOf(err) == ErrCodeNetwork
}

// IsServer reports whether err is a server-side (5xx) failure.
func IsServer(err error) bool {
	return codeOf(err) == ErrCodeServer
}
