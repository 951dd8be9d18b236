// Package rpcmodel defines the parameter structs accepted by the query
// operations and the error model their failures map onto.
package rpcmodel

import "fmt"

// ErrorCode identifies a category of operation failure.
type ErrorCode int

// Operation failure categories. Parameter, not-found and precondition errors
// are caller mistakes; internal errors indicate store corruption; the
// scan-in-progress error is an expected, retryable contention condition.
const (
	ErrMisc                ErrorCode = -1
	ErrInvalidAddressOrKey ErrorCode = -5
	ErrInvalidParameter    ErrorCode = -8
	ErrBlockNotFound       ErrorCode = -5
	ErrInternal            ErrorCode = -32603
)

// Error is the failure value every operation returns. No operation retries
// internally; failures propagate to the caller immediately.
type Error struct {
	Code    ErrorCode
	Message string
}

// Error satisfies the error interface.
func (e *Error) Error() string {
	return e.Message
}

// NewError returns an Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// NewErrorf returns an Error with a formatted message.
func NewErrorf(code ErrorCode, format string, args ...interface{}) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Errors for conditions shared by several operations.
var (
	// ErrScanInProgress reports that the singleton UTXO scan reservation
	// is already held. Callers may poll status and retry.
	ErrScanInProgress = NewError(ErrInvalidParameter,
		"Scan already in progress, use action \"abort\" or \"status\"")

	// ErrTxNotInMempool reports a transaction id absent from the pool.
	ErrTxNotInMempool = NewError(ErrInvalidAddressOrKey,
		"Transaction not in mempool")

	// ErrUnknownBlock reports a block hash with no index entry.
	ErrUnknownBlock = NewError(ErrBlockNotFound, "Block not found")
)
