// internal/engine/errors.go
package engine

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a terminal failure of a request. Codes 6000..6006
// mirror the custom error codes emitted by the deployed program; the
// remaining codes are engine-side extensions that never appear on chain.
type ErrorCode uint32

const (
	CodeUnauthorized ErrorCode = 6000 + iota
	CodeFeeTooHigh
	CodeInvalidTargetAccount
	CodeInvalidTargetMint
	CodeInvalidJupiterRoute
	CodeAccountNotFound
	CodeInsufficientOutput

	// Engine-side extensions.
	CodeAlreadyInitialized
	CodeNotInitialized
	CodeArithmeticOverflow
)

// Error is a tagged request failure. Failures are terminal: nothing is
// retried inside the engine, and a failed request leaves no partial effects
// behind (the host ledger rolls the transaction back as a whole).
type Error struct {
	Code ErrorCode
	msg  string
}

func (e *Error) Error() string {
	return fmt.Sprintf("porg: %s (%d)", e.msg, e.Code)
}

var (
	ErrUnauthorized         = &Error{CodeUnauthorized, "you are not authorized to perform this action"}
	ErrFeeTooHigh           = &Error{CodeFeeTooHigh, "fee is too high"}
	ErrInvalidTargetAccount = &Error{CodeInvalidTargetAccount, "invalid target token account"}
	ErrInvalidTargetMint    = &Error{CodeInvalidTargetMint, "invalid target token mint"}
	ErrInvalidJupiterRoute  = &Error{CodeInvalidJupiterRoute, "invalid Jupiter route"}
	ErrAccountNotFound      = &Error{CodeAccountNotFound, "account not found"}
	ErrInsufficientOutput   = &Error{CodeInsufficientOutput, "insufficient output amount"}

	ErrAlreadyInitialized = &Error{CodeAlreadyInitialized, "program state already initialized"}
	ErrNotInitialized     = &Error{CodeNotInitialized, "program state not initialized"}
	ErrArithmeticOverflow = &Error{CodeArithmeticOverflow, "arithmetic overflow in fee computation"}
)

// FromCode maps an on-chain custom error code back to its engine error.
// Unknown codes return nil.
func FromCode(code ErrorCode) *Error {
	switch code {
	case CodeUnauthorized:
		return ErrUnauthorized
	case CodeFeeTooHigh:
		return ErrFeeTooHigh
	case CodeInvalidTargetAccount:
		return ErrInvalidTargetAccount
	case CodeInvalidTargetMint:
		return ErrInvalidTargetMint
	case CodeInvalidJupiterRoute:
		return ErrInvalidJupiterRoute
	case CodeAccountNotFound:
		return ErrAccountNotFound
	case CodeInsufficientOutput:
		return ErrInsufficientOutput
	}
	return nil
}

// IsCode reports whether err carries the given failure code anywhere in its
// wrap chain.
func IsCode(err error, code ErrorCode) bool {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Code == code
	}
	return false
}
