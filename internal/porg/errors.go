// internal/porg/errors.go
package porg

import (
	"errors"
	"fmt"
	"strings"

	"github.com/porgdao/porg/internal/engine"
)

var (
	ErrInvalidAccountData     = errors.New("unexpected account data")
	ErrInvalidInstructionData = errors.New("unexpected instruction data")
)

// customErrorCodes maps the program's custom error codes, as they appear in
// RPC simulation/send failures, to engine errors.
var customErrorCodes = map[string]*engine.Error{
	"0x1770": engine.ErrUnauthorized,
	"0x1771": engine.ErrFeeTooHigh,
	"0x1772": engine.ErrInvalidTargetAccount,
	"0x1773": engine.ErrInvalidTargetMint,
	"0x1774": engine.ErrInvalidJupiterRoute,
	"0x1775": engine.ErrAccountNotFound,
	"0x1776": engine.ErrInsufficientOutput,
}

// MapRPCError recognizes the program's custom error codes inside an RPC
// failure and returns the matching engine error wrapped around the original.
// Unrecognized errors are returned unchanged.
func MapRPCError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()
	for code, programErr := range customErrorCodes {
		if strings.Contains(msg, code) {
			return fmt.Errorf("%w: %w", programErr, err)
		}
	}
	return err
}
