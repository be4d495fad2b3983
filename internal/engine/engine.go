// internal/engine/engine.go
package engine

import (
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// State is the program's singleton configuration record. It is created once
// by Initialize and afterwards mutated only through authorized entry points;
// no entry point ever reassigns Authority.
type State struct {
	Authority      solana.PublicKey
	FeeBasisPoints uint16
	FeeAccount     solana.PublicKey
}

// InitialFeeBasisPoints is the fee installed at initialization (1%).
const InitialFeeBasisPoints = 100

// Engine executes the four program operations against explicitly injected
// capabilities. It holds no ambient state beyond the singleton State record.
type Engine struct {
	state *State

	ledger TokenLedger
	router Invoker
	bridge Invoker
	valuer Valuer

	routerProgram solana.PublicKey
	bridgeProgram solana.PublicKey

	logger *zap.Logger
}

// Options carries the external collaborators an Engine delegates to.
type Options struct {
	Ledger TokenLedger
	Router Invoker
	Bridge Invoker
	Valuer Valuer

	RouterProgram solana.PublicKey
	BridgeProgram solana.PublicKey

	Logger *zap.Logger
}

func New(opts Options) *Engine {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Engine{
		ledger:        opts.Ledger,
		router:        opts.Router,
		bridge:        opts.Bridge,
		valuer:        opts.Valuer,
		routerProgram: opts.RouterProgram,
		bridgeProgram: opts.BridgeProgram,
		logger:        logger.Named("engine"),
	}
}

// Initialize creates the singleton state with the default fee. It fails if
// the state already exists.
func (e *Engine) Initialize(authority, feeAccount solana.PublicKey) error {
	if e.state != nil {
		return ErrAlreadyInitialized
	}
	e.state = &State{
		Authority:      authority,
		FeeBasisPoints: InitialFeeBasisPoints,
		FeeAccount:     feeAccount,
	}
	e.logger.Info("program state initialized",
		zap.String("authority", authority.String()),
		zap.String("fee_account", feeAccount.String()),
		zap.Uint16("fee_basis_points", InitialFeeBasisPoints))
	return nil
}

// UpdateFee overwrites the fee rate. The new rate is range-checked before
// the caller is, so an out-of-range value fails with ErrFeeTooHigh
// regardless of who asks.
func (e *Engine) UpdateFee(caller solana.PublicKey, newFeeBasisPoints uint16) error {
	if e.state == nil {
		return ErrNotInitialized
	}
	if newFeeBasisPoints > MaxFeeBasisPoints {
		return ErrFeeTooHigh
	}
	if err := e.authorize(caller); err != nil {
		return err
	}
	e.state.FeeBasisPoints = newFeeBasisPoints
	e.logger.Info("fee updated", zap.Uint16("fee_basis_points", newFeeBasisPoints))
	return nil
}

// State returns a copy of the current configuration, or nil before
// initialization.
func (e *Engine) State() *State {
	if e.state == nil {
		return nil
	}
	s := *e.state
	return &s
}

// authorize is the guard in front of every mutating entry point bound to the
// stored authority.
func (e *Engine) authorize(caller solana.PublicKey) error {
	if !caller.Equals(e.state.Authority) {
		return ErrUnauthorized
	}
	return nil
}
