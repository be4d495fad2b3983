// internal/engine/types.go
package engine

import (
	"context"

	"github.com/gagliardetto/solana-go"
)

// TokenAccount is a read-only view of an SPL token account. The engine never
// creates or destroys these records; balances only move through the
// TokenLedger capability.
type TokenAccount struct {
	Address solana.PublicKey
	Owner   solana.PublicKey
	Mint    solana.PublicKey
	Amount  uint64
}

// TokenLedger is the token-transfer capability. Transfer must enforce the
// usual SPL semantics: the authority has to own the source account and the
// source balance must cover the amount.
type TokenLedger interface {
	Account(ctx context.Context, address solana.PublicKey) (TokenAccount, error)
	Transfer(ctx context.Context, from, to, authority solana.PublicKey, amount uint64) error
}

// Invoker submits an opaque delegated call to another on-chain program.
// Payloads are untrusted bytes the engine never interprets; whatever the
// payload makes the target program do is the caller's responsibility.
type Invoker interface {
	Invoke(ctx context.Context, program solana.PublicKey, accounts []solana.PublicKey, payload []byte) error
}

// Valuer supplies the USD valuation (in cents) of a token holding. Real-time
// pricing is an external concern; implementations live in internal/oracle.
type Valuer interface {
	TokenValueUSD(ctx context.Context, account TokenAccount) (uint64, error)
}

// Route is one caller-supplied swap leg: opaque instruction bytes for the
// router program and the accounts that instruction touches.
type Route struct {
	Data     []byte
	Accounts []solana.PublicKey
}

// LiquidateRequest is consumed within a single call and discarded.
type LiquidateRequest struct {
	TargetMint       solana.PublicKey
	IncludeDust      bool
	MinTokenValueUSD uint64 // cents
	MinOutputAmount  uint64

	// Routes are matched to surviving candidates by position.
	Routes []Route

	// ExtraAccounts is the open-ended account context: candidate token
	// accounts to scan plus every account a route may reference.
	ExtraAccounts []solana.PublicKey
}

// LiquidateResult summarizes a successful batch liquidation.
type LiquidateResult struct {
	SwapsExecuted int
	SkippedDust   int
	FeeAmount     uint64
	FinalBalance  uint64
}

// BridgeRequest is a single-use cross-chain transfer request.
type BridgeRequest struct {
	Amount      uint64
	TargetChain uint16
	Recipient   [32]byte
	Nonce       uint64

	Source  solana.PublicKey
	Custody solana.PublicKey

	// BridgeAccounts is the messaging program's account set
	// (config, message, emitter, sequence, fee collector, ...).
	BridgeAccounts []solana.PublicKey
}
