// internal/engine/bridge.go
package engine

import (
	"context"
	"encoding/binary"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// BridgeTokens moves the requested amount into the bridge custody account
// and hands a transfer message to the external messaging program. Replay
// protection is whatever uniqueness the messaging protocol enforces on the
// nonce; the engine does not validate the recipient beyond its fixed width.
func (e *Engine) BridgeTokens(ctx context.Context, caller solana.PublicKey, req BridgeRequest) error {
	if e.state == nil {
		return ErrNotInitialized
	}

	if err := e.ledger.Transfer(ctx, req.Source, req.Custody, caller, req.Amount); err != nil {
		return fmt.Errorf("transfer to custody: %w", err)
	}

	accounts := make([]solana.PublicKey, 0, 1+len(req.BridgeAccounts))
	accounts = append(accounts, req.Custody)
	accounts = append(accounts, req.BridgeAccounts...)

	if err := e.bridge.Invoke(ctx, e.bridgeProgram, accounts, EncodeBridgePayload(req)); err != nil {
		return fmt.Errorf("submit bridge message: %w", err)
	}

	e.logger.Info("bridge transfer submitted",
		zap.Uint64("amount", req.Amount),
		zap.Uint16("target_chain", req.TargetChain),
		zap.Uint64("nonce", req.Nonce))
	return nil
}

// EncodeBridgePayload renders the transfer request as the fixed-width
// little-endian message handed to the messaging program:
// amount (8) | target chain (2) | recipient (32) | nonce (8).
func EncodeBridgePayload(req BridgeRequest) []byte {
	payload := make([]byte, 50)
	binary.LittleEndian.PutUint64(payload[0:], req.Amount)
	binary.LittleEndian.PutUint16(payload[8:], req.TargetChain)
	copy(payload[10:], req.Recipient[:])
	binary.LittleEndian.PutUint64(payload[42:], req.Nonce)
	return payload
}
