// internal/engine/liquidate.go
package engine

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
)

// BatchLiquidate converts the caller's token holdings into the target token
// in one request. Swap legs are opaque pass-throughs to the router program;
// the engine validates ownership and accounting around them, never the swap
// semantics themselves.
func (e *Engine) BatchLiquidate(
	ctx context.Context,
	caller solana.PublicKey,
	targetAccount solana.PublicKey,
	req LiquidateRequest,
) (*LiquidateResult, error) {
	if e.state == nil {
		return nil, ErrNotInitialized
	}

	target, err := e.ledger.Account(ctx, targetAccount)
	if err != nil {
		return nil, fmt.Errorf("load target account: %w", err)
	}
	if !target.Owner.Equals(caller) {
		return nil, ErrInvalidTargetAccount
	}
	if !target.Mint.Equals(req.TargetMint) {
		return nil, ErrInvalidTargetMint
	}

	candidates, skippedDust, err := e.selectCandidates(ctx, caller, targetAccount, req)
	if err != nil {
		return nil, err
	}

	// Accounts a route names must come from the caller-supplied context.
	known := make(map[solana.PublicKey]struct{}, len(req.ExtraAccounts))
	for _, a := range req.ExtraAccounts {
		known[a] = struct{}{}
	}

	for i, candidate := range candidates {
		if i >= len(req.Routes) {
			return nil, ErrInvalidJupiterRoute
		}
		route := req.Routes[i]

		resolved := make([]solana.PublicKey, 0, len(route.Accounts))
		for _, a := range route.Accounts {
			if _, ok := known[a]; !ok {
				return nil, ErrAccountNotFound
			}
			resolved = append(resolved, a)
		}

		if err := e.router.Invoke(ctx, e.routerProgram, resolved, route.Data); err != nil {
			return nil, fmt.Errorf("swap %d (%s): %w", i, candidate.Address, err)
		}
		e.logger.Debug("swap executed",
			zap.Int("index", i),
			zap.String("source", candidate.Address.String()),
			zap.Int("payload_bytes", len(route.Data)))
	}

	// The fee and the output floor are both taken from the balance observed
	// once the swaps have run; the fee transfer itself does not lower the
	// balance the floor is checked against.
	postSwap, err := e.ledger.Account(ctx, targetAccount)
	if err != nil {
		return nil, fmt.Errorf("reload target account: %w", err)
	}

	fee, err := CalculateFee(postSwap.Amount, e.state.FeeBasisPoints)
	if err != nil {
		return nil, err
	}
	if fee > 0 {
		if err := e.ledger.Transfer(ctx, targetAccount, e.state.FeeAccount, caller, fee); err != nil {
			return nil, fmt.Errorf("collect fee: %w", err)
		}
	}

	if postSwap.Amount < fee || postSwap.Amount-fee < req.MinOutputAmount {
		return nil, ErrInsufficientOutput
	}

	res := &LiquidateResult{
		SwapsExecuted: len(candidates),
		SkippedDust:   skippedDust,
		FeeAmount:     fee,
		FinalBalance:  postSwap.Amount - fee,
	}
	e.logger.Info("batch liquidation complete",
		zap.Int("swaps", res.SwapsExecuted),
		zap.Int("skipped_dust", res.SkippedDust),
		zap.Uint64("fee", res.FeeAmount),
		zap.Uint64("final_balance", res.FinalBalance))
	return res, nil
}

// selectCandidates walks the supplied account context in order and keeps the
// caller's token accounts that pass the dust rule. Accounts the ledger does
// not recognize are route context, not candidates, and are skipped.
func (e *Engine) selectCandidates(
	ctx context.Context,
	caller solana.PublicKey,
	targetAccount solana.PublicKey,
	req LiquidateRequest,
) ([]TokenAccount, int, error) {
	var candidates []TokenAccount
	var skippedDust int

	for _, addr := range req.ExtraAccounts {
		if addr.Equals(targetAccount) {
			continue
		}
		acc, err := e.ledger.Account(ctx, addr)
		if err != nil {
			continue
		}
		if !acc.Owner.Equals(caller) {
			continue
		}

		value, err := e.valuer.TokenValueUSD(ctx, acc)
		if err != nil {
			return nil, 0, fmt.Errorf("value %s: %w", addr, err)
		}
		if !req.IncludeDust && value < req.MinTokenValueUSD {
			skippedDust++
			continue
		}
		candidates = append(candidates, acc)
	}
	return candidates, skippedDust, nil
}
