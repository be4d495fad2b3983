// internal/blockchain/solana/submit.go
package solana

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"

	"github.com/porgdao/porg/internal/porg"
	"github.com/porgdao/porg/internal/wallet"
)

// SubmitOption adjusts how a transaction is built before submission.
type SubmitOption func(*submitOptions)

type submitOptions struct {
	extraSigners []solana.PrivateKey
}

// WithExtraSigner adds a keypair beyond the fee-paying wallet that must
// sign the transaction.
func WithExtraSigner(key solana.PrivateKey) SubmitOption {
	return func(o *submitOptions) {
		o.extraSigners = append(o.extraSigners, key)
	}
}

// SubmitWithRetry signs, sends and confirms a transaction, retrying
// transient failures (expired blockhash, endpoint trouble) with exponential
// backoff. Program failures are mapped to their engine errors and not
// retried.
func SubmitWithRetry(
	ctx context.Context,
	client *Client,
	w *wallet.Wallet,
	instructions []solana.Instruction,
	opts ...SubmitOption,
) (solana.Signature, error) {
	var options submitOptions
	for _, opt := range opts {
		opt(&options)
	}

	op := func() (solana.Signature, error) {
		tx, err := createSignedTransaction(ctx, client, w, instructions, options.extraSigners)
		if err != nil {
			return solana.Signature{}, err
		}
		return submitAndConfirm(ctx, client, tx)
	}

	return backoff.Retry(
		ctx,
		op,
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxElapsedTime(30*time.Second),
	)
}

func createSignedTransaction(
	ctx context.Context,
	client *Client,
	w *wallet.Wallet,
	instructions []solana.Instruction,
	extraSigners []solana.PrivateKey,
) (*solana.Transaction, error) {
	blockhash, err := client.GetRecentBlockhash(ctx)
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to get recent blockhash: %w", err))
	}

	tx, err := solana.NewTransaction(instructions, blockhash, solana.TransactionPayer(w.PublicKey))
	if err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to create transaction: %w", err))
	}

	if err := w.SignTransaction(tx, extraSigners...); err != nil {
		return nil, backoff.Permanent(fmt.Errorf("failed to sign transaction: %w", err))
	}
	return tx, nil
}

func submitAndConfirm(ctx context.Context, client *Client, tx *solana.Transaction) (solana.Signature, error) {
	sig, err := client.SendTransaction(ctx, tx)
	if err != nil {
		if strings.Contains(err.Error(), "BlockhashNotFound") {
			return solana.Signature{}, err // transient, let backoff retry
		}
		return solana.Signature{}, backoff.Permanent(porg.MapRPCError(err))
	}

	if err := client.WaitForTransactionConfirmation(ctx, sig, rpc.CommitmentConfirmed); err != nil {
		return sig, backoff.Permanent(porg.MapRPCError(err))
	}
	return sig, nil
}
